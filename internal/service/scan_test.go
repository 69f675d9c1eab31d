package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tixengine/internal/model"
	"tixengine/internal/repo"
)

func validTicket() *model.Ticket {
	return &model.Ticket{
		ID:           "ticket-1",
		EventID:      "event-1",
		TierID:       "tier-1",
		OrderID:      "order-1",
		TicketNumber: "TKT-A1B2C3D4",
		ScanCode:     "scan-code-1",
		Status:       model.TicketValid,
	}
}

func TestScan_Success(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	r.On("GetTicketByScanCode", mock.Anything, "scan-code-1").Return(validTicket(), nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)
	r.On("RedeemTicket", mock.Anything, "ticket-1", "staff-1", mock.Anything).Return(true, nil)
	r.On("ResolveAttendeeName", mock.Anything, "ticket-1").Return("Jane Doe", nil)

	res, err := svc.Scan(context.Background(), "scan-code-1", "staff-1", "")
	require.NoError(t, err)

	assert.Equal(t, ScanSuccess, res.Status)
	assert.Equal(t, "TKT-A1B2C3D4", res.TicketNumber)
	assert.Equal(t, "Jane Doe", res.AttendeeName)
	assert.Equal(t, "Summer Fest", res.EventName)
	require.NotNil(t, res.CheckedInAt)
	r.AssertExpectations(t)
}

func TestScan_FallsBackToTicketNumber(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	// The exact scan-code lookup misses; the ticket-number matcher hits.
	r.On("GetTicketByScanCode", mock.Anything, "TKT-A1B2C3D4").Return(nil, repo.ErrTicketNotFound)
	r.On("GetTicketByNumber", mock.Anything, "TKT-A1B2C3D4").Return(validTicket(), nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)
	r.On("RedeemTicket", mock.Anything, "ticket-1", "staff-1", mock.Anything).Return(true, nil)
	r.On("ResolveAttendeeName", mock.Anything, "ticket-1").Return("Jane Doe", nil)

	res, err := svc.Scan(context.Background(), "TKT-A1B2C3D4", "staff-1", "")
	require.NoError(t, err)
	assert.Equal(t, ScanSuccess, res.Status)
	r.AssertExpectations(t)
}

func TestScan_FallsBackToCompositeTicketID(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	id := "7f9c24e5-1b6a-4d3e-8f0a-2c5b7d9e1f3a"
	code := id + ":7F9C24E5"
	ticket := validTicket()
	ticket.ID = id

	r.On("GetTicketByScanCode", mock.Anything, code).Return(nil, repo.ErrTicketNotFound)
	r.On("GetTicketByID", mock.Anything, id).Return(ticket, nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)
	r.On("RedeemTicket", mock.Anything, id, "staff-1", mock.Anything).Return(true, nil)
	r.On("ResolveAttendeeName", mock.Anything, id).Return("Jane Doe", nil)

	res, err := svc.Scan(context.Background(), code, "staff-1", "")
	require.NoError(t, err)
	assert.Equal(t, ScanSuccess, res.Status)
}

func TestScan_NotFound(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	r.On("GetTicketByScanCode", mock.Anything, "bogus").Return(nil, repo.ErrTicketNotFound)

	res, err := svc.Scan(context.Background(), "bogus", "staff-1", "")
	require.NoError(t, err)
	assert.Equal(t, ScanNotFound, res.Status)
	assert.Empty(t, res.TicketNumber)
}

func TestScan_Unauthorized_RevealsNothing(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	r.On("GetTicketByScanCode", mock.Anything, "scan-code-1").Return(validTicket(), nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "stranger").Return(false, nil)

	res, err := svc.Scan(context.Background(), "scan-code-1", "stranger", "")
	require.NoError(t, err)

	assert.Equal(t, ScanUnauthorized, res.Status)
	assert.Empty(t, res.TicketNumber)
	assert.Empty(t, res.AttendeeName)
	r.AssertNotCalled(t, "RedeemTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScan_WrongEventContext(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	r.On("GetTicketByScanCode", mock.Anything, "scan-code-1").Return(validTicket(), nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)

	res, err := svc.Scan(context.Background(), "scan-code-1", "staff-1", "event-other")
	require.NoError(t, err)

	assert.Equal(t, ScanWrongEvent, res.Status)
	assert.Equal(t, "Summer Fest", res.EventName)
	r.AssertNotCalled(t, "RedeemTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScan_AlreadyUsed(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	at := time.Now().Add(-10 * time.Minute)
	ticket := validTicket()
	ticket.Status = model.TicketUsed
	ticket.CheckedInAt = &at

	r.On("GetTicketByScanCode", mock.Anything, "scan-code-1").Return(ticket, nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)

	res, err := svc.Scan(context.Background(), "scan-code-1", "staff-1", "")
	require.NoError(t, err)

	assert.Equal(t, ScanAlreadyScanned, res.Status)
	require.NotNil(t, res.CheckedInAt)
	assert.True(t, res.CheckedInAt.Equal(at))
	r.AssertNotCalled(t, "RedeemTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScan_RefundedTicket(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	ticket := validTicket()
	ticket.Status = model.TicketRefunded

	r.On("GetTicketByScanCode", mock.Anything, "scan-code-1").Return(ticket, nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)

	res, err := svc.Scan(context.Background(), "scan-code-1", "staff-1", "")
	require.NoError(t, err)
	assert.Equal(t, ScanVoided, res.Status)
}

func TestScan_LostRace_ReportsWinnerCheckIn(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	winnerAt := time.Now()
	after := validTicket()
	after.Status = model.TicketUsed
	after.CheckedInAt = &winnerAt

	r.On("GetTicketByScanCode", mock.Anything, "scan-code-1").Return(validTicket(), nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)
	// Conditional write lost to a concurrent scan.
	r.On("RedeemTicket", mock.Anything, "ticket-1", "staff-1", mock.Anything).Return(false, nil)
	r.On("GetTicketByID", mock.Anything, "ticket-1").Return(after, nil)

	res, err := svc.Scan(context.Background(), "scan-code-1", "staff-1", "")
	require.NoError(t, err)

	assert.Equal(t, ScanAlreadyScanned, res.Status)
	require.NotNil(t, res.CheckedInAt)
	assert.True(t, res.CheckedInAt.Equal(winnerAt))
	r.AssertNotCalled(t, "ResolveAttendeeName", mock.Anything, mock.Anything)
}

func TestScan_AttendeeNameFailure_FallsBackToGuest(t *testing.T) {
	r := new(mockRepo)
	svc := NewScanService(r, testLogger())

	r.On("GetTicketByScanCode", mock.Anything, "scan-code-1").Return(validTicket(), nil)
	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("IsOrganizerMember", mock.Anything, "partner-1", "staff-1").Return(true, nil)
	r.On("RedeemTicket", mock.Anything, "ticket-1", "staff-1", mock.Anything).Return(true, nil)
	r.On("ResolveAttendeeName", mock.Anything, "ticket-1").Return("", assert.AnError)

	res, err := svc.Scan(context.Background(), "scan-code-1", "staff-1", "")
	require.NoError(t, err)

	assert.Equal(t, ScanSuccess, res.Status)
	assert.Equal(t, "Guest", res.AttendeeName)
}
