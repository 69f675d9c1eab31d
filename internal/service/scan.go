package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"tixengine/internal/model"
	"tixengine/internal/monitoring"
	"tixengine/internal/repo"
	"tixengine/internal/scancode"
)

// Scan outcome statuses. These are expected results, not errors: a
// rejected scan is ordinary control flow at a busy venue door.
const (
	ScanSuccess        = "success"
	ScanAlreadyScanned = "already_scanned"
	ScanWrongEvent     = "wrong_event"
	ScanVoided         = "voided"
	ScanUnauthorized   = "unauthorized"
	ScanNotFound       = "not_found"
)

type ScanResult struct {
	Status       string
	TicketNumber string
	AttendeeName string
	EventName    string
	CheckedInAt  *time.Time
}

// ScanService is the redemption state machine: it resolves a presented
// code, authorizes the scanning user and performs the one-time
// valid→used transition.
type ScanService struct {
	repo repo.Repository
	log  *zerolog.Logger
}

func NewScanService(r repo.Repository, log *zerolog.Logger) *ScanService {
	return &ScanService{repo: r, log: log}
}

func (s *ScanService) resolveTicket(ctx context.Context, code string) (*model.Ticket, error) {
	for _, c := range scancode.Resolve(code) {
		var (
			t   *model.Ticket
			err error
		)
		switch c.Kind {
		case scancode.ByScanCode:
			t, err = s.repo.GetTicketByScanCode(ctx, c.Value)
		case scancode.ByTicketNumber:
			t, err = s.repo.GetTicketByNumber(ctx, c.Value)
		case scancode.ByTicketID:
			t, err = s.repo.GetTicketByID(ctx, c.Value)
		}
		if err != nil {
			if errors.Is(err, repo.ErrTicketNotFound) {
				continue
			}
			return nil, err
		}
		return t, nil
	}
	return nil, repo.ErrTicketNotFound
}

// Scan validates a presented code for the scanning user. eventContext,
// when non-empty, is the event the scanner session is bound to; a
// mismatch is rejected with the ticket's actual event name so the
// operator can redirect the attendee.
func (s *ScanService) Scan(ctx context.Context, code, scanningUserID, eventContext string) (*ScanResult, error) {
	ticket, err := s.resolveTicket(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrTicketNotFound) {
			monitoring.TrackScan(ScanNotFound)
			return &ScanResult{Status: ScanNotFound}, nil
		}
		return nil, err
	}

	event, err := s.repo.GetEventByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}

	// Authorization comes before anything about the ticket is revealed.
	authorized, err := s.repo.IsOrganizerMember(ctx, event.PartnerID, scanningUserID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		s.log.Warn().
			Str("user_id", scanningUserID).
			Str("event_id", event.ID).
			Msg("unauthorized scan attempt")
		monitoring.TrackScan(ScanUnauthorized)
		return &ScanResult{Status: ScanUnauthorized}, nil
	}

	if eventContext != "" && eventContext != ticket.EventID {
		monitoring.TrackScan(ScanWrongEvent)
		return &ScanResult{
			Status:       ScanWrongEvent,
			TicketNumber: ticket.TicketNumber,
			EventName:    event.Name,
		}, nil
	}

	switch ticket.Status {
	case model.TicketUsed:
		monitoring.TrackScan(ScanAlreadyScanned)
		return &ScanResult{
			Status:       ScanAlreadyScanned,
			TicketNumber: ticket.TicketNumber,
			CheckedInAt:  ticket.CheckedInAt,
		}, nil
	case model.TicketCancelled, model.TicketRefunded:
		monitoring.TrackScan(ScanVoided)
		return &ScanResult{Status: ScanVoided, TicketNumber: ticket.TicketNumber}, nil
	case model.TicketAvailable:
		// Unsold placeholder seats are never exposed to scanners.
		monitoring.TrackScan(ScanNotFound)
		return &ScanResult{Status: ScanNotFound}, nil
	}

	now := time.Now()
	redeemed, err := s.repo.RedeemTicket(ctx, ticket.ID, scanningUserID, now)
	if err != nil {
		return nil, err
	}
	if !redeemed {
		// Lost the conditional write: a concurrent scan won. Re-read to
		// report the winner's check-in, not a retry of the redemption.
		current, err := s.repo.GetTicketByID(ctx, ticket.ID)
		if err != nil {
			return nil, err
		}
		if current.Voided() {
			monitoring.TrackScan(ScanVoided)
			return &ScanResult{Status: ScanVoided, TicketNumber: current.TicketNumber}, nil
		}
		monitoring.TrackScan(ScanAlreadyScanned)
		return &ScanResult{
			Status:       ScanAlreadyScanned,
			TicketNumber: current.TicketNumber,
			CheckedInAt:  current.CheckedInAt,
		}, nil
	}

	name, err := s.repo.ResolveAttendeeName(ctx, ticket.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("ticket_id", ticket.ID).Msg("failed to resolve attendee name")
		name = "Guest"
	}

	s.log.Info().
		Str("ticket_id", ticket.ID).
		Str("event_id", ticket.EventID).
		Str("checked_in_by", scanningUserID).
		Msg("ticket redeemed")
	monitoring.TrackScan(ScanSuccess)

	return &ScanResult{
		Status:       ScanSuccess,
		TicketNumber: ticket.TicketNumber,
		AttendeeName: name,
		EventName:    event.Name,
		CheckedInAt:  &now,
	}, nil
}
