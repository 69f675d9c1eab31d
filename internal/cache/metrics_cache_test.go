package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tixengine/internal/model"
)

func newTestCache(t *testing.T) (*MetricsCache, redismock.ClientMock) {
	t.Helper()
	rdb, rmock := redismock.NewClientMock()
	log := zerolog.Nop()
	return NewMetricsCache(rdb, time.Minute, &log), rmock
}

func sampleMetrics() *model.DashboardMetrics {
	return &model.DashboardMetrics{
		PartnerID:     "partner-1",
		GrossRevenue:  decimal.NewFromInt(1000),
		PlatformFees:  decimal.NewFromInt(50),
		TicketsIssued: 20,
		OrderCount:    8,
	}
}

func TestMetricsCache_Get_Hit(t *testing.T) {
	c, rmock := newTestCache(t)

	raw, err := json.Marshal(sampleMetrics())
	require.NoError(t, err)
	rmock.ExpectGet("dashboard:metrics:partner-1").SetVal(string(raw))

	m, ok := c.Get(context.Background(), "partner-1")
	require.True(t, ok)
	assert.Equal(t, "partner-1", m.PartnerID)
	assert.True(t, m.GrossRevenue.Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestMetricsCache_Get_Miss(t *testing.T) {
	c, rmock := newTestCache(t)

	rmock.ExpectGet("dashboard:metrics:partner-1").RedisNil()

	_, ok := c.Get(context.Background(), "partner-1")
	assert.False(t, ok)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestMetricsCache_Get_CorruptEntryDropped(t *testing.T) {
	c, rmock := newTestCache(t)

	rmock.ExpectGet("dashboard:metrics:partner-1").SetVal("{not json")
	rmock.ExpectDel("dashboard:metrics:partner-1").SetVal(1)

	_, ok := c.Get(context.Background(), "partner-1")
	assert.False(t, ok)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestMetricsCache_Set(t *testing.T) {
	c, rmock := newTestCache(t)

	m := sampleMetrics()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	rmock.ExpectSet("dashboard:metrics:partner-1", raw, time.Minute).SetVal("OK")

	c.Set(context.Background(), m)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestMetricsCache_Invalidate(t *testing.T) {
	c, rmock := newTestCache(t)

	rmock.ExpectDel("dashboard:metrics:partner-1").SetVal(1)

	c.Invalidate(context.Background(), "partner-1")
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestMetricsCache_DefaultTTL(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	log := zerolog.Nop()
	c := NewMetricsCache(rdb, 0, &log)

	m := sampleMetrics()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	rmock.ExpectSet("dashboard:metrics:partner-1", raw, 30*time.Second).SetVal("OK")

	c.Set(context.Background(), m)
	assert.NoError(t, rmock.ExpectationsWereMet())
}
