// Package cache holds the Redis-backed dashboard-metrics cache. Entries
// are a performance hint only: settlement always recomputes on a miss,
// and writers invalidate after refunds and payout requests.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tixengine/internal/model"
)

const keyPrefix = "dashboard:metrics:"

type MetricsCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zerolog.Logger
}

func NewMetricsCache(rdb *redis.Client, ttl time.Duration, log *zerolog.Logger) *MetricsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MetricsCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *MetricsCache) Get(ctx context.Context, partnerID string) (*model.DashboardMetrics, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+partnerID).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("partner_id", partnerID).Msg("metrics cache read failed")
		}
		return nil, false
	}

	var m model.DashboardMetrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		c.log.Warn().Err(err).Str("partner_id", partnerID).Msg("metrics cache entry corrupt, dropping")
		c.rdb.Del(ctx, keyPrefix+partnerID)
		return nil, false
	}
	return &m, true
}

func (c *MetricsCache) Set(ctx context.Context, m *model.DashboardMetrics) {
	raw, err := json.Marshal(m)
	if err != nil {
		c.log.Warn().Err(err).Str("partner_id", m.PartnerID).Msg("metrics cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+m.PartnerID, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("partner_id", m.PartnerID).Msg("metrics cache write failed")
	}
}

func (c *MetricsCache) Invalidate(ctx context.Context, partnerID string) {
	if err := c.rdb.Del(ctx, keyPrefix+partnerID).Err(); err != nil {
		c.log.Warn().Err(err).Str("partner_id", partnerID).Msg("metrics cache invalidate failed")
	}
}
