package tax_models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
	"github.com/redis/go-redis/v9"
)

const snapshotCacheKey = "tax:snapshot:v1"

// SnapshotCache serves the enabled tax rules from Redis for a short TTL and
// falls back to Postgres on a miss. A nil Redis client disables caching.
type SnapshotCache struct {
	DB    db.DBTX
	Redis *redis.Client
	TTL   time.Duration
}

func NewSnapshotCache(q db.DBTX, rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{DB: q, Redis: rdb, TTL: ttl}
}

// Snapshot returns the current tax snapshot.
func (c *SnapshotCache) Snapshot(ctx context.Context) (billing.TaxSnapshot, error) {
	if c.Redis != nil && c.TTL > 0 {
		raw, err := c.Redis.Get(ctx, snapshotCacheKey).Bytes()
		switch {
		case err == nil:
			var cached billing.TaxSnapshot
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
			logger.WarnLogger.Warn("Discarding unreadable cached tax snapshot")
		case !errors.Is(err, redis.Nil):
			logger.WarnLogger.Warnf("Tax snapshot cache read failed: %v", err)
		}
	}

	snapshot, err := LoadSnapshot(ctx, c.DB)
	if err != nil {
		return billing.TaxSnapshot{}, err
	}

	if c.Redis != nil && c.TTL > 0 {
		if raw, err := json.Marshal(snapshot); err == nil {
			if err := c.Redis.Set(ctx, snapshotCacheKey, raw, c.TTL).Err(); err != nil {
				logger.WarnLogger.Warnf("Tax snapshot cache write failed: %v", err)
			}
		}
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot after an admin write.
func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if c.Redis == nil {
		return
	}
	if err := c.Redis.Del(ctx, snapshotCacheKey).Err(); err != nil {
		logger.WarnLogger.Warnf("Tax snapshot cache invalidation failed: %v", err)
	}
}
