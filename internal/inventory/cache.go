package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	redispkg "github.com/waithaka-labs/dukapos-backend/pkg/redis"
)

// SnapshotCache caches on-hand quantities in Redis so hot stock-level reads
// skip the aggregate query. Writes invalidate; reads fall back to the DB on
// any cache failure.
type SnapshotCache struct {
	store redispkg.SnapshotStore
	ttl   time.Duration
}

type cachedLevel struct {
	Quantity decimal.Decimal `json:"quantity"`
	CachedAt time.Time       `json:"cached_at"`
}

// NewSnapshotCache builds the cache. A nil store disables caching.
func NewSnapshotCache(store redispkg.SnapshotStore, ttl time.Duration) *SnapshotCache {
	if store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SnapshotCache{store: store, ttl: ttl}
}

func (c *SnapshotCache) key(channelID, locationID, variantID uuid.UUID) string {
	return c.store.SnapshotKey(channelID.String(), locationID.String(), variantID.String())
}

// GetQuantity returns the cached quantity, or ok=false on miss or error.
func (c *SnapshotCache) GetQuantity(ctx context.Context, channelID, locationID, variantID uuid.UUID) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	raw, err := c.store.Get(ctx, c.key(channelID, locationID, variantID))
	if err != nil {
		return decimal.Zero, false
	}
	var cached cachedLevel
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return decimal.Zero, false
	}
	return cached.Quantity, true
}

// SetQuantity stores the quantity with the configured TTL. Errors are dropped;
// the cache is an optimization, not a source of truth.
func (c *SnapshotCache) SetQuantity(ctx context.Context, channelID, locationID, variantID uuid.UUID, quantity decimal.Decimal) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(cachedLevel{Quantity: quantity, CachedAt: time.Now()})
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, c.key(channelID, locationID, variantID), string(payload), c.ttl)
}

// Invalidate drops the cached quantity after a write touches the tuple.
func (c *SnapshotCache) Invalidate(ctx context.Context, channelID, locationID, variantID uuid.UUID) {
	if c == nil {
		return
	}
	_ = c.store.Del(ctx, c.key(channelID, locationID, variantID))
}
