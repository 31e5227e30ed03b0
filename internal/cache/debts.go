// Package cache holds the Redis-backed read-through cache of each user's
// debt list. The service invalidates the whole entry after any mutation,
// mirroring the client's reload-everything strategy instead of patching
// cached records in place.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mydebts/mydebts-be/internal/models"
)

const debtsTTL = 5 * time.Minute

// DebtCache caches per-user debt lists. A nil *DebtCache is a valid
// no-op cache, so callers never need to branch on whether Redis is
// configured.
type DebtCache struct {
	client *redis.Client
}

// NewDebtCache connects to Redis at addr. An empty addr returns nil,
// disabling caching.
func NewDebtCache(addr string) *DebtCache {
	if addr == "" {
		return nil
	}
	return &DebtCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func key(userID string) string {
	return "debts:" + userID
}

// Get returns the cached list for the user, or false on a miss.
func (c *DebtCache) Get(ctx context.Context, userID string) ([]models.Debt, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var debts []models.Debt
	if err := json.Unmarshal(raw, &debts); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Discarding undecodable cached debt list")
		return nil, false
	}
	return debts, true
}

// Set stores the user's debt list.
func (c *DebtCache) Set(ctx context.Context, userID string, debts []models.Debt) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(debts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(userID), raw, debtsTTL).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to cache debt list")
	}
}

// Invalidate drops the cached list for every affected user.
func (c *DebtCache) Invalidate(ctx context.Context, userIDs ...string) {
	if c == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			keys = append(keys, key(id))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate cached debt lists")
	}
}
