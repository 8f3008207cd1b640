package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	pollHintPrefix = "grv:ver:"
	pollHintTTL    = 10 * time.Minute
)

// PollHintCache lets polling clients skip store reads when nothing changed.
// After every accepted mutation the new version is written to Redis; a
// client presenting the version it already holds gets a cheap "unchanged"
// answer. Strictly best effort: a missing or unreachable hint degrades to a
// normal store read, never to stale data. The cache sits outside the
// mutation path and is never consulted when writing.
type PollHintCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPollHintCache wraps the Redis client. A nil client yields a cache that
// answers "changed" for everything.
func NewPollHintCache(client *redis.Client, logger *zap.Logger) *PollHintCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollHintCache{client: client, logger: logger}
}

// hintKey scopes hints to the filer. A hint must never answer for anyone
// but the owner of the ticket; an unscoped key would let a foreign caller
// probe ticket existence and version through the short-circuit.
func hintKey(filedBy, ticketID string) string {
	return pollHintPrefix + filedBy + ":" + ticketID
}

// Record stores the latest version for a ticket, best effort.
func (c *PollHintCache) Record(ctx context.Context, filedBy, ticketID string, version int64) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, hintKey(filedBy, ticketID), version, pollHintTTL).Err(); err != nil {
		c.logger.Debug("poll hint write failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

// Unchanged reports whether the caller's ticket is known to still be at
// knownVersion. False means "unknown or changed" and the caller must read
// the store.
func (c *PollHintCache) Unchanged(ctx context.Context, filedBy, ticketID string, knownVersion int64) bool {
	if c == nil || c.client == nil || knownVersion <= 0 {
		return false
	}
	raw, err := c.client.Get(ctx, hintKey(filedBy, ticketID)).Result()
	if err != nil {
		return false
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return version == knownVersion
}
