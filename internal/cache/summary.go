package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/credit-ledger/internal/domain"
)

// SummaryCache stores each user's portfolio summary. Entries may be stale for
// at most their TTL; writes that touch a user's loans invalidate the entry.
type SummaryCache interface {
	Fetch(ctx context.Context, userID uuid.UUID, compute func() (domain.Summary, error)) (domain.Summary, error)
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// SummaryKey is the redis key holding a user's summary.
func SummaryKey(userID uuid.UUID) string {
	return fmt.Sprintf("summary:%s", userID)
}

type redisSummaryCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewSummaryCache caches summaries in redis for ttl. A zero ttl disables
// caching and always computes.
func NewSummaryCache(c *RedisCache, ttl time.Duration) SummaryCache {
	if ttl <= 0 {
		return NopSummaryCache{}
	}
	return &redisSummaryCache{cache: c, ttl: ttl}
}

func (s *redisSummaryCache) Fetch(ctx context.Context, userID uuid.UUID, compute func() (domain.Summary, error)) (domain.Summary, error) {
	return GetOrSet(ctx, s.cache, SummaryKey(userID), s.ttl, compute)
}

func (s *redisSummaryCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := s.cache.Delete(ctx, SummaryKey(userID)); err != nil {
		s.cache.logger.Warn("summary invalidation failed", zap.Stringer("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// NopSummaryCache always computes. Used when redis is disabled.
type NopSummaryCache struct{}

func (NopSummaryCache) Fetch(_ context.Context, _ uuid.UUID, compute func() (domain.Summary, error)) (domain.Summary, error) {
	return compute()
}

func (NopSummaryCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}
