package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
	"github.com/jmoretti/sibyl/pkg/redis"
)

const priceCacheTTL = 15 * time.Minute

// PriceStore fronts the price repository with a Redis cache. Full-range
// reads during prediction and backtesting hit the same series over and
// over; the cache keeps those off PostgreSQL. When Redis is disabled
// every call falls through to the repository.
type PriceStore struct {
	repo   *PriceRepository
	cache  *redis.Cache
	logger *logger.Logger
}

// NewPriceStore wraps a price repository with caching.
func NewPriceStore(repo *PriceRepository, cache *redis.Cache, log *logger.Logger) *PriceStore {
	return &PriceStore{
		repo:   repo,
		cache:  cache,
		logger: log.WithComponent("price_store"),
	}
}

// GetLast returns the most recent n points, serving from cache when
// the same window was read recently.
func (s *PriceStore) GetLast(ctx context.Context, symbol string, n int) ([]contracts.PricePoint, error) {
	key := lastKey(symbol, n)

	var cached []contracts.PricePoint
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithField("symbol", symbol).WithError(err).Warn("price cache read failed")
	}
	if hit {
		return cached, nil
	}

	points, err := s.repo.GetLast(ctx, symbol, n)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, points, priceCacheTTL); err != nil {
		s.logger.WithField("symbol", symbol).WithError(err).Warn("price cache write failed")
	}
	return points, nil
}

// GetRange returns the series between from and to inclusive.
// Range reads are not cached; their key space is unbounded.
func (s *PriceStore) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	return s.repo.GetRange(ctx, symbol, from, to)
}

// GetLatest returns the most recent stored point.
func (s *PriceStore) GetLatest(ctx context.Context, symbol string) (*contracts.PricePoint, error) {
	return s.repo.GetLatest(ctx, symbol)
}

// SaveBatch writes a series and invalidates the symbol's cached reads.
func (s *PriceStore) SaveBatch(ctx context.Context, symbol string, points []contracts.PricePoint) error {
	if err := s.repo.SaveBatch(ctx, symbol, points); err != nil {
		return err
	}
	s.invalidate(ctx, symbol)
	return nil
}

// ListSymbols returns every symbol with stored history.
func (s *PriceStore) ListSymbols(ctx context.Context) ([]string, error) {
	return s.repo.ListSymbols(ctx)
}

func (s *PriceStore) invalidate(ctx context.Context, symbol string) {
	// Every last-n entry for the symbol goes, whatever window size was
	// read. A fresh sync must never serve a stale cached series.
	if err := s.cache.DeletePattern(ctx, invalidationPattern(symbol)); err != nil {
		s.logger.WithField("symbol", symbol).WithError(err).Warn("price cache invalidation failed")
	}
}

// lastKey is the cache key for a symbol's most recent n points.
func lastKey(symbol string, n int) string {
	return fmt.Sprintf("prices:%s:last:%d", symbol, n)
}

// invalidationPattern matches all cached last-n windows for a symbol.
func invalidationPattern(symbol string) string {
	return fmt.Sprintf("prices:%s:last:*", symbol)
}
