// Package cache stores derived provider availability between requests.
// Entries are keyed by provider and query range and dropped wholesale when a
// provider's rules, time blocks or timezone change. Commit-time validation
// never reads from the cache.
package cache

import (
	"context"
	"errors"
	"fmt"

	"bookly/backend/internal/domain"
)

var ErrMiss = errors.New("cache miss")

type Availability interface {
	Get(ctx context.Context, providerID int64, rng domain.Interval) ([]domain.Interval, error)
	Set(ctx context.Context, providerID int64, rng domain.Interval, windows []domain.Interval) error
	InvalidateProvider(ctx context.Context, providerID int64) error
}

func providerPrefix(providerID int64) string {
	return fmt.Sprintf("availability:%d:", providerID)
}

func key(providerID int64, rng domain.Interval) string {
	return fmt.Sprintf("%s%d:%d", providerPrefix(providerID), rng.Start.UnixNano(), rng.End.UnixNano())
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, int64, domain.Interval) ([]domain.Interval, error) {
	return nil, ErrMiss
}

func (Noop) Set(context.Context, int64, domain.Interval, []domain.Interval) error { return nil }

func (Noop) InvalidateProvider(context.Context, int64) error { return nil }
