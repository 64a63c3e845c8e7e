package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"bookly/backend/internal/domain"
)

type Memory struct {
	c *gocache.Cache
}

func NewMemory(ttl, cleanupInterval time.Duration) *Memory {
	return &Memory{c: gocache.New(ttl, cleanupInterval)}
}

func (m *Memory) Get(ctx context.Context, providerID int64, rng domain.Interval) ([]domain.Interval, error) {
	v, ok := m.c.Get(key(providerID, rng))
	if !ok {
		return nil, ErrMiss
	}
	windows, ok := v.([]domain.Interval)
	if !ok {
		return nil, ErrMiss
	}
	return append([]domain.Interval(nil), windows...), nil
}

func (m *Memory) Set(ctx context.Context, providerID int64, rng domain.Interval, windows []domain.Interval) error {
	m.c.Set(key(providerID, rng), append([]domain.Interval(nil), windows...), gocache.DefaultExpiration)
	return nil
}

func (m *Memory) InvalidateProvider(ctx context.Context, providerID int64) error {
	prefix := providerPrefix(providerID)
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			m.c.Delete(k)
		}
	}
	return nil
}
