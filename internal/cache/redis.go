package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookly/backend/internal/domain"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisClient returns a connected client or an error when the server does
// not answer a ping.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

func NewRedis(client *redis.Client, ttl time.Duration, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = "bookly:"
	}
	return &Redis{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

type cachedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r *Redis) Get(ctx context.Context, providerID int64, rng domain.Interval) ([]domain.Interval, error) {
	k := r.keyPrefix + key(providerID, rng)
	raw, err := r.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", k, err)
	}

	var rows []cachedInterval
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal cache value for %s: %w", k, err)
	}
	out := make([]domain.Interval, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.NewInterval(row.Start, row.End))
	}
	return out, nil
}

func (r *Redis) Set(ctx context.Context, providerID int64, rng domain.Interval, windows []domain.Interval) error {
	rows := make([]cachedInterval, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, cachedInterval{Start: w.Start, End: w.End})
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	k := r.keyPrefix + key(providerID, rng)
	if err := r.client.Set(ctx, k, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

func (r *Redis) InvalidateProvider(ctx context.Context, providerID int64) error {
	pattern := r.keyPrefix + providerPrefix(providerID) + "*"
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return nil
}
