package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Service is a bookable offering. Its duration fixes the length of every
// appointment booked against it.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              int64     `bun:"id,pk,autoincrement"`
	ProviderID      int64     `bun:"provider_id,notnull"`
	Name            string    `bun:"name,notnull"`
	Description     string    `bun:"description"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	Price           *string   `bun:"price"`
	IsActive        bool      `bun:"is_active,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}
