package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

type Provider struct {
	bun.BaseModel `bun:"table:providers"`

	ID           int64     `bun:"id,pk,autoincrement"`
	BusinessName string    `bun:"business_name,notnull"`
	BusinessType string    `bun:"business_type"`
	Address      string    `bun:"address"`
	Bio          string    `bun:"bio"`
	Timezone     string    `bun:"timezone,notnull"`
	AutoConfirm  bool      `bun:"auto_confirm,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// Location resolves the provider's IANA zone.
func (p Provider) Location() (*time.Location, error) {
	return LoadLocation(p.Timezone)
}

// LoadLocation loads an IANA zone. Empty names and "Local" are refused so a
// provider's calendar never depends on the host's configuration.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, ErrInvalidTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

func (p *Provider) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}
