package store

import (
	"context"
	"time"

	"bookly/backend/internal/domain"
)

type CatalogRepository interface {
	CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error)
	GetProvider(ctx context.Context, providerID int64) (domain.Provider, error)
	UpdateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error)

	CreateRule(ctx context.Context, r domain.AvailabilityRule) (domain.AvailabilityRule, error)
	ListRules(ctx context.Context, providerID int64) ([]domain.AvailabilityRule, error)
	UpdateRule(ctx context.Context, r domain.AvailabilityRule) (domain.AvailabilityRule, error)
	DeleteRule(ctx context.Context, providerID, ruleID int64) error

	CreateTimeBlock(ctx context.Context, b domain.TimeBlock) (domain.TimeBlock, error)
	ListTimeBlocks(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, providerID, blockID int64) error

	CreateService(ctx context.Context, s domain.Service) (domain.Service, error)
	GetService(ctx context.Context, serviceID int64) (domain.Service, error)
	ListServices(ctx context.Context, providerID int64, includeInactive bool) ([]domain.Service, error)
	UpdateService(ctx context.Context, s domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, providerID, serviceID int64) error
}
