package postgres

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

type CatalogRepo struct {
	calendarQueries
	db *bun.DB
}

func NewCatalogRepo(db *bun.DB) *CatalogRepo {
	return &CatalogRepo{calendarQueries: calendarQueries{db: db}, db: db}
}

func (r *CatalogRepo) CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	p.ID = 0
	if _, err := r.db.NewInsert().Model(&p).Returning("*").Exec(ctx); err != nil {
		return domain.Provider{}, mapError(err)
	}
	return p, nil
}

func (r *CatalogRepo) UpdateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	res, err := r.db.NewUpdate().
		Model(&p).
		Column("business_name", "business_type", "address", "bio", "timezone", "auto_confirm", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err := affectedOne(res, err); err != nil {
		return domain.Provider{}, err
	}
	return p, nil
}

func (r *CatalogRepo) CreateRule(ctx context.Context, rule domain.AvailabilityRule) (domain.AvailabilityRule, error) {
	rule.ID = 0
	if _, err := r.db.NewInsert().Model(&rule).Returning("*").Exec(ctx); err != nil {
		return domain.AvailabilityRule{}, mapError(err)
	}
	return rule, nil
}

func (r *CatalogRepo) UpdateRule(ctx context.Context, rule domain.AvailabilityRule) (domain.AvailabilityRule, error) {
	res, err := r.db.NewUpdate().
		Model(&rule).
		Column("day_of_week", "start_time", "end_time", "updated_at").
		WherePK().
		Where("provider_id = ?", rule.ProviderID).
		Returning("*").
		Exec(ctx)
	if err := affectedOne(res, err); err != nil {
		return domain.AvailabilityRule{}, err
	}
	return rule, nil
}

func (r *CatalogRepo) DeleteRule(ctx context.Context, providerID, ruleID int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.AvailabilityRule)(nil)).
		Where("provider_id = ?", providerID).
		Where("id = ?", ruleID).
		Exec(ctx)
	return affectedOne(res, err)
}

func (r *CatalogRepo) CreateTimeBlock(ctx context.Context, b domain.TimeBlock) (domain.TimeBlock, error) {
	b.ID = 0
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	if _, err := r.db.NewInsert().Model(&b).Returning("*").Exec(ctx); err != nil {
		return domain.TimeBlock{}, mapError(err)
	}
	return b, nil
}

func (r *CatalogRepo) DeleteTimeBlock(ctx context.Context, providerID, blockID int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.TimeBlock)(nil)).
		Where("provider_id = ?", providerID).
		Where("id = ?", blockID).
		Exec(ctx)
	return affectedOne(res, err)
}

func (r *CatalogRepo) CreateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	s.ID = 0
	if _, err := r.db.NewInsert().Model(&s).Returning("*").Exec(ctx); err != nil {
		return domain.Service{}, mapError(err)
	}
	return s, nil
}

func (r *CatalogRepo) ListServices(ctx context.Context, providerID int64, includeInactive bool) ([]domain.Service, error) {
	var rows []domain.Service
	q := r.db.NewSelect().Model(&rows).Where("provider_id = ?", providerID)
	if !includeInactive {
		q = q.Where("is_active = TRUE")
	}
	if err := q.OrderExpr("name ASC, id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *CatalogRepo) UpdateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	res, err := r.db.NewUpdate().
		Model(&s).
		Column("name", "description", "duration_minutes", "price", "is_active", "updated_at").
		WherePK().
		Where("provider_id = ?", s.ProviderID).
		Returning("*").
		Exec(ctx)
	if err := affectedOne(res, err); err != nil {
		return domain.Service{}, err
	}
	return s, nil
}

// DeleteService removes the service; the schema detaches historical
// appointments by nulling their service_id.
func (r *CatalogRepo) DeleteService(ctx context.Context, providerID, serviceID int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.Service)(nil)).
		Where("provider_id = ?", providerID).
		Where("id = ?", serviceID).
		Exec(ctx)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

var (
	_ store.CatalogRepository = (*CatalogRepo)(nil)
	_ store.BookingRepository = (*AppointmentRepo)(nil)
)
