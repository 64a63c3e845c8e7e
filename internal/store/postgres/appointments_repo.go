package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

type AppointmentRepo struct {
	calendarQueries
	db          *bun.DB
	lockTimeout time.Duration
}

// NewAppointmentRepo returns the booking repository. lockTimeout bounds how
// long a transaction waits for the provider lock; zero leaves the server
// default.
func NewAppointmentRepo(db *bun.DB, lockTimeout time.Duration) *AppointmentRepo {
	return &AppointmentRepo{calendarQueries: calendarQueries{db: db}, db: db, lockTimeout: lockTimeout}
}

type calendarTx struct {
	calendarQueries
	tx bun.Tx
}

// calendarQueries holds the reads shared by the repository and its
// transactions.
type calendarQueries struct {
	db bun.IDB
}

func (q calendarQueries) GetProvider(ctx context.Context, providerID int64) (domain.Provider, error) {
	var p domain.Provider
	err := q.db.NewSelect().Model(&p).Where("id = ?", providerID).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Provider{}, mapError(err)
	}
	return p, nil
}

func (q calendarQueries) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	var s domain.Service
	err := q.db.NewSelect().Model(&s).Where("id = ?", serviceID).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Service{}, mapError(err)
	}
	return s, nil
}

func (q calendarQueries) ListRules(ctx context.Context, providerID int64) ([]domain.AvailabilityRule, error) {
	var rows []domain.AvailabilityRule
	err := q.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("day_of_week ASC, start_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (q calendarQueries) ListTimeBlocks(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.TimeBlock, error) {
	var rows []domain.TimeBlock
	err := q.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("start_datetime < ?", windowEnd.UTC()).
		Where("end_datetime > ?", windowStart.UTC()).
		OrderExpr("start_datetime ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (q calendarQueries) ListOccupyingAppointments(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := q.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("status IN (?)", bun.In(domain.OccupyingStatuses)).
		Where("start_time < ?", windowEnd.UTC()).
		Where("end_time > ?", windowStart.UTC()).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *AppointmentRepo) GetAppointment(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.NewSelect().Model(&a).Where("id = ?", appointmentID).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Appointment{}, mapError(err)
	}
	return a, nil
}

func (r *AppointmentRepo) ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().Model(&rows)
	if filter.ProviderID > 0 {
		q = q.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.ClientID > 0 {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if !filter.WindowEnd.IsZero() {
		q = q.Where("start_time < ?", filter.WindowEnd.UTC())
	}
	if !filter.WindowStart.IsZero() {
		q = q.Where("end_time > ?", filter.WindowStart.UTC())
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN (?)", bun.In(filter.Statuses))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.OrderExpr("start_time ASC, id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *AppointmentRepo) InProviderTransaction(ctx context.Context, providerID int64, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return r.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderCalendar(ctx, tx, providerID); err != nil {
			return mapError(err)
		}
		return fn(ctx, calendarTx{calendarQueries: calendarQueries{db: tx}, tx: tx})
	})
}

func (r *AppointmentRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return r.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, calendarTx{calendarQueries: calendarQueries{db: tx}, tx: tx})
	})
}

func (r *AppointmentRepo) inTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if r.lockTimeout > 0 {
			if _, err := tx.NewRaw("SELECT set_config('lock_timeout', ?, true)", formatMillis(r.lockTimeout)).Exec(ctx); err != nil {
				return err
			}
		}
		return fn(ctx, tx)
	})
	return mapError(err)
}

func lockProviderCalendar(ctx context.Context, tx bun.Tx, providerID int64) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", fmt.Sprintf("provider:%d", providerID)).Exec(ctx)
	return err
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func (r *AppointmentRepo) CompleteElapsed(ctx context.Context, endedBefore time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []int64
	err := r.db.NewRaw(`UPDATE appointments SET status = ?, updated_at = ?
		WHERE id IN (
			SELECT id FROM appointments
			WHERE status = ? AND end_time <= ?
			ORDER BY end_time ASC
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id`,
		domain.StatusCompleted, time.Now().UTC(), domain.StatusConfirmed, endedBefore.UTC(), limit,
	).Scan(ctx, &ids)
	if err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

func (r calendarTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ClientID:       appt.ClientID,
		ProviderID:     appt.ProviderID,
		ServiceID:      appt.ServiceID,
		StartTime:      appt.StartTime.UTC(),
		EndTime:        appt.EndTime.UTC(),
		Status:         appt.Status,
		ClientNotes:    appt.ClientNotes,
		ProviderNotes:  appt.ProviderNotes,
		IdempotencyKey: appt.IdempotencyKey,
	}

	if _, err := r.tx.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Appointment{}, mapError(err)
	}
	return m, nil
}

func (r calendarTx) FindByIdempotencyKey(ctx context.Context, key uuid.UUID) (domain.Appointment, error) {
	var a domain.Appointment
	err := r.tx.NewSelect().Model(&a).Where("idempotency_key = ?", key).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Appointment{}, mapError(err)
	}
	return a, nil
}

func (r calendarTx) GetAppointmentForUpdate(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	var a domain.Appointment
	err := r.tx.NewSelect().Model(&a).Where("id = ?", appointmentID).For("UPDATE").Limit(1).Scan(ctx)
	if err != nil {
		return domain.Appointment{}, mapError(err)
	}
	return a, nil
}

func (r calendarTx) UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status domain.AppointmentStatus, providerNotes *string) (domain.Appointment, error) {
	m := domain.Appointment{ID: appointmentID}
	q := r.tx.NewUpdate().
		Model(&m).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC())
	if providerNotes != nil {
		q = q.Set("notes_provider = ?", *providerNotes)
	}

	res, err := q.WherePK().Returning("*").Exec(ctx)
	if err := affectedOne(res, err); err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}
