package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := NewDB(sqlDB)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "overlap constraint", in: &pgconn.PgError{Code: "23P01", ConstraintName: constraintNoOverlap}, want: store.ErrConflict},
		{name: "idempotency race is retryable", in: &pgconn.PgError{Code: "23505", ConstraintName: constraintIdempotencyKey}, want: store.ErrUnavailable},
		{name: "missing parent row", in: &pgconn.PgError{Code: "23503", ConstraintName: "services_provider_id_fkey"}, want: store.ErrNotFound},
		{name: "serialization failure", in: &pgconn.PgError{Code: "40001"}, want: store.ErrUnavailable},
		{name: "deadlock", in: &pgconn.PgError{Code: "40P01"}, want: store.ErrUnavailable},
		{name: "lock timeout", in: &pgconn.PgError{Code: "55P03"}, want: store.ErrUnavailable},
		{name: "connection failure", in: &pgconn.PgError{Code: "08006"}, want: store.ErrUnavailable},
		{name: "deadline", in: fmt.Errorf("query: %w", context.DeadlineExceeded), want: store.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}

	other := errors.New("boom")
	assert.Same(t, other, mapError(other))
	assert.NoError(t, mapError(nil))

	unknownConstraint := &pgconn.PgError{Code: "23P01", ConstraintName: "something_else"}
	assert.NotErrorIs(t, mapError(unknownConstraint), store.ErrConflict)
}

func TestCalendarQueries_ListRules(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepo(db, 0)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "provider_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow(1, 7, 0, "09:00:00", "12:00:00", now, now).
		AddRow(2, 7, 0, "13:00:00", "17:00:00", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "availability_rules" AS "availability_rule" WHERE (provider_id = 7)`)).
		WillReturnRows(rows)

	rules, err := repo.ListRules(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.Monday, rules[0].DayOfWeek)
	assert.Equal(t, domain.NewTimeOfDay(9, 0, 0), rules[0].StartTime)
	assert.Equal(t, domain.NewTimeOfDay(17, 0, 0), rules[1].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarQueries_ListTimeBlocksIntersectsWindow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepo(db, 0)

	bogota := time.FixedZone("COT", -5*3600)
	from := time.Date(2026, 1, 5, 9, 0, 0, 0, bogota)
	to := time.Date(2026, 1, 5, 12, 0, 0, 0, bogota)

	blockStart := time.Date(2026, 1, 5, 13, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "provider_id", "start_datetime", "end_datetime", "is_available", "reason", "created_at"}).
		AddRow(4, 7, blockStart, blockStart.Add(2*time.Hour), false, "dentist", blockStart)
	mock.ExpectQuery(`FROM "time_blocks" AS "time_block" WHERE \(provider_id = 7\) ` +
		`AND \(start_datetime < '2026-01-05 17:00:00[^']*'\) ` +
		`AND \(end_datetime > '2026-01-05 14:00:00[^']*'\) ` +
		`ORDER BY start_datetime ASC, id ASC`).
		WillReturnRows(rows)

	blocks, err := repo.ListTimeBlocks(context.Background(), 7, from, to)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, int64(4), blocks[0].ID)
	assert.False(t, blocks[0].IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_GetAppointmentNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepo(db, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "appointments" AS "appointment" WHERE (id = 42)`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetAppointment(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_InProviderTransactionLocksProvider(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepo(db, 1500*time.Millisecond)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT set_config('lock_timeout', '1500ms', true)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext('provider:7'))`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := false
	err := repo.InProviderTransaction(context.Background(), 7, func(ctx context.Context, tx store.CalendarTx) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_InProviderTransactionRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepo(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`pg_advisory_xact_lock`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.InProviderTransaction(context.Background(), 7, func(ctx context.Context, tx store.CalendarTx) error {
		return store.ErrConflict
	})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_InProviderTransactionLockTimeoutIsUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepo(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`pg_advisory_xact_lock`)).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	err := repo.InProviderTransaction(context.Background(), 7, func(ctx context.Context, tx store.CalendarTx) error {
		t.Fatalf("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_CompleteElapsed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepo(db, 0)

	mock.ExpectQuery(`(?s)UPDATE appointments SET status = 'COMPLETED'.*WHERE status = 'CONFIRMED' AND end_time <= .*LIMIT 100.*RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(9))

	ids, err := repo.CompleteElapsed(context.Background(), time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC), 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepo_DeleteServiceNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepo(db)

	mock.ExpectExec(`DELETE FROM "services".* WHERE \(provider_id = 7\) AND \(id = 99\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteService(context.Background(), 7, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
