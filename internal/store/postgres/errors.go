package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"bookly/backend/internal/store"
)

const (
	constraintNoOverlap      = "appointments_no_overlap"
	constraintIdempotencyKey = "appointments_idempotency_key_key"
)

// mapError translates driver errors into the store sentinels. Errors it does
// not recognise are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01":
			if pgErr.ConstraintName == constraintNoOverlap {
				return store.ErrConflict
			}
		case "23505":
			if pgErr.ConstraintName == constraintIdempotencyKey {
				// A concurrent request with the same key won the insert. Retrying
				// replays it through the idempotency lookup.
				return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
			}
		case "23503":
			return fmt.Errorf("%w: %s", store.ErrNotFound, pgErr.ConstraintName)
		case "40001", "40P01", "55P03", "57014":
			return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
		}
		return err
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return err
}
