package store

import (
	"context"
	"time"

	"bookly/backend/internal/domain"
)

type AppointmentFilter struct {
	ProviderID  int64
	ClientID    int64
	WindowStart time.Time
	WindowEnd   time.Time
	Statuses    []domain.AppointmentStatus
	Limit       int
}

type BookingRepository interface {
	Calendar

	GetAppointment(ctx context.Context, appointmentID int64) (domain.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)

	// InProviderTransaction runs fn in a transaction holding the provider's
	// booking lock. Two calls for the same provider never interleave.
	InProviderTransaction(ctx context.Context, providerID int64, fn func(ctx context.Context, tx CalendarTx) error) error
	// InTransaction runs fn in a transaction without the provider lock.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx CalendarTx) error) error

	// CompleteElapsed moves CONFIRMED appointments that ended at or before
	// endedBefore to COMPLETED and returns their ids.
	CompleteElapsed(ctx context.Context, endedBefore time.Time, limit int) ([]int64, error)
}
