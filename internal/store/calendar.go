package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookly/backend/internal/domain"
)

// Calendar reads the inputs of availability derivation for one provider.
// Window queries use half-open overlap: start < windowEnd AND end > windowStart.
type Calendar interface {
	GetProvider(ctx context.Context, providerID int64) (domain.Provider, error)
	GetService(ctx context.Context, serviceID int64) (domain.Service, error)
	ListRules(ctx context.Context, providerID int64) ([]domain.AvailabilityRule, error)
	ListTimeBlocks(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.TimeBlock, error)
	ListOccupyingAppointments(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
}

// CalendarTx is a Calendar bound to an open transaction that can also write
// appointments.
type CalendarTx interface {
	Calendar

	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	FindByIdempotencyKey(ctx context.Context, key uuid.UUID) (domain.Appointment, error)
	GetAppointmentForUpdate(ctx context.Context, appointmentID int64) (domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status domain.AppointmentStatus, providerNotes *string) (domain.Appointment, error)
}
