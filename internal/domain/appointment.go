package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	StatusPendingProvider     AppointmentStatus = "PENDING_PROVIDER"
	StatusConfirmed           AppointmentStatus = "CONFIRMED"
	StatusCancelledByClient   AppointmentStatus = "CANCELLED_BY_CLIENT"
	StatusCancelledByProvider AppointmentStatus = "CANCELLED_BY_PROVIDER"
	StatusCompleted           AppointmentStatus = "COMPLETED"
	StatusNoShow              AppointmentStatus = "NO_SHOW"
)

var ErrInvalidTransition = errors.New("invalid transition")

// transitions lists every legal move. Statuses without an entry are terminal.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPendingProvider: {StatusConfirmed, StatusCancelledByProvider, StatusCancelledByClient},
	StatusConfirmed:       {StatusCancelledByProvider, StatusCancelledByClient, StatusCompleted, StatusNoShow},
}

// OccupyingStatuses are the statuses that reserve calendar time.
var OccupyingStatuses = []AppointmentStatus{StatusPendingProvider, StatusConfirmed}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
	return st, nil
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPendingProvider, StatusConfirmed, StatusCancelledByClient,
		StatusCancelledByProvider, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) Occupying() bool {
	return s == StatusPendingProvider || s == StatusConfirmed
}

func (s AppointmentStatus) Terminal() bool {
	_, ok := transitions[s]
	return s.Valid() && !ok
}

func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition returns target when the move from s is legal, and an error
// wrapping ErrInvalidTransition otherwise.
func (s AppointmentStatus) Transition(target AppointmentStatus) (AppointmentStatus, error) {
	if !s.CanTransitionTo(target) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, target)
	}
	return target, nil
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID             int64             `bun:"id,pk,autoincrement"`
	ClientID       int64             `bun:"client_id,notnull"`
	ProviderID     int64             `bun:"provider_id,notnull"`
	ServiceID      *int64            `bun:"service_id"`
	StartTime      time.Time         `bun:"start_time,notnull"`
	EndTime        time.Time         `bun:"end_time,notnull"`
	Status         AppointmentStatus `bun:"status,notnull"`
	ClientNotes    string            `bun:"notes_client"`
	ProviderNotes  string            `bun:"notes_provider"`
	IdempotencyKey *uuid.UUID        `bun:"idempotency_key,type:uuid"`
	CreatedAt      time.Time         `bun:"created_at,notnull"`
	UpdatedAt      time.Time         `bun:"updated_at,notnull"`
}

func (a Appointment) Interval() Interval {
	return NewInterval(a.StartTime, a.EndTime)
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
