package booking

import (
	"errors"
	"fmt"

	"bookly/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ErrForbidden is returned when an actor requests a transition it may not
// perform on an appointment.
var ErrForbidden = errors.New("forbidden")

type RejectionReason string

const (
	ReasonInactiveService     RejectionReason = "INACTIVE_SERVICE"
	ReasonDurationMismatch    RejectionReason = "DURATION_MISMATCH"
	ReasonInvalidRange        RejectionReason = "INVALID_RANGE"
	ReasonOutsideAvailability RejectionReason = "OUTSIDE_AVAILABILITY"
	ReasonConflict            RejectionReason = "CONFLICT"
)

// Rejection is a booking refused by a business rule. A CONFLICT rejection
// matches store.ErrConflict under errors.Is.
type Rejection struct {
	Reason RejectionReason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("booking rejected: %s", r.Reason)
	}
	return fmt.Sprintf("booking rejected: %s: %s", r.Reason, r.Detail)
}

func (r *Rejection) Is(target error) bool {
	return r.Reason == ReasonConflict && target == store.ErrConflict
}

func reject(reason RejectionReason, detail string) *Rejection {
	return &Rejection{Reason: reason, Detail: detail}
}

// Verdict is the validator's answer for a proposed booking. A nil Rejection
// means the booking is accepted.
type Verdict struct {
	Rejection *Rejection
}

func (v Verdict) Accepted() bool {
	return v.Rejection == nil
}

func (v Verdict) Reason() RejectionReason {
	if v.Rejection == nil {
		return ""
	}
	return v.Rejection.Reason
}
