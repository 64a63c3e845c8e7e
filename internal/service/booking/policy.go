package booking

import (
	"context"

	"bookly/backend/internal/domain"
)

// ConfirmationPolicy decides the status a new appointment starts in.
type ConfirmationPolicy interface {
	InitialStatus(ctx context.Context, provider domain.Provider) (domain.AppointmentStatus, error)
}

type staticPolicy struct {
	autoConfirm bool
}

// NewStaticPolicy confirms every booking, or none, regardless of provider.
func NewStaticPolicy(autoConfirm bool) ConfirmationPolicy {
	return staticPolicy{autoConfirm: autoConfirm}
}

func (p staticPolicy) InitialStatus(context.Context, domain.Provider) (domain.AppointmentStatus, error) {
	return statusFor(p.autoConfirm), nil
}

type providerPolicy struct {
	defaultAutoConfirm bool
}

// NewProviderPolicy confirms bookings for providers that opted into
// auto-confirmation. defaultAutoConfirm confirms for everyone else too.
func NewProviderPolicy(defaultAutoConfirm bool) ConfirmationPolicy {
	return providerPolicy{defaultAutoConfirm: defaultAutoConfirm}
}

func (p providerPolicy) InitialStatus(_ context.Context, provider domain.Provider) (domain.AppointmentStatus, error) {
	return statusFor(provider.AutoConfirm || p.defaultAutoConfirm), nil
}

func statusFor(autoConfirm bool) domain.AppointmentStatus {
	if autoConfirm {
		return domain.StatusConfirmed
	}
	return domain.StatusPendingProvider
}
