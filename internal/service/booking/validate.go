package booking

import (
	"context"
	"fmt"
	"time"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

// Request is a proposed booking of one service.
type Request struct {
	ProviderID int64
	ServiceID  int64
	Start      time.Time
	End        time.Time
}

func (r Request) Interval() domain.Interval {
	return domain.NewInterval(r.Start, r.End)
}

// checkRequest rejects malformed input before any store access. An empty or
// inverted range is a business rejection, not a validation error.
func checkRequest(r Request) error {
	if r.ProviderID <= 0 {
		return validationError("provider_id is required")
	}
	if r.ServiceID <= 0 {
		return validationError("service_id is required")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return validationError("start and end are required")
	}
	if !r.Start.Before(r.End) {
		return reject(ReasonInvalidRange, "start must be before end")
	}
	return nil
}

type validation struct {
	verdict  Verdict
	provider domain.Provider
	service  domain.Service
}

// validate runs the ordered booking checks against cal and stops at the first
// failure. It is run once outside any transaction to answer ValidateBooking,
// and again under the provider lock before every insert.
func (s *Service) validate(ctx context.Context, cal store.Calendar, r Request) (validation, error) {
	var out validation

	provider, err := cal.GetProvider(ctx, r.ProviderID)
	if err != nil {
		return out, fmt.Errorf("get provider %d: %w", r.ProviderID, err)
	}
	out.provider = provider

	svc, err := cal.GetService(ctx, r.ServiceID)
	if err != nil {
		return out, fmt.Errorf("get service %d: %w", r.ServiceID, err)
	}
	out.service = svc

	if svc.ProviderID != provider.ID || !svc.IsActive {
		out.verdict = Verdict{Rejection: reject(ReasonInactiveService, "")}
		return out, nil
	}

	req := r.Interval()
	if !s.cfg.AllowDurationMismatch && req.Duration() != svc.Duration() {
		out.verdict = Verdict{Rejection: reject(ReasonDurationMismatch,
			fmt.Sprintf("requested %s, service lasts %s", req.Duration(), svc.Duration()))}
		return out, nil
	}

	if !req.Valid() {
		out.verdict = Verdict{Rejection: reject(ReasonInvalidRange, "")}
		return out, nil
	}

	loc, err := provider.Location()
	if err != nil {
		return out, fmt.Errorf("provider %d timezone %q: %w", provider.ID, provider.Timezone, err)
	}
	rules, err := cal.ListRules(ctx, provider.ID)
	if err != nil {
		return out, fmt.Errorf("list rules: %w", err)
	}
	blocks, err := cal.ListTimeBlocks(ctx, provider.ID, req.Start, req.End)
	if err != nil {
		return out, fmt.Errorf("list time blocks: %w", err)
	}
	open := domain.DeriveAvailability(domain.NewRuleSet(loc, rules), domain.ExceptionSet(blocks), req)
	if !domain.Covered(open, req) {
		out.verdict = Verdict{Rejection: reject(ReasonOutsideAvailability, "")}
		return out, nil
	}

	booked, err := cal.ListOccupyingAppointments(ctx, provider.ID, req.Start, req.End)
	if err != nil {
		return out, fmt.Errorf("list appointments: %w", err)
	}
	for _, a := range booked {
		if domain.Overlaps(a.Interval(), req) {
			out.verdict = Verdict{Rejection: reject(ReasonConflict, fmt.Sprintf("overlaps appointment %d", a.ID))}
			return out, nil
		}
	}

	return out, nil
}
