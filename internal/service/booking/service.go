package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bookly/backend/internal/cache"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/metrics"
	"bookly/backend/internal/store"
)

type Config struct {
	// MaxRange caps the span of availability and slot queries.
	MaxRange              time.Duration
	AllowDurationMismatch bool
	// SlotStep spaces the start instants returned by ListSlots. Zero steps by
	// the service duration.
	SlotStep        time.Duration
	CompletionGrace time.Duration
	CompletionBatch int
	Retry           store.RetryConfig
}

func DefaultConfig() Config {
	return Config{
		MaxRange:        62 * 24 * time.Hour,
		CompletionGrace: 15 * time.Minute,
		CompletionBatch: 500,
		Retry:           store.DefaultRetryConfig(),
	}
}

type Service struct {
	repo    store.BookingRepository
	cfg     Config
	policy  ConfirmationPolicy
	cache   cache.Availability
	metrics *metrics.Metrics
	log     *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithPolicy(p ConfirmationPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithCache(c cache.Availability) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo store.BookingRepository, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cfg:    cfg,
		policy: NewProviderPolicy(false),
		cache:  cache.Noop{},
		log:    slog.Default(),
		tracer: otel.Tracer("bookly/backend/internal/service/booking"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "booking")
	return s
}

func (s *Service) checkRange(providerID int64, from, to time.Time) (domain.Interval, error) {
	if providerID <= 0 {
		return domain.Interval{}, validationError("provider_id is required")
	}
	if from.IsZero() || to.IsZero() {
		return domain.Interval{}, validationError("from and to are required")
	}
	rng := domain.NewInterval(from, to)
	if !rng.Valid() {
		return domain.Interval{}, validationError("to must be after from")
	}
	if s.cfg.MaxRange > 0 && rng.Duration() > s.cfg.MaxRange {
		return domain.Interval{}, validationError(fmt.Sprintf("range must not exceed %s", s.cfg.MaxRange))
	}
	return rng, nil
}

// GetAvailability returns the open intervals of [from, to): the derived
// availability minus time taken by occupying appointments.
func (s *Service) GetAvailability(ctx context.Context, providerID int64, from, to time.Time) ([]domain.Interval, error) {
	rng, err := s.checkRange(providerID, from, to)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "booking.GetAvailability", trace.WithAttributes(
		attribute.Int64("provider.id", providerID),
	))
	defer span.End()

	started := s.now()
	var (
		open   []domain.Interval
		booked []domain.Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		open, err = s.derive(gctx, providerID, rng)
		return err
	})
	g.Go(func() error {
		var err error
		booked, err = s.repo.ListOccupyingAppointments(gctx, providerID, rng.Start, rng.End)
		if err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for _, a := range booked {
		open = domain.SubtractAll(open, a.Interval())
	}
	s.metrics.ObserveAvailability(s.now().Sub(started))
	return domain.Merge(open), nil
}

// derive computes the rule and exception availability of rng, consulting the
// cache first.
func (s *Service) derive(ctx context.Context, providerID int64, rng domain.Interval) ([]domain.Interval, error) {
	cached, err := s.cache.Get(ctx, providerID, rng)
	if err == nil {
		s.metrics.CacheLookup(true)
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.WarnContext(ctx, "availability cache read failed", "provider_id", providerID, "err", err)
	}
	s.metrics.CacheLookup(false)

	var (
		provider domain.Provider
		rules    []domain.AvailabilityRule
		blocks   []domain.TimeBlock
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		provider, err = s.repo.GetProvider(gctx, providerID)
		if err != nil {
			return fmt.Errorf("get provider %d: %w", providerID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rules, err = s.repo.ListRules(gctx, providerID)
		if err != nil {
			return fmt.Errorf("list rules: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		blocks, err = s.repo.ListTimeBlocks(gctx, providerID, rng.Start, rng.End)
		if err != nil {
			return fmt.Errorf("list time blocks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loc, err := provider.Location()
	if err != nil {
		return nil, fmt.Errorf("provider %d timezone %q: %w", providerID, provider.Timezone, err)
	}
	open := domain.DeriveAvailability(domain.NewRuleSet(loc, rules), domain.ExceptionSet(blocks), rng)

	if err := s.cache.Set(ctx, providerID, rng, open); err != nil {
		s.log.WarnContext(ctx, "availability cache write failed", "provider_id", providerID, "err", err)
	}
	return open, nil
}

// ValidateBooking answers whether the booking would be accepted right now.
// The answer is advisory; CreateAppointment validates again under the
// provider lock.
func (s *Service) ValidateBooking(ctx context.Context, r Request) (Verdict, error) {
	if err := checkRequest(r); err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			return Verdict{Rejection: rej}, nil
		}
		return Verdict{}, err
	}
	v, err := s.validate(ctx, s.repo, r)
	if err != nil {
		return Verdict{}, err
	}
	return v.verdict, nil
}

type CreateInput struct {
	ClientID       int64
	ProviderID     int64
	ServiceID      int64
	Start          time.Time
	End            time.Time
	ClientNotes    string
	IdempotencyKey string
}

func (in CreateInput) request() Request {
	return Request{ProviderID: in.ProviderID, ServiceID: in.ServiceID, Start: in.Start, End: in.End}
}

// CreateAppointment validates and inserts the booking atomically under the
// provider lock. Rejections are returned as *Rejection; a replay of an
// idempotency key with the same payload returns the stored appointment.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	if in.ClientID <= 0 {
		return domain.Appointment{}, validationError("client_id is required")
	}
	if err := checkRequest(in.request()); err != nil {
		s.recordRejection(err)
		return domain.Appointment{}, err
	}
	in.Start = in.Start.UTC()
	in.End = in.End.UTC()

	var idemKey *uuid.UUID
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		if len(key) > 256 {
			return domain.Appointment{}, validationError("idempotency_key too long")
		}
		k := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("bookly:create_appointment:%d:%s", in.ClientID, key)))
		idemKey = &k
	}

	ctx, span := s.tracer.Start(ctx, "booking.CreateAppointment", trace.WithAttributes(
		attribute.Int64("provider.id", in.ProviderID),
		attribute.Int64("service.id", in.ServiceID),
		attribute.Bool("idempotent", idemKey != nil),
	))
	defer span.End()

	var (
		out      domain.Appointment
		replayed bool
		attempt  int
	)
	err := store.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.Retried()
		}
		replayed = false
		return s.repo.InProviderTransaction(ctx, in.ProviderID, func(ctx context.Context, tx store.CalendarTx) error {
			if idemKey != nil {
				existing, err := tx.FindByIdempotencyKey(ctx, *idemKey)
				switch {
				case err == nil:
					if !sameBooking(existing, in) {
						return store.ErrIdempotencyConflict
					}
					out = existing
					replayed = true
					return nil
				case !errors.Is(err, store.ErrNotFound):
					return fmt.Errorf("find idempotency key: %w", err)
				}
			}

			v, err := s.validate(ctx, tx, in.request())
			if err != nil {
				return err
			}
			if !v.verdict.Accepted() {
				return v.verdict.Rejection
			}

			status, err := s.policy.InitialStatus(ctx, v.provider)
			if err != nil {
				return fmt.Errorf("confirmation policy: %w", err)
			}

			serviceID := v.service.ID
			created, err := tx.InsertAppointment(ctx, domain.Appointment{
				ClientID:       in.ClientID,
				ProviderID:     in.ProviderID,
				ServiceID:      &serviceID,
				StartTime:      in.Start,
				EndTime:        in.End,
				Status:         status,
				ClientNotes:    in.ClientNotes,
				IdempotencyKey: idemKey,
			})
			if err != nil {
				return err
			}
			out = created
			return nil
		})
	})
	if err != nil {
		var rej *Rejection
		if !errors.As(err, &rej) && errors.Is(err, store.ErrConflict) {
			err = reject(ReasonConflict, "slot taken concurrently")
		}
		s.recordRejection(err)
		if !errors.As(err, &rej) {
			s.metrics.BookingOutcome("failed")
			span.SetStatus(codes.Error, err.Error())
		}
		return domain.Appointment{}, err
	}

	if replayed {
		s.metrics.BookingOutcome("replayed")
	} else {
		s.metrics.BookingOutcome("created")
		s.log.InfoContext(ctx, "appointment created",
			"appointment_id", out.ID,
			"provider_id", out.ProviderID,
			"status", out.Status,
		)
	}
	span.SetAttributes(attribute.Int64("appointment.id", out.ID))
	return out, nil
}

func (s *Service) recordRejection(err error) {
	var rej *Rejection
	if errors.As(err, &rej) {
		s.metrics.Rejected(string(rej.Reason))
	}
}

func sameBooking(a domain.Appointment, in CreateInput) bool {
	if a.ServiceID == nil || *a.ServiceID != in.ServiceID {
		return false
	}
	return a.ClientID == in.ClientID &&
		a.ProviderID == in.ProviderID &&
		a.StartTime.Equal(in.Start) &&
		a.EndTime.Equal(in.End) &&
		a.ClientNotes == in.ClientNotes
}

type TransitionInput struct {
	AppointmentID int64
	Actor         Actor
	Target        domain.AppointmentStatus
	// ProviderNotes replaces the provider's notes when set.
	ProviderNotes *string
}

// TransitionAppointment applies one status change under a row lock. Illegal
// moves return an error wrapping domain.ErrInvalidTransition and leave the
// appointment untouched.
func (s *Service) TransitionAppointment(ctx context.Context, in TransitionInput) (domain.Appointment, error) {
	if in.AppointmentID <= 0 {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if !in.Target.Valid() {
		return domain.Appointment{}, validationError(fmt.Sprintf("unknown status %q", in.Target))
	}
	if in.Actor.Kind != ActorSystem && in.Actor.ID <= 0 {
		return domain.Appointment{}, validationError("actor id is required")
	}

	ctx, span := s.tracer.Start(ctx, "booking.TransitionAppointment", trace.WithAttributes(
		attribute.Int64("appointment.id", in.AppointmentID),
		attribute.String("target", string(in.Target)),
	))
	defer span.End()

	var (
		out  domain.Appointment
		from domain.AppointmentStatus
	)
	err := store.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		return s.repo.InTransaction(ctx, func(ctx context.Context, tx store.CalendarTx) error {
			appt, err := tx.GetAppointmentForUpdate(ctx, in.AppointmentID)
			if err != nil {
				return fmt.Errorf("get appointment %d: %w", in.AppointmentID, err)
			}
			if err := authorize(in.Actor, appt, in.Target, in.ProviderNotes != nil); err != nil {
				return err
			}
			next, err := appt.Status.Transition(in.Target)
			if err != nil {
				return err
			}
			updated, err := tx.UpdateAppointmentStatus(ctx, appt.ID, next, in.ProviderNotes)
			if err != nil {
				return err
			}
			from = appt.Status
			out = updated
			return nil
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Appointment{}, err
	}

	s.metrics.Transitioned(string(from), string(out.Status))
	s.log.InfoContext(ctx, "appointment transitioned",
		"appointment_id", out.ID,
		"from", from,
		"to", out.Status,
		"actor", in.Actor.Kind,
	)
	return out, nil
}

// ListSlots returns the start instants in [from, to) where the service can be
// booked, skipping instants already in the past.
func (s *Service) ListSlots(ctx context.Context, providerID, serviceID int64, from, to time.Time) ([]time.Time, error) {
	if serviceID <= 0 {
		return nil, validationError("service_id is required")
	}
	if _, err := s.checkRange(providerID, from, to); err != nil {
		return nil, err
	}

	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", serviceID, err)
	}
	if svc.ProviderID != providerID || !svc.IsActive {
		return nil, reject(ReasonInactiveService, "")
	}

	open, err := s.GetAvailability(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}

	step := s.cfg.SlotStep
	if step <= 0 {
		step = svc.Duration()
	}
	return domain.Slots(open, svc.Duration(), step, s.now()), nil
}

func (s *Service) GetAppointment(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	if appointmentID <= 0 {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	return s.repo.GetAppointment(ctx, appointmentID)
}

func (s *Service) ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	if filter.ProviderID <= 0 && filter.ClientID <= 0 {
		return nil, validationError("provider_id or client_id is required")
	}
	if !filter.WindowStart.IsZero() && !filter.WindowEnd.IsZero() && !filter.WindowStart.Before(filter.WindowEnd) {
		return nil, validationError("window_end must be after window_start")
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, validationError(fmt.Sprintf("unknown status %q", st))
		}
	}
	return s.repo.ListAppointments(ctx, filter)
}

// CompleteElapsed moves CONFIRMED appointments that ended more than the grace
// period before now to COMPLETED, and reports how many moved.
func (s *Service) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	if !domain.StatusConfirmed.CanTransitionTo(domain.StatusCompleted) {
		return 0, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, domain.StatusConfirmed, domain.StatusCompleted)
	}
	cutoff := now.UTC().Add(-s.cfg.CompletionGrace)

	var ids []int64
	err := store.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		var err error
		ids, err = s.repo.CompleteElapsed(ctx, cutoff, s.cfg.CompletionBatch)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("complete elapsed: %w", err)
	}

	s.metrics.Completed(len(ids))
	for range ids {
		s.metrics.Transitioned(string(domain.StatusConfirmed), string(domain.StatusCompleted))
	}
	return len(ids), nil
}
