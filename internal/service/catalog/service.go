// Package catalog manages what a provider offers: the provider profile, its
// weekly availability rules, one-off time blocks and bookable services.
// Every change that can move availability drops the provider's cached
// windows.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"bookly/backend/internal/cache"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

var priceRe = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

type Service struct {
	repo     store.CatalogRepository
	cache    cache.Availability
	validate *validator.Validate
	log      *slog.Logger
}

// NewValidator returns a validator that reports fields by their json names
// and knows the iana_zone and price tags.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("iana_zone", func(fl validator.FieldLevel) bool {
		_, err := domain.LoadLocation(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("register iana_zone: %w", err)
	}
	if err := v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return priceRe.MatchString(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return nil, fmt.Errorf("register price: %w", err)
	}
	return v, nil
}

// NewService builds the catalog with its own validator.
func NewService(repo store.CatalogRepository, availability cache.Availability, log *slog.Logger) (*Service, error) {
	if availability == nil {
		availability = cache.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	validate, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:     repo,
		cache:    availability,
		validate: validate,
		log:      log.With("component", "catalog"),
	}, nil
}

type ProviderInput struct {
	BusinessName string `json:"business_name" validate:"required,max=255"`
	BusinessType string `json:"business_type" validate:"max=100"`
	Address      string `json:"address" validate:"max=500"`
	Bio          string `json:"bio" validate:"max=2000"`
	Timezone     string `json:"timezone" validate:"required,iana_zone"`
	AutoConfirm  bool   `json:"auto_confirm"`
}

func (in ProviderInput) provider(id int64) domain.Provider {
	return domain.Provider{
		ID:           id,
		BusinessName: strings.TrimSpace(in.BusinessName),
		BusinessType: strings.TrimSpace(in.BusinessType),
		Address:      strings.TrimSpace(in.Address),
		Bio:          in.Bio,
		Timezone:     strings.TrimSpace(in.Timezone),
		AutoConfirm:  in.AutoConfirm,
	}
}

func (s *Service) CreateProvider(ctx context.Context, in ProviderInput) (domain.Provider, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return domain.Provider{}, invalidPayload(err)
	}
	p, err := s.repo.CreateProvider(ctx, in.provider(0))
	if err != nil {
		return domain.Provider{}, fmt.Errorf("create provider: %w", err)
	}
	s.log.InfoContext(ctx, "provider created", "provider_id", p.ID, "timezone", p.Timezone)
	return p, nil
}

func (s *Service) GetProvider(ctx context.Context, providerID int64) (domain.Provider, error) {
	if providerID <= 0 {
		return domain.Provider{}, validationError("provider_id is required")
	}
	return s.repo.GetProvider(ctx, providerID)
}

// UpdateProvider replaces the profile. A new timezone reinterprets every
// existing rule in that zone.
func (s *Service) UpdateProvider(ctx context.Context, providerID int64, in ProviderInput) (domain.Provider, error) {
	if providerID <= 0 {
		return domain.Provider{}, validationError("provider_id is required")
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return domain.Provider{}, invalidPayload(err)
	}
	p, err := s.repo.UpdateProvider(ctx, in.provider(providerID))
	if err != nil {
		return domain.Provider{}, fmt.Errorf("update provider %d: %w", providerID, err)
	}
	s.invalidate(ctx, providerID)
	return p, nil
}

type RuleInput struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func (s *Service) ruleFromInput(ctx context.Context, providerID int64, in RuleInput) (domain.AvailabilityRule, error) {
	if providerID <= 0 {
		return domain.AvailabilityRule{}, validationError("provider_id is required")
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return domain.AvailabilityRule{}, invalidPayload(err)
	}
	start, err := domain.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return domain.AvailabilityRule{}, validationError(err.Error())
	}
	end, err := domain.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return domain.AvailabilityRule{}, validationError(err.Error())
	}
	r := domain.AvailabilityRule{
		ProviderID: providerID,
		DayOfWeek:  domain.Weekday(in.DayOfWeek),
		StartTime:  start,
		EndTime:    end,
	}
	if err := r.Validate(); err != nil {
		return domain.AvailabilityRule{}, validationError(err.Error())
	}
	return r, nil
}

func (s *Service) CreateRule(ctx context.Context, providerID int64, in RuleInput) (domain.AvailabilityRule, error) {
	r, err := s.ruleFromInput(ctx, providerID, in)
	if err != nil {
		return domain.AvailabilityRule{}, err
	}
	created, err := s.repo.CreateRule(ctx, r)
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("create rule: %w", err)
	}
	s.invalidate(ctx, providerID)
	return created, nil
}

func (s *Service) ListRules(ctx context.Context, providerID int64) ([]domain.AvailabilityRule, error) {
	if providerID <= 0 {
		return nil, validationError("provider_id is required")
	}
	return s.repo.ListRules(ctx, providerID)
}

func (s *Service) UpdateRule(ctx context.Context, providerID, ruleID int64, in RuleInput) (domain.AvailabilityRule, error) {
	if ruleID <= 0 {
		return domain.AvailabilityRule{}, validationError("rule_id is required")
	}
	r, err := s.ruleFromInput(ctx, providerID, in)
	if err != nil {
		return domain.AvailabilityRule{}, err
	}
	r.ID = ruleID
	updated, err := s.repo.UpdateRule(ctx, r)
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("update rule %d: %w", ruleID, err)
	}
	s.invalidate(ctx, providerID)
	return updated, nil
}

func (s *Service) DeleteRule(ctx context.Context, providerID, ruleID int64) error {
	if providerID <= 0 || ruleID <= 0 {
		return validationError("provider_id and rule_id are required")
	}
	if err := s.repo.DeleteRule(ctx, providerID, ruleID); err != nil {
		return fmt.Errorf("delete rule %d: %w", ruleID, err)
	}
	s.invalidate(ctx, providerID)
	return nil
}

type TimeBlockInput struct {
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required,gtfield=Start"`
	IsAvailable bool      `json:"is_available"`
	Reason      string    `json:"reason" validate:"max=500"`
}

func (s *Service) CreateTimeBlock(ctx context.Context, providerID int64, in TimeBlockInput) (domain.TimeBlock, error) {
	if providerID <= 0 {
		return domain.TimeBlock{}, validationError("provider_id is required")
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return domain.TimeBlock{}, invalidPayload(err)
	}
	b := domain.TimeBlock{
		ProviderID:  providerID,
		StartTime:   in.Start.UTC(),
		EndTime:     in.End.UTC(),
		IsAvailable: in.IsAvailable,
		Reason:      strings.TrimSpace(in.Reason),
	}
	if err := b.Validate(); err != nil {
		return domain.TimeBlock{}, validationError(err.Error())
	}
	created, err := s.repo.CreateTimeBlock(ctx, b)
	if err != nil {
		return domain.TimeBlock{}, fmt.Errorf("create time block: %w", err)
	}
	s.invalidate(ctx, providerID)
	return created, nil
}

// ListTimeBlocks returns the blocks overlapping [from, to).
func (s *Service) ListTimeBlocks(ctx context.Context, providerID int64, from, to time.Time) ([]domain.TimeBlock, error) {
	if providerID <= 0 {
		return nil, validationError("provider_id is required")
	}
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, validationError("from must be before to")
	}
	return s.repo.ListTimeBlocks(ctx, providerID, from, to)
}

func (s *Service) DeleteTimeBlock(ctx context.Context, providerID, blockID int64) error {
	if providerID <= 0 || blockID <= 0 {
		return validationError("provider_id and block_id are required")
	}
	if err := s.repo.DeleteTimeBlock(ctx, providerID, blockID); err != nil {
		return fmt.Errorf("delete time block %d: %w", blockID, err)
	}
	s.invalidate(ctx, providerID)
	return nil
}

type ServiceInput struct {
	Name            string `json:"name" validate:"required,max=255"`
	Description     string `json:"description" validate:"max=2000"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0,max=1440"`
	Price           string `json:"price" validate:"omitempty,price"`
	// IsActive defaults to true on create and to the stored value on update.
	IsActive *bool `json:"is_active"`
}

func (s *Service) CreateService(ctx context.Context, providerID int64, in ServiceInput) (domain.Service, error) {
	if providerID <= 0 {
		return domain.Service{}, validationError("provider_id is required")
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return domain.Service{}, invalidPayload(err)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	created, err := s.repo.CreateService(ctx, domain.Service{
		ProviderID:      providerID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		DurationMinutes: in.DurationMinutes,
		Price:           normalizePrice(in.Price),
		IsActive:        active,
	})
	if err != nil {
		return domain.Service{}, fmt.Errorf("create service: %w", err)
	}
	s.log.InfoContext(ctx, "service created", "provider_id", providerID, "service_id", created.ID)
	return created, nil
}

func (s *Service) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	if serviceID <= 0 {
		return domain.Service{}, validationError("service_id is required")
	}
	return s.repo.GetService(ctx, serviceID)
}

func (s *Service) ListServices(ctx context.Context, providerID int64, includeInactive bool) ([]domain.Service, error) {
	if providerID <= 0 {
		return nil, validationError("provider_id is required")
	}
	return s.repo.ListServices(ctx, providerID, includeInactive)
}

// UpdateService changes a service in place. Appointments already booked keep
// their stored interval when the duration changes.
func (s *Service) UpdateService(ctx context.Context, providerID, serviceID int64, in ServiceInput) (domain.Service, error) {
	if providerID <= 0 || serviceID <= 0 {
		return domain.Service{}, validationError("provider_id and service_id are required")
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return domain.Service{}, invalidPayload(err)
	}
	current, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return domain.Service{}, fmt.Errorf("get service %d: %w", serviceID, err)
	}
	if current.ProviderID != providerID {
		return domain.Service{}, fmt.Errorf("get service %d: %w", serviceID, store.ErrNotFound)
	}

	current.Name = strings.TrimSpace(in.Name)
	current.Description = in.Description
	current.DurationMinutes = in.DurationMinutes
	current.Price = normalizePrice(in.Price)
	if in.IsActive != nil {
		current.IsActive = *in.IsActive
	}
	updated, err := s.repo.UpdateService(ctx, current)
	if err != nil {
		return domain.Service{}, fmt.Errorf("update service %d: %w", serviceID, err)
	}
	return updated, nil
}

// DeleteService removes the service. Historical appointments stay and lose
// their service reference.
func (s *Service) DeleteService(ctx context.Context, providerID, serviceID int64) error {
	if providerID <= 0 || serviceID <= 0 {
		return validationError("provider_id and service_id are required")
	}
	if err := s.repo.DeleteService(ctx, providerID, serviceID); err != nil {
		return fmt.Errorf("delete service %d: %w", serviceID, err)
	}
	s.log.InfoContext(ctx, "service deleted", "provider_id", providerID, "service_id", serviceID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, providerID int64) {
	if err := s.cache.InvalidateProvider(ctx, providerID); err != nil {
		s.log.WarnContext(ctx, "availability cache invalidation failed", "provider_id", providerID, "err", err)
	}
}

// normalizePrice renders a validated price with exactly two decimals. An
// empty price means the service has none.
func normalizePrice(p string) *string {
	p = strings.TrimSpace(p)
	if p == "" {
		return nil
	}
	whole, frac, _ := strings.Cut(p, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	frac = (frac + "00")[:2]
	out := whole + "." + frac
	return &out
}
