package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

type fakeRepo struct {
	providers map[int64]domain.Provider
	services  map[int64]domain.Service
	rules     map[int64]domain.AvailabilityRule
	blocks    map[int64]domain.TimeBlock
	nextID    int64

	listBlocksFn func(ctx context.Context, providerID int64, from, to time.Time) ([]domain.TimeBlock, error)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		providers: map[int64]domain.Provider{},
		services:  map[int64]domain.Service{},
		rules:     map[int64]domain.AvailabilityRule{},
		blocks:    map[int64]domain.TimeBlock{},
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	p.ID = f.id()
	f.providers[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetProvider(ctx context.Context, providerID int64) (domain.Provider, error) {
	p, ok := f.providers[providerID]
	if !ok {
		return domain.Provider{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) UpdateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	if _, ok := f.providers[p.ID]; !ok {
		return domain.Provider{}, store.ErrNotFound
	}
	f.providers[p.ID] = p
	return p, nil
}

func (f *fakeRepo) CreateRule(ctx context.Context, r domain.AvailabilityRule) (domain.AvailabilityRule, error) {
	if _, ok := f.providers[r.ProviderID]; !ok {
		return domain.AvailabilityRule{}, store.ErrNotFound
	}
	r.ID = f.id()
	f.rules[r.ID] = r
	return r, nil
}

func (f *fakeRepo) ListRules(ctx context.Context, providerID int64) ([]domain.AvailabilityRule, error) {
	var out []domain.AvailabilityRule
	for _, r := range f.rules {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateRule(ctx context.Context, r domain.AvailabilityRule) (domain.AvailabilityRule, error) {
	cur, ok := f.rules[r.ID]
	if !ok || cur.ProviderID != r.ProviderID {
		return domain.AvailabilityRule{}, store.ErrNotFound
	}
	f.rules[r.ID] = r
	return r, nil
}

func (f *fakeRepo) DeleteRule(ctx context.Context, providerID, ruleID int64) error {
	cur, ok := f.rules[ruleID]
	if !ok || cur.ProviderID != providerID {
		return store.ErrNotFound
	}
	delete(f.rules, ruleID)
	return nil
}

func (f *fakeRepo) CreateTimeBlock(ctx context.Context, b domain.TimeBlock) (domain.TimeBlock, error) {
	if _, ok := f.providers[b.ProviderID]; !ok {
		return domain.TimeBlock{}, store.ErrNotFound
	}
	b.ID = f.id()
	f.blocks[b.ID] = b
	return b, nil
}

func (f *fakeRepo) ListTimeBlocks(ctx context.Context, providerID int64, from, to time.Time) ([]domain.TimeBlock, error) {
	if f.listBlocksFn != nil {
		return f.listBlocksFn(ctx, providerID, from, to)
	}
	return nil, nil
}

func (f *fakeRepo) DeleteTimeBlock(ctx context.Context, providerID, blockID int64) error {
	cur, ok := f.blocks[blockID]
	if !ok || cur.ProviderID != providerID {
		return store.ErrNotFound
	}
	delete(f.blocks, blockID)
	return nil
}

func (f *fakeRepo) CreateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	if _, ok := f.providers[s.ProviderID]; !ok {
		return domain.Service{}, store.ErrNotFound
	}
	s.ID = f.id()
	f.services[s.ID] = s
	return s, nil
}

func (f *fakeRepo) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	s, ok := f.services[serviceID]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) ListServices(ctx context.Context, providerID int64, includeInactive bool) ([]domain.Service, error) {
	var out []domain.Service
	for _, s := range f.services {
		if s.ProviderID == providerID && (includeInactive || s.IsActive) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	if _, ok := f.services[s.ID]; !ok {
		return domain.Service{}, store.ErrNotFound
	}
	f.services[s.ID] = s
	return s, nil
}

func (f *fakeRepo) DeleteService(ctx context.Context, providerID, serviceID int64) error {
	cur, ok := f.services[serviceID]
	if !ok || cur.ProviderID != providerID {
		return store.ErrNotFound
	}
	delete(f.services, serviceID)
	return nil
}

type recordingCache struct {
	invalidated []int64
}

func (c *recordingCache) Get(context.Context, int64, domain.Interval) ([]domain.Interval, error) {
	return nil, errors.New("unused")
}

func (c *recordingCache) Set(context.Context, int64, domain.Interval, []domain.Interval) error {
	return nil
}

func (c *recordingCache) InvalidateProvider(_ context.Context, providerID int64) error {
	c.invalidated = append(c.invalidated, providerID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *recordingCache) {
	t.Helper()
	repo := newFakeRepo()
	c := &recordingCache{}
	svc, err := NewService(repo, c, nil)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc, repo, c
}

func mustProvider(t *testing.T, svc *Service) domain.Provider {
	t.Helper()
	p, err := svc.CreateProvider(context.Background(), ProviderInput{BusinessName: "Studio", Timezone: "America/Bogota"})
	if err != nil {
		t.Fatalf("CreateProvider error: %v", err)
	}
	return p
}

func TestCreateProvider_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name    string
		in      ProviderInput
		wantErr string
	}{
		{name: "missing name", in: ProviderInput{Timezone: "UTC"}, wantErr: "business_name"},
		{name: "missing timezone", in: ProviderInput{BusinessName: "Studio"}, wantErr: "timezone"},
		{name: "unknown timezone", in: ProviderInput{BusinessName: "Studio", Timezone: "Mars/Olympus"}, wantErr: "iana_zone"},
		{name: "host local zone", in: ProviderInput{BusinessName: "Studio", Timezone: "Local"}, wantErr: "iana_zone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProvider(context.Background(), tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q, want mention of %q", err.Error(), tt.wantErr)
			}
		})
	}

	p, err := svc.CreateProvider(context.Background(), ProviderInput{BusinessName: "  Studio ", Timezone: "Europe/Madrid"})
	if err != nil {
		t.Fatalf("CreateProvider error: %v", err)
	}
	if p.BusinessName != "Studio" || p.Timezone != "Europe/Madrid" {
		t.Fatalf("provider = %+v", p)
	}
}

func TestUpdateProvider_InvalidatesAvailability(t *testing.T) {
	svc, _, c := newTestService(t)
	p := mustProvider(t, svc)

	updated, err := svc.UpdateProvider(context.Background(), p.ID, ProviderInput{BusinessName: "Studio", Timezone: "America/New_York"})
	if err != nil {
		t.Fatalf("UpdateProvider error: %v", err)
	}
	if updated.Timezone != "America/New_York" {
		t.Fatalf("timezone = %q", updated.Timezone)
	}
	if len(c.invalidated) != 1 || c.invalidated[0] != p.ID {
		t.Fatalf("invalidated = %v, want [%d]", c.invalidated, p.ID)
	}

	if _, err := svc.UpdateProvider(context.Background(), 999, ProviderInput{BusinessName: "x", Timezone: "UTC"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRules(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()
	p := mustProvider(t, svc)

	r, err := svc.CreateRule(ctx, p.ID, RuleInput{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"})
	if err != nil {
		t.Fatalf("CreateRule error: %v", err)
	}
	if r.DayOfWeek != domain.Monday || r.StartTime != domain.NewTimeOfDay(9, 0, 0) || r.EndTime != domain.NewTimeOfDay(17, 0, 0) {
		t.Fatalf("rule = %+v", r)
	}

	if _, err := svc.CreateRule(ctx, p.ID, RuleInput{DayOfWeek: 6, StartTime: "20:00", EndTime: "24:00"}); err != nil {
		t.Fatalf("rule ending at midnight: %v", err)
	}

	invalid := []RuleInput{
		{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: -1, StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00"},
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "10:00"},
		{DayOfWeek: 1, StartTime: "9am", EndTime: "10:00"},
		{DayOfWeek: 1, StartTime: "09:00"},
	}
	for _, in := range invalid {
		var vErr *ValidationError
		if _, err := svc.CreateRule(ctx, p.ID, in); !errors.As(err, &vErr) {
			t.Fatalf("CreateRule(%+v) err = %v, want *ValidationError", in, err)
		}
	}

	updated, err := svc.UpdateRule(ctx, p.ID, r.ID, RuleInput{DayOfWeek: 1, StartTime: "10:00", EndTime: "12:30"})
	if err != nil {
		t.Fatalf("UpdateRule error: %v", err)
	}
	if updated.DayOfWeek != domain.Tuesday || updated.EndTime != domain.NewTimeOfDay(12, 30, 0) {
		t.Fatalf("updated = %+v", updated)
	}

	if err := svc.DeleteRule(ctx, p.ID, r.ID); err != nil {
		t.Fatalf("DeleteRule error: %v", err)
	}
	if err := svc.DeleteRule(ctx, p.ID, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	if len(repo.rules) != 1 {
		t.Fatalf("rules left = %d, want 1", len(repo.rules))
	}
	// two creates, one update, one delete
	if len(c.invalidated) != 4 {
		t.Fatalf("invalidations = %d, want 4", len(c.invalidated))
	}
}

func TestTimeBlocks(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()
	p := mustProvider(t, svc)

	bogota, _ := time.LoadLocation("America/Bogota")
	start := time.Date(2026, 1, 5, 12, 0, 0, 0, bogota)

	b, err := svc.CreateTimeBlock(ctx, p.ID, TimeBlockInput{Start: start, End: start.Add(time.Hour), Reason: " lunch "})
	if err != nil {
		t.Fatalf("CreateTimeBlock error: %v", err)
	}
	if b.StartTime.Location() != time.UTC || !b.StartTime.Equal(start) || b.Reason != "lunch" {
		t.Fatalf("block = %+v", b)
	}
	if len(c.invalidated) != 1 {
		t.Fatalf("invalidations = %d, want 1", len(c.invalidated))
	}

	var vErr *ValidationError
	if _, err := svc.CreateTimeBlock(ctx, p.ID, TimeBlockInput{Start: start, End: start}); !errors.As(err, &vErr) {
		t.Fatalf("empty block err = %v, want *ValidationError", err)
	}
	if _, err := svc.CreateTimeBlock(ctx, p.ID, TimeBlockInput{End: start}); !errors.As(err, &vErr) {
		t.Fatalf("missing start err = %v, want *ValidationError", err)
	}
	if _, err := svc.ListTimeBlocks(ctx, p.ID, start, start); !errors.As(err, &vErr) {
		t.Fatalf("empty window err = %v, want *ValidationError", err)
	}

	var gotFrom, gotTo time.Time
	repo.listBlocksFn = func(ctx context.Context, providerID int64, from, to time.Time) ([]domain.TimeBlock, error) {
		gotFrom, gotTo = from, to
		return []domain.TimeBlock{b}, nil
	}
	blocks, err := svc.ListTimeBlocks(ctx, p.ID, start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListTimeBlocks error: %v", err)
	}
	if len(blocks) != 1 || !gotFrom.Equal(start.Add(-time.Hour)) || !gotTo.Equal(start.Add(2*time.Hour)) {
		t.Fatalf("blocks = %v, window = %v..%v", blocks, gotFrom, gotTo)
	}

	if err := svc.DeleteTimeBlock(ctx, p.ID, b.ID); err != nil {
		t.Fatalf("DeleteTimeBlock error: %v", err)
	}
	if len(c.invalidated) != 2 {
		t.Fatalf("invalidations = %d, want 2", len(c.invalidated))
	}
}

func TestServices(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()
	p := mustProvider(t, svc)

	created, err := svc.CreateService(ctx, p.ID, ServiceInput{Name: "Cut", DurationMinutes: 30, Price: "25.5"})
	if err != nil {
		t.Fatalf("CreateService error: %v", err)
	}
	if !created.IsActive {
		t.Fatalf("new service should default to active")
	}
	if created.Price == nil || *created.Price != "25.50" {
		t.Fatalf("price = %v, want 25.50", created.Price)
	}

	invalid := []ServiceInput{
		{Name: "", DurationMinutes: 30},
		{Name: "Zero", DurationMinutes: 0},
		{Name: "Negative", DurationMinutes: -15},
		{Name: "Priced", DurationMinutes: 30, Price: "-1"},
		{Name: "Priced", DurationMinutes: 30, Price: "1.999"},
		{Name: "Priced", DurationMinutes: 30, Price: "abc"},
	}
	for _, in := range invalid {
		var vErr *ValidationError
		if _, err := svc.CreateService(ctx, p.ID, in); !errors.As(err, &vErr) {
			t.Fatalf("CreateService(%+v) err = %v, want *ValidationError", in, err)
		}
	}

	inactive := false
	updated, err := svc.UpdateService(ctx, p.ID, created.ID, ServiceInput{Name: "Cut", DurationMinutes: 45, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateService error: %v", err)
	}
	if updated.IsActive || updated.DurationMinutes != 45 || updated.Price != nil {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := svc.UpdateService(ctx, p.ID+100, created.ID, ServiceInput{Name: "Cut", DurationMinutes: 45}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign update err = %v, want ErrNotFound", err)
	}

	active, err := svc.ListServices(ctx, p.ID, false)
	if err != nil {
		t.Fatalf("ListServices error: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active services = %d, want 0", len(active))
	}

	if err := svc.DeleteService(ctx, p.ID, created.ID); err != nil {
		t.Fatalf("DeleteService error: %v", err)
	}
	if len(repo.services) != 0 {
		t.Fatalf("services left = %d", len(repo.services))
	}
	if len(c.invalidated) != 0 {
		t.Fatalf("service changes must not touch cached availability")
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := map[string]string{
		"0":      "0.00",
		"7":      "7.00",
		"007.5":  "7.50",
		"120.25": "120.25",
		"0.05":   "0.05",
	}
	for in, want := range tests {
		got := normalizePrice(in)
		if got == nil || *got != want {
			t.Fatalf("normalizePrice(%q) = %v, want %q", in, got, want)
		}
	}
	if normalizePrice("  ") != nil {
		t.Fatalf("blank price should be nil")
	}
}

func TestNewValidator_CustomTagsAndJSONNames(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator error: %v", err)
	}

	type sample struct {
		Zone  string `json:"zone" validate:"iana_zone"`
		Price string `json:"amount" validate:"price"`
	}
	if err := v.Struct(sample{Zone: "Europe/Madrid", Price: "12.50"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}

	err = v.Struct(sample{Zone: "Mars/Base", Price: "1.234"})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("err = %v, want two field errors", err)
	}
	if verrs[0].Field() != "zone" || verrs[1].Field() != "amount" {
		t.Fatalf("fields = %q, %q; want json names", verrs[0].Field(), verrs[1].Field())
	}
}

func TestNewService_ValidatorsAreIndependent(t *testing.T) {
	a, _, _ := newTestService(t)
	b, _, _ := newTestService(t)
	if a.validate == b.validate {
		t.Fatalf("services share a validator")
	}
}
