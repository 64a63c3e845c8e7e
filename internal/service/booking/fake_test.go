package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

// memStore is an in-memory BookingRepository. InProviderTransaction
// serialises callers per provider the way the advisory lock does, and
// InsertAppointment enforces the no-overlap constraint.
type memStore struct {
	mu        sync.Mutex
	providers map[int64]domain.Provider
	services  map[int64]domain.Service
	rules     []domain.AvailabilityRule
	blocks    []domain.TimeBlock
	appts     []domain.Appointment
	nextID    int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
	rowLock sync.Mutex

	ruleReads    int
	txFailures   int
	insertErr    error
	txCalls      int
	insertCalled int
}

func newMemStore() *memStore {
	return &memStore{
		providers: map[int64]domain.Provider{},
		services:  map[int64]domain.Service{},
		locks:     map[int64]*sync.Mutex{},
		nextID:    100,
	}
}

func (m *memStore) addProvider(p domain.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.ID] = p
}

func (m *memStore) addService(s domain.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[s.ID] = s
}

func (m *memStore) addRule(r domain.AvailabilityRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, r)
}

func (m *memStore) addBlock(b domain.TimeBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, b)
}

func (m *memStore) addAppointment(a domain.Appointment) domain.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		m.nextID++
		a.ID = m.nextID
	}
	m.appts = append(m.appts, a)
	return a
}

func (m *memStore) stored() []domain.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Appointment(nil), m.appts...)
}

func (m *memStore) GetProvider(ctx context.Context, providerID int64) (domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[providerID]
	if !ok {
		return domain.Provider{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.services[serviceID]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) ListRules(ctx context.Context, providerID int64) ([]domain.AvailabilityRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ruleReads++
	var out []domain.AvailabilityRule
	for _, r := range m.rules {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListTimeBlocks(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.TimeBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TimeBlock
	for _, b := range m.blocks {
		if b.ProviderID == providerID && b.StartTime.Before(windowEnd) && b.EndTime.After(windowStart) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListOccupyingAppointments(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Appointment
	for _, a := range m.appts {
		if a.ProviderID == providerID && a.Status.Occupying() && a.StartTime.Before(windowEnd) && a.EndTime.After(windowStart) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetAppointment(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.ID == appointmentID {
			return a, nil
		}
	}
	return domain.Appointment{}, store.ErrNotFound
}

func (m *memStore) ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Appointment
	for _, a := range m.appts {
		if filter.ProviderID > 0 && a.ProviderID != filter.ProviderID {
			continue
		}
		if filter.ClientID > 0 && a.ClientID != filter.ClientID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) providerLock(providerID int64) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[providerID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[providerID] = l
	}
	return l
}

func (m *memStore) failTx() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++
	if m.txFailures > 0 {
		m.txFailures--
		return true
	}
	return false
}

func (m *memStore) InProviderTransaction(ctx context.Context, providerID int64, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	if m.failTx() {
		return store.ErrUnavailable
	}
	l := m.providerLock(providerID)
	l.Lock()
	defer l.Unlock()
	return fn(ctx, m)
}

func (m *memStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	if m.failTx() {
		return store.ErrUnavailable
	}
	m.rowLock.Lock()
	defer m.rowLock.Unlock()
	return fn(ctx, m)
}

func (m *memStore) CompleteElapsed(ctx context.Context, endedBefore time.Time, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for i, a := range m.appts {
		if limit > 0 && len(ids) >= limit {
			break
		}
		if a.Status == domain.StatusConfirmed && !a.EndTime.After(endedBefore) {
			m.appts[i].Status = domain.StatusCompleted
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (m *memStore) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalled++
	if m.insertErr != nil {
		return domain.Appointment{}, m.insertErr
	}
	for _, a := range m.appts {
		if a.ProviderID == appt.ProviderID && a.Status.Occupying() && domain.Overlaps(a.Interval(), appt.Interval()) {
			return domain.Appointment{}, store.ErrConflict
		}
	}
	m.nextID++
	appt.ID = m.nextID
	m.appts = append(m.appts, appt)
	return appt, nil
}

func (m *memStore) FindByIdempotencyKey(ctx context.Context, key uuid.UUID) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.IdempotencyKey != nil && *a.IdempotencyKey == key {
			return a, nil
		}
	}
	return domain.Appointment{}, store.ErrNotFound
}

func (m *memStore) GetAppointmentForUpdate(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	return m.GetAppointment(ctx, appointmentID)
}

func (m *memStore) UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status domain.AppointmentStatus, providerNotes *string) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.appts {
		if a.ID != appointmentID {
			continue
		}
		m.appts[i].Status = status
		if providerNotes != nil {
			m.appts[i].ProviderNotes = *providerNotes
		}
		return m.appts[i], nil
	}
	return domain.Appointment{}, store.ErrNotFound
}
