package grpc

import (
	"bookly/backend/internal/domain"
)

func toAppointment(a domain.Appointment) Appointment {
	return Appointment{
		ID:            a.ID,
		ClientID:      a.ClientID,
		ProviderID:    a.ProviderID,
		ServiceID:     a.ServiceID,
		Start:         a.StartTime.UTC(),
		End:           a.EndTime.UTC(),
		Status:        string(a.Status),
		ClientNotes:   a.ClientNotes,
		ProviderNotes: a.ProviderNotes,
		CreatedAt:     a.CreatedAt.UTC(),
		UpdatedAt:     a.UpdatedAt.UTC(),
	}
}

func toIntervals(in []domain.Interval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		out = append(out, Interval{Start: iv.Start.UTC(), End: iv.End.UTC()})
	}
	return out
}

func toProvider(p domain.Provider) Provider {
	return Provider{
		ID:           p.ID,
		BusinessName: p.BusinessName,
		BusinessType: p.BusinessType,
		Address:      p.Address,
		Bio:          p.Bio,
		Timezone:     p.Timezone,
		AutoConfirm:  p.AutoConfirm,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

func toRule(r domain.AvailabilityRule) Rule {
	return Rule{
		ID:         r.ID,
		ProviderID: r.ProviderID,
		DayOfWeek:  int(r.DayOfWeek),
		StartTime:  r.StartTime.String(),
		EndTime:    r.EndTime.String(),
	}
}

func toTimeBlock(b domain.TimeBlock) TimeBlock {
	return TimeBlock{
		ID:          b.ID,
		ProviderID:  b.ProviderID,
		Start:       b.StartTime.UTC(),
		End:         b.EndTime.UTC(),
		IsAvailable: b.IsAvailable,
		Reason:      b.Reason,
	}
}

func toService(s domain.Service) Service {
	return Service{
		ID:              s.ID,
		ProviderID:      s.ProviderID,
		Name:            s.Name,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		IsActive:        s.IsActive,
	}
}
