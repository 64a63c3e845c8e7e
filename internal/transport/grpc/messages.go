package grpc

import (
	"time"

	"bookly/backend/internal/service/catalog"
)

// Wire messages for the json codec. Instants are RFC 3339; weekdays run from
// 0 (Monday) to 6 (Sunday).

type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type GetAvailabilityRequest struct {
	ProviderID int64     `json:"provider_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
}

type GetAvailabilityResponse struct {
	Intervals []Interval `json:"intervals"`
}

type ListSlotsRequest struct {
	ProviderID int64     `json:"provider_id"`
	ServiceID  int64     `json:"service_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
}

type ListSlotsResponse struct {
	Slots []time.Time `json:"slots"`
}

type ValidateBookingRequest struct {
	ProviderID int64     `json:"provider_id"`
	ServiceID  int64     `json:"service_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type ValidateBookingResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type CreateAppointmentRequest struct {
	ClientID    int64     `json:"client_id"`
	ProviderID  int64     `json:"provider_id"`
	ServiceID   int64     `json:"service_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ClientNotes string    `json:"client_notes,omitempty"`
}

type TransitionAppointmentRequest struct {
	AppointmentID int64   `json:"appointment_id"`
	ActorKind     string  `json:"actor_kind"`
	ActorID       int64   `json:"actor_id,omitempty"`
	TargetStatus  string  `json:"target_status"`
	ProviderNotes *string `json:"provider_notes,omitempty"`
}

type GetAppointmentRequest struct {
	AppointmentID int64 `json:"appointment_id"`
}

type ListAppointmentsRequest struct {
	ProviderID  int64     `json:"provider_id,omitempty"`
	ClientID    int64     `json:"client_id,omitempty"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Statuses    []string  `json:"statuses,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

type Appointment struct {
	ID            int64     `json:"id"`
	ClientID      int64     `json:"client_id"`
	ProviderID    int64     `json:"provider_id"`
	ServiceID     *int64    `json:"service_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	ClientNotes   string    `json:"client_notes,omitempty"`
	ProviderNotes string    `json:"provider_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
}

type ListAppointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
}

type Empty struct{}

type Provider struct {
	ID           int64     `json:"id"`
	BusinessName string    `json:"business_name"`
	BusinessType string    `json:"business_type,omitempty"`
	Address      string    `json:"address,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Timezone     string    `json:"timezone"`
	AutoConfirm  bool      `json:"auto_confirm"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProviderRequest struct {
	ProviderID int64 `json:"provider_id,omitempty"`
	catalog.ProviderInput
}

type GetProviderRequest struct {
	ProviderID int64 `json:"provider_id"`
}

type ProviderResponse struct {
	Provider Provider `json:"provider"`
}

type Rule struct {
	ID         int64  `json:"id"`
	ProviderID int64  `json:"provider_id"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type RuleRequest struct {
	ProviderID int64 `json:"provider_id"`
	RuleID     int64 `json:"rule_id,omitempty"`
	catalog.RuleInput
}

type RuleResponse struct {
	Rule Rule `json:"rule"`
}

type ListRulesRequest struct {
	ProviderID int64 `json:"provider_id"`
}

type ListRulesResponse struct {
	Rules []Rule `json:"rules"`
}

// DeleteRequest names one provider-owned record.
type DeleteRequest struct {
	ProviderID int64 `json:"provider_id"`
	ID         int64 `json:"id"`
}

type TimeBlock struct {
	ID          int64     `json:"id"`
	ProviderID  int64     `json:"provider_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	IsAvailable bool      `json:"is_available"`
	Reason      string    `json:"reason,omitempty"`
}

type TimeBlockRequest struct {
	ProviderID int64 `json:"provider_id"`
	catalog.TimeBlockInput
}

type TimeBlockResponse struct {
	TimeBlock TimeBlock `json:"time_block"`
}

type ListTimeBlocksRequest struct {
	ProviderID int64     `json:"provider_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
}

type ListTimeBlocksResponse struct {
	TimeBlocks []TimeBlock `json:"time_blocks"`
}

type Service struct {
	ID              int64   `json:"id"`
	ProviderID      int64   `json:"provider_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           *string `json:"price"`
	IsActive        bool    `json:"is_active"`
}

type ServiceRequest struct {
	ProviderID int64 `json:"provider_id"`
	ServiceID  int64 `json:"service_id,omitempty"`
	catalog.ServiceInput
}

type GetServiceRequest struct {
	ServiceID int64 `json:"service_id"`
}

type ServiceResponse struct {
	Service Service `json:"service"`
}

type ListServicesRequest struct {
	ProviderID      int64 `json:"provider_id"`
	IncludeInactive bool  `json:"include_inactive,omitempty"`
}

type ListServicesResponse struct {
	Services []Service `json:"services"`
}
