package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/booking"
	"bookly/backend/internal/store"
)

type bookingService interface {
	GetAvailability(ctx context.Context, providerID int64, from, to time.Time) ([]domain.Interval, error)
	ListSlots(ctx context.Context, providerID, serviceID int64, from, to time.Time) ([]time.Time, error)
	ValidateBooking(ctx context.Context, r booking.Request) (booking.Verdict, error)
	CreateAppointment(ctx context.Context, in booking.CreateInput) (domain.Appointment, error)
	TransitionAppointment(ctx context.Context, in booking.TransitionInput) (domain.Appointment, error)
	GetAppointment(ctx context.Context, appointmentID int64) (domain.Appointment, error)
	ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error)
}

type BookingServer struct {
	svc bookingService
	log *slog.Logger
}

func NewBookingServer(svc bookingService, log *slog.Logger) *BookingServer {
	if log == nil {
		log = slog.Default()
	}
	return &BookingServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.booking")),
	}
}

func (s *BookingServer) rpcLogger(ctx context.Context, rpc string) *slog.Logger {
	log := s.log.With(slog.String("rpc", rpc))
	if id := RequestIDFromContext(ctx); id != "" {
		log = log.With(slog.String("request_id", id))
	}
	return log
}

func (s *BookingServer) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	log := s.rpcLogger(ctx, "GetAvailability")
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	open, err := s.svc.GetAvailability(ctx, req.ProviderID, req.From, req.To)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}

	log.Debug("availability computed", slog.Int64("provider_id", req.ProviderID), slog.Int("intervals", len(open)))
	return &GetAvailabilityResponse{Intervals: toIntervals(open)}, nil
}

func (s *BookingServer) ListSlots(ctx context.Context, req *ListSlotsRequest) (*ListSlotsResponse, error) {
	log := s.rpcLogger(ctx, "ListSlots")
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	slots, err := s.svc.ListSlots(ctx, req.ProviderID, req.ServiceID, req.From, req.To)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID), slog.Int64("service_id", req.ServiceID)), err)
	}

	out := make([]time.Time, 0, len(slots))
	for _, t := range slots {
		out = append(out, t.UTC())
	}
	return &ListSlotsResponse{Slots: out}, nil
}

func (s *BookingServer) ValidateBooking(ctx context.Context, req *ValidateBookingRequest) (*ValidateBookingResponse, error) {
	log := s.rpcLogger(ctx, "ValidateBooking")
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	v, err := s.svc.ValidateBooking(ctx, booking.Request{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}

	resp := &ValidateBookingResponse{Accepted: v.Accepted()}
	if v.Rejection != nil {
		resp.Reason = string(v.Rejection.Reason)
		resp.Detail = v.Rejection.Detail
	}
	return resp, nil
}

func (s *BookingServer) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*AppointmentResponse, error) {
	log := s.rpcLogger(ctx, "CreateAppointment")
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_times"), slog.Int64("client_id", req.ClientID))
		return nil, status.Error(codes.InvalidArgument, "start and end are required")
	}

	appt, err := s.svc.CreateAppointment(ctx, booking.CreateInput{
		ClientID:       req.ClientID,
		ProviderID:     req.ProviderID,
		ServiceID:      req.ServiceID,
		Start:          req.Start,
		End:            req.End,
		ClientNotes:    req.ClientNotes,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, toStatus(log.With(
			slog.Int64("client_id", req.ClientID),
			slog.Int64("provider_id", req.ProviderID),
			slog.Time("start", req.Start),
			slog.Time("end", req.End),
		), err)
	}

	return &AppointmentResponse{Appointment: toAppointment(appt)}, nil
}

func (s *BookingServer) TransitionAppointment(ctx context.Context, req *TransitionAppointmentRequest) (*AppointmentResponse, error) {
	log := s.rpcLogger(ctx, "TransitionAppointment")
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	kind, err := booking.ParseActorKind(req.ActorKind)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_actor"), slog.String("actor_kind", req.ActorKind))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	target, err := domain.ParseAppointmentStatus(req.TargetStatus)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_status"), slog.String("target_status", req.TargetStatus))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	appt, err := s.svc.TransitionAppointment(ctx, booking.TransitionInput{
		AppointmentID: req.AppointmentID,
		Actor:         booking.Actor{Kind: kind, ID: req.ActorID},
		Target:        target,
		ProviderNotes: req.ProviderNotes,
	})
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("appointment_id", req.AppointmentID), slog.String("target", string(target))), err)
	}

	return &AppointmentResponse{Appointment: toAppointment(appt)}, nil
}

func (s *BookingServer) GetAppointment(ctx context.Context, req *GetAppointmentRequest) (*AppointmentResponse, error) {
	log := s.rpcLogger(ctx, "GetAppointment")
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	appt, err := s.svc.GetAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("appointment_id", req.AppointmentID)), err)
	}
	return &AppointmentResponse{Appointment: toAppointment(appt)}, nil
}

func (s *BookingServer) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	log := s.rpcLogger(ctx, "ListAppointments")
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	filter := store.AppointmentFilter{
		ProviderID:  req.ProviderID,
		ClientID:    req.ClientID,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		Limit:       req.Limit,
	}
	for _, raw := range req.Statuses {
		st, err := domain.ParseAppointmentStatus(raw)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "invalid_status"), slog.String("status", raw))
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("statuses: %v", err))
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	appts, err := s.svc.ListAppointments(ctx, filter)
	if err != nil {
		return nil, toStatus(log, err)
	}

	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointment(a))
	}
	log.Debug("appointments listed", slog.Int("count", len(out)))
	return &ListAppointmentsResponse{Appointments: out}, nil
}
