package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/booking"
	"bookly/backend/internal/service/catalog"
	"bookly/backend/internal/store"
)

const errorDomain = "bookly"

// toStatus maps a service error onto a gRPC status and logs it at the level
// its class deserves. Unknown errors never leak their text to the caller.
func toStatus(log *slog.Logger, err error) error {
	var (
		bookingErr *booking.ValidationError
		catalogErr *catalog.ValidationError
		rej        *booking.Rejection
	)
	switch {
	case errors.As(err, &bookingErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, bookingErr.Error())
	case errors.As(err, &catalogErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, catalogErr.Error())
	case errors.As(err, &rej):
		log.Info("booking rejected", slog.String("reason", string(rej.Reason)), slog.String("detail", rej.Detail))
		return withReason(codes.FailedPrecondition, rej.Error(), string(rej.Reason))
	case errors.Is(err, domain.ErrInvalidTransition):
		log.Info("invalid transition", slog.Any("err", err))
		return withReason(codes.FailedPrecondition, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info("idempotency key reused with a different payload")
		return withReason(codes.FailedPrecondition, "This request key was already used for a different appointment. Try again.", "IDEMPOTENCY_CONFLICT")
	case errors.Is(err, store.ErrConflict):
		log.Info("conflict", slog.Any("err", err))
		return withReason(codes.FailedPrecondition, "That time is no longer available. Pick a different slot.", "CONFLICT")
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found", slog.Any("err", err))
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, booking.ErrForbidden):
		log.Warn("forbidden", slog.Any("err", err))
		return status.Error(codes.PermissionDenied, "not allowed")
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		log.Warn("store unavailable", slog.Any("err", err))
		return status.Error(codes.Unavailable, "temporarily unavailable, retry")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		log.Error("request failed", slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}
}

func withReason(code codes.Code, msg, reason string) error {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
