package booking

import (
	"fmt"

	"bookly/backend/internal/domain"
)

type ActorKind string

const (
	ActorClient   ActorKind = "client"
	ActorProvider ActorKind = "provider"
	ActorSystem   ActorKind = "system"
)

// Actor identifies who requests a transition. ID is the client or provider
// id and is ignored for the system actor.
type Actor struct {
	Kind ActorKind
	ID   int64
}

func ParseActorKind(s string) (ActorKind, error) {
	switch k := ActorKind(s); k {
	case ActorClient, ActorProvider, ActorSystem:
		return k, nil
	}
	return "", fmt.Errorf("unknown actor %q", s)
}

// authorize checks ownership and which targets each actor may request.
// Whether the move itself is legal is left to the status machine.
func authorize(actor Actor, appt domain.Appointment, target domain.AppointmentStatus, setsProviderNotes bool) error {
	switch actor.Kind {
	case ActorClient:
		if appt.ClientID != actor.ID {
			return fmt.Errorf("%w: appointment %d does not belong to client %d", ErrForbidden, appt.ID, actor.ID)
		}
		if target != domain.StatusCancelledByClient {
			return fmt.Errorf("%w: clients may only cancel", ErrForbidden)
		}
		if setsProviderNotes {
			return fmt.Errorf("%w: clients may not set provider notes", ErrForbidden)
		}
	case ActorProvider:
		if appt.ProviderID != actor.ID {
			return fmt.Errorf("%w: appointment %d does not belong to provider %d", ErrForbidden, appt.ID, actor.ID)
		}
		if target == domain.StatusCancelledByClient {
			return fmt.Errorf("%w: providers may not cancel on behalf of clients", ErrForbidden)
		}
	case ActorSystem:
		if target != domain.StatusCompleted {
			return fmt.Errorf("%w: system may only complete appointments", ErrForbidden)
		}
	default:
		return fmt.Errorf("%w: unknown actor %q", ErrForbidden, actor.Kind)
	}
	return nil
}
