package services

import (
	"context"

	"hotel-reservations-service/common/invalidation"
	"hotel-reservations-service/data"
)

// CoordinationService deduplicates and debounces availability checks for one
// editing session and folds push invalidations into the same state. It is an
// optimistic pre-check; real exclusion is enforced at persistence time.
type CoordinationService interface {
	// Propose registers the session's current candidate (room + interval) and
	// runs a conflict check unless an identical check already answered, one is
	// in flight for the same key, or the key is inside its cooldown window.
	// On a failed check the previous state is kept and the error returned.
	Propose(query data.AvailabilityQuery, ctx context.Context) (data.AvailabilityState, *data.AvailabilityResult, error)

	// HandleInvalidation applies a push event: when it names the session's
	// currently selected room and a foreign reservation, the room is marked
	// unavailable immediately and the selection cleared, overriding any
	// in-flight or cached available answer.
	HandleInvalidation(event invalidation.RoomReservedEvent)

	// SetOnChange registers the observer notified on every state change.
	SetOnChange(handler func(state data.AvailabilityState, result *data.AvailabilityResult))

	Close()
}
