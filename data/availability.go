package data

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilityQuery asks whether a room is free for a half-open interval
// [CheckInDate, CheckOutDate). Ephemeral, never persisted.
type AvailabilityQuery struct {
	RoomID               primitive.ObjectID
	CheckInDate          time.Time
	CheckOutDate         time.Time
	ExcludeReservationID primitive.ObjectID
}

// Key is deterministic over all query fields so identical edits dedupe to
// the same cache slot.
func (q AvailabilityQuery) Key() string {
	return fmt.Sprintf("%s_%d_%d_%s",
		q.RoomID.Hex(),
		q.CheckInDate.UnixNano(),
		q.CheckOutDate.UnixNano(),
		q.ExcludeReservationID.Hex())
}

func (q AvailabilityQuery) Equal(other AvailabilityQuery) bool {
	return q.RoomID == other.RoomID &&
		q.CheckInDate.Equal(other.CheckInDate) &&
		q.CheckOutDate.Equal(other.CheckOutDate) &&
		q.ExcludeReservationID == other.ExcludeReservationID
}

// AvailabilityResult is the conflict detector's answer. A conflict is a
// normal outcome carried in the booleans and ids, never an error.
type AvailabilityResult struct {
	Available      bool                 `json:"available"`
	ConflictingIDs []primitive.ObjectID `json:"conflicting_ids"`
}

// AvailabilityState is what an editing session may present: never silently
// "available" on failure.
type AvailabilityState string

const (
	AvailabilityUnknown     AvailabilityState = "Unknown"
	AvailabilityChecking    AvailabilityState = "Checking"
	AvailabilityAvailable   AvailabilityState = "Available"
	AvailabilityUnavailable AvailabilityState = "Unavailable"
)

// AvailabilityCheckState is the per-key coordination record of one editing
// session. In-memory only, never survives a restart.
type AvailabilityCheckState struct {
	LastCheckedQuery AvailabilityQuery
	InFlight         bool
	LastResult       *AvailabilityResult
	CooldownUntil    time.Time
	// Invalidated is set when a push event forced this key unavailable; the
	// next explicit check for the same query is allowed through instead of
	// being served from cache.
	Invalidated bool
}

// CoordinationKey identifies an editing session: the reservation being
// edited, or "new" for a reservation that does not exist yet, plus the room.
func CoordinationKey(reservationID primitive.ObjectID, roomID primitive.ObjectID) string {
	res := "new"
	if !reservationID.IsZero() {
		res = reservationID.Hex()
	}
	return res + "_" + roomID.Hex()
}
