package data

// ReservationEvent is one row of the append-only lifecycle audit kept in the
// event store.
type ReservationEvent struct {
	Event         string `json:"event"`
	ReservationID string `json:"reservation_id"`
	RoomID        string `json:"room_id"`
	UserID        string `json:"user_id"`
}
