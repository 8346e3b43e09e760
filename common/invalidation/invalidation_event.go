package invalidation

import "encoding/json"

// RoomReservedEvent announces over the push channel that a room was just
// taken or released by some reservation, independent of any session's own
// checks.
type RoomReservedEvent struct {
	ReservationID string `json:"reservation_id"`
	RoomID        string `json:"room_id"`
}

func (e *RoomReservedEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func (e *RoomReservedEvent) Unmarshal(message []byte) error {
	return json.Unmarshal(message, e)
}
