package data

import (
	"encoding/json"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is owned by the rooms service; this service only reads it to validate
// that a reservation points at a real room.
type Room struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number         string             `bson:"number" json:"number"`
	RoomType       RoomType           `bson:"room_type" json:"room_type"`
	OccupancyState OccupancyState     `bson:"occupancy_state" json:"occupancy_state"`
}

type RoomType struct {
	Name          string  `bson:"name" json:"name"`
	Capacity      int     `bson:"capacity" json:"capacity"`
	PricePerNight float64 `bson:"price_per_night" json:"price_per_night"`
}

// OccupancyState tracks housekeeping, independent of the reservation
// lifecycle.
type OccupancyState string

const (
	RoomFree     OccupancyState = "Free"
	RoomOccupied OccupancyState = "Occupied"
	RoomCleaning OccupancyState = "Cleaning"
)

func (r *Room) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(r)
}

func (r *Room) FromJSON(rd io.Reader) error {
	d := json.NewDecoder(rd)
	return d.Decode(r)
}
