package data

import (
	"encoding/json"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Reservation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID      primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	RoomID          primitive.ObjectID `bson:"room_id" json:"room_id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	ReservationDate time.Time          `bson:"reservation_date" json:"reservation_date"`
	CheckInDate     time.Time          `bson:"check_in_date" json:"check_in_date"`
	CheckOutDate    time.Time          `bson:"check_out_date" json:"check_out_date"`
	Status          ReservationStatus  `bson:"status" json:"status"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
	Guests          []Guest            `bson:"guests" json:"guests"`
	Origin          string             `bson:"origin,omitempty" json:"origin,omitempty"`
	Reason          string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Observations    string             `bson:"observations,omitempty" json:"observations,omitempty"`
}

type Reservations []*Reservation

// Guest is owned by exactly one reservation and serialized as part of it.
type Guest struct {
	Name         string `bson:"name" json:"name" validate:"required"`
	Age          int    `bson:"age" json:"age" validate:"gte=0,lte=130"`
	DocumentType string `bson:"document_type" json:"document_type" validate:"required"`
	DocumentID   string `bson:"document_id" json:"document_id" validate:"required"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email        string `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
}

type ReservationCreate struct {
	CustomerID   string  `json:"customer_id" validate:"required"`
	RoomID       string  `json:"room_id" validate:"required"`
	CheckInDate  string  `json:"check_in_date" validate:"required"`
	CheckInTime  string  `json:"check_in_time"`
	CheckOutDate string  `json:"check_out_date" validate:"required"`
	CheckOutTime string  `json:"check_out_time"`
	Guests       []Guest `json:"guests" validate:"dive"`
	Origin       string  `json:"origin"`
	Reason       string  `json:"reason"`
	Observations string  `json:"observations"`
}

type ReservationUpdate struct {
	RoomID       string  `json:"room_id" validate:"required"`
	CheckInDate  string  `json:"check_in_date" validate:"required"`
	CheckInTime  string  `json:"check_in_time"`
	CheckOutDate string  `json:"check_out_date" validate:"required"`
	CheckOutTime string  `json:"check_out_time"`
	Guests       []Guest `json:"guests" validate:"dive"`
	Origin       string  `json:"origin"`
	Reason       string  `json:"reason"`
	Observations string  `json:"observations"`
}

// BatchResult reports the per-item outcome of an archive or restore batch.
// Partial failure is the norm, not the exception.
type BatchResult struct {
	Successful []string       `json:"successful"`
	Failed     []BatchFailure `json:"failed"`
}

type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (o *Reservation) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}

func (o *Reservation) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(o)
}

func (reservations Reservations) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(reservations)
}

func (o *ReservationCreate) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(o)
}
