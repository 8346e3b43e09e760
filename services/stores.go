package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hotel-reservations-service/data"
)

// Stores are satisfied by the repository package in production and by
// in-memory stubs in tests.

type ReservationStore interface {
	Insert(reservation *data.Reservation, ctx context.Context) error
	GetByID(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error)
	GetAll(ctx context.Context) (data.Reservations, error)
	Update(reservation *data.Reservation, ctx context.Context) error
	ActiveByRoom(roomID primitive.ObjectID, ctx context.Context) (data.Reservations, error)
}

type RoomStore interface {
	GetByID(id primitive.ObjectID, ctx context.Context) (*data.Room, error)
}

type EventStore interface {
	InsertEvent(ctx context.Context, event *data.ReservationEvent) error
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
