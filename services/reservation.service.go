package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hotel-reservations-service/data"
)

type ReservationService interface {
	CreateReservation(payload *data.ReservationCreate, userID primitive.ObjectID, ctx context.Context) (*data.Reservation, error)
	GetReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error)
	GetAllReservations(ctx context.Context) (data.Reservations, error)
	UpdateReservation(id primitive.ObjectID, payload *data.ReservationUpdate, ctx context.Context) (*data.Reservation, error)

	ConfirmReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error)
	CheckInReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error)
	CheckOutReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error)
	CancelReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error)

	// ActionsFor is AvailableActions with the calendar-day check-in guard and
	// the archival flag applied on top.
	ActionsFor(id primitive.ObjectID, ctx context.Context) (data.ReservationActions, error)

	BatchArchive(ids []string, ctx context.Context) (*data.BatchResult, error)
	BatchReactivate(ids []string, ctx context.Context) (*data.BatchResult, error)
}
