package repository

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotel-reservations-service/data"
	"hotel-reservations-service/domain"
)

// ReservationRepo encapsulates the reservations collection. Reservations are
// never physically deleted: they are archived (is_active=false) or CANCELED.
type ReservationRepo struct {
	collection *mongo.Collection
	logger     *log.Logger
	Tracer     trace.Tracer
}

func NewReservationRepo(collection *mongo.Collection, logger *log.Logger, tracer trace.Tracer) *ReservationRepo {
	return &ReservationRepo{
		collection: collection,
		logger:     logger,
		Tracer:     tracer,
	}
}

func (r *ReservationRepo) Insert(reservation *data.Reservation, ctx context.Context) error {
	ctx, span := r.Tracer.Start(ctx, "ReservationRepo.Insert")
	defer span.End()

	_, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Println(err)
		return err
	}
	return nil
}

func (r *ReservationRepo) GetByID(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	ctx, span := r.Tracer.Start(ctx, "ReservationRepo.GetByID")
	defer span.End()

	var reservation data.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFoundError{Kind: "reservation", ID: id.Hex()}
		}
		r.logger.Println(err)
		return nil, err
	}
	return &reservation, nil
}

func (r *ReservationRepo) GetAll(ctx context.Context) (data.Reservations, error) {
	ctx, span := r.Tracer.Start(ctx, "ReservationRepo.GetAll")
	defer span.End()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Println(err)
		return nil, err
	}
	var reservations data.Reservations
	if err = cursor.All(ctx, &reservations); err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Println(err)
		return nil, err
	}
	return reservations, nil
}

func (r *ReservationRepo) Update(reservation *data.Reservation, ctx context.Context) error {
	ctx, span := r.Tracer.Start(ctx, "ReservationRepo.Update")
	defer span.End()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": reservation.ID}, reservation)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Println(err)
		return err
	}
	if result.MatchedCount == 0 {
		span.SetStatus(codes.Error, "Reservation not found")
		return domain.NotFoundError{Kind: "reservation", ID: reservation.ID.Hex()}
	}
	return nil
}

// ActiveByRoom returns the active reservations of one room; the conflict
// detector filters them by status and interval in memory.
func (r *ReservationRepo) ActiveByRoom(roomID primitive.ObjectID, ctx context.Context) (data.Reservations, error) {
	ctx, span := r.Tracer.Start(ctx, "ReservationRepo.ActiveByRoom")
	defer span.End()

	filter := bson.M{
		"room_id":   roomID,
		"is_active": true,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Println(err)
		return nil, err
	}
	var reservations data.Reservations
	if err = cursor.All(ctx, &reservations); err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Println(err)
		return nil, err
	}
	return reservations, nil
}
