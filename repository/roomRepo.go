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

// RoomRepo reads room master data (owned by the rooms service) through the
// Redis cache, falling back to Mongo on a miss.
type RoomRepo struct {
	collection *mongo.Collection
	cache      *RoomCache
	logger     *log.Logger
	Tracer     trace.Tracer
}

func NewRoomRepo(collection *mongo.Collection, cache *RoomCache, logger *log.Logger, tracer trace.Tracer) *RoomRepo {
	return &RoomRepo{
		collection: collection,
		cache:      cache,
		logger:     logger,
		Tracer:     tracer,
	}
}

func (r *RoomRepo) GetByID(id primitive.ObjectID, ctx context.Context) (*data.Room, error) {
	ctx, span := r.Tracer.Start(ctx, "RoomRepo.GetByID")
	defer span.End()

	if r.cache != nil {
		if room, err := r.cache.GetRoom(id.Hex(), ctx); err == nil {
			return room, nil
		}
	}

	var room data.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFoundError{Kind: "room", ID: id.Hex()}
		}
		r.logger.Println(err)
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.PostRoom(&room, ctx); err != nil {
			r.logger.Println("could not cache room:", err)
		}
	}
	return &room, nil
}
