package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-redis/redis"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotel-reservations-service/data"
)

const (
	cacheRoom = "rooms:%s"
	roomTTL   = 300 * time.Second
)

// RoomCache keeps room master data in Redis so availability checks do not hit
// Mongo for the same rooms over and over while a user edits.
type RoomCache struct {
	cli    *redis.Client
	logger *log.Logger
	Tracer trace.Tracer
}

// Construct Redis client
func NewRoomCache(logger *log.Logger, tracer trace.Tracer) *RoomCache {
	redisHost := os.Getenv("REDIS_HOST")
	redisPort := os.Getenv("REDIS_PORT")
	redisAddress := fmt.Sprintf("%s:%s", redisHost, redisPort)

	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})

	return &RoomCache{
		cli:    client,
		logger: logger,
		Tracer: tracer,
	}
}

func (rc *RoomCache) Ping() {
	val, _ := rc.cli.Ping().Result()
	rc.logger.Println(val)
}

func (rc *RoomCache) PostRoom(room *data.Room, ctx context.Context) error {
	ctx, span := rc.Tracer.Start(ctx, "RoomCache.PostRoom")
	defer span.End()

	key := constructRoomKey(room.ID.Hex())
	value, err := json.Marshal(room)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = rc.cli.Set(key, value, roomTTL).Err()
	if err != nil {
		span.SetStatus(codes.Error, "Error setting room in Redis"+err.Error())
		return err
	}
	return nil
}

func (rc *RoomCache) GetRoom(roomID string, ctx context.Context) (*data.Room, error) {
	ctx, span := rc.Tracer.Start(ctx, "RoomCache.GetRoom")
	defer span.End()

	key := constructRoomKey(roomID)
	value, err := rc.cli.Get(key).Bytes()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var room data.Room
	if err := json.Unmarshal(value, &room); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rc.logger.Println("Room cache hit")
	return &room, nil
}

func (rc *RoomCache) RoomExists(roomID string, ctx context.Context) bool {
	ctx, span := rc.Tracer.Start(ctx, "RoomCache.RoomExists")
	defer span.End()

	key := constructRoomKey(roomID)
	count, err := rc.cli.Exists(key).Result()
	if err != nil {
		return false
	}
	return count > 0
}

func constructRoomKey(roomID string) string {
	return fmt.Sprintf(cacheRoom, roomID)
}
