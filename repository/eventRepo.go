package repository

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gocql/gocql"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotel-reservations-service/data"
)

// EventRepo is the append-only lifecycle audit, kept in Cassandra.
type EventRepo struct {
	session *gocql.Session
	logger  *log.Logger
	Tracer  trace.Tracer
}

// NewEventRepo reads db configuration from environment and creates the
// keyspace if it does not exist yet.
func NewEventRepo(logger *log.Logger, tracer trace.Tracer) (*EventRepo, error) {
	db := os.Getenv("CASS_DB")

	cluster := gocql.NewCluster(db)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logger.Println(err)
		return nil, err
	}
	err = session.Query(
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
					WITH replication = {
						'class' : 'SimpleStrategy',
						'replication_factor' : %d
					}`, "reservation_events", 1)).Exec()
	if err != nil {
		logger.Println(err)
	}
	session.Close()

	cluster.Keyspace = "reservation_events"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logger.Println(err)
		return nil, err
	}

	return &EventRepo{
		session: session,
		logger:  logger,
		Tracer:  tracer,
	}, nil
}

func (sr *EventRepo) CloseSession() {
	sr.session.Close()
}

func (sr *EventRepo) CreateTable() {
	err := sr.session.Query(
		`CREATE TABLE IF NOT EXISTS event_store (
        event_id_time_created timeuuid,
        event text,
        reservation_id text,
        room_id text,
        user_id text,
        PRIMARY KEY ((reservation_id), event_id_time_created)
    ) WITH CLUSTERING ORDER BY (event_id_time_created ASC);`,
	).Exec()

	if err != nil {
		sr.logger.Println(err)
	}
}

func (sr *EventRepo) InsertEvent(ctx context.Context, event *data.ReservationEvent) error {
	ctx, span := sr.Tracer.Start(ctx, "EventRepo.InsertEvent")
	defer span.End()

	eventID := gocql.TimeUUID()

	err := sr.session.Query(
		`INSERT INTO event_store
         (event_id_time_created, event, reservation_id, room_id, user_id)
         VALUES (?, ?, ?, ?, ?)`,
		eventID,
		event.Event,
		event.ReservationID,
		event.RoomID,
		event.UserID,
	).WithContext(ctx).Exec()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		sr.logger.Println(err)
		return err
	}

	return nil
}

// EventsByReservation returns the audit trail of one reservation, oldest
// first.
func (sr *EventRepo) EventsByReservation(ctx context.Context, reservationID string) ([]*data.ReservationEvent, error) {
	ctx, span := sr.Tracer.Start(ctx, "EventRepo.EventsByReservation")
	defer span.End()

	scanner := sr.session.Query(
		`SELECT event, reservation_id, room_id, user_id FROM event_store WHERE reservation_id = ?`,
		reservationID,
	).WithContext(ctx).Iter().Scanner()

	var events []*data.ReservationEvent
	for scanner.Next() {
		var event data.ReservationEvent
		err := scanner.Scan(&event.Event, &event.ReservationID, &event.RoomID, &event.UserID)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			sr.logger.Println(err)
			return nil, err
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		sr.logger.Println(err)
		return nil, err
	}
	return events, nil
}
