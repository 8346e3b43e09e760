package services

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hotel-reservations-service/data"
	"hotel-reservations-service/domain"
)

var testLogger = log.New(os.Stdout, "[test] ", log.LstdFlags)

type reservationStoreStub struct {
	mu           sync.Mutex
	reservations map[primitive.ObjectID]*data.Reservation
	insertErr    error
	updateErr    error
}

func newReservationStoreStub(reservations ...*data.Reservation) *reservationStoreStub {
	stub := &reservationStoreStub{reservations: make(map[primitive.ObjectID]*data.Reservation)}
	for _, reservation := range reservations {
		stub.reservations[reservation.ID] = reservation
	}
	return stub
}

func (s *reservationStoreStub) Insert(reservation *data.Reservation, ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

func (s *reservationStoreStub) GetByID(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, ok := s.reservations[id]
	if !ok {
		return nil, domain.NotFoundError{Kind: "reservation", ID: id.Hex()}
	}
	copied := *reservation
	return &copied, nil
}

func (s *reservationStoreStub) GetAll(ctx context.Context) (data.Reservations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all data.Reservations
	for _, reservation := range s.reservations {
		copied := *reservation
		all = append(all, &copied)
	}
	return all, nil
}

func (s *reservationStoreStub) Update(reservation *data.Reservation, ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.reservations[reservation.ID]; !ok {
		return domain.NotFoundError{Kind: "reservation", ID: reservation.ID.Hex()}
	}
	copied := *reservation
	s.reservations[reservation.ID] = &copied
	return nil
}

func (s *reservationStoreStub) ActiveByRoom(roomID primitive.ObjectID, ctx context.Context) (data.Reservations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matching data.Reservations
	for _, reservation := range s.reservations {
		if reservation.RoomID == roomID && reservation.IsActive {
			copied := *reservation
			matching = append(matching, &copied)
		}
	}
	return matching, nil
}

type roomStoreStub struct {
	rooms map[primitive.ObjectID]*data.Room
}

func newRoomStoreStub(rooms ...*data.Room) *roomStoreStub {
	stub := &roomStoreStub{rooms: make(map[primitive.ObjectID]*data.Room)}
	for _, room := range rooms {
		stub.rooms[room.ID] = room
	}
	return stub
}

func (s *roomStoreStub) GetByID(id primitive.ObjectID, ctx context.Context) (*data.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.NotFoundError{Kind: "room", ID: id.Hex()}
	}
	return room, nil
}

type eventStoreStub struct {
	mu     sync.Mutex
	events []*data.ReservationEvent
}

func (s *eventStoreStub) InsertEvent(ctx context.Context, event *data.ReservationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type publisherStub struct {
	mu       sync.Mutex
	messages [][]byte
}

func (s *publisherStub) Publish(message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func (s *publisherStub) Close() {}

func (s *publisherStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// fakeClock is advanced by hand so cooldown windows and date guards are
// deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// checkerStub stands in for the conflict detector. The started/release
// channels let a test hold a check in flight.
type checkerStub struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	result  *data.AvailabilityResult
	err     error
}

func (s *checkerStub) CheckAvailability(query data.AvailabilityQuery, ctx context.Context) (*data.AvailabilityResult, error) {
	s.mu.Lock()
	s.calls++
	result := s.result
	err := s.err
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *checkerStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
