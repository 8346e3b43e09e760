package services

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotel-reservations-service/data"
)

type AvailabilityServiceImpl struct {
	reservations ReservationStore
	rooms        RoomStore
	logger       *log.Logger
	Tracer       trace.Tracer
}

func NewAvailabilityServiceImpl(reservations ReservationStore, rooms RoomStore, logger *log.Logger, tracer trace.Tracer) AvailabilityService {
	return &AvailabilityServiceImpl{
		reservations: reservations,
		rooms:        rooms,
		logger:       logger,
		Tracer:       tracer,
	}
}

// CheckAvailability reports whether the room is free for the half-open
// interval [CheckInDate, CheckOutDate). Only active reservations in PENDING,
// CONFIRMED or CHECKED_IN count as obstacles; the excluded reservation (the
// one being edited) never blocks itself.
func (s *AvailabilityServiceImpl) CheckAvailability(query data.AvailabilityQuery, ctx context.Context) (*data.AvailabilityResult, error) {
	ctx, span := s.Tracer.Start(ctx, "AvailabilityService.CheckAvailability")
	defer span.End()

	if _, err := s.rooms.GetByID(query.RoomID, ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	existing, err := s.reservations.ActiveByRoom(query.RoomID, ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &data.AvailabilityResult{Available: true}
	for _, reservation := range existing {
		if reservation.ID == query.ExcludeReservationID {
			continue
		}
		if !blocksInterval(reservation) {
			continue
		}
		if overlaps(query.CheckInDate, query.CheckOutDate, reservation.CheckInDate, reservation.CheckOutDate) {
			result.Available = false
			result.ConflictingIDs = append(result.ConflictingIDs, reservation.ID)
		}
	}

	span.SetStatus(codes.Ok, "Availability check done")
	return result, nil
}

func blocksInterval(reservation *data.Reservation) bool {
	if !reservation.IsActive {
		return false
	}
	switch reservation.Status {
	case data.Pending, data.Confirmed, data.CheckedIn:
		return true
	default:
		return false
	}
}

// overlaps applies half-open semantics: back-to-back bookings whose edges
// touch do not conflict.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
