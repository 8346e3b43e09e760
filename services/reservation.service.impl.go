package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotel-reservations-service/common/invalidation"
	"hotel-reservations-service/common/messaging"
	"hotel-reservations-service/data"
	"hotel-reservations-service/domain"
	"hotel-reservations-service/utils"
)

type ReservationServiceImpl struct {
	store        ReservationStore
	availability AvailabilityService
	events       EventStore
	localTime    *utils.LocalTime
	clock        Clock
	reserved     messaging.Publisher
	updated      messaging.Publisher
	logger       *log.Logger
	Tracer       trace.Tracer
}

func NewReservationServiceImpl(store ReservationStore, availability AvailabilityService, events EventStore,
	localTime *utils.LocalTime, clock Clock, reserved messaging.Publisher, updated messaging.Publisher,
	logger *log.Logger, tracer trace.Tracer) ReservationService {
	return &ReservationServiceImpl{
		store:        store,
		availability: availability,
		events:       events,
		localTime:    localTime,
		clock:        clock,
		reserved:     reserved,
		updated:      updated,
		logger:       logger,
		Tracer:       tracer,
	}
}

func (s *ReservationServiceImpl) CreateReservation(payload *data.ReservationCreate, userID primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.CreateReservation")
	defer span.End()

	customerID, err := primitive.ObjectIDFromHex(payload.CustomerID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.ParseError{Input: payload.CustomerID, Message: "customer id is not a valid object id"}
	}
	roomID, err := primitive.ObjectIDFromHex(payload.RoomID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.ParseError{Input: payload.RoomID, Message: "room id is not a valid object id"}
	}

	checkIn, checkOut, err := s.normalizeInterval(payload.CheckInDate, payload.CheckInTime, payload.CheckOutDate, payload.CheckOutTime)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := s.availability.CheckAvailability(data.AvailabilityQuery{
		RoomID:       roomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
	}, ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !result.Available {
		span.SetStatus(codes.Error, "Room is not available for the requested interval")
		return nil, domain.TransitionError{Action: "create", From: "PENDING", Reason: "room is already reserved for an overlapping interval"}
	}

	reservation := &data.Reservation{
		ID:              primitive.NewObjectID(),
		CustomerID:      customerID,
		RoomID:          roomID,
		UserID:          userID,
		ReservationDate: s.clock.Now(),
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		Status:          data.Pending,
		IsActive:        true,
		Guests:          payload.Guests,
		Origin:          payload.Origin,
		Reason:          payload.Reason,
		Observations:    payload.Observations,
	}

	if err := s.store.Insert(reservation, ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.recordEvent(ctx, "reservation-created", reservation)
	s.publish(s.reserved, reservation)

	span.SetStatus(codes.Ok, "Reservation created")
	return reservation, nil
}

func (s *ReservationServiceImpl) GetReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.GetReservation")
	defer span.End()

	reservation, err := s.store.GetByID(id, ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "Get reservation successful")
	return reservation, nil
}

func (s *ReservationServiceImpl) GetAllReservations(ctx context.Context) (data.Reservations, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.GetAllReservations")
	defer span.End()

	reservations, err := s.store.GetAll(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "Get all reservations successful")
	return reservations, nil
}

// UpdateReservation changes room/interval/guests of a PENDING or CONFIRMED
// reservation. The conflict check excludes the reservation itself so it never
// collides with its own stored interval.
func (s *ReservationServiceImpl) UpdateReservation(id primitive.ObjectID, payload *data.ReservationUpdate, ctx context.Context) (*data.Reservation, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.UpdateReservation")
	defer span.End()

	reservation, err := s.store.GetByID(id, ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	actions, err := data.AvailableActions(reservation.Status)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Printf("unknown status %q on reservation %s", reservation.Status, id.Hex())
		return nil, err
	}
	if !actions.CanModify {
		span.SetStatus(codes.Error, "Reservation can no longer be modified")
		return nil, domain.TransitionError{From: string(reservation.Status), Action: "modify"}
	}

	roomID, err := primitive.ObjectIDFromHex(payload.RoomID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.ParseError{Input: payload.RoomID, Message: "room id is not a valid object id"}
	}

	checkIn, checkOut, err := s.normalizeInterval(payload.CheckInDate, payload.CheckInTime, payload.CheckOutDate, payload.CheckOutTime)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := s.availability.CheckAvailability(data.AvailabilityQuery{
		RoomID:               roomID,
		CheckInDate:          checkIn,
		CheckOutDate:         checkOut,
		ExcludeReservationID: reservation.ID,
	}, ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !result.Available {
		span.SetStatus(codes.Error, "Room is not available for the requested interval")
		return nil, domain.TransitionError{From: string(reservation.Status), Action: "modify", Reason: "room is already reserved for an overlapping interval"}
	}

	reservation.RoomID = roomID
	reservation.CheckInDate = checkIn
	reservation.CheckOutDate = checkOut
	reservation.Guests = payload.Guests
	reservation.Origin = payload.Origin
	reservation.Reason = payload.Reason
	reservation.Observations = payload.Observations

	if err := s.store.Update(reservation, ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.recordEvent(ctx, "reservation-updated", reservation)
	s.publish(s.updated, reservation)

	span.SetStatus(codes.Ok, "Reservation updated")
	return reservation, nil
}

func (s *ReservationServiceImpl) ConfirmReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	return s.transition(id, "confirm", ctx, func(reservation *data.Reservation, actions data.ReservationActions) error {
		if !actions.CanConfirm {
			return domain.TransitionError{From: string(reservation.Status), Action: "confirm"}
		}
		reservation.Status = data.Confirmed
		return nil
	})
}

func (s *ReservationServiceImpl) CheckInReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	return s.transition(id, "check in", ctx, func(reservation *data.Reservation, actions data.ReservationActions) error {
		if !actions.CanCheckIn {
			return domain.TransitionError{From: string(reservation.Status), Action: "check in"}
		}
		// Calendar-day comparison in the hotel's offset, not instant
		// comparison: the 3 PM check-in may happen at 9 AM that day.
		if !s.localTime.SameOrAfterLocalDay(s.clock.Now(), reservation.CheckInDate) {
			return domain.TransitionError{From: string(reservation.Status), Action: "check in", Reason: "check-in day not reached"}
		}
		reservation.Status = data.CheckedIn
		return nil
	})
}

func (s *ReservationServiceImpl) CheckOutReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	return s.transition(id, "check out", ctx, func(reservation *data.Reservation, actions data.ReservationActions) error {
		if !actions.CanCheckOut {
			return domain.TransitionError{From: string(reservation.Status), Action: "check out"}
		}
		reservation.Status = data.CheckedOut
		return nil
	})
}

func (s *ReservationServiceImpl) CancelReservation(id primitive.ObjectID, ctx context.Context) (*data.Reservation, error) {
	return s.transition(id, "cancel", ctx, func(reservation *data.Reservation, actions data.ReservationActions) error {
		if !actions.CanCancel {
			return domain.TransitionError{From: string(reservation.Status), Action: "cancel"}
		}
		reservation.Status = data.Canceled
		return nil
	})
}

func (s *ReservationServiceImpl) transition(id primitive.ObjectID, action string, ctx context.Context, apply func(*data.Reservation, data.ReservationActions) error) (*data.Reservation, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.Transition")
	defer span.End()

	reservation, err := s.store.GetByID(id, ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	actions, err := data.AvailableActions(reservation.Status)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Printf("unknown status %q on reservation %s", reservation.Status, id.Hex())
		return nil, err
	}

	if err := apply(reservation, actions); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.store.Update(reservation, ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.recordEvent(ctx, "reservation-"+action, reservation)
	if reservation.Status == data.Canceled || reservation.Status == data.CheckedOut {
		// The room just became biddable again; let editing sessions know.
		s.publish(s.updated, reservation)
	}

	span.SetStatus(codes.Ok, "Transition applied")
	return reservation, nil
}

func (s *ReservationServiceImpl) ActionsFor(id primitive.ObjectID, ctx context.Context) (data.ReservationActions, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.ActionsFor")
	defer span.End()

	reservation, err := s.store.GetByID(id, ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return data.ReservationActions{}, err
	}

	actions, err := data.AvailableActions(reservation.Status)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Printf("unknown status %q on reservation %s", reservation.Status, id.Hex())
		return data.ReservationActions{}, err
	}

	if actions.CanCheckIn && !s.localTime.SameOrAfterLocalDay(s.clock.Now(), reservation.CheckInDate) {
		actions.CanCheckIn = false
	}
	// Reactivation only makes sense for an archived record.
	if reservation.IsActive {
		actions.CanReactivate = false
	} else {
		// An archived reservation offers nothing but reactivation.
		canReactivate := actions.CanReactivate
		actions = data.ReservationActions{CanReactivate: canReactivate}
	}

	span.SetStatus(codes.Ok, "Actions computed")
	return actions, nil
}

// BatchArchive archives each reservation independently; one failure never
// aborts the rest.
func (s *ReservationServiceImpl) BatchArchive(ids []string, ctx context.Context) (*data.BatchResult, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.BatchArchive")
	defer span.End()

	result := &data.BatchResult{Successful: []string{}, Failed: []data.BatchFailure{}}
	for _, rawID := range ids {
		if reason := s.archiveOne(rawID, ctx); reason != "" {
			result.Failed = append(result.Failed, data.BatchFailure{ID: rawID, Reason: reason})
		} else {
			result.Successful = append(result.Successful, rawID)
		}
	}

	span.SetStatus(codes.Ok, "Batch archive done")
	return result, nil
}

func (s *ReservationServiceImpl) BatchReactivate(ids []string, ctx context.Context) (*data.BatchResult, error) {
	ctx, span := s.Tracer.Start(ctx, "ReservationService.BatchReactivate")
	defer span.End()

	result := &data.BatchResult{Successful: []string{}, Failed: []data.BatchFailure{}}
	for _, rawID := range ids {
		if reason := s.reactivateOne(rawID, ctx); reason != "" {
			result.Failed = append(result.Failed, data.BatchFailure{ID: rawID, Reason: reason})
		} else {
			result.Successful = append(result.Successful, rawID)
		}
	}

	span.SetStatus(codes.Ok, "Batch reactivate done")
	return result, nil
}

func (s *ReservationServiceImpl) archiveOne(rawID string, ctx context.Context) string {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return "not a valid reservation id"
	}
	reservation, err := s.store.GetByID(id, ctx)
	if err != nil {
		if domain.IsNotFound(err) {
			return "reservation not found"
		}
		return "could not load reservation"
	}
	if !reservation.IsActive {
		return "reservation is already archived"
	}
	// Archival is reserved for reservations that are not mid-stay.
	if reservation.Status != data.Pending && reservation.Status != data.Confirmed {
		return "only pending or confirmed reservations can be archived"
	}

	reservation.IsActive = false
	if err := s.store.Update(reservation, ctx); err != nil {
		return "could not save reservation"
	}
	s.recordEvent(ctx, "reservation-archived", reservation)
	return ""
}

func (s *ReservationServiceImpl) reactivateOne(rawID string, ctx context.Context) string {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return "not a valid reservation id"
	}
	reservation, err := s.store.GetByID(id, ctx)
	if err != nil {
		if domain.IsNotFound(err) {
			return "reservation not found"
		}
		return "could not load reservation"
	}
	if reservation.IsActive {
		return "reservation is not archived"
	}

	actions, err := data.AvailableActions(reservation.Status)
	if err != nil {
		s.logger.Printf("unknown status %q on reservation %s", reservation.Status, id.Hex())
		return "reservation has an unknown status"
	}
	if !actions.CanReactivate {
		return "reservation can no longer be reactivated"
	}
	if s.localTime.LocalDate(s.clock.Now()).After(s.localTime.LocalDate(reservation.CheckInDate)) {
		return "check-in day has already passed"
	}

	result, err := s.availability.CheckAvailability(data.AvailabilityQuery{
		RoomID:               reservation.RoomID,
		CheckInDate:          reservation.CheckInDate,
		CheckOutDate:         reservation.CheckOutDate,
		ExcludeReservationID: reservation.ID,
	}, ctx)
	if err != nil {
		return "could not verify room availability"
	}
	if !result.Available {
		return "room is no longer free for the reserved interval"
	}

	reservation.IsActive = true
	if err := s.store.Update(reservation, ctx); err != nil {
		return "could not save reservation"
	}
	s.recordEvent(ctx, "reservation-reactivated", reservation)
	s.publish(s.reserved, reservation)
	return ""
}

func (s *ReservationServiceImpl) normalizeInterval(checkInDate, checkInTime, checkOutDate, checkOutTime string) (time.Time, time.Time, error) {
	checkIn, err := s.localTime.ToInstant(checkInDate, true, checkInTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := s.localTime.ToInstant(checkOutDate, false, checkOutTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, domain.RangeError{Field: "check_out_date", Value: int(checkOut.Sub(checkIn) / time.Hour)}
	}
	return checkIn, checkOut, nil
}

func (s *ReservationServiceImpl) recordEvent(ctx context.Context, event string, reservation *data.Reservation) {
	err := s.events.InsertEvent(ctx, &data.ReservationEvent{
		Event:         event,
		ReservationID: reservation.ID.Hex(),
		RoomID:        reservation.RoomID.Hex(),
		UserID:        reservation.UserID.Hex(),
	})
	if err != nil {
		s.logger.Println("could not record reservation event:", err)
	}
}

func (s *ReservationServiceImpl) publish(publisher messaging.Publisher, reservation *data.Reservation) {
	if publisher == nil {
		return
	}
	event := invalidation.RoomReservedEvent{
		ReservationID: reservation.ID.Hex(),
		RoomID:        reservation.RoomID.Hex(),
	}
	message, err := event.Marshal()
	if err != nil {
		s.logger.Println("could not marshal room event:", err)
		return
	}
	if err := publisher.Publish(message); err != nil {
		s.logger.Println("could not publish room event:", err)
	}
}
