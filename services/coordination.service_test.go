package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hotel-reservations-service/common/invalidation"
	"hotel-reservations-service/data"
)

const testDebounce = 400 * time.Millisecond

func availableResult() *data.AvailabilityResult {
	return &data.AvailabilityResult{Available: true}
}

func queryFor(roomID primitive.ObjectID, fromDay, toDay int) data.AvailabilityQuery {
	return data.AvailabilityQuery{
		RoomID:       roomID,
		CheckInDate:  localInstant(fromDay, 15),
		CheckOutDate: localInstant(toDay, 11),
	}
}

// stateRecorder captures every onChange emission in order.
type stateRecorder struct {
	mu     sync.Mutex
	states []data.AvailabilityState
}

func (r *stateRecorder) record(state data.AvailabilityState, result *data.AvailabilityResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) snapshot() []data.AvailabilityState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]data.AvailabilityState(nil), r.states...)
}

func TestProposeRunsCheck(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)

	state, result, err := coordinator.Propose(queryFor(primitive.NewObjectID(), 10, 12), context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != data.AvailabilityAvailable {
		t.Fatalf("expected Available, got %s", state)
	}
	if result == nil || !result.Available {
		t.Fatalf("expected the detector's answer, got %+v", result)
	}
	if stub.callCount() != 1 {
		t.Fatalf("expected one check, got %d", stub.callCount())
	}
}

func TestIdenticalQueryAnsweredFromCache(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	query := queryFor(primitive.NewObjectID(), 10, 12)

	if _, _, err := coordinator.Propose(query, context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, result, err := coordinator.Propose(query, context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != data.AvailabilityAvailable || result == nil {
		t.Fatalf("expected the cached answer, got %s %+v", state, result)
	}
	if stub.callCount() != 1 {
		t.Fatalf("an identical query must not re-check, got %d calls", stub.callCount())
	}
}

func TestAtMostOneInFlightPerKey(t *testing.T) {
	stub := &checkerStub{
		result:  availableResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	query := queryFor(primitive.NewObjectID(), 10, 12)

	done := make(chan struct{})
	go func() {
		defer close(done)
		coordinator.Propose(query, context.Background())
	}()
	<-stub.started

	state, result, err := coordinator.Propose(query, context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != data.AvailabilityChecking || result != nil {
		t.Fatalf("a second proposal while one is in flight reports Checking, got %s %+v", state, result)
	}
	if stub.callCount() != 1 {
		t.Fatalf("expected a single in-flight check, got %d", stub.callCount())
	}

	close(stub.release)
	<-done
}

func TestDebounceCooldown(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	clock := newFakeClock(localInstant(1, 9))
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, clock, testDebounce, testLogger)
	roomID := primitive.NewObjectID()

	if _, _, err := coordinator.Propose(queryFor(roomID, 10, 12), context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A different interval on the same key inside the cooldown window is
	// answered with the prior result instead of a new check.
	state, result, err := coordinator.Propose(queryFor(roomID, 10, 13), context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != data.AvailabilityAvailable || result == nil {
		t.Fatalf("expected the prior answer during cooldown, got %s %+v", state, result)
	}
	if stub.callCount() != 1 {
		t.Fatalf("cooldown must suppress the check, got %d calls", stub.callCount())
	}

	clock.advance(testDebounce)
	if _, _, err := coordinator.Propose(queryFor(roomID, 10, 13), context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.callCount() != 2 {
		t.Fatalf("after the cooldown the check runs, got %d calls", stub.callCount())
	}
}

func TestTransportErrorKeepsPriorState(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	clock := newFakeClock(localInstant(1, 9))
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, clock, testDebounce, testLogger)
	roomID := primitive.NewObjectID()

	if _, _, err := coordinator.Propose(queryFor(roomID, 10, 12), context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.advance(testDebounce)
	stub.err = errors.New("detector unreachable")
	state, result, err := coordinator.Propose(queryFor(roomID, 10, 13), context.Background())
	if err == nil {
		t.Fatal("a failed check must surface its error")
	}
	if state != data.AvailabilityAvailable || result == nil || !result.Available {
		t.Fatalf("a failed check keeps the previous answer, got %s %+v", state, result)
	}
}

func TestFailedFirstCheckIsUnknown(t *testing.T) {
	stub := &checkerStub{err: errors.New("detector unreachable")}
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)

	state, result, err := coordinator.Propose(queryFor(primitive.NewObjectID(), 10, 12), context.Background())
	if err == nil {
		t.Fatal("expected the transport error")
	}
	if state != data.AvailabilityUnknown || result != nil {
		t.Fatalf("with no prior answer the state is Unknown, got %s %+v", state, result)
	}
}

func TestStaleResultDiscardedAfterCandidateChange(t *testing.T) {
	stub := &checkerStub{
		result:  availableResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	roomID := primitive.NewObjectID()

	type proposal struct {
		state  data.AvailabilityState
		result *data.AvailabilityResult
	}
	first := make(chan proposal, 1)
	go func() {
		state, result, _ := coordinator.Propose(queryFor(roomID, 10, 12), context.Background())
		first <- proposal{state, result}
	}()
	<-stub.started

	// The user keeps editing while the check is still out.
	if state, _, _ := coordinator.Propose(queryFor(roomID, 10, 14), context.Background()); state != data.AvailabilityChecking {
		t.Fatalf("expected Checking while the older check is in flight, got %s", state)
	}

	close(stub.release)
	answer := <-first
	if answer.state != data.AvailabilityUnknown || answer.result != nil {
		t.Fatalf("an answer for an abandoned candidate is discarded, got %s %+v", answer.state, answer.result)
	}
}

func TestPushInvalidationOverridesInFlightCheck(t *testing.T) {
	stub := &checkerStub{
		result:  availableResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	clock := newFakeClock(localInstant(1, 9))
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, clock, testDebounce, testLogger)
	recorder := &stateRecorder{}
	coordinator.SetOnChange(recorder.record)
	roomID := primitive.NewObjectID()
	query := queryFor(roomID, 10, 12)

	type proposal struct {
		state  data.AvailabilityState
		result *data.AvailabilityResult
	}
	first := make(chan proposal, 1)
	go func() {
		state, result, _ := coordinator.Propose(query, context.Background())
		first <- proposal{state, result}
	}()
	<-stub.started

	coordinator.HandleInvalidation(invalidation.RoomReservedEvent{
		ReservationID: primitive.NewObjectID().Hex(),
		RoomID:        roomID.Hex(),
	})

	close(stub.release)
	answer := <-first
	if answer.state == data.AvailabilityAvailable {
		t.Fatal("the push is newer than the in-flight check and must win")
	}

	states := recorder.snapshot()
	if len(states) == 0 || states[len(states)-1] != data.AvailabilityUnavailable {
		t.Fatalf("the observer must have seen Unavailable last, got %v", states)
	}

	// Re-proposing the same query inside the cooldown serves the pushed
	// verdict, never the overtaken available answer.
	state, result, err := coordinator.Propose(query, context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != data.AvailabilityUnavailable || result == nil || result.Available {
		t.Fatalf("expected the pushed Unavailable to stick, got %s %+v", state, result)
	}
}

func TestPushAllowsExplicitRecheck(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	clock := newFakeClock(localInstant(1, 9))
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, clock, testDebounce, testLogger)
	roomID := primitive.NewObjectID()
	query := queryFor(roomID, 10, 12)

	if _, _, err := coordinator.Propose(query, context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	coordinator.HandleInvalidation(invalidation.RoomReservedEvent{
		ReservationID: primitive.NewObjectID().Hex(),
		RoomID:        roomID.Hex(),
	})

	// After the invalidation the cached available answer is gone; once the
	// cooldown passes, the identical query is checked again.
	clock.advance(testDebounce)
	state, _, err := coordinator.Propose(query, context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != data.AvailabilityAvailable {
		t.Fatalf("expected the recheck to answer, got %s", state)
	}
	if stub.callCount() != 2 {
		t.Fatalf("the invalidated key must be rechecked, got %d calls", stub.callCount())
	}
}

func TestOwnReservationEchoIgnored(t *testing.T) {
	reservationID := primitive.NewObjectID()
	stub := &checkerStub{result: availableResult()}
	coordinator := NewSessionCoordinator(reservationID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	recorder := &stateRecorder{}
	coordinator.SetOnChange(recorder.record)
	roomID := primitive.NewObjectID()
	query := data.AvailabilityQuery{
		RoomID:               roomID,
		CheckInDate:          localInstant(10, 15),
		CheckOutDate:         localInstant(12, 11),
		ExcludeReservationID: reservationID,
	}

	if _, _, err := coordinator.Propose(query, context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coordinator.HandleInvalidation(invalidation.RoomReservedEvent{
		ReservationID: reservationID.Hex(),
		RoomID:        roomID.Hex(),
	})

	state, result, err := coordinator.Propose(query, context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != data.AvailabilityAvailable || result == nil || !result.Available {
		t.Fatalf("our own event must not invalidate the session, got %s %+v", state, result)
	}
	if stub.callCount() != 1 {
		t.Fatalf("nothing changed, nothing to recheck: got %d calls", stub.callCount())
	}
}

func TestForeignRoomEventIgnored(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	recorder := &stateRecorder{}
	coordinator.SetOnChange(recorder.record)
	query := queryFor(primitive.NewObjectID(), 10, 12)

	if _, _, err := coordinator.Propose(query, context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := len(recorder.snapshot())

	coordinator.HandleInvalidation(invalidation.RoomReservedEvent{
		ReservationID: primitive.NewObjectID().Hex(),
		RoomID:        primitive.NewObjectID().Hex(),
	})

	if len(recorder.snapshot()) != before {
		t.Fatal("an event for another room must not touch this session")
	}
}

func TestClosedSessionRejectsProposals(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	coordinator := NewSessionCoordinator(primitive.NilObjectID, stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	coordinator.Close()

	if _, _, err := coordinator.Propose(queryFor(primitive.NewObjectID(), 10, 12), context.Background()); err == nil {
		t.Fatal("a closed session must reject proposals")
	}
	if stub.callCount() != 0 {
		t.Fatalf("a closed session never checks, got %d calls", stub.callCount())
	}
}

func TestRegistryReturnsSameSession(t *testing.T) {
	registry := NewCoordinatorRegistry(&checkerStub{result: availableResult()}, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	defer registry.Close()

	first := registry.Session("session-a", primitive.NilObjectID)
	second := registry.Session("session-a", primitive.NilObjectID)
	if first != second {
		t.Fatal("the same session id must map to the same coordinator")
	}
	if other := registry.Session("session-b", primitive.NilObjectID); other == first {
		t.Fatal("distinct session ids must not share a coordinator")
	}
}

func TestRegistryFansOutPushEvents(t *testing.T) {
	stub := &checkerStub{result: availableResult()}
	registry := NewCoordinatorRegistry(stub, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	defer registry.Close()

	roomID := primitive.NewObjectID()
	firstRecorder := &stateRecorder{}
	secondRecorder := &stateRecorder{}

	first := registry.Session("session-a", primitive.NilObjectID)
	first.SetOnChange(firstRecorder.record)
	second := registry.Session("session-b", primitive.NilObjectID)
	second.SetOnChange(secondRecorder.record)

	if _, _, err := first.Propose(queryFor(roomID, 10, 12), context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := second.Propose(queryFor(roomID, 11, 13), context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := invalidation.RoomReservedEvent{
		ReservationID: primitive.NewObjectID().Hex(),
		RoomID:        roomID.Hex(),
	}
	message, err := event.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	registry.HandleMessage(message)

	for _, states := range [][]data.AvailabilityState{firstRecorder.snapshot(), secondRecorder.snapshot()} {
		if len(states) == 0 || states[len(states)-1] != data.AvailabilityUnavailable {
			t.Fatalf("every session watching the room sees the invalidation, got %v", states)
		}
	}
}

func TestRegistryDropsMalformedMessage(t *testing.T) {
	registry := NewCoordinatorRegistry(&checkerStub{result: availableResult()}, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	defer registry.Close()

	registry.Session("session-a", primitive.NilObjectID)
	registry.HandleMessage([]byte("{not json"))
}

func TestEndSessionClosesCoordinator(t *testing.T) {
	registry := NewCoordinatorRegistry(&checkerStub{result: availableResult()}, newFakeClock(localInstant(1, 9)), testDebounce, testLogger)
	defer registry.Close()

	session := registry.Session("session-a", primitive.NilObjectID)
	registry.EndSession("session-a")

	if _, _, err := session.Propose(queryFor(primitive.NewObjectID(), 10, 12), context.Background()); err == nil {
		t.Fatal("an ended session must reject proposals")
	}
	if registry.Session("session-a", primitive.NilObjectID) == session {
		t.Fatal("re-using the id after EndSession starts a fresh session")
	}
}
