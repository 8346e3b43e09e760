package services

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hotel-reservations-service/common/invalidation"
	"hotel-reservations-service/data"
	"hotel-reservations-service/domain"
)

// SessionCoordinator holds the coordination state of a single editing
// session. One session never shares state with another; cross-session
// knowledge only travels through the conflict detector and push events.
type SessionCoordinator struct {
	reservationID primitive.ObjectID // zero while editing a new reservation
	checker       AvailabilityService
	clock         Clock
	debounce      time.Duration
	logger        *log.Logger

	mu         sync.Mutex
	states     map[string]*data.AvailabilityCheckState
	current    data.AvailabilityQuery
	hasCurrent bool
	// pushSeq orders push invalidations against in-flight checks: a check
	// issued before a push is logically older and must not override it.
	pushSeq  uint64
	onChange func(state data.AvailabilityState, result *data.AvailabilityResult)
	closed   bool
}

func NewSessionCoordinator(reservationID primitive.ObjectID, checker AvailabilityService, clock Clock, debounce time.Duration, logger *log.Logger) *SessionCoordinator {
	return &SessionCoordinator{
		reservationID: reservationID,
		checker:       checker,
		clock:         clock,
		debounce:      debounce,
		logger:        logger,
		states:        make(map[string]*data.AvailabilityCheckState),
	}
}

func (c *SessionCoordinator) Propose(query data.AvailabilityQuery, ctx context.Context) (data.AvailabilityState, *data.AvailabilityResult, error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return data.AvailabilityUnknown, nil, domain.TransitionError{Action: "check availability", Reason: "session is closed"}
	}

	key := data.CoordinationKey(c.reservationID, query.RoomID)
	state, ok := c.states[key]
	if !ok {
		state = &data.AvailabilityCheckState{}
		c.states[key] = state
	}

	c.current = query
	c.hasCurrent = true

	// Identical to the last answered query: idempotent no-op, unless a push
	// invalidated the key since then.
	if state.LastResult != nil && !state.Invalidated && state.LastCheckedQuery.Equal(query) {
		result := state.LastResult
		c.mu.Unlock()
		return stateOf(result), result, nil
	}

	// At-most-one in-flight check per key.
	if state.InFlight {
		c.mu.Unlock()
		return data.AvailabilityChecking, nil, nil
	}

	if c.clock.Now().Before(state.CooldownUntil) {
		result := state.LastResult
		c.mu.Unlock()
		return stateOf(result), result, nil
	}

	state.InFlight = true
	issuedSeq := c.pushSeq
	c.mu.Unlock()

	result, err := c.checker.CheckAvailability(query, ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	state.InFlight = false
	state.CooldownUntil = c.clock.Now().Add(c.debounce)

	if err != nil {
		// Unknown is not unavailable and definitely not available: keep
		// whatever we knew before.
		prior := state.LastResult
		return stateOf(prior), prior, err
	}

	// The session moved on to another candidate while this check was in
	// flight. The answer no longer describes anything the user is editing.
	if !c.hasCurrent || !c.current.Equal(query) {
		return data.AvailabilityUnknown, nil, nil
	}

	// A push invalidation for this room is logically newer than this check.
	if c.pushSeq != issuedSeq && state.Invalidated {
		result = state.LastResult
		return stateOf(result), result, nil
	}

	state.LastCheckedQuery = query
	state.LastResult = result
	state.Invalidated = false
	c.emit(stateOf(result), result)
	return stateOf(result), result, nil
}

func (c *SessionCoordinator) HandleInvalidation(event invalidation.RoomReservedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.hasCurrent {
		return
	}
	if event.RoomID != c.current.RoomID.Hex() {
		return
	}
	if !c.reservationID.IsZero() && event.ReservationID == c.reservationID.Hex() {
		// Our own reservation's echo, not somebody taking the room.
		return
	}

	key := data.CoordinationKey(c.reservationID, c.current.RoomID)
	state, ok := c.states[key]
	if !ok {
		state = &data.AvailabilityCheckState{}
		c.states[key] = state
	}

	result := &data.AvailabilityResult{Available: false}
	state.LastCheckedQuery = c.current
	state.LastResult = result
	state.Invalidated = true
	c.pushSeq++
	c.hasCurrent = false

	c.emit(data.AvailabilityUnavailable, result)
}

func (c *SessionCoordinator) SetOnChange(handler func(state data.AvailabilityState, result *data.AvailabilityResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = handler
}

func (c *SessionCoordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.onChange = nil
	c.states = make(map[string]*data.AvailabilityCheckState)
}

func (c *SessionCoordinator) emit(state data.AvailabilityState, result *data.AvailabilityResult) {
	if c.onChange != nil {
		c.onChange(state, result)
	}
}

func stateOf(result *data.AvailabilityResult) data.AvailabilityState {
	if result == nil {
		return data.AvailabilityUnknown
	}
	if result.Available {
		return data.AvailabilityAvailable
	}
	return data.AvailabilityUnavailable
}

// CoordinatorRegistry owns the live editing sessions of this process, fans
// push events into them, and tears them down when the session ends.
type CoordinatorRegistry struct {
	checker  AvailabilityService
	clock    Clock
	debounce time.Duration
	logger   *log.Logger

	mu       sync.RWMutex
	sessions map[string]*SessionCoordinator
}

func NewCoordinatorRegistry(checker AvailabilityService, clock Clock, debounce time.Duration, logger *log.Logger) *CoordinatorRegistry {
	return &CoordinatorRegistry{
		checker:  checker,
		clock:    clock,
		debounce: debounce,
		logger:   logger,
		sessions: make(map[string]*SessionCoordinator),
	}
}

// Session returns the coordinator for a session id, creating it on first use.
func (r *CoordinatorRegistry) Session(sessionID string, reservationID primitive.ObjectID) *SessionCoordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[sessionID]; ok {
		return session
	}
	session := NewSessionCoordinator(reservationID, r.checker, r.clock, r.debounce, r.logger)
	r.sessions[sessionID] = session
	return session
}

func (r *CoordinatorRegistry) EndSession(sessionID string) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if ok {
		session.Close()
	}
}

// HandleMessage is the push channel entry point; wire it as the subscriber
// handler for the room event subjects.
func (r *CoordinatorRegistry) HandleMessage(message []byte) {
	var event invalidation.RoomReservedEvent
	if err := event.Unmarshal(message); err != nil {
		r.logger.Println("dropping malformed invalidation event:", err)
		return
	}

	r.mu.RLock()
	sessions := make([]*SessionCoordinator, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	for _, session := range sessions {
		session.HandleInvalidation(event)
	}
}

func (r *CoordinatorRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*SessionCoordinator)
	r.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
