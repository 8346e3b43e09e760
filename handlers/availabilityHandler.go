package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotel-reservations-service/data"
	"hotel-reservations-service/domain"
	"hotel-reservations-service/services"
	"hotel-reservations-service/utils"
)

type AvailabilityHandler struct {
	registry  *services.CoordinatorRegistry
	localTime *utils.LocalTime
	Tracer    trace.Tracer
}

func NewAvailabilityHandler(registry *services.CoordinatorRegistry, localTime *utils.LocalTime, tracer trace.Tracer) AvailabilityHandler {
	return AvailabilityHandler{
		registry:  registry,
		localTime: localTime,
		Tracer:    tracer,
	}
}

type availabilityCheckRequest struct {
	ReservationID string `json:"reservation_id"`
	RoomID        string `json:"room_id" binding:"required"`
	CheckInDate   string `json:"check_in_date" binding:"required"`
	CheckInTime   string `json:"check_in_time"`
	CheckOutDate  string `json:"check_out_date" binding:"required"`
	CheckOutTime  string `json:"check_out_time"`
}

type availabilityCheckResponse struct {
	SessionID string                   `json:"session_id"`
	State     data.AvailabilityState   `json:"state"`
	Result    *data.AvailabilityResult `json:"result,omitempty"`
}

// CheckAvailability runs a coordinated availability check for the caller's
// editing session. The X-Session-Id header identifies the session; a new one
// is handed out when the header is missing.
func (s *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "AvailabilityHandler.CheckAvailability")
	defer span.End()

	var payload availabilityCheckRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		span.SetStatus(codes.Error, "Invalid request body. Check the request format.")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Check the request format."})
		return
	}

	roomID, err := primitive.ObjectIDFromHex(payload.RoomID)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid room id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}

	reservationID := primitive.NilObjectID
	if payload.ReservationID != "" {
		reservationID, err = primitive.ObjectIDFromHex(payload.ReservationID)
		if err != nil {
			span.SetStatus(codes.Error, "Invalid reservation id")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation id"})
			return
		}
	}

	checkIn, err := s.localTime.ToInstant(payload.CheckInDate, true, payload.CheckInTime)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkOut, err := s.localTime.ToInstant(payload.CheckOutDate, false, payload.CheckOutTime)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !checkOut.After(checkIn) {
		span.SetStatus(codes.Error, "Check-out must come after check-in")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Check-out must come after check-in"})
		return
	}

	sessionID := c.GetHeader("X-Session-Id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	coordinator := s.registry.Session(sessionID, reservationID)
	state, result, err := coordinator.Propose(data.AvailabilityQuery{
		RoomID:               roomID,
		CheckInDate:          checkIn,
		CheckOutDate:         checkOut,
		ExcludeReservationID: reservationID,
	}, spanCtx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if domain.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		// The check failed; the state reflects what was known before.
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      err.Error(),
			"session_id": sessionID,
			"state":      state,
		})
		return
	}

	span.SetStatus(codes.Ok, "Availability check done")
	c.JSON(http.StatusOK, availabilityCheckResponse{
		SessionID: sessionID,
		State:     state,
		Result:    result,
	})
}

// EndSession tears down an editing session's coordination state.
func (s *AvailabilityHandler) EndSession(c *gin.Context) {
	_, span := s.Tracer.Start(c.Request.Context(), "AvailabilityHandler.EndSession")
	defer span.End()

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		span.SetStatus(codes.Error, "Missing session id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session id"})
		return
	}

	s.registry.EndSession(sessionID)
	span.SetStatus(codes.Ok, "Session ended")
	c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
}
