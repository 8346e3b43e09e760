package handlers

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"hotel-reservations-service/data"
	"hotel-reservations-service/domain"
	"hotel-reservations-service/services"
	"hotel-reservations-service/utils"
)

type ReservationsHandler struct {
	reservationService services.ReservationService
	Tracer             trace.Tracer
	CircuitBreaker     *gobreaker.CircuitBreaker
}

func NewReservationsHandler(reservationService services.ReservationService, tracer trace.Tracer) ReservationsHandler {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "HTTPSRequest",
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			fmt.Printf("Circuit Breaker state changed from %s to %s\n", from, to)
		},
	})

	return ReservationsHandler{
		reservationService: reservationService,
		Tracer:             tracer,
		CircuitBreaker:     circuitBreaker,
	}
}

type currentUser struct {
	ID       string `json:"id"`
	UserRole string `json:"userRole"`
}

func (s *ReservationsHandler) CreateReservation(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "ReservationsHandler.CreateReservation")
	defer span.End()

	user, ok := s.authorize(c, spanCtx, span)
	if !ok {
		return
	}

	var payload data.ReservationCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		span.SetStatus(codes.Error, "Invalid request body. Check the request format.")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Check the request format."})
		return
	}
	if err := utils.ValidateReservationCreate(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid user id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	reservation, err := s.reservationService.CreateReservation(&payload, userID, spanCtx)
	if err != nil {
		s.respondError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "Reservation created")
	c.JSON(http.StatusCreated, reservation)
}

func (s *ReservationsHandler) GetReservation(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "ReservationsHandler.GetReservation")
	defer span.End()

	id, ok := s.reservationID(c, span)
	if !ok {
		return
	}

	reservation, err := s.reservationService.GetReservation(id, spanCtx)
	if err != nil {
		s.respondError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "Get reservation successful")
	c.JSON(http.StatusOK, reservation)
}

func (s *ReservationsHandler) GetAllReservations(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "ReservationsHandler.GetAllReservations")
	defer span.End()

	reservations, err := s.reservationService.GetAllReservations(spanCtx)
	if err != nil {
		s.respondError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "Get all reservations successful")
	c.JSON(http.StatusOK, reservations)
}

func (s *ReservationsHandler) UpdateReservation(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "ReservationsHandler.UpdateReservation")
	defer span.End()

	if _, ok := s.authorize(c, spanCtx, span); !ok {
		return
	}

	id, ok := s.reservationID(c, span)
	if !ok {
		return
	}

	var payload data.ReservationUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		span.SetStatus(codes.Error, "Invalid request body. Check the request format.")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Check the request format."})
		return
	}
	if err := utils.ValidateReservationUpdate(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation, err := s.reservationService.UpdateReservation(id, &payload, spanCtx)
	if err != nil {
		s.respondError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "Reservation updated")
	c.JSON(http.StatusOK, reservation)
}

func (s *ReservationsHandler) ConfirmReservation(c *gin.Context) {
	s.transition(c, "ReservationsHandler.ConfirmReservation", s.reservationService.ConfirmReservation)
}

func (s *ReservationsHandler) CheckInReservation(c *gin.Context) {
	s.transition(c, "ReservationsHandler.CheckInReservation", s.reservationService.CheckInReservation)
}

func (s *ReservationsHandler) CheckOutReservation(c *gin.Context) {
	s.transition(c, "ReservationsHandler.CheckOutReservation", s.reservationService.CheckOutReservation)
}

func (s *ReservationsHandler) CancelReservation(c *gin.Context) {
	s.transition(c, "ReservationsHandler.CancelReservation", s.reservationService.CancelReservation)
}

func (s *ReservationsHandler) transition(c *gin.Context, spanName string, op func(primitive.ObjectID, context.Context) (*data.Reservation, error)) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	if _, ok := s.authorize(c, spanCtx, span); !ok {
		return
	}

	id, ok := s.reservationID(c, span)
	if !ok {
		return
	}

	reservation, err := op(id, spanCtx)
	if err != nil {
		s.respondError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "Transition applied")
	c.JSON(http.StatusOK, reservation)
}

func (s *ReservationsHandler) GetActions(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "ReservationsHandler.GetActions")
	defer span.End()

	id, ok := s.reservationID(c, span)
	if !ok {
		return
	}

	actions, err := s.reservationService.ActionsFor(id, spanCtx)
	if err != nil {
		s.respondError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "Actions computed")
	c.JSON(http.StatusOK, actions)
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

func (s *ReservationsHandler) BatchArchive(c *gin.Context) {
	s.batch(c, "ReservationsHandler.BatchArchive", s.reservationService.BatchArchive)
}

func (s *ReservationsHandler) BatchReactivate(c *gin.Context) {
	s.batch(c, "ReservationsHandler.BatchReactivate", s.reservationService.BatchReactivate)
}

func (s *ReservationsHandler) batch(c *gin.Context, spanName string, op func([]string, context.Context) (*data.BatchResult, error)) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	if _, ok := s.authorize(c, spanCtx, span); !ok {
		return
	}

	var payload batchRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		span.SetStatus(codes.Error, "Invalid request body. Check the request format.")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Check the request format."})
		return
	}
	if len(payload.IDs) == 0 {
		span.SetStatus(codes.Error, "No reservation ids given")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No reservation ids given"})
		return
	}

	result, err := op(payload.IDs, spanCtx)
	if err != nil {
		s.respondError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "Batch done")
	c.JSON(http.StatusOK, result)
}

func (s *ReservationsHandler) reservationID(c *gin.Context, span trace.Span) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid reservation id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (s *ReservationsHandler) respondError(c *gin.Context, span trace.Span, err error) {
	span.SetStatus(codes.Error, err.Error())

	var unknownStatus domain.UnknownStatusError
	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &unknownStatus):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case domain.IsTransport(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (s *ReservationsHandler) authorize(c *gin.Context, ctx context.Context, span trace.Span) (*currentUser, bool) {
	token := c.GetHeader("Authorization")
	url := authServiceURL()

	timeout := 5 * time.Second
	ctxx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := s.performAuthorizationRequestWithCircuitBreaker(ctx, token, url)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetStatus(codes.Error, "Circuit is open. Authorization service is not available.")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization service is not available."})
			return nil, false
		}
		if ctxx.Err() == context.DeadlineExceeded {
			span.SetStatus(codes.Error, "Authorization service is not available.")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization service is not available."})
			return nil, false
		}
		span.SetStatus(codes.Error, "Error performing authorization request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error performing authorization request"})
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "Unauthorized.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized."})
		return nil, false
	}

	var response struct {
		LoggedInUser currentUser `json:"user"`
		Message      string      `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		span.SetStatus(codes.Error, "Error decoding JSON response: "+err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Error decoding JSON response: %v", err)})
		return nil, false
	}

	return &response.LoggedInUser, true
}

func (s *ReservationsHandler) performAuthorizationRequestWithCircuitBreaker(ctx context.Context, token string, url string) (*http.Response, error) {
	maxRetries := 3

	retryOperation := func() (interface{}, error) {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", token)
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

		client := &http.Client{Transport: tr}
		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		return resp, nil
	}

	result, err := s.CircuitBreaker.Execute(func() (interface{}, error) {
		return retryOperationWithExponentialBackoff(ctx, maxRetries, retryOperation)
	})
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*http.Response)
	if !ok {
		return nil, errors.New("unexpected response type from Circuit Breaker")
	}
	return resp, nil
}

func retryOperationWithExponentialBackoff(ctx context.Context, maxRetries int, operation func() (interface{}, error)) (interface{}, error) {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}
		backoff := time.Duration(attempt*attempt) * time.Second
		time.Sleep(backoff)
	}
	return nil, fmt.Errorf("max retries exceeded")
}

func authServiceURL() string {
	if url := os.Getenv("AUTH_SERVICE_URL"); url != "" {
		return url
	}
	return "https://auth-server:8080/api/users/currentUser"
}

func ExtractTraceInfoMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
