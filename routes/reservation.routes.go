package routes

import (
	"github.com/gin-gonic/gin"

	"hotel-reservations-service/handlers"
)

type ReservationRouteHandler struct {
	reservationsHandler handlers.ReservationsHandler
	availabilityHandler handlers.AvailabilityHandler
}

func NewReservationRouteHandler(reservationsHandler handlers.ReservationsHandler, availabilityHandler handlers.AvailabilityHandler) ReservationRouteHandler {
	return ReservationRouteHandler{reservationsHandler, availabilityHandler}
}

func (rc *ReservationRouteHandler) ReservationRoute(rg *gin.RouterGroup) {
	router := rg.Group("/reservations")
	router.Use(handlers.ExtractTraceInfoMiddleware())
	router.POST("/create", rc.reservationsHandler.CreateReservation)
	router.GET("/get/:id", rc.reservationsHandler.GetReservation)
	router.GET("/getAll", rc.reservationsHandler.GetAllReservations)
	router.PUT("/update/:id", rc.reservationsHandler.UpdateReservation)
	router.POST("/confirm/:id", rc.reservationsHandler.ConfirmReservation)
	router.POST("/checkIn/:id", rc.reservationsHandler.CheckInReservation)
	router.POST("/checkOut/:id", rc.reservationsHandler.CheckOutReservation)
	router.POST("/cancel/:id", rc.reservationsHandler.CancelReservation)
	router.GET("/actions/:id", rc.reservationsHandler.GetActions)
	router.POST("/archive", rc.reservationsHandler.BatchArchive)
	router.POST("/restore", rc.reservationsHandler.BatchReactivate)
}

func (rc *ReservationRouteHandler) AvailabilityRoute(rg *gin.RouterGroup) {
	router := rg.Group("/availability")
	router.Use(handlers.ExtractTraceInfoMiddleware())
	router.POST("/check", rc.availabilityHandler.CheckAvailability)
	router.DELETE("/session/:sessionId", rc.availabilityHandler.EndSession)
}
