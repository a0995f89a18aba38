package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/harvest-reservation/internal/handler"
	"github.com/iliyamo/harvest-reservation/internal/middleware"
)

// RegisterReservations registers the customer-facing reservation endpoints
// under /api/reservations.  Authentication is optional: a request without a
// token books as a guest, while a valid bearer token binds the reservation
// to the verified subject and lets the caller list their own bookings
// without passing ?userId=.  Invalid tokens are still rejected.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/api/reservations",
		middleware.OptionalJWTAuth(jwtSecret),
	)
	// Submit a booking attempt.  Validation and the capacity decrement
	// happen inside the workflow.
	g.POST("", h.CreateReservation)
	// List the requester's reservations, newest first.
	g.GET("", h.ListReservations)
	// Dashboard counters: how many reservations are Confirmed and Pending.
	// Registered before /:id so the literal path wins.
	g.GET("/counts", h.GetCounts)
	// Reservation detail.  Authenticated callers may only read their own.
	g.GET("/:id", h.GetReservation)
}
