package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/harvest-reservation/internal/handler"    // admin handlers
	"github.com/iliyamo/harvest-reservation/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers admin-scoped endpoints under /api/admin.
// All routes require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("admin"),
	)

	// ---- Reservations ----
	g.GET("/reservations", a.ListAllReservations)
	g.PUT("/reservations/:id/status", a.UpdateReservationStatus)

	// ---- Harvest listings ----
	g.PUT("/harvests/:id", a.UpdateHarvest)
	g.PATCH("/harvests/:id", a.UpdateHarvest) // alias for clients that use PATCH
}
