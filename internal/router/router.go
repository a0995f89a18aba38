package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/harvest-reservation/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalog endpoints on the
// provided Echo instance.  Guests browse listings, search them and query
// per-date availability without a token.  The optional middlewares (rate
// limiting, response caching) are applied to every catalog route.
func RegisterPublic(e *echo.Echo, h *handler.HarvestHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api/harvests", mw...)
	// List all listings, optionally filtered with ?search= (or the legacy
	// ?searchTerm=) across name, description and location.
	g.GET("", h.GetHarvests)
	// Listing detail including its availability map.
	g.GET("/:id", h.GetHarvest)
	// Per-date availability: bookable flag, remaining capacity and the
	// offered time slots for ?date=YYYY-MM-DD.
	g.GET("/:id/availability", h.GetAvailability)
}
