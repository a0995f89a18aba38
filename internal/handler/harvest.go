// Package handler exposes HTTP handlers for both public and authenticated
// endpoints.  This file defines handlers for the public catalog API.
// These routes allow unauthenticated users to browse and search harvest
// listings and query the availability of individual dates.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/harvest-reservation/internal/model"
	"github.com/iliyamo/harvest-reservation/internal/repository"
	"github.com/iliyamo/harvest-reservation/internal/service"
)

// HarvestCatalog is the slice of the harvest repository the HTTP layer
// depends on.  *repository.HarvestRepo satisfies it; tests substitute
// fakes.
type HarvestCatalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Harvest, error)
	Search(ctx context.Context, term string) ([]model.Harvest, error)
	ListSlots(ctx context.Context, harvestID uint64) ([]model.HarvestSlot, error)
	SlotsByHarvests(ctx context.Context, harvestIDs []uint64) (map[uint64][]model.HarvestSlot, error)
	Update(ctx context.Context, h *model.Harvest) error
	UpsertSlot(ctx context.Context, harvestID uint64, date string, capacity uint32) error
}

// HarvestHandler serves the public catalog endpoints.
type HarvestHandler struct {
	Catalog      HarvestCatalog                 // read access to listings and slots
	Availability *service.AvailabilityEvaluator // answers per-date availability queries
}

// NewHarvestHandler constructs a HarvestHandler with the provided
// dependencies.  Both must be non-nil.
func NewHarvestHandler(catalog HarvestCatalog, availability *service.AvailabilityEvaluator) *HarvestHandler {
	if catalog == nil || availability == nil {
		panic("nil dependency passed to NewHarvestHandler")
	}
	return &HarvestHandler{Catalog: catalog, Availability: availability}
}

// PublicHarvest is the listing shape exposed over the API.  The JSON field
// names match what the marketplace frontend consumes; AvailableSlots maps
// each bookable date to its remaining capacity.
type PublicHarvest struct {
	ID             uint64            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Location       string            `json:"location"`
	Price          uint32            `json:"price"`
	ImageURL       string            `json:"imageUrl,omitempty"`
	AvailableSlots map[string]uint32 `json:"availableSlots"`
}

func publicHarvest(h model.Harvest, slots []model.HarvestSlot) PublicHarvest {
	out := PublicHarvest{
		ID:             h.ID,
		Name:           h.Name,
		Description:    h.Description,
		Location:       h.Location,
		Price:          h.Price,
		ImageURL:       h.ImageURL,
		AvailableSlots: make(map[string]uint32, len(slots)),
	}
	for _, s := range slots {
		out.AvailableSlots[s.SlotDate] = s.Remaining
	}
	return out
}

// GetHarvests handles GET /api/harvests.  Without a search term it
// returns every listing in insertion order; with one it returns listings
// whose name, description or location contains the term
// case-insensitively.  Both ?search= and the legacy ?searchTerm= are
// accepted.  Slots for all returned listings are loaded in one batch
// query.
func (h *HarvestHandler) GetHarvests(c echo.Context) error {
	ctx := c.Request().Context()
	term := c.QueryParam("search")
	if term == "" {
		term = c.QueryParam("searchTerm")
	}
	harvests, err := h.Catalog.Search(ctx, term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	ids := make([]uint64, 0, len(harvests))
	for _, hv := range harvests {
		ids = append(ids, hv.ID)
	}
	slots, err := h.Catalog.SlotsByHarvests(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	out := make([]PublicHarvest, 0, len(harvests))
	for _, hv := range harvests {
		out = append(out, publicHarvest(hv, slots[hv.ID]))
	}
	return c.JSON(http.StatusOK, out)
}

// GetHarvest handles GET /api/harvests/:id.  It returns the listing with
// its availability map or 404 when the id does not resolve.
func (h *HarvestHandler) GetHarvest(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid harvest id"})
	}
	harvest, err := h.Catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHarvestNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "harvest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	slots, err := h.Catalog.ListSlots(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	return c.JSON(http.StatusOK, publicHarvest(*harvest, slots))
}

// GetAvailability handles GET /api/harvests/:id/availability?date=.  It
// reports whether the date can currently be booked, how many participants
// still fit, and which time tokens are offered.
func (h *HarvestHandler) GetAvailability(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid harvest id"})
	}
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "date query parameter is required"})
	}
	if _, err := h.Catalog.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrHarvestNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "harvest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	bookable, err := h.Availability.IsBookable(ctx, id, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	remaining, err := h.Availability.RemainingCapacity(ctx, id, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":      date,
		"bookable":  bookable,
		"remaining": remaining,
		"timeSlots": h.Availability.AvailableTimeSlots(ctx, id, date),
	})
}
