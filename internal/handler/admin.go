// This file defines handlers for the administrative endpoints: the
// full reservation overview, status transitions, and listing updates.  All
// routes here sit behind the JWT middleware plus the admin role guard.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/harvest-reservation/internal/model"
	"github.com/iliyamo/harvest-reservation/internal/repository"
	"github.com/iliyamo/harvest-reservation/internal/service"
)

// AdminHandler serves the /api/admin endpoints.
type AdminHandler struct {
	Svc     service.Workflow
	Catalog HarvestCatalog
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc service.Workflow, catalog HarvestCatalog) *AdminHandler {
	if svc == nil || catalog == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Svc: svc, Catalog: catalog}
}

// ListAllReservations handles GET /api/admin/reservations and returns
// every reservation newest first.
func (h *AdminHandler) ListAllReservations(c echo.Context) error {
	list, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	return c.JSON(http.StatusOK, reservationResponses(list))
}

// updateStatusRequest carries the target status for a transition.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateReservationStatus handles PUT /api/admin/reservations/:id/status.
// Only Confirmed and Cancelled are accepted as targets; the workflow
// enforces which transitions the current status permits.
func (h *AdminHandler) UpdateReservationStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid reservation id"})
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	target := model.ReservationStatus(req.Status)
	if target != model.StatusConfirmed && target != model.StatusCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "status must be Confirmed or Cancelled"})
	}

	res, err := h.Svc.ChangeStatus(c.Request().Context(), id, target)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		case errors.Is(err, repository.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"message": "transition not allowed from the current status"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"message": "reservation was modified concurrently, please retry"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
		}
	}
	return c.JSON(http.StatusOK, toReservationResponse(*res))
}

// updateHarvestRequest is the listing-update payload.  AvailableSlots maps
// dates to the new capacity ceiling for each; omitted dates are left
// untouched.
type updateHarvestRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Location       string            `json:"location"`
	Price          uint32            `json:"price"`
	ImageURL       string            `json:"imageUrl"`
	AvailableSlots map[string]uint32 `json:"availableSlots"`
}

// UpdateHarvest handles PUT /api/admin/harvests/:id.  It replaces the
// listing's descriptive fields and upserts a slot row for every date in
// the payload.  Raising a ceiling frees capacity, lowering it never drops
// remaining below zero.
func (h *AdminHandler) UpdateHarvest(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid harvest id"})
	}
	var req updateHarvestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	harvest, err := h.Catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHarvestNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "harvest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}

	harvest.Name = req.Name
	harvest.Description = req.Description
	harvest.Location = req.Location
	harvest.Price = req.Price
	harvest.ImageURL = req.ImageURL
	if err := h.Catalog.Update(ctx, harvest); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}

	for date, capacity := range req.AvailableSlots {
		if err := h.Catalog.UpsertSlot(ctx, id, date, capacity); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
		}
	}

	slots, err := h.Catalog.ListSlots(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	return c.JSON(http.StatusOK, publicHarvest(*harvest, slots))
}
