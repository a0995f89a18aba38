// This file defines handlers for the customer-facing reservation
// endpoints: creating a booking, listing and fetching one's own
// reservations, and the dashboard counters.  Guests may book without a
// token; authenticated callers get their identity taken from the verified
// JWT claims rather than the request body.
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

// ReservationHandler serves the /api/reservations endpoints.
type ReservationHandler struct {
	Svc service.Workflow // booking core shared with the admin handler
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc service.Workflow) *ReservationHandler {
	if svc == nil {
		panic("nil workflow passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc}
}

// createReservationRequest is the booking payload the frontend submits.
type createReservationRequest struct {
	HarvestID       uint64 `json:"harvestId"`
	UserID          string `json:"userId"`
	UserName        string `json:"userName"`
	UserEmail       string `json:"userEmail"`
	ReservationDate string `json:"reservationDate"`
	ReservationTime string `json:"reservationTime"`
	Participants    int    `json:"numberOfParticipants"`
}

// reservationResponse is the reservation shape exposed over the API.
type reservationResponse struct {
	ID              uint64  `json:"id"`
	Reference       string  `json:"reference"`
	HarvestID       uint64  `json:"harvestId"`
	UserID          *string `json:"userId"`
	UserName        string  `json:"userName"`
	UserEmail       string  `json:"userEmail"`
	ReservationDate string  `json:"reservationDate"`
	ReservationTime string  `json:"reservationTime"`
	Participants    uint32  `json:"numberOfParticipants"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toReservationResponse(r model.Reservation) reservationResponse {
	return reservationResponse{
		ID:              r.ID,
		Reference:       r.Reference,
		HarvestID:       r.HarvestID,
		UserID:          r.UserID,
		UserName:        r.UserName,
		UserEmail:       r.UserEmail,
		ReservationDate: r.ReservationDate,
		ReservationTime: r.ReservationTime,
		Participants:    r.Participants,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       r.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func reservationResponses(rs []model.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResponse(r))
	}
	return out
}

// CreateReservation handles POST /api/reservations.  When the caller is
// authenticated the verified token subject overrides whatever userId the
// body carries; guests book with a nil identity.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	// Body-supplied userId values are untrusted; only the verified token
	// subject counts.  Without a token the booking is recorded as a guest
	// one, keeping the contact fields.
	var userID *string
	if id := requesterID(c); id != "" {
		userID = &id
	}

	res, err := h.Svc.SubmitReservation(c.Request().Context(), service.SubmitReservationRequest{
		HarvestID:       req.HarvestID,
		UserID:          userID,
		UserName:        req.UserName,
		UserEmail:       req.UserEmail,
		ReservationDate: req.ReservationDate,
		ReservationTime: req.ReservationTime,
		Participants:    req.Participants,
	})
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(*res))
}

// ListReservations handles GET /api/reservations.  Authenticated callers
// always see their own reservations; unauthenticated callers must supply
// ?userId= explicitly.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	userID := requesterID(c)
	if userID == "" {
		userID = c.QueryParam("userId")
	}
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "userId is required"})
	}
	list, err := h.Svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	return c.JSON(http.StatusOK, reservationResponses(list))
}

// GetReservation handles GET /api/reservations/:id.  An authenticated
// caller may only read reservations booked under their own identity.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid reservation id"})
	}
	res, err := h.Svc.GetReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if caller := requesterID(c); caller != "" {
		if res.UserID == nil || *res.UserID != caller {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
	}
	return c.JSON(http.StatusOK, toReservationResponse(*res))
}

// GetCounts handles GET /api/reservations/counts.  It reports how many of
// the requester's reservations are confirmed and pending, for the
// dashboard badges.
func (h *ReservationHandler) GetCounts(c echo.Context) error {
	userID := requesterID(c)
	if userID == "" {
		userID = c.QueryParam("userId")
	}
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "userId is required"})
	}
	counts, err := h.Svc.CountsByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	return c.JSON(http.StatusOK, counts)
}

// reservationError maps workflow errors onto HTTP responses.
func reservationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrHarvestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "harvest not found"})
	case errors.Is(err, service.ErrMissingDate),
		errors.Is(err, service.ErrMissingTime),
		errors.Is(err, service.ErrInvalidParticipants),
		errors.Is(err, service.ErrDateUnavailable),
		errors.Is(err, service.ErrCapacityExceeded):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"message": "the selected date is being booked by someone else, please retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
}
