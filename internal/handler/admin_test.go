package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/harvest-reservation/internal/model"
	"github.com/iliyamo/harvest-reservation/internal/repository"
)

// --- UpdateReservationStatus ---

func TestUpdateReservationStatus_Confirm(t *testing.T) {
	var gotTarget model.ReservationStatus
	svc := &mockWorkflow{
		changeStatusFn: func(ctx context.Context, id uint64, to model.ReservationStatus) (*model.Reservation, error) {
			gotTarget = to
			res := sampleReservation()
			res.Status = to
			return res, nil
		},
	}
	h := NewAdminHandler(svc, &mockCatalog{})

	c, rec := newJSONContext(http.MethodPut, "/api/admin/reservations/7/status", `{"status":"Confirmed"}`)
	c.SetParamNames("id")
	c.SetParamValues("7")

	assert.NoError(t, h.UpdateReservationStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusConfirmed, gotTarget)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Confirmed", body["status"])
}

func TestUpdateReservationStatus_RejectsPendingTarget(t *testing.T) {
	h := NewAdminHandler(&mockWorkflow{}, &mockCatalog{})

	// Pending is the initial state, never a transition target.
	c, rec := newJSONContext(http.MethodPut, "/api/admin/reservations/7/status", `{"status":"Pending"}`)
	c.SetParamNames("id")
	c.SetParamValues("7")

	assert.NoError(t, h.UpdateReservationStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateReservationStatus_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"reservation not found", repository.ErrReservationNotFound, http.StatusNotFound},
		{"invalid transition", repository.ErrInvalidTransition, http.StatusConflict},
		{"concurrent transition", repository.ErrConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockWorkflow{
				changeStatusFn: func(ctx context.Context, id uint64, to model.ReservationStatus) (*model.Reservation, error) {
					return nil, tc.err
				},
			}
			h := NewAdminHandler(svc, &mockCatalog{})
			c, rec := newJSONContext(http.MethodPut, "/api/admin/reservations/7/status", `{"status":"Cancelled"}`)
			c.SetParamNames("id")
			c.SetParamValues("7")

			assert.NoError(t, h.UpdateReservationStatus(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

// --- ListAllReservations ---

func TestListAllReservations(t *testing.T) {
	svc := &mockWorkflow{
		listAllFn: func(ctx context.Context) ([]model.Reservation, error) {
			return []model.Reservation{*sampleReservation()}, nil
		},
	}
	h := NewAdminHandler(svc, &mockCatalog{})
	c, rec := newJSONContext(http.MethodGet, "/api/admin/reservations", "")

	assert.NoError(t, h.ListAllReservations(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
	assert.Equal(t, "Hanako", list[0]["userName"])
}

// --- UpdateHarvest ---

func TestUpdateHarvest(t *testing.T) {
	existing := sampleHarvests()[0]
	var updated *model.Harvest
	upserts := make(map[string]uint32)
	catalog := &mockCatalog{
		getByIDFn: func(ctx context.Context, id uint64) (*model.Harvest, error) {
			h := existing
			return &h, nil
		},
		updateFn: func(ctx context.Context, h *model.Harvest) error {
			updated = h
			return nil
		},
		upsertSlotFn: func(ctx context.Context, harvestID uint64, date string, capacity uint32) error {
			upserts[date] = capacity
			return nil
		},
		listSlotsFn: func(ctx context.Context, harvestID uint64) ([]model.HarvestSlot, error) {
			return []model.HarvestSlot{
				{HarvestID: 1, SlotDate: "2030-07-15", Capacity: 20, Remaining: 12},
			}, nil
		},
	}
	h := NewAdminHandler(&mockWorkflow{}, catalog)

	body := `{
		"name": "Strawberry Picking Deluxe",
		"description": "Now with more rows",
		"location": "Shizuoka",
		"price": 1800,
		"availableSlots": {"2030-07-15": 20, "2030-07-20": 8}
	}`
	c, rec := newJSONContext(http.MethodPut, "/api/admin/harvests/1", body)
	c.SetParamNames("id")
	c.SetParamValues("1")

	assert.NoError(t, h.UpdateHarvest(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, updated) {
		assert.Equal(t, "Strawberry Picking Deluxe", updated.Name)
		assert.Equal(t, uint32(1800), updated.Price)
	}
	assert.Equal(t, uint32(20), upserts["2030-07-15"])
	assert.Equal(t, uint32(8), upserts["2030-07-20"])
}

func TestUpdateHarvest_NotFound(t *testing.T) {
	catalog := &mockCatalog{
		getByIDFn: func(ctx context.Context, id uint64) (*model.Harvest, error) {
			return nil, repository.ErrHarvestNotFound
		},
	}
	h := NewAdminHandler(&mockWorkflow{}, catalog)

	c, rec := newJSONContext(http.MethodPut, "/api/admin/harvests/99", `{"name":"x"}`)
	c.SetParamNames("id")
	c.SetParamValues("99")

	assert.NoError(t, h.UpdateHarvest(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
