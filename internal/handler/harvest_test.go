package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/harvest-reservation/internal/model"
	"github.com/iliyamo/harvest-reservation/internal/repository"
	"github.com/iliyamo/harvest-reservation/internal/service"
)

// --- Mock HarvestCatalog ---

type mockCatalog struct {
	getByIDFn    func(ctx context.Context, id uint64) (*model.Harvest, error)
	searchFn     func(ctx context.Context, term string) ([]model.Harvest, error)
	listSlotsFn  func(ctx context.Context, harvestID uint64) ([]model.HarvestSlot, error)
	slotsByFn    func(ctx context.Context, harvestIDs []uint64) (map[uint64][]model.HarvestSlot, error)
	updateFn     func(ctx context.Context, h *model.Harvest) error
	upsertSlotFn func(ctx context.Context, harvestID uint64, date string, capacity uint32) error
}

func (m *mockCatalog) GetByID(ctx context.Context, id uint64) (*model.Harvest, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockCatalog) Search(ctx context.Context, term string) ([]model.Harvest, error) {
	return m.searchFn(ctx, term)
}
func (m *mockCatalog) ListSlots(ctx context.Context, harvestID uint64) ([]model.HarvestSlot, error) {
	return m.listSlotsFn(ctx, harvestID)
}
func (m *mockCatalog) SlotsByHarvests(ctx context.Context, harvestIDs []uint64) (map[uint64][]model.HarvestSlot, error) {
	return m.slotsByFn(ctx, harvestIDs)
}
func (m *mockCatalog) Update(ctx context.Context, h *model.Harvest) error {
	return m.updateFn(ctx, h)
}
func (m *mockCatalog) UpsertSlot(ctx context.Context, harvestID uint64, date string, capacity uint32) error {
	return m.upsertSlotFn(ctx, harvestID, date, capacity)
}

// --- Availability store fake ---

// slotStore implements service.HarvestStore over fixed slots for the
// availability endpoint tests.
type slotStore struct {
	harvest *model.Harvest
	slots   map[string]*model.HarvestSlot
}

func (s *slotStore) GetByID(ctx context.Context, id uint64) (*model.Harvest, error) {
	if s.harvest == nil || s.harvest.ID != id {
		return nil, repository.ErrHarvestNotFound
	}
	return s.harvest, nil
}
func (s *slotStore) GetSlot(ctx context.Context, harvestID uint64, date string) (*model.HarvestSlot, error) {
	slot, ok := s.slots[date]
	if !ok {
		return nil, repository.ErrSlotNotFound
	}
	return slot, nil
}
func (s *slotStore) DecrementRemaining(ctx context.Context, harvestID uint64, date string, expected, amount uint32) (bool, error) {
	return false, nil
}
func (s *slotStore) RestoreRemaining(ctx context.Context, harvestID uint64, date string, amount uint32) error {
	return nil
}
func (s *slotStore) RestoreRemainingTx(ctx context.Context, tx *sql.Tx, harvestID uint64, date string, amount uint32) error {
	return nil
}

// --- Fixtures ---

func sampleHarvests() []model.Harvest {
	return []model.Harvest{
		{ID: 1, Name: "Strawberry Picking", Description: "Sweet strawberries", Location: "Shizuoka", Price: 1500},
		{ID: 2, Name: "Grape Picking", Description: "Vineyard experience", Location: "Yamanashi", Price: 2000},
	}
}

func sampleSlots() map[uint64][]model.HarvestSlot {
	return map[uint64][]model.HarvestSlot{
		1: {
			{ID: 10, HarvestID: 1, SlotDate: "2030-07-15", Capacity: 12, Remaining: 4},
			{ID: 11, HarvestID: 1, SlotDate: "2030-07-16", Capacity: 12, Remaining: 0},
		},
		2: {
			{ID: 12, HarvestID: 2, SlotDate: "2030-07-15", Capacity: 10, Remaining: 10},
		},
	}
}

func newHarvestHandler(catalog *mockCatalog, store service.HarvestStore) *HarvestHandler {
	if store == nil {
		store = &slotStore{}
	}
	return NewHarvestHandler(catalog, service.NewAvailabilityEvaluator(store))
}

// --- GetHarvests ---

func TestGetHarvests_All(t *testing.T) {
	var gotTerm string
	catalog := &mockCatalog{
		searchFn: func(ctx context.Context, term string) ([]model.Harvest, error) {
			gotTerm = term
			return sampleHarvests(), nil
		},
		slotsByFn: func(ctx context.Context, ids []uint64) (map[uint64][]model.HarvestSlot, error) {
			assert.Equal(t, []uint64{1, 2}, ids)
			return sampleSlots(), nil
		},
	}
	h := newHarvestHandler(catalog, nil)

	c, rec := newJSONContext(http.MethodGet, "/api/harvests", "")
	assert.NoError(t, h.GetHarvests(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gotTerm)

	var list []PublicHarvest
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
	assert.Equal(t, "Strawberry Picking", list[0].Name)
	assert.Equal(t, uint32(4), list[0].AvailableSlots["2030-07-15"])
	assert.Equal(t, uint32(0), list[0].AvailableSlots["2030-07-16"])
	assert.Equal(t, uint32(10), list[1].AvailableSlots["2030-07-15"])
}

func TestGetHarvests_SearchTermForwarded(t *testing.T) {
	var gotTerm string
	catalog := &mockCatalog{
		searchFn: func(ctx context.Context, term string) ([]model.Harvest, error) {
			gotTerm = term
			return nil, nil
		},
		slotsByFn: func(ctx context.Context, ids []uint64) (map[uint64][]model.HarvestSlot, error) {
			return nil, nil
		},
	}
	h := newHarvestHandler(catalog, nil)

	c, rec := newJSONContext(http.MethodGet, "/api/harvests?search=grape", "")
	assert.NoError(t, h.GetHarvests(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "grape", gotTerm)

	// Legacy parameter name still works.
	c, _ = newJSONContext(http.MethodGet, "/api/harvests?searchTerm=mandarin", "")
	assert.NoError(t, h.GetHarvests(c))
	assert.Equal(t, "mandarin", gotTerm)
}

// --- GetHarvest ---

func TestGetHarvest_Detail(t *testing.T) {
	catalog := &mockCatalog{
		getByIDFn: func(ctx context.Context, id uint64) (*model.Harvest, error) {
			h := sampleHarvests()[0]
			return &h, nil
		},
		listSlotsFn: func(ctx context.Context, harvestID uint64) ([]model.HarvestSlot, error) {
			return sampleSlots()[1], nil
		},
	}
	h := newHarvestHandler(catalog, nil)

	c, rec := newJSONContext(http.MethodGet, "/api/harvests/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	assert.NoError(t, h.GetHarvest(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got PublicHarvest
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(1), got.ID)
	assert.Equal(t, "Shizuoka", got.Location)
	assert.Len(t, got.AvailableSlots, 2)
}

func TestGetHarvest_NotFound(t *testing.T) {
	catalog := &mockCatalog{
		getByIDFn: func(ctx context.Context, id uint64) (*model.Harvest, error) {
			return nil, repository.ErrHarvestNotFound
		},
	}
	h := newHarvestHandler(catalog, nil)

	c, rec := newJSONContext(http.MethodGet, "/api/harvests/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	assert.NoError(t, h.GetHarvest(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- GetAvailability ---

func TestGetAvailability(t *testing.T) {
	harvest := sampleHarvests()[0]
	store := &slotStore{
		harvest: &harvest,
		slots: map[string]*model.HarvestSlot{
			"2030-07-15": {HarvestID: 1, SlotDate: "2030-07-15", Capacity: 12, Remaining: 4},
			"2030-07-16": {HarvestID: 1, SlotDate: "2030-07-16", Capacity: 12, Remaining: 0},
		},
	}
	catalog := &mockCatalog{
		getByIDFn: store.GetByID,
	}
	h := newHarvestHandler(catalog, store)

	c, rec := newJSONContext(http.MethodGet, "/api/harvests/1/availability?date=2030-07-15", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	assert.NoError(t, h.GetAvailability(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2030-07-15", body["date"])
	assert.Equal(t, true, body["bookable"])
	assert.Equal(t, float64(4), body["remaining"])
	assert.Len(t, body["timeSlots"], 5)
}

func TestGetAvailability_SoldOutDate(t *testing.T) {
	harvest := sampleHarvests()[0]
	store := &slotStore{
		harvest: &harvest,
		slots: map[string]*model.HarvestSlot{
			"2030-07-16": {HarvestID: 1, SlotDate: "2030-07-16", Capacity: 12, Remaining: 0},
		},
	}
	h := newHarvestHandler(&mockCatalog{getByIDFn: store.GetByID}, store)

	c, rec := newJSONContext(http.MethodGet, "/api/harvests/1/availability?date=2030-07-16", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	assert.NoError(t, h.GetAvailability(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["bookable"])
	assert.Equal(t, float64(0), body["remaining"])
}

func TestGetAvailability_MissingDate(t *testing.T) {
	h := newHarvestHandler(&mockCatalog{}, nil)

	c, rec := newJSONContext(http.MethodGet, "/api/harvests/1/availability", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	assert.NoError(t, h.GetAvailability(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
