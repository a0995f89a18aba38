package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/harvest-reservation/internal/model"
)

// HarvestRepo provides read access to harvest listings and the operations
// that adjust per-date slot capacity.  Listings themselves are written by
// the catalog endpoints only; the booking workflow never touches anything
// but the remaining counters.  All timestamp fields are assumed to be
// stored in UTC.
type HarvestRepo struct {
	db *sql.DB
}

// NewHarvestRepo returns a new HarvestRepo bound to the given database.
func NewHarvestRepo(db *sql.DB) *HarvestRepo { return &HarvestRepo{db: db} }

const harvestColumns = `id, name, description, location, price, image_url, created_at, updated_at`

func scanHarvest(row interface{ Scan(...interface{}) error }, h *model.Harvest) error {
	var imageURL sql.NullString
	err := row.Scan(&h.ID, &h.Name, &h.Description, &h.Location, &h.Price,
		&imageURL, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return err
	}
	if imageURL.Valid {
		h.ImageURL = imageURL.String
	}
	return nil
}

// GetByID returns a single harvest by its primary key.  It returns
// ErrHarvestNotFound when no row exists.
func (r *HarvestRepo) GetByID(ctx context.Context, id uint64) (*model.Harvest, error) {
	const q = `SELECT ` + harvestColumns + ` FROM harvests WHERE id = ?`
	var h model.Harvest
	if err := scanHarvest(r.db.QueryRowContext(ctx, q, id), &h); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHarvestNotFound
		}
		return nil, err
	}
	return &h, nil
}

// Search returns harvests whose name, description or location contains the
// given term, case-insensitively.  An empty term returns every harvest.
// Results are ordered by id so output matches insertion order.
func (r *HarvestRepo) Search(ctx context.Context, term string) ([]model.Harvest, error) {
	query := `SELECT ` + harvestColumns + ` FROM harvests`
	var args []interface{}
	if strings.TrimSpace(term) != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
		query += ` WHERE LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Harvest, 0)
	for rows.Next() {
		var h model.Harvest
		if err := scanHarvest(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSlot returns the capacity slot of a harvest on a single date.  It
// returns ErrSlotNotFound when the date has no slot, which callers treat
// as "not bookable".
func (r *HarvestRepo) GetSlot(ctx context.Context, harvestID uint64, date string) (*model.HarvestSlot, error) {
	const q = `SELECT id, harvest_id, slot_date, capacity, remaining
	           FROM harvest_slots WHERE harvest_id = ? AND slot_date = ?`
	var s model.HarvestSlot
	err := r.db.QueryRowContext(ctx, q, harvestID, date).Scan(
		&s.ID, &s.HarvestID, &s.SlotDate, &s.Capacity, &s.Remaining,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListSlots returns every capacity slot of a harvest ordered by date.
func (r *HarvestRepo) ListSlots(ctx context.Context, harvestID uint64) ([]model.HarvestSlot, error) {
	const q = `SELECT id, harvest_id, slot_date, capacity, remaining
	           FROM harvest_slots WHERE harvest_id = ? ORDER BY slot_date`
	rows, err := r.db.QueryContext(ctx, q, harvestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.HarvestSlot, 0)
	for rows.Next() {
		var s model.HarvestSlot
		if err := rows.Scan(&s.ID, &s.HarvestID, &s.SlotDate, &s.Capacity, &s.Remaining); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SlotsByHarvests loads the slots of multiple harvests in a single IN
// query and groups them by harvest id.  Passing an empty slice returns an
// empty map.  Used by list endpoints to avoid one query per listing.
func (r *HarvestRepo) SlotsByHarvests(ctx context.Context, harvestIDs []uint64) (map[uint64][]model.HarvestSlot, error) {
	out := make(map[uint64][]model.HarvestSlot, len(harvestIDs))
	if len(harvestIDs) == 0 {
		return out, nil
	}
	ids := make([]interface{}, 0, len(harvestIDs))
	placeholders := make([]string, 0, len(harvestIDs))
	for _, id := range harvestIDs {
		ids = append(ids, id)
		placeholders = append(placeholders, "?")
	}
	query := `SELECT id, harvest_id, slot_date, capacity, remaining
	          FROM harvest_slots
	          WHERE harvest_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY harvest_id, slot_date`
	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.HarvestSlot
		if err := rows.Scan(&s.ID, &s.HarvestID, &s.SlotDate, &s.Capacity, &s.Remaining); err != nil {
			return nil, err
		}
		out[s.HarvestID] = append(out[s.HarvestID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecrementRemaining atomically subtracts amount from a slot's remaining
// capacity, guarded by the value the caller read beforehand.  The guard
// makes the read-check-decrement sequence a single compare-and-decrement:
// when another submission changed the counter in between, no row matches
// and (false, nil) is returned so the caller can re-read and retry.  The
// amount must not exceed expected; that invariant is validated by the
// workflow before calling.
func (r *HarvestRepo) DecrementRemaining(ctx context.Context, harvestID uint64, date string, expected, amount uint32) (bool, error) {
	const q = `UPDATE harvest_slots
	           SET remaining = remaining - ?
	           WHERE harvest_id = ? AND slot_date = ? AND remaining = ?`
	res, err := r.db.ExecContext(ctx, q, amount, harvestID, date, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RestoreRemaining adds amount back to a slot's remaining capacity after a
// cancellation.  The value is clamped to the slot's configured ceiling so
// repeated restores can never inflate capacity beyond what the catalog
// configured.  Restoring a slot that no longer exists returns
// ErrSlotNotFound.
func (r *HarvestRepo) RestoreRemaining(ctx context.Context, harvestID uint64, date string, amount uint32) error {
	const q = `UPDATE harvest_slots
	           SET remaining = LEAST(capacity, remaining + ?)
	           WHERE harvest_id = ? AND slot_date = ?`
	res, err := r.db.ExecContext(ctx, q, amount, harvestID, date)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows both for a missing slot and for
		// an update that did not change the value (already at capacity).
		// Distinguish by checking existence.
		if _, err := r.GetSlot(ctx, harvestID, date); err != nil {
			return err
		}
	}
	return nil
}

// RestoreRemainingTx behaves like RestoreRemaining within the scope of an
// existing transaction.  The caller must commit or rollback the
// transaction; the cancellation workflow uses this so the status change
// and the capacity restore land together or not at all.
func (r *HarvestRepo) RestoreRemainingTx(ctx context.Context, tx *sql.Tx, harvestID uint64, date string, amount uint32) error {
	const q = `UPDATE harvest_slots
	           SET remaining = LEAST(capacity, remaining + ?)
	           WHERE harvest_id = ? AND slot_date = ?`
	res, err := tx.ExecContext(ctx, q, amount, harvestID, date)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var id uint64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM harvest_slots WHERE harvest_id = ? AND slot_date = ?`,
			harvestID, date,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSlotNotFound
		}
		return err
	}
	return nil
}

// Update overwrites the descriptive fields of a harvest.  It returns
// ErrHarvestNotFound when the id does not resolve.  Capacity slots are
// managed separately via UpsertSlot.
func (r *HarvestRepo) Update(ctx context.Context, h *model.Harvest) error {
	const q = `UPDATE harvests
	           SET name = ?, description = ?, location = ?, price = ?, image_url = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Description, h.Location, h.Price, h.ImageURL, h.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, h.ID); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSlot creates or updates the capacity ceiling of a harvest on one
// date.  A new slot starts with remaining equal to the ceiling.  For an
// existing slot the participants already consumed by reservations are
// preserved: remaining becomes the new ceiling minus consumed, floored at
// zero.  Assignment order matters; remaining is computed from the old
// capacity before capacity itself is overwritten.
func (r *HarvestRepo) UpsertSlot(ctx context.Context, harvestID uint64, date string, capacity uint32) error {
	const q = `INSERT INTO harvest_slots (harvest_id, slot_date, capacity, remaining)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	               remaining = GREATEST(0, CAST(VALUES(capacity) AS SIGNED) - CAST(capacity - remaining AS SIGNED)),
	               capacity = VALUES(capacity)`
	_, err := r.db.ExecContext(ctx, q, harvestID, date, capacity, capacity)
	return err
}
