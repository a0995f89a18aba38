package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/harvest-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Status
// changes go through a guarded UPDATE so the state machine is enforced at
// the row level and concurrent transitions on the same reservation are
// serialized by the database.  All timestamp fields are assumed to be
// stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, reference, harvest_id, user_id, user_name, user_email,
	reservation_date, reservation_time, participants, status, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }, res *model.Reservation) error {
	var userID sql.NullString
	err := row.Scan(
		&res.ID, &res.Reference, &res.HarvestID, &userID, &res.UserName, &res.UserEmail,
		&res.ReservationDate, &res.ReservationTime, &res.Participants, &res.Status,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if userID.Valid {
		uid := userID.String
		res.UserID = &uid
	}
	return nil
}

// Create inserts a new reservation and populates the generated ID and the
// database-assigned timestamps on the provided record.  Status must be set
// by the caller (the workflow always creates reservations as Pending).
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (reference, harvest_id, user_id, user_name, user_email,
	            reservation_date, reservation_time, participants, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var userID interface{}
	if res.UserID != nil {
		userID = *res.UserID
	}
	result, err := r.db.ExecContext(ctx, q,
		res.Reference, res.HarvestID, userID, res.UserName, res.UserEmail,
		res.ReservationDate, res.ReservationTime, res.Participants, res.Status,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, sel, res.ID), res)
}

// GetByID returns a single reservation.  It returns ErrReservationNotFound
// when the id does not resolve.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListByUser returns all reservations created under the given identity,
// newest first.  When no reservations exist, an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.queryList(ctx, q, userID)
}

// ListAll returns every reservation in the store, newest first.  Used by
// the administrative overview.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           ORDER BY created_at DESC, id DESC`
	return r.queryList(ctx, q)
}

func (r *ReservationRepo) queryList(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountsByUser returns how many reservations of the given identity are
// currently Confirmed and Pending.  Cancelled reservations are not
// reported.
func (r *ReservationRepo) CountsByUser(ctx context.Context, userID string) (confirmed, pending int64, err error) {
	const q = `SELECT status, COUNT(*) FROM reservations
	           WHERE user_id = ? AND status IN (?, ?)
	           GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, userID, model.StatusConfirmed, model.StatusPending)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var status model.ReservationStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, err
		}
		switch status {
		case model.StatusConfirmed:
			confirmed = n
		case model.StatusPending:
			pending = n
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	return confirmed, pending, nil
}

// UpdateStatus moves a reservation from one status to another with a
// guarded UPDATE.  The from clause serializes concurrent transitions on
// the same reservation: whichever caller commits first wins and the loser
// matches zero rows.  It returns (false, nil) when the reservation exists
// but is no longer in the expected status, and ErrReservationNotFound when
// the id does not resolve at all.  Transition legality is validated by the
// workflow before calling.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error) {
	const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// UpdateStatusTx behaves like UpdateStatus within the scope of an existing
// transaction.  The caller must commit or rollback the transaction; the
// cancellation workflow pairs this with the capacity restore so both land
// together or not at all.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.ReservationStatus) (bool, error) {
	const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	var got model.ReservationStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrReservationNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
