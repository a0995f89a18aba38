package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/harvest-reservation/internal/model"
	"github.com/iliyamo/harvest-reservation/internal/queue"
	"github.com/iliyamo/harvest-reservation/internal/repository"
)

// Validation errors surfaced by SubmitReservation, in the order the checks
// run.  The first failing check wins and nothing is mutated before every
// check has passed.
var (
	ErrMissingDate         = errors.New("reservation date is missing or not a valid calendar date")
	ErrMissingTime         = errors.New("reservation time must be one of the offered time slots")
	ErrDateUnavailable     = errors.New("selected date is not open for booking")
	ErrInvalidParticipants = errors.New("number of participants must be a positive integer")
	ErrCapacityExceeded    = errors.New("not enough remaining capacity for the selected date")
)

// maxDecrementAttempts bounds how often a submission retries after losing
// the compare-and-decrement race before surfacing ErrConflict.
const maxDecrementAttempts = 3

// SubmitReservationRequest carries one booking attempt into the workflow.
// UserID is the verified identity-provider subject when the caller was
// authenticated and nil for guest bookings; handlers are responsible for
// passing only verified identities here.
type SubmitReservationRequest struct {
	HarvestID       uint64
	UserID          *string
	UserName        string
	UserEmail       string
	ReservationDate string
	ReservationTime string
	Participants    int
}

// ReservationCounts summarizes a requester's active reservations.
type ReservationCounts struct {
	Confirmed int64 `json:"confirmed"`
	Pending   int64 `json:"pending"`
}

// ReservationStore is the persistence contract the workflow drives.
// *repository.ReservationRepo satisfies it; tests substitute in-memory
// fakes.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	CountsByUser(ctx context.Context, userID string) (confirmed, pending int64, err error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.ReservationStatus) (bool, error)
}

// TxBeginner opens database transactions for operations that must mutate
// more than one table atomically.  *sql.DB satisfies it; in-memory test
// stores run without one.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// EventPublisher pushes reservation lifecycle events to the message
// broker.  A nil publisher disables messaging; the workflow never fails a
// request because an event could not be delivered.
type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
	PublishReservationStatus(ctx context.Context, ev queue.ReservationStatusEvent) error
}

// Workflow is the booking core consumed by handlers.
type Workflow interface {
	SubmitReservation(ctx context.Context, req SubmitReservationRequest) (*model.Reservation, error)
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	CountsByUser(ctx context.Context, userID string) (ReservationCounts, error)
	ChangeStatus(ctx context.Context, id uint64, to model.ReservationStatus) (*model.Reservation, error)
}

// ReservationService validates and creates reservations and drives their
// status lifecycle.  All entry points (customer, guest, admin) go through
// this one type so the rules cannot drift between surfaces.
type ReservationService struct {
	db           TxBeginner
	harvests     HarvestStore
	reservations ReservationStore
	events       EventPublisher
	availability *AvailabilityEvaluator
	now          func() time.Time
}

// NewReservationService constructs the workflow.  db may be nil when the
// stores are not SQL-backed (cancellation then falls back to status
// compensation instead of a transaction); events may be nil to run without
// a broker.
func NewReservationService(db TxBeginner, harvests HarvestStore, reservations ReservationStore, events EventPublisher) *ReservationService {
	s := &ReservationService{
		db:           db,
		harvests:     harvests,
		reservations: reservations,
		events:       events,
		now:          time.Now,
	}
	s.availability = &AvailabilityEvaluator{harvests: harvests, now: func() time.Time { return s.now() }}
	return s
}

// Availability exposes the evaluator sharing this service's clock, for
// handlers that answer availability queries directly.
func (s *ReservationService) Availability() *AvailabilityEvaluator { return s.availability }

// SubmitReservation validates a booking attempt and, when every check
// passes, atomically decrements the slot's remaining capacity and creates
// a Pending reservation.  Checks run in a fixed order and the first
// failure wins: harvest exists, date present and parseable, time token
// valid, date bookable, participants positive and within remaining
// capacity.  A decrement that loses the race against a concurrent
// submission is retried with fresh state up to maxDecrementAttempts times
// before ErrConflict is returned.
func (s *ReservationService) SubmitReservation(ctx context.Context, req SubmitReservationRequest) (*model.Reservation, error) {
	// 1. Listing must resolve.
	harvest, err := s.harvests.GetByID(ctx, req.HarvestID)
	if err != nil {
		return nil, err
	}

	// 2. Date must be present and a real calendar date.
	if req.ReservationDate == "" {
		return nil, ErrMissingDate
	}
	if _, err := time.Parse(dateLayout, req.ReservationDate); err != nil {
		return nil, ErrMissingDate
	}

	// 3. Time token must come from the offered set.
	if !ValidTimeSlot(req.ReservationTime) {
		return nil, ErrMissingTime
	}

	// 4. The date must be bookable at all.
	bookable, err := s.availability.IsBookable(ctx, req.HarvestID, req.ReservationDate)
	if err != nil {
		return nil, err
	}
	if !bookable {
		return nil, ErrDateUnavailable
	}

	// 5. Participants must be positive and fit the slot counter's range.
	// The range check runs before the uint32 conversion so an oversized
	// value cannot wrap into a small one.
	if req.Participants <= 0 || int64(req.Participants) > int64(math.MaxUint32) {
		return nil, ErrInvalidParticipants
	}
	amount := uint32(req.Participants)

	for attempt := 0; attempt < maxDecrementAttempts; attempt++ {
		slot, err := s.harvests.GetSlot(ctx, req.HarvestID, req.ReservationDate)
		if err != nil {
			if errors.Is(err, repository.ErrSlotNotFound) {
				return nil, ErrDateUnavailable
			}
			return nil, err
		}
		if amount > slot.Remaining {
			return nil, ErrCapacityExceeded
		}

		// Compare-and-decrement guarded by the value just read.  Losing
		// the guard means another submission moved the counter; re-read
		// and try again.
		applied, err := s.harvests.DecrementRemaining(ctx, req.HarvestID, req.ReservationDate, slot.Remaining, amount)
		if err != nil {
			return nil, err
		}
		if !applied {
			continue
		}

		res := &model.Reservation{
			Reference:       uuid.NewString(),
			HarvestID:       req.HarvestID,
			UserID:          req.UserID,
			UserName:        req.UserName,
			UserEmail:       req.UserEmail,
			ReservationDate: req.ReservationDate,
			ReservationTime: req.ReservationTime,
			Participants:    amount,
			Status:          model.StatusPending,
		}
		if err := s.reservations.Create(ctx, res); err != nil {
			// The capacity was already taken; hand it back so a failed
			// insert cannot leak slots.
			if restoreErr := s.harvests.RestoreRemaining(ctx, req.HarvestID, req.ReservationDate, amount); restoreErr != nil {
				log.Printf("reservation: restore after failed create: %v", restoreErr)
			}
			return nil, err
		}

		s.publishCreated(ctx, harvest, res)
		return res, nil
	}
	return nil, repository.ErrConflict
}

// GetReservation returns a single reservation by id.
func (s *ReservationService) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// ListByUser returns the reservations created under the given identity,
// newest first.
func (s *ReservationService) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID)
}

// ListAll returns every reservation, newest first.  Intended for the
// administrative overview.
func (s *ReservationService) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return s.reservations.ListAll(ctx)
}

// CountsByUser reports how many of the identity's reservations are
// Confirmed and Pending.
func (s *ReservationService) CountsByUser(ctx context.Context, userID string) (ReservationCounts, error) {
	confirmed, pending, err := s.reservations.CountsByUser(ctx, userID)
	if err != nil {
		return ReservationCounts{}, err
	}
	return ReservationCounts{Confirmed: confirmed, Pending: pending}, nil
}

// ChangeStatus applies one transition of the reservation state machine:
// Pending may become Confirmed or Cancelled, Confirmed may become
// Cancelled, and nothing leaves Cancelled.  Cancelling restores the
// reservation's participants to the slot it was booked against, clamped to
// the slot ceiling, in the same transaction as the status change.
// Confirmation changes no capacity.
func (s *ReservationService) ChangeStatus(ctx context.Context, id uint64, to model.ReservationStatus) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(res.Status, to) {
		return nil, repository.ErrInvalidTransition
	}

	if to == model.StatusCancelled {
		if err := s.cancelWithRestore(ctx, res); err != nil {
			return nil, err
		}
	} else {
		applied, err := s.reservations.UpdateStatus(ctx, id, res.Status, to)
		if err != nil {
			return nil, err
		}
		if !applied {
			// A concurrent transition won the guarded update.
			return nil, repository.ErrConflict
		}
	}

	from := res.Status
	res.Status = to
	s.publishStatus(ctx, res, from)
	return res, nil
}

// cancelWithRestore moves the reservation to Cancelled and hands its
// participants back to the slot it was booked against.  With SQL-backed
// stores both statements run in one transaction, so a failed restore also
// rolls back the status change.  Without a TxBeginner the status change is
// reverted by hand when the restore fails, so capacity cannot leak either
// way.
func (s *ReservationService) cancelWithRestore(ctx context.Context, res *model.Reservation) error {
	if s.db != nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		applied, err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, res.Status, model.StatusCancelled)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if !applied {
			_ = tx.Rollback()
			return repository.ErrConflict
		}
		if err := s.harvests.RestoreRemainingTx(ctx, tx, res.HarvestID, res.ReservationDate, res.Participants); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("restore capacity after cancellation: %w", err)
		}
		return tx.Commit()
	}

	applied, err := s.reservations.UpdateStatus(ctx, res.ID, res.Status, model.StatusCancelled)
	if err != nil {
		return err
	}
	if !applied {
		return repository.ErrConflict
	}
	if err := s.harvests.RestoreRemaining(ctx, res.HarvestID, res.ReservationDate, res.Participants); err != nil {
		if _, revertErr := s.reservations.UpdateStatus(ctx, res.ID, model.StatusCancelled, res.Status); revertErr != nil {
			log.Printf("reservation: revert cancellation of %d after failed restore: %v", res.ID, revertErr)
		}
		return fmt.Errorf("restore capacity after cancellation: %w", err)
	}
	return nil
}

// transitionAllowed encodes the reservation state machine.
func transitionAllowed(from, to model.ReservationStatus) bool {
	switch from {
	case model.StatusPending:
		return to == model.StatusConfirmed || to == model.StatusCancelled
	case model.StatusConfirmed:
		return to == model.StatusCancelled
	default:
		return false
	}
}

func (s *ReservationService) publishCreated(ctx context.Context, harvest *model.Harvest, res *model.Reservation) {
	if s.events == nil {
		return
	}
	userID := ""
	if res.UserID != nil {
		userID = *res.UserID
	}
	ev := queue.ReservationCreatedEvent{
		ReservationID:   res.ID,
		Reference:       res.Reference,
		HarvestID:       harvest.ID,
		HarvestName:     harvest.Name,
		UserID:          userID,
		UserName:        res.UserName,
		UserEmail:       res.UserEmail,
		ReservationDate: res.ReservationDate,
		ReservationTime: res.ReservationTime,
		Participants:    res.Participants,
		CreatedAt:       s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishReservationCreated(ctx, ev); err != nil {
		log.Printf("reservation: publish created event: %v", err)
	}
}

func (s *ReservationService) publishStatus(ctx context.Context, res *model.Reservation, from model.ReservationStatus) {
	if s.events == nil {
		return
	}
	ev := queue.ReservationStatusEvent{
		ReservationID: res.ID,
		Reference:     res.Reference,
		HarvestID:     res.HarvestID,
		OldStatus:     string(from),
		NewStatus:     string(res.Status),
		Participants:  res.Participants,
		ChangedAt:     s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishReservationStatus(ctx, ev); err != nil {
		log.Printf("reservation: publish status event: %v", err)
	}
}
