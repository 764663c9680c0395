// Package store implements the reservation ledger: the authoritative
// record of reservations and their lifecycle state.
//
// Availability snapshots taken before booking are advisory only. The
// correctness boundary is the single transaction inside Create/Edit,
// which re-checks conflict-freedom at the moment of commit; the partial
// unique index on (weekly_slot_id, date) over active states catches any
// interleaving the in-transaction check races with.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/model"
)

// Actor identifies who is performing a ledger mutation. IDs and roles
// come from the identity collaborator and are trusted as authenticated.
type Actor struct {
	ID   int64
	Role string
}

const (
	RoleRequester  = "requester"
	RoleAuthorizer = "authorizer"
	RoleSystem     = "system"
)

func (a Actor) canAuthorize() bool {
	return a.Role == RoleAuthorizer || a.Role == RoleSystem
}

// CreateParams carries the inputs for a new reservation.
type CreateParams struct {
	SlotID        int64
	Date          string
	RequesterID   int64
	Justification string
}

// EditParams carries the replacement slot-date for an existing
// reservation.
type EditParams struct {
	NewSlotID        int64
	NewDate          string
	NewJustification string
}

// Ledger defines the atomic reservation operations.
type Ledger interface {
	Create(ctx context.Context, p CreateParams) (*model.Reservation, error)
	Transition(ctx context.Context, id string, target model.ReservationState, actor Actor, reason string) (*model.Reservation, error)
	Edit(ctx context.Context, id string, p EditParams) (*model.Reservation, error)
	Get(ctx context.Context, id string) (*model.Reservation, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]model.Reservation, error)
	ActiveBySlotDate(ctx context.Context, slotID int64, date string, excludeID string) (*model.Reservation, error)
	LapsedPendingIDs(ctx context.Context, today string) ([]string, error)
}

// gormLedger implements Ledger using GORM.
type gormLedger struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewGormLedger creates a new GORM-backed ledger.
func NewGormLedger(db *gorm.DB, clock clockwork.Clock) Ledger {
	return &gormLedger{db: db, clock: clock}
}

// Create atomically checks for an active reservation on (slot, date) and
// inserts the new record in PENDING state.
func (l *gormLedger) Create(ctx context.Context, p CreateParams) (*model.Reservation, error) {
	if err := l.validateSlotDate(ctx, p.SlotID, p.Date); err != nil {
		return nil, err
	}

	res := model.Reservation{
		ID:            uuid.NewString(),
		WeeklySlotID:  p.SlotID,
		Date:          p.Date,
		RequesterID:   p.RequesterID,
		Justification: p.Justification,
		State:         model.StatePending,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := activeExists(tx, p.SlotID, p.Date, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("slot %d on %s: %w", p.SlotID, p.Date, apperror.ErrConflict)
		}
		if err := tx.Create(&res).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("slot %d on %s: %w", p.SlotID, p.Date, apperror.ErrConflict)
			}
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Transition applies a state machine move. REJECTED and CANCELLED are
// terminal; cancellations record a reason of at least MinReasonLen
// characters.
func (l *gormLedger) Transition(ctx context.Context, id string, target model.ReservationState, actor Actor, reason string) (*model.Reservation, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown state %q: %w", target, apperror.ErrValidation)
	}
	if target == model.StateCancelled {
		if len(strings.TrimSpace(reason)) < model.MinReasonLen {
			return nil, fmt.Errorf("cancel reason must have at least %d characters: %w", model.MinReasonLen, apperror.ErrValidation)
		}
		if len(reason) > model.MaxReasonLen {
			return nil, fmt.Errorf("cancel reason exceeds %d characters: %w", model.MaxReasonLen, apperror.ErrValidation)
		}
	}

	var res model.Reservation
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fetchReservation(tx, id, &res); err != nil {
			return err
		}
		if err := authorizeTransition(res, target, actor); err != nil {
			return err
		}
		if !res.State.CanTransitionTo(target) {
			return fmt.Errorf("cannot move reservation %s from %s to %s: %w", id, res.State, target, apperror.ErrInvalidTransition)
		}

		updates := map[string]any{"state": target, "updated_at": l.clock.Now()}
		if target == model.StateCancelled {
			updates["cancel_reason"] = strings.TrimSpace(reason)
		}
		// Compare-and-swap on the previous state so two racing
		// transitions cannot both win.
		result := tx.Model(&model.Reservation{}).
			Where("id = ? AND state = ?", id, res.State).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update reservation %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("reservation %s changed concurrently: %w", id, apperror.ErrInvalidTransition)
		}

		res.State = target
		if target == model.StateCancelled {
			res.CancelReason = strings.TrimSpace(reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Edit atomically moves a reservation to a new slot-date, excluding its
// own current booking from the conflict check. The reservation keeps its
// identity and reverts to PENDING.
func (l *gormLedger) Edit(ctx context.Context, id string, p EditParams) (*model.Reservation, error) {
	if err := l.validateSlotDate(ctx, p.NewSlotID, p.NewDate); err != nil {
		return nil, err
	}

	var res model.Reservation
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fetchReservation(tx, id, &res); err != nil {
			return err
		}
		if res.State.Terminal() {
			return fmt.Errorf("reservation %s is %s and cannot be edited: %w", id, res.State, apperror.ErrInvalidTransition)
		}

		taken, err := activeExists(tx, p.NewSlotID, p.NewDate, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("slot %d on %s: %w", p.NewSlotID, p.NewDate, apperror.ErrConflict)
		}

		updates := map[string]any{
			"weekly_slot_id": p.NewSlotID,
			"date":           p.NewDate,
			"justification":  p.NewJustification,
			"state":          model.StatePending,
			"updated_at":     l.clock.Now(),
		}
		result := tx.Model(&model.Reservation{}).
			Where("id = ? AND state = ?", id, res.State).
			Updates(updates)
		if result.Error != nil {
			if isDuplicateKey(result.Error) {
				return fmt.Errorf("slot %d on %s: %w", p.NewSlotID, p.NewDate, apperror.ErrConflict)
			}
			return fmt.Errorf("failed to update reservation %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("reservation %s changed concurrently: %w", id, apperror.ErrConflict)
		}

		res.WeeklySlotID = p.NewSlotID
		res.Date = p.NewDate
		res.Justification = p.NewJustification
		res.State = model.StatePending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Get fetches a reservation by id.
func (l *gormLedger) Get(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	if err := fetchReservation(l.db.WithContext(ctx), id, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByRequester returns the requester's reservations, most recent
// booking date first.
func (l *gormLedger) ListByRequester(ctx context.Context, requesterID int64) ([]model.Reservation, error) {
	var out []model.Reservation
	err := l.db.WithContext(ctx).
		Preload("WeeklySlot").
		Where("requester_id = ?", requesterID).
		Order("date DESC, created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for requester %d: %w", requesterID, err)
	}
	return out, nil
}

// ActiveBySlotDate returns the active reservation occupying (slot, date),
// or nil when the pair is free. A non-empty excludeID lets an in-flight
// edit treat its own current booking as free.
func (l *gormLedger) ActiveBySlotDate(ctx context.Context, slotID int64, date string, excludeID string) (*model.Reservation, error) {
	q := l.db.WithContext(ctx).
		Where("weekly_slot_id = ? AND date = ? AND state IN ?", slotID, date, model.ActiveStates())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var res model.Reservation
	err := q.First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query slot %d on %s: %w", slotID, date, err)
	}
	return &res, nil
}

// LapsedPendingIDs lists PENDING reservations whose date has fully
// passed, i.e. strictly before today. Feed for the expiry sweeper.
func (l *gormLedger) LapsedPendingIDs(ctx context.Context, today string) ([]string, error) {
	var ids []string
	err := l.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("state = ? AND date < ?", model.StatePending, today).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed pending reservations: %w", err)
	}
	return ids, nil
}

// validateSlotDate checks the structural invariants shared by Create and
// Edit: the slot exists, the date is well-formed and strictly future,
// and the date's weekday matches the slot's weekday.
func (l *gormLedger) validateSlotDate(ctx context.Context, slotID int64, date string) error {
	weekday, err := model.DateWeekday(date)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperror.ErrValidation)
	}
	if !model.IsStrictlyFuture(date, l.clock.Now()) {
		return fmt.Errorf("date %s is not strictly in the future: %w", date, apperror.ErrValidation)
	}

	var slot model.WeeklySlot
	if err := l.db.WithContext(ctx).First(&slot, slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("weekly slot %d: %w", slotID, apperror.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch weekly slot %d: %w", slotID, err)
	}
	if slot.Weekday != weekday {
		return fmt.Errorf("date %s falls on %s but slot %d recurs on %s: %w", date, weekday, slotID, slot.Weekday, apperror.ErrValidation)
	}
	return nil
}

func authorizeTransition(res model.Reservation, target model.ReservationState, actor Actor) error {
	switch target {
	case model.StateApproved, model.StateRejected:
		if !actor.canAuthorize() {
			return fmt.Errorf("role %q may not set state %s: %w", actor.Role, target, apperror.ErrInvalidTransition)
		}
	case model.StateCancelled:
		if !actor.canAuthorize() && !(actor.Role == RoleRequester && actor.ID == res.RequesterID) {
			return fmt.Errorf("actor %d may not cancel reservation %s: %w", actor.ID, res.ID, apperror.ErrInvalidTransition)
		}
	default:
		return fmt.Errorf("state %s is not a transition target: %w", target, apperror.ErrInvalidTransition)
	}
	return nil
}

func fetchReservation(tx *gorm.DB, id string, out *model.Reservation) error {
	if err := tx.First(out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("reservation %s: %w", id, apperror.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch reservation %s: %w", id, err)
	}
	return nil
}

func activeExists(tx *gorm.DB, slotID int64, date string, excludeID string) (bool, error) {
	q := tx.Model(&model.Reservation{}).
		Where("weekly_slot_id = ? AND date = ? AND state IN ?", slotID, date, model.ActiveStates())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slot %d on %s: %w", slotID, date, err)
	}
	return count > 0, nil
}

// isDuplicateKey recognizes unique index violations across the postgres
// and sqlite drivers.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
