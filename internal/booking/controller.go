// Package booking orchestrates the externally visible reservation
// workflows on top of the ledger: book, cancel, edit, approve, reject.
// Structural validation failures surface immediately; ledger conflicts
// are expected, recoverable outcomes that callers answer by re-resolving
// availability.
package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/catalog"
	"facility-reservation-backend/internal/model"
	"facility-reservation-backend/internal/schedule"
	"facility-reservation-backend/internal/store"
)

// Controller applies lifecycle operations with validation and the
// concurrency guarantee delegated to the ledger.
type Controller struct {
	ledger   store.Ledger
	catalog  catalog.Service
	schedule *schedule.Store
	clock    clockwork.Clock
}

// NewController wires the controller's collaborators.
func NewController(ledger store.Ledger, cat catalog.Service, sched *schedule.Store, clock clockwork.Clock) *Controller {
	return &Controller{ledger: ledger, catalog: cat, schedule: sched, clock: clock}
}

// BookRequest carries a booking attempt.
type BookRequest struct {
	RequesterID   int64
	SlotID        int64
	Date          string
	Justification string
}

// CancelRequest carries a cancellation.
type CancelRequest struct {
	ReservationID string
	Actor         store.Actor
	Reason        string
}

// EditRequest moves an existing reservation to a new slot-date.
type EditRequest struct {
	ReservationID    string
	Actor            store.Actor
	NewSlotID        int64
	NewDate          string
	NewJustification string
}

// Book validates the request and performs the atomic check-and-insert.
// A conflict means the slot was taken between resolve and book; the
// caller re-resolves and retries with a different slot.
func (c *Controller) Book(ctx context.Context, req BookRequest) (*model.Reservation, error) {
	justification, err := normalizeReason(req.Justification)
	if err != nil {
		return nil, fmt.Errorf("justification: %w", err)
	}
	if !model.IsStrictlyFuture(req.Date, c.clock.Now()) {
		return nil, fmt.Errorf("date %s is not strictly in the future: %w", req.Date, apperror.ErrValidation)
	}
	if err := c.checkFacilityOpen(ctx, req.SlotID); err != nil {
		return nil, err
	}

	return c.ledger.Create(ctx, store.CreateParams{
		SlotID:        req.SlotID,
		Date:          req.Date,
		RequesterID:   req.RequesterID,
		Justification: justification,
	})
}

// Cancel moves a non-terminal reservation to CANCELLED with a recorded
// reason.
func (c *Controller) Cancel(ctx context.Context, req CancelRequest) (*model.Reservation, error) {
	reason, err := normalizeReason(req.Reason)
	if err != nil {
		return nil, fmt.Errorf("cancel reason: %w", err)
	}
	return c.ledger.Transition(ctx, req.ReservationID, model.StateCancelled, req.Actor, reason)
}

// Edit validates the new slot-date and atomically moves the reservation,
// excluding its own current booking from the conflict check. The
// reservation reverts to PENDING.
func (c *Controller) Edit(ctx context.Context, req EditRequest) (*model.Reservation, error) {
	justification, err := normalizeReason(req.NewJustification)
	if err != nil {
		return nil, fmt.Errorf("justification: %w", err)
	}
	if !model.IsStrictlyFuture(req.NewDate, c.clock.Now()) {
		return nil, fmt.Errorf("date %s is not strictly in the future: %w", req.NewDate, apperror.ErrValidation)
	}

	current, err := c.ledger.Get(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	if req.Actor.Role == store.RoleRequester && req.Actor.ID != current.RequesterID {
		return nil, fmt.Errorf("reservation %s does not belong to requester %d: %w", req.ReservationID, req.Actor.ID, apperror.ErrNotFound)
	}
	if err := c.checkFacilityOpen(ctx, req.NewSlotID); err != nil {
		return nil, err
	}

	return c.ledger.Edit(ctx, req.ReservationID, store.EditParams{
		NewSlotID:        req.NewSlotID,
		NewDate:          req.NewDate,
		NewJustification: justification,
	})
}

// Approve marks a pending reservation APPROVED. Authorizer only.
func (c *Controller) Approve(ctx context.Context, reservationID string, actor store.Actor) (*model.Reservation, error) {
	return c.ledger.Transition(ctx, reservationID, model.StateApproved, actor, "")
}

// Reject marks a pending reservation REJECTED. Authorizer only.
func (c *Controller) Reject(ctx context.Context, reservationID string, actor store.Actor) (*model.Reservation, error) {
	return c.ledger.Transition(ctx, reservationID, model.StateRejected, actor, "")
}

// ListForRequester returns the requester's reservations, newest booking
// date first.
func (c *Controller) ListForRequester(ctx context.Context, requesterID int64) ([]model.Reservation, error) {
	return c.ledger.ListByRequester(ctx, requesterID)
}

// ActiveOnSlotDate returns the active reservation occupying a slot-date,
// or nil when the pair is free.
func (c *Controller) ActiveOnSlotDate(ctx context.Context, slotID int64, date string) (*model.Reservation, error) {
	if _, err := c.schedule.SlotByID(ctx, slotID); err != nil {
		return nil, err
	}
	return c.ledger.ActiveBySlotDate(ctx, slotID, date, "")
}

// checkFacilityOpen rejects bookings against facilities the catalog
// marks unavailable. The facility is derived through the slot.
func (c *Controller) checkFacilityOpen(ctx context.Context, slotID int64) error {
	slot, err := c.schedule.SlotByID(ctx, slotID)
	if err != nil {
		return err
	}
	facility, err := c.catalog.GetFacility(ctx, slot.FacilityID)
	if err != nil {
		return err
	}
	if !facility.Available {
		return fmt.Errorf("facility %d is not open for reservations: %w", facility.ID, apperror.ErrValidation)
	}
	return nil
}

// normalizeReason trims and bounds a justification or cancellation
// reason.
func normalizeReason(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < model.MinReasonLen {
		return "", fmt.Errorf("must have at least %d characters: %w", model.MinReasonLen, apperror.ErrValidation)
	}
	if len(trimmed) > model.MaxReasonLen {
		return "", fmt.Errorf("must have at most %d characters: %w", model.MaxReasonLen, apperror.ErrValidation)
	}
	return trimmed, nil
}
