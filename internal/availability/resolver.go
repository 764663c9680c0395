// Package availability expands a facility's weekly template for a
// concrete date and classifies each slot as free or taken. The result is
// a snapshot used to populate booking choices; the ledger re-validates
// conflict-freedom at commit time, so a stale snapshot can never cause a
// double booking.
package availability

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/catalog"
	"facility-reservation-backend/internal/model"
	"facility-reservation-backend/internal/schedule"
	"facility-reservation-backend/internal/store"
)

// SlotStatus classifies one template slot on one date.
type SlotStatus string

const (
	StatusFree  SlotStatus = "FREE"
	StatusTaken SlotStatus = "TAKEN"
)

// SlotAvailability pairs a template slot with its status on the
// requested date.
type SlotAvailability struct {
	Slot   model.WeeklySlot `json:"slot"`
	Status SlotStatus       `json:"status"`
}

// Resolver computes per-date availability from the weekly template and
// the reservation ledger.
type Resolver struct {
	catalog  catalog.Service
	schedule *schedule.Store
	ledger   store.Ledger
	clock    clockwork.Clock
}

// NewResolver wires the resolver's collaborators.
func NewResolver(cat catalog.Service, sched *schedule.Store, ledger store.Ledger, clock clockwork.Clock) *Resolver {
	return &Resolver{catalog: cat, schedule: sched, ledger: ledger, clock: clock}
}

// Resolve returns every slot of the facility's template whose weekday
// matches the date, each marked FREE or TAKEN. A non-empty
// excludeReservationID lets an in-progress edit see its own current
// booking as free. Zero slots on that weekday is a valid, empty result.
//
// The per-slot ledger checks are pure reads with no ordering
// requirement, so they run concurrently.
func (r *Resolver) Resolve(ctx context.Context, facilityID int64, date string, excludeReservationID string) ([]SlotAvailability, error) {
	weekday, err := model.DateWeekday(date)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperror.ErrValidation)
	}
	if !model.IsStrictlyFuture(date, r.clock.Now()) {
		return nil, fmt.Errorf("date %s is not strictly in the future: %w", date, apperror.ErrValidation)
	}

	facility, err := r.catalog.GetFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if !facility.Available {
		return nil, fmt.Errorf("facility %d is not open for reservations: %w", facilityID, apperror.ErrValidation)
	}

	slots, err := r.schedule.SlotsForFacilityAndWeekday(ctx, facilityID, weekday)
	if err != nil {
		return nil, err
	}

	out := make([]SlotAvailability, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	for i, slot := range slots {
		i, slot := i, slot
		g.Go(func() error {
			active, err := r.ledger.ActiveBySlotDate(gctx, slot.ID, date, excludeReservationID)
			if err != nil {
				return err
			}
			status := StatusFree
			if active != nil {
				status = StatusTaken
			}
			out[i] = SlotAvailability{Slot: slot, Status: status}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FreeSlots filters a resolved set down to the bookable slots.
func FreeSlots(resolved []SlotAvailability) []model.WeeklySlot {
	var free []model.WeeklySlot
	for _, sa := range resolved {
		if sa.Status == StatusFree {
			free = append(free, sa.Slot)
		}
	}
	return free
}
