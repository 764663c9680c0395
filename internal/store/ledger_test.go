package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/db"
	"facility-reservation-backend/internal/model"
)

// testNow is a Monday; nextMonday is the first bookable occurrence of a
// MONDAY slot relative to it.
var (
	testNow    = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	nextMonday = "2026-03-09"
)

// newTestDB opens a per-test in-memory sqlite database with the full
// schema, including the partial unique index.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// Serialize writers; sqlite does not tolerate concurrent write
	// transactions on separate connections.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// seedFacilityWithSlot creates one facility with a single Monday
// 08:00-09:00 slot and returns the slot id.
func seedFacilityWithSlot(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()

	facility := model.Facility{Name: "Court A", Type: "sports_court", SiteID: 1, Available: true}
	require.NoError(t, gdb.Create(&facility).Error)

	slot := model.WeeklySlot{FacilityID: facility.ID, Weekday: model.Monday, StartTime: "08:00", EndTime: "09:00"}
	require.NoError(t, gdb.Create(&slot).Error)
	return slot.ID
}

func newTestLedger(t *testing.T) (Ledger, *gorm.DB, int64) {
	gdb := newTestDB(t)
	slotID := seedFacilityWithSlot(t, gdb)
	return NewGormLedger(gdb, clockwork.NewFakeClockAt(testNow)), gdb, slotID
}

func TestLedgerCreate(t *testing.T) {
	ledger, _, slotID := newTestLedger(t)
	ctx := context.Background()

	t.Run("creates a pending reservation", func(t *testing.T) {
		res, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: nextMonday, RequesterID: 7, Justification: "team meeting",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, model.StatePending, res.State)
		assert.Equal(t, nextMonday, res.Date)
	})

	t.Run("second booking on the same slot-date conflicts", func(t *testing.T) {
		_, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: nextMonday, RequesterID: 8, Justification: "study group",
		})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("other dates of the same slot stay bookable", func(t *testing.T) {
		_, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: "2026-03-16", RequesterID: 8, Justification: "study group",
		})
		assert.NoError(t, err)
	})

	t.Run("rejects same-day booking", func(t *testing.T) {
		_, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: "2026-03-02", RequesterID: 7, Justification: "team meeting",
		})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("rejects weekday mismatch", func(t *testing.T) {
		// 2026-03-10 is a Tuesday, the slot recurs on Monday.
		_, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: "2026-03-10", RequesterID: 7, Justification: "team meeting",
		})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		_, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: "09/03/2026", RequesterID: 7, Justification: "team meeting",
		})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("rejects unknown slot", func(t *testing.T) {
		_, err := ledger.Create(ctx, CreateParams{
			SlotID: 9999, Date: nextMonday, RequesterID: 7, Justification: "team meeting",
		})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestLedgerCreateConcurrent(t *testing.T) {
	ledger, _, slotID := newTestLedger(t)
	ctx := context.Background()

	// Two requesters race for the same slot-date: exactly one success
	// and one conflict, never two active reservations.
	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Create(ctx, CreateParams{
				SlotID: slotID, Date: nextMonday, RequesterID: int64(100 + i), Justification: "race attempt",
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	active, err := ledger.ActiveBySlotDate(ctx, slotID, nextMonday, "")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, model.StatePending, active.State)
}

func TestLedgerTransition(t *testing.T) {
	ledger, _, slotID := newTestLedger(t)
	ctx := context.Background()
	authorizer := Actor{ID: 1, Role: RoleAuthorizer}

	book := func(t *testing.T, date string, requester int64) *model.Reservation {
		t.Helper()
		res, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: date, RequesterID: requester, Justification: "weekly practice",
		})
		require.NoError(t, err)
		return res
	}

	t.Run("approve then cancel", func(t *testing.T) {
		res := book(t, "2026-03-09", 7)

		approved, err := ledger.Transition(ctx, res.ID, model.StateApproved, authorizer, "")
		require.NoError(t, err)
		assert.Equal(t, model.StateApproved, approved.State)

		cancelled, err := ledger.Transition(ctx, res.ID, model.StateCancelled, authorizer, "double booked room")
		require.NoError(t, err)
		assert.Equal(t, model.StateCancelled, cancelled.State)
		assert.Equal(t, "double booked room", cancelled.CancelReason)
	})

	t.Run("requester may cancel own reservation", func(t *testing.T) {
		res := book(t, "2026-03-16", 7)
		_, err := ledger.Transition(ctx, res.ID, model.StateCancelled, Actor{ID: 7, Role: RoleRequester}, "plans changed")
		assert.NoError(t, err)
	})

	t.Run("requester may not cancel someone else's reservation", func(t *testing.T) {
		res := book(t, "2026-03-23", 7)
		_, err := ledger.Transition(ctx, res.ID, model.StateCancelled, Actor{ID: 8, Role: RoleRequester}, "plans changed")
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})

	t.Run("requester may not approve", func(t *testing.T) {
		res := book(t, "2026-03-30", 7)
		_, err := ledger.Transition(ctx, res.ID, model.StateApproved, Actor{ID: 7, Role: RoleRequester}, "")
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})

	t.Run("terminal states admit no transitions", func(t *testing.T) {
		res := book(t, "2026-04-06", 7)
		_, err := ledger.Transition(ctx, res.ID, model.StateRejected, authorizer, "")
		require.NoError(t, err)

		for _, target := range []model.ReservationState{model.StatePending, model.StateApproved, model.StateCancelled} {
			_, err := ledger.Transition(ctx, res.ID, target, authorizer, "should not matter")
			assert.ErrorIs(t, err, apperror.ErrInvalidTransition, "REJECTED -> %s must fail", target)
		}
	})

	t.Run("cancel requires a reason of at least five characters", func(t *testing.T) {
		res := book(t, "2026-04-13", 7)
		_, err := ledger.Transition(ctx, res.ID, model.StateCancelled, authorizer, "no")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("cancelling frees the slot-date", func(t *testing.T) {
		res := book(t, "2026-04-20", 7)
		_, err := ledger.Transition(ctx, res.ID, model.StateCancelled, authorizer, "plans changed")
		require.NoError(t, err)

		free, err := ledger.ActiveBySlotDate(ctx, slotID, "2026-04-20", "")
		require.NoError(t, err)
		assert.Nil(t, free)

		// The pair is bookable again.
		_, err = ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: "2026-04-20", RequesterID: 8, Justification: "second chance",
		})
		assert.NoError(t, err)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		_, err := ledger.Transition(ctx, "missing-id", model.StateApproved, authorizer, "")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestLedgerEdit(t *testing.T) {
	ledger, gdb, slotID := newTestLedger(t)
	ctx := context.Background()
	authorizer := Actor{ID: 1, Role: RoleAuthorizer}

	// A second Monday slot on the same facility to move bookings onto.
	var first model.WeeklySlot
	require.NoError(t, gdb.First(&first, slotID).Error)
	second := model.WeeklySlot{FacilityID: first.FacilityID, Weekday: model.Monday, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, gdb.Create(&second).Error)

	res, err := ledger.Create(ctx, CreateParams{
		SlotID: slotID, Date: nextMonday, RequesterID: 7, Justification: "team meeting",
	})
	require.NoError(t, err)

	t.Run("edit onto own current slot-date succeeds", func(t *testing.T) {
		updated, err := ledger.Edit(ctx, res.ID, EditParams{
			NewSlotID: slotID, NewDate: nextMonday, NewJustification: "team meeting, updated agenda",
		})
		require.NoError(t, err)
		assert.Equal(t, slotID, updated.WeeklySlotID)
		assert.Equal(t, "team meeting, updated agenda", updated.Justification)
		assert.Equal(t, model.StatePending, updated.State)
	})

	t.Run("edit moves to a free slot-date", func(t *testing.T) {
		updated, err := ledger.Edit(ctx, res.ID, EditParams{
			NewSlotID: second.ID, NewDate: "2026-03-16", NewJustification: "team meeting",
		})
		require.NoError(t, err)
		assert.Equal(t, second.ID, updated.WeeklySlotID)
		assert.Equal(t, "2026-03-16", updated.Date)

		// The old pair is free again.
		freed, err := ledger.ActiveBySlotDate(ctx, slotID, nextMonday, "")
		require.NoError(t, err)
		assert.Nil(t, freed)
	})

	t.Run("edit onto an actively booked pair conflicts", func(t *testing.T) {
		other, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: nextMonday, RequesterID: 8, Justification: "study group",
		})
		require.NoError(t, err)

		_, err = ledger.Edit(ctx, res.ID, EditParams{
			NewSlotID: slotID, NewDate: nextMonday, NewJustification: "team meeting",
		})
		assert.ErrorIs(t, err, apperror.ErrConflict)

		// Clean up the blocker for later subtests.
		_, err = ledger.Transition(ctx, other.ID, model.StateCancelled, authorizer, "cleanup slot")
		require.NoError(t, err)
	})

	t.Run("edit resets an approved reservation to pending", func(t *testing.T) {
		_, err := ledger.Transition(ctx, res.ID, model.StateApproved, authorizer, "")
		require.NoError(t, err)

		updated, err := ledger.Edit(ctx, res.ID, EditParams{
			NewSlotID: slotID, NewDate: nextMonday, NewJustification: "moved back to the early slot",
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatePending, updated.State)
	})

	t.Run("edit rejects a non-future date", func(t *testing.T) {
		_, err := ledger.Edit(ctx, res.ID, EditParams{
			NewSlotID: slotID, NewDate: "2026-03-02", NewJustification: "team meeting",
		})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("terminal reservations cannot be edited", func(t *testing.T) {
		_, err := ledger.Transition(ctx, res.ID, model.StateCancelled, authorizer, "wrapping up test")
		require.NoError(t, err)

		_, err = ledger.Edit(ctx, res.ID, EditParams{
			NewSlotID: slotID, NewDate: "2026-03-23", NewJustification: "team meeting",
		})
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})
}

func TestLedgerListByRequester(t *testing.T) {
	ledger, _, slotID := newTestLedger(t)
	ctx := context.Background()

	dates := []string{"2026-03-09", "2026-03-23", "2026-03-16"}
	for _, d := range dates {
		_, err := ledger.Create(ctx, CreateParams{
			SlotID: slotID, Date: d, RequesterID: 7, Justification: "weekly practice",
		})
		require.NoError(t, err)
	}
	_, err := ledger.Create(ctx, CreateParams{
		SlotID: slotID, Date: "2026-03-30", RequesterID: 8, Justification: "someone else's booking",
	})
	require.NoError(t, err)

	list, err := ledger.ListByRequester(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2026-03-23", list[0].Date)
	assert.Equal(t, "2026-03-16", list[1].Date)
	assert.Equal(t, "2026-03-09", list[2].Date)
	for _, r := range list {
		assert.Equal(t, int64(7), r.RequesterID)
		assert.Equal(t, slotID, r.WeeklySlot.ID, "slot association should be preloaded")
	}
}

func TestLedgerActiveBySlotDateExclusion(t *testing.T) {
	ledger, _, slotID := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.Create(ctx, CreateParams{
		SlotID: slotID, Date: nextMonday, RequesterID: 7, Justification: "team meeting",
	})
	require.NoError(t, err)

	occupied, err := ledger.ActiveBySlotDate(ctx, slotID, nextMonday, "")
	require.NoError(t, err)
	require.NotNil(t, occupied)
	assert.Equal(t, res.ID, occupied.ID)

	// Excluding the reservation itself reports the pair as free.
	excluded, err := ledger.ActiveBySlotDate(ctx, slotID, nextMonday, res.ID)
	require.NoError(t, err)
	assert.Nil(t, excluded)
}

func TestLedgerLapsedPendingIDs(t *testing.T) {
	ledger, gdb, slotID := newTestLedger(t)
	ctx := context.Background()

	// Past-dated rows cannot be created through the ledger; insert them
	// directly, as leftovers of an earlier week.
	lapsed := model.Reservation{
		ID: "lapsed-1", WeeklySlotID: slotID, Date: "2026-02-23",
		RequesterID: 7, Justification: "never decided", State: model.StatePending,
	}
	require.NoError(t, gdb.Create(&lapsed).Error)

	decided := model.Reservation{
		ID: "decided-1", WeeklySlotID: slotID, Date: "2026-02-16",
		RequesterID: 7, Justification: "was approved in time", State: model.StateApproved,
	}
	require.NoError(t, gdb.Create(&decided).Error)

	_, err := ledger.Create(ctx, CreateParams{
		SlotID: slotID, Date: nextMonday, RequesterID: 7, Justification: "still upcoming",
	})
	require.NoError(t, err)

	ids, err := ledger.LapsedPendingIDs(ctx, testNow.Format(model.DateLayout))
	require.NoError(t, err)
	assert.Equal(t, []string{"lapsed-1"}, ids)
}
