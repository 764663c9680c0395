package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	testCases := []struct {
		name    string
		from    ReservationState
		to      ReservationState
		allowed bool
	}{
		{"pending can be approved", StatePending, StateApproved, true},
		{"pending can be rejected", StatePending, StateRejected, true},
		{"pending can be cancelled", StatePending, StateCancelled, true},
		{"approved can be cancelled", StateApproved, StateCancelled, true},
		{"approved cannot be rejected", StateApproved, StateRejected, false},
		{"approved cannot go back to pending", StateApproved, StatePending, false},
		{"rejected is terminal", StateRejected, StateCancelled, false},
		{"rejected cannot be approved", StateRejected, StateApproved, false},
		{"cancelled is terminal", StateCancelled, StatePending, false},
		{"cancelled cannot be approved", StateCancelled, StateApproved, false},
		{"no self transition", StatePending, StatePending, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestStateClassification(t *testing.T) {
	assert.True(t, StatePending.Active())
	assert.True(t, StateApproved.Active())
	assert.False(t, StateRejected.Active())
	assert.False(t, StateCancelled.Active())

	assert.False(t, StatePending.Terminal())
	assert.False(t, StateApproved.Terminal())
	assert.True(t, StateRejected.Terminal())
	assert.True(t, StateCancelled.Terminal())

	assert.ElementsMatch(t, []ReservationState{StatePending, StateApproved}, ActiveStates())
}

func TestStateValid(t *testing.T) {
	assert.True(t, StatePending.Valid())
	assert.True(t, StateCancelled.Valid())
	assert.False(t, ReservationState("EXPIRED").Valid())
	assert.False(t, ReservationState("").Valid())
}
