package model

// ReservationState is the lifecycle state of a reservation.
type ReservationState string

const (
	StatePending   ReservationState = "PENDING"
	StateApproved  ReservationState = "APPROVED"
	StateRejected  ReservationState = "REJECTED"
	StateCancelled ReservationState = "CANCELLED"
)

// transitions is the explicit state machine. Absent keys and absent
// targets are illegal moves; REJECTED and CANCELLED have no exits.
var transitions = map[ReservationState][]ReservationState{
	StatePending:  {StateApproved, StateRejected, StateCancelled},
	StateApproved: {StateCancelled},
}

// Valid reports whether s is one of the four lifecycle states.
func (s ReservationState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateCancelled:
		return true
	}
	return false
}

// Active reports whether s blocks re-booking of the same slot-date.
func (s ReservationState) Active() bool {
	return s == StatePending || s == StateApproved
}

// Terminal reports whether s admits no further transitions.
func (s ReservationState) Terminal() bool {
	return s == StateRejected || s == StateCancelled
}

// CanTransitionTo reports whether the state machine permits moving from
// s to target.
func (s ReservationState) CanTransitionTo(target ReservationState) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ActiveStates lists the states that occupy a slot-date, in the order
// used by ledger queries.
func ActiveStates() []ReservationState {
	return []ReservationState{StatePending, StateApproved}
}
