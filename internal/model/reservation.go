package model

import "time"

// Justification length bounds, shared by booking and cancellation
// reasons.
const (
	MinReasonLen = 5
	MaxReasonLen = 300
)

// Reservation is a request to occupy a specific WeeklySlot on a specific
// calendar date. The facility is derived through the slot.
//
// The partial unique index on (weekly_slot_id, date) restricted to
// active states is created in internal/db; it is the mechanism that
// keeps at most one PENDING/APPROVED reservation per slot-date under
// concurrent writes.
type Reservation struct {
	ID            string           `gorm:"primaryKey;size:36" json:"id"`
	WeeklySlotID  int64            `gorm:"index;not null" json:"weekly_slot_id"`
	Date          string           `gorm:"size:10;not null;index" json:"date"`
	RequesterID   int64            `gorm:"index;not null" json:"requester_id"`
	Justification string           `gorm:"size:300;not null" json:"justification"`
	State         ReservationState `gorm:"size:16;not null" json:"state"`
	CancelReason  string           `gorm:"size:300" json:"cancel_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// Associations
	WeeklySlot WeeklySlot `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
