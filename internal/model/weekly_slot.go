package model

import (
	"fmt"
	"time"
)

// Weekday is a day of the week in the recurring template, stored as its
// uppercase English name.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdayByTime = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf converts a time.Weekday to its template representation.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdayByTime[d]
}

// ValidWeekday reports whether s names one of the seven days.
func ValidWeekday(s string) bool {
	for _, w := range weekdayByTime {
		if string(w) == s {
			return true
		}
	}
	return false
}

// WeeklySlot is a recurring weekly time window attached to a facility.
// Start and end are local wall-clock times ("HH:MM", no timezone).
// A slot is immutable once referenced by a reservation.
type WeeklySlot struct {
	ID         int64   `gorm:"primaryKey" json:"id"`
	FacilityID int64   `gorm:"index;not null" json:"facility_id"`
	Weekday    Weekday `gorm:"size:16;not null" json:"weekday"`
	StartTime  string  `gorm:"size:8;not null" json:"start_time"`
	EndTime    string  `gorm:"size:8;not null" json:"end_time"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`

	// Associations
	Facility Facility `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// parseClockTime parses "HH:MM" into minutes since midnight.
func parseClockTime(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidClockTime reports whether s is a well-formed "HH:MM" time.
func ValidClockTime(s string) bool {
	_, err := parseClockTime(s)
	return err == nil
}

// ValidateTimeRange checks that start and end are well-formed and that
// end is strictly after start.
func ValidateTimeRange(start, end string) error {
	startMin, err := parseClockTime(start)
	if err != nil {
		return err
	}
	endMin, err := parseClockTime(end)
	if err != nil {
		return err
	}
	if endMin <= startMin {
		return fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return nil
}
