// Package schedule holds the recurring weekly template: the set of
// bookable time windows each facility repeats every week. Read-mostly
// reference data; administrators maintain it, the reservation core only
// expands it per date.
package schedule

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/model"
)

// Store reads and maintains weekly slot templates.
type Store struct {
	db *gorm.DB
}

// NewStore creates a template store on top of the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SlotsForFacility returns the facility's full weekly template, ordered
// by weekday and start time. A facility without any template rows is
// reported as not found.
func (s *Store) SlotsForFacility(ctx context.Context, facilityID int64) ([]model.WeeklySlot, error) {
	var slots []model.WeeklySlot
	err := s.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("weekday, start_time").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load template for facility %d: %w", facilityID, err)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("facility %d has no weekly template: %w", facilityID, apperror.ErrNotFound)
	}
	return slots, nil
}

// SlotsForFacilityAndWeekday filters the template down to one weekday.
// An empty result is valid: the facility simply has no slots that day.
func (s *Store) SlotsForFacilityAndWeekday(ctx context.Context, facilityID int64, weekday model.Weekday) ([]model.WeeklySlot, error) {
	all, err := s.SlotsForFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	var slots []model.WeeklySlot
	for _, slot := range all {
		if slot.Weekday == weekday {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// SlotByID fetches a single template slot.
func (s *Store) SlotByID(ctx context.Context, id int64) (*model.WeeklySlot, error) {
	var slot model.WeeklySlot
	if err := s.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("weekly slot %d: %w", id, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch weekly slot %d: %w", id, err)
	}
	return &slot, nil
}

// CreateSlot adds a template slot for a facility. Administrative
// operation; validates the weekday and that end is after start.
func (s *Store) CreateSlot(ctx context.Context, slot *model.WeeklySlot) error {
	if !model.ValidWeekday(string(slot.Weekday)) {
		return fmt.Errorf("invalid weekday %q: %w", slot.Weekday, apperror.ErrValidation)
	}
	if err := model.ValidateTimeRange(slot.StartTime, slot.EndTime); err != nil {
		return fmt.Errorf("%v: %w", err, apperror.ErrValidation)
	}

	var facility model.Facility
	if err := s.db.WithContext(ctx).First(&facility, slot.FacilityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("facility %d: %w", slot.FacilityID, apperror.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch facility %d: %w", slot.FacilityID, err)
	}

	if err := s.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create weekly slot: %w", err)
	}
	return nil
}
