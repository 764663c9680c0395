// Package catalog exposes facility metadata to the reservation core.
// The core treats it as an external collaborator: it reads only the
// facility id and availability flag, and reports lookup infrastructure
// failures as dependency errors rather than proceeding with a guess.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/model"
)

// Service defines the facility lookups consumed by the core.
type Service interface {
	GetFacility(ctx context.Context, id int64) (*model.Facility, error)
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	CreateFacility(ctx context.Context, facility *model.Facility) error
}

// gormCatalog implements Service against the shared database.
type gormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a database-backed catalog.
func NewGormCatalog(db *gorm.DB) Service {
	return &gormCatalog{db: db}
}

func (c *gormCatalog) GetFacility(ctx context.Context, id int64) (*model.Facility, error) {
	var facility model.Facility
	if err := c.db.WithContext(ctx).First(&facility, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("facility %d: %w", id, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("catalog lookup for facility %d failed: %w", id, apperror.ErrDependency)
	}
	return &facility, nil
}

func (c *gormCatalog) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	if err := c.db.WithContext(ctx).Order("name").Find(&facilities).Error; err != nil {
		return nil, fmt.Errorf("catalog listing failed: %w", apperror.ErrDependency)
	}
	return facilities, nil
}

func (c *gormCatalog) CreateFacility(ctx context.Context, facility *model.Facility) error {
	if facility.Name == "" {
		return fmt.Errorf("facility name is required: %w", apperror.ErrValidation)
	}
	if err := c.db.WithContext(ctx).Create(facility).Error; err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}
	return nil
}
