package catalog

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGetFacility(t *testing.T) {
	t.Run("returns the facility", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		c := NewGormCatalog(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "facilities" WHERE "facilities"."id" = $1`)).
			WithArgs(int64(5), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "site_id", "available", "created_at", "updated_at"}).
				AddRow(5, "Court A", "sports_court", 1, true, time.Now(), time.Now()))

		facility, err := c.GetFacility(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), facility.ID)
		assert.True(t, facility.Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		c := NewGormCatalog(gormDB)

		mock.ExpectQuery(`SELECT .* FROM "facilities"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := c.GetFacility(context.Background(), 42)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("database failure is a dependency error", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		c := NewGormCatalog(gormDB)

		mock.ExpectQuery(`SELECT .* FROM "facilities"`).
			WillReturnError(fmt.Errorf("connection refused"))

		_, err := c.GetFacility(context.Background(), 42)
		assert.ErrorIs(t, err, apperror.ErrDependency)
	})
}

func TestListFacilities(t *testing.T) {
	t.Run("lists ordered by name", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		c := NewGormCatalog(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "facilities" ORDER BY name`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "site_id", "available", "created_at", "updated_at"}).
				AddRow(2, "Auditorium", "auditorium", 1, true, time.Now(), time.Now()).
				AddRow(1, "Court A", "sports_court", 1, false, time.Now(), time.Now()))

		facilities, err := c.ListFacilities(context.Background())
		require.NoError(t, err)
		require.Len(t, facilities, 2)
		assert.Equal(t, "Auditorium", facilities[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database failure is a dependency error", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		c := NewGormCatalog(gormDB)

		mock.ExpectQuery(`SELECT .* FROM "facilities"`).
			WillReturnError(fmt.Errorf("connection refused"))

		_, err := c.ListFacilities(context.Background())
		assert.ErrorIs(t, err, apperror.ErrDependency)
	})
}

func TestCreateFacilityRequiresName(t *testing.T) {
	gormDB, _ := newMockDB(t)
	c := NewGormCatalog(gormDB)

	err := c.CreateFacility(context.Background(), &model.Facility{Type: "sports_court"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
