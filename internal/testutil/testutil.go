// Package testutil builds migrated in-memory databases and seed rows for tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"nannyhub/internal/database"
	"nannyhub/internal/lifecycle"
	"nannyhub/internal/models"
)

// NewDB returns a migrated SQLite database private to the test. A single
// connection keeps the in-memory schema alive and serializes transactions.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	config := database.GormConfig()
	config.Logger = gormLogger.Discard
	config.PrepareStmt = false

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), config)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Hour returns a fixed future instant offset by h hours, so seeded
// appointments never trip the passive status rules.
func Hour(h float64) time.Time {
	base := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 30)
	return base.Add(time.Duration(h * float64(time.Hour)))
}

func CreateUser(t testing.TB, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		FirstName: "Test",
		LastName:  string(role),
		Email:     uuid.NewString() + "@example.com",
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateNanny(t testing.TB, db *gorm.DB, bio string) *models.Nanny {
	t.Helper()

	user := CreateUser(t, db, models.RoleNanny)
	since := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	nanny := &models.Nanny{
		UserID:          user.ID,
		Available:       true,
		Bio:             bio,
		ExperienceSince: &since,
		HourlyRate:      decimal.NewFromInt(20),
	}
	require.NoError(t, db.Create(nanny).Error)
	nanny.User = user
	user.Nanny = nanny
	return nanny
}

// CreateBooking creates a booking for tutor with one draft appointment per interval.
func CreateBooking(t testing.TB, db *gorm.DB, tutor *models.User, intervals ...models.Interval) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		TutorID:     tutor.ID,
		Description: "Evening care",
		Recurrent:   len(intervals) > 1,
	}
	for _, interval := range intervals {
		booking.Appointments = append(booking.Appointments, models.Appointment{
			StartAt: interval.Start,
			EndAt:   interval.End,
			Status:  lifecycle.Draft,
		})
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

// Assign writes a nanny and status straight to an appointment, bypassing hooks.
func Assign(t testing.TB, db *gorm.DB, appointment *models.Appointment, nanny *models.Nanny, status lifecycle.Status) {
	t.Helper()

	err := db.Session(&gorm.Session{SkipHooks: true}).
		Model(&models.Appointment{}).
		Where("id = ?", appointment.ID).
		Updates(map[string]any{"nanny_id": nanny.ID, "status": status}).Error
	require.NoError(t, err)

	id := nanny.ID
	appointment.NannyID = &id
	appointment.Status = status
}

func MustInterval(t testing.TB, start, end time.Time) models.Interval {
	t.Helper()

	interval, err := models.NewInterval(start, end)
	require.NoError(t, err)
	return interval
}
