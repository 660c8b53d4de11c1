//go:build integration

package bookingController_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingController "nannyhub/internal/controllers/bookings"
	"nannyhub/internal/lifecycle"
	"nannyhub/internal/models"
	"nannyhub/internal/policy"
	"nannyhub/internal/testutil"
	"nannyhub/internal/types"
)

const migrationsDir = "../../../cmd/migration/migrations"

func TestBookingRewriteWaitsForAssignment(t *testing.T) {
	db, controller := setupOn(t, testutil.NewPostgresDB(t, migrationsDir))
	ctx := context.Background()

	tutor := testutil.CreateUser(t, db, models.RoleTutor)
	nanny := testutil.CreateNanny(t, db, "Quick to reply")
	actor := policy.ActorFromUser(tutor)

	cases := []struct {
		name  string
		apply func(t *testing.T) error
	}{
		{
			name: "delete",
			apply: func(t *testing.T) error {
				booking := testutil.CreateBooking(t, db, tutor, testutil.MustInterval(t, testutil.Hour(10), testutil.Hour(12)))
				return assignWhile(t, db, booking, nanny, func() error {
					return controller.Delete(ctx, actor, booking.ID)
				})
			},
		},
		{
			name: "replace appointments",
			apply: func(t *testing.T) error {
				booking := testutil.CreateBooking(t, db, tutor, testutil.MustInterval(t, testutil.Hour(30), testutil.Hour(32)))
				slots := []bookingController.AppointmentRequest{slot(50, 52)}
				return assignWhile(t, db, booking, nanny, func() error {
					_, err := controller.Update(ctx, actor, booking.ID, &bookingController.UpdateBookingRequest{
						Appointments: &slots,
					})
					return err
				})
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.apply(t), types.ErrInvalidTransition)
		})
	}

	var kept []models.Appointment
	require.NoError(t, db.Where("nanny_id = ?", nanny.ID).Find(&kept).Error)
	assert.Len(t, kept, len(cases))
	for _, appointment := range kept {
		assert.Equal(t, lifecycle.Pending, appointment.Status)
	}
}

// assignWhile holds an uncommitted assignment on the booking's appointment,
// starts rewrite, waits until it blocks on the row lock and then commits.
func assignWhile(t *testing.T, db *gorm.DB, booking *models.Booking, nanny *models.Nanny, rewrite func() error) error {
	t.Helper()

	tx := db.Begin()
	require.NoError(t, tx.Error)

	var appointment models.Appointment
	require.NoError(t, tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&appointment, "id = ?", booking.Appointments[0].ID).Error)
	require.NoError(t, tx.Session(&gorm.Session{SkipHooks: true}).
		Model(&models.Appointment{}).
		Where("id = ?", appointment.ID).
		Updates(map[string]any{"nanny_id": nanny.ID, "status": lifecycle.Pending}).Error)

	done := make(chan error, 1)
	go func() { done <- rewrite() }()

	require.Eventually(t, func() bool {
		var waiting int64
		err := db.Raw("SELECT count(*) FROM pg_stat_activity WHERE wait_event_type = 'Lock'").Scan(&waiting).Error
		return err == nil && waiting > 0
	}, 10*time.Second, 20*time.Millisecond, "rewrite never waited on the appointment lock")

	require.NoError(t, tx.Commit().Error)

	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("rewrite did not finish after the assignment committed")
		return nil
	}
}
