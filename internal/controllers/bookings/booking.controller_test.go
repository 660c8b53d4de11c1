package bookingController_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nannyhub/config"
	bookingController "nannyhub/internal/controllers/bookings"
	"nannyhub/internal/controllers/listings"
	"nannyhub/internal/database"
	"nannyhub/internal/events"
	"nannyhub/internal/lifecycle"
	"nannyhub/internal/metrics"
	"nannyhub/internal/models"
	"nannyhub/internal/policy"
	"nannyhub/internal/repositories"
	"nannyhub/internal/services"
	"nannyhub/internal/testutil"
	"nannyhub/internal/types"
	"nannyhub/pkg/query"
)

func setup(t *testing.T) (*gorm.DB, bookingController.BookingControllerInterface) {
	t.Helper()
	return setupOn(t, testutil.NewDB(t))
}

func setupOn(t *testing.T, db *gorm.DB) (*gorm.DB, bookingController.BookingControllerInterface) {
	t.Helper()

	wrapped := database.NewWithSQL(db)
	repos := repositories.New(wrapped)
	svc := services.New(wrapped, config.Config{}, repos, events.New(nil), metrics.NewWithRegistry(prometheus.NewRegistry()))
	lists, err := listings.New(db, 15)
	require.NoError(t, err)

	return db, bookingController.New(repos, svc, lists, wrapped)
}

func slot(start, end float64) bookingController.AppointmentRequest {
	return bookingController.AppointmentRequest{StartAt: testutil.Hour(start), EndAt: testutil.Hour(end)}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCreate(t *testing.T) {
	db, controller := setup(t)
	ctx := context.Background()

	tutor := testutil.CreateUser(t, db, models.RoleTutor)
	actor := policy.ActorFromUser(tutor)
	child := models.Child{TutorID: tutor.ID, Name: "Mia"}
	require.NoError(t, db.Create(&child).Error)
	quality := models.Quality{Name: "Bilingual"}
	require.NoError(t, db.Create(&quality).Error)

	t.Run("single booking with two appointments", func(t *testing.T) {
		_, err := controller.Create(ctx, actor, &bookingController.CreateBookingRequest{
			Recurrent:    false,
			Appointments: []bookingController.AppointmentRequest{slot(1, 2), slot(3, 4)},
		})
		assert.ErrorIs(t, err, types.ErrInvalidInterval)
		assert.Zero(t, count(t, db, &models.Booking{}))
	})

	t.Run("recurring booking bounds", func(t *testing.T) {
		for _, n := range []int{1, 11} {
			appointments := make([]bookingController.AppointmentRequest, n)
			for i := range appointments {
				appointments[i] = slot(float64(i*24), float64(i*24+2))
			}
			_, err := controller.Create(ctx, actor, &bookingController.CreateBookingRequest{
				Recurrent:    true,
				Appointments: appointments,
			})
			assert.ErrorIs(t, err, types.ErrInvalidInterval, "count %d", n)
		}
		assert.Zero(t, count(t, db, &models.Booking{}))
	})

	t.Run("inverted interval", func(t *testing.T) {
		_, err := controller.Create(ctx, actor, &bookingController.CreateBookingRequest{
			Appointments: []bookingController.AppointmentRequest{slot(4, 2)},
		})
		assert.ErrorIs(t, err, types.ErrInvalidInterval)
	})

	t.Run("someone else's child", func(t *testing.T) {
		other := testutil.CreateUser(t, db, models.RoleTutor)
		_, err := controller.Create(ctx, policy.ActorFromUser(other), &bookingController.CreateBookingRequest{
			Appointments: []bookingController.AppointmentRequest{slot(1, 2)},
			ChildIDs:     []uuid.UUID{child.ID},
		})
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Zero(t, count(t, db, &models.Booking{}))
		assert.Zero(t, count(t, db, &models.Appointment{}))
	})

	t.Run("nanny cannot book", func(t *testing.T) {
		nanny := testutil.CreateNanny(t, db, "Nanny")
		_, err := controller.Create(ctx, policy.ActorFromUser(nanny.User), &bookingController.CreateBookingRequest{
			Appointments: []bookingController.AppointmentRequest{slot(1, 2)},
		})
		assert.ErrorIs(t, err, types.ErrUnauthorized)
	})

	t.Run("admin needs a tutor", func(t *testing.T) {
		admin := testutil.CreateUser(t, db, models.RoleAdmin)
		request := &bookingController.CreateBookingRequest{
			Appointments: []bookingController.AppointmentRequest{slot(1, 2)},
		}
		_, err := controller.Create(ctx, policy.ActorFromUser(admin), request)
		assert.ErrorIs(t, err, types.ErrNotFound)

		request.TutorID = &tutor.ID
		booking, err := controller.Create(ctx, policy.ActorFromUser(admin), request)
		require.NoError(t, err)
		assert.Equal(t, tutor.ID, booking.TutorID)
		require.NoError(t, controller.Delete(ctx, policy.ActorFromUser(admin), booking.ID))
	})

	t.Run("recurring booking with links", func(t *testing.T) {
		booking, err := controller.Create(ctx, actor, &bookingController.CreateBookingRequest{
			Description:  "After school",
			Recurrent:    true,
			Appointments: []bookingController.AppointmentRequest{slot(26, 28), slot(2, 4)},
			ChildIDs:     []uuid.UUID{child.ID},
			QualityIDs:   []uuid.UUID{quality.ID},
			Address:      &bookingController.AddressRequest{Street: "9 Elm Rd", City: "Leeds"},
		})
		require.NoError(t, err)

		assert.Equal(t, tutor.ID, booking.TutorID)
		require.Len(t, booking.Appointments, 2)
		assert.Equal(t, testutil.Hour(2), booking.Appointments[0].StartAt.UTC())
		for _, appointment := range booking.Appointments {
			assert.Equal(t, lifecycle.Draft, appointment.Status)
			assert.Equal(t, models.PaymentUnpaid, appointment.PaymentStatus)
		}
		assert.Len(t, booking.Children, 1)
		assert.Len(t, booking.Qualities, 1)
		require.NotNil(t, booking.Address)
		assert.Equal(t, "Leeds", booking.Address.City)
	})
}

func TestUpdateAndDelete(t *testing.T) {
	db, controller := setup(t)
	ctx := context.Background()

	tutor := testutil.CreateUser(t, db, models.RoleTutor)
	actor := policy.ActorFromUser(tutor)
	stranger := policy.ActorFromUser(testutil.CreateUser(t, db, models.RoleTutor))

	booking, err := controller.Create(ctx, actor, &bookingController.CreateBookingRequest{
		Description:  "Single evening",
		Appointments: []bookingController.AppointmentRequest{slot(18, 22)},
	})
	require.NoError(t, err)

	t.Run("stranger", func(t *testing.T) {
		description := "hijacked"
		_, err := controller.Update(ctx, stranger, booking.ID, &bookingController.UpdateBookingRequest{
			Description: &description,
		})
		assert.ErrorIs(t, err, types.ErrUnauthorized)
		assert.ErrorIs(t, controller.Delete(ctx, stranger, booking.ID), types.ErrUnauthorized)

		_, err = controller.Get(ctx, stranger, booking.ID)
		assert.ErrorIs(t, err, types.ErrUnauthorized)
	})

	t.Run("switching to recurring needs more appointments", func(t *testing.T) {
		recurrent := true
		_, err := controller.Update(ctx, actor, booking.ID, &bookingController.UpdateBookingRequest{
			Recurrent: &recurrent,
		})
		assert.ErrorIs(t, err, types.ErrInvalidInterval)

		appointments := []bookingController.AppointmentRequest{slot(18, 22), slot(42, 46), slot(66, 70)}
		description := "Three evenings"
		updated, err := controller.Update(ctx, actor, booking.ID, &bookingController.UpdateBookingRequest{
			Description:  &description,
			Recurrent:    &recurrent,
			Appointments: &appointments,
			Address:      &bookingController.AddressRequest{Street: "1 Hill St", City: "York"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Three evenings", updated.Description)
		assert.True(t, updated.Recurrent)
		assert.Len(t, updated.Appointments, 3)
		require.NotNil(t, updated.Address)
		assert.Equal(t, "York", updated.Address.City)
		booking = updated
	})

	t.Run("assigned booking is frozen", func(t *testing.T) {
		nanny := testutil.CreateNanny(t, db, "Evening nanny")
		testutil.Assign(t, db, &booking.Appointments[0], nanny, lifecycle.Pending)

		description := "too late"
		_, err := controller.Update(ctx, actor, booking.ID, &bookingController.UpdateBookingRequest{
			Description: &description,
		})
		assert.ErrorIs(t, err, types.ErrInvalidTransition)
		assert.ErrorIs(t, controller.Delete(ctx, actor, booking.ID), types.ErrInvalidTransition)

		require.NoError(t, db.Model(&models.Appointment{}).
			Where("id = ?", booking.Appointments[0].ID).
			Updates(map[string]any{"nanny_id": nil, "status": lifecycle.Draft}).Error)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, controller.Delete(ctx, actor, booking.ID))

		_, err := controller.Get(ctx, actor, booking.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Zero(t, count(t, db, &models.Appointment{}))
		assert.Zero(t, count(t, db, &models.Address{}))
	})
}

func TestList(t *testing.T) {
	db, controller := setup(t)
	ctx := context.Background()

	tutor := testutil.CreateUser(t, db, models.RoleTutor)
	other := testutil.CreateUser(t, db, models.RoleTutor)
	admin := testutil.CreateUser(t, db, models.RoleAdmin)

	create := func(user *models.User, description string, recurrent bool, slots ...bookingController.AppointmentRequest) {
		_, err := controller.Create(ctx, policy.ActorFromUser(user), &bookingController.CreateBookingRequest{
			Description:  description,
			Recurrent:    recurrent,
			Appointments: slots,
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	create(tutor, "Morning help", false, slot(6, 9))
	create(tutor, "Weekly swimming", true, slot(30, 31), slot(198, 199))
	create(other, "Morning help", false, slot(6, 9))

	page, err := controller.List(ctx, policy.ActorFromUser(tutor), query.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "Weekly swimming", page.Data[0].Description, "newest first by default")
	assert.Len(t, page.Data[0].Appointments, 2)

	page, err = controller.List(ctx, policy.ActorFromUser(tutor), query.Params{
		Filters: map[string]any{"recurrent": "true"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = controller.List(ctx, policy.ActorFromUser(admin), query.Params{Search: "morning", PerPage: query.PerPageAll})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Data, 2)
}
