package appointmentController

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nannyhub/config"
	"nannyhub/internal/controllers/listings"
	"nannyhub/internal/database"
	"nannyhub/internal/events"
	"nannyhub/internal/lifecycle"
	"nannyhub/internal/metrics"
	. "nannyhub/internal/models"
	"nannyhub/internal/policy"
	"nannyhub/internal/repositories"
	"nannyhub/internal/services"
	"nannyhub/internal/types"
	"nannyhub/pkg/query"
)

const OUTCOME_OK = "ok"

var candidatePreloads = []string{"User", "Qualities", "Courses", "Careers"}

// AppointmentControllerInterface coordinates who looks after an appointment:
// candidate listing, the assignment handshake and the explicit transitions.
type AppointmentControllerInterface interface {
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, actor policy.Actor, params query.Params) (*query.Page[Appointment], error)
	ListCandidates(
		ctx context.Context,
		actor policy.Actor,
		id uuid.UUID,
		params query.Params,
	) (*query.Page[Nanny], error)
	SampleCandidates(ctx context.Context, actor policy.Actor, id uuid.UUID, params query.Params) ([]Nanny, error)
	Assign(ctx context.Context, actor policy.Actor, id uuid.UUID, nannyID uuid.UUID) (*Appointment, error)
	Accept(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error)
	Reject(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error)
	Unassign(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error)
	Cancel(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error)
}

type AppointmentController struct {
	appointmentRepo     repositories.AppointmentRepository
	bookingRepo         repositories.BookingRepository
	nannyRepo           repositories.NannyRepository
	transactionService  *services.TransactionService
	availabilityService *services.AvailabilityService
	listings            listings.Listings
	publisher           events.Publisher
	metrics             *metrics.Metrics
	sampleSize          int
	db                  database.DB
	log                 logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	listings listings.Listings,
	publisher events.Publisher,
	metrics *metrics.Metrics,
	config config.Config,
	db database.DB,
) AppointmentControllerInterface {
	sampleSize := config.CandidateSampleSize
	if sampleSize <= 0 {
		sampleSize = 3
	}

	return &AppointmentController{
		appointmentRepo:     repos.Appointment,
		bookingRepo:         repos.Booking,
		nannyRepo:           repos.Nanny,
		transactionService:  services.Transaction,
		availabilityService: services.Availability,
		listings:            listings,
		publisher:           publisher,
		metrics:             metrics,
		sampleSize:          sampleSize,
		db:                  db,
		log:                 logger.New("appointmentController"),
	}
}

func (c *AppointmentController) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error) {
	appointment, err := c.appointmentRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	subject := policy.AppointmentSubject(appointment, appointment.Booking)
	if err := policy.Authorize(actor, policy.View, subject); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (c *AppointmentController) List(
	ctx context.Context,
	actor policy.Actor,
	params query.Params,
) (*query.Page[Appointment], error) {
	log := c.log.Function("List")

	base := c.db.SQL.Model(&Appointment{}).Scopes(listings.VisibleAppointments(actor))
	page, err := c.listings.Appointments.Paginate(ctx, base, params)
	if err != nil {
		return nil, log.Err("failed to list appointments", err)
	}
	return page, nil
}

// ListCandidates pages through the nannies free for the appointment. Without
// an explicit sort, nannies matching more of the booking's wish-list come first.
func (c *AppointmentController) ListCandidates(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	params query.Params,
) (*query.Page[Nanny], error) {
	log := c.log.Function("ListCandidates")

	appointment, booking, err := c.candidateTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	page, err := c.listings.Nannies.Paginate(
		ctx,
		c.candidates(appointment),
		params,
		query.WithFallbackOrder(wishListOrder(booking)),
		query.WithPreload(candidatePreloads...),
	)
	if err != nil {
		return nil, log.Err("failed to list candidates", err, "appointmentID", id)
	}
	return page, nil
}

// SampleCandidates draws a uniform random subset of the filtered candidates,
// at most the configured sample size.
func (c *AppointmentController) SampleCandidates(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	params query.Params,
) ([]Nanny, error) {
	log := c.log.Function("SampleCandidates")

	appointment, _, err := c.candidateTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	filtered := c.listings.Nannies.Filter(c.candidates(appointment).WithContext(ctx), params)
	if err := filtered.Pluck("nannies.id", &ids).Error; err != nil {
		return nil, log.Err("failed to collect candidates", err, "appointmentID", id)
	}

	picked := sample(ids, c.sampleSize)
	if len(picked) == 0 {
		return []Nanny{}, nil
	}

	nannies := make([]Nanny, 0, len(picked))
	db := c.db.SQLWithContext(ctx)
	for _, association := range candidatePreloads {
		db = db.Preload(association)
	}
	if err := db.Where("nannies.id IN ?", picked).Find(&nannies).Error; err != nil {
		return nil, log.Err("failed to load sampled candidates", err, "appointmentID", id)
	}

	rand.Shuffle(len(nannies), func(i, j int) { nannies[i], nannies[j] = nannies[j], nannies[i] })
	return nannies, nil
}

// Assign gives the appointment to a nanny. The appointment and nanny rows are
// locked and availability is checked again against committed state, so of two
// racing assigns for overlapping slots at most one succeeds.
func (c *AppointmentController) Assign(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	nannyID uuid.UUID,
) (*Appointment, error) {
	log := c.log.Function("Assign")

	var (
		appointment *Appointment
		refused     error
	)
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		appointment, err = c.appointmentRepo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}

		subject := policy.AppointmentSubject(appointment, appointment.Booking)
		if err := policy.Authorize(actor, policy.View, subject); err != nil {
			return err
		}
		if err := c.catchUp(ctx, tx, appointment); err != nil {
			return err
		}
		if appointment.HasNanny() {
			refused = fmt.Errorf("%w: appointment %s", types.ErrAlreadyAssigned, id)
			return nil
		}
		if err := policy.Authorize(actor, policy.Assign, subject); err != nil {
			return err
		}

		next, err := lifecycle.Apply(appointment.Status, lifecycle.ActionAssign, false)
		if err != nil {
			refused = err
			return nil
		}

		nanny, err := c.nannyRepo.LockByID(ctx, tx, nannyID)
		if err != nil {
			return err
		}
		if !nanny.Available {
			return fmt.Errorf("%w: nanny %s is not taking appointments", types.ErrNoLongerAvailable, nannyID)
		}

		free, err := c.availabilityService.IsAvailable(ctx, tx, nanny.ID, appointment.Interval(), appointment.ID)
		if err != nil {
			return err
		}
		if !free {
			return fmt.Errorf("%w: nanny %s is booked during this appointment", types.ErrNoLongerAvailable, nannyID)
		}

		appointment.NannyID = &nanny.ID
		appointment.Status = next
		appointment.TotalCost = appointment.Cost(nanny.HourlyRate)
		return c.appointmentRepo.Save(ctx, tx, appointment)
	})
	if err == nil {
		err = refused
	}

	c.record(lifecycle.ActionAssign, err)
	if err != nil {
		return nil, log.Err("failed to assign nanny", err, "appointmentID", id, "nannyID", nannyID)
	}

	c.publish(ctx, actor, lifecycle.ActionAssign, appointment, appointment.NannyID)
	return appointment, nil
}

func (c *AppointmentController) Accept(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error) {
	return c.transition(ctx, actor, id, lifecycle.ActionAccept, policy.Accept, nil)
}

func (c *AppointmentController) Reject(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error) {
	return c.transition(ctx, actor, id, lifecycle.ActionReject, policy.Reject, release)
}

func (c *AppointmentController) Unassign(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error) {
	return c.transition(ctx, actor, id, lifecycle.ActionUnassign, policy.Unassign, release)
}

func (c *AppointmentController) Cancel(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Appointment, error) {
	return c.transition(ctx, actor, id, lifecycle.ActionCancel, policy.Cancel, nil)
}

// transition runs one explicit lifecycle action under the appointment's row lock.
func (c *AppointmentController) transition(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	action lifecycle.Action,
	capability policy.Capability,
	mutate func(*Appointment),
) (*Appointment, error) {
	log := c.log.Function("transition")

	var (
		appointment *Appointment
		nannyID     *uuid.UUID
		refused     error
	)
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		appointment, err = c.appointmentRepo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}

		subject := policy.AppointmentSubject(appointment, appointment.Booking)
		if err := policy.Authorize(actor, capability, subject); err != nil {
			return err
		}
		if err := c.catchUp(ctx, tx, appointment); err != nil {
			return err
		}

		next, err := lifecycle.Apply(appointment.Status, action, appointment.HasNanny())
		if err != nil {
			refused = err
			return nil
		}

		nannyID = appointment.NannyID
		appointment.Status = next
		if mutate != nil {
			mutate(appointment)
		}
		return c.appointmentRepo.Save(ctx, tx, appointment)
	})
	if err == nil {
		err = refused
	}

	c.record(action, err)
	if err != nil {
		return nil, log.Err("appointment transition failed", err, "appointmentID", id, "action", action)
	}

	c.publish(ctx, actor, action, appointment, nannyID)
	return appointment, nil
}

// candidateTarget loads an appointment for candidate listing along with its
// booking's wish-list.
func (c *AppointmentController) candidateTarget(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
) (*Appointment, *Booking, error) {
	appointment, err := c.appointmentRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, nil, err
	}

	subject := policy.AppointmentSubject(appointment, appointment.Booking)
	if err := policy.Authorize(actor, policy.ListCandidates, subject); err != nil {
		return nil, nil, err
	}

	booking, err := c.bookingRepo.GetByID(ctx, c.db.SQL, appointment.BookingID)
	if err != nil {
		return nil, nil, err
	}
	return appointment, booking, nil
}

func (c *AppointmentController) candidates(appointment *Appointment) *gorm.DB {
	return c.db.SQL.Model(&Nanny{}).
		Scopes(services.AvailableScope(appointment.Interval())).
		Where("nannies.available = ?", true)
}

// catchUp writes any time-based promotion the locked row is due before an
// explicit action reads its status. The write commits even when the action is
// then refused.
func (c *AppointmentController) catchUp(ctx context.Context, tx *gorm.DB, appointment *Appointment) error {
	from := appointment.Status
	current := lifecycle.Passive(from, appointment.StartAt, appointment.EndAt, time.Now())
	if current == from {
		return nil
	}

	appointment.Status = current
	if err := c.appointmentRepo.Save(ctx, tx, appointment); err != nil {
		return err
	}
	c.metrics.IncrementStatusChange(string(from), string(current))
	return nil
}

func (c *AppointmentController) record(action lifecycle.Action, err error) {
	outcome := OUTCOME_OK
	if err != nil {
		outcome = string(types.Kind(err))
	}
	c.metrics.IncrementActionOutcome(string(action), outcome)
}

func (c *AppointmentController) publish(
	ctx context.Context,
	actor policy.Actor,
	action lifecycle.Action,
	appointment *Appointment,
	nannyID *uuid.UUID,
) {
	if c.publisher == nil {
		return
	}

	data := map[string]any{
		"appointmentId": appointment.ID,
		"bookingId":     appointment.BookingID,
		"status":        appointment.Status,
	}
	if nannyID != nil {
		data["nannyId"] = *nannyID
	}

	userID := actor.UserID
	event := events.Event{
		Type:      events.AppointmentMessage(string(action)),
		Channel:   events.APPOINTMENTS_CHANNEL,
		UserID:    &userID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if err := c.publisher.Publish(events.APPOINTMENTS_CHANNEL, event); err != nil {
		c.log.Function("publish").
			TraceFromContext(ctx).
			Warn("failed to publish appointment event", "appointmentID", appointment.ID, "error", err)
	}
}

// release clears the nanny and the cost that came with them.
func release(appointment *Appointment) {
	appointment.NannyID = nil
	appointment.TotalCost = decimal.Zero
}

// wishListOrder ranks nannies by how many of the booking's wished qualities,
// courses and careers they hold, then by experience.
func wishListOrder(booking *Booking) func(*gorm.DB) *gorm.DB {
	qualities, courses, careers := booking.WishList()

	var (
		terms []string
		vars  []any
	)
	add := func(table, column string, ids []uuid.UUID) {
		if len(ids) == 0 {
			return
		}
		terms = append(terms, fmt.Sprintf(
			"(SELECT COUNT(*) FROM %[1]s WHERE %[1]s.nanny_id = nannies.id AND %[1]s.%[2]s IN ?)",
			table, column,
		))
		vars = append(vars, ids)
	}
	add("nanny_qualities", "quality_id", qualities)
	add("nanny_courses", "course_id", courses)
	add("nanny_careers", "career_id", careers)

	return func(db *gorm.DB) *gorm.DB {
		if len(terms) > 0 {
			db = db.Select("nannies.*, ("+strings.Join(terms, " + ")+") AS wish_score", vars...).
				Order("wish_score DESC")
		}
		return db.Order("nannies.experience_since ASC")
	}
}

// sample picks min(n, len(ids)) ids uniformly at random.
func sample(ids []uuid.UUID, n int) []uuid.UUID {
	if n <= 0 || len(ids) == 0 {
		return nil
	}
	picked := make([]uuid.UUID, 0, min(n, len(ids)))
	for _, i := range rand.Perm(len(ids))[:min(n, len(ids))] {
		picked = append(picked, ids[i])
	}
	return picked
}
