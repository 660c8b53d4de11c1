package services

import (
	"context"
	"time"

	logger "github.com/Bparsons0904/goLogger"

	"nannyhub/internal/database"
	"nannyhub/internal/events"
	"nannyhub/internal/lifecycle"
	"nannyhub/internal/metrics"
	. "nannyhub/internal/models"
	"nannyhub/internal/repositories"
)

// StatusSweepService applies the time-based status rules to every open
// appointment. Each change commits on its own, so an interrupted sweep can
// simply be run again.
type StatusSweepService struct {
	db           database.DB
	appointments repositories.AppointmentRepository
	publisher    events.Publisher
	metrics      *metrics.Metrics
	log          logger.Logger
}

func NewStatusSweepService(
	db database.DB,
	appointments repositories.AppointmentRepository,
	publisher events.Publisher,
	metrics *metrics.Metrics,
) *StatusSweepService {
	return &StatusSweepService{
		db:           db,
		appointments: appointments,
		publisher:    publisher,
		metrics:      metrics,
		log:          logger.New("StatusSweepService"),
	}
}

// Sweep promotes appointments whose status is behind the clock at now and
// returns how many changed.
func (s *StatusSweepService) Sweep(ctx context.Context, now time.Time) (int, error) {
	log := s.log.Function("Sweep")
	started := time.Now()
	defer func() { s.metrics.ObserveSweepDuration(time.Since(started)) }()

	changed := 0
	err := s.appointments.FindOpenInBatches(ctx, s.db.SQL, now, func(batch []Appointment) error {
		for _, appointment := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}

			next := lifecycle.Passive(appointment.Status, appointment.StartAt, appointment.EndAt, now)
			if next == appointment.Status {
				continue
			}

			ok, err := s.appointments.CompareAndSetStatus(ctx, s.db.SQL, appointment.ID, appointment.Status, next)
			if err != nil {
				return err
			}
			if !ok {
				// Moved by someone else since the batch was read.
				continue
			}

			changed++
			s.metrics.IncrementStatusChange(string(appointment.Status), string(next))
		}
		return nil
	})
	if err != nil {
		return changed, log.Err("status sweep stopped early", err, "changed", changed)
	}

	if changed > 0 && s.publisher != nil {
		event := events.Event{
			Type:      events.APPOINTMENT_SWEPT,
			Channel:   events.APPOINTMENTS_CHANNEL,
			Data:      map[string]any{"changed": changed, "at": now},
			Timestamp: time.Now().UTC(),
		}
		if err := s.publisher.Publish(events.APPOINTMENTS_CHANNEL, event); err != nil {
			log.Warn("failed to publish sweep event", "error", err)
		}
	}

	log.Info("Status sweep finished", "changed", changed, "duration", time.Since(started))
	return changed, nil
}
