package jobs

import (
	"context"
	"time"

	logger "github.com/Bparsons0904/goLogger"

	"nannyhub/internal/services"
)

const APPOINTMENT_STATUS_SWEEP_JOB = "AppointmentStatusSweep"

type statusSweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// AppointmentStatusSweepJob moves confirmed and running appointments along
// with the clock.
type AppointmentStatusSweepJob struct {
	sweeper statusSweeper
	every   time.Duration
	now     func() time.Time
	log     logger.Logger
}

func NewAppointmentStatusSweepJob(sweeper statusSweeper, every time.Duration) *AppointmentStatusSweepJob {
	log := logger.New("appointmentStatusSweepJob")
	log.Info("Creating appointment status sweep job", "every", every)

	return &AppointmentStatusSweepJob{
		sweeper: sweeper,
		every:   every,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

func (j *AppointmentStatusSweepJob) Name() string {
	return APPOINTMENT_STATUS_SWEEP_JOB
}

func (j *AppointmentStatusSweepJob) Schedule() services.Schedule {
	return services.Interval
}

func (j *AppointmentStatusSweepJob) Every() time.Duration {
	return j.every
}

func (j *AppointmentStatusSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	changed, err := j.sweeper.Sweep(ctx, j.now())
	if err != nil {
		return log.Err("status sweep failed", err, "changed", changed)
	}

	if changed > 0 {
		log.Info("Appointment statuses updated", "changed", changed)
	}
	return nil
}
