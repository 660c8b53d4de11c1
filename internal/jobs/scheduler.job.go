package jobs

import (
	"time"

	logger "github.com/Bparsons0904/goLogger"

	"nannyhub/config"
	"nannyhub/internal/services"
)

// RegisterAllJobs adds every background job to the scheduler. Nothing is
// registered when the scheduler is disabled.
func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	service services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	every := time.Duration(config.StatusSweepMinutes) * time.Minute
	sweepJob := NewAppointmentStatusSweepJob(service.StatusSweep, every)
	if err := schedulerService.AddJob(sweepJob); err != nil {
		return log.Err("failed to register appointment status sweep job", err)
	}
	log.Info("Registered appointment status sweep job", "every", every)

	return nil
}
