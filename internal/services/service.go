package services

import (
	"nannyhub/config"
	"nannyhub/internal/database"
	"nannyhub/internal/events"
	"nannyhub/internal/metrics"
	"nannyhub/internal/repositories"
)

type Service struct {
	Transaction  *TransactionService
	Scheduler    *SchedulerService
	Availability *AvailabilityService
	StatusSweep  *StatusSweepService
}

func New(
	db database.DB,
	config config.Config,
	repos repositories.Repository,
	eventBus events.Publisher,
	metrics *metrics.Metrics,
) Service {
	transactionService := NewTransactionService(db)
	schedulerService := NewSchedulerService()
	availabilityService := NewAvailabilityService()
	statusSweepService := NewStatusSweepService(db, repos.Appointment, eventBus, metrics)

	return Service{
		Transaction:  transactionService,
		Scheduler:    schedulerService,
		Availability: availabilityService,
		StatusSweep:  statusSweepService,
	}
}
