package app

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"

	"nannyhub/config"
	"nannyhub/internal/controllers"
	"nannyhub/internal/controllers/listings"
	"nannyhub/internal/database"
	"nannyhub/internal/events"
	"nannyhub/internal/handlers/middleware"
	"nannyhub/internal/jobs"
	"nannyhub/internal/metrics"
	"nannyhub/internal/repositories"
	"nannyhub/internal/services"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	EventBus   *events.EventBus
	Config     config.Config
	Metrics    *metrics.Metrics

	Repos       repositories.Repository
	Services    services.Service
	Listings    listings.Listings
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	app, err := Assemble(config, db, metrics.New())
	if err != nil {
		_ = db.Close()
		return &App{}, err
	}

	return app, nil
}

// Assemble wires every component on top of an open database. Listing
// specifications are resolved here, so a bad one stops startup.
func Assemble(config config.Config, db database.DB, m *metrics.Metrics) (*App, error) {
	log := logger.New("app").Function("Assemble")

	eventBus := events.New(db.Cache.Events)
	repos := repositories.New(db)
	service := services.New(db, config, repos, eventBus, m)

	lists, err := listings.New(db.SQL, config.ListingDefaultPerPage)
	if err != nil {
		_ = eventBus.Close()
		return &App{}, log.Err("failed to register listing specifications", err)
	}

	if err := jobs.RegisterAllJobs(service.Scheduler, config, service); err != nil {
		_ = eventBus.Close()
		return &App{}, log.Err("failed to register jobs", err)
	}

	app := &App{
		Database:    db,
		Config:      config,
		Metrics:     m,
		EventBus:    eventBus,
		Middleware:  middleware.New(db, config, repos),
		Repos:       repos,
		Services:    service,
		Listings:    lists,
		Controllers: controllers.New(service, repos, lists, eventBus, m, config, db),
	}

	if err := app.validate(); err != nil {
		_ = eventBus.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

// Start launches background work. The scheduler stays idle without jobs.
func (a *App) Start(ctx context.Context) error {
	return a.Services.Scheduler.Start(ctx)
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.EventBus,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Availability,
		a.Services.StatusSweep,
		a.Controllers.Booking,
		a.Controllers.Appointment,
		a.Controllers.Nanny,
		a.Controllers.Admin,
		a.Repos.User,
		a.Repos.Booking,
		a.Repos.Appointment,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
