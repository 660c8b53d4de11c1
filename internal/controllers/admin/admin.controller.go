package adminController

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"

	"nannyhub/internal/policy"
	"nannyhub/internal/services"
)

type AdminControllerInterface interface {
	RunJob(ctx context.Context, actor policy.Actor, name string) error
}

type jobRunner interface {
	RunJobByName(ctx context.Context, name string) error
}

type AdminController struct {
	scheduler jobRunner
	log       logger.Logger
}

func New(services services.Service) AdminControllerInterface {
	return &AdminController{
		scheduler: services.Scheduler,
		log:       logger.New("adminController"),
	}
}

// RunJob executes a registered background job now and waits for it.
func (c *AdminController) RunJob(ctx context.Context, actor policy.Actor, name string) error {
	log := c.log.Function("RunJob")

	if err := policy.Authorize(actor, policy.RunJobs, policy.Subject{}); err != nil {
		return err
	}

	if err := c.scheduler.RunJobByName(ctx, name); err != nil {
		return log.Err("job run failed", err, "job", name, "userID", actor.UserID)
	}
	return nil
}
