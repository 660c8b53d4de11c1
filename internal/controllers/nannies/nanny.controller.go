package nannyController

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"

	"nannyhub/internal/controllers/listings"
	"nannyhub/internal/database"
	. "nannyhub/internal/models"
	"nannyhub/internal/repositories"
	"nannyhub/internal/services"
	"nannyhub/pkg/query"
)

type AvailabilityResponse struct {
	NannyID   uuid.UUID `json:"nannyId"`
	Interval  Interval  `json:"interval"`
	Available bool      `json:"available"`
}

type NannyControllerInterface interface {
	List(ctx context.Context, params query.Params) (*query.Page[Nanny], error)
	Get(ctx context.Context, id uuid.UUID) (*Nanny, error)
	Availability(ctx context.Context, id uuid.UUID, interval Interval) (*AvailabilityResponse, error)
}

type NannyController struct {
	nannyRepo           repositories.NannyRepository
	availabilityService *services.AvailabilityService
	listings            listings.Listings
	db                  database.DB
	log                 logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	listings listings.Listings,
	db database.DB,
) NannyControllerInterface {
	return &NannyController{
		nannyRepo:           repos.Nanny,
		availabilityService: services.Availability,
		listings:            listings,
		db:                  db,
		log:                 logger.New("nannyController"),
	}
}

func (c *NannyController) List(ctx context.Context, params query.Params) (*query.Page[Nanny], error) {
	log := c.log.Function("List")

	page, err := c.listings.Nannies.Paginate(ctx, c.db.SQL, params, query.WithPreload("User", "Qualities"))
	if err != nil {
		return nil, log.Err("failed to list nannies", err)
	}
	return page, nil
}

func (c *NannyController) Get(ctx context.Context, id uuid.UUID) (*Nanny, error) {
	return c.nannyRepo.GetByID(ctx, c.db.SQL, id)
}

// Availability reports whether the nanny is free for interval. A nanny who is
// not taking appointments is never available.
func (c *NannyController) Availability(
	ctx context.Context,
	id uuid.UUID,
	interval Interval,
) (*AvailabilityResponse, error) {
	nanny, err := c.nannyRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	free, err := c.availabilityService.IsAvailable(ctx, c.db.SQL, nanny.ID, interval)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResponse{
		NannyID:   nanny.ID,
		Interval:  interval,
		Available: free && nanny.Available,
	}, nil
}
