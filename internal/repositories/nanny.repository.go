package repositories

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	. "nannyhub/internal/models"
)

type NannyRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Nanny, error)
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Nanny, error)
}

type nannyRepository struct {
	log logger.Logger
}

func NewNannyRepository() NannyRepository {
	return &nannyRepository{
		log: logger.New("nannyRepository"),
	}
}

// GetByID loads the nanny with the user and the qualification lists.
func (r *nannyRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Nanny, error) {
	log := r.log.Function("GetByID")

	nanny, err := gorm.G[Nanny](tx).
		Preload("User", nil).
		Preload("Qualities", nil).
		Preload("Courses", nil).
		Preload("Careers", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to get nanny", translate(err), "nannyID", id)
	}

	return &nanny, nil
}

// LockByID holds the nanny row until tx ends so assignments to the same
// nanny run one at a time.
func (r *nannyRepository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Nanny, error) {
	log := r.log.Function("LockByID")

	nanny, err := gorm.G[Nanny](tx, clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to lock nanny", translate(err), "nannyID", id)
	}

	return &nanny, nil
}
