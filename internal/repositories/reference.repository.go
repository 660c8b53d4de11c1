package repositories

import (
	"context"
	"fmt"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	. "nannyhub/internal/models"
	"nannyhub/internal/types"
)

// ReferenceRepository resolves the ids a request links to: wish-list
// qualities, courses, careers and the tutor's children.
type ReferenceRepository interface {
	Qualities(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]Quality, error)
	Courses(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]Course, error)
	Careers(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]Career, error)
	Children(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID, ids []uuid.UUID) ([]Child, error)
	SeedNames(ctx context.Context, tx *gorm.DB, qualities, courses, careers []string) error
}

type referenceRepository struct {
	log logger.Logger
}

func NewReferenceRepository() ReferenceRepository {
	return &referenceRepository{
		log: logger.New("referenceRepository"),
	}
}

func (r *referenceRepository) Qualities(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]Quality, error) {
	return findByIDs[Quality](ctx, tx, ids, r.log.Function("Qualities"))
}

func (r *referenceRepository) Courses(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]Course, error) {
	return findByIDs[Course](ctx, tx, ids, r.log.Function("Courses"))
}

func (r *referenceRepository) Careers(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]Career, error) {
	return findByIDs[Career](ctx, tx, ids, r.log.Function("Careers"))
}

// Children only resolves children registered by tutorID.
func (r *referenceRepository) Children(
	ctx context.Context,
	tx *gorm.DB,
	tutorID uuid.UUID,
	ids []uuid.UUID,
) ([]Child, error) {
	log := r.log.Function("Children")

	children, err := findByIDs[Child](ctx, tx, ids, log)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.TutorID != tutorID {
			return nil, fmt.Errorf("%w: child %s", types.ErrNotFound, child.ID)
		}
	}
	return children, nil
}

// SeedNames inserts any missing reference names. Existing names are kept.
func (r *referenceRepository) SeedNames(
	ctx context.Context,
	tx *gorm.DB,
	qualities, courses, careers []string,
) error {
	log := r.log.Function("SeedNames")
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}

	for _, name := range qualities {
		if err := gorm.G[Quality](tx, onConflict).Create(ctx, &Quality{Name: name}); err != nil {
			return log.Err("failed to seed quality", err, "name", name)
		}
	}
	for _, name := range courses {
		if err := gorm.G[Course](tx, onConflict).Create(ctx, &Course{Name: name}); err != nil {
			return log.Err("failed to seed course", err, "name", name)
		}
	}
	for _, name := range careers {
		if err := gorm.G[Career](tx, onConflict).Create(ctx, &Career{Name: name}); err != nil {
			return log.Err("failed to seed career", err, "name", name)
		}
	}

	log.Info("Reference data seeded",
		"qualities", len(qualities), "courses", len(courses), "careers", len(careers))
	return nil
}

// findByIDs loads every row for ids, failing with ErrNotFound when any is missing.
func findByIDs[T any](ctx context.Context, tx *gorm.DB, ids []uuid.UUID, log logger.Logger) ([]T, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return []T{}, nil
	}

	rows, err := gorm.G[T](tx).Where("id IN ?", unique).Find(ctx)
	if err != nil {
		return nil, log.Err("failed to load rows", err, "count", len(unique))
	}

	if len(rows) != len(unique) {
		return nil, fmt.Errorf("%w: found %d of %d referenced rows", types.ErrNotFound, len(rows), len(unique))
	}
	return rows, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
