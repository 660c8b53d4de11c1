package repositories

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"nannyhub/internal/constants"
	"nannyhub/internal/database"
	. "nannyhub/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	Create(ctx context.Context, tx *gorm.DB, user *User) error
	ClearCache(ctx context.Context, id uuid.UUID)
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserRepository(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

// GetByID loads the user with its nanny profile, through the user cache.
func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	found, err := database.NewCacheBuilder(r.db.Cache.User, id).
		WithHash(constants.UserCachePrefix).
		WithContext(ctx).
		Get(&user)
	if err != nil {
		log.Warn("failed to read user cache", "userID", id, "error", err)
	}
	if found {
		return &user, nil
	}

	if err := tx.WithContext(ctx).Preload("Nanny").First(&user, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get user by id", translate(err), "userID", id)
	}

	if err := database.NewCacheBuilder(r.db.Cache.User, id).
		WithHash(constants.UserCachePrefix).
		WithStruct(&user).
		WithTTL(constants.UserCacheExpiry).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to add user to cache", "userID", id, "error", err)
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		return log.Err("failed to create user", err, "email", user.Email)
	}
	return nil
}

func (r *userRepository) ClearCache(ctx context.Context, id uuid.UUID) {
	if err := database.NewCacheBuilder(r.db.Cache.User, id).
		WithHash(constants.UserCachePrefix).
		WithContext(ctx).
		Delete(); err != nil {
		r.log.Function("ClearCache").Warn("failed to clear user cache", "userID", id, "error", err)
	}
}
