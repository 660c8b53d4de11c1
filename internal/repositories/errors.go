package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"nannyhub/internal/types"
)

const pgExclusionViolation = "23P01"

// translate maps persistence failures onto the domain taxonomy. Anything
// else passes through untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", types.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return fmt.Errorf("%w: %s", types.ErrNoLongerAvailable, pgErr.ConstraintName)
	}

	return err
}
