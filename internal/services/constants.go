package services

import (
	"fmt"

	"nannyhub/internal/types"
)

// ErrJobNotFound is returned when a job is triggered by an unknown name.
var ErrJobNotFound = fmt.Errorf("scheduled job %w", types.ErrNotFound)
