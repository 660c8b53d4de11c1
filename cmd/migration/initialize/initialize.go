package initialize

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"

	"nannyhub/config"
	"nannyhub/internal/repositories"
)

var (
	Qualities = []string{"Patient", "Bilingual", "Creative", "Sporty", "Non-smoker", "Pet friendly"}
	Courses   = []string{"First aid", "Pediatric CPR", "Early childhood education", "Special needs care"}
	Careers   = []string{"Nurse", "Teacher", "Psychologist", "Speech therapist"}
)

// InitializeTables inserts the reference rows every environment needs.
// Rerunning it is safe.
func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing reference data", "environment", config.Environment)

	references := repositories.NewReferenceRepository()
	if err := references.SeedNames(context.Background(), db, Qualities, Courses, Careers); err != nil {
		return log.Err("failed to initialize reference data", err)
	}

	log.Info("Table initialization complete")
	return nil
}
