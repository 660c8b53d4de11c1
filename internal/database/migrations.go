package database

import (
	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"

	"nannyhub/internal/models"
)

// Models lists every table GORM manages, parents first.
func Models() []any {
	return []any{
		&models.User{},
		&models.Address{},
		&models.Quality{},
		&models.Course{},
		&models.Career{},
		&models.Nanny{},
		&models.Child{},
		&models.Booking{},
		&models.Appointment{},
	}
}

// JoinTables names the many-to-many link tables GORM creates alongside Models.
func JoinTables() []any {
	return []any{
		"nanny_qualities",
		"nanny_courses",
		"nanny_careers",
		"booking_children",
		"booking_qualities",
		"booking_courses",
		"booking_careers",
	}
}

// Portable indexes that AutoMigrate cannot express. The Postgres-only
// exclusion constraint lives in the SQL migrations.
var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_appointments_active_nanny ON appointments(nanny_id, start_at, end_at) WHERE status <> 'cancelled'",
	"CREATE INDEX IF NOT EXISTS idx_appointments_open_status ON appointments(status, end_at) WHERE status NOT IN ('completed', 'cancelled')",
}

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	return AutoMigrate(db.SQL)
}

func AutoMigrate(sql *gorm.DB) error {
	log := logger.New("database").Function("AutoMigrate")
	log.Info("Starting database migration")

	for _, model := range Models() {
		if err := sql.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	if err := CreateIndexes(sql); err != nil {
		return err
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func CreateIndexes(sql *gorm.DB) error {
	log := logger.New("database").Function("CreateIndexes")

	for _, indexSQL := range indexes {
		if err := sql.Exec(indexSQL).Error; err != nil {
			return log.Err("Failed to create index", err, "sql", indexSQL)
		}
	}

	return nil
}
