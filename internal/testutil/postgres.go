//go:build integration

package testutil

import (
	"context"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"nannyhub/internal/database"
)

// NewPostgresDB starts a throwaway Postgres, creates the schema and applies
// the SQL migrations found in migrationsDir.
func NewPostgresDB(t *testing.T, migrationsDir string) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("nannyhub"),
		tcpostgres.WithUsername("nannyhub"),
		tcpostgres.WithPassword("nannyhub"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable", "TimeZone=UTC")
	require.NoError(t, err)

	config := database.GormConfig()
	config.Logger = gormLogger.Discard
	db, err := gorm.Open(postgres.Open(dsn), config)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))

	_, err = migrate.Exec(sqlDB, "postgres", &migrate.FileMigrationSource{Dir: migrationsDir}, migrate.Up)
	require.NoError(t, err, "failed to apply sql migrations")

	return db
}
