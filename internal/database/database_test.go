package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nannyhub/config"
)

func TestCacheConstants(t *testing.T) {
	assert.Equal(t, 0, GENERAL_CACHE_INDEX)
	assert.Equal(t, 1, USER_CACHE_INDEX)
	assert.Equal(t, 2, EVENTS_CACHE_INDEX)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.Config{
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "nanny",
		DatabasePassword: "secret",
		DatabaseName:     "nannyhub",
	})
	assert.Equal(t, "host=db port=5432 user=nanny password=secret dbname=nannyhub sslmode=disable TimeZone=UTC", dsn)
}

func TestCacheBuilderKeys(t *testing.T) {
	id := uuid.MustParse("0190f1d2-7a4b-7c3d-8e9f-0a1b2c3d4e5f")

	assert.Equal(t, "user:"+id.String(), NewCacheBuilder(nil, id).WithHash("user").Key())
	assert.Equal(t, "health", NewCacheBuilder(nil, "health").WithHash("").Key())
	assert.Equal(t, "", NewCacheBuilder(nil, uuid.Nil).WithHash("user").Key())
}

func TestCacheBuilderWithoutClient(t *testing.T) {
	ctx := context.Background()

	var out map[string]string
	found, err := NewCacheBuilder(nil, "k").WithContext(ctx).Get(&out)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, NewCacheBuilder(nil, "k").WithStruct(map[string]string{"a": "b"}).Set())
	assert.NoError(t, NewCacheBuilder(nil, "k").Delete())

	assert.ErrorIs(t, NewCacheBuilder(nil, uuid.Nil).WithStruct(1).Set(), ErrCacheKeyRequired)
	assert.Error(t, NewCacheBuilder(nil, "k").Set())
	assert.Error(t, NewCacheBuilder(nil, "k").WithStruct(func() {}).Set())
}

func TestAutoMigrate(t *testing.T) {
	sql, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	require.NoError(t, err)
	sqlDB, err := sql.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, AutoMigrate(sql))
	// idempotent
	require.NoError(t, AutoMigrate(sql))

	for _, table := range []string{
		"users", "nannies", "bookings", "appointments", "addresses",
		"nanny_qualities", "booking_children", "booking_careers",
	} {
		assert.True(t, sql.Migrator().HasTable(table), table)
	}
	assert.True(t, sql.Migrator().HasIndex("appointments", "idx_appointments_active_nanny"))

	db := NewWithSQL(sql)
	assert.NoError(t, db.Ping(context.Background()))
}
