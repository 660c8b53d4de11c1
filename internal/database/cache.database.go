package database

import (
	"fmt"

	"github.com/valkey-io/valkey-go"

	"nannyhub/config"
)

// Valkey database indexes, one per cache category.
const (
	// GENERAL_CACHE_INDEX (DB 0) - health checks and miscellaneous keys
	GENERAL_CACHE_INDEX = iota

	// USER_CACHE_INDEX (DB 1) - actors resolved from bearer tokens
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX (DB 2) - appointment event pub/sub
	EVENTS_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Errorf("failed to initialize cache database", "address or port is empty")
	}

	clients := []struct {
		name   string
		index  int
		target *CacheClient
	}{
		{"general", GENERAL_CACHE_INDEX, &s.Cache.General},
		{"user", USER_CACHE_INDEX, &s.Cache.User},
		{"events", EVENTS_CACHE_INDEX, &s.Cache.Events},
	}

	for _, c := range clients {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
			SelectDB:    c.index,
		})
		if err != nil {
			return log.Err("failed to create valkey client", err, "cache", c.name)
		}
		*c.target = client
	}

	return nil
}
