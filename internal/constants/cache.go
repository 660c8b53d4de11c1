package constants

import "time"

const (
	// User rows cached by id for the auth middleware (CacheBuilder adds colon)
	UserCachePrefix = "user"
	UserCacheExpiry = 15 * time.Minute
)
