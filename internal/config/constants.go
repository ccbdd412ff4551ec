package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 120 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 130 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Chat turn limits
const (
	MaxMessageLength    = 1000
	ChatHistoryWindow   = 20
	ChatLockWait        = 10 * time.Second
	ChatRateLimitWindow = time.Minute
)

// Request body limit for JSON APIs
const MaxRequestBodySize = 10 << 20 // 10MB
