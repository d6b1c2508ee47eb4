package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStoreBackend            = StoreMongo
	DefaultLockBackend             = LockMongo
	DefaultLockWaitTimeout         = 5 * time.Second
	DefaultLockTTL                 = 15 * time.Second
	DefaultOverlapMode             = "closed"
	DefaultTimeZone                = "UTC"
	DefaultCompletionSweepInterval = 1 * time.Hour

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaReservationTopic    = "reservations.events"
	DefaultKafkaReservationDLQTopic = "reservations.events.dlq"

	DefaultCORSAllowedOrigins = "*"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	LockMemory = "memory"
	LockMongo  = "mongo"
	LockRedis  = "redis"
)
