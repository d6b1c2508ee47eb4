package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStoreBackend            = "STORE_BACKEND"
	EnvLockBackend             = "LOCK_BACKEND"
	EnvLockWaitTimeout         = "LOCK_WAIT_TIMEOUT"
	EnvLockTTL                 = "LOCK_TTL"
	EnvOverlapMode             = "OVERLAP_MODE"
	EnvTimeZone                = "TIMEZONE"
	EnvCompletionSweepInterval = "COMPLETION_SWEEP_INTERVAL"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaEnabled             = "KAFKA_ENABLED"
	EnvKafkaReservationTopic    = "KAFKA_RESERVATION_TOPIC"
	EnvKafkaReservationDLQTopic = "KAFKA_RESERVATION_DLQ_TOPIC"

	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvDotEnvFile = "DOTENV_FILE"
)
