package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"staybook/pkg/client"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	StoreBackend            string
	LockBackend             string
	LockWaitTimeout         time.Duration
	LockTTL                 time.Duration
	OverlapMode             string
	OverlapPolicy           model.OverlapPolicy
	TimeZone                string
	Location                *time.Location
	CompletionSweepInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaEnabled             bool
	KafkaReservationTopic    string
	KafkaReservationDLQTopic string

	CORSAllowedOrigins []string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration from the environment. A .env file (or the file
// named by DOTENV_FILE) is loaded first when present; real environment
// variables always win over it.
func Load(serviceName string) *Config {
	dotenvErr := loadDotEnv()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		StoreBackend:            strings.ToLower(getEnvStr(EnvStoreBackend, DefaultStoreBackend)),
		LockBackend:             strings.ToLower(getEnvStr(EnvLockBackend, DefaultLockBackend)),
		LockWaitTimeout:         getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		LockTTL:                 getEnvDuration(EnvLockTTL, DefaultLockTTL),
		OverlapMode:             strings.ToLower(getEnvStr(EnvOverlapMode, DefaultOverlapMode)),
		TimeZone:                getEnvStr(EnvTimeZone, DefaultTimeZone),
		CompletionSweepInterval: getEnvDuration(EnvCompletionSweepInterval, DefaultCompletionSweepInterval),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		KafkaEnabled:             getEnvBool(EnvKafkaEnabled, false),
		KafkaReservationTopic:    getEnvStr(EnvKafkaReservationTopic, DefaultKafkaReservationTopic),
		KafkaReservationDLQTopic: getEnvStr(EnvKafkaReservationDLQTopic, DefaultKafkaReservationDLQTopic),

		CORSAllowedOrigins: sanitizer.SanitizeSlice(strings.Split(getEnvStr(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins), ","), strings.TrimSpace),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if dotenvErr != nil {
		cfg.Log.Warn("Failed to load .env file", "error", dotenvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func loadDotEnv() error {
	path := getEnvStr(EnvDotEnvFile, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// NeedsMongo reports whether any configured backend stores data in MongoDB.
func (cfg *Config) NeedsMongo() bool {
	return cfg.StoreBackend == StoreMongo || cfg.LockBackend == LockMongo
}

// Validate checks every setting and reports all problems at once. It also
// resolves OverlapPolicy and Location from their textual forms.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"LockWaitTimeout", cfg.LockWaitTimeout},
		{"LockTTL", cfg.LockTTL},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.LockTTL > 0 && cfg.LockWaitTimeout > 0 && cfg.LockTTL < cfg.LockWaitTimeout {
		errors = append(errors, fmt.Sprintf("LockTTL (%s) must be >= LockWaitTimeout (%s)", cfg.LockTTL, cfg.LockWaitTimeout))
	}
	if cfg.CompletionSweepInterval < 0 {
		errors = append(errors, fmt.Sprintf("CompletionSweepInterval cannot be negative, got: %s", cfg.CompletionSweepInterval))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	switch cfg.StoreBackend {
	case StoreMongo, StoreMemory:
	default:
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [mongo, memory], got: %s", cfg.StoreBackend))
	}
	switch cfg.LockBackend {
	case LockMemory, LockMongo, LockRedis:
	default:
		errors = append(errors, fmt.Sprintf("LockBackend must be one of [memory, mongo, redis], got: %s", cfg.LockBackend))
	}
	if cfg.LockBackend == LockRedis && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when LockBackend is redis")
	}

	policy, err := model.ParseOverlapPolicy(cfg.OverlapMode)
	if err != nil {
		errors = append(errors, err.Error())
	}
	cfg.OverlapPolicy = policy

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be a valid IANA zone, got: %s", cfg.TimeZone))
		loc = time.UTC
	}
	cfg.Location = loc

	if cfg.KafkaEnabled && cfg.KafkaReservationTopic == "" {
		errors = append(errors, "KafkaReservationTopic cannot be empty when Kafka is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"store_backend", cfg.StoreBackend,
		"lock_backend", cfg.LockBackend,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"lock_ttl", cfg.LockTTL,
		"overlap_mode", cfg.OverlapPolicy.String(),
		"timezone", cfg.TimeZone,
		"completion_sweep_interval", cfg.CompletionSweepInterval,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_reservation_topic", cfg.KafkaReservationTopic,
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
	)
}

// Today returns the current calendar day in the configured time zone.
func (cfg *Config) Today(now time.Time) model.Date {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return model.DateOf(now.In(loc))
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
