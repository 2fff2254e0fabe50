package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Quiz     QuizConfig     `mapstructure:"quiz"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "postgres" for production or "memory" for local runs with a fixture pool.
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres"`
	// FixturePath is an optional JSON file of questions loaded by the memory driver.
	FixturePath string `mapstructure:"fixture_path"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// URL is required when storage.driver is postgres.
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// RedisConfig configures the optional question pool cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"       validate:"gte=0"`
	PoolTTL  time.Duration `mapstructure:"pool_ttl" validate:"gte=0"`
}

// AuthConfig contains the settings used to verify learner tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes bounds tokens minted by the dev-token tool.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// QuizConfig tunes the progression engine.
type QuizConfig struct {
	FirstLevel      int           `mapstructure:"first_level"      validate:"required,gt=0"`
	UnlockThreshold int           `mapstructure:"unlock_threshold" validate:"gt=0,lte=100"`
	ReviewIntervals []int         `mapstructure:"review_intervals" validate:"required,min=1,dive,gt=0"`
	MaxBatchSize    int           `mapstructure:"max_batch_size"   validate:"required,gt=0"`
	MaxRetries      uint64        `mapstructure:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay" validate:"gt=0"`
}
