package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values applied before files and environment variables.
var defaults = map[string]any{
	"server.port":                 8080,
	"server.log_level":            "info",
	"storage.driver":              "postgres",
	"redis.db":                    0,
	"redis.pool_ttl":              10 * time.Minute,
	"auth.token_lifetime_minutes": 60,
	"quiz.first_level":            1,
	"quiz.unlock_threshold":       70,
	"quiz.review_intervals":       []int{1, 3, 7, 14, 30, 90},
	"quiz.max_batch_size":         50,
	"quiz.max_retries":            3,
	"quiz.retry_base_delay":       50 * time.Millisecond,
}

// Keys bound explicitly so they are found even when no config file sets them.
var envKeys = []string{
	"server.port",
	"server.log_level",
	"storage.driver",
	"storage.fixture_path",
	"database.url",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.pool_ttl",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"quiz.first_level",
	"quiz.unlock_threshold",
	"quiz.review_intervals",
	"quiz.max_batch_size",
	"quiz.max_retries",
	"quiz.retry_base_delay",
}

// Load configuration from environment variables and an optional config.yaml
// in the working directory. Environment variables (SCRY_ prefix, dots replaced
// by underscores) take precedence over file values.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		envVar := "SCRY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a configuration against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.Storage.Driver == "postgres" && cfg.Database.URL == "" {
		return fmt.Errorf("configuration validation failed: database.url is required for the postgres driver")
	}

	for i := 1; i < len(cfg.Quiz.ReviewIntervals); i++ {
		if cfg.Quiz.ReviewIntervals[i] <= cfg.Quiz.ReviewIntervals[i-1] {
			return fmt.Errorf("configuration validation failed: quiz.review_intervals must be strictly ascending")
		}
	}

	return nil
}
