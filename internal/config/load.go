package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKS_DATABASE_URL.
const EnvPrefix = "TASKS"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.log_file":                 "",
	"database.url":                    "",
	"auth.jwt_secret":                 "",
	"auth.token_lifetime_minutes":     60,
	"jobs.worker_count":               4,
	"jobs.queue_size":                 256,
	"jobs.stuck_job_age_minutes":      30,
	"jobs.scan_interval_seconds":      300,
	"jobs.dispatch_rate_per_minute":   600,
	"notification.base_url":           "http://localhost:8001",
	"notification.timeout_seconds":    10,
	"notification.retry_base_seconds": 60,
	"notification.max_attempts":       3,
	"analytics.base_url":              "http://localhost:8002",
	"analytics.timeout_seconds":       30,
	"analytics.retry_base_seconds":    60,
	"analytics.max_attempts":          3,
	"retention.grace_period_days":     30,
	"retention.batch_size":            500,
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory and environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
