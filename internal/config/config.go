package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth" validate:"required"`
	Jobs         JobsConfig         `mapstructure:"jobs" validate:"required"`
	Notification NotificationConfig `mapstructure:"notification" validate:"required"`
	Analytics    AnalyticsConfig    `mapstructure:"analytics" validate:"required"`
	Retention    RetentionConfig    `mapstructure:"retention" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// LogFile, when set, receives a rotated copy of the JSON log stream.
	LogFile string `mapstructure:"log_file"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// JobsConfig controls the background job runner and scheduler.
type JobsConfig struct {
	WorkerCount           int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize             int `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckJobAgeMinutes    int `mapstructure:"stuck_job_age_minutes" validate:"required,gt=0"`
	ScanIntervalSeconds   int `mapstructure:"scan_interval_seconds" validate:"required,gt=0"`
	DispatchRatePerMinute int `mapstructure:"dispatch_rate_per_minute" validate:"required,gt=0"`
}

// NotificationConfig configures delivery to the notification service.
type NotificationConfig struct {
	BaseURL          string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryBaseSeconds int    `mapstructure:"retry_base_seconds" validate:"required,gt=0"`
	MaxAttempts      int    `mapstructure:"max_attempts" validate:"required,gt=0"`
}

// AnalyticsConfig configures delivery to the analytics service.
type AnalyticsConfig struct {
	BaseURL          string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryBaseSeconds int    `mapstructure:"retry_base_seconds" validate:"required,gt=0"`
	MaxAttempts      int    `mapstructure:"max_attempts" validate:"required,gt=0"`
}

// RetentionConfig controls purging of soft-deleted tasks.
type RetentionConfig struct {
	GracePeriodDays int `mapstructure:"grace_period_days" validate:"required,gt=0"`
	BatchSize       int `mapstructure:"batch_size" validate:"required,gt=0"`
}

// Timeout returns the per-request timeout.
func (c NotificationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBase returns the first backoff interval.
func (c NotificationConfig) RetryBase() time.Duration {
	return time.Duration(c.RetryBaseSeconds) * time.Second
}

// Timeout returns the per-request timeout.
func (c AnalyticsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBase returns the first backoff interval.
func (c AnalyticsConfig) RetryBase() time.Duration {
	return time.Duration(c.RetryBaseSeconds) * time.Second
}

// GracePeriod returns how long soft-deleted tasks are kept.
func (c RetentionConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodDays) * 24 * time.Hour
}

// ScanInterval returns the scheduler tick.
func (c JobsConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// StuckJobAge returns how long a job may stay in processing before it is re-queued.
func (c JobsConfig) StuckJobAge() time.Duration {
	return time.Duration(c.StuckJobAgeMinutes) * time.Minute
}
