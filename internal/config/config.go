package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// Per-client token bucket for the webhook endpoint.
	WebhookRatePerSecond float64 `mapstructure:"webhook_rate_per_second" validate:"gt=0"`
	WebhookBurst         int     `mapstructure:"webhook_burst" validate:"gt=0"`
	ShutdownTimeoutSecs  int     `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	// HS256 secret shared with the identity provider.
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
	// Token subjects allowed on the admin routes.
	AdminExternalIDs []string `mapstructure:"admin_external_ids"`
}

// SweepConfig controls the scheduled subscription expiry sweep.
type SweepConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	At             string `mapstructure:"at" validate:"required,datetime=15:04"`
	BatchSize      int    `mapstructure:"batch_size" validate:"gt=0"`
	LockTTLSeconds int    `mapstructure:"lock_ttl_seconds" validate:"gt=0"`
}

// RedisConfig is optional; an empty Addr disables the sweep lock and
// transition publishing.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Channel  string `mapstructure:"channel" validate:"required_with=Addr"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter" validate:"oneof=stdout otlp"`
	Endpoint    string  `mapstructure:"endpoint" validate:"required_if=Exporter otlp"`
	ServiceName string  `mapstructure:"service_name" validate:"required"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}
