package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. EXPO_DATABASE_URL.
const EnvPrefix = "EXPO"

var defaults = map[string]any{
	"server.port":                        8080,
	"server.log_level":                   "info",
	"server.webhook_rate_per_second":     5.0,
	"server.webhook_burst":               10,
	"server.shutdown_timeout_seconds":    10,
	"database.max_open_conns":            25,
	"database.max_idle_conns":            25,
	"database.conn_max_lifetime_minutes": 5,
	"auth.token_lifetime_minutes":        60,
	"auth.admin_external_ids":            []string{},
	"sweep.enabled":                      true,
	"sweep.at":                           "03:00",
	"sweep.batch_size":                   500,
	"sweep.lock_ttl_seconds":             300,
	"redis.db":                           0,
	"redis.channel":                      "subscription-events",
	"tracing.enabled":                    false,
	"tracing.exporter":                   "stdout",
	"tracing.service_name":               "expoiosweb",
	"tracing.sample_ratio":               1.0,
}

// Keys without defaults still need to be bound so AutomaticEnv sees them on Unmarshal.
var boundKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"redis.addr",
	"redis.password",
	"tracing.endpoint",
}

// Load configuration from environment variables and optionally config files.
// A .env file in the working directory is loaded first without overriding
// variables already set. Environment variables take precedence over values
// from config.yaml. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return load(".")
}

func load(configDir string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
