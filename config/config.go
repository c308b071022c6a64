// Package config loads client settings from the environment or a TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cyp0633/caldora-client/davclient"
	"github.com/joho/godotenv"
)

var (
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration value")
)

// Config holds everything needed to build a davclient.Client.
type Config struct {
	URI                string `toml:"uri"`
	ProxyURI           string `toml:"proxy_uri"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	AuthType           string `toml:"auth_type"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`

	Timeout        Duration `toml:"timeout"`
	RetryAttempts  int      `toml:"retry_attempts"`
	RetryDelay     Duration `toml:"retry_delay"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
	UpdateStrategy string   `toml:"update_strategy"`
}

// Duration is a time.Duration written as "30s" or "1m30s" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// FromEnv loads configuration from CALDAV_* environment variables.
// It attempts to load from .env file first, but continues if not found.
func FromEnv() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{
		URI:            os.Getenv("CALDAV_URI"),
		ProxyURI:       os.Getenv("CALDAV_PROXY_URI"),
		Username:       os.Getenv("CALDAV_USERNAME"),
		Password:       os.Getenv("CALDAV_PASSWORD"),
		AuthType:       getEnv("CALDAV_AUTH_TYPE", string(davclient.AuthBasic)),
		UpdateStrategy: getEnv("CALDAV_UPDATE_STRATEGY", "overwrite"),
	}

	var err error
	if cfg.InsecureSkipVerify, err = getEnvBool("CALDAV_INSECURE_SKIP_VERIFY", false); err != nil {
		return nil, fmt.Errorf("%w: CALDAV_INSECURE_SKIP_VERIFY: %w", ErrInvalidConfig, err)
	}
	if cfg.Timeout.Duration, err = getEnvDuration("CALDAV_TIMEOUT", 0); err != nil {
		return nil, fmt.Errorf("%w: CALDAV_TIMEOUT: %w", ErrInvalidConfig, err)
	}
	if cfg.RetryAttempts, err = getEnvInt("CALDAV_RETRY_ATTEMPTS", davclient.DefaultAttempts); err != nil {
		return nil, fmt.Errorf("%w: CALDAV_RETRY_ATTEMPTS: %w", ErrInvalidConfig, err)
	}
	if cfg.RetryDelay.Duration, err = getEnvDuration("CALDAV_RETRY_DELAY", 0); err != nil {
		return nil, fmt.Errorf("%w: CALDAV_RETRY_DELAY: %w", ErrInvalidConfig, err)
	}
	if cfg.RateLimitRPS, err = getEnvFloat("CALDAV_RATE_LIMIT_RPS", 0); err != nil {
		return nil, fmt.Errorf("%w: CALDAV_RATE_LIMIT_RPS: %w", ErrInvalidConfig, err)
	}
	if cfg.RateLimitBurst, err = getEnvInt("CALDAV_RATE_LIMIT_BURST", 1); err != nil {
		return nil, fmt.Errorf("%w: CALDAV_RATE_LIMIT_BURST: %w", ErrInvalidConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile loads configuration from a TOML file
func FromFile(path string) (*Config, error) {
	cfg := &Config{
		RetryAttempts:  davclient.DefaultAttempts,
		RateLimitBurst: 1,
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.URI == "" {
		missing = append(missing, "uri")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1", ErrInvalidConfig)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}
	if _, err := davclient.ParseUpdateStrategy(c.UpdateStrategy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := davclient.ParseAuthType(c.AuthType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Settings returns the construction inputs of a davclient.Client
func (c *Config) Settings() davclient.Settings {
	return davclient.Settings{
		URI:                c.URI,
		ProxyURI:           c.ProxyURI,
		Username:           c.Username,
		Password:           c.Password,
		AuthType:           c.AuthType,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// Options translates the tuning knobs into client options
func (c *Config) Options(logger *slog.Logger) []davclient.Option {
	opts := []davclient.Option{
		davclient.WithLogger(logger),
		davclient.WithRetry(davclient.RetryPolicy{
			Attempts: c.RetryAttempts,
			Delay:    c.RetryDelay.Duration,
		}),
	}
	if c.Timeout.Duration > 0 {
		opts = append(opts, davclient.WithTimeout(c.Timeout.Duration))
	}
	if c.RateLimitRPS > 0 {
		burst := c.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, davclient.WithRateLimit(c.RateLimitRPS, burst))
	}
	// validate has already accepted the strategy
	strategy, _ := davclient.ParseUpdateStrategy(c.UpdateStrategy)
	return append(opts, davclient.WithUpdateStrategy(strategy))
}

// NewClient builds a client from the configuration
func (c *Config) NewClient(logger *slog.Logger) (*davclient.Client, error) {
	return davclient.NewClient(c.Settings(), c.Options(logger)...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float: %w", err)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean: %w", err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	return parsed, nil
}
