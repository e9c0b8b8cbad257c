package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Backends accepted by DATA_BACKEND.
var Backends = []string{"memory", "sqlite", "postgres"}

type Config struct {
	// HTTP Server
	Port               string `toml:"port"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
	MetricsEnabled     bool   `toml:"metrics_enabled"`

	// Storage
	DataBackend  string `toml:"data_backend"`
	DataDir      string `toml:"data_dir"`
	SQLiteDBPath string `toml:"sqlite_db_path"`
	DatabaseURL  string `toml:"database_url"`

	// AMQP (optional)
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Exchange rates
	RatesURL             string        `toml:"rates_url"`
	RatesBase            string        `toml:"rates_base"`
	RatesJSONPath        string        `toml:"rates_json_path"`
	RatesRefreshInterval time.Duration `toml:"rates_refresh_interval"`

	// Dashboard
	SummaryRefreshInterval time.Duration `toml:"summary_refresh_interval"`
	DisplayCurrency        string        `toml:"display_currency"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:                   "8081",
		RateLimitPerMinute:     60,
		MetricsEnabled:         true,
		DataBackend:            "memory",
		DataDir:                "data",
		SQLiteDBPath:           "./data/fintrack.db",
		AMQPExchange:           "fintrack",
		AMQPQueue:              "ledger_activity",
		RatesURL:               "https://api.frankfurter.dev/v1/latest",
		RatesBase:              "HKD",
		RatesJSONPath:          "$.rates",
		RatesRefreshInterval:   10 * time.Minute,
		SummaryRefreshInterval: 60 * time.Second,
		DisplayCurrency:        "USD",
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Load reads the environment on top of the defaults.
func Load() *Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile decodes a TOML file over the defaults, then applies the
// environment, which always wins. An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.RatesURL = getEnv("RATES_URL", c.RatesURL)
	c.RatesBase = strings.ToUpper(getEnv("RATES_BASE", c.RatesBase))
	c.RatesJSONPath = getEnv("RATES_JSON_PATH", c.RatesJSONPath)
	c.RatesRefreshInterval = getEnvDuration("RATES_REFRESH_INTERVAL", c.RatesRefreshInterval)

	c.SummaryRefreshInterval = getEnvDuration("SUMMARY_REFRESH_INTERVAL", c.SummaryRefreshInterval)
	c.DisplayCurrency = strings.ToUpper(getEnv("DISPLAY_CURRENCY", c.DisplayCurrency))

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL '%s': must be a postgres:// URL", c.DatabaseURL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if u, err := url.Parse(c.RatesURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid rates URL '%s': must be http or https", c.RatesURL))
	}
	if len(c.RatesBase) != 3 {
		errors = append(errors, fmt.Sprintf("invalid rates base '%s': must be a 3-letter currency code", c.RatesBase))
	}
	if !strings.HasPrefix(c.RatesJSONPath, "$") {
		errors = append(errors, fmt.Sprintf("invalid rates JSON path '%s': must start with $", c.RatesJSONPath))
	}
	if c.RatesRefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rates refresh interval %v: must be at least 1 minute", c.RatesRefreshInterval))
	}
	if c.SummaryRefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary refresh interval %v: must be at least 1 second", c.SummaryRefreshInterval))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
