package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Dispatchers
const (
	DispatcherSimulated = "simulated"
	DispatcherEndpoint  = "endpoint"
	DispatcherTelegram  = "telegram"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment    string   `env:"ENV" envDefault:"development"`
	Port           string   `env:"API_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	CookieSecure   bool     `env:"COOKIE_SECURE" envDefault:"false"`
	MaxBodyBytes   int64    `env:"MAX_BODY_BYTES" envDefault:"65536"`

	// Logging Configuration
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	LogRequests bool   `env:"LOG_REQUESTS" envDefault:"false"`

	// Storage Configuration
	StoreDriver string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string        `env:"DATABASE_URL"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"./data/freightbridge.db"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// Contact Dispatch Configuration
	Dispatcher           string        `env:"CONTACT_DISPATCHER" envDefault:"simulated"`
	EndpointURL          string        `env:"CONTACT_ENDPOINT_URL"`
	SimulatedLatency     time.Duration `env:"SIMULATED_LATENCY" envDefault:"1s"`
	SimulatedFailureRate float64       `env:"SIMULATED_FAILURE_RATE" envDefault:"0.05"`
	TelegramBotToken     string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID       string        `env:"TELEGRAM_CHAT_ID"`

	// reCAPTCHA Configuration
	RecaptchaSecretKey string  `env:"RECAPTCHA_SECRET_KEY"`
	RecaptchaMinScore  float64 `env:"RECAPTCHA_MIN_SCORE" envDefault:"0.5"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	// Try multiple locations for .env file
	envLocations := []string{".env"}

	// If ENV is set, try to load that specific file first
	if envName := os.Getenv("ENV"); envName != "" {
		envLocations = append([]string{fmt.Sprintf(".env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.StoreDriver == StoreSQLite && cfg.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks option combinations that env tags cannot express.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.Dispatcher = strings.ToLower(strings.TrimSpace(c.Dispatcher))

	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Dispatcher {
	case DispatcherSimulated:
		if c.SimulatedFailureRate < 0 || c.SimulatedFailureRate > 1 {
			return fmt.Errorf("SIMULATED_FAILURE_RATE must be between 0 and 1")
		}
	case DispatcherEndpoint:
		if c.EndpointURL == "" {
			return fmt.Errorf("CONTACT_ENDPOINT_URL is required for the endpoint dispatcher")
		}
	case DispatcherTelegram:
		if c.TelegramBotToken == "" || c.TelegramChatID == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for the telegram dispatcher")
		}
	default:
		return fmt.Errorf("unknown CONTACT_DISPATCHER %q", c.Dispatcher)
	}

	return nil
}
