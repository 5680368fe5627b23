package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultSerperURL  = "https://google.serper.dev/maps"
	DefaultSerpAPIURL = "https://serpapi.com/search"
)

// ProviderConfig holds the endpoint and credential of one search provider.
// An empty APIKey leaves the provider inert.
type ProviderConfig struct {
	APIKey  string
	BaseURL string `validate:"required,url"`
}

// Config is the whole runtime configuration, read once at startup and passed
// to the providers and the store at construction time.
type Config struct {
	Serper  ProviderConfig
	SerpAPI ProviderConfig

	// Country is appended to every search query; Lang is sent as hl/gl.
	Country        string        `validate:"required"`
	Lang           string        `validate:"required"`
	RequestTimeout time.Duration `validate:"gt=0"`

	SupabaseURL string `validate:"omitempty,url"`
	SupabaseKey string
	// DatabaseURL switches the store to a direct Postgres connection.
	DatabaseURL string `validate:"omitempty,url"`

	JobID string

	// Unknown values fall back to info / json in NewLogger.
	LogLevel  string
	LogFormat string

	// Port is only used, and checked by ValidateServer, in the trigger API.
	Port int
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv and validates it.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return def
		}
		return v
	}

	timeout, err := time.ParseDuration(env("SCRAPER_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_REQUEST_TIMEOUT: %w", err)
	}
	port, err := strconv.Atoi(env("PORT", "8080"))
	if err != nil {
		port = 0
	}

	cfg := &Config{
		Serper: ProviderConfig{
			APIKey:  env("SERPER_API_KEY", ""),
			BaseURL: env("SERPER_URL", DefaultSerperURL),
		},
		SerpAPI: ProviderConfig{
			APIKey:  env("SERPAPI_API_KEY", ""),
			BaseURL: env("SERPAPI_URL", DefaultSerpAPIURL),
		},
		Country:        env("SCRAPER_COUNTRY", "France"),
		Lang:           env("SCRAPER_LANG", "fr"),
		RequestTimeout: timeout,
		SupabaseURL:    strings.TrimRight(env("SUPABASE_URL", ""), "/"),
		SupabaseKey:    env("SUPABASE_SERVICE_KEY", env("SUPABASE_SERVICE_ROLE_KEY", "")),
		DatabaseURL:    env("DATABASE_URL", ""),
		JobID:          env("SCRAPE_JOB_ID", ""),
		LogLevel:       strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(env("LOG_FORMAT", "json")),
		Port:           port,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ValidateServer checks the settings only the trigger API needs.
func (c *Config) ValidateServer() error {
	if err := validator.New().Var(c.Port, "min=1,max=65535"); err != nil {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port)
	}
	return nil
}
