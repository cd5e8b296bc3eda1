// Package config loads the blog's settings from config.yaml, .env and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderLangbase = "langbase"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"

	PolicySilent   = "silent"
	PolicyExplicit = "explicit"

	DefaultLangbaseEndpoint = "https://api.langbase.com/beta/generate"
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultGeminiModel      = "gemini-2.5-flash"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Generation GenerationConfig
	// ErrorPolicy is PolicySilent or PolicyExplicit.
	ErrorPolicy string
	// ListingYear is the calendar year served by /years-posts when the request
	// does not name one.
	ListingYear int
}

type ServerConfig struct {
	Port        string
	TemplateDir string
}

type DatabaseConfig struct {
	Driver string
	// Path is the sqlite file.
	Path string
	// URL is the postgres connection string.
	URL string
}

type GenerationConfig struct {
	Provider string
	Timeout  time.Duration

	Endpoint string
	Token    string

	OpenAI OpenAIConfig
	Gemini GeminiConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// env names kept from the deployment the app grew out of
var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.templates":        "TEMPLATE_DIR",
	"database.driver":         "DB_DRIVER",
	"database.path":           "DB_PATH",
	"database.url":            "DATABASE_URL",
	"generation.provider":     "LLM_PROVIDER",
	"generation.endpoint":     "LANGBASE_ENDPOINT",
	"generation.token":        "LANGBASE_TOKEN",
	"generation.timeout":      "GENERATION_TIMEOUT",
	"generation.openai.key":   "OPENAI_API_KEY",
	"generation.openai.model": "OPENAI_MODEL",
	"generation.openai.url":   "OPENAI_BASE_URL",
	"generation.gemini.key":   "GEMINI_API_KEY",
	"generation.gemini.model": "GEMINI_MODEL",
	"errors.policy":           "ERROR_POLICY",
	"listing.year":            "LISTING_YEAR",
}

// Load builds a Config from config.yaml in the working directory (optional)
// and the environment. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.templates", "web/templates")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "blog.db")
	v.SetDefault("generation.provider", ProviderLangbase)
	v.SetDefault("generation.endpoint", DefaultLangbaseEndpoint)
	v.SetDefault("generation.timeout", 30*time.Second)
	v.SetDefault("generation.openai.model", DefaultOpenAIModel)
	v.SetDefault("generation.gemini.model", DefaultGeminiModel)
	v.SetDefault("errors.policy", PolicySilent)
	v.SetDefault("listing.year", 2024)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
		log.Printf("[config] no config file found, using environment and defaults")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        strings.TrimSpace(v.GetString("server.port")),
			TemplateDir: v.GetString("server.templates"),
		},
		Database: DatabaseConfig{
			Driver: normalize(v.GetString("database.driver")),
			Path:   v.GetString("database.path"),
			URL:    v.GetString("database.url"),
		},
		Generation: GenerationConfig{
			Provider: normalize(v.GetString("generation.provider")),
			Timeout:  v.GetDuration("generation.timeout"),
			Endpoint: strings.TrimSpace(v.GetString("generation.endpoint")),
			Token:    strings.TrimSpace(v.GetString("generation.token")),
			OpenAI: OpenAIConfig{
				APIKey:  strings.TrimSpace(v.GetString("generation.openai.key")),
				Model:   strings.TrimSpace(v.GetString("generation.openai.model")),
				BaseURL: strings.TrimSpace(v.GetString("generation.openai.url")),
			},
			Gemini: GeminiConfig{
				APIKey: strings.TrimSpace(v.GetString("generation.gemini.key")),
				Model:  strings.TrimSpace(v.GetString("generation.gemini.model")),
			},
		},
		ErrorPolicy: normalize(v.GetString("errors.policy")),
		ListingYear: v.GetInt("listing.year"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("config: DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}

	switch c.Generation.Provider {
	case ProviderLangbase, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown generation provider %q", c.Generation.Provider)
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("config: generation.timeout must be positive, got %s", c.Generation.Timeout)
	}

	switch c.ErrorPolicy {
	case PolicySilent, PolicyExplicit:
	default:
		return fmt.Errorf("config: unknown error policy %q", c.ErrorPolicy)
	}

	if c.ListingYear < 1 || c.ListingYear > 9999 {
		return fmt.Errorf("config: listing.year out of range: %d", c.ListingYear)
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
