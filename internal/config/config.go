package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	insecureJWTSecret = "supersecretkey"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	Addr           string           `yaml:"addr"`
	JWTSecret      string           `yaml:"jwt_secret"`
	APITimeout     time.Duration    `yaml:"timeout"`
	DatabasePath   string           `yaml:"database_path"`
	TokenDuration  time.Duration    `yaml:"token_duration"`
	NonceDuration  time.Duration    `yaml:"nonce_duration"`
	DashboardSlug  string           `yaml:"dashboard_slug"`
	MigrateOnStart bool             `yaml:"migrate_on_start"`
	Storage        StorageConfig    `yaml:"storage"`
	Completion     CompletionConfig `yaml:"completion"`
	Upload         UploadConfig     `yaml:"upload"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"`
	PostgresURL string `yaml:"postgres_url"`
}

// CompletionConfig describes the chat-completion backend used to draft bids.
type CompletionConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type UploadConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	MaxExcerpt   int   `yaml:"max_excerpt"`
}

// MaxRequestBytes bounds a whole generate_bid request: three files plus form fields.
func (u UploadConfig) MaxRequestBytes() int64 {
	return 3*u.MaxFileBytes + 1<<20
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:           getEnv("BIDS_ADDR", ":8080"),
		JWTSecret:      getEnv("BIDS_JWT_SECRET", insecureJWTSecret),
		APITimeout:     2 * time.Minute,
		DatabasePath:   getEnv("BIDS_DATABASE_PATH", "bids.db"),
		TokenDuration:  1 * time.Hour,
		NonceDuration:  12 * time.Hour,
		DashboardSlug:  "bidding-dashboard",
		MigrateOnStart: true,
		Storage: StorageConfig{
			Driver:      DriverSQLite,
			PostgresURL: os.Getenv("BIDS_POSTGRES_URL"),
		},
		Completion: CompletionConfig{
			Provider:    ProviderOpenAI,
			APIKey:      os.Getenv("BIDS_API_KEY"),
			Model:       "gpt-4o",
			MaxTokens:   1000,
			Temperature: 0.7,
			Timeout:     90 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileBytes: 100 << 20,
			MaxExcerpt:   2000,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate fills zero values with defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.JWTSecret == insecureJWTSecret && !isDevelopment() {
		return errors.New("jwt_secret uses the insecure default; set BIDS_JWT_SECRET or BIDS_ENV=development")
	}

	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 2 * time.Minute
	}
	if c.TokenDuration <= 0 {
		c.TokenDuration = 1 * time.Hour
	}
	if c.NonceDuration <= 0 {
		c.NonceDuration = 12 * time.Hour
	}
	if c.DashboardSlug == "" {
		c.DashboardSlug = "bidding-dashboard"
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DriverSQLite
		fallthrough
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("database_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	cc := &c.Completion
	switch cc.Provider {
	case "":
		cc.Provider = ProviderOpenAI
		fallthrough
	case ProviderOpenAI:
		if cc.BaseURL == "" {
			cc.BaseURL = "https://api.openai.com/v1"
		}
	case ProviderOllama:
		if cc.BaseURL == "" {
			cc.BaseURL = "http://localhost:11434"
		}
	default:
		return fmt.Errorf("unknown completion provider %q", cc.Provider)
	}
	if cc.Model == "" {
		return errors.New("completion.model is required")
	}
	if cc.MaxTokens <= 0 {
		return fmt.Errorf("completion.max_tokens must be positive, got %d", cc.MaxTokens)
	}
	if cc.Temperature < 0 || cc.Temperature > 2 {
		return fmt.Errorf("completion.temperature must be within [0, 2], got %v", cc.Temperature)
	}
	if cc.Timeout <= 0 {
		cc.Timeout = 90 * time.Second
	}

	if c.Upload.MaxFileBytes <= 0 {
		c.Upload.MaxFileBytes = 100 << 20
	}
	if c.Upload.MaxExcerpt <= 0 {
		c.Upload.MaxExcerpt = 2000
	}

	return nil
}

func isDevelopment() bool {
	return os.Getenv("BIDS_ENV") == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
