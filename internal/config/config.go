package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// S3 holds S3-compatible storage settings for evidence uploads.
type S3 struct {
	Endpoint      string `env:"ENDPOINT"`
	Bucket        string `env:"BUCKET"`
	Region        string `env:"REGION" envDefault:"auto"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

// Enabled reports whether enough settings are present to upload evidence.
func (s S3) Enabled() bool {
	return s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

type Gemini struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

type Seed struct {
	Days int   `env:"DAYS" envDefault:"30"`
	Seed int64 `env:"RANDOM_SEED" envDefault:"0"`
}

type Config struct {
	Port     string `env:"HAPPYLOOP_PORT" envDefault:"8080"`
	DBPath   string `env:"HAPPYLOOP_DB_PATH" envDefault:"happyloop.db"`
	LogLevel string `env:"HAPPYLOOP_LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"HAPPYLOOP_BASE_URL"`

	S3     S3 `envPrefix:"HAPPYLOOP_S3_"`
	Gemini Gemini
	Seed   Seed `envPrefix:"HAPPYLOOP_SEED_"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.Seed.Days <= 0 {
		return nil, fmt.Errorf("HAPPYLOOP_SEED_DAYS must be positive, got %d", cfg.Seed.Days)
	}
	return &cfg, nil
}
