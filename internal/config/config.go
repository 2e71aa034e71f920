// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultBind                 = ":5000"
	DefaultMaxUploadBytes int64 = 20 * 1024 * 1024
	DefaultUploadFolder         = "aldryck"

	EnvProduction = "production"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Bind        string `env:"BIND" envDefault:":5000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBDSN string `env:"DB_DSN"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	UploadFolder        string `env:"UPLOAD_FOLDER" envDefault:"aldryck"`
	MaxUploadBytes      int64  `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`

	// AdminToken gates mutating routes. It has no default on purpose:
	// absence disables the guard outside production and fails closed in it.
	AdminToken string `env:"ADMIN_TOKEN"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	SwaggerUIPath string `env:"-"`
	OpenAPIPath   string `env:"-"`
}

// Load reads the environment into a Config and validates the parts the
// process cannot run without.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.SwaggerUIPath = "/swagger"
	cfg.OpenAPIPath = "/openapi.yaml"

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	for i, o := range cfg.CORSAllowedOrigins {
		cfg.CORSAllowedOrigins[i] = strings.TrimSpace(o)
	}

	return cfg, nil
}

// Production reports whether the process runs with production semantics,
// which makes the admin guard fail closed when unconfigured.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}
