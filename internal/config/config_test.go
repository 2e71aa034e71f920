package config

import "testing"

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DB_DSN")
	}
}

func TestLoadRequiresCloudinaryCredentials(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/photos?parseTime=true")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without cloudinary api key")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/photos?parseTime=true")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
	t.Setenv("APP_ENV", "")
	t.Setenv("BIND", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:4321")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bind != DefaultBind {
		t.Fatalf("bind default expected %q got %q", DefaultBind, cfg.Bind)
	}
	if cfg.Production() {
		t.Fatalf("development env should not report production")
	}
	if cfg.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Fatalf("upload cap default expected %d got %d", DefaultMaxUploadBytes, cfg.MaxUploadBytes)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:4321" {
		t.Fatalf("cors origins not trimmed: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestProduction(t *testing.T) {
	cfg := &Config{Environment: "Production"}
	if !cfg.Production() {
		t.Fatalf("expected production to be case-insensitive")
	}
}
