// Package config loads runtime settings from the environment (LINKSHELF_
// prefix), an optional .env file and an optional linkshelf.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/linkshelf/linkshelf/internal/auth"
)

const firebaseIssuerPrefix = "https://securetoken.google.com/"

type Config struct {
	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
	}
	Store struct {
		// Backend is "sql" or "document".
		Backend string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Badger struct {
		Path       string
		GCInterval time.Duration
	}
	Auth struct {
		// Mode is "oidc" (discovery) or "jwks" (static key endpoint).
		Mode            string
		Issuer          string
		Audience        string
		JWKSURL         string
		FirebaseProject string
	}
	Links struct {
		URLUniqueness string
	}
	CORS struct {
		AllowedOrigins   []string
		AllowCredentials bool
	}
	Log struct {
		Level  string
		Format string
	}
	Tracing struct {
		Endpoint    string
		ServiceName string
	}
}

// Load reads config from .env, the environment (LINKSHELF_ prefix) and optional linkshelf.yaml.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LINKSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("linkshelf")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("store.backend", "sql")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "file:linkshelf.db")
	v.SetDefault("badger.path", "./data/badger")
	v.SetDefault("badger.gc_interval", "10m")
	v.SetDefault("auth.mode", "oidc")
	v.SetDefault("auth.jwks_url", auth.FirebaseJWKSURL)
	v.SetDefault("links.url_uniqueness", "none")
	v.SetDefault("cors.allowed_origins", "http://localhost:4200")
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.service_name", "linkshelf")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.HTTP.ShutdownTimeout = v.GetDuration("http.shutdown_timeout")
	cfg.Store.Backend = v.GetString("store.backend")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Badger.Path = v.GetString("badger.path")
	cfg.Badger.GCInterval = v.GetDuration("badger.gc_interval")
	cfg.Auth.Mode = v.GetString("auth.mode")
	cfg.Auth.Issuer = v.GetString("auth.issuer")
	cfg.Auth.Audience = v.GetString("auth.audience")
	cfg.Auth.JWKSURL = v.GetString("auth.jwks_url")
	cfg.Auth.FirebaseProject = v.GetString("auth.firebase_project")
	cfg.Links.URLUniqueness = v.GetString("links.url_uniqueness")
	cfg.CORS.AllowedOrigins = stringList(v, "cors.allowed_origins")
	cfg.CORS.AllowCredentials = v.GetBool("cors.allow_credentials")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Tracing.Endpoint = v.GetString("tracing.endpoint")
	cfg.Tracing.ServiceName = v.GetString("tracing.service_name")

	if p := cfg.Auth.FirebaseProject; p != "" {
		if cfg.Auth.Issuer == "" {
			cfg.Auth.Issuer = firebaseIssuerPrefix + p
		}
		if cfg.Auth.Audience == "" {
			cfg.Auth.Audience = p
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.Store.Backend {
	case "sql":
		switch cfg.DB.Driver {
		case "sqlite3", "mysql", "postgres", "pgx":
		default:
			return fmt.Errorf("LINKSHELF_DB_DRIVER must be sqlite3, mysql, postgres, or pgx (got %q)", cfg.DB.Driver)
		}
		if cfg.DB.DSN == "" {
			return fmt.Errorf("LINKSHELF_DB_DSN is required")
		}
	case "document":
		if cfg.Badger.Path == "" {
			return fmt.Errorf("LINKSHELF_BADGER_PATH is required")
		}
	default:
		return fmt.Errorf("LINKSHELF_STORE_BACKEND must be sql or document (got %q)", cfg.Store.Backend)
	}

	switch cfg.Auth.Mode {
	case "oidc":
	case "jwks":
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("LINKSHELF_AUTH_JWKS_URL is required in jwks mode")
		}
	default:
		return fmt.Errorf("LINKSHELF_AUTH_MODE must be oidc or jwks (got %q)", cfg.Auth.Mode)
	}
	if cfg.Auth.Issuer == "" {
		return fmt.Errorf("LINKSHELF_AUTH_ISSUER or LINKSHELF_AUTH_FIREBASE_PROJECT is required")
	}
	if cfg.Auth.Audience == "" {
		return fmt.Errorf("LINKSHELF_AUTH_AUDIENCE or LINKSHELF_AUTH_FIREBASE_PROJECT is required")
	}

	// rs/cors treats an empty origin list as "allow all".
	if len(cfg.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("LINKSHELF_CORS_ALLOWED_ORIGINS must name at least one origin")
	}

	switch cfg.Links.URLUniqueness {
	case "none", "owner", "global":
	default:
		return fmt.Errorf("LINKSHELF_LINKS_URL_UNIQUENESS must be none, owner, or global (got %q)", cfg.Links.URLUniqueness)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LINKSHELF_LOG_FORMAT must be text or json (got %q)", cfg.Log.Format)
	}
	return nil
}

// stringList reads key as a YAML list or as a comma-separated string, the
// form environment variables take.
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitList(s)
	}
	return splitList(strings.Join(v.GetStringSlice(key), ","))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
