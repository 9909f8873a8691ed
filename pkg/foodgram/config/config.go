// Package config loads server configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Logging  LoggingConfig  `koanf:"logging"`
	Storage  StorageConfig  `koanf:"storage"`
	API      APIConfig      `koanf:"api"`
	Admin    AdminConfig    `koanf:"admin"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	BaseURL         string        `koanf:"base_url"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	DSN    string `koanf:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	JWTTTL    time.Duration `koanf:"jwt_ttl"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StorageConfig selects where uploaded recipe images are written.
type StorageConfig struct {
	Backend   string `koanf:"backend"` // local or s3
	MediaRoot string `koanf:"media_root"`
	MediaURL  string `koanf:"media_url"`

	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
}

type APIConfig struct {
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`
}

// AdminConfig seeds an administrator account at startup when both fields are set.
type AdminConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported (sqlite, postgres)", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required for postgres"))
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.MediaRoot == "" {
			errs = append(errs, errors.New("storage.media_root is required for the local backend"))
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("storage.s3_bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not supported (local, s3)", c.Storage.Backend))
	}
	if c.API.PageSize <= 0 {
		errs = append(errs, errors.New("api.page_size must be positive"))
	}
	if c.API.MaxPageSize < c.API.PageSize {
		errs = append(errs, errors.New("api.max_page_size must be at least api.page_size"))
	}
	if c.Auth.JWTTTL <= 0 {
		errs = append(errs, errors.New("auth.jwt_ttl must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
