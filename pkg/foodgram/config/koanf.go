package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config files searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/foodgram/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			BaseURL:         "",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "foodgram.db",
		},
		Auth: AuthConfig{
			JWTSecret: "",
			JWTTTL:    24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Backend:   "local",
			MediaRoot: "media",
			MediaURL:  "/media",
			S3Region:  "us-east-1",
		},
		API: APIConfig{
			PageSize:    6,
			MaxPageSize: 100,
		},
	}
}

// envMappings maps environment variables to koanf paths. Unlisted variables are ignored.
var envMappings = map[string]string{
	"port":               "server.port",
	"base_url":           "server.base_url",
	"shutdown_timeout":   "server.shutdown_timeout",
	"foodgram_db_driver": "database.driver",
	"foodgram_db_dsn":    "database.dsn",
	"jwt_secret":         "auth.jwt_secret",
	"jwt_ttl":            "auth.jwt_ttl",
	"log_level":          "logging.level",
	"log_format":         "logging.format",
	"storage_backend":    "storage.backend",
	"media_root":         "storage.media_root",
	"media_url":          "storage.media_url",
	"s3_bucket":          "storage.s3_bucket",
	"s3_region":          "storage.s3_region",
	"s3_endpoint":        "storage.s3_endpoint",
	"s3_access_key":      "storage.s3_access_key",
	"s3_secret_key":      "storage.s3_secret_key",
	"page_size":          "api.page_size",
	"max_page_size":      "api.max_page_size",
	"admin_email":        "admin.email",
	"admin_password":     "admin.password",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// Load builds the configuration: defaults, then the config file (if any),
// then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
