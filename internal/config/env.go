package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Resolve loads the config file at path (the default path when empty),
// falling back to defaults on first run, then applies .env and environment
// overrides. A missing config file is written out with defaults.
func Resolve(path string, log *zap.Logger) (*Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := LoadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		// First run - create default config
		cfg = Default()
		if err := cfg.SaveFile(path); err != nil {
			log.Warn("could not save default config", zap.Error(err))
		} else {
			log.Info("created default config", zap.String("path", path))
		}
	}

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, relying on environment variables")
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides config values from environment variables.
func (c *Config) ApplyEnv() error {
	c.Database.Driver = getEnv("POSTDECK_DB_DRIVER", c.Database.Driver)
	c.Database.Path = getEnv("POSTDECK_DB_PATH", c.Database.Path)
	if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
		c.Database.DSN = dsn
		if _, set := os.LookupEnv("POSTDECK_DB_DRIVER"); !set {
			c.Database.Driver = "postgres"
		}
	}

	c.Storage.URL = getEnv("SUPABASE_URL", c.Storage.URL)
	c.Storage.Key = getEnv("SUPABASE_KEY", c.Storage.Key)
	c.Storage.Provider = getEnv("POSTDECK_STORAGE_PROVIDER", c.Storage.Provider)
	if _, set := os.LookupEnv("POSTDECK_STORAGE_PROVIDER"); !set &&
		c.Storage.Provider == StorageNone && c.Storage.URL != "" && c.Storage.Key != "" {
		c.Storage.Provider = StorageSupabase
	}

	c.Sentry.DSN = getEnv("SENTRY_DSN", c.Sentry.DSN)
	c.Sentry.Environment = getEnv("APP_ENV", c.Sentry.Environment)
	c.Language = getEnv("POSTDECK_LANG", c.Language)

	if v, ok := os.LookupEnv("DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
