package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version   int             `toml:"version"`
	Database  DatabaseConfig  `toml:"database"`
	Storage   StorageConfig   `toml:"storage"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Assistant AssistantConfig `toml:"assistant"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Sentry    SentryConfig    `toml:"sentry"`
	Language  string          `toml:"language"`
	Debug     bool            `toml:"debug"`
}

type DatabaseConfig struct {
	Driver       string   `toml:"driver"` // "sqlite" or "postgres"
	Path         string   `toml:"path"`   // sqlite file
	DSN          string   `toml:"dsn"`    // postgres connection string
	MaxConns     int32    `toml:"max_conns"`
	QueryTimeout Duration `toml:"query_timeout"`
}

// Storage providers
const (
	StorageNone     = "none"
	StorageLocal    = "local"
	StorageSupabase = "supabase"
)

type StorageConfig struct {
	Provider             string   `toml:"provider"`
	URL                  string   `toml:"url"`
	Key                  string   `toml:"key"`
	Bucket               string   `toml:"bucket"`
	LocalDir             string   `toml:"local_dir"`
	Timeout              Duration `toml:"timeout"`
	MaxConcurrentUploads int      `toml:"max_concurrent_uploads"`
	UploadsPerSecond     int      `toml:"uploads_per_second"`
}

type DashboardConfig struct {
	ItemsPerPage  int    `toml:"items_per_page"`
	SortBy        string `toml:"sort_by"`
	SortAscending bool   `toml:"sort_ascending"`
	TopPosts      int    `toml:"top_posts"`
}

type AssistantConfig struct {
	Latency Duration `toml:"latency"`
}

type SchedulerConfig struct {
	Timezone        string   `toml:"timezone"`
	PublishSchedule string   `toml:"publish_schedule"`
	JobTimeout      Duration `toml:"job_timeout"`
}

type SentryConfig struct {
	DSN         string `toml:"dsn"`
	Environment string `toml:"environment"`
}

// Duration is a time.Duration written as "1.5s" in the config file
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	dbPath := "postdeck.db"
	if dir, err := DataDir(); err == nil {
		dbPath = filepath.Join(dir, "postdeck.db")
	}
	mediaDir := "media"
	if dir, err := CacheDir(); err == nil {
		mediaDir = filepath.Join(dir, "media")
	}

	return &Config{
		Version: 1,
		Database: DatabaseConfig{
			Driver:       "sqlite",
			Path:         dbPath,
			MaxConns:     10,
			QueryTimeout: Duration{5 * time.Second},
		},
		Storage: StorageConfig{
			Provider:             StorageNone,
			Bucket:               "media",
			LocalDir:             mediaDir,
			Timeout:              Duration{30 * time.Second},
			MaxConcurrentUploads: 3,
			UploadsPerSecond:     5,
		},
		Dashboard: DashboardConfig{
			ItemsPerPage: 5,
			SortBy:       "publication_date",
			TopPosts:     3,
		},
		Assistant: AssistantConfig{
			Latency: Duration{1500 * time.Millisecond},
		},
		Scheduler: SchedulerConfig{
			Timezone:        "UTC",
			PublishSchedule: "*/15 * * * *",
			JobTimeout:      Duration{5 * time.Minute},
		},
		Sentry: SentryConfig{
			Environment: "development",
		},
		Language: "en",
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "postdeck"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "postdeck"), nil
}

// DataDir holds the default SQLite database. It lives next to the config.
func DataDir() (string, error) {
	return ConfigDir()
}

// Load reads config from the default path
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
