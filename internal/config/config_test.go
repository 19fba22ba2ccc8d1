package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[dashboard]
items_per_page = 10

[assistant]
latency = "250ms"
`), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Dashboard.ItemsPerPage)
	assert.Equal(t, 250*time.Millisecond, cfg.Assistant.Latency.Duration)
	assert.Equal(t, "publication_date", cfg.Dashboard.SortBy)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout.Duration)
}

func TestSaveFileRoundTripsDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Scheduler.JobTimeout = Duration{90 * time.Second}

	require.NoError(t, cfg.SaveFile(path))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, got.Scheduler.JobTimeout.Duration)
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[assistant]\nlatency = \"soon\"\n"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestApplyEnvSupabaseCredentialsEnableStorage(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "secret")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, StorageSupabase, cfg.Storage.Provider)
	assert.Equal(t, "https://example.supabase.co", cfg.Storage.URL)
}

func TestApplyEnvExplicitProviderWins(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "secret")
	t.Setenv("POSTDECK_STORAGE_PROVIDER", "none")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, StorageNone, cfg.Storage.Provider)
}

func TestApplyEnvDatabaseURLSelectsPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/db")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/db", cfg.Database.DSN)
}

func TestApplyEnvBadDebug(t *testing.T) {
	t.Setenv("DEBUG", "maybe")
	assert.Error(t, Default().ApplyEnv())
}

func TestResolveWritesDefaultsOnFirstRun(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Resolve(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.FileExists(t, path)
}
