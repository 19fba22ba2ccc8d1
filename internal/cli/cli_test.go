package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/postdeck/internal/assistant"
	"github.com/ibeckermayer/postdeck/internal/config"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// env points postdeck at a throwaway config and database.
type env struct {
	configPath string
}

func newEnv(t *testing.T, mutate func(*config.Config)) *env {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("POSTDECK_DB_DRIVER", "sqlite")
	t.Setenv("POSTDECK_DB_PATH", filepath.Join(home, "posts.db"))
	t.Setenv("POSTDECK_STORAGE_PROVIDER", "none")
	t.Setenv("DATABASE_URL", "")

	cfg := config.Default()
	cfg.Assistant.Latency = config.Duration{Duration: time.Millisecond}
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(home, "config.toml")
	require.NoError(t, cfg.SaveFile(path))
	return &env{configPath: path}
}

func (e *env) run(args ...string) (string, error) {
	var out bytes.Buffer
	err := Run(context.Background(), &out, append([]string{"--config", e.configPath}, args...))
	return out.String(), err
}

func TestListSeedsEmptyDatabase(t *testing.T) {
	e := newEnv(t, nil)

	out, err := e.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "sample posts")
	assert.Contains(t, out, "page 1 of 4")
	assert.Contains(t, out, "database: connected")

	// A second run reads the stored posts and seeds nothing.
	out, err = e.run("list", "--per-page", "10", "--sort", "engagement_rate")
	require.NoError(t, err)
	assert.NotContains(t, out, "sample posts")
	assert.Contains(t, out, "page 1 of 2")
	assert.Contains(t, out, "sorted by engagement_rate desc")
}

func TestListRejectsUnknownSortKey(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.run("list", "--sort", "likes")
	assert.Error(t, err)
}

func TestDraftThenManage(t *testing.T) {
	e := newEnv(t, nil)

	out, err := e.run("draft", "--content", "Quarterly hiring update")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft saved.")

	out, err = e.run("manage", "--status", "draft", "--search", "quarterly")
	require.NoError(t, err)
	assert.Contains(t, out, "Quarterly hiring update")

	out, err = e.run("manage", "--search", "no post says this")
	require.NoError(t, err)
	assert.Contains(t, out, "No posts match.")
}

func TestManageHidesArchived(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.run("manage", "--status", "archived")
	assert.Error(t, err)
}

func TestPublishEmptyContent(t *testing.T) {
	e := newEnv(t, nil)
	out, err := e.run("publish", "--content", "   ")
	assert.Error(t, err)
	assert.Contains(t, out, "Post content cannot be empty.")
}

func TestScheduleValidatesDate(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.run("schedule", "--content", "later")
	assert.Error(t, err, "--date is required")

	_, err = e.run("schedule", "--content", "later", "--date", "next week")
	assert.Error(t, err)

	out, err := e.run("schedule", "--content", "later", "--date", "2001-01-01")
	assert.Error(t, err)
	assert.Contains(t, out, "publication date must be in the future")

	future := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	out, err = e.run("schedule", "--content", "later", "--date", future)
	require.NoError(t, err)
	assert.Contains(t, out, "Post scheduled for "+future)
}

func TestUploadWithoutStorageAborts(t *testing.T) {
	e := newEnv(t, nil)
	img := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))

	out, err := e.run("draft", "--content", "with media", "--media", img)
	assert.ErrorIs(t, err, types.ErrStorageUnconfigured)
	assert.Contains(t, out, "Media storage is not configured.")
	assert.NotContains(t, out, "Draft saved.")

	_, err = e.run("draft", "--content", "with media", "--media", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestArchiveArgs(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.run("archive", "abc")
	assert.Error(t, err)

	out, err := e.run("archive", "9999")
	assert.Error(t, err)
	assert.Contains(t, out, "Post 9999 was not found.")
}

func TestAssist(t *testing.T) {
	e := newEnv(t, nil)

	out, err := e.run("assist", "remote", "work")
	require.NoError(t, err)
	assert.Contains(t, out, assistant.BuildReply("remote work"))

	out, err = e.run("assist", "--use", "team", "offsite")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft saved.")
}

func TestUnknownDriverFallsBackToPlaceholders(t *testing.T) {
	e := newEnv(t, nil)
	t.Setenv("POSTDECK_DB_DRIVER", "oracle")

	out, err := e.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "20 placeholder posts")
	assert.Contains(t, out, "offline")

	out, err = e.run("draft", "--content", "never stored")
	assert.Error(t, err)
	assert.Contains(t, out, "Could not save the post.")
}

func TestStatsAndAnalytics(t *testing.T) {
	e := newEnv(t, nil)

	out, err := e.run("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Avg engagement")

	_, err = e.run("publish", "--content", "Launch day")
	require.NoError(t, err)
	out, err = e.run("analytics")
	require.NoError(t, err)
	assert.Contains(t, out, "published")

	_, err = e.run("analytics", "--post", "987654")
	assert.Error(t, err)

	_, err = e.run("analytics", "--top")
	require.NoError(t, err)
}

func TestReportAndExport(t *testing.T) {
	e := newEnv(t, nil)

	out, err := e.run("report")
	require.NoError(t, err)
	assert.Contains(t, out, "Report saved to")

	out, err = e.run("export")
	require.NoError(t, err)
	assert.Contains(t, out, ".json")
}
