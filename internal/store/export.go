package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/postdeck/internal/config"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// ExportDir returns the directory post snapshots are exported to.
// On macOS this is ~/Library/Caches/postdeck/exports/
func ExportDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "exports"), nil
}

// ExportPosts serializes posts to JSON and writes them to a timestamped file in dir.
// Returns the path to the saved file.
func ExportPosts(dir string, posts []types.Post) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	// Dashes instead of colons keep the name valid on every filesystem
	filename := time.Now().Format("2006-01-02T15-04-05") + ".json"
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	return path, nil
}
