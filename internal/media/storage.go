// Package media stores attachment files in object storage and hands back
// their public URLs.
package media

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ibeckermayer/postdeck/internal/config"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// Storage is an object store for media files
type Storage interface {
	// Upload stores data under name and returns its public URL.
	Upload(ctx context.Context, data []byte, name, contentType string) (string, error)
	// Remove deletes the object called name.
	Remove(ctx context.Context, name string) error
}

// New builds the storage provider selected in cfg.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case config.StorageSupabase:
		s, err := NewSupabase(cfg.URL, cfg.Key, cfg.Bucket, cfg.Timeout.Duration)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageLocal:
		l, err := NewLocal(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.StorageNone, "":
		return Offline{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

// Offline is the storage used when no provider is configured.
type Offline struct{}

func (Offline) Upload(context.Context, []byte, string, string) (string, error) {
	return "", types.ErrStorageUnconfigured
}

func (Offline) Remove(context.Context, string) error {
	return types.ErrStorageUnconfigured
}

// ObjectName generates a unique object name keeping the extension of filename.
func ObjectName(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return uuid.New().String()
	}
	return uuid.New().String() + "." + ext
}

// NameFromURL returns the object name of a public URL: its last path segment.
func NameFromURL(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(raw)
}

// ContentType guesses a MIME type from the file extension.
func ContentType(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
