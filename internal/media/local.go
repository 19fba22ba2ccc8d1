package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// Local keeps media files in a directory and serves them as file:// URLs.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, types.ErrStorageUnconfigured
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStorage, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create media directory: %w", types.ErrStorage, err)
	}
	return &Local{dir: abs}, nil
}

func (l *Local) Upload(ctx context.Context, data []byte, name, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrStorage, err)
	}
	p := filepath.Join(l.dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write %s: %w", types.ErrStorage, name, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
}

func (l *Local) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorage, err)
	}
	err := os.Remove(filepath.Join(l.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to remove %s: %w", types.ErrStorage, name, err)
	}
	return nil
}
