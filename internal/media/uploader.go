package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/postdeck/internal/logging"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// File is one file picked for upload
type File struct {
	Name string
	Data []byte
}

// Result is the outcome of one file in a batch
type Result struct {
	File string
	URL  string
	Err  error
}

// Uploader pushes batches of files to a Storage
type Uploader struct {
	storage     Storage
	log         *zap.Logger
	concurrency int
	limiter     ratelimit.Limiter
	name        func(string) string
}

// UploaderOptions tunes an Uploader. Zero values get defaults.
type UploaderOptions struct {
	Logger        *zap.Logger
	Concurrency   int
	PerSecond     int
	NameGenerator func(filename string) string
}

func NewUploader(storage Storage, opts UploaderOptions) *Uploader {
	u := &Uploader{
		storage:     storage,
		log:         logging.OrNop(opts.Logger).Named("media"),
		concurrency: opts.Concurrency,
		name:        opts.NameGenerator,
	}
	if u.concurrency < 1 {
		u.concurrency = 1
	}
	if opts.PerSecond > 0 {
		u.limiter = ratelimit.New(opts.PerSecond)
	} else {
		u.limiter = ratelimit.NewUnlimited()
	}
	if u.name == nil {
		u.name = ObjectName
	}
	return u
}

// Configured reports whether uploads can succeed at all.
func (u *Uploader) Configured() bool {
	_, offline := u.storage.(Offline)
	return u.storage != nil && !offline
}

// Upload stores every file and returns one Result per file in input order.
// A failing file does not stop the others. The returned error is only
// non-nil when the whole batch could not start.
func (u *Uploader) Upload(ctx context.Context, files []File) ([]Result, error) {
	if !u.Configured() {
		return nil, types.ErrStorageUnconfigured
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, f := range files {
		results[i].File = f.Name
		g.Go(func() error {
			u.limiter.Take()
			name := u.name(f.Name)
			url, err := u.storage.Upload(gctx, f.Data, name, ContentType(f.Name))
			if err != nil {
				if !errors.Is(err, types.ErrStorage) {
					err = fmt.Errorf("%w: %w", types.ErrStorage, err)
				}
				u.log.Warn("upload failed", zap.String("file", f.Name), zap.Error(err))
				results[i].Err = err
				return nil
			}
			u.log.Debug("uploaded", zap.String("file", f.Name), zap.String("url", url))
			results[i].URL = url
			return nil
		})
	}

	// Per-file errors are kept in results; goroutines never fail the group.
	_ = g.Wait()
	return results, nil
}

// Remove deletes the object behind a public URL.
func (u *Uploader) Remove(ctx context.Context, publicURL string) error {
	return u.storage.Remove(ctx, NameFromURL(publicURL))
}

// ReadFiles loads files from disk for an upload batch.
func ReadFiles(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}
