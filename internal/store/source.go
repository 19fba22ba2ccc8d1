package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ibeckermayer/postdeck/internal/config"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// Source is the relational data source behind the post collection.
// Every failure wraps types.ErrDataSource, except validation failures on
// Insert (types.ErrValidation), which never reach the database.
type Source interface {
	// Load returns all posts ordered by publication date, newest first.
	Load(ctx context.Context) ([]types.Post, error)

	// LoadPublished is Load restricted to Published posts.
	LoadPublished(ctx context.Context) ([]types.Post, error)

	// Insert persists a new post and returns it with ID and CreatedAt set.
	Insert(ctx context.Context, draft types.PostDraft) (types.Post, error)

	// UpdateStatus changes a post's status and publication date.
	UpdateStatus(ctx context.Context, id int64, status types.Status, publicationDate time.Time) error

	// Seed inserts posts with explicit IDs, skipping IDs that already exist.
	Seed(ctx context.Context, posts []types.Post) error

	// Close releases the underlying connection.
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the source selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Source, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		s, err := New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgres(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

// sourceErr tags err as a data source failure.
func sourceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrDataSource, op, err)
}

// normalize fills in what a freshly read row may lack.
func normalize(p *types.Post) {
	if p.MediaURLs == nil {
		p.MediaURLs = []string{}
	}
	p.PublicationDate = types.Day(p.PublicationDate)
}

const selectColumns = `id, content, publication_date, status, likes, comments, engagement_rate, media_urls, created_at`

// Unavailable is a Source for a database that could not be opened. Every
// call fails with the open error, which sends the collection to its
// placeholder fallback.
type Unavailable struct {
	Err error
}

func (u Unavailable) err(op string) error {
	return sourceErr(op, u.Err)
}

func (u Unavailable) Load(context.Context) ([]types.Post, error) {
	return nil, u.err("load posts")
}

func (u Unavailable) LoadPublished(context.Context) ([]types.Post, error) {
	return nil, u.err("load published posts")
}

func (u Unavailable) Insert(context.Context, types.PostDraft) (types.Post, error) {
	return types.Post{}, u.err("insert post")
}

func (u Unavailable) UpdateStatus(context.Context, int64, types.Status, time.Time) error {
	return u.err("update post")
}

func (u Unavailable) Seed(context.Context, []types.Post) error {
	return u.err("seed posts")
}

func (u Unavailable) Close() error { return nil }
