package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ibeckermayer/postdeck/internal/lifecycle"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// PostgresStore is the Postgres-backed Source. media_urls is a TEXT[]
// column; NULL arrays read back as empty slices.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to dsn and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*PostgresStore, error) {
	if dsn == "" {
		return nil, sourceErr("connect", errors.New("postgres DSN is empty"))
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, sourceErr("parse dsn", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, sourceErr("connect", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, sourceErr("migrate", err)
	}
	return s, nil
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		publication_date DATE NOT NULL,
		status TEXT NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		engagement_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		media_urls TEXT[],
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_posts_publication_date ON posts(publication_date);
	CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
	`)
	return err
}

// Load returns every post, newest publication date first
func (s *PostgresStore) Load(ctx context.Context) ([]types.Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM posts
		ORDER BY publication_date DESC, id DESC`)
	if err != nil {
		return nil, sourceErr("load posts", err)
	}
	return collectPosts(rows)
}

// LoadPublished returns Published posts, newest publication date first
func (s *PostgresStore) LoadPublished(ctx context.Context) ([]types.Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM posts
		WHERE status = $1
		ORDER BY publication_date DESC, id DESC`, string(types.StatusPublished))
	if err != nil {
		return nil, sourceErr("load published posts", err)
	}
	return collectPosts(rows)
}

// Insert persists a new post
func (s *PostgresStore) Insert(ctx context.Context, d types.PostDraft) (types.Post, error) {
	if err := lifecycle.ValidateContent(d.Content); err != nil {
		return types.Post{}, err
	}

	rows, err := s.pool.Query(ctx, `
		INSERT INTO posts (content, publication_date, status, media_urls)
		VALUES ($1, $2, $3, $4)
		RETURNING `+selectColumns,
		d.Content, types.Day(d.PublicationDate), string(d.Status), nonNil(d.MediaURLs))
	if err != nil {
		return types.Post{}, sourceErr("insert post", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, rowToPost)
	if err != nil {
		return types.Post{}, sourceErr("insert post", err)
	}
	return p, nil
}

// UpdateStatus sets a post's status and publication date
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status types.Status, publicationDate time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts SET status = $1, publication_date = $2 WHERE id = $3`,
		string(status), types.Day(publicationDate), id)
	if err != nil {
		return sourceErr("update status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", types.ErrPostNotFound, id)
	}
	return nil
}

// Seed inserts posts keeping their IDs, then moves the ID sequence past them
func (s *PostgresStore) Seed(ctx context.Context, posts []types.Post) error {
	batch := &pgx.Batch{}
	for _, p := range posts {
		batch.Queue(`
			INSERT INTO posts (id, content, publication_date, status, likes, comments,
				engagement_rate, media_urls, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Content, types.Day(p.PublicationDate), string(p.Status), p.Likes, p.Comments,
			p.EngagementRate, nonNil(p.MediaURLs), p.CreatedAt)
	}
	batch.Queue(`SELECT setval(pg_get_serial_sequence('posts', 'id'), GREATEST((SELECT MAX(id) FROM posts), 1))`)

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return sourceErr("seed", err)
	}
	return nil
}

func rowToPost(row pgx.CollectableRow) (types.Post, error) {
	var p types.Post
	var status string
	err := row.Scan(
		&p.ID, &p.Content, &p.PublicationDate, &status, &p.Likes, &p.Comments,
		&p.EngagementRate, &p.MediaURLs, &p.CreatedAt,
	)
	if err != nil {
		return p, err
	}
	p.Status = types.Status(status)
	normalize(&p)
	return p, nil
}

func collectPosts(rows pgx.Rows) ([]types.Post, error) {
	posts, err := pgx.CollectRows(rows, rowToPost)
	if err != nil {
		return nil, sourceErr("scan posts", err)
	}
	if posts == nil {
		posts = []types.Post{}
	}
	return posts, nil
}
