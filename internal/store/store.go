package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/postdeck/internal/lifecycle"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// Store is the SQLite-backed Source
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, sourceErr("create db dir", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, sourceErr("open", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, sourceErr("migrate", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		publication_date TEXT NOT NULL,
		status TEXT NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		engagement_rate REAL NOT NULL DEFAULT 0,
		media_urls TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_publication_date ON posts(publication_date);
	CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Load returns every post, newest publication date first
func (s *Store) Load(ctx context.Context) ([]types.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM posts
		ORDER BY publication_date DESC, id DESC
	`)
	if err != nil {
		return nil, sourceErr("load posts", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// LoadPublished returns Published posts, newest publication date first
func (s *Store) LoadPublished(ctx context.Context) ([]types.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM posts
		WHERE status = ?
		ORDER BY publication_date DESC, id DESC
	`, string(types.StatusPublished))
	if err != nil {
		return nil, sourceErr("load published posts", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Insert persists a new post
func (s *Store) Insert(ctx context.Context, d types.PostDraft) (types.Post, error) {
	if err := lifecycle.ValidateContent(d.Content); err != nil {
		return types.Post{}, err
	}

	media, err := mediaColumn(d.MediaURLs)
	if err != nil {
		return types.Post{}, err
	}
	createdAt := time.Now().UTC()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (content, publication_date, status, media_urls, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+selectColumns,
		d.Content, types.Day(d.PublicationDate).Format(types.DateLayout), string(d.Status),
		media, createdAt.Format(time.RFC3339Nano))

	p, err := scanPost(row)
	if err != nil {
		return types.Post{}, sourceErr("insert post", err)
	}
	return p, nil
}

// UpdateStatus sets a post's status and publication date
func (s *Store) UpdateStatus(ctx context.Context, id int64, status types.Status, publicationDate time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET status = ?, publication_date = ? WHERE id = ?
	`, string(status), types.Day(publicationDate).Format(types.DateLayout), id)
	if err != nil {
		return sourceErr("update status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return sourceErr("update status", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", types.ErrPostNotFound, id)
	}
	return nil
}

// Seed inserts posts keeping their IDs; existing IDs are left untouched
func (s *Store) Seed(ctx context.Context, posts []types.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sourceErr("seed", err)
	}
	defer tx.Rollback()

	for _, p := range posts {
		media, err := mediaColumn(p.MediaURLs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO posts (id, content, publication_date, status, likes, comments,
				engagement_rate, media_urls, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, p.ID, p.Content, types.Day(p.PublicationDate).Format(types.DateLayout), string(p.Status),
			p.Likes, p.Comments, p.EngagementRate, media, p.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return sourceErr("seed", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return sourceErr("seed", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (types.Post, error) {
	var p types.Post
	var status, pubDate, createdAt string
	var mediaJSON sql.NullString

	err := row.Scan(
		&p.ID, &p.Content, &pubDate, &status, &p.Likes, &p.Comments,
		&p.EngagementRate, &mediaJSON, &createdAt,
	)
	if err != nil {
		return p, err
	}

	p.Status = types.Status(status)
	if p.PublicationDate, err = time.Parse(types.DateLayout, pubDate); err != nil {
		return p, fmt.Errorf("bad publication_date %q: %w", pubDate, err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return p, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if mediaJSON.Valid && mediaJSON.String != "" {
		if err := json.Unmarshal([]byte(mediaJSON.String), &p.MediaURLs); err != nil {
			return p, fmt.Errorf("bad media_urls: %w", err)
		}
	}
	normalize(&p)
	return p, nil
}

func scanPosts(rows *sql.Rows) ([]types.Post, error) {
	posts := []types.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, sourceErr("scan post", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, sourceErr("scan posts", err)
	}
	return posts, nil
}

// mediaColumn encodes media URLs as the JSON text stored in media_urls.
func mediaColumn(urls []string) (string, error) {
	b, err := json.Marshal(nonNil(urls))
	if err != nil {
		return "", fmt.Errorf("failed to marshal media urls: %w", err)
	}
	return string(b), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
