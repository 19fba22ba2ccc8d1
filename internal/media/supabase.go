package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// Supabase implements Storage on a Supabase Storage bucket
type Supabase struct {
	client  *storage_go.Client
	bucket  string
	timeout time.Duration
}

// NewSupabase creates a client for bucket at the project URL baseURL.
func NewSupabase(baseURL, key, bucket string, timeout time.Duration) (*Supabase, error) {
	if baseURL == "" || key == "" {
		return nil, types.ErrStorageUnconfigured
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid url: %w", types.ErrStorage, err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/storage/v1"
	return &Supabase{
		client:  storage_go.NewClient(endpoint, key, map[string]string{"apikey": key}),
		bucket:  bucket,
		timeout: timeout,
	}, nil
}

// PublicURL returns the public URL of the object called name.
func (s *Supabase) PublicURL(name string) string {
	return s.client.GetPublicUrl(s.bucket, name).SignedURL
}

// Upload stores data under name in the bucket
func (s *Supabase) Upload(ctx context.Context, data []byte, name, contentType string) (string, error) {
	cacheControl := "3600"
	upsert := false
	err := s.call(ctx, func() error {
		_, err := s.client.UploadFile(s.bucket, name, bytes.NewReader(data), storage_go.FileOptions{
			ContentType:  &contentType,
			CacheControl: &cacheControl,
			Upsert:       &upsert,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return s.PublicURL(name), nil
}

// Remove deletes the object called name
func (s *Supabase) Remove(ctx context.Context, name string) error {
	err := s.call(ctx, func() error {
		_, err := s.client.RemoveFile(s.bucket, []string{name})
		return err
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// call runs fn under the client timeout. The storage client takes no
// context, so a cancelled call returns at once and fn finishes on its own.
func (s *Supabase) call(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: storage API: %w", types.ErrStorage, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", types.ErrStorage, ctx.Err())
	}
}
