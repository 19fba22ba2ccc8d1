// Package collection holds the canonical post list for one operator session.
// State changes are published as whole immutable snapshots, so readers never
// see a partially built list and a failed operation leaves the previous
// snapshot in place.
package collection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/ibeckermayer/postdeck/internal/lifecycle"
	"github.com/ibeckermayer/postdeck/internal/logging"
	"github.com/ibeckermayer/postdeck/internal/posts"
	"github.com/ibeckermayer/postdeck/internal/store"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// ConnectionStatus describes the last interaction with the data source
type ConnectionStatus string

const (
	StatusConnecting ConnectionStatus = "connecting"
	StatusConnected  ConnectionStatus = "connected"
	StatusError      ConnectionStatus = "error"
)

// Origin says where the posts of a snapshot came from
type Origin string

const (
	// OriginPersisted posts were read from the data source.
	OriginPersisted Origin = "persisted"
	// OriginSeeded posts are placeholders that were written to an empty data source.
	OriginSeeded Origin = "seeded"
	// OriginPlaceholder posts were generated locally and exist nowhere else.
	OriginPlaceholder Origin = "placeholder"
)

// Snapshot is a point-in-time view of the collection. Posts must be treated
// as read-only; the collection never modifies a published slice.
type Snapshot struct {
	Posts    []types.Post
	Status   ConnectionStatus
	Origin   Origin
	LoadedAt time.Time
}

// Authoritative reports whether the posts reflect the data source.
func (s Snapshot) Authoritative() bool {
	return s.Origin != OriginPlaceholder && s.Status != StatusError
}

// Options configures a Collection. Zero values get defaults.
type Options struct {
	Logger       *zap.Logger
	QueryTimeout time.Duration
	Now          func() time.Time
	Rand         *rand.Rand
}

// Collection owns the post list of one session
type Collection struct {
	source  store.Source
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time

	// writeMu serializes read-modify-write cycles on the snapshot.
	writeMu sync.Mutex

	mu     sync.Mutex
	rng    *rand.Rand
	snap   Snapshot
	subs   map[int]func(Snapshot)
	nextID int
}

// New creates an empty collection over source
func New(source store.Source, opts Options) *Collection {
	c := &Collection{
		source:  source,
		log:     logging.OrNop(opts.Logger).Named("collection"),
		timeout: opts.QueryTimeout,
		now:     opts.Now,
		rng:     opts.Rand,
		subs:    make(map[int]func(Snapshot)),
		snap:    Snapshot{Posts: []types.Post{}, Status: StatusConnecting, Origin: OriginPersisted},
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Snapshot returns the current snapshot.
func (c *Collection) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn to receive every new snapshot. The returned
// function removes the subscription.
func (c *Collection) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// publish swaps in next and notifies subscribers outside the lock.
func (c *Collection) publish(next Snapshot) {
	c.mu.Lock()
	c.snap = next
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, id := range sortedKeys(c.subs) {
		subs = append(subs, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

func (c *Collection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Load replaces the collection with the data source's posts. An empty data
// source is seeded with placeholder posts. If the data source cannot be
// read, the collection falls back to local placeholders and the snapshot is
// marked non-authoritative; Load itself still succeeds.
func (c *Collection) Load(ctx context.Context) Snapshot {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	prev := c.Snapshot()
	prev.Status = StatusConnecting
	c.publish(prev)

	qctx, cancel := c.withTimeout(ctx)
	loaded, err := c.source.Load(qctx)
	cancel()

	now := c.now()
	if err != nil {
		c.log.Error("failed to load posts, using local placeholders", zap.Error(err))
		sentry.CaptureException(err)
		next := Snapshot{
			Posts:    c.placeholders(now),
			Status:   StatusError,
			Origin:   OriginPlaceholder,
			LoadedAt: now,
		}
		c.publish(next)
		return next
	}

	if len(loaded) > 0 {
		next := Snapshot{Posts: loaded, Status: StatusConnected, Origin: OriginPersisted, LoadedAt: now}
		c.publish(next)
		c.log.Debug("loaded posts", zap.Int("count", len(loaded)))
		return next
	}

	seed := c.placeholders(now)
	next := Snapshot{Posts: seed, Status: StatusConnected, Origin: OriginSeeded, LoadedAt: now}

	sctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.source.Seed(sctx, seed); err != nil {
		c.log.Warn("could not save placeholder posts", zap.Error(err))
		next.Origin = OriginPlaceholder
	} else {
		c.log.Info("seeded empty data source", zap.Int("count", len(seed)))
	}

	c.publish(next)
	return next
}

func (c *Collection) placeholders(now time.Time) []types.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	generated := posts.Placeholders(c.rng, posts.PlaceholderCount, now)
	// Keep the data source's ordering: newest first.
	slices.SortStableFunc(generated, byDateDesc)
	return generated
}

// LoadPublished reads Published posts straight from the data source without
// touching the snapshot.
func (c *Collection) LoadPublished(ctx context.Context) ([]types.Post, error) {
	qctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.source.LoadPublished(qctx)
}

// Insert persists draft and adds the stored post to the snapshot. On
// failure the snapshot is unchanged.
func (c *Collection) Insert(ctx context.Context, draft types.PostDraft) (types.Post, error) {
	if err := lifecycle.ValidateContent(draft.Content); err != nil {
		return types.Post{}, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.writable(); err != nil {
		return types.Post{}, err
	}

	qctx, cancel := c.withTimeout(ctx)
	defer cancel()
	p, err := c.source.Insert(qctx, draft)
	if err != nil {
		return types.Post{}, fmt.Errorf("failed to save post: %w", err)
	}

	c.replace(func(cur []types.Post) []types.Post {
		next := append(slices.Clone(cur), p)
		slices.SortStableFunc(next, byDateDesc)
		return next
	}, StatusConnected)

	c.log.Info("post saved", zap.Int64("post_id", p.ID), zap.String("status", string(p.Status)))
	return p, nil
}

// Archive moves a Published post to Archived and persists the change.
func (c *Collection) Archive(ctx context.Context, id int64) (types.Post, error) {
	return c.transition(ctx, id, lifecycle.ActionArchive, c.now())
}

// PublishDue auto-publishes every Scheduled post whose publication date is
// on or before today. It returns the posts that were published. Posts that
// fail to persist are skipped and reported in the joined error.
func (c *Collection) PublishDue(ctx context.Context, today time.Time) ([]types.Post, error) {
	var due []int64
	for _, p := range c.Snapshot().Posts {
		if p.Status == types.StatusScheduled && !types.Day(p.PublicationDate).After(types.Day(today)) {
			due = append(due, p.ID)
		}
	}

	var published []types.Post
	var errs []error
	for _, id := range due {
		p, err := c.transition(ctx, id, lifecycle.ActionAutoPublish, today)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		published = append(published, p)
	}
	return published, errors.Join(errs...)
}

func (c *Collection) transition(ctx context.Context, id int64, action lifecycle.Action, today time.Time) (types.Post, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.writable(); err != nil {
		return types.Post{}, err
	}

	cur, ok := posts.Find(c.Snapshot().Posts, id)
	if !ok {
		return types.Post{}, fmt.Errorf("%w: %d", types.ErrPostNotFound, id)
	}

	next, err := lifecycle.Transition(cur, action, today)
	if err != nil {
		return types.Post{}, err
	}

	qctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.source.UpdateStatus(qctx, id, next.Status, next.PublicationDate); err != nil {
		return types.Post{}, fmt.Errorf("failed to update post %d: %w", id, err)
	}

	c.replace(func(list []types.Post) []types.Post {
		out := slices.Clone(list)
		for i := range out {
			if out[i].ID == id {
				out[i] = next
			}
		}
		slices.SortStableFunc(out, byDateDesc)
		return out
	}, StatusConnected)

	c.log.Info("post transitioned",
		zap.Int64("post_id", id),
		zap.String("action", string(action)),
		zap.String("status", string(next.Status)))
	return next, nil
}

// writable refuses writes while the snapshot holds placeholder posts. Their
// IDs belong to no stored row, so a write could hit an unrelated post or
// collide with one. Callers must hold writeMu.
func (c *Collection) writable() error {
	if !c.Snapshot().Authoritative() {
		return fmt.Errorf("%w: data source unavailable, placeholder data is read-only", types.ErrDataSource)
	}
	return nil
}

// replace derives a new snapshot from the current posts. Successful writes
// prove the data source is reachable, so the status becomes connected.
func (c *Collection) replace(fn func([]types.Post) []types.Post, status ConnectionStatus) {
	cur := c.Snapshot()
	next := cur
	next.Posts = fn(cur.Posts)
	next.Status = status
	c.publish(next)
}

func byDateDesc(a, b types.Post) int {
	if c := b.PublicationDate.Compare(a.PublicationDate); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}

func sortedKeys(m map[int]func(Snapshot)) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
