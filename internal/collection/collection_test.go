package collection

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// --- Mocks ---

// MockSource is a mock implementing store.Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Load(ctx context.Context) ([]types.Post, error) {
	args := m.Called(ctx)
	if posts, ok := args.Get(0).([]types.Post); ok {
		return posts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSource) LoadPublished(ctx context.Context) ([]types.Post, error) {
	args := m.Called(ctx)
	if posts, ok := args.Get(0).([]types.Post); ok {
		return posts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSource) Insert(ctx context.Context, draft types.PostDraft) (types.Post, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(types.Post), args.Error(1)
}

func (m *MockSource) UpdateStatus(ctx context.Context, id int64, status types.Status, publicationDate time.Time) error {
	args := m.Called(ctx, id, status, publicationDate)
	return args.Error(0)
}

func (m *MockSource) Seed(ctx context.Context, posts []types.Post) error {
	args := m.Called(ctx, posts)
	return args.Error(0)
}

func (m *MockSource) Close() error {
	return m.Called().Error(0)
}

// --- Helpers ---

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func today(offset int) time.Time {
	return types.Day(now).AddDate(0, 0, offset)
}

func newCollection(src *MockSource) *Collection {
	return New(src, Options{
		Now:          func() time.Time { return now },
		Rand:         rand.New(rand.NewSource(42)),
		QueryTimeout: time.Second,
	})
}

func persisted() []types.Post {
	return []types.Post{
		{ID: 3, Content: "third", Status: types.StatusScheduled, PublicationDate: today(0), MediaURLs: []string{}},
		{ID: 2, Content: "second", Status: types.StatusPublished, PublicationDate: today(-1), Likes: 4, MediaURLs: []string{}},
		{ID: 1, Content: "first", Status: types.StatusDraft, PublicationDate: today(-5), MediaURLs: []string{}},
	}
}

func ids(posts []types.Post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

// --- Tests ---

func TestLoadPersisted(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	c := newCollection(src)

	snap := c.Load(context.Background())

	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, OriginPersisted, snap.Origin)
	assert.True(t, snap.Authoritative())
	assert.Equal(t, []int64{3, 2, 1}, ids(snap.Posts))
	assert.Equal(t, snap, c.Snapshot())
	src.AssertNotCalled(t, "Seed", mock.Anything, mock.Anything)
}

func TestLoadFailureFallsBackToPlaceholders(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))
	c := newCollection(src)

	var seen []ConnectionStatus
	c.Subscribe(func(s Snapshot) { seen = append(seen, s.Status) })

	snap := c.Load(context.Background())

	assert.Len(t, snap.Posts, 20)
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, OriginPlaceholder, snap.Origin)
	assert.False(t, snap.Authoritative())
	assert.Equal(t, []ConnectionStatus{StatusConnecting, StatusError}, seen)
	src.AssertNotCalled(t, "Seed", mock.Anything, mock.Anything)

	for i := 1; i < len(snap.Posts); i++ {
		assert.False(t, snap.Posts[i].PublicationDate.After(snap.Posts[i-1].PublicationDate))
	}
}

func TestLoadEmptySeedsPlaceholders(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return([]types.Post{}, nil)
	src.On("Seed", mock.Anything, mock.MatchedBy(func(p []types.Post) bool { return len(p) == 20 })).Return(nil)
	c := newCollection(src)

	snap := c.Load(context.Background())

	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, OriginSeeded, snap.Origin)
	assert.True(t, snap.Authoritative())
	assert.Len(t, snap.Posts, 20)
	src.AssertExpectations(t)
}

func TestLoadEmptySeedFailureStaysLocal(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return([]types.Post{}, nil)
	src.On("Seed", mock.Anything, mock.Anything).Return(types.ErrDataSource)
	c := newCollection(src)

	snap := c.Load(context.Background())

	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, OriginPlaceholder, snap.Origin)
	assert.False(t, snap.Authoritative())
}

func TestInsertEmptyContentNeverWrites(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	c := newCollection(src)
	before := c.Load(context.Background())

	_, err := c.Insert(context.Background(), types.PostDraft{Content: "  ", Status: types.StatusPublished})

	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, before, c.Snapshot())
	src.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestInsertAddsPostInDateOrder(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	draft := types.PostDraft{Content: "fresh", Status: types.StatusDraft, PublicationDate: today(-2)}
	stored := types.Post{ID: 4, Content: "fresh", Status: types.StatusDraft, PublicationDate: today(-2), MediaURLs: []string{}}
	src.On("Insert", mock.Anything, draft).Return(stored, nil)
	c := newCollection(src)
	c.Load(context.Background())

	var notified int
	c.Subscribe(func(Snapshot) { notified++ })

	p, err := c.Insert(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, stored, p)
	assert.Equal(t, []int64{3, 2, 4, 1}, ids(c.Snapshot().Posts))
	assert.Equal(t, 1, notified)
}

func TestInsertFailureKeepsSnapshot(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	src.On("Insert", mock.Anything, mock.Anything).Return(types.Post{}, types.ErrDataSource)
	c := newCollection(src)
	before := c.Load(context.Background())

	_, err := c.Insert(context.Background(), types.PostDraft{Content: "x", Status: types.StatusDraft})

	assert.ErrorIs(t, err, types.ErrDataSource)
	assert.Equal(t, before, c.Snapshot())
}

func TestArchivePersistsStatus(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	src.On("UpdateStatus", mock.Anything, int64(2), types.StatusArchived, today(-1)).Return(nil)
	c := newCollection(src)
	c.Load(context.Background())

	p, err := c.Archive(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, types.StatusArchived, p.Status)

	got := c.Snapshot().Posts
	assert.Equal(t, []int64{3, 2, 1}, ids(got))
	assert.Equal(t, types.StatusArchived, got[1].Status)
	src.AssertExpectations(t)
}

func TestArchiveRejectsNonPublished(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	c := newCollection(src)
	before := c.Load(context.Background())

	_, err := c.Archive(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = c.Archive(context.Background(), 99)
	assert.ErrorIs(t, err, types.ErrPostNotFound)

	assert.Equal(t, before, c.Snapshot())
	src.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveWriteFailureKeepsSnapshot(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	src.On("UpdateStatus", mock.Anything, int64(2), types.StatusArchived, mock.Anything).Return(types.ErrDataSource)
	c := newCollection(src)
	before := c.Load(context.Background())

	_, err := c.Archive(context.Background(), 2)
	assert.ErrorIs(t, err, types.ErrDataSource)
	assert.Equal(t, before, c.Snapshot())
}

func TestPublishDue(t *testing.T) {
	list := persisted()
	list = append([]types.Post{
		{ID: 9, Content: "later", Status: types.StatusScheduled, PublicationDate: today(3), MediaURLs: []string{}},
	}, list...)
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(list, nil)
	src.On("UpdateStatus", mock.Anything, int64(3), types.StatusPublished, today(0)).Return(nil)
	c := newCollection(src)
	c.Load(context.Background())

	published, err := c.PublishDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(published))

	p, ok := find(c.Snapshot().Posts, 9)
	require.True(t, ok)
	assert.Equal(t, types.StatusScheduled, p.Status)
	src.AssertExpectations(t)
}

func TestPlaceholderDataIsReadOnly(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(nil, errors.New("i/o timeout")).Once()
	c := newCollection(src)
	before := c.Load(context.Background())
	require.False(t, before.Authoritative())

	for _, p := range before.Posts {
		_, err := c.Archive(context.Background(), p.ID)
		assert.ErrorIs(t, err, types.ErrDataSource, "post %d", p.ID)
	}
	published, err := c.PublishDue(context.Background(), now.AddDate(1, 0, 0))
	assert.Empty(t, published)
	if hasScheduled(before.Posts) {
		assert.ErrorIs(t, err, types.ErrDataSource)
	}
	_, err = c.Insert(context.Background(), types.PostDraft{Content: "x", Status: types.StatusDraft, PublicationDate: today(0)})
	assert.ErrorIs(t, err, types.ErrDataSource)

	assert.Equal(t, before, c.Snapshot())
	src.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	src.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)

	// Writes resume once the data source is read again.
	src.On("Load", mock.Anything).Return(persisted(), nil)
	src.On("UpdateStatus", mock.Anything, int64(2), types.StatusArchived, today(-1)).Return(nil)
	c.Load(context.Background())
	_, err = c.Archive(context.Background(), 2)
	require.NoError(t, err)
}

func TestInsertAfterFailedSeedKeepsIDsUnique(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return([]types.Post{}, nil)
	src.On("Seed", mock.Anything, mock.Anything).Return(types.ErrDataSource)
	src.On("Insert", mock.Anything, mock.Anything).
		Return(types.Post{ID: 1, Content: "real", Status: types.StatusDraft, PublicationDate: today(0), MediaURLs: []string{}}, nil)
	c := newCollection(src)
	before := c.Load(context.Background())

	_, err := c.Insert(context.Background(), types.PostDraft{Content: "real", Status: types.StatusDraft, PublicationDate: today(0)})

	assert.ErrorIs(t, err, types.ErrDataSource)
	assert.Equal(t, before, c.Snapshot())
	src.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)

	seen := map[int64]bool{}
	for _, p := range c.Snapshot().Posts {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
}

func hasScheduled(list []types.Post) bool {
	for _, p := range list {
		if p.Status == types.StatusScheduled {
			return true
		}
	}
	return false
}

func TestUnsubscribe(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything).Return(persisted(), nil)
	c := newCollection(src)

	var calls int
	cancel := c.Subscribe(func(Snapshot) { calls++ })
	cancel()
	c.Load(context.Background())
	assert.Zero(t, calls)
}

func find(list []types.Post, id int64) (types.Post, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	return types.Post{}, false
}
