package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/postdeck/internal/types"
)

var today = time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

func published() []types.Post {
	return []types.Post{
		{ID: 1, Content: "a", Status: types.StatusPublished, EngagementRate: 4.2},
		{ID: 2, Content: "b", Status: types.StatusDraft, EngagementRate: 99},
		{ID: 3, Content: "c", Status: types.StatusPublished, EngagementRate: 8.1},
		{ID: 4, Content: "d", Status: types.StatusPublished, EngagementRate: 4.2},
		{ID: 5, Content: "e", Status: types.StatusPublished, EngagementRate: 1.0},
	}
}

func counter() func() int64 {
	var n int64
	return func() int64 {
		n++
		return n
	}
}

func TestTrendSeriesShape(t *testing.T) {
	series := TrendSeries(7, today)
	require.Len(t, series, TrendDays)
	assert.Equal(t, "Oct 09", series[0].Date)
	assert.Equal(t, "Oct 15", series[6].Date)
	for i, d := range series {
		assert.GreaterOrEqual(t, d.Interactions, 5)
		assert.LessOrEqual(t, d.Interactions, 50)
		assert.Equal(t, types.Day(today).AddDate(0, 0, i-6), d.Day)
	}
	if diff := cmp.Diff(series, TrendSeries(7, today)); diff != "" {
		t.Errorf("same seed must give same series (-first +second):\n%s", diff)
	}
}

func TestLoadSelectsFirstPublished(t *testing.T) {
	p := New(Options{Seed: counter(), Now: func() time.Time { return today }})
	_, ok := p.Selected()
	assert.False(t, ok)

	p.Load(published())
	sel, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(1), sel.ID)
	assert.Len(t, p.Published(), 4)
	assert.Len(t, p.Series(), TrendDays)
}

func TestLoadEmpty(t *testing.T) {
	p := New(Options{})
	p.Load(nil)
	_, ok := p.Selected()
	assert.False(t, ok)
	assert.Empty(t, p.Series())
}

func TestReselectRegeneratesSeries(t *testing.T) {
	var seeds []int64
	p := New(Options{
		Seed: counter(),
		Now:  func() time.Time { return today },
		Trend: func(_ types.Post, seed int64, day time.Time) []types.DailyInteraction {
			seeds = append(seeds, seed)
			return TrendSeries(seed, day)
		},
	})
	p.Load(published())

	require.NoError(t, p.SelectPost(3))
	first := p.Series()
	require.NoError(t, p.SelectPost(3))
	second := p.Series()

	assert.Equal(t, []int64{1, 2, 3}, seeds, "every selection draws a fresh seed")
	require.Len(t, second, TrendDays)
	assert.Equal(t, TrendSeries(2, today), first)
	assert.Equal(t, TrendSeries(3, today), second)
	assert.Equal(t, "Oct 15", second[6].Date)
}

func TestSelectUnknownKeepsState(t *testing.T) {
	p := New(Options{Seed: counter(), Now: func() time.Time { return today }})
	p.Load(published())
	before := p.Series()

	assert.ErrorIs(t, p.SelectPost(2), types.ErrPostNotFound, "drafts are not selectable")
	assert.ErrorIs(t, p.SelectPost(42), types.ErrPostNotFound)

	sel, _ := p.Selected()
	assert.Equal(t, int64(1), sel.ID)
	assert.Equal(t, before, p.Series())
}

func TestReloadDropsVanishedSelection(t *testing.T) {
	p := New(Options{Seed: counter(), Now: func() time.Time { return today }})
	p.Load(published())
	require.NoError(t, p.SelectPost(4))

	p.Load(published()[:2])
	sel, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(1), sel.ID)
}

func TestTopPosts(t *testing.T) {
	top := TopPosts(published(), 0)
	assert.Equal(t, []int64{3, 1, 4}, ids(top), "stable on ties, drafts excluded")

	assert.Len(t, TopPosts(published(), 10), 4)
	assert.Empty(t, TopPosts(nil, 3))
}

func ids(list []types.Post) []int64 {
	out := make([]int64, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}
