// Package analytics projects published posts into the analytics view: a
// selected post, its interaction trend and the top performers.
package analytics

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/ibeckermayer/postdeck/internal/types"
)

const (
	// DefaultTopPosts is the size of the top performers list.
	DefaultTopPosts = 3
	// TrendDays is the length of the trend series, ending today.
	TrendDays = 7

	minInteractions = 5
	maxInteractions = 50
)

// TrendFunc produces the daily interaction series for a post. The default
// is SimulatedTrend; a real metrics query can replace it.
type TrendFunc func(post types.Post, seed int64, today time.Time) []types.DailyInteraction

// Projector is the analytics view state
type Projector struct {
	trend TrendFunc
	seed  func() int64
	now   func() time.Time

	published []types.Post
	selected  *types.Post
	series    []types.DailyInteraction
}

// Options configures a Projector. Zero values get defaults.
type Options struct {
	Trend TrendFunc
	Seed  func() int64
	Now   func() time.Time
}

func New(opts Options) *Projector {
	p := &Projector{trend: opts.Trend, seed: opts.Seed, now: opts.Now}
	if p.trend == nil {
		p.trend = SimulatedTrend
	}
	if p.seed == nil {
		src := rand.New(rand.NewSource(time.Now().UnixNano()))
		p.seed = src.Int63
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Load replaces the published posts. The first post is selected when
// nothing is selected yet; an existing selection is kept if it is still
// present and dropped otherwise.
func (p *Projector) Load(list []types.Post) {
	p.published = make([]types.Post, 0, len(list))
	for _, post := range list {
		if post.Status == types.StatusPublished {
			p.published = append(p.published, post)
		}
	}

	if p.selected != nil {
		if _, ok := find(p.published, p.selected.ID); ok {
			return
		}
		p.selected = nil
		p.series = nil
	}
	if len(p.published) > 0 {
		p.selectPost(p.published[0])
	}
}

// Published returns the loaded published posts.
func (p *Projector) Published() []types.Post {
	return slices.Clone(p.published)
}

// SelectPost selects the post with id and regenerates its trend series with
// a fresh seed. An unknown id leaves the selection unchanged.
func (p *Projector) SelectPost(id int64) error {
	post, ok := find(p.published, id)
	if !ok {
		return fmt.Errorf("%w: %d", types.ErrPostNotFound, id)
	}
	p.selectPost(post)
	return nil
}

func (p *Projector) selectPost(post types.Post) {
	p.selected = &post
	p.series = p.trend(post, p.seed(), p.now())
}

// Selected returns the selected post.
func (p *Projector) Selected() (types.Post, bool) {
	if p.selected == nil {
		return types.Post{}, false
	}
	return *p.selected, true
}

// Series returns the trend series of the selected post.
func (p *Projector) Series() []types.DailyInteraction {
	return slices.Clone(p.series)
}

// TopPosts returns up to n Published posts by engagement rate, highest
// first. Ties keep their input order. n below 1 means DefaultTopPosts.
func TopPosts(list []types.Post, n int) []types.Post {
	if n < 1 {
		n = DefaultTopPosts
	}
	out := make([]types.Post, 0, len(list))
	for _, post := range list {
		if post.Status == types.StatusPublished {
			out = append(out, post)
		}
	}
	slices.SortStableFunc(out, func(a, b types.Post) int {
		return cmp.Compare(b.EngagementRate, a.EngagementRate)
	})
	return out[:min(n, len(out))]
}

// SimulatedTrend is a TrendFunc with random interactions.
func SimulatedTrend(_ types.Post, seed int64, today time.Time) []types.DailyInteraction {
	return TrendSeries(seed, today)
}

// TrendSeries generates TrendDays entries from today-6 to today with
// interactions in [5, 50]. Equal seeds give equal series.
func TrendSeries(seed int64, today time.Time) []types.DailyInteraction {
	r := rand.New(rand.NewSource(seed))
	day := types.Day(today)
	series := make([]types.DailyInteraction, TrendDays)
	for i := range series {
		d := day.AddDate(0, 0, i-(TrendDays-1))
		series[i] = types.DailyInteraction{
			Date:         d.Format("Jan 02"),
			Day:          d,
			Interactions: minInteractions + r.Intn(maxInteractions-minInteractions+1),
		}
	}
	return series
}

func find(list []types.Post, id int64) (types.Post, bool) {
	i := slices.IndexFunc(list, func(p types.Post) bool { return p.ID == id })
	if i < 0 {
		return types.Post{}, false
	}
	return list[i], true
}
