// Package posts holds the pure derivations over a post list: filtering,
// sorting, pagination and aggregate stats. None of these functions mutate
// their input, and equal inputs always give equal outputs.
package posts

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// FilterAll disables the status predicate of Filter.
const FilterAll = "All"

// SortKey names a sortable column
type SortKey string

const (
	SortContent         SortKey = "content"
	SortPublicationDate SortKey = "publication_date"
	SortStatus          SortKey = "status"
	SortEngagementRate  SortKey = "engagement_rate"
)

// SortKeys lists the accepted sort columns.
var SortKeys = []SortKey{SortContent, SortPublicationDate, SortStatus, SortEngagementRate}

// ErrUnknownSortKey is returned by Sort for a column it cannot order by.
var ErrUnknownSortKey = errors.New("unknown sort key")

// ParseSortKey validates a column name.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if slices.Contains(SortKeys, k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// Filter keeps posts matching status (FilterAll or "" matches everything)
// whose content contains search, ignoring case.
func Filter(posts []types.Post, status string, search string) []types.Post {
	out := make([]types.Post, 0, len(posts))
	needle := strings.ToLower(search)
	for _, p := range posts {
		if status != "" && status != FilterAll && string(p.Status) != status {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Content), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// WithoutStatus drops every post in the given status.
func WithoutStatus(posts []types.Post, status types.Status) []types.Post {
	out := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		if p.Status != status {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a stably sorted copy. Equal keys keep their input order in
// both directions.
func Sort(posts []types.Post, key SortKey, ascending bool) ([]types.Post, error) {
	cmp, err := comparator(key)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(posts)
	if out == nil {
		out = []types.Post{}
	}
	slices.SortStableFunc(out, func(a, b types.Post) int {
		if ascending {
			return cmp(a, b)
		}
		return cmp(b, a)
	})
	return out, nil
}

func comparator(key SortKey) (func(a, b types.Post) int, error) {
	switch key {
	case SortContent:
		return func(a, b types.Post) int { return strings.Compare(a.Content, b.Content) }, nil
	case SortPublicationDate:
		return func(a, b types.Post) int { return a.PublicationDate.Compare(b.PublicationDate) }, nil
	case SortStatus:
		return func(a, b types.Post) int { return a.Status.Rank() - b.Status.Rank() }, nil
	case SortEngagementRate:
		return func(a, b types.Post) int {
			switch {
			case a.EngagementRate < b.EngagementRate:
				return -1
			case a.EngagementRate > b.EngagementRate:
				return 1
			}
			return 0
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
}

// TotalPages is ceil(n/size). A size below 1 counts as 1.
func TotalPages(n, size int) int {
	size = max(size, 1)
	return (n + size - 1) / size
}

// ClampPage bounds page to [1, TotalPages(n, size)].
func ClampPage(page, n, size int) int {
	return max(1, min(page, TotalPages(n, size)))
}

// Paginate returns the 1-indexed page of posts after clamping page into range.
func Paginate(posts []types.Post, page, size int) []types.Post {
	if len(posts) == 0 {
		return []types.Post{}
	}
	size = max(size, 1)
	page = ClampPage(page, len(posts), size)
	start := (page - 1) * size
	end := min(start+size, len(posts))
	return slices.Clone(posts[start:end])
}

// Aggregate computes dashboard stats. TotalPosts counts every post; likes,
// comments and the average engagement only count Published posts.
func Aggregate(posts []types.Post) types.Stats {
	stats := types.Stats{TotalPosts: len(posts)}
	var published int
	var engagement float64
	for _, p := range posts {
		if p.Status != types.StatusPublished {
			continue
		}
		published++
		stats.TotalLikes += p.Likes
		stats.TotalComments += p.Comments
		engagement += p.EngagementRate
	}
	if published > 0 {
		stats.AvgEngagement = Round2(engagement / float64(published))
	}
	return stats
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Find returns the post with the given ID.
func Find(posts []types.Post, id int64) (types.Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return types.Post{}, false
}
