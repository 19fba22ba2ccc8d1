package posts

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// PlaceholderCount is the size of the demo data set used when the data
// source is empty or unreachable.
const PlaceholderCount = 20

var placeholderStatuses = []types.Status{types.StatusPublished, types.StatusDraft, types.StatusScheduled}

// Placeholders generates n demo posts with IDs 1..n, dated within the last
// 30 days and carrying random engagement. Callers must mark the result as
// non-authoritative.
func Placeholders(r *rand.Rand, n int, now time.Time) []types.Post {
	today := types.Day(now)
	out := make([]types.Post, n)
	for i := range n {
		out[i] = types.Post{
			ID:              int64(i + 1),
			Content:         fmt.Sprintf("This is a sample LinkedIn post number %d. Let's discuss the future of AI in modern web development. #AI #WebDev #Reflex", i+1),
			PublicationDate: today.AddDate(0, 0, -r.Intn(31)),
			Status:          placeholderStatuses[r.Intn(len(placeholderStatuses))],
			Likes:           5 + r.Intn(496),
			Comments:        r.Intn(101),
			EngagementRate:  Round2(0.5 + r.Float64()*14.5),
			MediaURLs:       []string{},
			CreatedAt:       now,
		}
	}
	return out
}
