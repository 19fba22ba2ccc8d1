package types

import (
	"fmt"
	"strings"
	"time"
)

// Status is a post's lifecycle state
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusScheduled Status = "Scheduled"
	StatusPublished Status = "Published"
	StatusArchived  Status = "Archived"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusScheduled, StatusPublished, StatusArchived}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Rank orders statuses for sorting: Draft < Scheduled < Published < Archived.
func (s Status) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return len(Statuses)
}

// Post is a managed social-media post
type Post struct {
	ID              int64     `json:"id"`
	Content         string    `json:"content"`
	PublicationDate time.Time `json:"publication_date"` // calendar date, UTC midnight
	Status          Status    `json:"status"`
	Likes           int       `json:"likes"`
	Comments        int       `json:"comments"`
	EngagementRate  float64   `json:"engagement_rate"`
	MediaURLs       []string  `json:"media_urls"`
	CreatedAt       time.Time `json:"created_at"`
}

// PostDraft is the payload committed to the store on save or publish.
type PostDraft struct {
	Content         string    `json:"content"`
	PublicationDate time.Time `json:"publication_date"`
	Status          Status    `json:"status"`
	MediaURLs       []string  `json:"media_urls"`
}

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of an assistant conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DailyInteraction is one point of the synthetic 7-day trend series
type DailyInteraction struct {
	Date         string    `json:"date"` // e.g. "Oct 09"
	Day          time.Time `json:"day"`
	Interactions int       `json:"interactions"`
}

// Stats are the dashboard aggregates
type Stats struct {
	TotalPosts    int     `json:"total_posts"`
	TotalLikes    int     `json:"total_likes"`
	TotalComments int     `json:"total_comments"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// DateLayout is the wire and storage format of publication dates.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clone returns a copy of p that shares no slices with it.
func (p Post) Clone() Post {
	c := p
	c.MediaURLs = append([]string{}, p.MediaURLs...)
	return c
}
