// Package dashboard keeps the per-session view state of the posts table and
// the management grid. It never owns posts; views are derived on demand from
// a collection snapshot.
package dashboard

import (
	"errors"
	"strings"

	"github.com/ibeckermayer/postdeck/internal/collection"
	"github.com/ibeckermayer/postdeck/internal/posts"
	"github.com/ibeckermayer/postdeck/internal/types"
)

const DefaultPerPage = 5

// ErrArchivedHidden is returned when the management grid is asked to show archived posts.
var ErrArchivedHidden = errors.New("archived posts are not shown in the management grid")

// Dashboard is the sort and page state of the posts table
type Dashboard struct {
	sortBy    posts.SortKey
	ascending bool
	page      int
	perPage   int
}

// View is one rendered page of the dashboard
type View struct {
	Posts         []types.Post
	Page          int
	TotalPages    int
	SortBy        posts.SortKey
	Ascending     bool
	Stats         types.Stats
	Status        collection.ConnectionStatus
	Authoritative bool
}

// New returns a dashboard sorted by publication date, newest first.
func New(perPage int) *Dashboard {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &Dashboard{
		sortBy:  posts.SortPublicationDate,
		page:    1,
		perPage: perPage,
	}
}

// SetSortBy selects a sort column. Selecting the current column flips the
// direction; a new column starts ascending. The page resets to 1.
func (d *Dashboard) SetSortBy(key posts.SortKey) error {
	if _, err := posts.ParseSortKey(string(key)); err != nil {
		return err
	}
	if key == d.sortBy {
		d.ascending = !d.ascending
	} else {
		d.sortBy = key
		d.ascending = true
	}
	d.page = 1
	return nil
}

// SetSort sets column and direction directly, as the CLI flags do.
func (d *Dashboard) SetSort(key posts.SortKey, ascending bool) error {
	if _, err := posts.ParseSortKey(string(key)); err != nil {
		return err
	}
	d.sortBy = key
	d.ascending = ascending
	d.page = 1
	return nil
}

func (d *Dashboard) SortBy() (posts.SortKey, bool) { return d.sortBy, d.ascending }

func (d *Dashboard) Page() int { return d.page }

// SetPage moves to page, clamped to the pages available for n posts.
func (d *Dashboard) SetPage(page, n int) {
	d.page = posts.ClampPage(page, n, d.perPage)
}

func (d *Dashboard) NextPage(n int) { d.SetPage(d.page+1, n) }

func (d *Dashboard) PrevPage(n int) { d.SetPage(d.page-1, n) }

// View sorts and pages the snapshot. Stats cover the whole snapshot.
func (d *Dashboard) View(snap collection.Snapshot) (View, error) {
	sorted, err := posts.Sort(snap.Posts, d.sortBy, d.ascending)
	if err != nil {
		return View{}, err
	}
	page := posts.ClampPage(d.page, len(sorted), d.perPage)
	return View{
		Posts:         posts.Paginate(sorted, page, d.perPage),
		Page:          page,
		TotalPages:    posts.TotalPages(len(sorted), d.perPage),
		SortBy:        d.sortBy,
		Ascending:     d.ascending,
		Stats:         posts.Aggregate(snap.Posts),
		Status:        snap.Status,
		Authoritative: snap.Authoritative(),
	}, nil
}

// Management is the filter state of the management grid
type Management struct {
	status string
	search string
}

// ManagementStatuses are the filter choices of the management grid.
var ManagementStatuses = []string{
	posts.FilterAll,
	string(types.StatusDraft),
	string(types.StatusScheduled),
	string(types.StatusPublished),
}

func NewManagement() *Management {
	return &Management{status: posts.FilterAll}
}

// SetStatus accepts All or a non-archived status in any case.
func (m *Management) SetStatus(s string) error {
	if s == "" {
		m.status = posts.FilterAll
		return nil
	}
	for _, choice := range ManagementStatuses {
		if strings.EqualFold(choice, s) {
			m.status = choice
			return nil
		}
	}
	_, err := types.ParseStatus(s)
	if err == nil {
		return ErrArchivedHidden
	}
	return err
}

func (m *Management) SetSearch(q string) { m.search = q }

func (m *Management) Status() string { return m.status }

func (m *Management) Search() string { return m.search }

// View hides archived posts, then applies the status and search filters.
func (m *Management) View(list []types.Post) []types.Post {
	return posts.Filter(posts.WithoutStatus(list, types.StatusArchived), m.status, m.search)
}
