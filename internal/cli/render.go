package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ibeckermayer/postdeck/internal/collection"
	"github.com/ibeckermayer/postdeck/internal/dashboard"
	"github.com/ibeckermayer/postdeck/internal/types"
)

var (
	primary = lipgloss.Color("#0a66c2")
	muted   = lipgloss.Color("#8a8f98")
	border  = lipgloss.Color("#dce0e5")

	statusColors = map[types.Status]lipgloss.Color{
		types.StatusDraft:     lipgloss.Color("#FFC107"),
		types.StatusScheduled: lipgloss.Color("#2196F3"),
		types.StatusPublished: lipgloss.Color("#8BC34A"),
		types.StatusArchived:  lipgloss.Color("#8a8f98"),
	}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1).Width(38)
	statStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 2).Align(lipgloss.Center)
)

func statusStyle(s types.Status) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(statusColors[s])
}

// excerpt shortens content to n characters on one line.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func postRows(list []types.Post) [][]string {
	rows := make([][]string, len(list))
	for i, p := range list {
		rows[i] = []string{
			strconv.FormatInt(p.ID, 10),
			excerpt(p.Content, 48),
			p.PublicationDate.Format(types.DateLayout),
			string(p.Status),
			strconv.Itoa(p.Likes),
			strconv.Itoa(p.Comments),
			fmt.Sprintf("%.2f%%", p.EngagementRate),
		}
	}
	return rows
}

// renderTable draws posts as a bordered table.
func renderTable(list []types.Post) string {
	rows := postRows(list)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		Headers("ID", "Content", "Date", "Status", "Likes", "Comments", "Engagement").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(list) {
				return cellStyle.Foreground(statusColors[list[row].Status])
			}
			return cellStyle
		})
	return t.Render()
}

// renderCard draws one post as a card.
func renderCard(p types.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render("#"+strconv.FormatInt(p.ID, 10)), statusStyle(p.Status).Render(string(p.Status)))
	b.WriteString(excerpt(p.Content, 100))
	b.WriteString("\n")
	meta := fmt.Sprintf("%s · %d likes · %d comments · %.2f%%",
		p.PublicationDate.Format(types.DateLayout), p.Likes, p.Comments, p.EngagementRate)
	if len(p.MediaURLs) > 0 {
		meta += fmt.Sprintf(" · %d media", len(p.MediaURLs))
	}
	b.WriteString(mutedStyle.Render(meta))
	return cardStyle.Render(b.String())
}

// renderCards lays cards out three per row.
func renderCards(list []types.Post) string {
	var rows []string
	for i := 0; i < len(list); i += 3 {
		var cards []string
		for _, p := range list[i:min(i+3, len(list))] {
			cards = append(cards, renderCard(p))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderStats(st types.Stats) string {
	box := func(label, value string) string {
		return statStyle.Render(titleStyle.Render(value) + "\n" + mutedStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("Posts", strconv.Itoa(st.TotalPosts)),
		box("Likes", strconv.Itoa(st.TotalLikes)),
		box("Comments", strconv.Itoa(st.TotalComments)),
		box("Avg engagement", fmt.Sprintf("%.2f%%", st.AvgEngagement)),
	)
}

func renderConnection(status collection.ConnectionStatus, authoritative bool) string {
	if !authoritative {
		return warningStyle.Render("offline: showing placeholder posts")
	}
	return mutedStyle.Render("database: " + string(status))
}

func renderDashboard(v dashboard.View, cards bool) string {
	var b strings.Builder
	b.WriteString(renderStats(v.Stats))
	b.WriteString("\n")
	if cards {
		b.WriteString(renderCards(v.Posts))
	} else {
		b.WriteString(renderTable(v.Posts))
	}
	b.WriteString("\n")
	dir := "desc"
	if v.Ascending {
		dir = "asc"
	}
	fmt.Fprintf(&b, "%s  %s\n",
		mutedStyle.Render(fmt.Sprintf("page %d of %d · sorted by %s %s", v.Page, max(v.TotalPages, 1), v.SortBy, dir)),
		renderConnection(v.Status, v.Authoritative))
	return b.String()
}

// renderTrend draws the interaction series as horizontal bars.
func renderTrend(series []types.DailyInteraction) string {
	bar := lipgloss.NewStyle().Foreground(primary)
	var b strings.Builder
	for _, d := range series {
		fmt.Fprintf(&b, "%s %s %d\n", mutedStyle.Render(d.Date), bar.Render(strings.Repeat("█", d.Interactions/2)), d.Interactions)
	}
	return b.String()
}
