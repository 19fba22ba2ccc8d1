// Package report renders the analytics view as a standalone HTML page and a
// plain text summary.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// Builder creates analytics reports
type Builder struct {
	template *template.Template
	now      func() time.Time
}

// New creates a new report builder
func New() (*Builder, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"barWidth": barWidth,
	}).Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{
		template: tmpl,
		now:      time.Now,
	}, nil
}

// Input is what a report is built from
type Input struct {
	Stats    types.Stats
	TopPosts []types.Post
	Selected *types.Post
	Trend    []types.DailyInteraction
	// Authoritative is false when the posts are local placeholders.
	Authoritative bool
}

// Report is a rendered analytics report
type Report struct {
	Title     string
	HTMLBody  string
	PlainBody string
	PostIDs   []int64
	CreatedAt time.Time
}

// ReportData is the template data structure
type ReportData struct {
	Title         string
	Date          string
	Stats         types.Stats
	Posts         []PostData
	Selected      *PostData
	Trend         []types.DailyInteraction
	Authoritative bool
}

// PostData represents a post in the report template
type PostData struct {
	ID             int64
	Content        string
	Date           string
	Likes          int
	Comments       int
	EngagementRate float64
	Media          int
}

// Build renders a report from in
func (b *Builder) Build(in Input) (*Report, error) {
	now := b.now()
	data := ReportData{
		Title:         "Post Analytics",
		Date:          now.Format("Monday, January 2"),
		Stats:         in.Stats,
		Posts:         make([]PostData, len(in.TopPosts)),
		Trend:         in.Trend,
		Authoritative: in.Authoritative,
	}

	postIDs := make([]int64, len(in.TopPosts))
	for i, p := range in.TopPosts {
		data.Posts[i] = postData(p)
		postIDs[i] = p.ID
	}
	if in.Selected != nil {
		sel := postData(*in.Selected)
		data.Selected = &sel
	}

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Title:     fmt.Sprintf("%s - %s", data.Title, now.Format("Jan 2")),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		PostIDs:   postIDs,
		CreatedAt: now,
	}, nil
}

func postData(p types.Post) PostData {
	return PostData{
		ID:             p.ID,
		Content:        truncate(p.Content, 280),
		Date:           p.PublicationDate.Format(types.DateLayout),
		Likes:          p.Likes,
		Comments:       p.Comments,
		EngagementRate: p.EngagementRate,
		Media:          len(p.MediaURLs),
	}
}

// truncate shortens s to maxLen characters.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

// barWidth scales interactions to a percentage of the largest possible value.
func barWidth(n int) int {
	return min(100, n*2)
}

func buildPlainText(data ReportData) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s\n%s\n\n", data.Title, data.Date)
	if !data.Authoritative {
		buf.WriteString("(offline data: figures come from local placeholder posts)\n\n")
	}

	fmt.Fprintf(&buf, "Posts: %d  Likes: %d  Comments: %d  Avg engagement: %.2f%%\n\n",
		data.Stats.TotalPosts, data.Stats.TotalLikes, data.Stats.TotalComments, data.Stats.AvgEngagement)

	if len(data.Posts) > 0 {
		buf.WriteString("Top posts\n")
		for i, p := range data.Posts {
			fmt.Fprintf(&buf, "%d. #%d %.2f%% (%d likes, %d comments): %s\n",
				i+1, p.ID, p.EngagementRate, p.Likes, p.Comments, truncate(p.Content, 60))
		}
		buf.WriteString("\n")
	}

	if data.Selected != nil {
		fmt.Fprintf(&buf, "Interactions for #%d\n", data.Selected.ID)
		for _, d := range data.Trend {
			fmt.Fprintf(&buf, "   %s  %3d  %s\n", d.Date, d.Interactions, strings.Repeat("#", d.Interactions/2))
		}
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 720px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #0a66c2; margin-bottom: 5px; }
        h2 { color: #333; font-size: 16px; margin-top: 25px; }
        .date { color: #666; margin-bottom: 20px; }
        .warning { background: #fff4e5; color: #8a5300; padding: 8px 12px; border-radius: 6px; margin-bottom: 15px; }
        .stats { display: flex; gap: 12px; }
        .stat { flex: 1; background: #eef3f8; border-radius: 6px; padding: 10px; text-align: center; }
        .stat .value { font-size: 22px; font-weight: bold; color: #0a66c2; }
        .stat .label { color: #666; font-size: 12px; }
        .post { border-bottom: 1px solid #eee; padding: 12px 0; }
        .post:last-child { border-bottom: none; }
        .content { margin: 6px 0; line-height: 1.4; }
        .metrics { color: #666; font-size: 13px; }
        .bar-row { display: flex; align-items: center; margin: 4px 0; font-size: 13px; }
        .bar-label { width: 60px; color: #666; }
        .bar { background: #0a66c2; height: 12px; border-radius: 3px; margin-right: 6px; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}}</div>
        {{if not .Authoritative}}<div class="warning">Offline data: these figures come from local placeholder posts.</div>{{end}}

        <div class="stats">
            <div class="stat"><div class="value">{{.Stats.TotalPosts}}</div><div class="label">Posts</div></div>
            <div class="stat"><div class="value">{{.Stats.TotalLikes}}</div><div class="label">Likes</div></div>
            <div class="stat"><div class="value">{{.Stats.TotalComments}}</div><div class="label">Comments</div></div>
            <div class="stat"><div class="value">{{printf "%.2f" .Stats.AvgEngagement}}%</div><div class="label">Avg engagement</div></div>
        </div>

        <h2>Top posts</h2>
        {{range .Posts}}
        <div class="post">
            <div class="content">{{.Content}}</div>
            <div class="metrics">{{.Date}} · {{.Likes}} likes · {{.Comments}} comments · {{printf "%.2f" .EngagementRate}}% engagement{{if .Media}} · {{.Media}} media{{end}}</div>
        </div>
        {{else}}
        <div class="metrics">No published posts yet.</div>
        {{end}}

        {{with .Selected}}
        <h2>Interactions, last 7 days</h2>
        <div class="content">{{.Content}}</div>
        {{end}}
        {{if .Selected}}{{range .Trend}}
        <div class="bar-row"><span class="bar-label">{{.Date}}</span><span class="bar" style="width: {{barWidth .Interactions}}%"></span>{{.Interactions}}</div>
        {{end}}{{end}}

        <div class="footer">
            Generated by postdeck
        </div>
    </div>
</body>
</html>`
