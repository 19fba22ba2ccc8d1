package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/postdeck/internal/dashboard"
	"github.com/ibeckermayer/postdeck/internal/lifecycle"
	"github.com/ibeckermayer/postdeck/internal/locales"
	"github.com/ibeckermayer/postdeck/internal/media"
	"github.com/ibeckermayer/postdeck/internal/posts"
	"github.com/ibeckermayer/postdeck/internal/types"
)

func (s *session) listCmd() *cobra.Command {
	var (
		sortBy  string
		asc     bool
		page    int
		perPage int
		cards   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the posts table with stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := s.app.Dashboard()
			if perPage > 0 {
				key, ascending := d.SortBy()
				d = dashboard.New(perPage)
				if err := d.SetSort(key, ascending); err != nil {
					return err
				}
			}
			if sortBy != "" || cmd.Flags().Changed("asc") {
				key, _ := d.SortBy()
				if sortBy != "" {
					k, err := posts.ParseSortKey(sortBy)
					if err != nil {
						return err
					}
					key = k
				}
				if err := d.SetSort(key, asc); err != nil {
					return err
				}
			}
			d.SetPage(page, len(s.app.Collection().Snapshot().Posts))

			v, err := d.View(s.app.Collection().Snapshot())
			if err != nil {
				return err
			}
			s.printf("%s", renderDashboard(v, cards))
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort column: content, publication_date, status, engagement_rate")
	cmd.Flags().BoolVar(&asc, "asc", false, "sort ascending")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "posts per page (default from config)")
	cmd.Flags().BoolVar(&cards, "cards", false, "show posts as cards")
	return cmd
}

func (s *session) manageCmd() *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "manage",
		Short: "Filter posts by status and search text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := s.app.Management()
			if err := m.SetStatus(status); err != nil {
				return err
			}
			m.SetSearch(search)

			list := s.app.ManagementView()
			if len(list) == 0 {
				s.app.Notice(locales.MsgNoPosts)
				return nil
			}
			s.printf("%s\n", renderCards(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", posts.FilterAll, "status filter: "+strings.Join(dashboard.ManagementStatuses, ", "))
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text to look for")
	return cmd
}

func (s *session) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals across all posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.printf("%s\n", renderStats(s.app.Stats()))
			return nil
		},
	}
}

// commitCmd builds draft, publish and schedule, which differ only in the
// status they commit to.
func (s *session) commitCmd(name, short string) *cobra.Command {
	var (
		content string
		files   []string
		date    string
	)
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := s.app.Composer()
			c.SetContent(content)
			if c.OverLimit() {
				s.app.Notice(locales.MsgOverLimit, locales.Data{"Count": c.CharacterCount(), "Limit": lifecycle.MaxContentLength})
			}

			if len(files) > 0 {
				picked, err := media.ReadFiles(files)
				if err != nil {
					return err
				}
				if _, err := s.app.UploadMedia(ctx, picked); err != nil {
					return err
				}
			}

			var (
				p   types.Post
				err error
			)
			switch name {
			case "draft":
				p, err = s.app.SaveDraft(ctx)
			case "publish":
				p, err = s.app.Publish(ctx)
			case "schedule":
				var when time.Time
				when, err = time.Parse(types.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", date, err)
				}
				p, err = s.app.Schedule(ctx, when)
			}
			if err != nil {
				return err
			}
			s.printf("%s\n", renderCard(p))
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "post text")
	cmd.Flags().StringArrayVarP(&files, "media", "m", nil, "image or video file to attach (repeatable)")
	if name == "schedule" {
		cmd.Flags().StringVar(&date, "date", "", "publication date (YYYY-MM-DD)")
		_ = cmd.MarkFlagRequired("date")
	}
	return cmd
}

func (s *session) archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a published post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			_, err = s.app.Archive(cmd.Context(), id)
			return err
		},
	}
}

func (s *session) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all posts to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := s.app.Export()
			if err != nil {
				return err
			}
			s.printf("%s\n", path)
			return nil
		},
	}
}

func (s *session) analyticsCmd() *cobra.Command {
	var (
		postID int64
		top    bool
	)
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show the interaction trend of a published post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if top {
				list := s.app.TopPosts()
				if len(list) == 0 {
					s.app.Notice(locales.MsgNoPosts)
					return nil
				}
				s.printf("%s\n", renderTable(list))
				return nil
			}

			p, err := s.app.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			if postID != 0 {
				if err := p.SelectPost(postID); err != nil {
					return err
				}
			}
			sel, ok := p.Selected()
			if !ok {
				s.app.Notice(locales.MsgNoPosts)
				return nil
			}
			s.printf("%s\n%s", renderCard(sel), renderTrend(p.Series()))
			return nil
		},
	}
	cmd.Flags().Int64Var(&postID, "post", 0, "published post to chart (default first)")
	cmd.Flags().BoolVar(&top, "top", false, "show the top posts by engagement instead")
	return cmd
}

func (s *session) reportCmd() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build an analytics report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := s.app.BuildReport(cmd.Context())
			if err != nil {
				return err
			}
			if open {
				return browser.OpenFile(path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the report in the browser")
	return cmd
}

func (s *session) assistCmd() *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "assist <prompt...>",
		Short: "Ask the assistant to write a post",
		Long: `Ask the assistant to write a post about the prompt.

With --use the reply is saved as a new draft.`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{skipLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := s.app.Assist(ctx, strings.Join(args, " "), use)
			if err != nil {
				return err
			}
			if text == "" {
				return errors.New("prompt is empty")
			}
			s.printf("%s\n", text)
			if !use {
				return nil
			}
			// The draft goes into the list, so load it first.
			s.app.Refresh(ctx)
			p, err := s.app.SaveDraft(ctx)
			if err != nil {
				return err
			}
			s.printf("%s\n", renderCard(p))
			return nil
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "save the reply as a draft")
	return cmd
}

func (s *session) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "run",
		Short:       "Publish scheduled posts as they fall due",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// SIGHUP rereads the config file.
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						if err := s.app.ReloadConfig(s.configPath); err != nil {
							s.log.Error("failed to reload config", zap.Error(err))
						}
					}
				}
			}()

			s.printf("Publishing scheduled posts (%s). Press Ctrl+C to stop.\n", s.app.Config().Scheduler.PublishSchedule)
			return s.app.RunScheduler(ctx)
		},
	}
}
