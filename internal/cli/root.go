// Package cli is the postdeck command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/postdeck/internal/app"
	"github.com/ibeckermayer/postdeck/internal/config"
	"github.com/ibeckermayer/postdeck/internal/locales"
	"github.com/ibeckermayer/postdeck/internal/logging"
	"github.com/ibeckermayer/postdeck/internal/media"
	"github.com/ibeckermayer/postdeck/internal/notifier"
	"github.com/ibeckermayer/postdeck/internal/store"
)

// skipLoad marks commands that do not need the post collection.
const skipLoad = "skip-load"

// session is the state shared by every command of one invocation
type session struct {
	out io.Writer

	// Global flags
	configPath string
	verbose    bool
	lang       string

	log *zap.Logger
	app *app.App
}

// Run executes the command line given by args. Resources opened for the
// command are released even when it fails.
func Run(ctx context.Context, out io.Writer, args []string) error {
	rootCmd, s := newRootCommand(out)
	defer s.teardown()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(out io.Writer) (*cobra.Command, *session) {
	s := &session{out: out}

	rootCmd := &cobra.Command{
		Use:   "postdeck",
		Short: "Manage, write and analyse social media posts",
		Long: `postdeck keeps a list of social media posts in a database and lets you
browse, filter and sort them, write new drafts with an assistant, publish or
schedule them, archive old ones and look at engagement analytics.

Without a reachable database postdeck shows sample posts that are never saved.`,
		SilenceUsage:      true,
		PersistentPreRunE: s.setup,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().StringVar(&s.configPath, "config", "", "config file (default is the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&s.lang, "lang", "", "language for messages (en, es)")

	rootCmd.AddCommand(
		s.listCmd(),
		s.manageCmd(),
		s.statsCmd(),
		s.commitCmd("draft", "Save a new draft"),
		s.commitCmd("publish", "Publish a new post today"),
		s.commitCmd("schedule", "Schedule a new post for a future date"),
		s.archiveCmd(),
		s.exportCmd(),
		s.analyticsCmd(),
		s.reportCmd(),
		s.assistCmd(),
		s.runCmd(),
	)
	return rootCmd, s
}

func (s *session) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(s.configPath, nil)
	if err != nil {
		return err
	}
	if s.lang != "" {
		cfg.Language = s.lang
	}

	s.log, err = logging.New(s.verbose || cfg.Debug)
	if err != nil {
		return err
	}

	// An empty DSN leaves sentry disabled.
	err = sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Debug:       cfg.Debug,
	})
	if err != nil {
		s.log.Warn("sentry init failed", zap.Error(err))
	}

	tr, err := locales.New(cfg.Language, s.log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	source, err := store.Open(ctx, cfg.Database)
	if err != nil {
		s.log.Error("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		sentry.CaptureException(err)
		source = store.Unavailable{Err: err}
	}

	storage, err := media.New(cfg.Storage)
	if err != nil {
		s.log.Warn("media storage unavailable", zap.String("provider", cfg.Storage.Provider), zap.Error(err))
		storage = media.Offline{}
	}

	s.app, err = app.New(cfg, app.Deps{
		Source:     source,
		Storage:    storage,
		Sender:     notifier.NewConsole(s.out),
		Translator: tr,
		Logger:     s.log,
	})
	if err != nil {
		source.Close()
		return err
	}

	if cmd.Annotations[skipLoad] == "" {
		s.app.Refresh(ctx)
	}
	return nil
}

func (s *session) teardown() {
	if s.app != nil {
		if err := s.app.Close(); err != nil {
			s.log.Warn("failed to close app", zap.Error(err))
		}
		s.app = nil
	}
	sentry.Flush(2 * time.Second)
	if s.log != nil {
		_ = s.log.Sync()
	}
}

func (s *session) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
