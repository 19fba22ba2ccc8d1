package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/ibeckermayer/postdeck/internal/analytics"
	"github.com/ibeckermayer/postdeck/internal/assistant"
	"github.com/ibeckermayer/postdeck/internal/collection"
	"github.com/ibeckermayer/postdeck/internal/composer"
	"github.com/ibeckermayer/postdeck/internal/config"
	"github.com/ibeckermayer/postdeck/internal/dashboard"
	"github.com/ibeckermayer/postdeck/internal/lifecycle"
	"github.com/ibeckermayer/postdeck/internal/locales"
	"github.com/ibeckermayer/postdeck/internal/logging"
	"github.com/ibeckermayer/postdeck/internal/media"
	"github.com/ibeckermayer/postdeck/internal/notifier"
	"github.com/ibeckermayer/postdeck/internal/posts"
	"github.com/ibeckermayer/postdeck/internal/report"
	"github.com/ibeckermayer/postdeck/internal/scheduler"
	"github.com/ibeckermayer/postdeck/internal/store"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// Deps are the collaborators an App is built from. Only Source is required.
type Deps struct {
	Source     store.Source
	Storage    media.Storage
	Generator  assistant.Generator
	Sender     notifier.Sender
	Translator *locales.Translator
	Logger     *zap.Logger
	Now        func() time.Time
}

// App holds the state of one operator session.
type App struct {
	mu sync.RWMutex

	// Immutable after creation.
	source     store.Source
	collection *collection.Collection
	composer   *composer.Composer
	notifier   *notifier.Notifier
	reports    *report.Builder
	log        *zap.Logger
	now        func() time.Time
	unwatch    func()

	// Mutable fields - use getSnapshot() for concurrent access.
	config     *config.Config
	dashboard  *dashboard.Dashboard
	management *dashboard.Management
	analytics  *analytics.Projector
}

// snapshot holds fields that may be replaced by ReloadConfig.
// Use getSnapshot() to obtain a consistent, point-in-time copy.
type snapshot struct {
	config     *config.Config
	dashboard  *dashboard.Dashboard
	management *dashboard.Management
	analytics  *analytics.Projector
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:     a.config,
		dashboard:  a.dashboard,
		management: a.management,
		analytics:  a.analytics,
	}
}

// New creates a new App instance.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Source == nil {
		return nil, errors.New("app: a data source is required")
	}
	log := logging.OrNop(deps.Logger)
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	gen := deps.Generator
	if gen == nil {
		gen = assistant.NewSimulated(cfg.Assistant.Latency.Duration)
	}
	storage := deps.Storage
	if storage == nil {
		storage = media.Offline{}
	}

	sender := deps.Sender
	if sender == nil {
		sender = notifier.NewConsole(os.Stdout)
	}
	tr := deps.Translator
	if tr == nil {
		var err error
		if tr, err = locales.New(cfg.Language, log); err != nil {
			return nil, err
		}
	}

	reports, err := report.New()
	if err != nil {
		return nil, err
	}

	uploader := media.NewUploader(storage, media.UploaderOptions{
		Logger:      log,
		Concurrency: cfg.Storage.MaxConcurrentUploads,
		PerSecond:   cfg.Storage.UploadsPerSecond,
	})

	a := &App{
		source: deps.Source,
		collection: collection.New(deps.Source, collection.Options{
			Logger:       log,
			QueryTimeout: cfg.Database.QueryTimeout.Duration,
			Now:          now,
		}),
		composer: composer.New(uploader, gen, log),
		notifier: notifier.New(sender, tr),
		reports:  reports,
		log:      log.Named("app"),
		now:      now,
		config:   cfg,
	}
	if err := a.applyViewConfig(cfg); err != nil {
		return nil, err
	}
	a.unwatch = a.collection.Subscribe(a.logSnapshot)
	return a, nil
}

func (a *App) applyViewConfig(cfg *config.Config) error {
	d := dashboard.New(cfg.Dashboard.ItemsPerPage)
	if cfg.Dashboard.SortBy != "" {
		key, err := posts.ParseSortKey(cfg.Dashboard.SortBy)
		if err != nil {
			return fmt.Errorf("invalid dashboard sort_by: %w", err)
		}
		if err := d.SetSort(key, cfg.Dashboard.SortAscending); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = cfg
	a.dashboard = d
	if a.management == nil {
		a.management = dashboard.NewManagement()
	}
	if a.analytics == nil {
		a.analytics = analytics.New(analytics.Options{Now: a.now})
	}
	return nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config { return a.getSnapshot().config }

// Collection returns the session's post collection.
func (a *App) Collection() *collection.Collection { return a.collection }

// Composer returns the session's draft composer.
func (a *App) Composer() *composer.Composer { return a.composer }

// Dashboard returns the posts table state.
func (a *App) Dashboard() *dashboard.Dashboard { return a.getSnapshot().dashboard }

// Management returns the management grid state.
func (a *App) Management() *dashboard.Management { return a.getSnapshot().management }

// Refresh reloads the collection from the data source and tells the
// operator when the data is not authoritative.
func (a *App) Refresh(ctx context.Context) collection.Snapshot {
	snap := a.collection.Load(ctx)
	switch {
	case snap.Status == collection.StatusError:
		a.notify(notifier.LevelError, locales.MsgOfflineData, locales.Data{"Count": len(snap.Posts)})
	case snap.Origin == collection.OriginSeeded:
		a.notify(notifier.LevelInfo, locales.MsgSeeded, locales.Data{"Count": len(snap.Posts)})
	}
	return snap
}

// DashboardView renders the current dashboard page.
func (a *App) DashboardView() (dashboard.View, error) {
	return a.getSnapshot().dashboard.View(a.collection.Snapshot())
}

// ManagementView returns the posts shown in the management grid.
func (a *App) ManagementView() []types.Post {
	return a.getSnapshot().management.View(a.collection.Snapshot().Posts)
}

// Stats aggregates the whole collection.
func (a *App) Stats() types.Stats {
	return posts.Aggregate(a.collection.Snapshot().Posts)
}

// SaveDraft stores the composer content as a Draft.
func (a *App) SaveDraft(ctx context.Context) (types.Post, error) {
	return a.commit(ctx, types.StatusDraft)
}

// Publish stores the composer content as a Published post dated today.
func (a *App) Publish(ctx context.Context) (types.Post, error) {
	return a.commit(ctx, types.StatusPublished)
}

// Schedule stores the composer content as a post to publish on date.
func (a *App) Schedule(ctx context.Context, date time.Time) (types.Post, error) {
	a.composer.SetPublicationDate(date)
	return a.commit(ctx, types.StatusScheduled)
}

// commit validates, persists and clears the composer. On any failure the
// composer and the collection are left as they were.
func (a *App) commit(ctx context.Context, target types.Status) (types.Post, error) {
	draft, err := a.composer.ToCommittedPost(target, a.now())
	if err != nil {
		a.notifyErr(err, locales.MsgSaveFailed)
		return types.Post{}, err
	}

	p, err := a.collection.Insert(ctx, draft)
	if err != nil {
		a.notifyErr(err, locales.MsgSaveFailed)
		return types.Post{}, err
	}

	switch p.Status {
	case types.StatusPublished:
		a.notify(notifier.LevelSuccess, locales.MsgPostPublished, nil)
	case types.StatusScheduled:
		a.notify(notifier.LevelSuccess, locales.MsgPostScheduled, locales.Data{"Date": p.PublicationDate.Format(types.DateLayout)})
	default:
		a.notify(notifier.LevelSuccess, locales.MsgDraftSaved, nil)
	}
	a.composer.Reset()
	return p, nil
}

// Archive moves a Published post to Archived.
func (a *App) Archive(ctx context.Context, id int64) (types.Post, error) {
	p, err := a.collection.Archive(ctx, id)
	if err != nil {
		a.notifyErr(err, locales.MsgArchiveFailed, locales.Data{"ID": id})
		return types.Post{}, err
	}
	a.notify(notifier.LevelSuccess, locales.MsgPostArchived, locales.Data{"ID": id})
	return p, nil
}

// UploadMedia uploads files and attaches the successful ones to the composer.
func (a *App) UploadMedia(ctx context.Context, files []media.File) ([]media.Result, error) {
	results, err := a.composer.UploadMedia(ctx, files)
	if err != nil {
		if errors.Is(err, types.ErrStorageUnconfigured) {
			a.notify(notifier.LevelError, locales.MsgStorageUnconfigured, nil)
		}
		return nil, err
	}

	uploaded := 0
	for _, r := range results {
		if r.Err != nil {
			a.notify(notifier.LevelError, locales.MsgUploadFailed, locales.Data{"File": r.File})
			continue
		}
		uploaded++
	}
	if uploaded > 0 {
		if err := a.notifier.NotifyPlural(notifier.LevelSuccess, locales.MsgUploadDone, uploaded, nil); err != nil {
			a.log.Warn("failed to deliver notice", zap.Error(err))
		}
	}
	return results, nil
}

// Assist asks the assistant to write a post about prompt and waits for the
// reply. With use set, the reply replaces the composer content.
func (a *App) Assist(ctx context.Context, prompt string, use bool) (string, error) {
	pending, err := a.composer.SubmitPrompt(ctx, prompt)
	if err != nil {
		return "", err
	}
	if pending == nil {
		return "", nil
	}
	text, err := pending.Wait(ctx)
	if err != nil {
		a.notify(notifier.LevelError, locales.MsgAssistantFailed, nil)
		return "", err
	}
	if use && a.composer.UseGeneratedContent() {
		a.notify(notifier.LevelInfo, locales.MsgAssistantUsed, nil)
	}
	return text, nil
}

// Analytics loads published posts into the analytics view. Placeholder data
// is projected from the snapshot since the data source is unreachable.
func (a *App) Analytics(ctx context.Context) (*analytics.Projector, error) {
	s := a.getSnapshot()
	snap := a.collection.Snapshot()
	if !snap.Authoritative() {
		s.analytics.Load(snap.Posts)
		return s.analytics, nil
	}

	published, err := a.collection.LoadPublished(ctx)
	if err != nil {
		return nil, err
	}
	s.analytics.Load(published)
	return s.analytics, nil
}

// TopPosts returns the best performing published posts.
func (a *App) TopPosts() []types.Post {
	s := a.getSnapshot()
	return analytics.TopPosts(a.collection.Snapshot().Posts, s.config.Dashboard.TopPosts)
}

// BuildReport renders the analytics report and saves it to the report dir.
func (a *App) BuildReport(ctx context.Context) (string, *report.Report, error) {
	projector, err := a.Analytics(ctx)
	if err != nil {
		return "", nil, err
	}

	in := report.Input{
		Stats:         a.Stats(),
		TopPosts:      a.TopPosts(),
		Trend:         projector.Series(),
		Authoritative: a.collection.Snapshot().Authoritative(),
	}
	if sel, ok := projector.Selected(); ok {
		in.Selected = &sel
	}

	r, err := a.reports.Build(in)
	if err != nil {
		return "", nil, err
	}
	dir, err := report.Dir()
	if err != nil {
		return "", nil, err
	}
	path, err := report.SaveReport(dir, r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to save report: %w", err)
	}
	a.notify(notifier.LevelSuccess, locales.MsgReportSaved, locales.Data{"Path": path})
	return path, r, nil
}

// ViewLastReport opens the most recent report.
func (a *App) ViewLastReport() error {
	dir, err := report.Dir()
	if err != nil {
		return err
	}
	path, err := report.LatestReport(dir)
	if err != nil {
		a.log.Info("no report found", zap.Error(err))
		return err
	}

	a.log.Info("opening report", zap.String("path", path))
	return browser.OpenFile(path)
}

// Export writes the current collection to a JSON file.
func (a *App) Export() (string, error) {
	dir, err := store.ExportDir()
	if err != nil {
		return "", err
	}
	return store.ExportPosts(dir, a.collection.Snapshot().Posts)
}

// PublishDue reloads the collection and publishes every scheduled post whose
// date has come. Nothing is published from placeholder data.
func (a *App) PublishDue(ctx context.Context) error {
	s := a.getSnapshot()
	loc, err := time.LoadLocation(s.config.Scheduler.Timezone)
	if err != nil {
		loc = time.UTC
	}

	if snap := a.Refresh(ctx); !snap.Authoritative() {
		return fmt.Errorf("%w: data source unavailable, skipping publish run", types.ErrDataSource)
	}
	published, err := a.collection.PublishDue(ctx, a.now().In(loc))
	if len(published) > 0 {
		if nerr := a.notifier.NotifyPlural(notifier.LevelSuccess, locales.MsgScheduledPublished, len(published), nil); nerr != nil {
			a.log.Warn("failed to deliver notice", zap.Error(nerr))
		}
	}
	if err != nil {
		sentry.CaptureException(err)
		return err
	}
	return nil
}

// RunScheduler publishes due posts on the configured schedule until ctx is
// done.
func (a *App) RunScheduler(ctx context.Context) error {
	s := a.getSnapshot()
	sched, err := scheduler.New(s.config.Scheduler.Timezone, s.config.Scheduler.JobTimeout.Duration, a.log)
	if err != nil {
		return err
	}
	if err := sched.AddPublishJob(s.config.Scheduler.PublishSchedule, a.PublishDue); err != nil {
		return err
	}

	// Catch up on anything that fell due while we were not running.
	if err := sched.RunNow(scheduler.PublishJobName, a.PublishDue); err != nil {
		a.log.Warn("initial publish run failed", zap.Error(err))
	}

	sched.Start()
	for _, j := range sched.ListJobs() {
		a.log.Info("job scheduled",
			zap.String("job", j.Name),
			zap.Time("next_run", j.NextRun),
			zap.Stringer("timezone", sched.Location()))
	}
	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}

// ReloadConfig reloads the configuration from disk.
func (a *App) ReloadConfig(path string) error {
	cfg, err := config.Resolve(path, a.log)
	if err != nil {
		return err
	}
	if err := a.applyViewConfig(cfg); err != nil {
		return err
	}
	a.log.Info("configuration reloaded")
	return nil
}

// logSnapshot traces every snapshot the collection publishes.
func (a *App) logSnapshot(s collection.Snapshot) {
	a.log.Debug("snapshot replaced",
		zap.Int("posts", len(s.Posts)),
		zap.String("status", string(s.Status)),
		zap.String("origin", string(s.Origin)))
}

// Close cancels pending assistant work and closes the data source.
func (a *App) Close() error {
	a.unwatch()
	a.composer.Close()
	if a.source == nil {
		return nil
	}
	return a.source.Close()
}

// Notice sends an informational message to the operator.
func (a *App) Notice(msgID string, data ...locales.Data) {
	var d locales.Data
	if len(data) > 0 {
		d = data[0]
	}
	a.notify(notifier.LevelInfo, msgID, d)
}

func (a *App) notify(level notifier.Level, msgID string, data locales.Data) {
	if err := a.notifier.Notify(level, msgID, data); err != nil {
		a.log.Warn("failed to deliver notice", zap.String("msg_id", msgID), zap.Error(err))
	}
}

// notifyErr turns an operation error into an error notice. Data source
// failures are also reported to sentry.
func (a *App) notifyErr(err error, fallback string, data ...locales.Data) {
	var terr *lifecycle.TransitionError
	switch {
	case errors.Is(err, types.ErrValidation):
		a.notify(notifier.LevelError, locales.MsgContentRequired, nil)
	case errors.As(err, &terr):
		reason := terr.Reason
		if reason == "" {
			reason = terr.Error()
		}
		a.notify(notifier.LevelError, locales.MsgInvalidTransition, locales.Data{"Reason": reason})
	case errors.Is(err, types.ErrPostNotFound):
		var d locales.Data
		if len(data) > 0 {
			d = data[0]
		}
		a.notify(notifier.LevelError, locales.MsgPostNotFound, d)
	default:
		a.log.Error("operation failed", zap.Error(err))
		if errors.Is(err, types.ErrDataSource) {
			sentry.CaptureException(err)
		}
		a.notify(notifier.LevelError, fallback, nil)
	}
}
