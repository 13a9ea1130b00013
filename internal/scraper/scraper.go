// Package scraper runs one pass over the meeting listing: open a browser,
// wait for the past meetings region, extract records and hand them to a sink.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/go-scripts/meetings/internal/dom"
	"github.com/go-scripts/meetings/internal/extractor"
	"github.com/go-scripts/meetings/internal/metrics"
	"github.com/go-scripts/meetings/internal/progress"
	"github.com/go-scripts/meetings/internal/types"
)

var (
	// ErrBrowserStart is returned when no browser session could be acquired.
	ErrBrowserStart = errors.New("failed to start browser")
	// ErrContainerNotFound is returned when the past meetings region never
	// appears on the page.
	ErrContainerNotFound = extractor.ErrContainerNotFound
	// ErrNoMeetings is returned when the page yields zero records.
	ErrNoMeetings = errors.New("no meetings found")
)

// Session is a browser tab the runner drives.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	Sleep(ctx context.Context, d time.Duration) error
	Snapshot(ctx context.Context) (*dom.Page, error)
	Close() error
}

// StartFunc acquires a new Session.
type StartFunc func(ctx context.Context) (Session, error)

// Sink receives the records of a successful run.
type Sink interface {
	WriteRecords(records []types.MeetingRecord) error
}

// Progress is notified of each step of a run.
type Progress interface {
	Step(message string)
	Stop()
}

// Options are the per-run settings.
type Options struct {
	URL         string
	WaitTimeout time.Duration
	SettleTime  time.Duration
}

// Summary describes a finished run. Run returns it even on failure.
type Summary struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Records  int
	Stats    extractor.Stats
}

// Runner executes scrape runs.
type Runner struct {
	opts      Options
	start     StartFunc
	sink      Sink
	selectors extractor.Selectors
	logger    *log.Logger
	metrics   *metrics.Recorder
	progress  Progress
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSelectors overrides the default DOM selectors.
func WithSelectors(s extractor.Selectors) Option {
	return func(r *Runner) { r.selectors = s }
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records run outcomes in m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithProgress reports steps to p.
func WithProgress(p Progress) Option {
	return func(r *Runner) { r.progress = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner.
func New(opts Options, start StartFunc, sink Sink, options ...Option) *Runner {
	r := &Runner{
		opts:      opts,
		start:     start,
		sink:      sink,
		selectors: extractor.DefaultSelectors(),
		logger:    log.Default(),
		now:       time.Now,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run performs one scrape. A nil error means records were written; any
// error means the run failed and the sink was not called.
func (r *Runner) Run(ctx context.Context) (summary *Summary, err error) {
	started := r.now()
	summary = &Summary{RunID: uuid.NewString(), Started: started}
	logger := r.logger.With("run", summary.RunID)

	defer func() {
		summary.Duration = r.now().Sub(started)
		if r.metrics != nil {
			r.metrics.RunFinished(started, err == nil)
		}
		if r.progress != nil {
			r.progress.Stop()
		}
		if err != nil {
			logger.Error("Scrape failed", "err", err, "duration", summary.Duration.Round(time.Millisecond))
		}
	}()

	result, err := r.scrape(ctx, logger)
	if err != nil {
		return summary, err
	}
	summary.Records = len(result.Records)
	summary.Stats = result.Stats
	if r.metrics != nil {
		s := result.Stats
		r.metrics.Extraction(len(result.Records), s.EntriesFailed, s.GroupingsFailed, s.HTMLAgendaMissing, s.PDFAgendaMissing)
	}

	if len(result.Records) == 0 {
		logger.Warn("No meetings found")
		return summary, ErrNoMeetings
	}

	r.step(fmt.Sprintf("Saving %d meetings", len(result.Records)))
	if err := r.sink.WriteRecords(result.Records); err != nil {
		return summary, fmt.Errorf("save meetings: %w", err)
	}
	logger.Info("Saved meetings", "count", len(result.Records), "duration", r.now().Sub(started).Round(time.Millisecond))
	return summary, nil
}

// scrape owns the browser session for the run. The session is closed before
// scrape returns, so the sink never runs with a browser still open.
func (r *Runner) scrape(ctx context.Context, logger *log.Logger) (*extractor.Result, error) {
	r.step("Starting browser")
	session, err := r.start(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserStart, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Error closing browser", "err", err)
		}
	}()

	r.step("Loading " + progress.ShortURL(r.opts.URL))
	if err := session.Navigate(ctx, r.opts.URL); err != nil {
		return nil, err
	}

	container := r.selectors.Container.Selector()
	r.step("Waiting for meetings")
	if err := session.WaitReady(ctx, container, r.opts.WaitTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error("Error finding meetings region", "selector", container, "err", err)
		if page, serr := session.Snapshot(ctx); serr == nil {
			logger.Error("Page source preview", "html", page.Preview(extractor.PreviewLength))
		}
		return nil, fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	}

	if err := session.Sleep(ctx, r.opts.SettleTime); err != nil {
		return nil, err
	}

	r.step("Reading meetings")
	page, err := session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	x := extractor.New(extractor.WithSelectors(r.selectors), extractor.WithLogger(logger))
	return x.Extract(page, r.now())
}

func (r *Runner) step(message string) {
	if r.progress != nil {
		r.progress.Step(message)
	}
}
