package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sleep909/multipage/internal/bundle"
	"github.com/sleep909/multipage/internal/events"
	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
	"github.com/sleep909/multipage/internal/logfields"
	"github.com/sleep909/multipage/internal/metrics"
	"github.com/sleep909/multipage/internal/observability"
	"github.com/sleep909/multipage/internal/pages"
	"github.com/sleep909/multipage/internal/plugin"
	"github.com/sleep909/multipage/internal/reorganize"
)

// pageLister is implemented by plugins that know which pages they handled.
type pageLister interface {
	Pages() []pages.Page
}

// reporter is implemented by plugins that reorganize output.
type reporter interface {
	Report() *reorganize.Report
}

// DefaultService is the standard implementation of Service.
// It runs config hooks, the orchestrator and write-bundle hooks in order.
type DefaultService struct {
	orchestrator bundle.Orchestrator
	recorder     metrics.Recorder
	publisher    events.Publisher
	logger       *slog.Logger
	newID        func() string
}

// NewService creates a DefaultService using the HTML bundler.
func NewService(logger *slog.Logger) *DefaultService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultService{
		orchestrator: bundle.NewHTMLBundler(logger),
		recorder:     metrics.NoopRecorder{},
		publisher:    events.NoopPublisher{},
		logger:       logger,
		newID:        uuid.NewString,
	}
}

// WithOrchestrator replaces the bundler.
func (s *DefaultService) WithOrchestrator(o bundle.Orchestrator) *DefaultService {
	s.orchestrator = o
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	s.recorder = metrics.OrNoop(r)
	return s
}

// WithPublisher sets the build event publisher.
func (s *DefaultService) WithPublisher(p events.Publisher) *DefaultService {
	if p == nil {
		p = events.NoopPublisher{}
	}
	s.publisher = p
	return s
}

// Run executes the build.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	result := &Result{BuildID: s.newID(), StartTime: startTime}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if req.Config == nil {
		return s.finish(ctx, result, ferrors.ConfigError("config required").Build())
	}
	if req.Plugins == nil {
		return s.finish(ctx, result, ferrors.ConfigError("plugin registry required").Build())
	}

	cfg := req.Config
	opts := &bundle.Options{Root: cfg.Root, OutDir: cfg.OutDir}

	ctx = observability.WithStage(ctx, "config")
	if err := req.Plugins.RunConfig(ctx, opts); err != nil {
		return s.finish(ctx, result, fmt.Errorf("%w: %w", ErrConfigHook, err))
	}
	result.OutputPath = opts.OutputPath()
	result.Pages = countPages(req.Plugins)
	s.recorder.SetPages(result.Pages)
	if result.Pages == 0 {
		observability.WarnContext(ctx, s.logger, "No pages found, output will be empty")
	}

	ctx = observability.WithStage(ctx, "bundle")
	observability.InfoContext(ctx, s.logger, "Bundling entries",
		slog.Int("entries", len(opts.Input)), logfields.OutDir(result.OutputPath))
	bundled, err := s.orchestrator.Bundle(ctx, opts)
	if err != nil {
		return s.finish(ctx, result, fmt.Errorf("%w: %w", ErrBundle, err))
	}
	result.Files = bundled.Files

	ctx = observability.WithStage(ctx, "write_bundle")
	if err := req.Plugins.RunWriteBundle(ctx, opts); err != nil {
		result.Report = collectReport(req.Plugins)
		return s.finish(ctx, result, fmt.Errorf("%w: %w", ErrWriteBundle, err))
	}
	result.Report = collectReport(req.Plugins)

	return s.finish(ctx, result, nil)
}

// finish stamps timing and status, records metrics and publishes the event.
func (s *DefaultService) finish(ctx context.Context, result *Result, err error) (*Result, error) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		result.Status = StatusCancelled
	case err != nil:
		result.Status = StatusFailed
	case result.Report != nil && result.Report.Failed() > 0:
		result.Status = StatusPartial
	default:
		result.Status = StatusSuccess
	}

	s.recorder.IncBuildOutcome(string(result.Status))
	s.recorder.ObserveBuildDuration(result.Duration)

	attrs := []slog.Attr{
		slog.String("outcome", string(result.Status)),
		logfields.Pages(result.Pages),
		logfields.DurationMS(float64(result.Duration.Microseconds()) / 1000),
	}
	switch result.Status {
	case StatusSuccess:
		observability.InfoContext(ctx, s.logger, "Build complete", attrs...)
	case StatusPartial:
		observability.WarnContext(ctx, s.logger, "Build complete with page failures",
			append(attrs, logfields.Error(result.Report.Err()))...)
	default:
		observability.ErrorContext(ctx, s.logger, "Build failed", append(attrs, logfields.Error(err))...)
	}

	s.publish(ctx, result, err)
	return result, err
}

func (s *DefaultService) publish(ctx context.Context, result *Result, buildErr error) {
	ev := &events.BuildEvent{
		BuildID:    result.BuildID,
		Status:     string(result.Status),
		Pages:      result.Pages,
		Moved:      result.Report.Moved(),
		Skipped:    result.Report.Skipped(),
		Failed:     result.Report.Failed(),
		Files:      len(result.Files),
		DurationMS: result.Duration.Milliseconds(),
		Timestamp:  result.EndTime.UTC(),
	}
	if buildErr != nil {
		ev.Error = buildErr.Error()
	}
	// A cancelled build still reports; give the publish its own deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.publisher.PublishBuild(pubCtx, ev); err != nil {
		observability.WarnContext(ctx, s.logger, "Failed to publish build event", logfields.Error(err))
	}
}

func countPages(reg *plugin.Registry) int {
	n := 0
	for _, p := range reg.List() {
		if l, ok := p.(pageLister); ok {
			n += len(l.Pages())
		}
	}
	return n
}

// collectReport returns the first reorganizer report any plugin produced.
func collectReport(reg *plugin.Registry) *reorganize.Report {
	for _, p := range reg.List() {
		if r, ok := p.(reporter); ok {
			if report := r.Report(); report != nil {
				return report
			}
		}
	}
	return nil
}
