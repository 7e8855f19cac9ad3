package plugin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/sleep909/multipage/internal/bundle"
	"github.com/sleep909/multipage/internal/config"
	"github.com/sleep909/multipage/internal/logfields"
	"github.com/sleep909/multipage/internal/metrics"
	"github.com/sleep909/multipage/internal/pages"
	"github.com/sleep909/multipage/internal/reorganize"
	"github.com/sleep909/multipage/internal/routes"
	"github.com/sleep909/multipage/internal/server/middleware"
	"github.com/sleep909/multipage/internal/version"
)

// MultipageName is the registry name of the multipage plugin.
const MultipageName = "multipage"

// Multipage discovers page directories, feeds their entry documents to the
// orchestrator, rewrites clean URLs in the dev server and reorganizes the
// build output. Each instance carries its own options and state.
type Multipage struct {
	cfg      config.MultipageConfig
	logger   *slog.Logger
	recorder metrics.Recorder

	mu     sync.Mutex
	root   string
	table  atomic.Pointer[routes.Table]
	report *reorganize.Report
}

// MultipageOption configures a Multipage plugin.
type MultipageOption func(*Multipage)

// WithLogger sets the plugin logger.
func WithLogger(l *slog.Logger) MultipageOption {
	return func(m *Multipage) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) MultipageOption {
	return func(m *Multipage) { m.recorder = metrics.OrNoop(r) }
}

// NewMultipage returns a plugin handle for cfg.
func NewMultipage(cfg config.MultipageConfig, opts ...MultipageOption) *Multipage {
	m := &Multipage{cfg: cfg, logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(m)
	}
	m.table.Store(routes.Build("", m.routeOptions(), nil))
	return m
}

func (m *Multipage) Metadata() Metadata {
	return Metadata{
		Name:        MultipageName,
		Version:     version.Version,
		Description: "maps page directories to clean URLs and flattens their output",
	}
}

// Table returns the current route table. It is never nil.
func (m *Multipage) Table() *routes.Table {
	return m.table.Load()
}

// Pages returns the pages of the current route table.
func (m *Multipage) Pages() []pages.Page {
	return m.Table().Pages()
}

// Report returns the outcome of the last WriteBundle, or nil.
func (m *Multipage) Report() *reorganize.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}

func (m *Multipage) routeOptions() routes.Options {
	return routes.Options{PageDir: m.cfg.PageDir, RootPage: m.cfg.RootPage}
}

// Config discovers the pages once and sets the orchestrator input to their
// entry documents. Missing Root and OutDir are defaulted to the working
// directory and "dist". Discovery failures are logged and yield zero pages.
func (m *Multipage) Config(_ context.Context, opts *bundle.Options) error {
	if opts.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		opts.Root = wd
	}
	if opts.OutDir == "" {
		opts.OutDir = "dist"
	}

	m.mu.Lock()
	m.root = opts.Root
	m.mu.Unlock()

	table := m.rebuild()
	opts.Input = table.Entries()
	found := table.Pages()
	m.logger.Info("Pages discovered", logfields.Pages(len(found)), slog.Any("names", pages.Names(found)))
	return nil
}

// Rescan re-runs discovery and swaps in a fresh route table.
func (m *Multipage) Rescan(context.Context) error {
	before := pages.Names(m.Pages())
	table := m.rebuild()
	m.recorder.IncTableRebuild()
	if after := pages.Names(table.Pages()); !slices.Equal(before, after) {
		m.logger.Info("Page set changed", logfields.Pages(len(after)), slog.Any("names", after))
	}
	return nil
}

func (m *Multipage) rebuild() *routes.Table {
	m.mu.Lock()
	root := m.root
	m.mu.Unlock()

	found, err := pages.DiscoverDir(root, m.cfg.PageDir)
	if err != nil {
		m.logger.Warn("Page discovery failed, continuing without pages",
			slog.String("page_dir", m.cfg.PageDir), logfields.Error(err))
		found = nil
	}
	table := routes.Build(root, m.routeOptions(), found)
	m.table.Store(table)
	m.recorder.SetPages(len(found))
	return table
}

// ConfigureServer installs the rewrite middleware, sets the opening path
// and watches the pages root for added or removed pages.
func (m *Multipage) ConfigureServer(srv Server) {
	srv.Use(middleware.Rewrite(m, middleware.RewriteOptions{
		MimeCheck: m.cfg.MimeCheck,
		Logger:    m.logger,
		Recorder:  m.recorder,
	}))
	srv.SetOpen(m.cfg.Open)

	m.mu.Lock()
	root := m.root
	m.mu.Unlock()
	if root != "" {
		srv.Watch(filepath.Join(root, filepath.FromSlash(m.cfg.PageDir)), m.Rescan)
	}
}

// WriteBundle reorganizes the output directory for the pages found by Config.
func (m *Multipage) WriteBundle(ctx context.Context, opts *bundle.Options) error {
	out := opts.OutputPath()
	r := reorganize.New(osfs.New(out), reorganize.Options{
		PageDir:        m.cfg.PageDir,
		PurgeDir:       m.cfg.PurgeDir,
		RootPage:       m.cfg.RootPage,
		RemovePageDirs: m.cfg.RemovePageDirs,
	}, m.logger, reorganize.WithRecorder(m.recorder))

	report, err := r.Run(ctx, m.Pages())

	m.mu.Lock()
	m.report = report
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.logger.Info("Output reorganized",
		logfields.OutDir(out),
		slog.Int("moved", report.Moved()),
		slog.Int("skipped", report.Skipped()),
		slog.Int("failed", report.Failed()))
	return nil
}
