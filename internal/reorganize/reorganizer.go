package reorganize

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
	"github.com/sleep909/multipage/internal/logfields"
	"github.com/sleep909/multipage/internal/metrics"
	"github.com/sleep909/multipage/internal/pages"
)

// Options mirror the multipage configuration keys the reorganizer needs.
type Options struct {
	PageDir        string
	PurgeDir       string
	RootPage       string
	RemovePageDirs bool
}

// Reorganizer moves page outputs inside an output filesystem.
type Reorganizer struct {
	fs       billy.Filesystem
	opts     Options
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Reorganizer.
type Option func(*Reorganizer)

// WithRecorder reports per-page outcomes to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Reorganizer) { o.recorder = metrics.OrNoop(r) }
}

// New returns a Reorganizer operating on fsys, which must be rooted at the
// output directory.
func New(fsys billy.Filesystem, opts Options, logger *slog.Logger, options ...Option) *Reorganizer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reorganizer{fs: fsys, opts: opts, logger: logger, recorder: metrics.NoopRecorder{}}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Plan returns the source and destination of a page's move without touching
// the filesystem. Paths are slash-separated and relative to the output root.
func (r *Reorganizer) Plan(p pages.Page) (from, to string) {
	if r.opts.RemovePageDirs {
		return p.RootFile(r.opts.PageDir, r.opts.RootPage), p.Name + ".html"
	}
	return path.Join(r.opts.PageDir, p.Name), p.Name
}

// Run reorganizes every page and then purges. It fails only when ctx is
// cancelled or the purge fails; per-page failures are recorded in the report.
func (r *Reorganizer) Run(ctx context.Context, list []pages.Page) (*Report, error) {
	report := &Report{PurgeDir: r.opts.PurgeDir, Pages: make([]PageResult, 0, len(list))}

	for _, p := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := r.movePage(p)
		report.Pages = append(report.Pages, res)
		r.recorder.IncReorganize(metrics.ReorganizeResult(res.Outcome))

		switch res.Outcome {
		case OutcomeFailed:
			r.logger.Error("Failed to reorganize page",
				logfields.Page(p.Name), logfields.Path(res.From), logfields.Target(res.To), logfields.Error(res.Err))
		case OutcomeSkipped:
			r.logger.Debug("Page already reorganized", logfields.Page(p.Name), logfields.Target(res.To))
		default:
			r.logger.Debug("Page reorganized", logfields.Page(p.Name), logfields.Path(res.From), logfields.Target(res.To))
		}
	}

	if r.opts.PurgeDir == "" {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := util.RemoveAll(r.fs, filepath.FromSlash(r.opts.PurgeDir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return report, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to purge output directory").
			WithContext("purge_dir", r.opts.PurgeDir).
			Build()
	}
	report.Purged = true
	return report, nil
}

func (r *Reorganizer) movePage(p pages.Page) PageResult {
	from, to := r.Plan(p)
	res := PageResult{Page: p.Name, From: from, To: to}

	osFrom, osTo := filepath.FromSlash(from), filepath.FromSlash(to)
	if _, err := r.fs.Stat(osFrom); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if _, derr := r.fs.Stat(osTo); derr == nil {
				res.Outcome = OutcomeSkipped
				return res
			}
		}
		res.Outcome = OutcomeFailed
		res.Err = ferrors.WrapError(err, ferrors.CategoryFileSystem, "page output not found").
			WithContext("page", p.Name).
			WithContext("path", from).
			Build()
		return res
	}

	if err := r.fs.Rename(osFrom, osTo); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to move page output").
			WithContext("page", p.Name).
			WithContext("from", from).
			WithContext("to", to).
			Build()
		return res
	}
	res.Outcome = OutcomeMoved
	return res
}
