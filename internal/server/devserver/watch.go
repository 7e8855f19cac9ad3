package devserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
)

// debounceWindow coalesces bursts of filesystem events into one callback.
const debounceWindow = 300 * time.Millisecond

type watch struct {
	dir string
	fn  func(ctx context.Context) error
}

func (s *Server) runWatches(ctx context.Context, watches []watch) {
	for _, w := range watches {
		if err := w.fn(ctx); err != nil {
			s.logger.Warn("Watch callback failed", slog.String("dir", w.dir), slog.String("error", err.Error()))
		}
	}
}

// watchFSNotify watches every registered directory and its parent, so that
// a directory created after startup is still noticed. Events touching the
// directory itself or its direct children schedule the callback.
func (s *Server) watchFSNotify(ctx context.Context, watches []watch) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, w := range watches {
		for _, dir := range []string{filepath.Dir(w.dir), w.dir} {
			if err := watcher.Add(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("watch add failed", slog.String("dir", dir), slog.String("error", err.Error()))
			}
		}
	}
	s.logger.Debug("Watching page directories", slog.Int("count", len(watches)))

	pending := map[int]bool{}
	timer := time.NewTimer(debounceWindow)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			for i, w := range watches {
				if ev.Name != w.dir && filepath.Dir(ev.Name) != w.dir {
					continue
				}
				if ev.Name == w.dir && ev.Op&fsnotify.Create != 0 {
					_ = watcher.Add(w.dir)
				}
				pending[i] = true
				s.logger.Debug("Page directory change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			}
			if len(pending) > 0 {
				timer.Reset(debounceWindow)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			due := make([]watch, 0, len(pending))
			for i := range pending {
				due = append(due, watches[i])
			}
			clear(pending)
			s.runWatches(ctx, due)
		}
	}
}

// watchPoll runs every callback on a fixed interval until ctx is done.
func (s *Server) watchPoll(ctx context.Context, watches []watch, interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.runWatches(ctx, watches) }),
		gocron.WithName("page-rescan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to create rescan job: %w", err)
	}

	sched.Start()
	s.logger.Debug("Polling page directories", slog.Duration("interval", interval))
	<-ctx.Done()
	return sched.Shutdown()
}
