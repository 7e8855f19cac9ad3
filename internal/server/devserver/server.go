package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/sleep909/multipage/internal/config"
	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
	"github.com/sleep909/multipage/internal/metrics"
	"github.com/sleep909/multipage/internal/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server is the development server.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	gatherer prom.Gatherer

	mu          sync.Mutex
	middlewares []func(http.Handler) http.Handler
	watches     []watch
	open        string
	addr        string
	ready       chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer sets the registry exposed on the metrics path.
func WithGatherer(g prom.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New returns a server for cfg. cfg must have been resolved and validated.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   slog.Default(),
		gatherer: prom.DefaultGatherer,
		open:     "/",
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Use appends a middleware. The first registered middleware is the outermost.
func (s *Server) Use(mw func(http.Handler) http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, mw)
}

// SetOpen sets the path reported as the opening URL on start.
func (s *Server) SetOpen(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = p
}

// Watch registers fn to run when the directory tree at dir changes.
func (s *Server) Watch(dir string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches = append(s.watches, watch{dir: dir, fn: fn})
}

// Open returns the opening path.
func (s *Server) Open() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Addr returns the bound address once Ready is closed.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// URL returns the opening URL once Ready is closed.
func (s *Server) URL() string {
	return "http://" + s.Addr() + s.Open()
}

// Handler assembles the request pipeline: logging and panic recovery, then
// the registered middleware, then the static file handler.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	mws := append([]func(http.Handler) http.Handler(nil), s.middlewares...)
	s.mu.Unlock()

	var h http.Handler = staticHandler{root: s.cfg.Root}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	h = middleware.Chain(s.logger, ferrors.NewHTTPErrorAdapter(s.logger))(h)

	if !s.cfg.Server.Metrics.Enabled {
		return h
	}
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Server.Metrics.Path, metrics.HTTPHandler(s.gatherer))
	mux.Handle("/", h)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully. It must be
// called at most once.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Address())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to bind dev server").
			WithContext("address", s.cfg.Address()).
			Build()
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	watches := append([]watch(nil), s.watches...)
	s.mu.Unlock()
	close(s.ready)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Dev server listening", slog.String("url", s.URL()), slog.String("watch", string(s.cfg.Server.Watch)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dev server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dev server shutdown: %w", err)
		}
		s.logger.Info("Dev server stopped")
		return nil
	})
	if len(watches) > 0 {
		g.Go(func() error {
			switch s.cfg.Server.Watch {
			case config.WatchPoll:
				return s.watchPoll(gctx, watches, s.cfg.Server.PollInterval)
			case config.WatchOff:
				return nil
			default:
				return s.watchFSNotify(gctx, watches)
			}
		})
	}
	return g.Wait()
}
