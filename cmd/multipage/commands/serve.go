package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sleep909/multipage/internal/bundle"
	"github.com/sleep909/multipage/internal/config"
	"github.com/sleep909/multipage/internal/metrics"
	"github.com/sleep909/multipage/internal/plugin"
	"github.com/sleep909/multipage/internal/server/devserver"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Root  string `help:"Project root (overrides config root)" type:"path"`
	Host  string `help:"Listen host (overrides server.host)"`
	Port  int    `short:"p" help:"Listen port (overrides server.port)" default:"-1"`
	Watch string `help:"Watch mode: fsnotify, poll or off (overrides server.watch)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := s.apply(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := newDevServer(ctx, g, cfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func (s *ServeCmd) apply(cfg *config.Config) error {
	if err := applyRootOverride(cfg, s.Root); err != nil {
		return err
	}
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port >= 0 {
		cfg.Server.Port = s.Port
	}
	if s.Watch != "" {
		cfg.Server.Watch = config.WatchMode(s.Watch)
	}
	return cfg.Validate()
}

// newDevServer runs the config hooks and lets every plugin configure the server.
func newDevServer(ctx context.Context, g *Global, cfg *config.Config) (*devserver.Server, error) {
	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	registry, err := plugin.NewRegistry(newMultipage(g, cfg, plugin.WithRecorder(recorder)))
	if err != nil {
		return nil, err
	}
	if err := registry.RunConfig(ctx, &bundle.Options{Root: cfg.Root, OutDir: cfg.OutDir}); err != nil {
		return nil, err
	}

	srv := devserver.New(cfg, devserver.WithLogger(g.Logger), devserver.WithGatherer(reg))
	registry.ConfigureServer(srv)
	return srv, nil
}
