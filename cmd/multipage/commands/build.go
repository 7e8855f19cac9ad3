package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sleep909/multipage/internal/build"
	"github.com/sleep909/multipage/internal/events"
	"github.com/sleep909/multipage/internal/plugin"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Root   string `help:"Project root (overrides config root)" type:"path"`
	OutDir string `name:"out-dir" short:"o" help:"Output directory (overrides config out_dir)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := applyRootOverride(cfg, b.Root); err != nil {
		return err
	}
	if b.OutDir != "" {
		cfg.OutDir = b.OutDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, err := events.New(cfg.Events, g.Logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	registry, err := plugin.NewRegistry(newMultipage(g, cfg))
	if err != nil {
		return err
	}

	result, err := build.NewService(g.Logger).
		WithPublisher(publisher).
		Run(ctx, build.Request{Config: cfg, Plugins: registry})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.Out, "Built %d page(s) into %s (%s, build %s)\n",
		result.Pages, result.OutputPath, result.Status, result.BuildID)
	if result.Report != nil {
		for _, p := range result.Report.Pages {
			line := fmt.Sprintf("  %-8s %s -> %s", p.Outcome, p.From, p.To)
			if p.Err != nil {
				line += fmt.Sprintf(" (%v)", p.Err)
			}
			_, _ = fmt.Fprintln(g.Out, line)
		}
	}
	return nil
}
