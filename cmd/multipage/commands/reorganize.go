package commands

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/sleep909/multipage/internal/reorganize"
)

// ReorganizeCmd implements the 'reorganize' command. It applies only the
// output reorganization step to an output tree produced earlier.
type ReorganizeCmd struct {
	Root   string `help:"Project root (overrides config root)" type:"path"`
	OutDir string `name:"out-dir" short:"o" help:"Output directory (overrides config out_dir)"`
}

func (c *ReorganizeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := applyRootOverride(cfg, c.Root); err != nil {
		return err
	}
	if c.OutDir != "" {
		cfg.OutDir = c.OutDir
	}

	mp := cfg.Multipage
	r := reorganize.New(osfs.New(cfg.OutputPath()), reorganize.Options{
		PageDir:        mp.PageDir,
		PurgeDir:       mp.PurgeDir,
		RootPage:       mp.RootPage,
		RemovePageDirs: mp.RemovePageDirs,
	}, g.Logger)

	report, err := r.Run(context.Background(), discover(g, cfg))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "moved %d, skipped %d, failed %d\n", report.Moved(), report.Skipped(), report.Failed())
	return report.Err()
}
