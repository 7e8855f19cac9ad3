package commands

import (
	"fmt"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct {
	Root string `help:"Project root (overrides config root)" type:"path"`
}

func (c *PagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := applyRootOverride(cfg, c.Root); err != nil {
		return err
	}

	found := discover(g, cfg)
	if len(found) == 0 {
		_, _ = fmt.Fprintf(g.Out, "No pages found under %s\n", cfg.Multipage.PageDir)
		return nil
	}
	for _, p := range found {
		_, _ = fmt.Fprintf(g.Out, "%s\t%s\n", p.Name, p.EntryPath(cfg.Root, cfg.Multipage.PageDir, cfg.Multipage.RootPage))
	}
	return nil
}
