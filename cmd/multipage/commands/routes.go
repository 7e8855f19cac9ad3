package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/sleep909/multipage/internal/routes"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	Root string `help:"Project root (overrides config root)" type:"path"`
	JSON bool   `help:"Print the table as JSON"`
}

type routeView struct {
	Kind    string `json:"kind"`
	Page    string `json:"page,omitempty"`
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
	Target  string `json:"target"`
}

func (c *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := applyRootOverride(cfg, c.Root); err != nil {
		return err
	}

	table := routes.Build(cfg.Root, routes.Options{
		PageDir:  cfg.Multipage.PageDir,
		RootPage: cfg.Multipage.RootPage,
	}, discover(g, cfg))

	rules := table.Rules()
	if c.JSON {
		views := make([]routeView, len(rules))
		for i, r := range rules {
			views[i] = routeView{Kind: string(r.Kind), Page: r.Page, Path: r.Path(), Pattern: r.Pattern(), Target: r.Target}
		}
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	for _, r := range rules {
		_, _ = fmt.Fprintf(tw, "%s\t->\t%s\t(%s)\n", r.Pattern(), r.Target, r.Kind)
	}
	return tw.Flush()
}
