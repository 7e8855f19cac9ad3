// Package commands implements the multipage command line interface.
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/sleep909/multipage/internal/config"
	"github.com/sleep909/multipage/internal/pages"
	"github.com/sleep909/multipage/internal/plugin"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // command output
	Err    io.Writer // log output
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"multipage.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" help:"Build every page and reorganize the output directory"`
	Serve      ServeCmd      `cmd:"" help:"Serve the project with clean page URLs"`
	Routes     RoutesCmd     `cmd:"" help:"Print the URL rewrite table"`
	Pages      PagesCmd      `cmd:"" help:"List discovered pages and their entry documents"`
	Reorganize ReorganizeCmd `cmd:"" help:"Reorganize an existing output directory"`
	Init       InitCmd       `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing and installs a bootstrap logger. Commands
// replace it once the configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	if g.Out == nil {
		g.Out = os.Stdout
	}
	if g.Err == nil {
		g.Err = os.Stderr
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Err, &slog.HandlerOptions{Level: level}))
	return nil
}

// loadConfig reads the configuration file and reconfigures the logger from
// it. Only the implicit default path may be missing, in which case defaults
// apply; an explicit --config that does not exist is an error.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	load := config.Load
	if isDefaultConfigPath(root.Config) {
		load = config.LoadOrDefault
	}
	cfg, err := load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = cfg.Logging.NewLogger(g.Err, root.Verbose)
	return cfg, nil
}

func isDefaultConfigPath(p string) bool {
	def, err := filepath.Abs(config.DefaultConfigFile)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(p)
	return err == nil && abs == def
}

// applyRootOverride makes a --root flag take precedence over the config file.
func applyRootOverride(cfg *config.Config, rootFlag string) error {
	if rootFlag == "" {
		return nil
	}
	abs, err := filepath.Abs(rootFlag)
	if err != nil {
		return err
	}
	cfg.Root = abs
	return nil
}

// discover lists the pages of cfg, treating discovery errors as zero pages.
func discover(g *Global, cfg *config.Config) []pages.Page {
	found, err := pages.DiscoverDir(cfg.Root, cfg.Multipage.PageDir)
	if err != nil {
		g.Logger.Warn("Page discovery failed, continuing without pages", "error", err)
		return nil
	}
	return found
}

func newMultipage(g *Global, cfg *config.Config, opts ...plugin.MultipageOption) *plugin.Multipage {
	return plugin.NewMultipage(cfg.Multipage, append([]plugin.MultipageOption{plugin.WithLogger(g.Logger)}, opts...)...)
}
