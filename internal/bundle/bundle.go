// Package bundle defines the build orchestrator contract and a default
// implementation that emits one output document per entry while preserving
// the entry's directory structure relative to the project root.
package bundle

import "context"

// Options is the orchestrator configuration that plugins mutate in their
// config hook before the bundle step runs.
type Options struct {
	// Root is the absolute project root. Output paths mirror entry paths relative to it.
	Root string
	// OutDir is the output directory, relative to Root unless absolute.
	OutDir string
	// Input holds the absolute entry document paths.
	Input []string
}

// Result lists what the orchestrator wrote, as OutDir-relative slash paths.
type Result struct {
	Files []string
}

// Orchestrator produces one compiled output file per entry.
type Orchestrator interface {
	Bundle(ctx context.Context, opts *Options) (*Result, error)
}
