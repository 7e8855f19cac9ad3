package build

import (
	"context"
	"time"

	"github.com/sleep909/multipage/internal/config"
	"github.com/sleep909/multipage/internal/plugin"
	"github.com/sleep909/multipage/internal/reorganize"
)

// Service is the canonical interface for executing builds.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a build.
type Request struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// Plugins holds the plugins whose hooks run around the orchestrator.
	Plugins *plugin.Registry
}

// Result contains the outcome of a build execution.
type Result struct {
	BuildID string
	Status  Status

	// OutputPath is the absolute output directory.
	OutputPath string

	// Pages is the number of pages the plugins fed to the orchestrator.
	Pages int

	// Files lists what the orchestrator wrote, relative to OutputPath.
	Files []string

	// Report is the reorganizer report, when a plugin produced one.
	Report *reorganize.Report

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// Status represents the outcome of a build execution.
type Status string

const (
	// StatusSuccess indicates every phase and every page succeeded.
	StatusSuccess Status = "success"

	// StatusPartial indicates the build finished but some pages failed to reorganize.
	StatusPartial Status = "partial"

	// StatusFailed indicates a phase returned an error.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the build context was cancelled.
	StatusCancelled Status = "cancelled"
)

// IsSuccess returns true if the build produced usable output.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusPartial
}
