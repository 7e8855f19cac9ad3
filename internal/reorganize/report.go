package reorganize

import (
	"errors"
	"fmt"
)

// Outcome is the result of reorganizing a single page.
type Outcome string

const (
	OutcomeMoved   Outcome = "moved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// PageResult records what happened to one page.
type PageResult struct {
	Page    string
	From    string
	To      string
	Outcome Outcome
	Err     error
}

// Report summarizes a reorganizer run.
type Report struct {
	Pages    []PageResult
	PurgeDir string
	Purged   bool
}

func (r *Report) count(o Outcome) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Pages {
		if p.Outcome == o {
			n++
		}
	}
	return n
}

func (r *Report) Moved() int   { return r.count(OutcomeMoved) }
func (r *Report) Skipped() int { return r.count(OutcomeSkipped) }
func (r *Report) Failed() int  { return r.count(OutcomeFailed) }

// Err joins the per-page failures, or returns nil when every page succeeded.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.Pages {
		if p.Outcome == OutcomeFailed && p.Err != nil {
			errs = append(errs, fmt.Errorf("page %q: %w", p.Page, p.Err))
		}
	}
	return errors.Join(errs...)
}
