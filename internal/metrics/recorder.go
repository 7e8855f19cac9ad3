package metrics

import "time"

// ReorganizeResult enumerates per-page outcomes of the output reorganizer.
type ReorganizeResult string

const (
	ReorganizeMoved   ReorganizeResult = "moved"
	ReorganizeSkipped ReorganizeResult = "skipped"
	ReorganizeFailed  ReorganizeResult = "failed"
)

// Recorder defines observability hooks for builds and request rewriting.
// Implementations must be safe for concurrent use.
type Recorder interface {
	IncRewrite(kind string)
	IncPassthrough()
	SetPages(n int)
	IncTableRebuild()
	IncReorganize(result ReorganizeResult)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|partial|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncRewrite(string)                  {}
func (NoopRecorder) IncPassthrough()                    {}
func (NoopRecorder) SetPages(int)                       {}
func (NoopRecorder) IncTableRebuild()                   {}
func (NoopRecorder) IncReorganize(ReorganizeResult)     {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
