// Package events publishes build lifecycle events to NATS.
package events

import "time"

// BuildEvent is published once per completed build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Status     string    `json:"status"`
	Pages      int       `json:"pages"`
	Moved      int       `json:"moved"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Files      int       `json:"files"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
