package config

import (
	"path"
	"strings"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

// WatchMode selects how the dev server notices page directory changes.
type WatchMode string

const (
	WatchFSNotify WatchMode = "fsnotify"
	WatchPoll     WatchMode = "poll"
	WatchOff      WatchMode = "off"
)

// NormalizeWatchMode maps raw input to a WatchMode; unknown values return "".
func NormalizeWatchMode(raw string) WatchMode {
	switch WatchMode(strings.ToLower(strings.TrimSpace(raw))) {
	case WatchFSNotify, "":
		return WatchFSNotify
	case WatchPoll:
		return WatchPoll
	case WatchOff, "none", "false":
		return WatchOff
	default:
		return ""
	}
}

// RetryBackoffMode selects how retry delays grow.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// Validate checks the configuration and normalizes enum fields in place.
func (c *Config) Validate() error {
	mp := c.Multipage
	if err := validateSegment("multipage.page_dir", mp.PageDir, true); err != nil {
		return err
	}
	if err := validateSegment("multipage.root_page", mp.RootPage, false); err != nil {
		return err
	}
	if mp.PurgeDir != "" {
		if err := validateSegment("multipage.purge_dir", mp.PurgeDir, true); err != nil {
			return err
		}
	}
	if mp.Open == "" || !strings.HasPrefix(mp.Open, "/") {
		return ferrors.ValidationError("multipage.open must be an absolute URL path").
			WithContext("open", mp.Open).Build()
	}
	if c.OutDir == "" {
		return ferrors.ValidationError("out_dir must not be empty").Build()
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return ferrors.ValidationError("server.port out of range").
			WithContext("port", c.Server.Port).Build()
	}
	mode := NormalizeWatchMode(string(c.Server.Watch))
	if mode == "" {
		return ferrors.ValidationError("server.watch must be one of fsnotify, poll, off").
			WithContext("watch", string(c.Server.Watch)).Build()
	}
	c.Server.Watch = mode
	if mode == WatchPoll && c.Server.PollInterval <= 0 {
		return ferrors.ValidationError("server.poll_interval must be positive in poll mode").Build()
	}
	if c.Server.Metrics.Enabled && !strings.HasPrefix(c.Server.Metrics.Path, "/") {
		return ferrors.ValidationError("server.metrics.path must start with /").
			WithContext("path", c.Server.Metrics.Path).Build()
	}

	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))

	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		return ferrors.ValidationError("events.subject is required when events.nats_url is set").Build()
	}
	switch c.Events.Retry.Backoff {
	case "", RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return ferrors.ValidationError("events.retry.backoff must be one of fixed, linear, exponential").
			WithContext("backoff", string(c.Events.Retry.Backoff)).Build()
	}
	if c.Events.Retry.MaxRetries < 0 {
		return ferrors.ValidationError("events.retry.max_retries cannot be negative").Build()
	}
	return nil
}

// validateSegment checks a root- or output-relative directory or file name.
// Nested paths are allowed only when nested is true; nothing may escape upward.
func validateSegment(field, value string, nested bool) error {
	if strings.TrimSpace(value) == "" {
		return ferrors.ValidationError(field + " must not be empty").Build()
	}
	if strings.Contains(value, "\\") {
		return ferrors.ValidationError(field+" must use forward slashes").WithContext("value", value).Build()
	}
	clean := path.Clean(value)
	if path.IsAbs(value) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return ferrors.ValidationError(field+" must be a relative path inside the project").
			WithContext("value", value).Build()
	}
	if !nested && strings.Contains(clean, "/") {
		return ferrors.ValidationError(field+" must be a plain file name").WithContext("value", value).Build()
	}
	return nil
}
