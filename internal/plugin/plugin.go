// Package plugin provides the hook-based extension points of the build host
// and the multipage plugin that maps page directories to clean URLs.
package plugin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sleep909/multipage/internal/bundle"
)

// Plugin is anything the build host can register. Which phases it takes part
// in is decided by the hook interfaces it implements.
type Plugin interface {
	Metadata() Metadata
}

// ConfigHook runs before bundling and may mutate the orchestrator options.
type ConfigHook interface {
	Config(ctx context.Context, opts *bundle.Options) error
}

// ServerHook runs once while the development server is being assembled.
type ServerHook interface {
	ConfigureServer(srv Server)
}

// WriteBundleHook runs after the orchestrator has written its output.
type WriteBundleHook interface {
	WriteBundle(ctx context.Context, opts *bundle.Options) error
}

// Server is the part of the development server exposed to plugins.
type Server interface {
	// Use appends a middleware to the request chain.
	Use(mw func(http.Handler) http.Handler)
	// SetOpen sets the path opened when the server starts.
	SetOpen(path string)
	// Watch registers fn to run when the directory tree at dir changes.
	Watch(dir string, fn func(ctx context.Context) error)
}

// Metadata describes a plugin's identity.
type Metadata struct {
	Name        string
	Version     string
	Description string
}

// String returns a human-readable representation of the plugin metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s", m.Name, m.Version)
}

// Validate checks if the plugin metadata is valid.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	return nil
}

// Error represents an error that occurred within a plugin hook.
type Error struct {
	PluginName string
	Hook       string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plugin %s failed during %s: %v", e.PluginName, e.Hook, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the plugin and hook it came from.
func NewError(pluginName, hook string, err error) *Error {
	return &Error{PluginName: pluginName, Hook: hook, Err: err}
}
