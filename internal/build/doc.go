// Package build provides the build host: it runs the plugin hooks around the
// orchestrator, classifies the outcome and reports it through metrics and
// build events.
//
// The package also defines sentinel errors naming the phase that failed.
// They are always wrapped with context at the call site.
package build
