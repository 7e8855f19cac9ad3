// Package metrics provides the observability hooks for multipage builds and
// the development server.
//
// Components receive a Recorder through their options. NoopRecorder is the
// default, so callers never need nil checks:
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	mw := middleware.Rewrite(source, middleware.RewriteOptions{Recorder: rec})
//
// The Prometheus implementation registers its collectors on the registry it
// is given; HTTPHandler exposes that registry for scraping.
package metrics
