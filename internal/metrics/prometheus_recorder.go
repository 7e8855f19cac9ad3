package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "multipage"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	rewrites      *prom.CounterVec
	passthrough   prom.Counter
	pages         prom.Gauge
	tableRebuilds prom.Counter
	reorganize    *prom.CounterVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		rewrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rewrites_total",
			Help:      "Requests rewritten to a page entry document, by rule kind",
		}, []string{"rule"}),
		passthrough: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "passthrough_total",
			Help:      "Requests that matched no rewrite rule",
		}),
		pages: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pages",
			Help:      "Pages in the current route table",
		}),
		tableRebuilds: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "route_table_rebuilds_total",
			Help:      "Route table rebuilds after page directory changes",
		}),
		reorganize: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reorganize_pages_total",
			Help:      "Output reorganizer page outcomes",
		}, []string{"result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.rewrites, pr.passthrough, pr.pages, pr.tableRebuilds, pr.reorganize, pr.buildDuration, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) IncRewrite(kind string) {
	p.rewrites.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncPassthrough() {
	p.passthrough.Inc()
}

func (p *PrometheusRecorder) SetPages(n int) {
	p.pages.Set(float64(n))
}

func (p *PrometheusRecorder) IncTableRebuild() {
	p.tableRebuilds.Inc()
}

func (p *PrometheusRecorder) IncReorganize(result ReorganizeResult) {
	p.reorganize.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics in g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
