package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the pipeline metrics on a private registry
type Collector struct {
	reg *prometheus.Registry

	Runs        *prometheus.CounterVec // result label: ok|fault|canceled
	RunDuration prometheus.Histogram

	FeedFailures *prometheus.CounterVec // feed, stage labels
	FeedEvents   *prometheus.CounterVec // feed label

	Stations prometheus.Gauge
}

// NewCollector creates a collector with all metrics registered
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arrivals_runs_total",
			Help: "Pipeline runs by result.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arrivals_run_duration_seconds",
			Help:    "Duration of a full fetch and aggregate run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		FeedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arrivals_feed_failures_total",
			Help: "Feeds skipped in a run, by stage (fetch|decode).",
		}, []string{"feed", "stage"}),
		FeedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arrivals_feed_events_total",
			Help: "Arrivals contributed to a summary, by feed.",
		}, []string{"feed"}),
		Stations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arrivals_stations",
			Help: "Stations present in the latest summary.",
		}),
	}

	reg.MustRegister(c.Runs, c.RunDuration, c.FeedFailures, c.FeedEvents, c.Stations)
	return c
}

// ObserveRun records one finished run
func (c *Collector) ObserveRun(result string, d time.Duration, stations int) {
	c.Runs.WithLabelValues(result).Inc()
	c.RunDuration.Observe(d.Seconds())
	if result == "ok" {
		c.Stations.Set(float64(stations))
	}
}

// FeedFailed counts a skipped feed
func (c *Collector) FeedFailed(feed, stage string) {
	c.FeedFailures.WithLabelValues(feed, stage).Inc()
}

// FeedContributed counts arrivals a feed added to a run
func (c *Collector) FeedContributed(feed string, n int) {
	c.FeedEvents.WithLabelValues(feed).Add(float64(n))
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	slog.Info("metrics listening", "addr", addr)
	return srv
}
