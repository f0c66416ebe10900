package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "hoteliq"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "pipeline_runs_total", Help: "ETL pipeline runs."},
		[]string{"result"}, // result: success|invalid|error
	)
	PipelineRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "pipeline_rows_total", Help: "Rows handled by the load stage."},
		[]string{"outcome"}, // outcome: loaded|skipped|error
	)
	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "pipeline_duration_seconds",
			Help:    "ETL pipeline run duration seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
	DailyMetricsComputed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "daily_metrics_computed_total", Help: "Daily metric snapshots upserted."},
	)
	RecomputeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "recompute_runs_total", Help: "Bulk recompute jobs by final state."},
		[]string{"state"},
	)
)

// Serve exposes /metrics on addr in the background. An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, CacheEvents,
		PipelineRuns, PipelineRows, PipelineDuration,
		DailyMetricsComputed, RecomputeRuns,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObservePipeline(result string, dur time.Duration, loaded, skipped, errored int) {
	PipelineRuns.WithLabelValues(result).Inc()
	PipelineDuration.Observe(dur.Seconds())
	PipelineRows.WithLabelValues("loaded").Add(float64(loaded))
	PipelineRows.WithLabelValues("skipped").Add(float64(skipped))
	PipelineRows.WithLabelValues("error").Add(float64(errored))
}

func ObserveDailyMetrics() { DailyMetricsComputed.Inc() }

func ObserveRecompute(state string) { RecomputeRuns.WithLabelValues(state).Inc() }
