// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal           *prometheus.CounterVec
	crawlerFetchDurationSeconds *prometheus.HistogramVec
	crawlerContactsTotal        *prometheus.CounterVec
	crawlerInstitutionsTotal    *prometheus.CounterVec
	crawlerActiveTasks          prometheus.Gauge
	crawlerRenderSessionsLive   prometheus.Gauge
	crawlerPolitenessWaitSecs   *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of pages fetched, labeled by method and outcome.",
			},
			[]string{"method", "outcome"},
		)

		crawlerFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by method.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"method"},
		)

		crawlerContactsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_contacts_total",
				Help: "Total number of contacts persisted, labeled by confidence bucket.",
			},
			[]string{"bucket"},
		)

		crawlerInstitutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_institutions_total",
				Help: "Total number of institutions processed, labeled by status.",
			},
			[]string{"status"},
		)

		crawlerActiveTasks = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_active_tasks",
				Help: "Number of institution tasks currently in flight.",
			},
		)

		crawlerRenderSessionsLive = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_render_sessions_live",
				Help: "Number of live browser render sessions in the pool.",
			},
		)

		crawlerPolitenessWaitSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_politeness_wait_seconds",
				Help:    "Histogram of politeness wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"domain"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage increments the page counter and records fetch latency.
func ObservePage(method, outcome string, duration time.Duration) {
	crawlerPagesTotal.WithLabelValues(method, outcome).Inc()
	crawlerFetchDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveContact increments the persisted-contact counter for a bucket.
func ObserveContact(bucket string) {
	crawlerContactsTotal.WithLabelValues(bucket).Inc()
}

// ObserveInstitution increments the institution counter for the given status.
func ObserveInstitution(status string) {
	crawlerInstitutionsTotal.WithLabelValues(status).Inc()
}

// IncActiveTasks increments the in-flight task gauge.
func IncActiveTasks() {
	crawlerActiveTasks.Inc()
}

// DecActiveTasks decrements the in-flight task gauge.
func DecActiveTasks() {
	crawlerActiveTasks.Dec()
}

// SetRenderSessions records the current live render session count.
func SetRenderSessions(n int) {
	crawlerRenderSessionsLive.Set(float64(n))
}

// ObservePolitenessWait records the duration of a politeness wait.
func ObservePolitenessWait(domain string, duration time.Duration) {
	crawlerPolitenessWaitSecs.WithLabelValues(domain).Observe(duration.Seconds())
}
