package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rickgao/price-feed/internal/model"
)

const namespace = "pricefeed"

// Metrics holds the service collectors.
type Metrics struct {
	workerOutcomes *prometheus.CounterVec
	workerCursor   prometheus.Gauge
	storeRecords   *prometheus.CounterVec
	storeCommits   *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
}

// New registers all collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		workerOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "iterations_total",
			Help:      "Worker iterations partitioned by outcome",
		}, []string{"outcome"}),

		workerCursor: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "page_cursor",
			Help:      "Next provider page the worker will fetch",
		}),

		storeRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_total",
			Help:      "Records seen by the batch store partitioned by result",
		}, []string{"result"}),

		storeCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "commits_total",
			Help:      "Page transaction commits partitioned by result",
		}, []string{"result"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_duration_seconds",
			Help:      "Provider page fetch latency partitioned by result",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Read API requests partitioned by route and status",
		}, []string{"route", "status"}),
	}
}

// ObserveOutcome counts one worker iteration.
func (m *Metrics) ObserveOutcome(o model.Outcome) {
	if m == nil {
		return
	}
	m.workerOutcomes.WithLabelValues(o.String()).Inc()
}

// SetCursor records the worker's next page index.
func (m *Metrics) SetCursor(page int) {
	if m == nil {
		return
	}
	m.workerCursor.Set(float64(page))
}

// ObserveStore counts per-record results for one page.
func (m *Metrics) ObserveStore(upserted, skipped, failed int) {
	if m == nil {
		return
	}
	m.storeRecords.WithLabelValues("upserted").Add(float64(upserted))
	m.storeRecords.WithLabelValues("skipped").Add(float64(skipped))
	m.storeRecords.WithLabelValues("failed").Add(float64(failed))
}

// ObserveCommit counts one page commit attempt.
func (m *Metrics) ObserveCommit(err error) {
	if m == nil {
		return
	}
	m.storeCommits.WithLabelValues(result(err)).Inc()
}

// ObserveFetch records the latency of one provider call.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(result(err)).Observe(d.Seconds())
}

// ObserveRequest counts one read API response.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
