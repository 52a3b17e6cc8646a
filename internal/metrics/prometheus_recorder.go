package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "menusync"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	operationDuration *prom.HistogramVec
	operationResults  *prom.CounterVec
	syncedMenus       *prom.GaugeVec
	syncedLocations   *prom.GaugeVec
	retries           *prom.CounterVec
	retriesExhausted  *prom.CounterVec
	observerFailures  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.operationDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of menu operations including remote and local I/O",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"})
		pr.operationResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operation_results_total",
			Help:      "Menu operation outcomes by result and error category",
		}, []string{"operation", "result", "category"})
		pr.syncedMenus = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "synced_menus",
			Help:      "Menus stored locally after the last successful sync",
		}, []string{"blog_id"})
		pr.syncedLocations = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "synced_locations",
			Help:      "Menu locations stored locally after the last successful sync",
		}, []string{"blog_id"})
		pr.retries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_retries_total",
			Help:      "Periodic sync retries after transient failures",
		}, []string{"blog_id"})
		pr.retriesExhausted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_retry_exhausted_total",
			Help:      "Periodic syncs that failed after exhausting retries",
		}, []string{"blog_id"})
		pr.observerFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "observer_failures_total",
			Help:      "Journal and notification failures",
		}, []string{"observer"})
		reg.MustRegister(pr.operationDuration, pr.operationResults, pr.syncedMenus, pr.syncedLocations,
			pr.retries, pr.retriesExhausted, pr.observerFailures)
	})
	return pr
}

func blogLabel(blogID int64) string { return strconv.FormatInt(blogID, 10) }

func (p *PrometheusRecorder) ObserveOperationDuration(operation string, d time.Duration) {
	if p == nil || p.operationDuration == nil {
		return
	}
	p.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOperationResult(operation string, result ResultLabel, category string) {
	if p == nil || p.operationResults == nil {
		return
	}
	p.operationResults.WithLabelValues(operation, string(result), category).Inc()
}

func (p *PrometheusRecorder) SetSyncedMenus(blogID int64, menus, locations int) {
	if p == nil || p.syncedMenus == nil {
		return
	}
	p.syncedMenus.WithLabelValues(blogLabel(blogID)).Set(float64(menus))
	p.syncedLocations.WithLabelValues(blogLabel(blogID)).Set(float64(locations))
}

func (p *PrometheusRecorder) IncSyncRetry(blogID int64) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(blogLabel(blogID)).Inc()
}

func (p *PrometheusRecorder) IncSyncRetryExhausted(blogID int64) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(blogLabel(blogID)).Inc()
}

func (p *PrometheusRecorder) IncObserverFailure(observer string) {
	if p == nil || p.observerFailures == nil {
		return
	}
	p.observerFailures.WithLabelValues(observer).Inc()
}
