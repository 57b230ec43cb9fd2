package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "confmesh"

// Load results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Registry holds all confmesh metrics.
type Registry struct {
	gatherer prometheus.Gatherer
	reg      prometheus.Registerer

	loadsTotal    *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	fetchDuration *prometheus.HistogramVec
	sourceErrors  *prometheus.CounterVec
	sourceRetries *prometheus.CounterVec
	sourceSkipped *prometheus.CounterVec
	configKeys    prometheus.Gauge
}

// NewRegistry creates the collectors and registers them on a fresh
// prometheus.Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	return NewRegistryWith(reg, reg)
}

// NewRegistryWith registers the collectors on reg. g is used by
// WriteTextfile and may be nil.
func NewRegistryWith(reg prometheus.Registerer, g prometheus.Gatherer) *Registry {
	r := &Registry{
		gatherer: g,
		reg:      reg,
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Configuration load cycles by result",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a full configuration load cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one source fetch including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "errors_total",
			Help:      "Failed source fetch attempts by retry class",
		}, []string{"source", "class"}),
		sourceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "retries_total",
			Help:      "Source fetch retries",
		}, []string{"source"}),
		sourceSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "skipped_total",
			Help:      "Sources skipped because they reported unavailable",
		}, []string{"source"}),
		configKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_keys",
			Help:      "Number of keys in the installed configuration snapshot",
		}),
	}

	reg.MustRegister(
		r.loadsTotal,
		r.loadDuration,
		r.fetchDuration,
		r.sourceErrors,
		r.sourceRetries,
		r.sourceSkipped,
		r.configKeys,
	)
	return r
}

// ObserveLoad records one load cycle.
func (r *Registry) ObserveLoad(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.loadsTotal.WithLabelValues(result).Inc()
	r.loadDuration.Observe(d.Seconds())
}

// ObserveFetch records the duration of one source fetch.
func (r *Registry) ObserveFetch(source string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// SourceError counts a failed fetch attempt.
func (r *Registry) SourceError(source, class string) {
	if r == nil {
		return
	}
	r.sourceErrors.WithLabelValues(source, class).Inc()
}

// SourceRetry counts one retry of a source fetch.
func (r *Registry) SourceRetry(source string) {
	if r == nil {
		return
	}
	r.sourceRetries.WithLabelValues(source).Inc()
}

// SourceSkipped counts a source that reported itself unavailable.
func (r *Registry) SourceSkipped(source string) {
	if r == nil {
		return
	}
	r.sourceSkipped.WithLabelValues(source).Inc()
}

// SetConfigKeys sets the size of the installed snapshot.
func (r *Registry) SetConfigKeys(n int) {
	if r == nil {
		return
	}
	r.configKeys.Set(float64(n))
}

// Register adds an extra collector, e.g. a StoreCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	return r.reg.Register(c)
}

// Gatherer returns the gatherer passed at construction.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return nil
	}
	return r.gatherer
}

// WriteTextfile writes all gathered metrics to path in the text exposition
// format, for the node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || r.gatherer == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.gatherer)
}
