package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	promNamespace       = "pathguard"
	promChainSubsystem  = "chain"
	promFilterSubsystem = "filter"
)

// Prometheus implements the prometheus metrics backend.
type Prometheus struct {
	filterM       *prometheus.HistogramVec
	chainM        *prometheus.HistogramVec
	shortCircuitM *prometheus.CounterVec
	chainErrorsM  *prometheus.CounterVec
	unmatchedM    prometheus.Counter

	opts     Options
	registry *prometheus.Registry
	handler  http.Handler
}

// NewPrometheus returns a new Prometheus metric backend.
func NewPrometheus(opts Options) *Prometheus {
	namespace := promNamespace
	if opts.Prefix != "" {
		namespace = strings.TrimSuffix(opts.Prefix, ".")
	}

	buckets := opts.HistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	filter := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: promFilterSubsystem,
		Name:      "duration_seconds",
		Help:      "Duration in seconds of a filter, excluding the rest of the chain.",
		Buckets:   buckets,
	}, []string{"filter"})

	chain := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: promChainSubsystem,
		Name:      "duration_seconds",
		Help:      "Duration in seconds of a filter chain, including the original handler.",
		Buckets:   buckets,
	}, []string{"pattern"})

	shortCircuit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promChainSubsystem,
		Name:      "short_circuit_total",
		Help:      "The total of chains terminated by a filter before reaching the original handler.",
	}, []string{"pattern"})

	chainErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promChainSubsystem,
		Name:      "error_total",
		Help:      "The total of chains that returned an error.",
	}, []string{"pattern"})

	unmatched := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promChainSubsystem,
		Name:      "unmatched_total",
		Help:      "The total of requests not matching any chain.",
	})

	p := &Prometheus{
		filterM:       filter,
		chainM:        chain,
		shortCircuitM: shortCircuit,
		chainErrorsM:  chainErrors,
		unmatchedM:    unmatched,
		opts:          opts,
		registry:      prometheus.NewRegistry(),
	}

	p.registerMetrics()
	p.handler = promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
	return p
}

func (p *Prometheus) registerMetrics() {
	p.registry.MustRegister(p.filterM)
	p.registry.MustRegister(p.chainM)
	p.registry.MustRegister(p.shortCircuitM)
	p.registry.MustRegister(p.chainErrorsM)
	p.registry.MustRegister(p.unmatchedM)

	if p.opts.EnableRuntimeMetrics {
		p.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		p.registry.MustRegister(collectors.NewGoCollector())
	}
}

func (p *Prometheus) sinceS(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// Registry returns the prometheus registry of the backend. Filters may
// register their own collectors in it.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// CreateHandler returns the handler serving the collected metrics.
func (p *Prometheus) CreateHandler() http.Handler { return p.handler }

// MeasureFilter satisfies Metrics interface.
func (p *Prometheus) MeasureFilter(name string, d time.Duration) {
	p.filterM.WithLabelValues(name).Observe(d.Seconds())
}

// MeasureChain satisfies Metrics interface.
func (p *Prometheus) MeasureChain(pattern string, start time.Time) {
	p.chainM.WithLabelValues(pattern).Observe(p.sinceS(start))
}

// IncShortCircuit satisfies Metrics interface.
func (p *Prometheus) IncShortCircuit(pattern string) {
	p.shortCircuitM.WithLabelValues(pattern).Inc()
}

// IncChainErrors satisfies Metrics interface.
func (p *Prometheus) IncChainErrors(pattern string) {
	p.chainErrorsM.WithLabelValues(pattern).Inc()
}

// IncUnmatched satisfies Metrics interface.
func (p *Prometheus) IncUnmatched() {
	p.unmatchedM.Inc()
}
