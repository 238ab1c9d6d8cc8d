package metrics

import "time"

// Metrics is the interface used by the proxy to record the filter chain
// metrics.
type Metrics interface {
	MeasureFilter(name string, d time.Duration)
	MeasureChain(pattern string, start time.Time)
	IncShortCircuit(pattern string)
	IncChainErrors(pattern string)
	IncUnmatched()
}

// Options for initializing metrics collection.
type Options struct {

	// Common prefix for the collected metrics. Defaults to
	// "pathguard".
	Prefix string

	// Buckets of the duration histograms. Defaults to
	// prometheus.DefBuckets.
	HistogramBuckets []float64

	// If set, Go runtime and process metrics are collected in
	// addition to the chain metrics.
	EnableRuntimeMetrics bool
}

type void struct{}

// Void is a Metrics implementation that doesn't record anything.
var Void Metrics = void{}

func (void) MeasureFilter(string, time.Duration) {}
func (void) MeasureChain(string, time.Time)      {}
func (void) IncShortCircuit(string)              {}
func (void) IncChainErrors(string)               {}
func (void) IncUnmatched()                       {}
