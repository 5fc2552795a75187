// Package obsmetrics provides the metrics sink shared across this
// module's packages, grounded on the teacher pack's metricsSink /
// noopMetrics / promMetrics split (Voskan-arena-cache's pkg/metrics.go):
// a component takes a Sink at construction (one given no Sink uses Noop), so
// library code never forces a Prometheus registry onto a caller that
// doesn't want one.
package obsmetrics

import "github.com/prometheus/client_golang/prometheus"

// Sink is the metrics interface hash tables, pools, and the marshal
// framework report through.
type Sink interface {
	IncCounter(name string, labels ...string)
	ObserveGauge(name string, value float64, labels ...string)
}

type noopSink struct{}

// Noop returns a Sink that discards everything.
func Noop() Sink { return noopSink{} }

func (noopSink) IncCounter(string, ...string)          {}
func (noopSink) ObserveGauge(string, float64, ...string) {}

// PromSink reports through a caller-supplied Prometheus registry. Metric
// names passed to IncCounter/ObserveGauge must have been registered in
// advance via Counter/Gauge; an unregistered name is a silent no-op
// rather than a panic, so instrumentation gaps fail quiet, not loud.
type PromSink struct {
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

// NewPromSink creates an empty sink; reg is not used here. Call
// Counter/Gauge, each with its own registerer, to register the metrics
// the caller intends to report.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	return &PromSink{
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
	}
}

// Counter registers a labeled counter vector with reg and records it under name.
func (s *PromSink) Counter(reg prometheus.Registerer, name, help string, labelNames ...string) {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labelNames)
	reg.MustRegister(cv)
	s.counters[name] = cv
}

// Gauge registers a labeled gauge vector with reg and records it under name.
func (s *PromSink) Gauge(reg prometheus.Registerer, name, help string, labelNames ...string) {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labelNames)
	reg.MustRegister(gv)
	s.gauges[name] = gv
}

func (s *PromSink) IncCounter(name string, labels ...string) {
	if cv, ok := s.counters[name]; ok {
		cv.WithLabelValues(labels...).Inc()
	}
}

func (s *PromSink) ObserveGauge(name string, value float64, labels ...string) {
	if gv, ok := s.gauges[name]; ok {
		gv.WithLabelValues(labels...).Set(value)
	}
}
