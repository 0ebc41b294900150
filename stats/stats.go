// Package stats provides a small instrumentation facade used by the
// simulation components. Metrics are grouped under hierarchical scopes,
// e.g. simReceiver.Scope("scheduler", "fcfs").Counter("jobsStarted").
package stats

import (
	"strings"

	metrics "github.com/rcrowley/go-metrics"
)

const scopeDelimiter = "/"

// Receiver provides scoped access to counters, gauges and histograms.
type Receiver interface {
	// Scope returns a receiver prefixed with the given scope parts, so
	// that:
	//   receiver.Scope("foo", "bar").Counter("baz")  // is equivalent to
	//   receiver.Scope("foo").Scope("bar").Counter("baz")
	Scope(scope ...string) Receiver

	Counter(name string) metrics.Counter
	Gauge(name string) metrics.Gauge
	GaugeFloat(name string) metrics.GaugeFloat64
	Histogram(name string) metrics.Histogram

	// Registry exposes the underlying registry for report rendering.
	Registry() metrics.Registry
}

// NewReceiver creates a receiver backed by a fresh registry.
func NewReceiver() Receiver {
	return &defaultReceiver{registry: metrics.NewRegistry()}
}

type defaultReceiver struct {
	registry metrics.Registry
	scope    []string
}

func (r *defaultReceiver) Scope(scope ...string) Receiver {
	base := append([]string{}, r.scope...)
	return &defaultReceiver{registry: r.registry, scope: append(base, scope...)}
}

func (r *defaultReceiver) Counter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(r.scoped(name), r.registry)
}

func (r *defaultReceiver) Gauge(name string) metrics.Gauge {
	return metrics.GetOrRegisterGauge(r.scoped(name), r.registry)
}

func (r *defaultReceiver) GaugeFloat(name string) metrics.GaugeFloat64 {
	return metrics.GetOrRegisterGaugeFloat64(r.scoped(name), r.registry)
}

func (r *defaultReceiver) Histogram(name string) metrics.Histogram {
	return metrics.GetOrRegisterHistogram(r.scoped(name), r.registry,
		metrics.NewExpDecaySample(1028, 0.015))
}

func (r *defaultReceiver) Registry() metrics.Registry {
	return r.registry
}

func (r *defaultReceiver) scoped(name string) string {
	if len(r.scope) == 0 {
		return name
	}
	return strings.Join(r.scope, scopeDelimiter) + scopeDelimiter + name
}

// NilReceiver returns a receiver that retains nothing. Components take
// a Receiver unconditionally; callers not interested in metrics pass
// this one.
func NilReceiver() Receiver {
	return &nilReceiver{}
}

type nilReceiver struct{}

func (r *nilReceiver) Scope(scope ...string) Receiver { return r }
func (r *nilReceiver) Counter(name string) metrics.Counter {
	return metrics.NilCounter{}
}
func (r *nilReceiver) Gauge(name string) metrics.Gauge {
	return metrics.NilGauge{}
}
func (r *nilReceiver) GaugeFloat(name string) metrics.GaugeFloat64 {
	return metrics.NilGaugeFloat64{}
}
func (r *nilReceiver) Histogram(name string) metrics.Histogram {
	return metrics.NilHistogram{}
}
func (r *nilReceiver) Registry() metrics.Registry { return nil }
