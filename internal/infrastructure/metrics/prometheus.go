// Package metrics backs ports.MetricsCollector with a Prometheus registry.
package metrics

import (
	"context"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

var help = map[string]string{
	ports.MetricScenariosTotal:   "Total number of finished scenarios",
	ports.MetricStepsTotal:       "Total number of finished steps",
	ports.MetricScenariosRunning: "Number of scenarios currently running",
	ports.MetricScenarioDuration: "Scenario duration in seconds",
	ports.MetricStepDuration:     "Step duration in seconds",
}

// Collector lazily creates one vector per metric name on its own registry.
// The label names of a vector are fixed by the first sample recorded for it;
// later samples missing a label record it as empty and extra labels are
// dropped.
type Collector struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*vec[*prometheus.CounterVec]
	gauges     map[string]*vec[*prometheus.GaugeVec]
	histograms map[string]*vec[*prometheus.HistogramVec]
}

type vec[V any] struct {
	labels []string
	v      V
}

// NewCollector creates a collector with an empty registry.
func NewCollector() *Collector {
	return &Collector{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*vec[*prometheus.CounterVec]),
		gauges:     make(map[string]*vec[*prometheus.GaugeVec]),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
	}
}

// Registry exposes the underlying registry for gathering or serving.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) IncCounter(_ context.Context, name string, labels map[string]string) {
	c.mu.Lock()
	entry, ok := c.counters[name]
	if !ok {
		keys := labelNames(labels)
		entry = &vec[*prometheus.CounterVec]{
			labels: keys,
			v:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: helpFor(name)}, keys),
		}
		c.registry.MustRegister(entry.v)
		c.counters[name] = entry
	}
	c.mu.Unlock()
	entry.v.WithLabelValues(labelValues(entry.labels, labels)...).Inc()
}

func (c *Collector) SetGauge(_ context.Context, name string, value float64, labels map[string]string) {
	c.mu.Lock()
	entry, ok := c.gauges[name]
	if !ok {
		keys := labelNames(labels)
		entry = &vec[*prometheus.GaugeVec]{
			labels: keys,
			v:      prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: helpFor(name)}, keys),
		}
		c.registry.MustRegister(entry.v)
		c.gauges[name] = entry
	}
	c.mu.Unlock()
	entry.v.WithLabelValues(labelValues(entry.labels, labels)...).Set(value)
}

func (c *Collector) ObserveHistogram(_ context.Context, name string, value float64, labels map[string]string) {
	c.mu.Lock()
	entry, ok := c.histograms[name]
	if !ok {
		keys := labelNames(labels)
		entry = &vec[*prometheus.HistogramVec]{
			labels: keys,
			v: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    name,
				Help:    helpFor(name),
				Buckets: prometheus.DefBuckets,
			}, keys),
		}
		c.registry.MustRegister(entry.v)
		c.histograms[name] = entry
	}
	c.mu.Unlock()
	entry.v.WithLabelValues(labelValues(entry.labels, labels)...).Observe(value)
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

func labelNames(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelValues(names []string, labels map[string]string) []string {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = labels[name]
	}
	return values
}

var _ ports.MetricsCollector = (*Collector)(nil)
