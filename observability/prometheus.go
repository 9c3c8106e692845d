package observability

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusFactory is a MetricFactory backed by client_golang collectors.
// Dotted metric names become underscore separated, so "dues.invoice.paid"
// is exported as dues_invoice_paid.
type PrometheusFactory struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

// NewPrometheusFactory registers collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{
		reg:        reg,
		collectors: make(map[string]prometheus.Collector),
	}
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	return register(f, name, func(n string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: n, Help: help(name)})
	})
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	return register(f, name, func(n string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    n,
			Help:    help(name),
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		})
	})
}

// Gauge implements MetricFactory.
func (f *PrometheusFactory) Gauge(name string) Gauge {
	return register(f, name, func(n string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: n, Help: help(name)})
	})
}

// register returns the collector already created under name or creates and
// registers a new one. A collector another party registered under the same
// name is reused.
func register[C prometheus.Collector](f *PrometheusFactory, name string, build func(string) C) C {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := metricName(name)
	if c, ok := f.collectors[n].(C); ok {
		return c
	}

	c := build(n)
	if err := f.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				c = existing
			}
		}
	}
	f.collectors[n] = c
	return c
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func help(name string) string {
	return "dues metric " + name
}
