// Package instrument exports scope installation as Prometheus metrics.
package instrument

import (
	"net/http"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/nest"
)

var _ nest.Observer = (*Metrics)(nil)

// Metrics is a nest.Observer backed by its own Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	scopesStarted   *prometheus.CounterVec
	scopesInstalled *prometheus.CounterVec
	constructed     *prometheus.CounterVec
	scopeInstances  *prometheus.GaugeVec
	dependencies    prometheus.Histogram
}

// New creates the collectors under namespace and registers them.
func New(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.scopesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scopes_started_total",
			Help:      "Total number of scope installations started",
		},
		[]string{"scope"},
	)
	m.registry.MustRegister(m.scopesStarted)

	m.scopesInstalled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scopes_installed_total",
			Help:      "Total number of scope installations that succeeded",
		},
		[]string{"scope"},
	)
	m.registry.MustRegister(m.scopesInstalled)

	m.constructed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constructed_total",
			Help:      "Total number of instances constructed",
		},
		[]string{"scope"},
	)
	m.registry.MustRegister(m.constructed)

	m.scopeInstances = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scope_constructed_instances",
			Help:      "Instances constructed by the latest installation of a scope",
		},
		[]string{"scope"},
	)
	m.registry.MustRegister(m.scopeInstances)

	m.dependencies = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "constructor_dependencies",
			Help:      "Number of injected dependencies per constructed instance",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		},
	)
	m.registry.MustRegister(m.dependencies)

	return m
}

// ScopeStarted implements nest.Observer.
func (m *Metrics) ScopeStarted(scopeID string) {
	m.scopesStarted.WithLabelValues(scopeID).Inc()
	m.scopeInstances.WithLabelValues(scopeID).Set(0)
}

// Constructed implements nest.Observer.
func (m *Metrics) Constructed(scopeID string, _ reflect.Type, deps []reflect.Type) {
	m.constructed.WithLabelValues(scopeID).Inc()
	m.scopeInstances.WithLabelValues(scopeID).Inc()
	m.dependencies.Observe(float64(len(deps)))
}

// ScopeInstalled implements nest.Observer.
func (m *Metrics) ScopeInstalled(scopeID string) {
	m.scopesInstalled.WithLabelValues(scopeID).Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
