// Package metrics exposes the service's Prometheus collectors. Every
// recording method is safe to call on a nil *Metrics so tests and tools can
// run without a registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accounts"

type Metrics struct {
	registry *prometheus.Registry

	tokenExchanges    *prometheus.CounterVec
	journeyEvents     *prometheus.CounterVec
	authorizeRequests *prometheus.CounterVec
	registryReloads   *prometheus.CounterVec
	registryClients   prometheus.Gauge
}

// New builds the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokenExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_exchanges_total",
			Help:      "Token endpoint requests by outcome (ok or the wire error code).",
		}, []string{"outcome"}),
		journeyEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journey_events_total",
			Help:      "Journey events by scope and result (applied, ignored, completed, corrupt).",
		}, []string{"scope", "result"}),
		authorizeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorize_requests_total",
			Help:      "Authorize requests by outcome.",
		}, []string{"outcome"}),
		registryReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_registry_reloads_total",
			Help:      "Client registry reload attempts by result.",
		}, []string{"result"}),
		registryClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "client_registry_clients",
			Help:      "Clients in the active registry snapshot.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tokenExchanges,
		m.journeyEvents,
		m.authorizeRequests,
		m.registryReloads,
		m.registryClients,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveTokenExchange(outcome string) {
	if m == nil {
		return
	}
	m.tokenExchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveJourneyEvent(scope, result string) {
	if m == nil {
		return
	}
	m.journeyEvents.WithLabelValues(scope, result).Inc()
}

func (m *Metrics) ObserveAuthorize(outcome string) {
	if m == nil {
		return
	}
	m.authorizeRequests.WithLabelValues(outcome).Inc()
}

// ObserveRegistryReload satisfies clients.ReloadObserver. A failed reload
// leaves the gauge at the size of the snapshot still in service.
func (m *Metrics) ObserveRegistryReload(clients int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.registryReloads.WithLabelValues("error").Inc()
		return
	}
	m.registryReloads.WithLabelValues("ok").Inc()
	m.registryClients.Set(float64(clients))
}
