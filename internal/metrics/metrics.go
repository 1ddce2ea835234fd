// Package metrics exposes Prometheus counters for the cart and checkout flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cart groups the cart collectors. A nil *Cart records nothing.
type Cart struct {
	loads     *prometheus.CounterVec
	mutations *prometheus.CounterVec
	checkouts *prometheus.CounterVec
	repairs   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewCart registers the cart collectors on reg.
func NewCart(reg prometheus.Registerer) *Cart {
	m := &Cart{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eato",
			Subsystem: "cart",
			Name:      "loads_total",
			Help:      "Cart aggregations by outcome.",
		}, []string{"outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eato",
			Subsystem: "cart",
			Name:      "line_mutations_total",
			Help:      "Order-line writes issued by the cart, by operation and outcome.",
		}, []string{"op", "outcome"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eato",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eato",
			Subsystem: "cart",
			Name:      "order_repairs_total",
			Help:      "Attempts to finish incomplete orders on load.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eato",
			Subsystem: "cart",
			Name:      "operation_duration_seconds",
			Help:      "Latency of cart operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.loads, m.mutations, m.checkouts, m.repairs, m.duration)
	return m
}

func (m *Cart) Load(outcome string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
}

func (m *Cart) Mutation(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

func (m *Cart) Checkout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

func (m *Cart) Repair(outcome string) {
	if m == nil {
		return
	}
	m.repairs.WithLabelValues(outcome).Inc()
}

// Since records the elapsed time of an operation started at start.
func (m *Cart) Since(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// NewRegistry returns a registry preloaded with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
