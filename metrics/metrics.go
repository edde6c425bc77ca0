// Package metrics exposes Prometheus instruments for the polling engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	cycles        prometheus.Counter
	skipped       prometheus.Counter
	cycleDuration prometheus.Histogram
	fetchErrors   *prometheus.CounterVec
	changes       *prometheus.CounterVec
	manual        *prometheus.CounterVec
	items         *prometheus.GaugeVec
	connected     prometheus.Gauge
	commands      *prometheus.CounterVec
}

// New builds a metrics set on its own registry so several engines (and
// tests) can coexist in one process.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "antmonitor_poll_cycles_total",
			Help: "Automatic poll cycles that ran.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "antmonitor_poll_ticks_skipped_total",
			Help: "Timer ticks dropped because a cycle was still in flight.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "antmonitor_poll_cycle_seconds",
			Help:    "Duration of automatic poll cycles.",
			Buckets: prometheus.DefBuckets,
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "antmonitor_fetch_errors_total",
			Help: "Failed fetches by resource kind.",
		}, []string{"kind"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "antmonitor_reconcile_changes_total",
			Help: "Entities added, removed or updated by reconciliation.",
		}, []string{"kind", "op"}), // op: added/removed/updated
		manual: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "antmonitor_manual_refresh_total",
			Help: "Manual refreshes by kind and result.",
		}, []string{"kind", "result"}),
		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "antmonitor_store_items",
			Help: "Entities currently held per resource kind.",
		}, []string{"kind"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "antmonitor_connected",
			Help: "Fleet server session state (1=connected).",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "antmonitor_commands_total",
			Help: "Operator commands sent to the fleet server.",
		}, []string{"command", "status"}),
	}
	m.reg.MustRegister(
		m.cycles, m.skipped, m.cycleDuration, m.fetchErrors,
		m.changes, m.manual, m.items, m.connected, m.commands,
	)
	return m
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) CycleDone(d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) TickSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *Metrics) FetchError(kind string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(kind).Inc()
}

// Reconciled records the size of one reconciliation and the resulting
// collection size.
func (m *Metrics) Reconciled(kind string, added, removed, updated, total int) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(kind, "added").Add(float64(added))
	m.changes.WithLabelValues(kind, "removed").Add(float64(removed))
	m.changes.WithLabelValues(kind, "updated").Add(float64(updated))
	m.items.WithLabelValues(kind).Set(float64(total))
}

func (m *Metrics) ManualRefresh(kind string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.manual.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SetConnected(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

func (m *Metrics) Command(name string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.commands.WithLabelValues(name, status).Inc()
}
