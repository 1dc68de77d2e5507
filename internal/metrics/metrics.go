// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

// Metrics groups the application collectors around one registry.
type Metrics struct {
	Registry *prometheus.Registry

	tableWrites   *prometheus.CounterVec
	tableRows     *prometheus.GaugeVec
	conflicts     *prometheus.CounterVec
	rollbacks     *prometheus.CounterVec
	lowStockItems prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		tableWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medshop",
			Name:      "table_writes_total",
			Help:      "Whole-table writes committed per store.",
		}, []string{"store"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "medshop",
			Name:      "table_rows",
			Help:      "Rows in each store after the last write.",
		}, []string{"store"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medshop",
			Name:      "table_conflicts_total",
			Help:      "Writes refused because the store changed since it was loaded.",
		}, []string{"store"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medshop",
			Name:      "table_rollbacks_total",
			Help:      "Rollbacks of committed tables after a later write failed.",
		}, []string{"store", "outcome"}),
		lowStockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "medshop",
			Name:      "low_stock_items",
			Help:      "Items at or below 20% of their initial stock at the last check.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medshop",
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medshop",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tableWrites, m.tableRows, m.conflicts, m.rollbacks,
		m.lowStockItems, m.httpRequests, m.httpDuration,
	)
	return m
}

// TableWritten implements store.Observer.
func (m *Metrics) TableWritten(id models.StoreID, rows int) {
	m.tableWrites.WithLabelValues(string(id)).Inc()
	m.tableRows.WithLabelValues(string(id)).Set(float64(rows))
}

// Conflict implements store.Observer.
func (m *Metrics) Conflict(id models.StoreID) {
	m.conflicts.WithLabelValues(string(id)).Inc()
}

// Compensated implements store.Observer.
func (m *Metrics) Compensated(id models.StoreID, ok bool) {
	outcome := "restored"
	if !ok {
		outcome = "failed"
	}
	m.rollbacks.WithLabelValues(string(id), outcome).Inc()
}

// SetLowStock records the size of the latest low stock alert.
func (m *Metrics) SetLowStock(n int) {
	m.lowStockItems.Set(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
