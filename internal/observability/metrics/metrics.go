package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels attached to every metric.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	transitions       *prometheus.CounterVec
	ledgerEntries     *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	restockRequests   *prometheus.CounterVec
	lowStockSnapshots prometheus.Gauge
}

// New registers the application instruments on the default registerer.
func New(cfg Config) *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, cfg)
}

func newMetrics(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "coldchain"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "coldchain_http_requests_total",
		Help:        "HTTP requests by route, method and status.",
		ConstLabels: constLabels,
	}, []string{"route", "method", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "coldchain_http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"route", "method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "coldchain_workflow_transitions_total",
		Help:        "Workflow state transitions by entity, from and to state.",
		ConstLabels: constLabels,
	}, []string{"entity", "from", "to"})
	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "coldchain_allocation_entries_total",
		Help:        "Allocation ledger entries appended by action.",
		ConstLabels: constLabels,
	}, []string{"action"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "coldchain_notifications_total",
		Help:        "Notifications dispatched by type and outcome.",
		ConstLabels: constLabels,
	}, []string{"type", "outcome"})
	restockRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "coldchain_restock_requests_total",
		Help:        "Automatic restock requests by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	lowStockSnapshots := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "coldchain_available_units",
		Help:        "Available equipment units from the latest inventory check.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		httpRequests,
		httpDuration,
		transitions,
		ledgerEntries,
		notifications,
		restockRequests,
		lowStockSnapshots,
	)

	return &Metrics{
		httpRequests:      httpRequests,
		httpDuration:      httpDuration,
		transitions:       transitions,
		ledgerEntries:     ledgerEntries,
		notifications:     notifications,
		restockRequests:   restockRequests,
		lowStockSnapshots: lowStockSnapshots,
	}
}

// GinMiddleware records request counts and latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition increments workflow transition counters.
func (m *Metrics) RecordTransition(entity, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from, to).Inc()
}

// RecordLedgerEntry increments allocation ledger entry counts.
func (m *Metrics) RecordLedgerEntry(action string) {
	if m == nil || m.ledgerEntries == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(action).Inc()
}

// RecordNotification increments notification dispatch counts.
func (m *Metrics) RecordNotification(notificationType, outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(notificationType, outcome).Inc()
}

// RecordRestockRequest increments restock request counts by outcome.
func (m *Metrics) RecordRestockRequest(outcome string) {
	if m == nil || m.restockRequests == nil {
		return
	}
	m.restockRequests.WithLabelValues(outcome).Inc()
}

// SetAvailableUnits records the available unit count observed by the monitor.
func (m *Metrics) SetAvailableUnits(count int) {
	if m == nil || m.lowStockSnapshots == nil {
		return
	}
	m.lowStockSnapshots.Set(float64(count))
}
