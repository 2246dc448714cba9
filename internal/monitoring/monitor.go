package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mealdesk/internal/models"
	"mealdesk/internal/panel"
)

// Monitor collects desk metrics: a JSON snapshot for the panel and a
// Prometheus registry for scraping.
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time

	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	collectionSize  *prometheus.GaugeVec
	pendingOrders   prometheus.Gauge
	requestDuration *prometheus.HistogramVec
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	registry := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealdesk_operations_total",
			Help: "Store round trips by entity, operation and result",
		},
		[]string{"entity", "op", "result"},
	)
	collectionSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mealdesk_collection_size",
			Help: "Records held in each in-memory collection",
		},
		[]string{"entity"},
	)
	pendingOrders := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mealdesk_pending_orders",
			Help: "Orders shown in the pending list",
		},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mealdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	registry.MustRegister(
		operations,
		collectionSize,
		pendingOrders,
		requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Monitor{
		metrics:         make(map[string]interface{}),
		startTime:       time.Now(),
		registry:        registry,
		operations:      operations,
		collectionSize:  collectionSize,
		pendingOrders:   pendingOrders,
		requestDuration: requestDuration,
	}
}

// RecordMetric sets a value in the JSON snapshot, e.g. the active store driver
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// RecordSeed keeps the outcome of start-up seeding in the JSON snapshot
func (m *Monitor) RecordSeed(err error) {
	result := "ok"
	if err != nil {
		result = err.Error()
	}
	m.RecordMetric("seed_result", result)
	m.RecordMetric("seeded_at", time.Now().Format(time.RFC3339))
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Create a copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics))
	for k, v := range m.metrics {
		metrics[k] = v
	}

	// Add system metrics
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// ObserveWrite counts one store round trip
func (m *Monitor) ObserveWrite(entity, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(entity, op, result).Inc()

	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	key := entity + "_" + op + "_" + result
	n, _ := m.metrics[key].(int)
	m.metrics[key] = n + 1
	if err != nil {
		m.metrics["last_error"] = err.Error()
		m.metrics["last_error_at"] = time.Now().Format(time.RFC3339)
	}
}

// ObserveState records the collection sizes after a load or write
func (m *Monitor) ObserveState(s panel.State) {
	pending := len(panel.PendingOrderView(s))
	sizes := map[string]int{
		panel.EntityMeal:  len(s.Foods),
		panel.EntityDrink: len(s.Drinks),
		panel.EntityUser:  len(s.Users),
		panel.EntityOrder: len(s.Orders),
	}
	byStatus := map[models.Status]int{}
	for _, o := range s.Orders {
		byStatus[o.Status]++
	}

	for entity, n := range sizes {
		m.collectionSize.WithLabelValues(entity).Set(float64(n))
	}
	m.pendingOrders.Set(float64(pending))

	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	for entity, n := range sizes {
		m.metrics[entity+"_count"] = n
	}
	m.metrics["pending_orders"] = pending
	for _, st := range []models.Status{models.StatusPreparing, models.StatusReady, models.StatusDelivered} {
		m.metrics["orders_"+string(st)] = byStatus[st]
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware times every request by its route pattern
func (m *Monitor) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
