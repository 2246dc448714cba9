package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealdesk/internal/models"
	"mealdesk/internal/panel"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("store_driver", "sqlite")

	metrics := m.GetMetrics()

	assert.Equal(t, "sqlite", metrics["store_driver"])
	assert.Contains(t, metrics, "uptime_seconds")

	metrics["store_driver"] = "changed"
	assert.Equal(t, "sqlite", m.GetMetrics()["store_driver"], "GetMetrics returns a copy")
}

func TestMonitor_ObserveWrite(t *testing.T) {
	m := NewMonitor()

	m.ObserveWrite(panel.EntityOrder, "add", nil)
	m.ObserveWrite(panel.EntityOrder, "add", nil)
	m.ObserveWrite(panel.EntityMeal, "delete", errors.New("connection refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("order", "add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("meal", "delete", "error")))

	metrics := m.GetMetrics()
	assert.Equal(t, 2, metrics["order_add_ok"])
	assert.Equal(t, "connection refused", metrics["last_error"])
}

func TestMonitor_ObserveState(t *testing.T) {
	m := NewMonitor()
	drink := int64(3)
	s := panel.State{
		Foods:  []models.CatalogItem{{ID: 1, Name: "Pizza"}},
		Drinks: []models.CatalogItem{{ID: 3, Name: "Çay"}},
		Users:  []models.User{{ID: 9, Name: "Ada", Office: "Ofis 1"}},
		Orders: []models.Order{
			{ID: 1, UserID: 9, MealID: 1, DrinkID: &drink, Status: models.StatusPreparing},
			{ID: 2, UserID: 9, MealID: 1, Status: models.StatusDelivered},
		},
	}

	m.ObserveState(s)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.pendingOrders))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.collectionSize.WithLabelValues("order")))
	metrics := m.GetMetrics()
	assert.Equal(t, 1, metrics["orders_delivered"])
	assert.Equal(t, 1, metrics["meal_count"])
}

func TestMonitor_RecordSeed(t *testing.T) {
	m := NewMonitor()

	m.RecordSeed(nil)
	metrics := m.GetMetrics()
	assert.Equal(t, "ok", metrics["seed_result"])
	assert.NotEmpty(t, metrics["seeded_at"])

	m.RecordSeed(errors.New("seed users: store unreachable"))
	assert.Equal(t, "seed users: store unreachable", m.GetMetrics()["seed_result"])
}

func TestMonitor_HandlerAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMonitor()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `mealdesk_http_request_duration_seconds_count{code="200",method="GET",route="/health"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
