package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/riskcare/risk-server/internal/ensemble"
)

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/items/:id", "204"))
	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/items/:id", "204"))
	if after-before != 2 {
		t.Fatalf("expected 2 requests recorded, got %v", after-before)
	}
}

func TestRecordPrediction(t *testing.T) {
	c := predictionsTotal.WithLabelValues("stroke", "high")
	before := testutil.ToFloat64(c)
	RecordPrediction(&ensemble.Result{Disease: ensemble.Stroke, RiskLevel: ensemble.High, Confidence: 0.8})
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Fatalf("expected counter to advance by 1, got %v", got)
	}
}

func TestRecordBundles(t *testing.T) {
	RecordBundles([]ensemble.BundleInfo{{Disease: ensemble.Heart, HoldoutAccuracy: 0.91, TrainingTime: 2 * time.Second}})
	if got := testutil.ToFloat64(bundleHoldoutAccuracy.WithLabelValues("heart")); got != 0.91 {
		t.Fatalf("unexpected accuracy gauge: %v", got)
	}
	if got := testutil.ToFloat64(bundleTrainingSeconds.WithLabelValues("heart")); got != 2 {
		t.Fatalf("unexpected training gauge: %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordPredictionError("unknown_disease")
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "risk_prediction_errors_total") {
		t.Fatal("expected prediction error counter in output")
	}
}
