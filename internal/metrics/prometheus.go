package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskcare/risk-server/internal/ensemble"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Scoring metrics
	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_predictions_total",
			Help: "Total number of scored requests",
		},
		[]string{"disease", "risk_level"},
	)

	predictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_prediction_errors_total",
			Help: "Scoring requests rejected or failed",
		},
		[]string{"reason"},
	)

	predictionConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "risk_prediction_confidence",
			Help:    "Distribution of positive-class probability per disease",
			Buckets: prometheus.LinearBuckets(0.05, 0.1, 10),
		},
		[]string{"disease"},
	)

	bundleTrainingSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_bundle_training_seconds",
			Help: "Wall time spent training each disease bundle at startup",
		},
		[]string{"disease"},
	)

	bundleHoldoutAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_bundle_holdout_accuracy",
			Help: "Accuracy of each stacked bundle on its hold-out split",
		},
		[]string{"disease"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordPrediction(r *ensemble.Result) {
	predictionsTotal.WithLabelValues(string(r.Disease), string(r.RiskLevel)).Inc()
	predictionConfidence.WithLabelValues(string(r.Disease)).Observe(r.Confidence)
}

func RecordPredictionError(reason string) {
	predictionErrors.WithLabelValues(reason).Inc()
}

// RecordBundles publishes the startup training summary.
func RecordBundles(infos []ensemble.BundleInfo) {
	for _, info := range infos {
		bundleTrainingSeconds.WithLabelValues(string(info.Disease)).Set(info.TrainingTime.Seconds())
		bundleHoldoutAccuracy.WithLabelValues(string(info.Disease)).Set(info.HoldoutAccuracy)
	}
}

func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
