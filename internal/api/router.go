package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/riskcare/risk-server/internal/ensemble"
	"github.com/riskcare/risk-server/internal/metrics"
	"github.com/riskcare/risk-server/internal/store"
)

// HealthChecker is pinged by /readyz.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Scorer is the part of the ensemble registry the handlers use.
type Scorer interface {
	ScoreRaw(disease string, raw map[string]any) (*ensemble.Result, error)
	Infos() []ensemble.BundleInfo
	Importance(disease string) (map[string]float64, error)
	Mode() ensemble.ValidationMode
}

type Options struct {
	CORSOrigins    []string
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
	Version        string
}

// Server wires handlers to their dependencies. DB is nil when the
// database is disabled.
type Server struct {
	Scorer Scorer
	Store  store.Store
	DB     HealthChecker
	Logger zerolog.Logger
	Opts   Options
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()

	origins := s.Opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	maxBody := s.Opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	router.Use(
		requestID(),
		accessLog(s.Logger),
		recovery(s.Logger),
		metrics.Middleware(),
		limitBodySize(maxBody),
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", s.ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	if s.Opts.RateLimitRPS > 0 {
		api.Use(newIPRateLimiter(s.Opts.RateLimitRPS, s.Opts.RateLimitBurst).middleware())
	}
	api.GET("/", s.info)
	api.GET("/diseases", s.diseases)
	api.POST("/predict", s.predict)
	api.GET("/predictions", s.listPredictions)
	api.GET("/predictions/:id", s.getPrediction)
	api.GET("/recommendations/:disease", s.recommendations)
	api.POST("/prescription", s.prescription)
	api.POST("/health-metrics", s.recordMetric)
	api.GET("/health-metrics/:patient_id", s.listMetrics)

	router.NoRoute(func(c *gin.Context) {
		abortError(c, http.StatusNotFound, codeNotFound, "route not found")
	})

	return router
}

func (s *Server) ready(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     "unhealthy: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
}
