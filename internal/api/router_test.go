package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/riskcare/risk-server/internal/ensemble"
	"github.com/riskcare/risk-server/internal/store"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

// stubScorer returns a fixed error so error mapping can be tested without training.
type stubScorer struct {
	err error
}

func (s stubScorer) ScoreRaw(string, map[string]any) (*ensemble.Result, error) { return nil, s.err }
func (s stubScorer) Infos() []ensemble.BundleInfo                              { return nil }
func (s stubScorer) Importance(string) (map[string]float64, error)             { return nil, s.err }
func (s stubScorer) Mode() ensemble.ValidationMode                             { return ensemble.Strict }

var (
	registryOnce sync.Once
	registry     *ensemble.Registry
	registryErr  error
)

func testRegistry(t *testing.T) *ensemble.Registry {
	t.Helper()
	registryOnce.Do(func() {
		registry, registryErr = ensemble.NewRegistry(context.Background(), ensemble.TrainingConfig{
			Seed:    7,
			Samples: 600,
			Mode:    ensemble.Lenient,
		})
	})
	if registryErr != nil {
		t.Fatalf("train registry: %v", registryErr)
	}
	return registry
}

func newTestServer(t *testing.T, scorer Scorer, db HealthChecker) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{
		Scorer: scorer,
		Store:  store.NewMemoryStore(),
		DB:     db,
		Logger: zerolog.New(io.Discard),
		Opts:   Options{MaxBodyBytes: 1 << 20, Version: "test"},
	}
	return s, s.Router()
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func TestRouterHealthz(t *testing.T) {
	_, router := newTestServer(t, stubScorer{}, fakeDB{})

	w := do(router, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestRouterReadyz(t *testing.T) {
	cases := []struct {
		name   string
		db     HealthChecker
		status int
		want   string
	}{
		{"db disabled", nil, http.StatusOK, `"db":"disabled"`},
		{"db healthy", fakeDB{}, http.StatusOK, `"db":"ok"`},
		{"db down", fakeDB{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "connection refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, router := newTestServer(t, stubScorer{}, tc.db)
			w := do(router, http.MethodGet, "/readyz", "")
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if !strings.Contains(w.Body.String(), tc.want) {
				t.Fatalf("expected %s in body, got %s", tc.want, w.Body.String())
			}
		})
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	_, router := newTestServer(t, stubScorer{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := newTestServer(t, stubScorer{}, nil)
	do(router, http.MethodGet, "/healthz", "")
	w := do(router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("expected prometheus output, got %d", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	_, router := newTestServer(t, stubScorer{}, nil)
	w := do(router, http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), codeNotFound) {
		t.Fatalf("expected not_found, got %d %s", w.Code, w.Body.String())
	}
}

func TestRecoveryReturnsJSONError(t *testing.T) {
	_, router := newTestServer(t, stubScorer{}, nil)
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(router, http.MethodGet, "/boom", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body errorResponse
	decode(t, w, &body)
	if body.Error != codeInternal {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

// Ensure limitBodySize middleware allows small payloads and blocks large ones.
func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		_, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := do(router, http.MethodPost, "/echo", "12345")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := do(router, http.MethodPost, "/echo", "01234567890")
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}

func TestPredictRejectsOversizedBody(t *testing.T) {
	s, _ := newTestServer(t, stubScorer{}, nil)
	s.Opts.MaxBodyBytes = 64
	router := s.Router()

	body := `{"disease_type":"diabetes","parameters":{"notes":"` + strings.Repeat("x", 200) + `"}}`
	w := do(router, http.MethodPost, "/api/predict", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, stubScorer{}, nil)
	s.Opts.RateLimitRPS = 0.001
	s.Opts.RateLimitBurst = 2
	router := s.Router()

	for i := 0; i < 2; i++ {
		if w := do(router, http.MethodGet, "/api/", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := do(router, http.MethodGet, "/api/", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	// probes are outside the limited group
	if w := do(router, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("expected healthz to bypass rate limit, got %d", w.Code)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := newIPRateLimiter(1, 1)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.limiter("10.0.0.1")
	l.limiter("10.0.0.2")
	if n := l.size(); n != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", n)
	}

	// one client stays active, the other goes idle
	clock = clock.Add(limiterIdleTTL / 2)
	l.limiter("10.0.0.1")
	clock = clock.Add(limiterIdleTTL/2 + limiterSweepInterval)
	l.limiter("10.0.0.3")

	if n := l.size(); n != 2 {
		t.Fatalf("expected idle client to be evicted, got %d tracked", n)
	}
	l.mu.Lock()
	_, stale := l.clients["10.0.0.2"]
	_, active := l.clients["10.0.0.1"]
	l.mu.Unlock()
	if stale || !active {
		t.Fatalf("unexpected clients after sweep: stale=%v active=%v", stale, active)
	}
}

func TestRateLimiterKeepsBucketBetweenSweeps(t *testing.T) {
	l := newIPRateLimiter(0.001, 1)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	if !l.limiter("10.0.0.1").Allow() {
		t.Fatal("expected first request to pass")
	}
	clock = clock.Add(limiterSweepInterval)
	if l.limiter("10.0.0.1").Allow() {
		t.Fatal("expected active client to keep its exhausted bucket across a sweep")
	}
}
