package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ObserveFunc receives the duration of each store operation.
type ObserveFunc func(operation string, d time.Duration)

type instrumented struct {
	next    Store
	observe ObserveFunc
}

// Instrument wraps s so every call is timed through observe.
func Instrument(s Store, observe ObserveFunc) Store {
	return &instrumented{next: s, observe: observe}
}

func (s *instrumented) track(op string) func() {
	start := time.Now()
	return func() { s.observe(op, time.Since(start)) }
}

func (s *instrumented) Ping(ctx context.Context) error {
	defer s.track("ping")()
	return s.next.Ping(ctx)
}

func (s *instrumented) SavePrediction(ctx context.Context, p *Prediction) error {
	defer s.track("save_prediction")()
	return s.next.SavePrediction(ctx, p)
}

func (s *instrumented) GetPrediction(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	defer s.track("get_prediction")()
	return s.next.GetPrediction(ctx, id)
}

func (s *instrumented) ListPredictions(ctx context.Context, limit int) ([]*Prediction, error) {
	defer s.track("list_predictions")()
	return s.next.ListPredictions(ctx, limit)
}

func (s *instrumented) SaveMetric(ctx context.Context, m *HealthMetric) error {
	defer s.track("save_metric")()
	return s.next.SaveMetric(ctx, m)
}

func (s *instrumented) ListMetrics(ctx context.Context, f MetricFilter) ([]*HealthMetric, error) {
	defer s.track("list_metrics")()
	return s.next.ListMetrics(ctx, f)
}
