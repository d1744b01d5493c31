package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/riskcare/risk-server/internal/ensemble"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Prediction is a scored request as persisted.
type Prediction struct {
	ID             uuid.UUID      `json:"id"`
	PatientProfile map[string]any `json:"patient_profile,omitempty"`
	ensemble.Result
}

// HealthMetric is one patient-reported measurement.
type HealthMetric struct {
	ID         uuid.UUID `json:"id"`
	PatientID  string    `json:"patient_id"`
	MetricType string    `json:"metric_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"timestamp"`
}

// MetricFilter narrows ListMetrics; empty MetricType matches all types.
type MetricFilter struct {
	PatientID  string
	MetricType string
	Limit      int
}

// Store persists predictions and health metrics.
type Store interface {
	Ping(ctx context.Context) error
	SavePrediction(ctx context.Context, p *Prediction) error
	GetPrediction(ctx context.Context, id uuid.UUID) (*Prediction, error)
	ListPredictions(ctx context.Context, limit int) ([]*Prediction, error)
	SaveMetric(ctx context.Context, m *HealthMetric) error
	ListMetrics(ctx context.Context, f MetricFilter) ([]*HealthMetric, error)
}

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ClampLimit bounds a caller-supplied page size.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
