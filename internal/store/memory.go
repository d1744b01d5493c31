package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. It backs the server when
// the database is disabled and is used in tests.
type MemoryStore struct {
	mu          sync.RWMutex
	predictions map[uuid.UUID]*Prediction
	order       []uuid.UUID
	metrics     []*HealthMetric
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{predictions: make(map[uuid.UUID]*Prediction)}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) SavePrediction(ctx context.Context, p *Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := clonePrediction(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.predictions[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.predictions[p.ID] = cp
	return nil
}

func (s *MemoryStore) GetPrediction(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.predictions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePrediction(p), nil
}

// ListPredictions returns the newest predictions first.
func (s *MemoryStore) ListPredictions(ctx context.Context, limit int) ([]*Prediction, error) {
	limit = ClampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Prediction, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, clonePrediction(s.predictions[s.order[i]]))
	}
	return out, nil
}

func (s *MemoryStore) SaveMetric(ctx context.Context, m *HealthMetric) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, &cp)
	return nil
}

// ListMetrics returns matching metrics, most recent first.
func (s *MemoryStore) ListMetrics(ctx context.Context, f MetricFilter) ([]*HealthMetric, error) {
	limit := ClampLimit(f.Limit)
	s.mu.RLock()
	var out []*HealthMetric
	for _, m := range s.metrics {
		if m.PatientID != f.PatientID {
			continue
		}
		if f.MetricType != "" && m.MetricType != f.MetricType {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// clonePrediction copies p including its maps, so callers never share
// state with the store.
func clonePrediction(p *Prediction) *Prediction {
	cp := *p
	cp.Parameters = maps.Clone(p.Parameters)
	cp.FeatureImportance = maps.Clone(p.FeatureImportance)
	cp.BaseScores = maps.Clone(p.BaseScores)
	if p.PatientProfile != nil {
		cp.PatientProfile = cloneValue(p.PatientProfile).(map[string]any)
	}
	return &cp
}

// cloneValue deep-copies decoded JSON.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
