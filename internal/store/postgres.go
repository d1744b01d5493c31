package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riskcare/risk-server/internal/ensemble"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists records with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

// NewPool parses url, applies connection limits and pings the database.
func NewPool(ctx context.Context, url string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const predictionCols = `id, disease_type, prediction, confidence, risk_level, parameters,
	feature_importance, base_scores, patient_profile, model_used, created_at`

func (s *PostgresStore) SavePrediction(ctx context.Context, p *Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	params, err := json.Marshal(p.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	importance, err := json.Marshal(p.FeatureImportance)
	if err != nil {
		return fmt.Errorf("encode feature importance: %w", err)
	}
	base, err := json.Marshal(p.BaseScores)
	if err != nil {
		return fmt.Errorf("encode base scores: %w", err)
	}
	var profile []byte
	if len(p.PatientProfile) > 0 {
		if profile, err = json.Marshal(p.PatientProfile); err != nil {
			return fmt.Errorf("encode patient profile: %w", err)
		}
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO predictions (`+predictionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, string(p.Disease), string(p.Prediction), p.Confidence, string(p.RiskLevel),
		params, importance, base, profile, p.ModelUsed, p.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPrediction(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	p, err := scanPrediction(s.db.QueryRow(ctx, `SELECT `+predictionCols+` FROM predictions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPredictions(ctx context.Context, limit int) ([]*Prediction, error) {
	rows, err := s.db.Query(ctx, `SELECT `+predictionCols+` FROM predictions ORDER BY created_at DESC LIMIT $1`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []*Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrediction(row pgx.Row) (*Prediction, error) {
	var (
		p                                 Prediction
		disease, label, risk              string
		params, importance, base, profile []byte
	)
	err := row.Scan(
		&p.ID, &disease, &label, &p.Confidence, &risk, &params,
		&importance, &base, &profile, &p.ModelUsed, &p.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	p.Disease = ensemble.Disease(disease)
	p.Prediction = ensemble.Label(label)
	p.RiskLevel = ensemble.RiskLevel(risk)
	p.Timestamp = p.Timestamp.UTC()

	if err := json.Unmarshal(params, &p.Parameters); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	if err := json.Unmarshal(importance, &p.FeatureImportance); err != nil {
		return nil, fmt.Errorf("decode feature importance: %w", err)
	}
	if err := json.Unmarshal(base, &p.BaseScores); err != nil {
		return nil, fmt.Errorf("decode base scores: %w", err)
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &p.PatientProfile); err != nil {
			return nil, fmt.Errorf("decode patient profile: %w", err)
		}
	}
	return &p, nil
}

func (s *PostgresStore) SaveMetric(ctx context.Context, m *HealthMetric) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO health_metrics (id, patient_id, metric_type, value, unit, notes, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.PatientID, m.MetricType, m.Value, m.Unit, m.Notes, m.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert health metric: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMetrics(ctx context.Context, f MetricFilter) ([]*HealthMetric, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, patient_id, metric_type, value, unit, notes, recorded_at
		FROM health_metrics
		WHERE patient_id = $1 AND ($2::text = '' OR metric_type = $2::text)
		ORDER BY recorded_at DESC
		LIMIT $3`,
		f.PatientID, f.MetricType, ClampLimit(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list health metrics: %w", err)
	}
	defer rows.Close()

	var out []*HealthMetric
	for rows.Next() {
		var m HealthMetric
		if err := rows.Scan(&m.ID, &m.PatientID, &m.MetricType, &m.Value, &m.Unit, &m.Notes, &m.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan health metric: %w", err)
		}
		m.RecordedAt = m.RecordedAt.UTC()
		out = append(out, &m)
	}
	return out, rows.Err()
}
