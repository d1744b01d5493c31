package ensemble

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// TrainingConfig controls how bundles are built at startup.
type TrainingConfig struct {
	Seed    int64
	Samples int
	Mode    ValidationMode
}

// DefaultTrainingConfig returns the settings used when nothing is configured.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{Seed: 42, Samples: 3000, Mode: Lenient}
}

// Registry holds one trained bundle per disease. It is built once and
// never mutated afterwards, so Score is safe for concurrent use.
type Registry struct {
	bundles map[Disease]*Bundle
	mode    ValidationMode
	now     func() time.Time
}

// NewRegistry trains every bundle concurrently. Each bundle draws from its
// own seeded source, so the result does not depend on scheduling.
func NewRegistry(ctx context.Context, cfg TrainingConfig) (*Registry, error) {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultTrainingConfig().Samples
	}
	if cfg.Mode == "" {
		cfg.Mode = Lenient
	}

	trained := make([]*Bundle, len(AllDiseases))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range AllDiseases {
		i, d := i, d
		g.Go(func() error {
			b, err := trainBundle(gctx, d, cfg)
			if err != nil {
				return fmt.Errorf("train %s: %w", d, err)
			}
			trained[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Registry{
		bundles: make(map[Disease]*Bundle, len(trained)),
		mode:    cfg.Mode,
		now:     time.Now,
	}
	for i, d := range AllDiseases {
		r.bundles[d] = trained[i]
	}
	return r, nil
}

// Mode reports the active validation mode.
func (r *Registry) Mode() ValidationMode { return r.mode }

// Diseases lists the categories the registry can score.
func (r *Registry) Diseases() []Disease {
	out := make([]Disease, 0, len(r.bundles))
	for _, d := range AllDiseases {
		if _, ok := r.bundles[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Bundle returns the trained bundle for a disease name.
func (r *Registry) Bundle(disease string) (*Bundle, error) {
	d, err := ParseDisease(disease)
	if err != nil {
		return nil, err
	}
	b, ok := r.bundles[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDisease, disease)
	}
	return b, nil
}

// Importance returns a copy of the bundle's feature importance.
func (r *Registry) Importance(disease string) (map[string]float64, error) {
	b, err := r.Bundle(disease)
	if err != nil {
		return nil, err
	}
	return copyMap(b.importance), nil
}

// Score runs the ensemble for disease on features.
func (r *Registry) Score(disease string, features FeatureVector) (*Result, error) {
	b, err := r.Bundle(disease)
	if err != nil {
		return nil, err
	}
	for name, v := range features {
		if !isFinite(v) {
			return nil, &MalformedFeatureError{Feature: name, Value: v}
		}
	}
	if r.mode.requiresAll() {
		if missing := missingRequired(b.schema, features); len(missing) > 0 {
			return nil, &MissingFeatureError{Disease: b.schema.Disease, Features: missing}
		}
	}

	p, base := b.predict(vectorize(b.schema, features, r.mode == Defaults))

	label := Negative
	if p >= DecisionThreshold {
		label = Positive
	}
	scores := make(map[Kind]float64, len(base))
	for i, m := range b.bases {
		scores[m.kind] = base[i]
	}

	return &Result{
		Disease:           b.schema.Disease,
		Prediction:        label,
		Confidence:        p,
		RiskLevel:         RiskLevelFor(p),
		FeatureImportance: copyMap(b.importance),
		Parameters:        copyMap(features),
		BaseScores:        scores,
		ModelUsed:         "ensemble",
		Timestamp:         r.now().UTC(),
	}, nil
}

// ScoreRaw coerces loosely typed input before scoring.
func (r *Registry) ScoreRaw(disease string, raw map[string]any) (*Result, error) {
	if _, err := r.Bundle(disease); err != nil {
		return nil, err
	}
	fv, err := Coerce(raw)
	if err != nil {
		return nil, err
	}
	return r.Score(disease, fv)
}

// Infos returns training summaries for every bundle.
func (r *Registry) Infos() []BundleInfo {
	out := make([]BundleInfo, 0, len(r.bundles))
	for _, d := range r.Diseases() {
		out = append(out, r.bundles[d].Info())
	}
	return out
}

func copyMap[M ~map[string]float64](m M) M {
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
