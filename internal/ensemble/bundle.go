package ensemble

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Recipe is the composition of a disease bundle: base classifiers whose
// positive-class probabilities feed one meta-classifier.
type Recipe struct {
	Bases []ModelSpec
	Meta  ModelSpec
}

func rf(trees, depth int) ModelSpec {
	return ModelSpec{Kind: RandomForest, Estimators: trees, MaxDepth: depth, MinSamplesSplit: 5}
}

func gb(stages, depth int, rate, subsample float64) ModelSpec {
	return ModelSpec{Kind: GradientBoosting, Estimators: stages, MaxDepth: depth, MinSamplesSplit: 2, LearningRate: rate, Subsample: subsample}
}

func svm(c float64) ModelSpec { return ModelSpec{Kind: SVM, C: c} }

var (
	logitMeta = ModelSpec{Kind: LogisticRegression, C: 1}
	boostMeta = gb(40, 2, 0.1, 1)
)

// Recipes holds the bundle layout per disease.
var Recipes = map[Disease]Recipe{
	Diabetes:      {Bases: []ModelSpec{rf(50, 10), gb(60, 3, 0.1, 1)}, Meta: logitMeta},
	Heart:         {Bases: []ModelSpec{svm(1.0), rf(50, 12)}, Meta: boostMeta},
	Parkinson:     {Bases: []ModelSpec{gb(60, 4, 0.1, 0.8), rf(40, 15)}, Meta: logitMeta},
	Hypertension:  {Bases: []ModelSpec{rf(50, 10), gb(60, 3, 0.1, 1)}, Meta: logitMeta},
	CancerRisk:    {Bases: []ModelSpec{rf(50, 12), gb(60, 3, 0.1, 1)}, Meta: logitMeta},
	KidneyDisease: {Bases: []ModelSpec{svm(1.5), rf(50, 11)}, Meta: boostMeta},
	LiverDisease:  {Bases: []ModelSpec{gb(60, 3, 0.1, 1), rf(40, 10)}, Meta: logitMeta},
	Stroke:        {Bases: []ModelSpec{rf(50, 12), svm(1.2)}, Meta: boostMeta},
}

// Bundle is a trained, immutable ensemble for one disease.
type Bundle struct {
	schema     Schema
	scaler     scaler
	bases      []model
	meta       model
	importance map[string]float64
	info       BundleInfo
}

// BundleInfo summarizes how a bundle was built.
type BundleInfo struct {
	Disease         Disease       `json:"disease"`
	Bases           []Kind        `json:"base_models"`
	Meta            Kind          `json:"meta_model"`
	Samples         int           `json:"samples"`
	HoldoutAccuracy float64       `json:"holdout_accuracy"`
	TrainingTime    time.Duration `json:"training_time"`
}

const holdoutSplit = 0.8

// trainBundle generates the synthetic cohort for d, fits the base models on
// the leading 80% and the meta-model on base outputs for the remaining 20%.
func trainBundle(ctx context.Context, d Disease, cfg TrainingConfig) (*Bundle, error) {
	start := time.Now()
	schema, ok := LookupSchema(d)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDisease, d)
	}
	recipe, ok := Recipes[d]
	if !ok || len(recipe.Bases) == 0 {
		return nil, fmt.Errorf("no recipe for %s", d)
	}

	rng := rand.New(rand.NewSource(cfg.Seed + diseaseOffset(d)))
	raw := cohorts[d].generate(schema, cfg.Samples, rng)
	sc := fitScaler(raw.x)
	train, holdout := dataset{x: sc.transformAll(raw.x), y: raw.y}.split(holdoutSplit)
	if len(train.y) == 0 || len(holdout.y) == 0 {
		return nil, fmt.Errorf("%s: %d samples is too few to train", d, cfg.Samples)
	}

	b := &Bundle{schema: schema, scaler: sc}
	for _, spec := range recipe.Bases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := fitModel(spec, train.x, train.y, rng)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		b.bases = append(b.bases, m)
	}

	stacked := make([][]float64, len(holdout.x))
	for i, x := range holdout.x {
		stacked[i] = b.baseScores(x)
	}
	meta, err := fitModel(recipe.Meta, stacked, holdout.y, rng)
	if err != nil {
		return nil, fmt.Errorf("%s meta: %w", d, err)
	}
	b.meta = meta
	b.importance = b.combinedImportance()

	correct := 0
	for i, s := range stacked {
		if (b.meta.proba(s) >= 0.5) == (holdout.y[i] == 1) {
			correct++
		}
	}

	kinds := make([]Kind, len(b.bases))
	for i, m := range b.bases {
		kinds[i] = m.kind
	}
	b.info = BundleInfo{
		Disease:         d,
		Bases:           kinds,
		Meta:            meta.kind,
		Samples:         cfg.Samples,
		HoldoutAccuracy: float64(correct) / float64(len(stacked)),
		TrainingTime:    time.Since(start),
	}
	return b, nil
}

func diseaseOffset(d Disease) int64 {
	for i, x := range AllDiseases {
		if x == d {
			return int64(i)
		}
	}
	return 0
}

// baseScores runs every base model on a scaled row.
func (b *Bundle) baseScores(x []float64) []float64 {
	out := make([]float64, len(b.bases))
	for i, m := range b.bases {
		out[i] = m.proba(x)
	}
	return out
}

// predict scales a raw schema-ordered vector and returns the meta
// probability with the base scores that produced it.
func (b *Bundle) predict(raw []float64) (float64, []float64) {
	base := b.baseScores(b.scaler.transform(raw))
	p := b.meta.proba(base)
	if math.IsNaN(p) {
		p = 0.5
	}
	return math.Min(math.Max(p, 0), 1), base
}

// combinedImportance averages the normalized native importances of the
// base models. A bundle whose bases report nothing gets a uniform split.
func (b *Bundle) combinedImportance() map[string]float64 {
	n := len(b.schema.Features)
	sum := make([]float64, n)
	for _, m := range b.bases {
		for j, v := range m.importance {
			sum[j] += v
		}
	}
	if !normalize(sum) {
		for j := range sum {
			sum[j] = 1 / float64(n)
		}
	}
	out := make(map[string]float64, n)
	for j, name := range b.schema.Features {
		out[name] = sum[j]
	}
	return out
}

// Info describes how the bundle was trained.
func (b *Bundle) Info() BundleInfo {
	info := b.info
	info.Bases = append([]Kind(nil), b.info.Bases...)
	return info
}
