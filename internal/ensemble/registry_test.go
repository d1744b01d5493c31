package ensemble

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sharedOnce     sync.Once
	sharedRegistry *Registry
	sharedErr      error
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	sharedOnce.Do(func() {
		sharedRegistry, sharedErr = NewRegistry(context.Background(), DefaultTrainingConfig())
	})
	require.NoError(t, sharedErr)
	return sharedRegistry
}

// typical returns a vector at the centre of the synthetic cohort.
func typical(d Disease) FeatureVector {
	s, _ := LookupSchema(d)
	fv := make(FeatureVector, len(s.Features))
	for _, f := range s.Features {
		fv[f] = cohorts[d].dists[f].a
	}
	return fv
}

func TestScoreAllDiseasesFullyPopulated(t *testing.T) {
	r := testRegistry(t)
	require.Len(t, r.Diseases(), len(AllDiseases))

	for _, d := range AllDiseases {
		t.Run(string(d), func(t *testing.T) {
			res, err := r.Score(string(d), typical(d))
			require.NoError(t, err)
			assert.Equal(t, d, res.Disease)
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
			assert.Equal(t, RiskLevelFor(res.Confidence), res.RiskLevel)
			assert.Equal(t, "ensemble", res.ModelUsed)
			assert.Len(t, res.BaseScores, len(Recipes[d].Bases))
		})
	}
}

func TestConfidenceWithinUnitInterval(t *testing.T) {
	r := testRegistry(t)
	rng := rand.New(rand.NewSource(7))

	for _, d := range AllDiseases {
		s, _ := LookupSchema(d)
		for i := 0; i < 50; i++ {
			fv := make(FeatureVector, len(s.Features))
			for _, f := range s.Features {
				// include values far outside the training range
				fv[f] = (rng.Float64() - 0.5) * math.Pow(10, float64(rng.Intn(7)))
			}
			res, err := r.Score(string(d), fv)
			require.NoError(t, err)
			require.False(t, math.IsNaN(res.Confidence))
			require.GreaterOrEqual(t, res.Confidence, 0.0)
			require.LessOrEqual(t, res.Confidence, 1.0)
			require.Equal(t, res.Confidence >= 0.5, res.Prediction == Positive)
		}
	}
}

func TestRiskLevelMonotonic(t *testing.T) {
	prev := RiskLevelFor(0).Rank()
	for p := 0.0; p <= 1.0; p += 0.0005 {
		rank := RiskLevelFor(p).Rank()
		require.GreaterOrEqual(t, rank, prev, "risk level dropped at p=%v", p)
		prev = rank
	}

	assert.Equal(t, VeryLow, RiskLevelFor(0.2499))
	assert.Equal(t, Low, RiskLevelFor(0.25))
	assert.Equal(t, Medium, RiskLevelFor(0.5))
	assert.Equal(t, High, RiskLevelFor(0.75))
	assert.Equal(t, High, RiskLevelFor(1))
}

func TestFeatureImportanceNormalizedAndStable(t *testing.T) {
	r := testRegistry(t)

	for _, d := range AllDiseases {
		s, _ := LookupSchema(d)
		first, err := r.Score(string(d), typical(d))
		require.NoError(t, err)

		sum := 0.0
		for _, f := range s.Features {
			v, ok := first.FeatureImportance[f]
			require.True(t, ok, "%s: missing importance for %s", d, f)
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "%s importance sum", d)

		second, err := r.Score(string(d), FeatureVector{"age": 99})
		require.NoError(t, err)
		assert.Equal(t, first.FeatureImportance, second.FeatureImportance)
	}
}

func TestImportanceIsNotSharedWithCallers(t *testing.T) {
	r := testRegistry(t)
	res, err := r.Score("diabetes", typical(Diabetes))
	require.NoError(t, err)

	res.FeatureImportance["glucose"] = 42
	again, err := r.Importance("diabetes")
	require.NoError(t, err)
	assert.NotEqual(t, 42.0, again["glucose"])
}

func TestScoreDeterministic(t *testing.T) {
	r := testRegistry(t)
	fv := FeatureVector{"glucose": 150, "bmi": 29, "age": 48, "blood_pressure": 82}

	a, err := r.Score("diabetes", fv)
	require.NoError(t, err)
	b, err := r.Score("diabetes", fv)
	require.NoError(t, err)
	assert.Equal(t, a.Prediction, b.Prediction)
	assert.Equal(t, math.Float64bits(a.Confidence), math.Float64bits(b.Confidence))
}

func TestTrainingDeterministic(t *testing.T) {
	cfg := TrainingConfig{Seed: 42, Samples: 800}
	a, err := trainBundle(context.Background(), Heart, cfg)
	require.NoError(t, err)
	b, err := trainBundle(context.Background(), Heart, cfg)
	require.NoError(t, err)

	x := vectorize(a.schema, typical(Heart), false)
	pa, _ := a.predict(x)
	pb, _ := b.predict(x)
	assert.Equal(t, math.Float64bits(pa), math.Float64bits(pb))
	assert.Equal(t, a.importance, b.importance)
}

func TestDiabetesHighRiskScenario(t *testing.T) {
	r := testRegistry(t)
	res, err := r.Score("diabetes", FeatureVector{"glucose": 180, "bmi": 32, "age": 55, "blood_pressure": 90})
	require.NoError(t, err)

	assert.Equal(t, Positive, res.Prediction)
	assert.GreaterOrEqual(t, res.Confidence, 0.5)
	assert.Contains(t, []RiskLevel{Medium, High}, res.RiskLevel)
	assert.Equal(t, 180.0, res.Parameters["glucose"])
}

func TestDiabetesLowRiskScenario(t *testing.T) {
	r := testRegistry(t)
	res, err := r.Score("diabetes", FeatureVector{"glucose": 85, "bmi": 21, "age": 25, "blood_pressure": 70})
	require.NoError(t, err)

	assert.Equal(t, Negative, res.Prediction)
	assert.Contains(t, []RiskLevel{Low, VeryLow}, res.RiskLevel)
}

func TestUnknownDisease(t *testing.T) {
	r := testRegistry(t)
	_, err := r.Score("unknown_disease_xyz", FeatureVector{"age": 40})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDisease))
	assert.True(t, IsClientError(err))
}

func TestDiseaseNameNormalized(t *testing.T) {
	r := testRegistry(t)
	res, err := r.Score("  Diabetes ", typical(Diabetes))
	require.NoError(t, err)
	assert.Equal(t, Diabetes, res.Disease)
}

func TestHeartMissingHeartRateIsZeroFilled(t *testing.T) {
	r := testRegistry(t)
	without := FeatureVector{"age": 60, "cholesterol": 260, "blood_pressure": 145}
	with := FeatureVector{"age": 60, "cholesterol": 260, "blood_pressure": 145, "heart_rate": 0}

	a, err := r.Score("heart", without)
	require.NoError(t, err)
	b, err := r.Score("heart", with)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(b.Confidence), math.Float64bits(a.Confidence))
	_, echoed := a.Parameters["heart_rate"]
	assert.False(t, echoed)
}

func TestStrictModeRejectsMissingRequired(t *testing.T) {
	shared := testRegistry(t)
	strict := &Registry{bundles: shared.bundles, mode: Strict, now: time.Now}

	_, err := strict.Score("heart", FeatureVector{"age": 60, "cholesterol": 260, "blood_pressure": 145})
	var missing *MissingFeatureError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"heart_rate"}, missing.Features)
	assert.True(t, IsClientError(err))

	// optional features may still be absent
	_, err = strict.Score("heart", FeatureVector{"age": 60, "cholesterol": 260, "blood_pressure": 145, "heart_rate": 70})
	require.NoError(t, err)
}

func requiredOnly(d Disease) FeatureVector {
	s, _ := LookupSchema(d)
	full := typical(d)
	fv := make(FeatureVector, len(s.Required))
	for _, f := range s.Required {
		fv[f] = full[f]
	}
	return fv
}

func TestDefaultsModeFillsOptionalFeatures(t *testing.T) {
	shared := testRegistry(t)
	filled := &Registry{bundles: shared.bundles, mode: Defaults, now: time.Now}

	for _, d := range []Disease{Heart, KidneyDisease} {
		t.Run(string(d), func(t *testing.T) {
			full, err := shared.Score(string(d), typical(d))
			require.NoError(t, err)
			zeroed, err := shared.Score(string(d), requiredOnly(d))
			require.NoError(t, err)
			got, err := filled.Score(string(d), requiredOnly(d))
			require.NoError(t, err)

			assert.InDelta(t, full.Confidence, got.Confidence, 0.25)
			assert.Less(t, math.Abs(got.Confidence-full.Confidence), math.Abs(zeroed.Confidence-full.Confidence))
			assert.Len(t, got.Parameters, len(requiredOnly(d)))
		})
	}

	// kidney defaults sit at the cohort centre
	full, err := shared.Score("kidney_disease", typical(KidneyDisease))
	require.NoError(t, err)
	got, err := filled.Score("kidney_disease", requiredOnly(KidneyDisease))
	require.NoError(t, err)
	assert.InDelta(t, full.Confidence, got.Confidence, 1e-12)
}

func TestDefaultsModeMatchesExplicitDefaults(t *testing.T) {
	shared := testRegistry(t)
	filled := &Registry{bundles: shared.bundles, mode: Defaults, now: time.Now}

	s, _ := LookupSchema(Heart)
	explicit := requiredOnly(Heart)
	for f, v := range s.Defaults {
		explicit[f] = v
	}
	a, err := filled.Score("heart", requiredOnly(Heart))
	require.NoError(t, err)
	b, err := shared.Score("heart", explicit)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(b.Confidence), math.Float64bits(a.Confidence))

	// a supplied optional value wins over the default
	withHR := requiredOnly(Heart)
	withHR["max_hr"] = 100
	c, err := filled.Score("heart", withHR)
	require.NoError(t, err)
	explicit["max_hr"] = 100
	e, err := shared.Score("heart", explicit)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(e.Confidence), math.Float64bits(c.Confidence))
}

func TestDefaultsModeRejectsMissingRequired(t *testing.T) {
	shared := testRegistry(t)
	filled := &Registry{bundles: shared.bundles, mode: Defaults, now: time.Now}

	_, err := filled.Score("kidney_disease", FeatureVector{"age": 60, "blood_pressure_high": 1, "blood_glucose_random": 150})
	var missing *MissingFeatureError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"serum_creatinine"}, missing.Features)
}

func TestScoreRejectsNonFinite(t *testing.T) {
	r := testRegistry(t)
	_, err := r.Score("stroke", FeatureVector{"age": math.Inf(1)})
	var malformed *MalformedFeatureError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "age", malformed.Feature)
}

func TestScoreRaw(t *testing.T) {
	r := testRegistry(t)

	res, err := r.ScoreRaw("diabetes", map[string]any{"glucose": "180", "BMI": 32.0, "age": 55, "blood_pressure": 90.0, "insulin": ""})
	require.NoError(t, err)
	assert.Equal(t, 180.0, res.Parameters["glucose"])
	assert.Equal(t, 32.0, res.Parameters["bmi"])
	assert.NotContains(t, res.Parameters, "insulin")

	_, err = r.ScoreRaw("diabetes", map[string]any{"glucose": "high"})
	var malformed *MalformedFeatureError
	require.ErrorAs(t, err, &malformed)

	_, err = r.ScoreRaw("nope", map[string]any{"glucose": "high"})
	assert.ErrorIs(t, err, ErrUnknownDisease)
}

func TestConcurrentScoring(t *testing.T) {
	r := testRegistry(t)
	want, err := r.Score("kidney_disease", typical(KidneyDisease))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Score("kidney_disease", typical(KidneyDisease))
			if err != nil {
				errs <- err
				return
			}
			if got.Confidence != want.Confidence {
				errs <- errors.New("confidence differs across goroutines")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestBundleInfos(t *testing.T) {
	r := testRegistry(t)
	infos := r.Infos()
	require.Len(t, infos, len(AllDiseases))
	for _, info := range infos {
		assert.Equal(t, DefaultTrainingConfig().Samples, info.Samples)
		assert.Equal(t, Recipes[info.Disease].Meta.Kind, info.Meta)
		// the synthetic labels are learnable well above chance
		assert.Greater(t, info.HoldoutAccuracy, 0.7, "%s holdout accuracy", info.Disease)
	}
}

func TestNewRegistryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRegistry(ctx, TrainingConfig{Seed: 1, Samples: 500})
	assert.ErrorIs(t, err, context.Canceled)
}
