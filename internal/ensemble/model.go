package ensemble

import (
	"fmt"
	"math/rand"
)

// Kind tags a classifier family.
type Kind string

const (
	RandomForest       Kind = "random_forest"
	GradientBoosting   Kind = "gradient_boosting"
	SVM                Kind = "svm"
	LogisticRegression Kind = "logistic_regression"
)

// ModelSpec carries the hyperparameters of one classifier. Fields that do
// not apply to Kind are ignored.
type ModelSpec struct {
	Kind            Kind
	Estimators      int
	MaxDepth        int
	MinSamplesSplit int
	LearningRate    float64
	Subsample       float64
	C               float64
}

// model is a fitted classifier of exactly one Kind.
type model struct {
	kind       Kind
	forest     *forest
	boosted    *boosted
	svm        *linearSVM
	logistic   *logistic
	importance []float64
}

func fitModel(spec ModelSpec, x [][]float64, y []float64, rng *rand.Rand) (model, error) {
	if len(x) == 0 {
		return model{}, fmt.Errorf("fit %s: empty training set", spec.Kind)
	}
	m := model{kind: spec.Kind}
	switch spec.Kind {
	case RandomForest:
		m.forest, m.importance = fitForest(x, y, spec, rng)
	case GradientBoosting:
		m.boosted, m.importance = fitBoosted(x, y, spec, rng)
	case SVM:
		m.svm = fitSVM(x, y, spec, rng)
		m.importance = m.svm.importance()
	case LogisticRegression:
		m.logistic = fitLogistic(x, y, spec.C)
		m.importance = m.logistic.importance()
	default:
		return model{}, fmt.Errorf("unsupported model kind %q", spec.Kind)
	}
	return m, nil
}

// proba returns P(positive | x).
func (m model) proba(x []float64) float64 {
	switch m.kind {
	case RandomForest:
		return m.forest.proba(x)
	case GradientBoosting:
		return m.boosted.proba(x)
	case SVM:
		return m.svm.proba(x)
	default:
		return m.logistic.proba(x)
	}
}
