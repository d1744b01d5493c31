package ensemble

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// logistic is an L2-regularized logistic regression.
type logistic struct {
	coef      []float64
	intercept float64
}

// fitLogistic solves the penalized likelihood by Newton iterations
// (iteratively reweighted least squares). The intercept is not penalized.
func fitLogistic(x [][]float64, y []float64, c float64) *logistic {
	d := len(x[0])
	p := d + 1
	lambda := 1.0
	if c > 0 {
		lambda = 1 / c
	}

	beta := make([]float64, p)
	row := make([]float64, p)
	grad := make([]float64, p)
	hess := make([]float64, p*p)
	step := mat.NewVecDense(p, nil)

	for iter := 0; iter < 50; iter++ {
		for i := range grad {
			grad[i] = 0
		}
		for i := range hess {
			hess[i] = 0
		}
		for i, xi := range x {
			copy(row, xi)
			row[d] = 1
			mu := sigmoid(floats.Dot(beta, row))
			w := mu * (1 - mu)
			floats.AddScaled(grad, mu-y[i], row)
			for a := 0; a < p; a++ {
				for b := a; b < p; b++ {
					hess[a*p+b] += w * row[a] * row[b]
				}
			}
		}
		for a := 0; a < p; a++ {
			for b := 0; b < a; b++ {
				hess[a*p+b] = hess[b*p+a]
			}
		}
		for j := 0; j < d; j++ {
			grad[j] += lambda * beta[j]
			hess[j*p+j] += lambda
		}
		hess[d*p+d] += 1e-8

		var chol mat.Cholesky
		if ok := chol.Factorize(mat.NewSymDense(p, hess)); !ok {
			break
		}
		if err := chol.SolveVecTo(step, mat.NewVecDense(p, grad)); err != nil {
			break
		}
		maxStep := 0.0
		for j := 0; j < p; j++ {
			s := step.AtVec(j)
			beta[j] -= s
			maxStep = math.Max(maxStep, math.Abs(s))
		}
		if maxStep < 1e-8 {
			break
		}
	}

	return &logistic{coef: beta[:d], intercept: beta[d]}
}

func (l *logistic) decision(x []float64) float64 {
	return floats.Dot(l.coef, x) + l.intercept
}

func (l *logistic) proba(x []float64) float64 {
	return sigmoid(l.decision(x))
}

func (l *logistic) importance() []float64 {
	return absNormalized(l.coef)
}

// linearSVM is a soft-margin linear SVM trained by stochastic subgradient
// descent on the hinge loss, with Platt scaling for probabilities.
type linearSVM struct {
	w     []float64
	b     float64
	platt *logistic
}

const (
	svmEpochs = 20
	svmRate   = 0.01
)

func fitSVM(x [][]float64, y []float64, spec ModelSpec, rng *rand.Rand) *linearSVM {
	n, d := len(x), len(x[0])
	c := spec.C
	if c <= 0 {
		c = 1
	}
	lambda := 1 / (c * float64(n))

	s := &linearSVM{w: make([]float64, d)}
	for epoch := 0; epoch < svmEpochs; epoch++ {
		for _, i := range rng.Perm(n) {
			label := 2*y[i] - 1
			margin := label * s.margin(x[i])
			floats.Scale(1-svmRate*lambda, s.w)
			if margin < 1 {
				floats.AddScaled(s.w, svmRate*label, x[i])
				s.b += svmRate * label
			}
		}
	}

	decisions := make([][]float64, n)
	for i, xi := range x {
		decisions[i] = []float64{s.margin(xi)}
	}
	s.platt = fitLogistic(decisions, y, 1)
	return s
}

func (s *linearSVM) margin(x []float64) float64 {
	return floats.Dot(s.w, x) + s.b
}

func (s *linearSVM) proba(x []float64) float64 {
	return s.platt.proba([]float64{s.margin(x)})
}

func (s *linearSVM) importance() []float64 {
	return absNormalized(s.w)
}

func absNormalized(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	normalize(out)
	return out
}
