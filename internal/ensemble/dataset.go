package ensemble

import (
	"math"
	"math/rand"
)

type distKind int

const (
	normal distKind = iota
	poisson
	bernoulli
	uniformInt
)

// dist draws one synthetic feature column.
type dist struct {
	kind distKind
	a, b float64
}

func norm(mean, sd float64) dist { return dist{kind: normal, a: mean, b: sd} }
func pois(lambda float64) dist { return dist{kind: poisson, a: lambda} }
func bern(p float64) dist { return dist{kind: bernoulli, a: p} }
func uniInt(n int) dist { return dist{kind: uniformInt, a: float64(n)} }

func (d dist) sample(rng *rand.Rand) float64 {
	switch d.kind {
	case poisson:
		// Knuth; lambdas here are small
		l := math.Exp(-d.a)
		k, p := 0.0, 1.0
		for {
			p *= rng.Float64()
			if p <= l {
				return k
			}
			k++
		}
	case bernoulli:
		if rng.Float64() < d.a {
			return 1
		}
		return 0
	case uniformInt:
		return float64(rng.Intn(int(d.a)))
	default:
		return rng.NormFloat64()*d.b + d.a
	}
}

type cmp int

const (
	gt cmp = iota
	lt
	eq
)

// rule adds weight to the latent risk score when the feature satisfies op.
type rule struct {
	feature   string
	op        cmp
	threshold float64
	weight    float64
}

func (r rule) hit(v float64) bool {
	switch r.op {
	case lt:
		return v < r.threshold
	case eq:
		return v == r.threshold
	default:
		return v > r.threshold
	}
}

// cohort describes how a disease's synthetic population is generated and labeled.
type cohort struct {
	dists map[string]dist
	rules []rule
	noise float64
}

type dataset struct {
	x [][]float64
	y []float64
}

func (c cohort) generate(s Schema, n int, rng *rand.Rand) dataset {
	idx := make(map[string]int, len(s.Features))
	for i, f := range s.Features {
		idx[f] = i
	}

	ds := dataset{x: make([][]float64, n), y: make([]float64, n)}
	for i := 0; i < n; i++ {
		row := make([]float64, len(s.Features))
		for j, f := range s.Features {
			row[j] = c.dists[f].sample(rng)
		}
		score := 0.0
		for _, r := range c.rules {
			if r.hit(row[idx[r.feature]]) {
				score += r.weight
			}
		}
		if score+rng.NormFloat64()*c.noise > 0.5 {
			ds.y[i] = 1
		}
		ds.x[i] = row
	}
	return ds
}

func (d dataset) split(frac float64) (dataset, dataset) {
	cut := int(float64(len(d.y)) * frac)
	return dataset{x: d.x[:cut], y: d.y[:cut]}, dataset{x: d.x[cut:], y: d.y[cut:]}
}

var cohorts = map[Disease]cohort{
	Diabetes: {
		dists: map[string]dist{
			"glucose": norm(120, 40), "bmi": norm(32, 8), "age": norm(45, 15), "blood_pressure": norm(70, 15),
			"pregnancies": pois(3), "skin_thickness": norm(20, 10), "insulin": norm(80, 100), "diabetes_pedigree": norm(0.5, 0.3),
		},
		rules: []rule{
			{"glucose", gt, 140, 0.30}, {"bmi", gt, 30, 0.20}, {"age", gt, 45, 0.15},
			{"blood_pressure", gt, 80, 0.15}, {"diabetes_pedigree", gt, 0.8, 0.20},
		},
		noise: 0.10,
	},
	Heart: {
		dists: map[string]dist{
			"age": norm(54, 9), "cholesterol": norm(246, 51), "blood_pressure": norm(131, 17), "heart_rate": norm(75, 12),
			"max_hr": norm(149, 23), "exercise_induced_angina": bern(0.33), "oldpeak": norm(1.0, 1.2), "ca": pois(1), "thal": uniInt(3),
		},
		rules: []rule{
			{"age", gt, 55, 0.18}, {"cholesterol", gt, 240, 0.22}, {"blood_pressure", gt, 140, 0.20},
			{"max_hr", lt, 140, 0.15}, {"exercise_induced_angina", eq, 1, 0.10}, {"oldpeak", gt, 2, 0.10}, {"ca", gt, 0, 0.05},
		},
		noise: 0.15,
	},
	Parkinson: {
		dists: map[string]dist{
			"age": norm(65, 12), "tremor_score": norm(5, 4), "motor_score": norm(20, 15), "voice_variation": norm(3, 2),
			"jitter": norm(0.007, 0.004), "shimmer": norm(0.03, 0.02), "nhr": norm(0.02, 0.01), "hnr": norm(22, 8),
			"rpde": norm(0.5, 0.2), "d2": norm(2.5, 1.0), "ppe": norm(0.2, 0.1),
		},
		rules: []rule{
			{"age", gt, 60, 0.15}, {"tremor_score", gt, 7, 0.20}, {"motor_score", gt, 25, 0.18}, {"voice_variation", lt, 2, 0.15},
			{"jitter", gt, 0.01, 0.12}, {"shimmer", gt, 0.04, 0.10}, {"ppe", gt, 0.25, 0.10},
		},
		noise: 0.12,
	},
	Hypertension: {
		dists: map[string]dist{
			"age": norm(52, 15), "bmi": norm(27, 5), "systolic_bp": norm(135, 25), "diastolic_bp": norm(85, 12),
			"cholesterol": norm(240, 50), "fasting_blood_sugar": norm(100, 25), "family_history": bern(0.25),
			"smoking": bern(0.15), "alcohol": bern(0.20),
		},
		rules: []rule{
			{"age", gt, 50, 0.15}, {"bmi", gt, 25, 0.12}, {"systolic_bp", gt, 140, 0.25}, {"diastolic_bp", gt, 90, 0.20},
			{"cholesterol", gt, 240, 0.10}, {"fasting_blood_sugar", gt, 100, 0.08}, {"family_history", eq, 1, 0.05},
			{"smoking", eq, 1, 0.03}, {"alcohol", eq, 1, 0.02},
		},
		noise: 0.12,
	},
	CancerRisk: {
		dists: map[string]dist{
			"age": norm(55, 18), "family_history": bern(0.20), "smoking": bern(0.15), "alcohol": bern(0.10),
			"bmi": norm(28, 7), "physical_activity": norm(100, 30), "radiation_exposure": bern(0.12),
			"chemical_exposure": bern(0.08), "years_of_exposure": norm(5, 3),
		},
		rules: []rule{
			{"age", gt, 60, 0.18}, {"family_history", eq, 1, 0.20}, {"smoking", eq, 1, 0.15}, {"alcohol", eq, 1, 0.10},
			{"bmi", gt, 30, 0.12}, {"physical_activity", lt, 60, 0.10}, {"radiation_exposure", eq, 1, 0.08},
			{"chemical_exposure", eq, 1, 0.05}, {"years_of_exposure", gt, 10, 0.02},
		},
		noise: 0.15,
	},
	KidneyDisease: {
		dists: map[string]dist{
			"age": norm(55, 18), "blood_pressure_high": norm(0.5, 0.3), "blood_glucose_random": norm(130, 50),
			"specific_gravity": norm(1.02, 0.02), "albumin": norm(0, 20), "sugar": norm(0, 20), "blood_urea": norm(138, 8),
			"serum_creatinine": norm(2.5, 2.0), "sodium": norm(140, 35), "potassium": norm(4.5, 1.2),
			"hemoglobin": norm(13.5, 4.5), "packed_cell_volume": norm(15000, 5000),
		},
		rules: []rule{
			{"age", gt, 55, 0.12}, {"blood_pressure_high", gt, 1, 0.15}, {"blood_glucose_random", gt, 180, 0.12},
			{"specific_gravity", lt, 1.01, 0.10}, {"albumin", gt, 0, 0.10}, {"sugar", gt, 0, 0.08},
			{"serum_creatinine", gt, 4, 0.15}, {"hemoglobin", lt, 11, 0.10}, {"packed_cell_volume", lt, 12000, 0.08},
		},
		noise: 0.12,
	},
	LiverDisease: {
		dists: map[string]dist{
			"age": norm(45, 15), "gender": bern(0.55), "total_bilirubin": norm(4.5, 3.5), "direct_bilirubin": norm(1.5, 2.5),
			"alkaline_phosphatase": norm(220, 100), "alamine_aminotransferase": norm(120, 80),
			"aspartate_aminotransferase": norm(110, 75), "total_protiens": norm(3.5, 2.0), "albumin": norm(2.5, 1.5),
			"albumin_globulin_ratio": norm(1.0, 0.8),
		},
		rules: []rule{
			{"age", gt, 45, 0.10}, {"total_bilirubin", gt, 3, 0.18}, {"direct_bilirubin", gt, 1, 0.12},
			{"alkaline_phosphatase", gt, 300, 0.12}, {"alamine_aminotransferase", gt, 150, 0.14},
			{"aspartate_aminotransferase", gt, 140, 0.12}, {"albumin", lt, 2.5, 0.12}, {"albumin_globulin_ratio", lt, 0.8, 0.10},
		},
		noise: 0.12,
	},
	Stroke: {
		dists: map[string]dist{
			"age": norm(55, 18), "hypertension": bern(0.58), "heart_disease": bern(0.10), "married": bern(0.05),
			"avg_glucose_level": norm(105, 20), "bmi": norm(28, 7), "smoking_status": bern(0.43), "gender": bern(0.53),
			"work_type": bern(0.13),
		},
		rules: []rule{
			{"age", gt, 60, 0.20}, {"hypertension", eq, 1, 0.22}, {"heart_disease", eq, 1, 0.18},
			{"avg_glucose_level", gt, 125, 0.15}, {"bmi", gt, 30, 0.10}, {"smoking_status", eq, 1, 0.10}, {"gender", eq, 0, 0.05},
		},
		noise: 0.12,
	},
}
