package ensemble

import (
	"fmt"
	"strings"
)

// Disease selects a trained bundle and its feature schema.
type Disease string

const (
	Diabetes      Disease = "diabetes"
	Heart         Disease = "heart"
	Parkinson     Disease = "parkinson"
	Hypertension  Disease = "hypertension"
	CancerRisk    Disease = "cancer_risk"
	KidneyDisease Disease = "kidney_disease"
	LiverDisease  Disease = "liver_disease"
	Stroke        Disease = "stroke"
)

// AllDiseases lists every supported category in presentation order.
var AllDiseases = []Disease{
	Diabetes, Heart, Parkinson, Hypertension,
	CancerRisk, KidneyDisease, LiverDisease, Stroke,
}

// ParseDisease normalizes s and checks it against the supported set.
func ParseDisease(s string) (Disease, error) {
	d := Disease(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schemas[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDisease, s)
	}
	return d, nil
}

// Schema is the fixed feature layout of one disease category.
type Schema struct {
	Disease  Disease            `json:"disease"`
	Name     string             `json:"name"`
	Features []string           `json:"features"`
	Required []string           `json:"required_params"`
	// Defaults fills absent optional features in defaults mode.
	Defaults map[string]float64 `json:"optional_defaults"`
}

// Optional returns the features that are not in Required.
func (s Schema) Optional() []string {
	req := make(map[string]struct{}, len(s.Required))
	for _, r := range s.Required {
		req[r] = struct{}{}
	}
	out := make([]string, 0, len(s.Features)-len(s.Required))
	for _, f := range s.Features {
		if _, ok := req[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// LookupSchema returns the schema for d.
func LookupSchema(d Disease) (Schema, bool) {
	s, ok := schemas[d]
	return s, ok
}

var schemas = map[Disease]Schema{
	Diabetes: {
		Disease:  Diabetes,
		Name:     "Type 2 Diabetes",
		Features: []string{"glucose", "bmi", "age", "blood_pressure", "pregnancies", "skin_thickness", "insulin", "diabetes_pedigree"},
		Required: []string{"glucose", "bmi", "age", "blood_pressure"},
		Defaults: map[string]float64{
			"pregnancies": 0, "skin_thickness": 20, "insulin": 80, "diabetes_pedigree": 0.5,
		},
	},
	Heart: {
		Disease:  Heart,
		Name:     "Heart Disease",
		Features: []string{"age", "cholesterol", "blood_pressure", "heart_rate", "max_hr", "exercise_induced_angina", "oldpeak", "ca", "thal"},
		Required: []string{"age", "cholesterol", "blood_pressure", "heart_rate"},
		Defaults: map[string]float64{
			"max_hr": 150, "exercise_induced_angina": 0, "oldpeak": 1.0, "ca": 0, "thal": 1,
		},
	},
	Parkinson: {
		Disease:  Parkinson,
		Name:     "Parkinson's Disease",
		Features: []string{"age", "tremor_score", "motor_score", "voice_variation", "jitter", "shimmer", "nhr", "hnr", "rpde", "d2", "ppe"},
		Required: []string{"age", "tremor_score", "motor_score", "voice_variation"},
		Defaults: map[string]float64{
			"jitter": 0.007, "shimmer": 0.03, "nhr": 0.02, "hnr": 22, "rpde": 0.5, "d2": 2.5, "ppe": 0.2,
		},
	},
	Hypertension: {
		Disease:  Hypertension,
		Name:     "Hypertension",
		Features: []string{"age", "bmi", "systolic_bp", "diastolic_bp", "cholesterol", "fasting_blood_sugar", "family_history", "smoking", "alcohol"},
		Required: []string{"age", "bmi", "systolic_bp", "diastolic_bp"},
		Defaults: map[string]float64{
			"cholesterol": 200, "fasting_blood_sugar": 100, "family_history": 0, "smoking": 0, "alcohol": 0,
		},
	},
	CancerRisk: {
		Disease:  CancerRisk,
		Name:     "Cancer Risk Assessment",
		Features: []string{"age", "family_history", "smoking", "alcohol", "bmi", "physical_activity", "radiation_exposure", "chemical_exposure", "years_of_exposure"},
		Required: []string{"age", "family_history", "smoking", "alcohol", "bmi"},
		Defaults: map[string]float64{
			"physical_activity": 100, "radiation_exposure": 0, "chemical_exposure": 0, "years_of_exposure": 0,
		},
	},
	KidneyDisease: {
		Disease:  KidneyDisease,
		Name:     "Kidney Disease",
		Features: []string{"age", "blood_pressure_high", "blood_glucose_random", "specific_gravity", "albumin", "sugar", "blood_urea", "serum_creatinine", "sodium", "potassium", "hemoglobin", "packed_cell_volume"},
		Required: []string{"age", "blood_pressure_high", "blood_glucose_random", "serum_creatinine"},
		Defaults: map[string]float64{
			"specific_gravity": 1.02, "albumin": 0, "sugar": 0, "blood_urea": 138, "sodium": 140,
			"potassium": 4.5, "hemoglobin": 13.5, "packed_cell_volume": 15000,
		},
	},
	LiverDisease: {
		Disease:  LiverDisease,
		Name:     "Liver Disease",
		Features: []string{"age", "gender", "total_bilirubin", "direct_bilirubin", "alkaline_phosphatase", "alamine_aminotransferase", "aspartate_aminotransferase", "total_protiens", "albumin", "albumin_globulin_ratio"},
		Required: []string{"age", "total_bilirubin", "alamine_aminotransferase", "albumin"},
		Defaults: map[string]float64{
			"gender": 1, "direct_bilirubin": 1.5, "alkaline_phosphatase": 220,
			"aspartate_aminotransferase": 110, "total_protiens": 3.5, "albumin_globulin_ratio": 1.0,
		},
	},
	Stroke: {
		Disease:  Stroke,
		Name:     "Stroke Risk",
		Features: []string{"age", "hypertension", "heart_disease", "married", "avg_glucose_level", "bmi", "smoking_status", "gender", "work_type"},
		Required: []string{"age", "hypertension", "heart_disease", "avg_glucose_level", "bmi"},
		Defaults: map[string]float64{
			"married": 0, "smoking_status": 0, "gender": 1, "work_type": 0,
		},
	},
}
