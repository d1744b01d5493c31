package care

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riskcare/risk-server/internal/ensemble"
)

const (
	// SourceTemplate marks prescriptions built from the static templates.
	SourceTemplate = "template"

	defaultAge       = 50
	olderAdultAge    = 65
	defaultGender    = "unknown"
	defaultRiskLevel = ensemble.Medium
)

const Disclaimer = "IMPORTANT MEDICAL DISCLAIMER: this prescription is generated from templates for " +
	"informational purposes only. It is not a substitute for professional medical advice, diagnosis, " +
	"or treatment. Always consult a qualified healthcare provider before starting any medication, and " +
	"seek immediate medical attention if you experience severe symptoms."

// PatientProfile carries the fields the templates personalise on. Unknown
// keys in the request are ignored.
type PatientProfile struct {
	Age       *float64 `json:"age,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Allergies []string `json:"allergies,omitempty"`
}

// PredictionSummary is the part of a scored result a prescription uses.
type PredictionSummary struct {
	RiskLevel  ensemble.RiskLevel `json:"risk_level,omitempty"`
	Confidence float64            `json:"confidence,omitempty"`
}

type PrescriptionRequest struct {
	Disease          string            `json:"disease" binding:"required"`
	PatientProfile   PatientProfile    `json:"patient_profile"`
	PredictionResult PredictionSummary `json:"prediction_result"`
}

type Medication struct {
	Name              string   `json:"name"`
	GenericName       string   `json:"generic_name"`
	Dosage            string   `json:"dosage"`
	Frequency         string   `json:"frequency"`
	Duration          string   `json:"duration"`
	Administration    string   `json:"administration"`
	Purpose           string   `json:"purpose"`
	SideEffects       []string `json:"side_effects"`
	Contraindications []string `json:"contraindications"`
}

type FollowUp struct {
	NextAppointment string   `json:"next_appointment"`
	TestsToMonitor  []string `json:"tests_to_monitor"`
	WarningSigns    []string `json:"warning_signs"`
}

type Prescription struct {
	Disease               string             `json:"disease"`
	Medications           []Medication       `json:"medications"`
	Lifestyle             []string           `json:"lifestyle_recommendations"`
	Diet                  []string           `json:"diet_recommendations"`
	FollowUp              FollowUp           `json:"follow_up"`
	EmergencyInstructions string             `json:"emergency_instructions"`
	AllergyWarnings       []string           `json:"allergy_warnings,omitempty"`
	PatientAge            float64            `json:"patient_age"`
	PatientGender         string             `json:"patient_gender"`
	RiskLevel             ensemble.RiskLevel `json:"risk_level"`
	Confidence            float64            `json:"confidence"`
	Disclaimer            string             `json:"disclaimer"`
	Source                string             `json:"source"`
	GeneratedAt           time.Time          `json:"generated_at"`
}

type template struct {
	medications func(age float64) []Medication
	lifestyle   []string
	diet        []string
	followUp    FollowUp
	emergency   string
}

// Prescribe builds a template prescription. It never fails: diseases
// without a template get general guidance.
func Prescribe(req PrescriptionRequest) Prescription {
	name := strings.ToLower(strings.TrimSpace(req.Disease))
	tmpl := generalTemplate
	if d, err := ensemble.ParseDisease(name); err == nil {
		name = string(d)
		if t, ok := templates[d]; ok {
			tmpl = t
		}
	}

	age := float64(defaultAge)
	if req.PatientProfile.Age != nil && *req.PatientProfile.Age > 0 {
		age = *req.PatientProfile.Age
	}
	gender := strings.TrimSpace(req.PatientProfile.Gender)
	if gender == "" {
		gender = defaultGender
	}
	risk := req.PredictionResult.RiskLevel
	if risk.Rank() < 0 {
		risk = defaultRiskLevel
	}

	meds := tmpl.medications(age)
	follow := FollowUp{
		NextAppointment: tmpl.followUp.NextAppointment,
		TestsToMonitor:  slices.Clone(tmpl.followUp.TestsToMonitor),
		WarningSigns:    slices.Clone(tmpl.followUp.WarningSigns),
	}
	if risk == ensemble.High {
		follow.NextAppointment = "Follow-up within 1-2 weeks given high predicted risk"
	}

	return Prescription{
		Disease:               name,
		Medications:           meds,
		Lifestyle:             slices.Clone(tmpl.lifestyle),
		Diet:                  slices.Clone(tmpl.diet),
		FollowUp:              follow,
		EmergencyInstructions: tmpl.emergency,
		AllergyWarnings:       allergyWarnings(meds, req.PatientProfile.Allergies),
		PatientAge:            age,
		PatientGender:         gender,
		RiskLevel:             risk,
		Confidence:            req.PredictionResult.Confidence,
		Disclaimer:            Disclaimer,
		Source:                SourceTemplate,
		GeneratedAt:           time.Now().UTC(),
	}
}

// allergyWarnings flags medications whose name mentions a listed allergy.
func allergyWarnings(meds []Medication, allergies []string) []string {
	var out []string
	for _, a := range allergies {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		for _, m := range meds {
			if strings.Contains(strings.ToLower(m.Name+" "+m.GenericName), a) {
				out = append(out, fmt.Sprintf("%s: patient reports %s allergy, confirm with physician", m.Name, a))
			}
		}
	}
	return out
}

func fixed(meds ...Medication) func(float64) []Medication {
	return func(float64) []Medication { return slices.Clone(meds) }
}

var templates = map[ensemble.Disease]template{
	ensemble.Diabetes: {
		medications: func(age float64) []Medication {
			dose := "standard starting dose 500mg once daily"
			if age > olderAdultAge {
				dose = "lower starting dose 500mg once daily, titrate slowly"
			}
			return []Medication{
				{
					Name: "Metformin Hydrochloride", GenericName: "Metformin", Dosage: dose,
					Frequency: "Once daily with evening meal", Duration: "Long-term, as prescribed by physician",
					Administration:    "Take with food to reduce gastrointestinal side effects",
					Purpose:           "First-line oral medication for blood glucose control",
					SideEffects:       []string{"Nausea", "Diarrhea", "Stomach upset", "Metallic taste"},
					Contraindications: []string{"Severe kidney disease", "Metabolic acidosis", "Alcohol abuse"},
				},
				{
					Name: "Blood Glucose Monitoring", GenericName: "Glucometer", Dosage: "As needed for monitoring",
					Frequency: "Fasting and 2 hours after meals, 3-4 times daily", Duration: "Ongoing",
					Administration: "Use glucometer as instructed", Purpose: "Monitor blood glucose levels",
				},
			}
		},
		lifestyle: []string{
			"Engage in regular physical activity (30 minutes daily, 5 days per week)",
			"Maintain healthy body weight through diet and exercise",
			"Attend regular diabetes education classes",
		},
		diet: []string{
			"Follow a consistent carbohydrate-controlled meal plan",
			"Increase fiber intake (25-35g daily) through whole grains, vegetables, fruits",
			"Limit added sugars and sugary beverages",
		},
		followUp: FollowUp{
			NextAppointment: "Follow-up in 4-6 weeks to assess treatment response",
			TestsToMonitor:  []string{"HbA1c every 3 months", "Kidney function tests annually", "Comprehensive eye exam annually"},
			WarningSigns:    []string{"Blood glucose < 70 mg/dL or > 300 mg/dL", "Fruity breath, confusion, or vomiting", "Vision changes"},
		},
		emergency: "Seek emergency care for severe hypoglycemia that does not respond to oral glucose, " +
			"signs of diabetic ketoacidosis, severe dehydration, or loss of consciousness.",
	},
	ensemble.Heart: {
		medications: fixed(
			Medication{
				Name: "Aspirin", GenericName: "Acetylsalicylic Acid", Dosage: "81-100mg daily",
				Frequency: "Once daily", Duration: "Long-term, as directed by physician",
				Administration:    "Take with food to reduce stomach irritation",
				Purpose:           "Antiplatelet therapy to prevent blood clots",
				SideEffects:       []string{"Stomach irritation", "Bleeding", "Bruising"},
				Contraindications: []string{"Active bleeding", "Stomach ulcers", "Aspirin allergy"},
			},
			Medication{
				Name: "Statin Therapy", GenericName: "Atorvastatin or similar", Dosage: "Starting dose as determined by lipid levels",
				Frequency: "Once daily", Duration: "Long-term", Administration: "Take at bedtime",
				Purpose:     "Lower LDL cholesterol and reduce cardiovascular risk",
				SideEffects: []string{"Muscle pain", "Elevated liver enzymes"},
			},
			Medication{
				Name: "Beta Blocker", GenericName: "Metoprolol or similar", Dosage: "As prescribed by physician",
				Frequency: "Once or twice daily", Duration: "Long-term", Administration: "Take at the same time daily",
				Purpose:           "Reduce heart rate and cardiac workload",
				Contraindications: []string{"Severe bradycardia", "Heart block", "Asthma"},
			},
		),
		lifestyle: []string{
			"Moderate-intensity aerobic exercise (150 minutes per week)",
			"Cardiac rehabilitation program if prescribed",
			"Quit smoking immediately",
		},
		diet: []string{
			"Follow Mediterranean or DASH diet pattern",
			"Limit sodium intake to < 2,300 mg daily",
			"Limit saturated fats and eliminate trans fats",
		},
		followUp: FollowUp{
			NextAppointment: "Follow-up in 4-6 weeks",
			TestsToMonitor:  []string{"Lipid panel", "Blood pressure weekly", "ECG as needed"},
			WarningSigns:    []string{"Chest pain or pressure", "Shortness of breath", "Swelling in legs or feet"},
		},
		emergency: "Call emergency services for chest pain lasting more than a few minutes, pain spreading " +
			"to the arm, jaw or back, or sudden shortness of breath.",
	},
	ensemble.Parkinson: {
		medications: fixed(
			Medication{
				Name: "Levodopa/Carbidopa", GenericName: "Carbidopa-Levodopa", Dosage: "Starting dose 25/100mg, titrate as needed",
				Frequency: "3-4 times daily", Duration: "Long-term", Administration: "Take 30 minutes before meals",
				Purpose:     "Gold standard therapy for motor symptoms",
				SideEffects: []string{"Nausea", "Dizziness", "Dyskinesia"},
			},
			Medication{
				Name: "Dopamine Agonist", GenericName: "Pramipexole or Ropinirole", Dosage: "Low starting dose, gradual titration",
				Frequency: "3 times daily", Duration: "Long-term", Administration: "Take with food",
				Purpose: "Stimulate dopamine receptors and reduce Levodopa needs",
			},
		),
		lifestyle: []string{"Regular physical therapy", "Balance and gait exercises", "Stay socially active"},
		diet:      []string{"High-fiber foods", "Separate protein from Levodopa doses", "Adequate hydration"},
		followUp: FollowUp{
			NextAppointment: "Neurology follow-up every 3-6 months",
			TestsToMonitor:  []string{"Motor assessment", "Cognitive screening", "Swallowing evaluation"},
			WarningSigns:    []string{"Frequent falls", "Hallucinations", "Difficulty swallowing"},
		},
		emergency: "Seek urgent care for a fall with injury, sudden confusion, or inability to swallow.",
	},
	ensemble.Hypertension: {
		medications: func(age float64) []Medication {
			// lisinopril already drops to 5mg at 65
			dose := "Starting dose 10mg daily"
			if age >= olderAdultAge {
				dose = "Starting dose 5mg daily"
			}
			return []Medication{
				{
					Name: "ACE Inhibitor", GenericName: "Lisinopril", Dosage: dose,
					Frequency: "Once daily", Duration: "Long-term", Administration: "Take at the same time daily",
					Purpose:           "Lower blood pressure by relaxing blood vessels",
					SideEffects:       []string{"Dry cough", "Dizziness", "Elevated potassium"},
					Contraindications: []string{"Pregnancy", "History of angioedema"},
				},
				{
					Name: "Thiazide Diuretic", GenericName: "Hydrochlorothiazide", Dosage: "12.5-25mg daily",
					Frequency: "Once daily", Duration: "Long-term", Administration: "Take in the morning",
					Purpose: "Help kidneys eliminate excess sodium and water",
				},
			}
		},
		lifestyle: []string{"Regular aerobic exercise (150 min/week)", "Home blood pressure monitoring", "Limit alcohol"},
		diet:      []string{"Follow the DASH diet", "Limit sodium to < 2,300mg daily", "Increase potassium intake"},
		followUp: FollowUp{
			NextAppointment: "Follow-up in 4-6 weeks",
			TestsToMonitor:  []string{"Blood pressure weekly", "Electrolytes", "Kidney function"},
			WarningSigns:    []string{"Severe headache", "Blurred vision", "Chest pain"},
		},
		emergency: "Seek emergency care for blood pressure above 180/120 with headache, chest pain, or vision changes.",
	},
	ensemble.CancerRisk: {
		medications: fixed(Medication{
			Name: "Risk Reduction Consultation", GenericName: "Preventive care", Dosage: "As recommended",
			Frequency: "Regular screening schedule", Duration: "Ongoing", Administration: "Scheduled screenings",
			Purpose: "Early detection and risk reduction",
		}),
		lifestyle: []string{"Quit smoking", "Limit alcohol", "Protect from sun exposure"},
		diet:      []string{"Eat 5+ servings of fruits and vegetables daily", "Limit red and processed meat", "Choose whole grains"},
		followUp: FollowUp{
			NextAppointment: "Consult with an oncologist for a personalised screening plan",
			TestsToMonitor:  []string{"Age-appropriate cancer screenings", "Annual physical examination"},
			WarningSigns:    []string{"Unexplained weight loss", "New lumps", "Persistent fatigue"},
		},
		emergency: "Seek prompt care for unexplained bleeding, severe pain, or rapid weight loss.",
	},
	ensemble.KidneyDisease: {
		medications: fixed(
			Medication{
				Name: "Blood Pressure Control", GenericName: "ACE inhibitor or ARB", Dosage: "As prescribed by nephrologist",
				Frequency: "Once daily", Duration: "Long-term", Administration: "Take at the same time daily",
				Purpose: "Protect kidney function and control blood pressure",
			},
			Medication{
				Name: "Diabetes Control", GenericName: "Glucose-lowering therapy", Dosage: "As prescribed",
				Frequency: "Once daily", Duration: "Long-term", Administration: "As directed",
				Purpose: "Protect kidneys in diabetic patients",
			},
		),
		lifestyle: []string{"Avoid NSAIDs", "Regular exercise as tolerated", "Quit smoking"},
		diet:      []string{"Follow a renal diet", "Restrict sodium (< 2,000mg)", "Limit potassium and phosphorus if elevated"},
		followUp: FollowUp{
			NextAppointment: "Nephrology follow-up every 1-3 months",
			TestsToMonitor:  []string{"Creatinine/GFR", "Potassium", "Urine protein"},
			WarningSigns:    []string{"Reduced urine output", "Swelling", "Shortness of breath"},
		},
		emergency: "Seek emergency care for no urine output, severe swelling, or confusion.",
	},
	ensemble.LiverDisease: {
		medications: fixed(Medication{
			Name: "Liver Support", GenericName: "Condition-specific therapy", Dosage: "As prescribed",
			Frequency: "As directed", Duration: "As directed", Administration: "As directed",
			Purpose: "Support liver function and prevent complications",
		}),
		lifestyle: []string{"Complete alcohol abstinence", "Vaccination for Hepatitis A and B", "Avoid hepatotoxic medications"},
		diet:      []string{"Adequate protein intake", "Limit sodium if fluid retention", "Avoid added sugars"},
		followUp: FollowUp{
			NextAppointment: "Hepatology follow-up every 3-6 months",
			TestsToMonitor:  []string{"Liver function tests", "Complete blood count", "Ultrasound"},
			WarningSigns:    []string{"Yellowing of skin or eyes", "Abdominal swelling", "Confusion"},
		},
		emergency: "Seek emergency care for vomiting blood, black stools, or sudden confusion.",
	},
	ensemble.Stroke: {
		medications: fixed(
			Medication{
				Name: "Antiplatelet Therapy", GenericName: "Aspirin or Clopidogrel", Dosage: "As prescribed by neurologist",
				Frequency: "Once daily", Duration: "Long-term", Administration: "Take with food",
				Purpose: "Prevent blood clots that can cause stroke",
			},
			Medication{
				Name: "Statin Therapy", GenericName: "Atorvastatin", Dosage: "As prescribed",
				Frequency: "Once daily", Duration: "Long-term", Administration: "Take at bedtime",
				Purpose: "Lower cholesterol and stabilise plaques",
			},
			Medication{
				Name: "Antihypertensive", GenericName: "Per physician", Dosage: "As prescribed",
				Frequency: "Once daily", Duration: "Long-term", Administration: "Take at the same time daily",
				Purpose: "Control blood pressure to prevent stroke",
			},
		),
		lifestyle: []string{"Control blood pressure tightly", "Quit smoking immediately", "Regular exercise as tolerated"},
		diet:      []string{"Mediterranean or DASH diet", "Limit sodium (< 2,300mg)", "Limit saturated and trans fats"},
		followUp: FollowUp{
			NextAppointment: "Neurology follow-up every 3-6 months",
			TestsToMonitor:  []string{"Blood pressure", "Lipid panel", "Carotid imaging as advised"},
			WarningSigns:    []string{"Face drooping", "Arm weakness", "Speech difficulty"},
		},
		emergency: "Call emergency services immediately for face drooping, arm weakness, or speech difficulty. Note the time symptoms started.",
	},
}

var generalTemplate = template{
	medications: fixed(Medication{
		Name: "Consult Healthcare Provider", GenericName: "N/A", Dosage: "As prescribed by physician",
		Frequency: "As directed", Duration: "As directed", Administration: "As directed",
		Purpose: "Proper diagnosis and treatment",
	}),
	lifestyle: []string{"Maintain a healthy weight", "Exercise regularly", "Avoid tobacco"},
	diet:      []string{"Balanced diet rich in fruits and vegetables", "Limit processed foods", "Stay hydrated"},
	followUp: FollowUp{
		NextAppointment: "As recommended by healthcare provider",
		TestsToMonitor:  []string{"Routine blood work"},
		WarningSigns:    []string{"Worsening symptoms"},
	},
	emergency: "Seek emergency care for severe or rapidly worsening symptoms.",
}
