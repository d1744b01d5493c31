// Package care serves static care guidance and template prescriptions for
// the diseases the ensemble scores.
package care

import (
	"slices"

	"github.com/riskcare/risk-server/internal/ensemble"
)

// Recommendation is the general guidance published for one disease.
type Recommendation struct {
	Disease        ensemble.Disease `json:"disease"`
	Medications    []string         `json:"medications"`
	SafetyMeasures []string         `json:"safety_measures"`
	Diet           []string         `json:"diet_recommendations"`
	Lifestyle      []string         `json:"lifestyle_recommendations"`
	FollowUpCare   []string         `json:"follow_up_care"`
}

// Recommendations returns the guidance for a disease name. Names are
// normalised the same way the scorer normalises them.
func Recommendations(name string) (Recommendation, error) {
	d, err := ensemble.ParseDisease(name)
	if err != nil {
		return Recommendation{}, err
	}
	r, ok := recommendations[d]
	if !ok {
		return Recommendation{}, ensemble.ErrUnknownDisease
	}
	r.Disease = d
	r.Medications = slices.Clone(r.Medications)
	r.SafetyMeasures = slices.Clone(r.SafetyMeasures)
	r.Diet = slices.Clone(r.Diet)
	r.Lifestyle = slices.Clone(r.Lifestyle)
	r.FollowUpCare = slices.Clone(r.FollowUpCare)
	return r, nil
}

var recommendations = map[ensemble.Disease]Recommendation{
	ensemble.Diabetes: {
		Medications: []string{
			"Metformin (500mg-1000mg daily) - First-line therapy",
			"Insulin therapy (as prescribed) - If needed",
			"Glipizide (5mg-10mg before meals) - Sulfonylurea",
			"Sitagliptin (100mg once daily) - DPP-4 inhibitor",
			"Empagliflozin (10mg daily) - SGLT2 inhibitor",
		},
		SafetyMeasures: []string{
			"Monitor blood glucose levels regularly (fasting and post-meal)",
			"Check feet daily for cuts, blisters, or infections",
			"Keep emergency glucose tablets or gel handy",
			"Wear medical alert identification",
		},
		Diet: []string{
			"Follow a consistent carbohydrate-controlled meal plan",
			"Choose complex carbohydrates with low glycemic index",
			"Increase fiber intake (25-35g daily)",
			"Limit refined carbohydrates and added sugars",
		},
		Lifestyle: []string{
			"Maintain healthy weight (BMI 18.5-24.9)",
			"Exercise for 30 minutes daily (150 min/week)",
			"Quit smoking if applicable",
			"Get adequate sleep (7-8 hours per night)",
		},
		FollowUpCare: []string{
			"HbA1c test every 3 months",
			"Kidney function tests annually",
			"Comprehensive eye exam annually",
			"Foot examination at every visit",
		},
	},
	ensemble.Heart: {
		Medications: []string{
			"Aspirin (81mg daily) - Antiplatelet",
			"Statin (Atorvastatin 10mg-80mg) - Cholesterol lowering",
			"Beta-blocker (Metoprolol 25mg-100mg) - Heart rate control",
			"ACE inhibitor (Lisinopril 10mg-40mg) - Blood pressure control",
			"Nitroglycerin (as needed) - For angina",
		},
		SafetyMeasures: []string{
			"Monitor blood pressure daily",
			"Avoid strenuous activities without medical clearance",
			"Learn CPR techniques",
			"Keep emergency medications accessible",
		},
		Diet: []string{
			"Follow Mediterranean or DASH diet pattern",
			"Reduce sodium intake (less than 2,300mg daily)",
			"Eat omega-3 rich foods (salmon, mackerel, walnuts)",
			"Eliminate trans fats completely",
		},
		Lifestyle: []string{
			"Cardiac rehabilitation program if prescribed",
			"Gradual increase in physical activity",
			"Quit smoking immediately",
			"Keep an activity and symptom diary",
		},
		FollowUpCare: []string{
			"Cardiology follow-up every 3-6 months",
			"Lipid panel every 6-12 weeks initially",
			"Echocardiogram annually or as needed",
			"ECG at regular intervals",
		},
	},
	ensemble.Parkinson: {
		Medications: []string{
			"Levodopa/Carbidopa (as prescribed) - Gold standard",
			"Dopamine agonists (Pramipexole, Ropinirole) - Adjunct therapy",
			"MAO-B inhibitors (Selegiline, Rasagiline) - Symptom control",
			"Amantadine (100mg twice daily) - For dyskinesia",
		},
		SafetyMeasures: []string{
			"Install grab bars and handrails at home",
			"Remove tripping hazards (rugs, cords)",
			"Use assistive devices (walker, cane) if needed",
			"Practice balance exercises daily",
		},
		Diet: []string{
			"Eat high-fiber foods to prevent constipation",
			"Separate protein-rich meals from medication timing",
			"Take small, frequent meals",
			"Maintain adequate calcium and vitamin D",
		},
		Lifestyle: []string{
			"Regular physical therapy and exercise",
			"Speech and occupational therapy as needed",
			"Stay socially active",
			"Keep a symptom diary",
		},
		FollowUpCare: []string{
			"Neurology follow-up every 3-6 months",
			"UPDRS assessment regularly",
			"Cognitive and mood evaluations annually",
			"Swallowing evaluations as needed",
		},
	},
	ensemble.Hypertension: {
		Medications: []string{
			"ACE inhibitors (Lisinopril 10mg-40mg daily)",
			"ARBs (Losartan 50mg-100mg daily)",
			"Calcium channel blockers (Amlodipine 5mg-10mg daily)",
			"Thiazide diuretics (Hydrochlorothiazide 12.5-25mg daily)",
		},
		SafetyMeasures: []string{
			"Monitor blood pressure regularly",
			"Avoid sudden position changes",
			"Limit alcohol consumption",
			"Quit smoking",
		},
		Diet: []string{
			"Follow the DASH diet",
			"Limit sodium to < 2,300mg daily",
			"Increase potassium intake (fruits, vegetables)",
			"Limit processed and packaged foods",
		},
		Lifestyle: []string{
			"Regular aerobic exercise (150 min/week)",
			"Maintain healthy BMI (18.5-24.9)",
			"Stress management techniques",
			"Home BP monitoring",
		},
		FollowUpCare: []string{
			"Follow-up every 4-6 weeks initially",
			"Kidney function tests annually",
			"Electrolyte panel periodically",
			"ECG periodically",
		},
	},
	ensemble.CancerRisk: {
		Medications: []string{
			"Screening and prevention focus",
			"Vaccinations (HPV, Hepatitis B)",
			"Chemoprevention as recommended",
			"Genetic counseling if indicated",
		},
		SafetyMeasures: []string{
			"Quit smoking immediately",
			"Protect from UV radiation",
			"Avoid environmental carcinogens",
			"Keep up with regular screenings",
		},
		Diet: []string{
			"Eat 5+ servings of fruits and vegetables daily",
			"Limit red meat",
			"Avoid processed meats",
			"Limit added sugars",
		},
		Lifestyle: []string{
			"Maintain healthy weight",
			"Regular exercise",
			"Limit alcohol",
			"Protect from sun exposure",
		},
		FollowUpCare: []string{
			"Age-appropriate cancer screenings",
			"Annual physical examination",
			"Regular self-examinations",
			"Specific imaging based on risk",
		},
	},
	ensemble.KidneyDisease: {
		Medications: []string{
			"ACE inhibitors or ARBs",
			"Diuretics if needed",
			"Phosphate binders if indicated",
			"Erythropoiesis-stimulating agents if anemic",
			"Vitamin D supplements",
		},
		SafetyMeasures: []string{
			"Control blood pressure tightly",
			"Avoid NSAIDs",
			"Avoid nephrotoxic substances",
			"Monitor fluid intake",
		},
		Diet: []string{
			"Follow renal diet as prescribed",
			"Restrict sodium (< 2,000mg)",
			"Limit potassium and phosphorus if elevated",
			"Work with a renal dietitian",
		},
		Lifestyle: []string{
			"Regular exercise as tolerated",
			"Maintain healthy weight",
			"Quit smoking",
			"Adequate sleep",
		},
		FollowUpCare: []string{
			"Nephrology follow-up every 1-3 months",
			"Creatinine/GFR every 1-3 months",
			"Potassium and hemoglobin regularly",
			"Urine protein regularly",
		},
	},
	ensemble.LiverDisease: {
		Medications: []string{
			"Antivirals if hepatitis",
			"Immunosuppressants if autoimmune",
			"Ursodeoxycholic acid for PBC",
			"Diuretics if ascites present",
		},
		SafetyMeasures: []string{
			"Complete alcohol abstinence",
			"Vaccinations (Hepatitis A, B)",
			"Avoid hepatotoxic substances",
			"Avoid raw shellfish",
		},
		Diet: []string{
			"Adequate protein intake",
			"Limit sodium if fluid retention",
			"Limit saturated fats",
			"Avoid added sugars",
		},
		Lifestyle: []string{
			"No alcohol",
			"Maintain healthy weight",
			"Regular exercise",
			"Adequate rest",
		},
		FollowUpCare: []string{
			"Hepatology follow-up every 3-6 months",
			"LFTs every 3-6 months",
			"Ultrasound periodically",
			"Endoscopy if varices",
		},
	},
	ensemble.Stroke: {
		Medications: []string{
			"Antiplatelets (Aspirin, Clopidogrel)",
			"Anticoagulants if atrial fibrillation",
			"Statins (high-intensity)",
			"Antihypertensives",
			"Antidiabetics if diabetic",
		},
		SafetyMeasures: []string{
			"Control blood pressure tightly",
			"Know stroke warning signs (FAST)",
			"Keep an emergency plan in place",
			"Fall prevention",
		},
		Diet: []string{
			"Follow Mediterranean or DASH diet",
			"Limit sodium (< 2,300mg)",
			"Omega-3 rich foods",
			"Limit saturated and trans fats",
		},
		Lifestyle: []string{
			"Regular exercise as tolerated",
			"Stress management",
			"Treat sleep apnea",
			"Quit smoking",
		},
		FollowUpCare: []string{
			"Neurology follow-up every 3-6 months",
			"Blood pressure checks at every visit",
			"Lipid panel periodically",
			"Rehabilitation reassessment",
		},
	},
}
