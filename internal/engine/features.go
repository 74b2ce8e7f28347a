package engine

import "github.com/healthcost-ai/backend/models"

// FeatureVector encodes an input as the 15-element vector trained cost
// models consume. Order is fixed: raw attributes, binary flags, BMI and
// age bands, interaction terms, then the one-hot region block in
// northeast/northwest/southeast/southwest order.
func FeatureVector(in models.PredictionInput) []float64 {
	var sexMale, smokerYes float64
	if in.Sex == models.SexMale {
		sexMale = 1
	}
	if in.Smoker == models.SmokerYes {
		smokerYes = 1
	}

	var obese, overweight float64
	if in.BMI >= 30 {
		obese = 1
	}
	if in.BMI >= 25 && in.BMI < 30 {
		overweight = 1
	}

	var senior, middleAged float64
	if in.Age >= 55 {
		senior = 1
	}
	if in.Age >= 35 && in.Age < 55 {
		middleAged = 1
	}

	vec := []float64{
		float64(in.Age),
		in.BMI,
		float64(in.Children),
		sexMale,
		smokerYes,
		obese,
		overweight,
		senior,
		middleAged,
		smokerYes * in.BMI,
		float64(in.Age) * smokerYes,
	}

	for _, region := range models.Regions {
		if in.Region == region {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}

	return vec
}
