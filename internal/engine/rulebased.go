package engine

import (
	"math"

	"github.com/healthcost-ai/backend/models"
)

// ruleBased is the deterministic estimator used when no trained models
// are loaded. It never fails for a validated input.
type ruleBased struct{}

// regionMultipliers scale the summed cost factors by region.
var regionMultipliers = map[string]float64{
	"northeast": 1.15,
	"northwest": 1.00,
	"southeast": 1.08,
	"southwest": 0.92,
}

func (ruleBased) estimate(in models.PredictionInput) (*models.PredictionResult, error) {
	baseCost := 3000.0

	ageFactor := float64(in.Age) * 80

	var bmiFactor float64
	if in.BMI > 30 {
		bmiFactor = (in.BMI - 30) * 400
	} else {
		bmiFactor = math.Max(0, (in.BMI-18.5)*50)
	}

	var smokingFactor float64
	if in.Smoker == models.SmokerYes {
		smokingFactor = 20000
	}

	childrenFactor := float64(in.Children) * 700

	regionMultiplier := regionMultipliers[in.Region]

	totalCost := (baseCost + ageFactor + bmiFactor + smokingFactor + childrenFactor) * regionMultiplier

	category, confidence := riskTier(totalCost)

	return &models.PredictionResult{
		PredictedCost:   round2(totalCost),
		RiskCategory:    category,
		ConfidenceScore: confidence,
		Factors: map[string]float64{
			"base_cost":         baseCost,
			"age_impact":        round2(ageFactor),
			"bmi_impact":        round2(bmiFactor),
			"smoking_impact":    round2(smokingFactor),
			"children_impact":   round2(childrenFactor),
			"region_multiplier": round2(regionMultiplier),
		},
	}, nil
}

// riskTier classifies a predicted cost. Boundaries are exclusive, so a
// cost landing exactly on one resolves to the lower tier. Confidence is
// a fixed constant per tier in the rule-based path.
func riskTier(cost float64) (category string, confidence float64) {
	switch {
	case cost > 25000:
		return models.RiskVeryHigh, 0.75
	case cost > 15000:
		return models.RiskHigh, 0.80
	case cost > 8000:
		return models.RiskMedium, 0.85
	default:
		return models.RiskLow, 0.90
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
