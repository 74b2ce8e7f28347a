package engine

import (
	"fmt"

	"github.com/healthcost-ai/backend/models"
)

// ensemble aggregates trained cost models by weighted mean. A failing
// model fails the whole attempt; the engine then falls back to the
// rule-based estimate.
type ensemble struct {
	models     []models.CostModel
	weights    map[string]float64
	importance map[string]float64
}

// explainability region multipliers; deliberately not the multipliers
// the rule-based formula applies.
var regionImpactMultipliers = map[string]float64{
	"northeast": 1.10,
	"northwest": 1.00,
	"southeast": 1.05,
	"southwest": 0.95,
}

func (s *ensemble) estimate(in models.PredictionInput) (*models.PredictionResult, error) {
	vec := FeatureVector(in)

	// Models run in configuration order so the arithmetic below is
	// bit-reproducible across calls.
	names := make([]string, 0, len(s.models))
	outputs := make([]float64, 0, len(s.models))
	for _, m := range s.models {
		out, err := m.Predict(vec)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name(), err)
		}
		names = append(names, m.Name())
		outputs = append(outputs, out)
	}

	// Weighted mean; a model without a configured weight gets an equal
	// share.
	var ensemblePred float64
	for i, name := range names {
		w, ok := s.weights[name]
		if !ok {
			w = 1 / float64(len(outputs))
		}
		ensemblePred += outputs[i] * w
	}

	// Confidence from the population variance of the raw model outputs
	// relative to the ensemble estimate, clamped to [0.7, 0.95].
	var mean float64
	for _, out := range outputs {
		mean += out
	}
	mean /= float64(len(outputs))

	var variance float64
	for _, out := range outputs {
		d := out - mean
		variance += d * d
	}
	variance /= float64(len(outputs))

	confidence := 1 - variance/ensemblePred
	if confidence < 0.7 {
		confidence = 0.7
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	category, _ := riskTier(ensemblePred)

	preds := make(map[string]float64, len(outputs))
	for i, name := range names {
		preds[name] = round2(outputs[i])
	}

	importance := make(map[string]float64, len(s.importance))
	for k, v := range s.importance {
		importance[k] = v
	}

	return &models.PredictionResult{
		PredictedCost:     round2(ensemblePred),
		RiskCategory:      category,
		ConfidenceScore:   round3(confidence),
		Factors:           ensembleFactors(in),
		ModelPredictions:  preds,
		FeatureImportance: importance,
	}, nil
}

// ensembleFactors is the explainability approximation attached to
// ensemble predictions. Its coefficients intentionally differ from the
// rule-based generating formula and must not be unified with it.
func ensembleFactors(in models.PredictionInput) map[string]float64 {
	baseCost := 3000.0

	ageImpact := float64(in.Age-18) * 100

	var bmiImpact float64
	switch {
	case in.BMI > 30:
		bmiImpact = (in.BMI - 30) * 300
	case in.BMI > 25:
		bmiImpact = (in.BMI - 25) * 100
	}

	var smokingImpact float64
	if in.Smoker == models.SmokerYes {
		smokingImpact = 18000
	}

	childrenImpact := float64(in.Children) * 600

	regionImpact := (regionImpactMultipliers[in.Region] - 1.0) * baseCost

	return map[string]float64{
		"base_cost":       baseCost,
		"age_impact":      round2(ageImpact),
		"bmi_impact":      round2(bmiImpact),
		"smoking_impact":  round2(smokingImpact),
		"children_impact": round2(childrenImpact),
		"region_impact":   round2(regionImpact),
	}
}
