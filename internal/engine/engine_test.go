package engine

import (
	"reflect"
	"testing"

	"github.com/healthcost-ai/backend/models"
)

func sampleInput() models.PredictionInput {
	return models.PredictionInput{
		Age:      30,
		Sex:      models.SexMale,
		BMI:      25.0,
		Children: 0,
		Smoker:   models.SmokerNo,
		Region:   "northeast",
	}
}

func TestRuleBasedExactValues(t *testing.T) {
	e := New(Options{})

	tests := []struct {
		name         string
		mutate       func(*models.PredictionInput)
		wantCost     float64
		wantCategory string
		wantConf     float64
	}{
		{
			name:         "non-smoker baseline",
			mutate:       func(in *models.PredictionInput) {},
			wantCost:     6583.75, // (3000 + 30*80 + (25-18.5)*50) * 1.15
			wantCategory: models.RiskLow,
			wantConf:     0.90,
		},
		{
			name:         "smoker baseline",
			mutate:       func(in *models.PredictionInput) { in.Smoker = models.SmokerYes },
			wantCost:     29583.75, // (3000 + 2400 + 325 + 20000) * 1.15
			wantCategory: models.RiskVeryHigh,
			wantConf:     0.75,
		},
		{
			name: "obese bmi uses steeper coefficient",
			mutate: func(in *models.PredictionInput) {
				in.BMI = 35.0
				in.Region = "northwest"
			},
			wantCost:     7400, // 3000 + 2400 + (35-30)*400
			wantCategory: models.RiskLow,
			wantConf:     0.90,
		},
		{
			name: "underweight bmi contributes nothing",
			mutate: func(in *models.PredictionInput) {
				in.BMI = 15.0
				in.Region = "northwest"
			},
			wantCost:     5400, // 3000 + 2400 + 0
			wantCategory: models.RiskLow,
			wantConf:     0.90,
		},
		{
			name: "children add 700 each",
			mutate: func(in *models.PredictionInput) {
				in.Children = 3
				in.Region = "northwest"
			},
			wantCost:     7825, // 3000 + 2400 + 325 + 2100
			wantCategory: models.RiskLow,
			wantConf:     0.90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)

			res, err := e.Estimate(in)
			if err != nil {
				t.Fatalf("Estimate returned error: %v", err)
			}
			if res.PredictedCost != tt.wantCost {
				t.Errorf("predicted cost = %v, want %v", res.PredictedCost, tt.wantCost)
			}
			if res.RiskCategory != tt.wantCategory {
				t.Errorf("risk category = %q, want %q", res.RiskCategory, tt.wantCategory)
			}
			if res.ConfidenceScore != tt.wantConf {
				t.Errorf("confidence = %v, want %v", res.ConfidenceScore, tt.wantConf)
			}
		})
	}
}

func TestRuleBasedFactorBreakdown(t *testing.T) {
	e := New(Options{})

	in := sampleInput()
	in.Smoker = models.SmokerYes
	in.Children = 2

	res, err := e.Estimate(in)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	want := map[string]float64{
		"base_cost":         3000,
		"age_impact":        2400,
		"bmi_impact":        325,
		"smoking_impact":    20000,
		"children_impact":   1400,
		"region_multiplier": 1.15,
	}
	if !reflect.DeepEqual(res.Factors, want) {
		t.Errorf("factors = %v, want %v", res.Factors, want)
	}
	if res.ModelPredictions != nil {
		t.Errorf("rule-based result should not carry model predictions, got %v", res.ModelPredictions)
	}
	if res.FeatureImportance != nil {
		t.Errorf("rule-based result should not carry feature importance, got %v", res.FeatureImportance)
	}
}

func TestRiskTierBoundaries(t *testing.T) {
	tests := []struct {
		cost         float64
		wantCategory string
		wantConf     float64
	}{
		{7999.99, models.RiskLow, 0.90},
		{8000.00, models.RiskLow, 0.90},
		{8000.01, models.RiskMedium, 0.85},
		{15000.00, models.RiskMedium, 0.85},
		{15000.01, models.RiskHigh, 0.80},
		{25000.00, models.RiskHigh, 0.80},
		{25000.01, models.RiskVeryHigh, 0.75},
	}

	for _, tt := range tests {
		category, conf := riskTier(tt.cost)
		if category != tt.wantCategory || conf != tt.wantConf {
			t.Errorf("riskTier(%v) = (%q, %v), want (%q, %v)",
				tt.cost, category, conf, tt.wantCategory, tt.wantConf)
		}
	}
}

func TestMonotonicity(t *testing.T) {
	e := New(Options{})

	cost := func(mutate func(*models.PredictionInput)) float64 {
		in := sampleInput()
		mutate(&in)
		res, err := e.Estimate(in)
		if err != nil {
			t.Fatalf("Estimate returned error: %v", err)
		}
		return res.PredictedCost
	}

	// Age increases cost strictly
	prev := cost(func(in *models.PredictionInput) { in.Age = 18 })
	for _, age := range []int{25, 40, 55, 70, 100} {
		c := cost(func(in *models.PredictionInput) { in.Age = age })
		if c <= prev {
			t.Errorf("cost at age %d (%v) not greater than previous (%v)", age, c, prev)
		}
		prev = c
	}

	// Children increase cost strictly
	prev = cost(func(in *models.PredictionInput) { in.Children = 0 })
	for children := 1; children <= 10; children++ {
		n := children
		c := cost(func(in *models.PredictionInput) { in.Children = n })
		if c <= prev {
			t.Errorf("cost at %d children (%v) not greater than previous (%v)", n, c, prev)
		}
		prev = c
	}

	// BMI above 30 climbs faster per unit than BMI in the normal band
	normalSlope := cost(func(in *models.PredictionInput) { in.BMI = 26 }) -
		cost(func(in *models.PredictionInput) { in.BMI = 25 })
	obeseSlope := cost(func(in *models.PredictionInput) { in.BMI = 32 }) -
		cost(func(in *models.PredictionInput) { in.BMI = 31 })
	if obeseSlope <= normalSlope {
		t.Errorf("obese bmi slope (%v) not steeper than normal bmi slope (%v)", obeseSlope, normalSlope)
	}
}

func TestSmokerDominance(t *testing.T) {
	e := New(Options{})

	nonSmoker, err := e.Estimate(sampleInput())
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	in := sampleInput()
	in.Smoker = models.SmokerYes
	smoker, err := e.Estimate(in)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	if smoker.PredictedCost < 2*nonSmoker.PredictedCost {
		t.Errorf("smoker cost %v less than 2x non-smoker cost %v", smoker.PredictedCost, nonSmoker.PredictedCost)
	}
	if smoker.Factors["smoking_impact"] != 20000 {
		t.Errorf("smoking_impact = %v, want 20000", smoker.Factors["smoking_impact"])
	}
	if nonSmoker.Factors["smoking_impact"] != 0 {
		t.Errorf("non-smoker smoking_impact = %v, want 0", nonSmoker.Factors["smoking_impact"])
	}
}

func TestRegionOrdering(t *testing.T) {
	e := New(Options{})

	costs := make(map[string]float64, len(models.Regions))
	for _, region := range models.Regions {
		in := sampleInput()
		in.Region = region
		res, err := e.Estimate(in)
		if err != nil {
			t.Fatalf("Estimate returned error: %v", err)
		}
		costs[region] = res.PredictedCost
	}

	if !(costs["northeast"] > costs["southeast"] &&
		costs["southeast"] > costs["northwest"] &&
		costs["northwest"] > costs["southwest"]) {
		t.Errorf("region cost ordering violated: %v", costs)
	}
}

func TestEstimateIdempotent(t *testing.T) {
	e := New(Options{})
	in := sampleInput()
	in.Smoker = models.SmokerYes
	in.BMI = 33.3
	in.Children = 4

	first, err := e.Estimate(in)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	second, err := e.Estimate(in)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated estimates differ: %v vs %v", first, second)
	}
}

func TestEstimateRejectsInvalidInput(t *testing.T) {
	e := New(Options{})

	tests := []struct {
		name   string
		mutate func(*models.PredictionInput)
	}{
		{"age below range", func(in *models.PredictionInput) { in.Age = 17 }},
		{"age above range", func(in *models.PredictionInput) { in.Age = 101 }},
		{"unknown sex", func(in *models.PredictionInput) { in.Sex = "other" }},
		{"bmi below range", func(in *models.PredictionInput) { in.BMI = 9.9 }},
		{"bmi above range", func(in *models.PredictionInput) { in.BMI = 60.1 }},
		{"negative children", func(in *models.PredictionInput) { in.Children = -1 }},
		{"too many children", func(in *models.PredictionInput) { in.Children = 11 }},
		{"unknown smoker value", func(in *models.PredictionInput) { in.Smoker = "sometimes" }},
		{"unknown region", func(in *models.PredictionInput) { in.Region = "west" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)
			if _, err := e.Estimate(in); err == nil {
				t.Errorf("expected error for %s, got none", tt.name)
			}
		})
	}
}
