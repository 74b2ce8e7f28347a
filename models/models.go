package models

import (
	"fmt"
	"time"
)

// Sex values accepted by the prediction API
const (
	SexMale   = "male"
	SexFemale = "female"
)

// Smoker values accepted by the prediction API
const (
	SmokerYes = "yes"
	SmokerNo  = "no"
)

// Supported regions, in the fixed order used for one-hot encoding
var Regions = []string{"northeast", "northwest", "southeast", "southwest"}

// Risk categories ordered from lowest to highest predicted cost
const (
	RiskLow      = "Low Risk"
	RiskMedium   = "Medium Risk"
	RiskHigh     = "High Risk"
	RiskVeryHigh = "Very High Risk"
)

// PredictionInput holds the six demographic and lifestyle attributes a
// cost estimate is computed from. All fields are required.
type PredictionInput struct {
	Age      int     `json:"age"`
	Sex      string  `json:"sex"`
	BMI      float64 `json:"bmi"`
	Children int     `json:"children"`
	Smoker   string  `json:"smoker"`
	Region   string  `json:"region"`
}

// Validate checks every field against its allowed range. The HTTP layer
// rejects bad requests with this before the engine ever runs; the engine
// calls it again and treats a failure as a contract violation.
func (in PredictionInput) Validate() error {
	if in.Age < 18 || in.Age > 100 {
		return fmt.Errorf("age must be between 18 and 100, got %d", in.Age)
	}
	if in.Sex != SexMale && in.Sex != SexFemale {
		return fmt.Errorf("sex must be %q or %q, got %q", SexMale, SexFemale, in.Sex)
	}
	if in.BMI < 10.0 || in.BMI > 60.0 {
		return fmt.Errorf("bmi must be between 10.0 and 60.0, got %g", in.BMI)
	}
	if in.Children < 0 || in.Children > 10 {
		return fmt.Errorf("children must be between 0 and 10, got %d", in.Children)
	}
	if in.Smoker != SmokerYes && in.Smoker != SmokerNo {
		return fmt.Errorf("smoker must be %q or %q, got %q", SmokerYes, SmokerNo, in.Smoker)
	}
	for _, r := range Regions {
		if in.Region == r {
			return nil
		}
	}
	return fmt.Errorf("region must be one of %v, got %q", Regions, in.Region)
}

// PredictionResult is the engine output. It is a pure value: the
// reporting timestamp is attached by the caller, not the engine.
type PredictionResult struct {
	PredictedCost     float64            `json:"predicted_cost"`
	RiskCategory      string             `json:"risk_category"`
	ConfidenceScore   float64            `json:"confidence_score"`
	Factors           map[string]float64 `json:"factors"`
	ModelPredictions  map[string]float64 `json:"model_predictions,omitempty"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

// PredictionResponse is the wire form of a result served to API clients.
type PredictionResponse struct {
	PredictionResult
	Timestamp time.Time `json:"timestamp"`
}

// User represents a registered account
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsPremium      bool      `json:"is_premium"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserProfile is the authenticated identity attached to a request
type UserProfile struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
}

// PredictionRecord is a stored prediction: the input, the result and
// bookkeeping metadata, as persisted for analytics.
type PredictionRecord struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Age              int       `json:"age"`
	Sex              string    `json:"sex"`
	BMI              float64   `json:"bmi"`
	Children         int       `json:"children"`
	Smoker           string    `json:"smoker"`
	Region           string    `json:"region"`
	PredictedCost    float64   `json:"predicted_cost"`
	RiskCategory     string    `json:"risk_category"`
	ConfidenceScore  float64   `json:"confidence_score"`
	ModelVersion     string    `json:"model_version"`
	PredictionTimeMs float64   `json:"prediction_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// HealthMetrics aggregates platform-wide prediction statistics
type HealthMetrics struct {
	TotalPredictions   int64   `json:"total_predictions"`
	AverageCost        float64 `json:"average_cost"`
	HighRiskPercentage float64 `json:"high_risk_percentage"`
	ModelAccuracy      float64 `json:"model_accuracy"`
}

// RiskTrend is the average cost and volume for one risk category
type RiskTrend struct {
	Category string  `json:"category"`
	AvgCost  float64 `json:"avg_cost"`
	Count    int64   `json:"count"`
}

// SmokingStat is the average cost and volume for one smoker flag value
type SmokingStat struct {
	Smoker  string  `json:"smoker"`
	AvgCost float64 `json:"avg_cost"`
	Count   int64   `json:"count"`
}

// BMIBandStat is the average cost and volume for one BMI band
type BMIBandStat struct {
	Category string  `json:"category"`
	AvgCost  float64 `json:"avg_cost"`
	Count    int64   `json:"count"`
}

// APIMetric is one recorded API call, stored for observability
type APIMetric struct {
	RequestID      string
	Endpoint       string
	Method         string
	StatusCode     int
	ResponseTimeMs float64
	IPAddress      string
	UserAgent      string
}
