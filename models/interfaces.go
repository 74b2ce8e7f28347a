package models

// CostModel is a trained cost estimator. Implementations consume the
// 15-element feature vector produced by the engine and return a scalar
// cost estimate in dollars. None ship with the demo deployment; the
// interface is the seam where real trained models plug in.
type CostModel interface {
	Name() string
	Predict(features []float64) (float64, error)
}
