package engine

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/healthcost-ai/backend/models"
)

// Version is the model version reported alongside predictions.
const Version = "1.0.0"

// Options configures an Engine. Leaving Models empty selects the
// rule-based estimator; nil maps fall back to the demo constants.
type Options struct {
	Models            []models.CostModel
	ModelWeights      map[string]float64
	FeatureImportance map[string]float64
}

// DefaultModelWeights returns the demo per-model ensemble weights.
func DefaultModelWeights() map[string]float64 {
	return map[string]float64{
		"random_forest":     0.4,
		"gradient_boost":    0.35,
		"linear_regression": 0.25,
	}
}

// DefaultFeatureImportance returns the demo feature importance weights.
func DefaultFeatureImportance() map[string]float64 {
	return map[string]float64{
		"smoking":  0.45,
		"bmi":      0.25,
		"age":      0.15,
		"region":   0.10,
		"children": 0.05,
	}
}

// strategy is the estimator variant an Engine runs. It is fixed at
// construction time so call sites never branch on model availability.
type strategy interface {
	estimate(in models.PredictionInput) (*models.PredictionResult, error)
}

// Engine produces cost estimates with a risk classification, a
// confidence score and a factor breakdown. It holds read-only constants
// loaded once at construction and is safe for concurrent use.
type Engine struct {
	strategy   strategy
	weights    map[string]float64
	importance map[string]float64
	logger     zerolog.Logger
}

// New constructs an engine. With no trained models the always-available
// rule-based estimator is selected; otherwise the ensemble runs and the
// rule-based path remains the fallback.
func New(opts Options) *Engine {
	weights := opts.ModelWeights
	if weights == nil {
		weights = DefaultModelWeights()
	}
	importance := opts.FeatureImportance
	if importance == nil {
		importance = DefaultFeatureImportance()
	}

	e := &Engine{
		weights:    weights,
		importance: importance,
		logger:     log.With().Str("component", "engine").Logger(),
	}

	if len(opts.Models) == 0 {
		e.strategy = ruleBased{}
		e.logger.Info().Msg("No trained models configured, using rule-based estimator")
	} else {
		e.strategy = &ensemble{models: opts.Models, weights: weights, importance: importance}
		e.logger.Info().Int("models", len(opts.Models)).Msg("Ensemble estimator configured")
	}
	return e
}

// Estimate runs the selected strategy on a validated input. Input that
// fails validation is a contract violation of the calling layer and
// returns an error; an ensemble failure is not an error — the engine
// falls back to the rule-based estimate and logs the event.
func (e *Engine) Estimate(in models.PredictionInput) (*models.PredictionResult, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prediction input: %w", err)
	}

	res, err := e.strategy.estimate(in)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Ensemble prediction failed, falling back to rule-based estimate")
		res, _ = ruleBased{}.estimate(in)
	}
	return res, nil
}

// ModelWeights returns a copy of the configured ensemble weights.
func (e *Engine) ModelWeights() map[string]float64 {
	out := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

// FeatureImportance returns a copy of the configured feature importance.
func (e *Engine) FeatureImportance() map[string]float64 {
	out := make(map[string]float64, len(e.importance))
	for k, v := range e.importance {
		out[k] = v
	}
	return out
}
