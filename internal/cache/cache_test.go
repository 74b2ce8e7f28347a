package cache

import (
	"context"
	"testing"

	"github.com/healthcost-ai/backend/models"
)

func TestKeyDeterministic(t *testing.T) {
	in := models.PredictionInput{
		Age:      30,
		Sex:      models.SexMale,
		BMI:      25.0,
		Children: 1,
		Smoker:   models.SmokerNo,
		Region:   "northeast",
	}

	if Key(in) != Key(in) {
		t.Error("identical inputs produced different cache keys")
	}

	other := in
	other.Smoker = models.SmokerYes
	if Key(in) == Key(other) {
		t.Error("different inputs produced the same cache key")
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if _, ok := c.Get(ctx, "prediction:deadbeef"); ok {
		t.Error("nil cache reported a hit")
	}

	// Must not panic
	c.Set(ctx, "prediction:deadbeef", &models.PredictionResponse{})

	if err := c.Close(); err != nil {
		t.Errorf("nil cache Close returned error: %v", err)
	}
}
