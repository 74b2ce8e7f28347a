package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/healthcost-ai/backend/internal/engine"
	"github.com/healthcost-ai/backend/models"
)

// One-shot estimator: runs the prediction engine on flag-supplied
// attributes and prints the result, without the API server around it.
func main() {
	age := flag.Int("age", 30, "age in years (18-100)")
	sex := flag.String("sex", "male", "sex: male or female")
	bmi := flag.Float64("bmi", 25.0, "body mass index (10.0-60.0)")
	children := flag.Int("children", 0, "number of children (0-10)")
	smoker := flag.String("smoker", "no", "smoker: yes or no")
	region := flag.String("region", "northeast", "region: northeast, northwest, southeast or southwest")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	input := models.PredictionInput{
		Age:      *age,
		Sex:      *sex,
		BMI:      *bmi,
		Children: *children,
		Smoker:   *smoker,
		Region:   *region,
	}

	e := engine.New(engine.Options{})

	result, err := e.Estimate(input)
	if err != nil {
		log.Fatal().Err(err).Msg("Estimate failed")
	}

	response := models.PredictionResponse{
		PredictionResult: *result,
		Timestamp:        time.Now(),
	}

	payload, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to serialize result")
	}
	fmt.Println(string(payload))
}
