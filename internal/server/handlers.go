package server

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/healthcost-ai/backend/internal/auth"
	"github.com/healthcost-ai/backend/internal/cache"
	"github.com/healthcost-ai/backend/internal/database"
	"github.com/healthcost-ai/backend/internal/engine"
	"github.com/healthcost-ai/backend/internal/payment"
	"github.com/healthcost-ai/backend/models"
)

// APIVersion is the public API version reported by the root endpoint
const APIVersion = "2.0.0"

// demoUserID is the database id of the seeded demo account; predictions
// made with demo tokens are attributed to it.
const demoUserID int64 = 1

// Handler carries the dependencies shared by all HTTP handlers. The
// store and cache may be nil; the API stays functional without them.
type Handler struct {
	engine   *engine.Engine
	db       *database.DB
	cache    *cache.Cache
	auth     *auth.Service
	payments *payment.StripeService
	logger   zerolog.Logger
}

// NewHandler wires the handler dependencies
func NewHandler(e *engine.Engine, db *database.DB, c *cache.Cache, a *auth.Service, p *payment.StripeService) *Handler {
	return &Handler{
		engine:   e,
		db:       db,
		cache:    c,
		auth:     a,
		payments: p,
		logger:   log.With().Str("component", "server").Logger(),
	}
}

// Root is the health check endpoint
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "HealthCost AI API",
		"version":   APIVersion,
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// Predict estimates insurance cost for the submitted attributes
func (h *Handler) Predict(c *gin.Context) {
	var input models.PredictionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	user := currentUser(c)
	h.logger.Info().Str("user_id", user.UserID).Msg("Prediction request")

	key := cache.Key(input)
	if cached, ok := h.cache.Get(c.Request.Context(), key); ok {
		h.logger.Info().Msg("Returning cached prediction")
		c.JSON(http.StatusOK, cached)
		return
	}

	start := time.Now()
	result, err := h.engine.Estimate(input)
	if err != nil {
		h.logger.Error().Err(err).Msg("Prediction error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Prediction calculation failed"})
		return
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	response := models.PredictionResponse{
		PredictionResult: *result,
		Timestamp:        time.Now(),
	}

	h.storePrediction(input, result, elapsed)
	h.cache.Set(c.Request.Context(), key, &response)

	h.logger.Info().
		Float64("predicted_cost", result.PredictedCost).
		Str("risk_category", result.RiskCategory).
		Msg("Prediction served")

	c.JSON(http.StatusOK, response)
}

// storePrediction persists a prediction for analytics. Best-effort: a
// storage failure is logged and the response is served anyway.
func (h *Handler) storePrediction(input models.PredictionInput, result *models.PredictionResult, elapsedMs float64) {
	if h.db == nil {
		return
	}

	record := &models.PredictionRecord{
		UserID:           demoUserID,
		Age:              input.Age,
		Sex:              input.Sex,
		BMI:              input.BMI,
		Children:         input.Children,
		Smoker:           input.Smoker,
		Region:           input.Region,
		PredictedCost:    result.PredictedCost,
		RiskCategory:     result.RiskCategory,
		ConfidenceScore:  result.ConfidenceScore,
		ModelVersion:     engine.Version,
		PredictionTimeMs: elapsedMs,
	}
	if err := h.db.StorePrediction(record); err != nil {
		h.logger.Error().Err(err).Msg("Failed to store prediction")
		return
	}
	h.logger.Info().Int64("prediction_id", record.ID).Msg("Prediction stored")
}

// HealthMetrics reports platform-wide prediction statistics
func (h *Handler) HealthMetrics(c *gin.Context) {
	metrics := &models.HealthMetrics{ModelAccuracy: 86.2}

	if h.db != nil {
		stored, err := h.db.HealthMetrics()
		if err != nil {
			h.logger.Error().Err(err).Msg("Error fetching health metrics")
		} else {
			metrics.TotalPredictions = stored.TotalPredictions
			metrics.AverageCost = roundTo(stored.AverageCost, 2)
			metrics.HighRiskPercentage = roundTo(stored.HighRiskPercentage, 1)
		}
	}

	c.JSON(http.StatusOK, metrics)
}

// History returns the caller's recent predictions
func (h *Handler) History(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records := []models.PredictionRecord{}
	if h.db != nil {
		stored, err := h.db.RecentPredictions(demoUserID, limit)
		if err != nil {
			h.logger.Error().Err(err).Msg("Error fetching prediction history")
		} else if stored != nil {
			records = stored
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions":       records,
		"total_predictions": len(records),
	})
}

// AnalyticsTrends returns aggregate dashboards data
func (h *Handler) AnalyticsTrends(c *gin.Context) {
	riskTrends := []models.RiskTrend{}
	smokingStats := []models.SmokingStat{}
	bmiStats := []models.BMIBandStat{}

	if h.db != nil {
		if trends, err := h.db.RiskTrends(); err != nil {
			h.logger.Error().Err(err).Msg("Error fetching risk trends")
		} else if trends != nil {
			for i := range trends {
				trends[i].AvgCost = roundTo(trends[i].AvgCost, 2)
			}
			riskTrends = trends
		}

		if stats, err := h.db.SmokingAnalysis(); err != nil {
			h.logger.Error().Err(err).Msg("Error fetching smoking analysis")
		} else if stats != nil {
			for i := range stats {
				stats[i].AvgCost = roundTo(stats[i].AvgCost, 2)
			}
			smokingStats = stats
		}

		if stats, err := h.db.BMIAnalysis(); err != nil {
			h.logger.Error().Err(err).Msg("Error fetching BMI analysis")
		} else if stats != nil {
			for i := range stats {
				stats[i].AvgCost = roundTo(stats[i].AvgCost, 2)
			}
			bmiStats = stats
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"risk_trends":      riskTrends,
		"smoking_analysis": smokingStats,
		"bmi_analysis":     bmiStats,
	})
}

// ModelPerformance reports evaluation metrics for the active model
func (h *Handler) ModelPerformance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"model_version":      engine.Version,
		"accuracy":           0.862,
		"precision":          0.845,
		"recall":             0.878,
		"f1_score":           0.861,
		"rmse":               4841.88,
		"mae":                2608.55,
		"feature_importance": h.engine.FeatureImportance(),
		"model_weights":      h.engine.ModelWeights(),
		"last_updated":       "2024-01-15T10:30:00Z",
	})
}

// RiskFactors describes the cost drivers and mitigation guidance
func (h *Handler) RiskFactors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"factors": []gin.H{
			{
				"name":          "Smoking",
				"impact":        "Very High",
				"description":   "Smoking is the strongest predictor of insurance costs",
				"multiplier":    "4x higher costs",
				"cost_increase": 20000,
				"health_risks":  []string{"Cancer", "Heart Disease", "Respiratory Issues"},
			},
			{
				"name":          "BMI",
				"impact":        "High",
				"description":   "Higher BMI increases medical risks",
				"threshold":     "BMI > 30 significantly increases costs",
				"cost_increase": 5000,
				"health_risks":  []string{"Diabetes", "Heart Disease", "Joint Problems"},
			},
			{
				"name":          "Age",
				"impact":        "Medium",
				"description":   "Older individuals typically have higher medical costs",
				"trend":         "Linear increase with age",
				"cost_increase": 100,
				"health_risks":  []string{"Chronic Conditions", "Mobility Issues", "Cognitive Decline"},
			},
			{
				"name":          "Region",
				"impact":        "Low",
				"description":   "Geographic location affects healthcare costs",
				"variation":     "Up to 15% difference between regions",
				"cost_increase": 1500,
				"factors":       []string{"Cost of Living", "Healthcare Availability", "Population Density"},
			},
		},
		"recommendations": gin.H{
			"smoking":         "Quit smoking programs can reduce costs by up to $15,000 annually",
			"weight":          "Maintaining healthy BMI (18.5-24.9) can save $3,000-$8,000 per year",
			"exercise":        "Regular exercise reduces risk factors and insurance costs",
			"preventive_care": "Annual check-ups can catch issues early and reduce long-term costs",
		},
	})
}

// Feedback accepts free-form user feedback for model improvement
func (h *Handler) Feedback(c *gin.Context) {
	var feedback map[string]interface{}
	if err := c.ShouldBindJSON(&feedback); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	user := currentUser(c)
	h.logger.Info().
		Str("user_id", user.UserID).
		Interface("feedback", feedback).
		Msg("Feedback received")

	sum := md5.Sum([]byte(fmt.Sprint(feedback)))
	c.JSON(http.StatusOK, gin.H{
		"message":     "Feedback received successfully",
		"status":      "success",
		"feedback_id": hex.EncodeToString(sum[:])[:8],
	})
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates an account and returns a bearer token
func (h *Handler) Register(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Registration unavailable"})
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	if req.Username == "" {
		req.Username = req.Email
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Registration failed"})
		return
	}

	user, err := h.db.CreateUser(req.Email, req.Username, hash)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusConflict, gin.H{"detail": "Account already exists"})
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login verifies credentials and returns a bearer token
func (h *Handler) Login(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Login unavailable"})
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("Login lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Login failed"})
		return
	}
	if user == nil || !user.IsActive || auth.CheckPassword(user.HashedPassword, req.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// CreateCheckout starts a Stripe checkout session for a premium upgrade
func (h *Handler) CreateCheckout(c *gin.Context) {
	if h.payments == nil || !h.payments.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Billing is not configured"})
		return
	}

	user := currentUser(c)
	userID, err := strconv.ParseInt(user.UserID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "A registered account is required to upgrade"})
		return
	}

	sessionID, url, err := h.payments.CreateCheckoutSession(userID, user.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create checkout session")
		c.JSON(http.StatusBadGateway, gin.H{"detail": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "checkout_url": url})
}

// StripeWebhook applies premium-flag changes signalled by Stripe
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.payments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Billing is not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Error reading request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Stripe-Signature header required"})
		return
	}

	event, err := h.payments.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid signature"})
		return
	}

	userID, premium, handled, err := h.payments.ProcessPremiumEvent(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to process webhook event")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Failed to process event"})
		return
	}
	if handled && h.db != nil {
		if err := h.db.SetPremium(userID, premium); err != nil {
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to update premium flag")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to apply event"})
			return
		}
		h.logger.Info().Int64("user_id", userID).Bool("premium", premium).Msg("Premium flag updated")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
