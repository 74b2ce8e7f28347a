package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/healthcost-ai/backend/internal/auth"
	"github.com/healthcost-ai/backend/internal/database"
	"github.com/healthcost-ai/backend/models"
)

const userContextKey = "user"

// CORS restricts browser access to the configured origins
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	})
}

// Metrics logs every API call and stores a measurement row. Storage is
// best-effort: a broken metrics table never fails a request.
func Metrics(db *database.DB) gin.HandlerFunc {
	logger := log.With().Str("component", "api").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		c.Next()

		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		logger.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Float64("duration_ms", elapsed).
			Msg("API call")

		if db != nil {
			metric := &models.APIMetric{
				RequestID:      requestID,
				Endpoint:       c.Request.URL.Path,
				Method:         c.Request.Method,
				StatusCode:     c.Writer.Status(),
				ResponseTimeMs: elapsed,
				IPAddress:      c.ClientIP(),
				UserAgent:      c.Request.UserAgent(),
			}
			if err := db.RecordAPIMetric(metric); err != nil {
				logger.Warn().Err(err).Msg("Failed to store API metric")
			}
		}
	}
}

// RateLimit enforces a per-client request budget
func RateLimit(rps, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RequireAuth demands a bearer token. Tokens issued by this service
// resolve to their real profile; anything else resolves to the demo
// profile, preserving the accept-any-token demo behavior.
func RequireAuth(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		profile, err := authSvc.ParseToken(token)
		if err != nil {
			demo := auth.DemoProfile()
			profile = &demo
		}

		c.Set(userContextKey, *profile)
		c.Next()
	}
}

// currentUser returns the profile the auth middleware attached
func currentUser(c *gin.Context) models.UserProfile {
	if v, ok := c.Get(userContextKey); ok {
		if profile, ok := v.(models.UserProfile); ok {
			return profile
		}
	}
	return auth.DemoProfile()
}
