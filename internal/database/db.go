package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/healthcost-ai/backend/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			username TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS predictions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			age INT NOT NULL,
			sex TEXT NOT NULL,
			bmi DOUBLE PRECISION NOT NULL,
			children INT NOT NULL,
			smoker TEXT NOT NULL,
			region TEXT NOT NULL,
			predicted_cost DOUBLE PRECISION NOT NULL,
			risk_category TEXT NOT NULL,
			confidence_score DOUBLE PRECISION NOT NULL,
			model_version TEXT NOT NULL DEFAULT '1.0.0',
			prediction_time_ms DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS api_metrics (
			id BIGSERIAL PRIMARY KEY,
			request_id TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			status_code INT NOT NULL,
			response_time_ms DOUBLE PRECISION NOT NULL,
			ip_address TEXT NOT NULL,
			user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)

	return err
}

// SeedDemoUser creates the demo account when the users table is empty
func (db *DB) SeedDemoUser(email, username, hashedPassword string) error {
	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO users (email, username, hashed_password, is_active, is_premium)
		VALUES ($1, $2, $3, TRUE, FALSE)
	`, email, username, hashedPassword)

	return err
}

// CreateUser inserts a new user and returns it with its assigned id
func (db *DB) CreateUser(email, username, hashedPassword string) (*models.User, error) {
	user := &models.User{
		Email:          email,
		Username:       username,
		HashedPassword: hashedPassword,
		IsActive:       true,
	}

	err := db.QueryRow(`
		INSERT INTO users (email, username, hashed_password)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, email, username, hashedPassword).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email, or nil when not found
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	err := db.QueryRow(`
		SELECT id, email, username, hashed_password, is_active, is_premium, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.Username, &user.HashedPassword,
		&user.IsActive, &user.IsPremium, &user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// SetPremium updates a user's premium flag
func (db *DB) SetPremium(userID int64, premium bool) error {
	_, err := db.Exec(`
		UPDATE users
		SET is_premium = $1
		WHERE id = $2
	`, premium, userID)

	return err
}

// StorePrediction persists a prediction record and fills in its id
func (db *DB) StorePrediction(rec *models.PredictionRecord) error {
	return db.QueryRow(`
		INSERT INTO predictions (
			user_id, age, sex, bmi, children, smoker, region,
			predicted_cost, risk_category, confidence_score,
			model_version, prediction_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`,
		rec.UserID, rec.Age, rec.Sex, rec.BMI, rec.Children, rec.Smoker, rec.Region,
		rec.PredictedCost, rec.RiskCategory, rec.ConfidenceScore,
		rec.ModelVersion, rec.PredictionTimeMs,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// RecentPredictions returns a user's latest predictions, newest first
func (db *DB) RecentPredictions(userID int64, limit int) ([]models.PredictionRecord, error) {
	rows, err := db.Query(`
		SELECT id, user_id, age, sex, bmi, children, smoker, region,
		       predicted_cost, risk_category, confidence_score,
		       model_version, prediction_time_ms, created_at
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		var rec models.PredictionRecord
		var predictionTime sql.NullFloat64

		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Age, &rec.Sex, &rec.BMI, &rec.Children,
			&rec.Smoker, &rec.Region, &rec.PredictedCost, &rec.RiskCategory,
			&rec.ConfidenceScore, &rec.ModelVersion, &predictionTime, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		if predictionTime.Valid {
			rec.PredictionTimeMs = predictionTime.Float64
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// HealthMetrics computes platform-wide prediction statistics
func (db *DB) HealthMetrics() (*models.HealthMetrics, error) {
	var metrics models.HealthMetrics
	var avgCost sql.NullFloat64
	var highRiskCount int64

	err := db.QueryRow(`
		SELECT COUNT(*),
		       AVG(predicted_cost),
		       COUNT(*) FILTER (WHERE risk_category IN ($1, $2))
		FROM predictions
	`, models.RiskHigh, models.RiskVeryHigh).Scan(
		&metrics.TotalPredictions, &avgCost, &highRiskCount,
	)
	if err != nil {
		return nil, err
	}

	if avgCost.Valid {
		metrics.AverageCost = avgCost.Float64
	}
	if metrics.TotalPredictions > 0 {
		metrics.HighRiskPercentage = float64(highRiskCount) / float64(metrics.TotalPredictions) * 100
	}

	return &metrics, nil
}

// RiskTrends returns average cost and volume grouped by risk category
func (db *DB) RiskTrends() ([]models.RiskTrend, error) {
	rows, err := db.Query(`
		SELECT risk_category, AVG(predicted_cost), COUNT(*)
		FROM predictions
		GROUP BY risk_category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []models.RiskTrend
	for rows.Next() {
		var trend models.RiskTrend
		if err := rows.Scan(&trend.Category, &trend.AvgCost, &trend.Count); err != nil {
			return nil, err
		}
		trends = append(trends, trend)
	}

	return trends, rows.Err()
}

// SmokingAnalysis returns average cost and volume grouped by smoker flag
func (db *DB) SmokingAnalysis() ([]models.SmokingStat, error) {
	rows, err := db.Query(`
		SELECT smoker, AVG(predicted_cost), COUNT(*)
		FROM predictions
		GROUP BY smoker
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.SmokingStat
	for rows.Next() {
		var stat models.SmokingStat
		if err := rows.Scan(&stat.Smoker, &stat.AvgCost, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// BMIAnalysis returns average cost and volume per BMI band
func (db *DB) BMIAnalysis() ([]models.BMIBandStat, error) {
	rows, err := db.Query(`
		SELECT band, AVG(predicted_cost), COUNT(*)
		FROM (
			SELECT predicted_cost,
			       CASE
			           WHEN bmi < 18.5 THEN 'Underweight'
			           WHEN bmi < 25 THEN 'Normal'
			           WHEN bmi < 30 THEN 'Overweight'
			           ELSE 'Obese'
			       END AS band
			FROM predictions
		) banded
		GROUP BY band
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.BMIBandStat
	for rows.Next() {
		var stat models.BMIBandStat
		if err := rows.Scan(&stat.Category, &stat.AvgCost, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// RecordAPIMetric stores one API call measurement
func (db *DB) RecordAPIMetric(m *models.APIMetric) error {
	var userAgent sql.NullString
	if m.UserAgent != "" {
		userAgent = sql.NullString{String: m.UserAgent, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO api_metrics (
			request_id, endpoint, method, status_code, response_time_ms, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.RequestID, m.Endpoint, m.Method, m.StatusCode, m.ResponseTimeMs, m.IPAddress, userAgent)

	return err
}
