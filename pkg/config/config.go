package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	MongoURI     string
	DatabaseName string

	// Collections
	OverFeaturesCollection string
	MatchesCollection      string

	// Artifact locations
	ModelsDir    string
	ReportsDir   string
	RegistryPath string

	// Training configuration
	TestSize       float64
	ValidationSize float64
	CVFolds        int
	RandomState    int64

	// Data processing
	MinSamplesPerMatch int
	MaxMissingRatio    float64
	OutlierThreshold   float64

	// Serving
	Port            string
	RetrainSchedule string // cron expression, empty disables scheduled retraining

	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017/sanjib-agent"),
		DatabaseName: getEnv("DATABASE_NAME", "sanjib-agent"),

		OverFeaturesCollection: getEnv("OVER_FEATURES_COLLECTION", "overfeatures"),
		MatchesCollection:      getEnv("MATCHES_COLLECTION", "matches"),

		ModelsDir:    getEnv("MODELS_DIR", "models"),
		ReportsDir:   getEnv("REPORTS_DIR", "reports"),
		RegistryPath: getEnv("REGISTRY_PATH", "models/registry.db"),

		TestSize:       getEnvAsFloat("TEST_SIZE", 0.2),
		ValidationSize: getEnvAsFloat("VALIDATION_SIZE", 0.2),
		CVFolds:        getEnvAsInt("CV_FOLDS", 5),
		RandomState:    int64(getEnvAsInt("RANDOM_STATE", 42)),

		MinSamplesPerMatch: getEnvAsInt("MIN_SAMPLES_PER_MATCH", 10),
		MaxMissingRatio:    getEnvAsFloat("MAX_MISSING_RATIO", 0.3),
		OutlierThreshold:   getEnvAsFloat("OUTLIER_THRESHOLD", 3),

		Port:            getEnv("PORT", "5001"),
		RetrainSchedule: getEnv("RETRAIN_SCHEDULE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if config.TestSize <= 0 || config.TestSize >= 1 {
		return nil, fmt.Errorf("TEST_SIZE must be in (0, 1), got %v", config.TestSize)
	}
	if config.ValidationSize <= 0 || config.ValidationSize >= 1 {
		return nil, fmt.Errorf("VALIDATION_SIZE must be in (0, 1), got %v", config.ValidationSize)
	}
	if config.TestSize+config.ValidationSize >= 1 {
		return nil, fmt.Errorf("TEST_SIZE + VALIDATION_SIZE must be below 1")
	}
	if config.CVFolds < 2 {
		return nil, fmt.Errorf("CV_FOLDS must be at least 2, got %d", config.CVFolds)
	}

	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
