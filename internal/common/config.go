package common

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Extraction ExtractionConfig
	Vocabulary VocabularyConfig
	Batch      BatchConfig
}

// ExtractionConfig holds pipeline thresholds and behavior flags.
type ExtractionConfig struct {
	MinConfidenceThreshold  float64
	HighConfidenceThreshold float64
	AutoValidate            bool
	EnableGuidedCorrection  bool
	EnableTemplateMatching  bool
	// MaxCorrelationDistance is the maximum vertical distance (in PDF user
	// units) across which a material label is matched to a depth label.
	MaxCorrelationDistance float64
}

// VocabularyConfig holds the injected unit and material tables.
// Empty slices/maps mean "use the built-in defaults".
type VocabularyConfig struct {
	Materials []string           `yaml:"materials"`
	Units     map[string]float64 `yaml:"units"`
}

// BatchConfig holds settings for the batch ingestion tool.
type BatchConfig struct {
	DBPath          string
	TemplateDir     string
	WatchDebounceMS int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			MinConfidenceThreshold:  getEnvAsFloat("MIN_CONFIDENCE_THRESHOLD", 0.5),
			HighConfidenceThreshold: getEnvAsFloat("HIGH_CONFIDENCE_THRESHOLD", 0.8),
			AutoValidate:            getEnvAsBool("AUTO_VALIDATE", true),
			EnableGuidedCorrection:  getEnvAsBool("ENABLE_GUIDED_CORRECTION", true),
			EnableTemplateMatching:  getEnvAsBool("ENABLE_TEMPLATE_MATCHING", true),
			MaxCorrelationDistance:  getEnvAsFloat("MAX_CORRELATION_DISTANCE", 50),
		},
		Batch: BatchConfig{
			DBPath:          getEnv("BORELOG_DB", "borelog.db"),
			TemplateDir:     getEnv("TEMPLATE_DIR", ""),
			WatchDebounceMS: getEnvAsInt("WATCH_DEBOUNCE_MS", 500),
		},
	}
}

// LoadVocabulary reads an optional YAML vocabulary override file so
// locale-specific unit and material tables can be injected without a rebuild.
func LoadVocabulary(path string) (VocabularyConfig, error) {
	var v VocabularyConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read vocabulary file: %w", err)
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse vocabulary file: %w", err)
	}
	return v, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Extraction.MinConfidenceThreshold < 0 || c.Extraction.MinConfidenceThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "MIN_CONFIDENCE_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Extraction.HighConfidenceThreshold < c.Extraction.MinConfidenceThreshold {
		return NewAppError("CONFIG_ERROR", "HIGH_CONFIDENCE_THRESHOLD must be >= MIN_CONFIDENCE_THRESHOLD", ErrInvalidInput)
	}
	return nil
}
