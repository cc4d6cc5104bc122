package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Rules    RulesConfig
	Quality  QualityConfig
	Chunking ChunkingConfig
	Parsers  ParsersConfig
	LLM      LLMConfig
}

// RulesConfig locates the rule store asset.
type RulesConfig struct {
	Path string
}

// QualityConfig holds quality-gate weights and threshold.
type QualityConfig struct {
	Threshold          float64
	CompletenessWeight float64
	ConfidenceWeight   float64
	StructureWeight    float64
	RetryTimeout       time.Duration
}

// ChunkingConfig holds chunker sizing parameters (characters).
type ChunkingConfig struct {
	ChunkSize         int
	ChunkOverlap      int
	BoundaryTolerance int
}

// ParsersConfig holds endpoints for the external parser services.
type ParsersConfig struct {
	StructuredURL string
	VisionURL     string
	Timeout       time.Duration
}

// LLMConfig holds extraction-model configuration.
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			Path: getEnv("RULES_PATH", "configs/validation_rules.yaml"),
		},
		Quality: QualityConfig{
			Threshold:          getEnvAsFloat64("QUALITY_THRESHOLD", 0.85),
			CompletenessWeight: getEnvAsFloat64("QUALITY_COMPLETENESS_WEIGHT", 0.40),
			ConfidenceWeight:   getEnvAsFloat64("QUALITY_CONFIDENCE_WEIGHT", 0.30),
			StructureWeight:    getEnvAsFloat64("QUALITY_STRUCTURE_WEIGHT", 0.30),
			RetryTimeout:       getEnvAsDuration("QUALITY_RETRY_TIMEOUT", 2*time.Minute),
		},
		Chunking: ChunkingConfig{
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 3500),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 250),
			BoundaryTolerance: getEnvAsInt("CHUNK_BOUNDARY_TOLERANCE", 500),
		},
		Parsers: ParsersConfig{
			StructuredURL: getEnv("PARSER_STRUCTURED_URL", ""),
			VisionURL:     getEnv("PARSER_VISION_URL", ""),
			Timeout:       getEnvAsDuration("PARSER_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
	}
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Rules.Path == "" {
		return NewAppError("CONFIG_ERROR", "RULES_PATH is required", ErrInvalidInput)
	}
	if c.Quality.Threshold <= 0 || c.Quality.Threshold > 1 {
		return NewAppError("CONFIG_ERROR", "QUALITY_THRESHOLD must be in (0,1]", ErrInvalidInput)
	}
	sum := c.Quality.CompletenessWeight + c.Quality.ConfidenceWeight + c.Quality.StructureWeight
	if sum < 0.999 || sum > 1.001 {
		return NewAppError("CONFIG_ERROR", "quality weights must sum to 1.0", ErrInvalidInput)
	}
	if c.Chunking.ChunkSize <= 0 {
		return NewAppError("CONFIG_ERROR", "CHUNK_SIZE must be positive", ErrInvalidInput)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return NewAppError("CONFIG_ERROR", "CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrInvalidInput)
	}
	return nil
}
