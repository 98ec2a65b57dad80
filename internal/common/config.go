package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-ledger/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Catalog  CatalogConfig
	Images   ImageConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// LLMConfig holds vision provider configuration
type LLMConfig struct {
	Provider      string // gemini | openai
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
	MaxAttempts   int
}

// CatalogConfig holds the product catalog (Open Food Facts) configuration
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ImageConfig holds where receipt images live and how they are exposed
type ImageConfig struct {
	Root          string
	PublicBaseURL string
}

// PipelineConfig holds receipt processing behavior flags
type PipelineConfig struct {
	UnknownRecipe      constants.UnknownRecipePolicy
	ReconcileTolerance decimal.Decimal
}

// QueueConfig holds async worker settings
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	policy, _ := constants.ParseUnknownRecipePolicy(getEnv("SCOPE_UNKNOWN_RECIPE", string(constants.UnknownRecipeUnscoped)))
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MaxAttempts:   getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
		},
		Catalog: CatalogConfig{
			BaseURL: getEnv("OFF_BASE_URL", "https://br.openfoodfacts.org"),
			Timeout: getEnvAsDuration("OFF_TIMEOUT", 10*time.Second),
		},
		Images: ImageConfig{
			Root:          getEnv("IMAGE_ROOT", "./storage/images"),
			PublicBaseURL: getEnv("IMAGE_PUBLIC_BASE_URL", ""),
		},
		Pipeline: PipelineConfig{
			UnknownRecipe:      policy,
			ReconcileTolerance: getEnvAsDecimal("RECONCILE_TOLERANCE", decimal.RequireFromString("0.01")),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return NewAppError(CodeConfig, "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if _, ok := constants.ParseUnknownRecipePolicy(os.Getenv("SCOPE_UNKNOWN_RECIPE")); !ok {
		return NewAppError(CodeConfig, "SCOPE_UNKNOWN_RECIPE must be unscoped, empty or fail", ErrInvalidInput)
	}
	if c.Pipeline.ReconcileTolerance.IsNegative() {
		return NewAppError(CodeConfig, "RECONCILE_TOLERANCE must not be negative", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
