package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/studiumlab/tutor-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// API key expected from the platform on pipeline endpoints.
	// Empty disables authentication (local runs).
	PipelineAPIKey string `env:"API_KEY"`

	// External service configurations
	LLMCfg         LLMConnectorConfig         `envPrefix:"LLM_"`
	VectorStoreCfg VectorStoreConnectorConfig `envPrefix:"VECTORSTORE_"`
	CallbackCfg    CallbackConnectorConfig    `envPrefix:"CALLBACK_"`

	// Retrieval defaults
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// LLMConnectorConfig configures the chat-completion and embedding provider
type LLMConnectorConfig struct {
	APIKey         string               `env:"API_KEY,notEmpty"`
	BaseURL        string               `env:"BASE_URL"`
	ChatModel      string               `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string               `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	RequestTimeout time.Duration        `env:"TIMEOUT" envDefault:"60s"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// VectorStoreConnectorConfig configures the lecture-index connector
type VectorStoreConnectorConfig struct {
	HTTPClientConfig
	ClassName        string        `env:"CLASS_NAME" envDefault:"LectureSlides"`
	LanguageCacheTTL time.Duration `env:"LANGUAGE_CACHE_TTL" envDefault:"10m"`
}

// CallbackConnectorConfig configures status updates sent back to the platform.
// The base URL comes from each run's execution settings; only the path
// template is configured here ("%s" is replaced with the run token).
type CallbackConnectorConfig struct {
	HTTPClientConfig
	StatusPathTemplate string `env:"STATUS_PATH_TEMPLATE" envDefault:"/api/public/pipelines/tutor-chat/runs/%s/status"`
}

// RetrievalConfig carries retrieval pipeline defaults
type RetrievalConfig struct {
	ResultLimit        int     `env:"RESULT_LIMIT" envDefault:"10"`
	HybridAlpha        float64 `env:"HYBRID_ALPHA" envDefault:"0.5"`
	HistoryTokenBudget int     `env:"HISTORY_TOKEN_BUDGET" envDefault:"2000"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"30s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.RetrievalCfg.ResultLimit < 1 || cfg.RetrievalCfg.ResultLimit > 100 {
		return fmt.Errorf("RETRIEVAL_RESULT_LIMIT must be between 1 and 100, got %d", cfg.RetrievalCfg.ResultLimit)
	}

	if cfg.RetrievalCfg.HybridAlpha < 0 || cfg.RetrievalCfg.HybridAlpha > 1 {
		return fmt.Errorf("RETRIEVAL_HYBRID_ALPHA must be between 0 and 1, got %f", cfg.RetrievalCfg.HybridAlpha)
	}

	if !cfg.EnableMocks && cfg.VectorStoreCfg.Url == "" {
		return fmt.Errorf("VECTORSTORE_SERVICE_URL must be set when mocks are disabled")
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
