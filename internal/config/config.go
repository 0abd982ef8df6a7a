package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	StoreMemory = "memory"
	StoreNeo4j  = "neo4j"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Model endpoint
	Provider        string
	AnthropicAPIKey string
	Model           string
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	MaxTokens       int
	Temperature     float64
	MaxRetries      int

	// Orchestration
	MaxToolRounds   int
	ToolConcurrency int
	MaxHistory      int
	MaxResults      int

	// Retrieval
	Store         string
	CatalogPath   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// CLI
	SessionPath string
}

// ValidationError names the offending setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		Env:             getEnv("ENV", "development"),
		Provider:        strings.ToLower(getEnv("AGT_PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		Model:           getEnv("AGT_MODEL", "claude-sonnet-4-20250514"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "http://localhost:4000/v1"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		MaxTokens:       getEnvInt("AGT_MAX_TOKENS", 800),
		Temperature:     getEnvFloat("AGT_TEMPERATURE", 0),
		MaxRetries:      getEnvInt("AGT_MAX_RETRIES", 2),
		MaxToolRounds:   getEnvInt("AGT_MAX_TOOL_ROUNDS", 2),
		ToolConcurrency: getEnvInt("AGT_TOOL_CONCURRENCY", 4),
		MaxHistory:      getEnvInt("AGT_MAX_HISTORY", 2),
		MaxResults:      getEnvInt("AGT_MAX_RESULTS", 5),
		Store:           strings.ToLower(getEnv("AGT_STORE", StoreMemory)),
		CatalogPath:     getEnv("AGT_CATALOG_PATH", "courses.yaml"),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", ""),
		SessionPath:     getEnv("AGT_SESSION_PATH", ".agent/session.json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate returns a *ValidationError for the first bad setting.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return &ValidationError{Field: "ANTHROPIC_API_KEY", Reason: "is required for the anthropic provider"}
		}
	case ProviderOpenAI:
		if c.OpenAIBaseURL == "" {
			return &ValidationError{Field: "OPENAI_BASE_URL", Reason: "is required for the openai provider"}
		}
	default:
		return &ValidationError{Field: "AGT_PROVIDER", Reason: fmt.Sprintf("must be %q or %q, got %q", ProviderAnthropic, ProviderOpenAI, c.Provider)}
	}
	if c.Model == "" {
		return &ValidationError{Field: "AGT_MODEL", Reason: "is required"}
	}
	if c.MaxTokens <= 0 {
		return &ValidationError{Field: "AGT_MAX_TOKENS", Reason: "must be positive"}
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"AGT_MAX_RETRIES", c.MaxRetries},
		{"AGT_MAX_TOOL_ROUNDS", c.MaxToolRounds},
		{"AGT_TOOL_CONCURRENCY", c.ToolConcurrency},
		{"AGT_MAX_HISTORY", c.MaxHistory},
		{"AGT_MAX_RESULTS", c.MaxResults},
	} {
		if f.v < 0 {
			return &ValidationError{Field: f.name, Reason: "cannot be negative"}
		}
	}
	switch c.Store {
	case StoreMemory:
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return &ValidationError{Field: "NEO4J_URI", Reason: "is required for the neo4j store"}
		}
	default:
		return &ValidationError{Field: "AGT_STORE", Reason: fmt.Sprintf("must be %q or %q, got %q", StoreMemory, StoreNeo4j, c.Store)}
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
