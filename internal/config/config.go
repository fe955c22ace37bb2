// Package config provides environment configuration for the coach services.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCompletionKey is returned by Validate when no completion-service key is configured.
var ErrMissingCompletionKey = errors.New("config: OPENAI_API_KEY or ANTHROPIC_API_KEY must be set")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Database settings
	DatabaseDriver string
	DatabaseDSN    string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// LLM settings
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	DefaultLLM        string
	CoachModel        string
	CoachMaxTokens    int
	CoachTemperature  float64
	CompletionTimeout time.Duration

	// Coach pipeline
	CollaboratorBaseURL string
	CollaboratorTimeout time.Duration
	PendingActionTTL    time.Duration

	// Worker
	WorkerDurableName string
	WorkerMaxDeliver  int

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables, after loading a .env file when present.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")

	return &Config{
		// Server
		ServerPort:         port,
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Database
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "data/coach.db"),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// LLM
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		DefaultLLM:        getEnv("DEFAULT_LLM", "openai"),
		CoachModel:        getEnv("COACH_MODEL", ""),
		CoachMaxTokens:    getIntEnv("COACH_MAX_TOKENS", 1000),
		CoachTemperature:  getFloatEnv("COACH_TEMPERATURE", 0.7),
		CompletionTimeout: getDurationEnv("COMPLETION_TIMEOUT", 60*time.Second),

		// Coach pipeline
		CollaboratorBaseURL: getEnv("COLLABORATOR_BASE_URL", "http://localhost:"+port),
		CollaboratorTimeout: getDurationEnv("COLLABORATOR_TIMEOUT", 90*time.Second),
		PendingActionTTL:    getDurationEnv("PENDING_ACTION_TTL", 24*time.Hour),

		// Worker
		WorkerDurableName: getEnv("WORKER_DURABLE_NAME", "coach-worker"),
		WorkerMaxDeliver:  getIntEnv("WORKER_MAX_DELIVER", 5),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// CORS
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate checks settings the API cannot run without.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" && c.AnthropicAPIKey == "" {
		return ErrMissingCompletionKey
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return errors.New("config: DATABASE_DRIVER must be sqlite or postgres")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
