package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service. It is loaded
// once at startup and injected into components as an immutable snapshot;
// nothing reads ambient process state at call time.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	AI           AIConfig
	Retrieval    RetrievalConfig
	WebSearch    WebSearchConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AIConfig configures the external classifier adapter. Each stage can be
// disabled independently; a disabled stage routes straight to its
// deterministic fallback.
type AIConfig struct {
	Endpoint             string
	APIKey               string
	Model                string
	Temperature          float64
	MaxTokens            int
	TimeoutSeconds       int
	ModerationEnabled    bool
	RoutingEnabled       bool
	SummarizationEnabled bool
	// ModerationFailClosed rejects submissions when the moderation
	// classifier is unavailable instead of letting them through.
	ModerationFailClosed bool
	ModerationThreshold  float64
	RoutingThreshold     float64
	MisuseFlagThreshold  int
}

// RetrievalConfig configures the knowledge index.
type RetrievalConfig struct {
	EmbeddingModel      string
	TopK                int
	SimilarityThreshold float64
}

// WebSearchConfig configures the external web search provider.
type WebSearchConfig struct {
	Enabled        bool
	Endpoint       string
	APIKey         string
	TopK           int
	TimeoutSeconds int
}

// NotificationConfig configures fan-out workers and the delivery sink.
type NotificationConfig struct {
	WebhookURL             string
	DeliveryTimeoutSeconds int
	QueueSize              int
	Workers                int
	HandlerTimeoutSeconds  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-ai"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		AI: AIConfig{
			Endpoint:             getEnv("AI_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:               os.Getenv("AI_API_KEY"),
			Model:                getEnv("AI_MODEL", "gpt-4o-mini"),
			Temperature:          getEnvAsFloat("AI_TEMPERATURE", 0.0),
			MaxTokens:            getEnvAsInt("AI_MAX_TOKENS", 1024),
			TimeoutSeconds:       getEnvAsInt("AI_TIMEOUT_SECONDS", 30),
			ModerationEnabled:    getEnvAsBool("AI_MODERATION_ENABLED", true),
			RoutingEnabled:       getEnvAsBool("AI_ROUTING_ENABLED", true),
			SummarizationEnabled: getEnvAsBool("AI_SUMMARIZATION_ENABLED", true),
			ModerationFailClosed: getEnvAsBool("AI_MODERATION_FAIL_CLOSED", false),
			ModerationThreshold:  getEnvAsFloat("AI_MODERATION_THRESHOLD", 0.7),
			RoutingThreshold:     getEnvAsFloat("AI_ROUTING_THRESHOLD", 0.5),
			MisuseFlagThreshold:  getEnvAsInt("AI_MISUSE_FLAG_THRESHOLD", 3),
		},
		Retrieval: RetrievalConfig{
			EmbeddingModel:      getEnv("RETRIEVAL_EMBEDDING_MODEL", "text-embedding-3-small"),
			TopK:                getEnvAsInt("RETRIEVAL_TOP_K", 3),
			SimilarityThreshold: getEnvAsFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.75),
		},
		WebSearch: WebSearchConfig{
			Enabled:        getEnvAsBool("WEBSEARCH_ENABLED", false),
			Endpoint:       os.Getenv("WEBSEARCH_ENDPOINT"),
			APIKey:         os.Getenv("WEBSEARCH_API_KEY"),
			TopK:           getEnvAsInt("WEBSEARCH_TOP_K", 3),
			TimeoutSeconds: getEnvAsInt("WEBSEARCH_TIMEOUT_SECONDS", 10),
		},
		Notification: NotificationConfig{
			WebhookURL:             os.Getenv("NOTIFY_WEBHOOK_URL"),
			DeliveryTimeoutSeconds: getEnvAsInt("NOTIFY_DELIVERY_TIMEOUT_SECONDS", 10),
			QueueSize:              getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			Workers:                getEnvAsInt("NOTIFY_WORKERS", 4),
			HandlerTimeoutSeconds:  getEnvAsInt("NOTIFY_HANDLER_TIMEOUT_SECONDS", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the classifier call timeout.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Timeout returns the web search call timeout.
func (w WebSearchConfig) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// DeliveryTimeout returns the delivery sink call timeout.
func (n NotificationConfig) DeliveryTimeout() time.Duration {
	if n.DeliveryTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.DeliveryTimeoutSeconds) * time.Second
}

// HandlerTimeout bounds a single background event handler invocation.
func (n NotificationConfig) HandlerTimeout() time.Duration {
	if n.HandlerTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(n.HandlerTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
