package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Dedup    DedupConfig
	Auth     AuthConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

func (c AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	JinaAI        string
	BackfillTopic string // Embedding backfill topic
}

type AIConfig struct {
	EmbeddingProvider   string // "jina", "clip" or "hash"
	EmbeddingDimensions int
	EmbeddingTimeout    time.Duration
	EmbeddingCacheTTL   time.Duration
	ClipBaseURL         string
	ClipModel           string
}

type DedupConfig struct {
	// Threshold and Limit apply to the pre-submission gate.
	Threshold float64
	Limit     int
	MaxImages int
	// SimilarThreshold and SimilarLimit are the standalone lookup defaults.
	SimilarThreshold  float64
	SimilarLimit      int
	PopulationTimeout time.Duration
	// Ranker is "exact" or "pgvector".
	Ranker        string
	PrefilterSize int
}

// TracingConfig controls the OTLP exporter. Tracing is off unless Enabled.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

type AuthConfig struct {
	JwtSecret string
	TokenTTL  time.Duration
	OtpTTL    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "MetroCare"),
		},
		Keys: APIKeys{
			JinaAI:        getEnv("JINA_API_KEY", ""),
			BackfillTopic: getEnv("EMBED_REPORT_IMAGE_TOPIC_NAME", "EMBED_REPORT_IMAGE"),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "hash"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 512),
			EmbeddingTimeout:    getEnvAsDuration("EMBEDDING_TIMEOUT", 10*time.Second),
			EmbeddingCacheTTL:   getEnvAsDuration("EMBEDDING_CACHE_TTL", 30*time.Minute),
			ClipBaseURL:         getEnv("CLIP_BASE_URL", "http://localhost:51000"),
			ClipModel:           getEnv("CLIP_MODEL", "ViT-B-32"),
		},
		Dedup: DedupConfig{
			Threshold:         getEnvAsFloat("DEDUP_THRESHOLD", 0.7),
			Limit:             getEnvAsInt("DEDUP_LIMIT", 3),
			MaxImages:         getEnvAsInt("DEDUP_MAX_IMAGES", 5),
			SimilarThreshold:  getEnvAsFloat("SIMILAR_THRESHOLD", 0.8),
			SimilarLimit:      getEnvAsInt("SIMILAR_LIMIT", 5),
			PopulationTimeout: getEnvAsDuration("DEDUP_POPULATION_TIMEOUT", 5*time.Second),
			Ranker:            getEnv("DEDUP_RANKER", "exact"),
			PrefilterSize:     getEnvAsInt("DEDUP_PREFILTER_SIZE", 100),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 30*24*time.Hour),
			OtpTTL:    getEnvAsDuration("OTP_TTL", 10*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "metrocare-be"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
