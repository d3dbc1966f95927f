package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Session   SessionConfig
	Ingestion IngestionConfig
	Cleanup   CleanupConfig
	Ai        AIConfig
	Keys      APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type UploadConfig struct {
	Dir           string
	MaxFiles      int
	MaxFileSizeMB int
}

type SessionConfig struct {
	TTL time.Duration
}

type IngestionConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	EmbeddingDimension int
	Concurrency        int
	MaxAttempts        int
	BackoffBase        time.Duration
}

type CleanupConfig struct {
	Interval time.Duration
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "openai"
	EmbeddingModel    string
	LLMProvider       string // "gemini" or "openai"
	LLMModel          string
	TopK              int
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", "uploads"),
			MaxFiles:      getEnvAsInt("UPLOAD_MAX_FILES", 10),
			MaxFileSizeMB: getEnvAsInt("UPLOAD_MAX_FILE_SIZE_MB", 10),
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		},
		Ingestion: IngestionConfig{
			ChunkSize:          getEnvAsInt("CHUNK_SIZE", 1200),
			ChunkOverlap:       getEnvAsInt("CHUNK_OVERLAP", 120),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
			Concurrency:        getEnvAsInt("INGESTION_CONCURRENCY", 5),
			MaxAttempts:        getEnvAsInt("INGESTION_MAX_ATTEMPTS", 3),
			BackoffBase:        getEnvAsDuration("INGESTION_BACKOFF_BASE", 2*time.Second),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-2.5-flash"),
			TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 5),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	// Plain numbers are taken as seconds.
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
