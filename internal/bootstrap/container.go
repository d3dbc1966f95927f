package bootstrap

import (
	"context"
	"log"
	"time"

	"pdf-rag-be/internal/config"
	"pdf-rag-be/internal/controller"
	"pdf-rag-be/internal/pkg/logger"
	"pdf-rag-be/internal/repository/contract"
	"pdf-rag-be/internal/repository/implementation"
	"pdf-rag-be/internal/service"
	"pdf-rag-be/pkg/document"
	"pdf-rag-be/pkg/embedding"
	"pdf-rag-be/pkg/llm/factory"
	"pdf-rag-be/pkg/metrics"
	"pdf-rag-be/pkg/queue"
	"pdf-rag-be/pkg/queue/channel"
	"pdf-rag-be/pkg/queue/jetstream"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RagController controller.IRagController

	// Background Services (Exposed for main.go to run)
	IngestionService service.IIngestionService
	CleanupService   service.ICleanupService

	// Infrastructure (Exposed for main.go lifecycle management and the
	// server's session middleware)
	SessionStore contract.SessionStore
	JobQueue     queue.Queue
	Logger       logger.ILogger
	Metrics      *metrics.Metrics
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	appMetrics := metrics.New()

	// 2. Infrastructure
	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Job queue: JetStream when a NATS URL is configured, otherwise the
	// in-process channel queue (dev mode, jobs die with the process).
	var jobQueue queue.Queue
	if cfg.App.NatsURL != "" {
		jsQueue, err := jetstream.NewQueue(
			cfg.App.NatsURL,
			cfg.Ingestion.MaxAttempts,
			cfg.Ingestion.BackoffBase,
			cfg.Ingestion.Concurrency,
		)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to NATS JetStream: %v", err)
		}
		jobQueue = jsQueue
		log.Printf("[INFO] Using Job Queue: NATS JetStream (%s)", cfg.App.NatsURL)
	} else {
		jobQueue = channel.NewQueue(
			cfg.Ingestion.MaxAttempts,
			cfg.Ingestion.BackoffBase,
			cfg.Ingestion.Concurrency,
		)
		log.Printf("[INFO] Using Job Queue: in-process channel (NATS_URL not set)")
	}

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: GEMINI (%s)", cfg.Ai.EmbeddingModel)
	}
	// Identical chunks across PDFs and repeated questions skip the upstream
	// call through the cache.
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, 5*time.Minute).
		WithCounters(appMetrics.EmbeddingCacheHits, appMetrics.EmbeddingCacheMisses)

	apiKey := cfg.Keys.GoogleGemini
	if cfg.Ai.LLMProvider == "openai" {
		apiKey = cfg.Keys.OpenAI
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, apiKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Repositories
	sessionStore := implementation.NewRedisSessionStore(rdb, cfg.Session.TTL)
	vectorIndex := implementation.NewPgVectorIndex(db)

	// 5. Services
	ingestionService := service.NewIngestionService(
		sessionStore,
		vectorIndex,
		document.NewPDFLoader(),
		embeddingProvider,
		sysLogger,
		appMetrics,
		service.IngestionConfig{
			ChunkSize:          cfg.Ingestion.ChunkSize,
			ChunkOverlap:       cfg.Ingestion.ChunkOverlap,
			EmbeddingDimension: cfg.Ingestion.EmbeddingDimension,
		},
	)

	ragService := service.NewRagService(
		sessionStore,
		vectorIndex,
		embeddingProvider,
		llmProvider,
		jobQueue,
		sysLogger,
		appMetrics,
		cfg.Ai.TopK,
	)

	cleanupService := service.NewCleanupService(
		sessionStore,
		vectorIndex,
		cfg.Upload.Dir,
		cfg.Cleanup.Interval,
		sysLogger,
		appMetrics,
	)

	return &Container{
		RagController: controller.NewRagController(
			ragService,
			cfg.Upload.Dir,
			cfg.Upload.MaxFiles,
			cfg.Upload.MaxFileSizeMB,
		),
		IngestionService: ingestionService,
		CleanupService:   cleanupService,
		SessionStore:     sessionStore,
		JobQueue:         jobQueue,
		Logger:           sysLogger,
		Metrics:          appMetrics,
	}
}
