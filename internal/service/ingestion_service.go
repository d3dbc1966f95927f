package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"pdf-rag-be/internal/entity"
	"pdf-rag-be/internal/pkg/logger"
	"pdf-rag-be/internal/repository/contract"
	"pdf-rag-be/pkg/document"
	"pdf-rag-be/pkg/embedding"
	"pdf-rag-be/pkg/metrics"
	"pdf-rag-be/pkg/queue"
	"pdf-rag-be/pkg/utils"

	"github.com/google/uuid"
)

type IIngestionService interface {
	// HandleJob processes one ingestion job. A returned error signals the
	// queue to redeliver; a nil return acknowledges the job.
	HandleJob(ctx context.Context, job queue.Job) error
}

type IngestionConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	EmbeddingDimension int
}

type ingestionService struct {
	sessions contract.SessionStore
	index    contract.VectorIndex
	loader   document.Loader
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger
	metrics  *metrics.Metrics
	cfg      IngestionConfig
}

func NewIngestionService(
	sessions contract.SessionStore,
	index contract.VectorIndex,
	loader document.Loader,
	embedder embedding.EmbeddingProvider,
	log logger.ILogger,
	m *metrics.Metrics,
	cfg IngestionConfig,
) IIngestionService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1200
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 120
	}
	if cfg.EmbeddingDimension <= 0 {
		cfg.EmbeddingDimension = 768
	}
	return &ingestionService{
		sessions: sessions,
		index:    index,
		loader:   loader,
		embedder: embedder,
		logger:   log,
		metrics:  m,
		cfg:      cfg,
	}
}

func (s *ingestionService) HandleJob(ctx context.Context, job queue.Job) error {
	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.IngestDuration.Observe(time.Since(started).Seconds())
		}
	}()

	// Session may have expired between enqueue and pickup. The job is then
	// pointless; drop it and its file without touching the counters.
	exists, err := s.sessions.Exists(ctx, job.SessionId)
	if err != nil {
		return fmt.Errorf("check session %s: %w", job.SessionId, err)
	}
	if !exists {
		s.logger.Warn("ingestion", "Session expired before ingestion, dropping job", map[string]interface{}{
			"session_id": job.SessionId,
			"file_path":  job.FilePath,
		})
		s.removeFile(job.FilePath)
		s.countJob("skipped_expired")
		return nil
	}

	pages, err := s.loader.Load(job.FilePath)
	if err != nil {
		s.countJob("failed")
		return fmt.Errorf("load pdf %s: %w", job.FilePath, err)
	}
	if len(pages) == 0 {
		s.logger.Warn("ingestion", "No extractable text in PDF, dropping job", map[string]interface{}{
			"session_id": job.SessionId,
			"file_path":  job.FilePath,
		})
		s.removeFile(job.FilePath)
		s.countJob("skipped_empty")
		return nil
	}

	var texts []string
	for _, page := range pages {
		texts = append(texts, utils.SplitText(page, s.cfg.ChunkSize, s.cfg.ChunkOverlap)...)
	}

	collectionName := entity.CollectionName(job.SessionId)
	if err := s.index.EnsureCollection(ctx, collectionName, s.cfg.EmbeddingDimension); err != nil {
		s.countJob("failed")
		return fmt.Errorf("ensure collection %s: %w", collectionName, err)
	}

	chunks := make([]*entity.Chunk, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		res, err := s.embedder.Generate(text, embedding.TaskRetrievalDocument)
		if err != nil {
			s.countJob("failed")
			return fmt.Errorf("embed chunk %d of %s: %w", i, job.FilePath, err)
		}
		chunks = append(chunks, &entity.Chunk{
			Id:         uuid.New(),
			Collection: collectionName,
			Document:   text,
			Embedding:  res.Embedding.Values,
			ChunkIndex: i,
		})
	}

	if err := s.index.Insert(ctx, collectionName, chunks); err != nil {
		s.countJob("failed")
		return fmt.Errorf("insert %d chunks into %s: %w", len(chunks), collectionName, err)
	}

	completed, err := s.sessions.IncrCompleted(ctx, job.SessionId)
	if err != nil {
		// Chunks are already indexed; redelivery would duplicate them.
		// Log and acknowledge instead.
		s.logger.Error("ingestion", "Failed to increment completed counter", map[string]interface{}{
			"session_id": job.SessionId,
			"error":      err.Error(),
		})
		s.removeFile(job.FilePath)
		s.countJob("indexed")
		return nil
	}

	total, err := s.sessions.GetJobsTotal(ctx, job.SessionId)
	if err != nil {
		s.logger.Error("ingestion", "Failed to read jobs total", map[string]interface{}{
			"session_id": job.SessionId,
			"error":      err.Error(),
		})
	} else if completed >= total {
		if err := s.sessions.SetStatus(ctx, job.SessionId, entity.SessionStatusReady); err != nil {
			s.logger.Error("ingestion", "Failed to mark session ready", map[string]interface{}{
				"session_id": job.SessionId,
				"error":      err.Error(),
			})
		} else {
			s.logger.Info("ingestion", "Session ready", map[string]interface{}{
				"session_id": job.SessionId,
				"jobs_total": total,
			})
		}
	}

	s.removeFile(job.FilePath)

	if s.metrics != nil {
		s.metrics.ChunksIndexedTotal.Add(float64(len(chunks)))
	}
	s.countJob("indexed")

	s.logger.Info("ingestion", "Job processed", map[string]interface{}{
		"session_id": job.SessionId,
		"file_path":  job.FilePath,
		"chunks":     len(chunks),
	})
	return nil
}

func (s *ingestionService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("ingestion", "Failed to remove uploaded file", map[string]interface{}{
			"file_path": path,
			"error":     err.Error(),
		})
	}
}

func (s *ingestionService) countJob(outcome string) {
	if s.metrics != nil {
		s.metrics.IngestJobsTotal.WithLabelValues(outcome).Inc()
	}
}
