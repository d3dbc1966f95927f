package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"pdf-rag-be/internal/entity"
	"pdf-rag-be/internal/pkg/logger"
	"pdf-rag-be/internal/repository/contract"
	"pdf-rag-be/pkg/metrics"
)

type ICleanupService interface {
	// RunOnce reconciles the vector index and the upload directory against
	// live sessions, removing everything whose session expired.
	RunOnce(ctx context.Context)

	// Start runs one sweep immediately and then one per interval until the
	// context is cancelled.
	Start(ctx context.Context)
}

type cleanupService struct {
	sessions  contract.SessionStore
	index     contract.VectorIndex
	uploadDir string
	interval  time.Duration
	logger    logger.ILogger
	metrics   *metrics.Metrics
}

func NewCleanupService(
	sessions contract.SessionStore,
	index contract.VectorIndex,
	uploadDir string,
	interval time.Duration,
	log logger.ILogger,
	m *metrics.Metrics,
) ICleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &cleanupService{
		sessions:  sessions,
		index:     index,
		uploadDir: uploadDir,
		interval:  interval,
		logger:    log,
		metrics:   m,
	}
}

func (s *cleanupService) Start(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce never aborts the whole sweep on one bad entry; each orphan is
// handled independently so a single failure cannot starve the rest.
func (s *cleanupService) RunOnce(ctx context.Context) {
	s.sweepCollections(ctx)
	s.sweepUploadDirs(ctx)
}

func (s *cleanupService) sweepCollections(ctx context.Context) {
	names, err := s.index.ListCollections(ctx, entity.CollectionPrefix)
	if err != nil {
		s.logger.Error("cleanup", "Failed to list collections", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, name := range names {
		sessionId, ok := entity.SessionFromCollection(name)
		if !ok {
			continue
		}

		exists, err := s.sessions.Exists(ctx, sessionId)
		if err != nil {
			s.logger.Error("cleanup", "Failed to check session", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
			continue
		}
		if exists {
			continue
		}

		deleted, err := s.index.DeleteCollection(ctx, name)
		if err != nil {
			s.logger.Error("cleanup", "Failed to delete orphaned collection", map[string]interface{}{
				"collection": name,
				"error":      err.Error(),
			})
			continue
		}
		if deleted {
			s.logger.Info("cleanup", "Removed orphaned collection", map[string]interface{}{
				"collection": name,
			})
			if s.metrics != nil {
				s.metrics.SweepDeletionsTotal.WithLabelValues("collection").Inc()
			}
		}
	}
}

func (s *cleanupService) sweepUploadDirs(ctx context.Context) {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("cleanup", "Failed to read upload directory", map[string]interface{}{
				"upload_dir": s.uploadDir,
				"error":      err.Error(),
			})
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionId := entry.Name()

		exists, err := s.sessions.Exists(ctx, sessionId)
		if err != nil {
			s.logger.Error("cleanup", "Failed to check session", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
			continue
		}
		if exists {
			continue
		}

		dirPath := filepath.Join(s.uploadDir, sessionId)
		if err := os.RemoveAll(dirPath); err != nil {
			s.logger.Error("cleanup", "Failed to remove orphaned upload dir", map[string]interface{}{
				"dir":   dirPath,
				"error": err.Error(),
			})
			continue
		}

		s.logger.Info("cleanup", "Removed orphaned upload dir", map[string]interface{}{
			"dir": dirPath,
		})
		if s.metrics != nil {
			s.metrics.SweepDeletionsTotal.WithLabelValues("upload_dir").Inc()
		}
	}
}
