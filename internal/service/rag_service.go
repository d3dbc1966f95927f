package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdf-rag-be/internal/constant"
	"pdf-rag-be/internal/dto"
	"pdf-rag-be/internal/entity"
	"pdf-rag-be/internal/pkg/logger"
	"pdf-rag-be/internal/repository/contract"
	"pdf-rag-be/pkg/embedding"
	"pdf-rag-be/pkg/llm"
	"pdf-rag-be/pkg/metrics"
	"pdf-rag-be/pkg/queue"

	"github.com/google/uuid"
)

// NotReadyError rejects a query against a session whose documents are not
// fully indexed yet. Status carries what the session is currently doing so
// the client can poll.
type NotReadyError struct {
	Status entity.SessionStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("documents still ingesting (status: %s)", e.Status)
}

// ErrNoDocuments is returned when a session is ready but its vector
// collection is gone, which happens after the reconciliation sweep removed
// an expired session's data.
var ErrNoDocuments = errors.New("no documents indexed for this session")

// UploadedPDF describes one file already persisted to the upload directory.
type UploadedPDF struct {
	Path         string
	OriginalName string
	Size         int64
}

type IRagService interface {
	BeginUpload(ctx context.Context, sessionId string, files []UploadedPDF) (*dto.UploadResponse, error)
	GetStatus(ctx context.Context, sessionId string) (*dto.StatusResponse, error)
	Query(ctx context.Context, sessionId string, request *dto.QueryRequest) (*dto.QueryResponse, error)
}

type ragService struct {
	sessions    contract.SessionStore
	index       contract.VectorIndex
	embedder    embedding.EmbeddingProvider
	llmProvider llm.LLMProvider
	jobs        queue.Queue
	logger      logger.ILogger
	metrics     *metrics.Metrics
	topK        int
}

func NewRagService(
	sessions contract.SessionStore,
	index contract.VectorIndex,
	embedder embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	jobs queue.Queue,
	log logger.ILogger,
	m *metrics.Metrics,
	topK int,
) IRagService {
	if topK <= 0 {
		topK = 5
	}
	return &ragService{
		sessions:    sessions,
		index:       index,
		embedder:    embedder,
		llmProvider: llmProvider,
		jobs:        jobs,
		logger:      log,
		metrics:     m,
		topK:        topK,
	}
}

func (s *ragService) BeginUpload(ctx context.Context, sessionId string, files []UploadedPDF) (*dto.UploadResponse, error) {
	if len(files) == 0 {
		return nil, errors.New("no PDF files uploaded")
	}

	// Seed before enqueueing so no worker can observe a counter ahead of
	// the total. A re-upload restarts the batch from scratch.
	if err := s.sessions.SeedUpload(ctx, sessionId, len(files)); err != nil {
		return nil, fmt.Errorf("seed session %s: %w", sessionId, err)
	}

	for _, file := range files {
		job := queue.Job{
			JobId:     uuid.New().String(),
			SessionId: sessionId,
			FilePath:  file.Path,
		}
		if err := s.jobs.Enqueue(ctx, job); err != nil {
			return nil, fmt.Errorf("enqueue ingestion job for %s: %w", file.Path, err)
		}
	}

	if s.metrics != nil {
		s.metrics.UploadsTotal.Inc()
		s.metrics.FilesUploadedTotal.Add(float64(len(files)))
	}

	s.logger.Info("rag", "Upload batch accepted", map[string]interface{}{
		"session_id": sessionId,
		"files":      len(files),
	})

	out := make([]dto.UploadedFile, len(files))
	for i, file := range files {
		out[i] = dto.UploadedFile{
			Name: file.OriginalName,
			Size: file.Size,
		}
	}

	return &dto.UploadResponse{
		Message:   "PDFs uploaded successfully",
		SessionId: sessionId,
		Files:     out,
	}, nil
}

func (s *ragService) GetStatus(ctx context.Context, sessionId string) (*dto.StatusResponse, error) {
	status, found, err := s.sessions.GetStatus(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !found {
		return &dto.StatusResponse{
			Status:  entity.SessionStatusIdle.String(),
			Message: "No upload or session expired",
		}, nil
	}
	return &dto.StatusResponse{Status: status.String()}, nil
}

func (s *ragService) Query(ctx context.Context, sessionId string, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.QueryDuration.Observe(time.Since(started).Seconds())
		}
	}()

	status, found, err := s.sessions.GetStatus(ctx, sessionId)
	if err != nil {
		s.countQuery("error")
		return nil, err
	}
	if !found {
		status = entity.SessionStatusIdle
	}
	if status != entity.SessionStatusReady {
		s.countQuery("not_ready")
		return nil, &NotReadyError{Status: status}
	}

	collectionName := entity.CollectionName(sessionId)
	exists, err := s.index.CollectionExists(ctx, collectionName)
	if err != nil {
		s.countQuery("error")
		return nil, err
	}
	if !exists {
		s.countQuery("no_documents")
		return nil, ErrNoDocuments
	}

	res, err := s.embedder.Generate(request.Question, embedding.TaskRetrievalQuery)
	if err != nil {
		s.countQuery("error")
		return nil, fmt.Errorf("embed question: %w", err)
	}

	scored, err := s.index.Search(ctx, collectionName, res.Embedding.Values, s.topK)
	if err != nil {
		s.countQuery("error")
		return nil, fmt.Errorf("search collection %s: %w", collectionName, err)
	}

	docs := make([]string, 0, len(scored))
	for _, sc := range scored {
		docs = append(docs, sc.Chunk.Document)
	}
	ragContext := strings.Join(docs, "\n\n")

	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.RagSystemPromptPrefix + ragContext},
	}
	for _, turn := range request.ChatHistory {
		// Malformed turns are skipped, not rejected.
		if turn.Role == "" || turn.Content == "" {
			continue
		}
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: request.Question})

	answer, err := s.llmProvider.Chat(ctx, messages)
	if err != nil {
		s.countQuery("error")
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	s.countQuery("answered")
	s.logger.Info("rag", "Query answered", map[string]interface{}{
		"session_id": sessionId,
		"chunks":     len(scored),
	})

	return &dto.QueryResponse{Answer: answer}, nil
}

func (s *ragService) countQuery(result string) {
	if s.metrics != nil {
		s.metrics.QueriesTotal.WithLabelValues(result).Inc()
	}
}
