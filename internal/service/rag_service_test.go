package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pdf-rag-be/internal/dto"
	"pdf-rag-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRagFixture(t *testing.T) (*fakeSessionStore, *fakeVectorIndex, *fakeEmbedder, *fakeLLM, *fakeQueue, IRagService) {
	sessions := newFakeSessionStore()
	index := newFakeVectorIndex()
	embedder := &fakeEmbedder{}
	llmProvider := &fakeLLM{answer: "the answer"}
	jobs := &fakeQueue{}
	svc := NewRagService(sessions, index, embedder, llmProvider, jobs, nopLogger{}, nil, 5)
	return sessions, index, embedder, llmProvider, jobs, svc
}

func TestBeginUploadSeedsSessionAndEnqueues(t *testing.T) {
	sessions, _, _, _, jobs, svc := newRagFixture(t)

	sessionId := "sess-up"
	res, err := svc.BeginUpload(context.Background(), sessionId, []UploadedPDF{
		{Path: "uploads/sess-up/1-a.pdf", OriginalName: "a.pdf", Size: 100},
		{Path: "uploads/sess-up/2-b.pdf", OriginalName: "b.pdf", Size: 200},
	})
	require.NoError(t, err)

	state := sessions.sessions[sessionId]
	require.NotNil(t, state)
	assert.Equal(t, entity.SessionStatusIngesting, state.status)
	assert.Equal(t, 2, state.jobsTotal)
	assert.Equal(t, 0, state.jobsCompleted)

	require.Len(t, jobs.jobs, 2)
	assert.Equal(t, sessionId, jobs.jobs[0].SessionId)
	assert.Equal(t, "uploads/sess-up/1-a.pdf", jobs.jobs[0].FilePath)
	assert.NotEmpty(t, jobs.jobs[0].JobId)

	assert.Equal(t, "PDFs uploaded successfully", res.Message)
	assert.Equal(t, sessionId, res.SessionId)
	require.Len(t, res.Files, 2)
	assert.Equal(t, dto.UploadedFile{Name: "a.pdf", Size: 100}, res.Files[0])
}

func TestBeginUploadRejectsEmptyBatch(t *testing.T) {
	_, _, _, _, jobs, svc := newRagFixture(t)

	_, err := svc.BeginUpload(context.Background(), "sess", nil)
	require.Error(t, err)
	assert.Empty(t, jobs.jobs)
}

func TestBeginUploadRestartsBatchOnReupload(t *testing.T) {
	sessions, _, _, _, _, svc := newRagFixture(t)

	sessionId := "sess-re"
	_, err := svc.BeginUpload(context.Background(), sessionId, []UploadedPDF{{Path: "p1", OriginalName: "a.pdf"}})
	require.NoError(t, err)
	sessions.sessions[sessionId].jobsCompleted = 1
	sessions.sessions[sessionId].status = entity.SessionStatusReady

	_, err = svc.BeginUpload(context.Background(), sessionId, []UploadedPDF{
		{Path: "p2", OriginalName: "b.pdf"},
		{Path: "p3", OriginalName: "c.pdf"},
	})
	require.NoError(t, err)

	state := sessions.sessions[sessionId]
	assert.Equal(t, entity.SessionStatusIngesting, state.status)
	assert.Equal(t, 2, state.jobsTotal)
	assert.Equal(t, 0, state.jobsCompleted)
}

func TestGetStatusUnknownSessionIsIdle(t *testing.T) {
	_, _, _, _, _, svc := newRagFixture(t)

	res, err := svc.GetStatus(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, "idle", res.Status)
	assert.Equal(t, "No upload or session expired", res.Message)
}

func TestGetStatusReturnsStoredStatus(t *testing.T) {
	sessions, _, _, _, _, svc := newRagFixture(t)

	state := sessions.addSession("sess")
	state.status = entity.SessionStatusIngesting
	state.hasStatus = true

	res, err := svc.GetStatus(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, "ingesting", res.Status)
	assert.Empty(t, res.Message)
}

func TestQueryRejectsSessionNotReady(t *testing.T) {
	sessions, _, _, _, _, svc := newRagFixture(t)

	state := sessions.addSession("sess")
	state.status = entity.SessionStatusIngesting
	state.hasStatus = true

	_, err := svc.Query(context.Background(), "sess", &dto.QueryRequest{Question: "q"})

	var notReady *NotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, entity.SessionStatusIngesting, notReady.Status)
}

func TestQueryRejectsUnknownSessionAsIdle(t *testing.T) {
	_, _, _, _, _, svc := newRagFixture(t)

	_, err := svc.Query(context.Background(), "never-seen", &dto.QueryRequest{Question: "q"})

	var notReady *NotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, entity.SessionStatusIdle, notReady.Status)
}

func TestQueryRejectsMissingCollection(t *testing.T) {
	sessions, _, _, _, _, svc := newRagFixture(t)

	state := sessions.addSession("sess")
	state.status = entity.SessionStatusReady
	state.hasStatus = true

	_, err := svc.Query(context.Background(), "sess", &dto.QueryRequest{Question: "q"})
	assert.True(t, errors.Is(err, ErrNoDocuments))
}

func TestQueryBuildsContextAndAnswers(t *testing.T) {
	sessions, index, embedder, llmProvider, _, svc := newRagFixture(t)

	sessionId := "sess-q"
	state := sessions.addSession(sessionId)
	state.status = entity.SessionStatusReady
	state.hasStatus = true

	collection := entity.CollectionName(sessionId)
	index.collections[collection] = nil
	index.searchOut = []*entity.ScoredChunk{
		{Chunk: &entity.Chunk{Document: "chunk one"}, Similarity: 0.9},
		{Chunk: &entity.Chunk{Document: "chunk two"}, Similarity: 0.8},
	}

	res, err := svc.Query(context.Background(), sessionId, &dto.QueryRequest{
		Question: "what is this about?",
		ChatHistory: []dto.ChatTurn{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
			{Role: "", Content: "malformed, dropped"},
			{Role: "user", Content: ""},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", res.Answer)

	assert.Equal(t, []string{"RETRIEVAL_QUERY"}, embedder.calls)

	history := llmProvider.lastHistory
	require.Len(t, history, 4)

	assert.Equal(t, "system", history[0].Role)
	assert.True(t, strings.Contains(history[0].Content, "chunk one\n\nchunk two"))
	assert.True(t, strings.Contains(history[0].Content, "based ONLY on the following context"))

	assert.Equal(t, "user", history[1].Role)
	assert.Equal(t, "earlier question", history[1].Content)
	assert.Equal(t, "assistant", history[2].Role)

	assert.Equal(t, "user", history[3].Role)
	assert.Equal(t, "what is this about?", history[3].Content)
}

func TestQueryPropagatesLLMFailure(t *testing.T) {
	sessions, index, _, llmProvider, _, svc := newRagFixture(t)

	sessionId := "sess-f"
	state := sessions.addSession(sessionId)
	state.status = entity.SessionStatusReady
	state.hasStatus = true
	index.collections[entity.CollectionName(sessionId)] = nil
	llmProvider.failWith = errBoom

	_, err := svc.Query(context.Background(), sessionId, &dto.QueryRequest{Question: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
}
