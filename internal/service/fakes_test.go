package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pdf-rag-be/internal/entity"
	"pdf-rag-be/pkg/embedding"
	"pdf-rag-be/pkg/llm"
	"pdf-rag-be/pkg/queue"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeSessionState struct {
	status        entity.SessionStatus
	hasStatus     bool
	jobsTotal     int
	jobsCompleted int
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*fakeSessionState
	failWith error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*fakeSessionState)}
}

func (f *fakeSessionStore) addSession(id string) *fakeSessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := &fakeSessionState{}
	f.sessions[id] = st
	return st
}

func (f *fakeSessionStore) Exists(ctx context.Context, sessionId string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[sessionId]
	return ok, nil
}

func (f *fakeSessionStore) Touch(ctx context.Context, sessionId string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[sessionId]; !ok {
		f.sessions[sessionId] = &fakeSessionState{}
	}
	return nil
}

func (f *fakeSessionStore) GetStatus(ctx context.Context, sessionId string) (entity.SessionStatus, bool, error) {
	if f.failWith != nil {
		return entity.SessionStatusIdle, false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.sessions[sessionId]
	if !ok || !st.hasStatus {
		return entity.SessionStatusIdle, false, nil
	}
	return st.status, true, nil
}

func (f *fakeSessionStore) SetStatus(ctx context.Context, sessionId string, status entity.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.sessions[sessionId]
	if !ok {
		st = &fakeSessionState{}
		f.sessions[sessionId] = st
	}
	st.status = status
	st.hasStatus = true
	return nil
}

func (f *fakeSessionStore) SeedUpload(ctx context.Context, sessionId string, jobsTotal int) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.sessions[sessionId]
	if !ok {
		st = &fakeSessionState{}
		f.sessions[sessionId] = st
	}
	st.status = entity.SessionStatusIngesting
	st.hasStatus = true
	st.jobsTotal = jobsTotal
	st.jobsCompleted = 0
	return nil
}

func (f *fakeSessionStore) IncrCompleted(ctx context.Context, sessionId string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.sessions[sessionId]
	if !ok {
		st = &fakeSessionState{}
		f.sessions[sessionId] = st
	}
	st.jobsCompleted++
	return st.jobsCompleted, nil
}

func (f *fakeSessionStore) GetJobsTotal(ctx context.Context, sessionId string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.sessions[sessionId]
	if !ok {
		return 0, nil
	}
	return st.jobsTotal, nil
}

type fakeVectorIndex struct {
	mu          sync.Mutex
	collections map[string][]*entity.Chunk
	ensureCalls map[string]int
	searchOut   []*entity.ScoredChunk
	failWith    error
}

func newFakeVectorIndex() *fakeVectorIndex {
	return &fakeVectorIndex{
		collections: make(map[string][]*entity.Chunk),
		ensureCalls: make(map[string]int),
	}
}

func (f *fakeVectorIndex) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls[name]++
	if _, ok := f.collections[name]; !ok {
		f.collections[name] = nil
	}
	return nil
}

func (f *fakeVectorIndex) DeleteCollection(ctx context.Context, name string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[name]; !ok {
		return false, nil
	}
	delete(f.collections, name)
	return true, nil
}

func (f *fakeVectorIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.collections[name]
	return ok, nil
}

func (f *fakeVectorIndex) ListCollections(ctx context.Context, prefix string) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for name := range f.collections {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
	}
	return names, nil
}

func (f *fakeVectorIndex) Insert(ctx context.Context, name string, chunks []*entity.Chunk) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[name] = append(f.collections[name], chunks...)
	return nil
}

func (f *fakeVectorIndex) Search(ctx context.Context, name string, vector []float32, k int) ([]*entity.ScoredChunk, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.searchOut, nil
}

type fakeLoader struct {
	pages    map[string][]string
	failWith error
}

func (f *fakeLoader) Load(filePath string) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.pages[filePath], nil
}

type fakeEmbedder struct {
	mu       sync.Mutex
	calls    []string
	failWith error
}

func (f *fakeEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	f.calls = append(f.calls, taskType)
	f.mu.Unlock()
	res := &embedding.EmbeddingResponse{}
	res.Embedding.Values = []float32{0.1, 0.2, 0.3}
	return res, nil
}

type fakeLLM struct {
	lastHistory []llm.Message
	answer      string
	failWith    error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.lastHistory = history
	return f.answer, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type fakeQueue struct {
	mu       sync.Mutex
	jobs     []queue.Job
	failWith error
}

func (f *fakeQueue) Enqueue(ctx context.Context, job queue.Job) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Consume(ctx context.Context, handler queue.Handler) error {
	return errors.New("not implemented")
}

func (f *fakeQueue) Close() {}

var errBoom = fmt.Errorf("boom")
