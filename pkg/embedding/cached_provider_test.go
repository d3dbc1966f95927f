package embedding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	p.calls++
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: []float32{float32(len(text))}},
	}, nil
}

func TestCachedProviderMemoizes(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Minute)

	first, err := cached.Generate("what is x?", TaskRetrievalQuery)
	assert.NoError(t, err)
	second, err := cached.Generate("what is x?", TaskRetrievalQuery)
	assert.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedProviderKeysOnTaskType(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Minute)

	_, _ = cached.Generate("same text", TaskRetrievalQuery)
	_, _ = cached.Generate("same text", TaskRetrievalDocument)

	assert.Equal(t, 2, inner.calls)
}
