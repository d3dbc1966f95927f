package mapper

import (
	"pdf-rag-be/internal/entity"
	"pdf-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.Chunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	return &entity.Chunk{
		Id:         c.Id,
		Collection: c.CollectionName,
		Document:   c.Document,
		Embedding:  c.EmbeddingValue.Slice(),
		ChunkIndex: c.ChunkIndex,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) *model.Chunk {
	if c == nil {
		return nil
	}

	return &model.Chunk{
		Id:             c.Id,
		CollectionName: c.Collection,
		Document:       c.Document,
		EmbeddingValue: pgvector.NewVector(c.Embedding),
		ChunkIndex:     c.ChunkIndex,
	}
}
