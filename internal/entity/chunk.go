package entity

import "github.com/google/uuid"

// Chunk is a bounded span of extracted document text plus its embedding
// vector. Chunks are write-once inserts, never updated in place.
type Chunk struct {
	Id         uuid.UUID
	Collection string
	Document   string
	Embedding  []float32
	ChunkIndex int
}

// ScoredChunk is a search hit with its cosine similarity.
type ScoredChunk struct {
	Chunk      *Chunk
	Similarity float64
}
