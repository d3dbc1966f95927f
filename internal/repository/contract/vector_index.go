package contract

import (
	"context"

	"pdf-rag-be/internal/entity"
)

// VectorIndex manages per-session vector collections. Mutations that can
// race with an identical concurrent call (create, delete) treat "already in
// target state" as success: workers of the same session race on the first
// create, and a worker can race the reconciliation sweep on delete.
type VectorIndex interface {
	// EnsureCollection creates the collection if absent. Idempotent; an
	// "already exists" race is success.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// DeleteCollection removes the collection and its chunks. Returns false
	// (not an error) when the collection did not exist.
	DeleteCollection(ctx context.Context, name string) (bool, error)

	// CollectionExists probes for the collection.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// ListCollections returns the names of all collections with the given
	// prefix. Used by the reconciliation sweep.
	ListCollections(ctx context.Context, prefix string) ([]string, error)

	// Insert writes chunks into the collection. Chunks are write-once.
	Insert(ctx context.Context, name string, chunks []*entity.Chunk) error

	// Search returns up to k chunks nearest to the query vector by cosine
	// similarity.
	Search(ctx context.Context, name string, vector []float32, k int) ([]*entity.ScoredChunk, error)
}
