package implementation

import (
	"context"

	"pdf-rag-be/internal/entity"
	"pdf-rag-be/internal/mapper"
	"pdf-rag-be/internal/model"
	"pdf-rag-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PgVectorIndex struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewPgVectorIndex(db *gorm.DB) contract.VectorIndex {
	return &PgVectorIndex{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *PgVectorIndex) EnsureCollection(ctx context.Context, name string, dimension int) error {
	collection := &model.Collection{
		Name:      name,
		Dimension: dimension,
	}
	// Concurrent workers of one session race on the first chunk batch; the
	// loser of the race must see success, not a duplicate-key error.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(collection).Error
}

func (r *PgVectorIndex) DeleteCollection(ctx context.Context, name string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("name = ?", name).Delete(&model.Collection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("collection_name = ?", name).Delete(&model.Chunk{}).Error
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *PgVectorIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Collection{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PgVectorIndex) ListCollections(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.Collection{}).
		Where("name LIKE ?", prefix+"%").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *PgVectorIndex) Insert(ctx context.Context, name string, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		m := r.mapper.ToModel(c)
		m.CollectionName = name
		models[i] = m
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *PgVectorIndex) Search(ctx context.Context, name string, vector []float32, k int) ([]*entity.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding_value <=> query_vector) recovers the similarity.
	type result struct {
		model.Chunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("collection_name = ?", name).
		Order("similarity DESC").
		Limit(k).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&res.Chunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
