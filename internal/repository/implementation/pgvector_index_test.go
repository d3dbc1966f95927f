package implementation

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"pdf-rag-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// These tests need a real Postgres with pgvector; set TEST_DATABASE_URL to
// run them.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(&model.Collection{}, &model.Chunk{}))
	return db
}

func TestEnsureCollectionConcurrentCallsSucceed(t *testing.T) {
	db := openTestDB(t)
	index := NewPgVectorIndex(db)
	ctx := context.Background()

	name := fmt.Sprintf("rag_ensure-test-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = index.DeleteCollection(ctx, name)
	})

	// Two workers of the same session race on the first chunk batch; the
	// loser must see success, not a duplicate-key error.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = index.EnsureCollection(ctx, name, 768)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	exists, err := index.CollectionExists(ctx, name)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteCollectionReportsAbsence(t *testing.T) {
	db := openTestDB(t)
	index := NewPgVectorIndex(db)
	ctx := context.Background()

	name := fmt.Sprintf("rag_delete-test-%d", time.Now().UnixNano())
	require.NoError(t, index.EnsureCollection(ctx, name, 768))

	deleted, err := index.DeleteCollection(ctx, name)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = index.DeleteCollection(ctx, name)
	require.NoError(t, err)
	assert.False(t, deleted, "deleting an absent collection is not an error")
}
