package chromem

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"memvoice/internal/infrastructure/vector/embedder"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()

	s, err := New(path, embedder.NewHash(0), slog.Default())
	require.NoError(t, err)
	return s
}

func TestStore_AddSearchDelete(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	docs := []string{"remember the milk", "quarterly tax report", "call mom on sunday"}
	for i, content := range docs {
		id := strconv.Itoa(i + 1)
		vec, err := s.Add(ctx, "user_1", id, content, map[string]any{
			"memory_id":       id,
			"user_id":         1,
			"relevance_score": nil,
		})
		require.NoError(t, err)
		assert.Len(t, vec, embedder.DefaultHashDimensions)
	}

	hits, err := s.Search(ctx, "user_1", "milk", 10)
	require.NoError(t, err)
	// лимит больше числа документов не ломает запрос
	require.Len(t, hits, 3)
	assert.Equal(t, "1", hits[0].ID)
	assert.Equal(t, "1", hits[0].Metadata["memory_id"])
	assert.Equal(t, "1", hits[0].Metadata["user_id"])
	assert.NotContains(t, hits[0].Metadata, "relevance_score")
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	hits, err = s.Search(ctx, "user_1", "milk", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	require.NoError(t, s.Delete(ctx, "user_1", "1"))
	hits, err = s.Search(ctx, "user_1", "milk", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	for _, h := range hits {
		assert.NotEqual(t, "1", h.ID)
	}
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	_, err := s.Add(ctx, "user_1", "1", "secret plan", map[string]any{"memory_id": "1"})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "user_2", "secret plan", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_DeleteMissing(t *testing.T) {
	s := newTestStore(t, "")
	assert.NoError(t, s.Delete(context.Background(), "user_1", "404"))
}

func TestStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newTestStore(t, dir)
	_, err := s.Add(ctx, "user_1", "1", "remember the milk", map[string]any{"memory_id": "1"})
	require.NoError(t, err)

	reopened := newTestStore(t, dir)
	hits, err := reopened.Search(ctx, "user_1", "milk", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1", hits[0].Metadata["memory_id"])
}
