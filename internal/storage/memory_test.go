package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

func TestMemoryRepository(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()
	url := "https://example.com/story"

	seen, err := repo.Exists(ctx, url)
	require.NoError(t, err)
	assert.False(t, seen)

	record := domain.ContentRecord{Title: "A headline", SourceName: "Test"}
	id, err := repo.Insert(ctx, url, record)
	require.NoError(t, err)
	assert.Positive(t, id)

	seen, err = repo.Exists(ctx, url)
	require.NoError(t, err)
	assert.True(t, seen)

	stored, ok := repo.Record(id)
	require.True(t, ok)
	assert.Equal(t, record.Title, stored.Title)
	assert.Equal(t, 1, repo.Len())
}
