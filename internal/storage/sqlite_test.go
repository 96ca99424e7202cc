package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/testutil"
)

func newSQLite(t *testing.T) *storage.SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wellspring-test.db")
	store, err := storage.NewSQLite(context.Background(), path, testutil.TestLogger())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestSQLiteSaveAndFetch(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)

	id, err := store.SaveRecommendation(ctx, sampleRecommendation("lite-user-1", "Desk Break"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records, err := store.RecommendationsByUser(ctx, "lite-user-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Desk Break", records[0].Recommendation.Title)
	assert.Equal(t, 88, records[0].Evaluation.SafetyScore)
}

func TestSQLiteRecentLimit(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := store.SaveRecommendation(ctx, sampleRecommendation("lite-user-2", title))
		require.NoError(t, err)
	}

	records, err := store.RecentRecommendations(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSQLiteSaveExperiment(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)

	id, err := store.SaveExperiment(ctx, storage.StoredExperiment{
		Name:         "sleep variants",
		Type:         string(model.RecommendationSleep),
		Variants:     []model.EvaluatedVariant{{Title: "A"}},
		WinnerID:     "0",
		ExperimentID: "exp-lite-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSQLiteSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := storage.NewSQLite(ctx, path, testutil.TestLogger())
	require.NoError(t, err)
	_, err = store.SaveRecommendation(ctx, sampleRecommendation("lite-user-3", "Persisted"))
	require.NoError(t, err)
	store.Close()

	// Reopening the same file must keep existing rows.
	store, err = storage.NewSQLite(ctx, path, testutil.TestLogger())
	require.NoError(t, err)
	defer store.Close()

	records, err := store.RecommendationsByUser(ctx, "lite-user-3")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Persisted", records[0].Recommendation.Title)
}

func TestSQLitePing(t *testing.T) {
	store := newSQLite(t)
	require.NoError(t, store.Ping(context.Background()))
}
