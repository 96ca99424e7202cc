package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/testutil"
)

var testStore *storage.Postgres

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()
	code := setupAndRun(m, tc)
	tc.Terminate()
	os.Exit(code)
}

func setupAndRun(m *testing.M, tc *testutil.TestContainer) int {
	ctx := context.Background()

	var err error
	testStore, err = tc.NewTestStore(ctx, testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage test: create store: %v\n", err)
		return 1
	}
	defer testStore.Close()

	return m.Run()
}

func sampleRecommendation(userID, title string) storage.StoredRecommendation {
	return storage.StoredRecommendation{
		UserProfile: model.UserProfile{
			Age:          41,
			FitnessLevel: model.FitnessBeginner,
			Goals:        []string{"mobility"},
		},
		RecommendationType: string(model.RecommendationWorkout),
		Recommendation: model.Recommendation{
			Title:       title,
			Description: "low impact session",
			Duration:    20,
			Difficulty:  model.DifficultyEasy,
		},
		Evaluation: storage.StoredEvaluation{
			SafetyScore:          88,
			PersonalizationScore: 75,
			FeasibilityScore:     91,
			ComplianceChecked:    true,
		},
		RunID:  "run-" + title,
		UserID: userID,
	}
}

func TestSaveAndFetchRecommendation(t *testing.T) {
	ctx := context.Background()

	id, err := testStore.SaveRecommendation(ctx, sampleRecommendation("pg-user-1", "Chair Stretch"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records, err := testStore.RecommendationsByUser(ctx, "pg-user-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Chair Stretch", got.Recommendation.Title)
	assert.Equal(t, 88, got.Evaluation.SafetyScore)
	assert.True(t, got.Evaluation.ComplianceChecked)
	assert.Equal(t, 41, got.UserProfile.Age)
	assert.Equal(t, "run-Chair Stretch", got.RunID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRecentRecommendationsOrderAndLimit(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := testStore.SaveRecommendation(ctx, sampleRecommendation("pg-user-2", fmt.Sprintf("Session %d", i)))
		require.NoError(t, err)
	}

	records, err := testStore.RecentRecommendations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.False(t, records[0].CreatedAt.Before(records[1].CreatedAt))
}

func TestRecommendationsByUserIsolation(t *testing.T) {
	ctx := context.Background()

	_, err := testStore.SaveRecommendation(ctx, sampleRecommendation("pg-user-3", "Mine"))
	require.NoError(t, err)
	_, err = testStore.SaveRecommendation(ctx, sampleRecommendation("pg-user-4", "Theirs"))
	require.NoError(t, err)

	records, err := testStore.RecommendationsByUser(ctx, "pg-user-3")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Mine", records[0].Recommendation.Title)
}

func TestSaveRecommendationWithoutOptionalFields(t *testing.T) {
	ctx := context.Background()

	rec := sampleRecommendation("", "Anonymous")
	rec.RunID = ""
	rec.UserID = ""

	id, err := testStore.SaveRecommendation(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)
}

func TestSaveExperiment(t *testing.T) {
	ctx := context.Background()

	id, err := testStore.SaveExperiment(ctx, storage.StoredExperiment{
		Name: "workout variants",
		Type: string(model.RecommendationWorkout),
		Variants: []model.EvaluatedVariant{
			{VariantIndex: 0, Title: "A", Scores: model.VariantScores{Safety: 70}},
			{VariantIndex: 1, Title: "B", Scores: model.VariantScores{Safety: 85}},
		},
		WinnerID:     "1",
		ExperimentID: "exp-pg-1",
		UserID:       "pg-user-5",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
}

func TestPing(t *testing.T) {
	require.NoError(t, testStore.Ping(context.Background()))
}
