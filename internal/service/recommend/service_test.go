package recommend_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/service/engine"
	"github.com/wellspring-ai/wellspring/internal/service/judge"
	"github.com/wellspring-ai/wellspring/internal/service/recommend"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/trace"
)

// scriptedClient serves generation prompts from a queue and evaluation
// prompts from a substring-keyed table, so tests control scores per
// variant.
type scriptedClient struct {
	mu          sync.Mutex
	generations []string
	evals       map[string]string
}

func (c *scriptedClient) GenerateObject(_ context.Context, prompt string, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evaluation prompts carry the judge's response contract.
	if strings.Contains(prompt, "safety_score") {
		for key, payload := range c.evals {
			if strings.Contains(prompt, key) {
				return json.Unmarshal([]byte(payload), out)
			}
		}
		return json.Unmarshal([]byte(`{"safety_score":50,"personalization_score":50,"feasibility_score":50,"reasoning":"default"}`), out)
	}

	if len(c.generations) == 0 {
		return fmt.Errorf("no scripted generation left")
	}
	payload := c.generations[0]
	c.generations = c.generations[1:]
	return json.Unmarshal([]byte(payload), out)
}

// memoryHistory records saves in memory.
type memoryHistory struct {
	mu              sync.Mutex
	recommendations []storage.StoredRecommendation
	experiments     []storage.StoredExperiment
}

func (m *memoryHistory) SaveRecommendation(_ context.Context, rec storage.StoredRecommendation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recommendations = append(m.recommendations, rec)
	return fmt.Sprintf("rec-%d", len(m.recommendations)), nil
}

func (m *memoryHistory) SaveExperiment(_ context.Context, exp storage.StoredExperiment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiments = append(m.experiments, exp)
	return fmt.Sprintf("exp-%d", len(m.experiments)), nil
}

func (m *memoryHistory) RecentRecommendations(context.Context, int) ([]storage.StoredRecommendation, error) {
	return m.recommendations, nil
}

func (m *memoryHistory) RecommendationsByUser(context.Context, string) ([]storage.StoredRecommendation, error) {
	return m.recommendations, nil
}

func (m *memoryHistory) Ping(context.Context) error { return nil }
func (m *memoryHistory) Close()                     {}

func newService(client *scriptedClient, history storage.Store) (*recommend.Service, *trace.Store) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	traces := trace.NewStore(logger, nil)
	svc := recommend.New(
		engine.New(client, logger),
		judge.New(client, logger),
		traces,
		history,
		logger,
	)
	return svc, traces
}

func genPayload(title, desc string) string {
	return fmt.Sprintf(`{"title":%q,"description":%q,"duration":25,"difficulty":"easy","instructions":["step"],"safety_warnings":[],"modifications":[]}`, title, desc)
}

func evalPayload(score int) string {
	return fmt.Sprintf(`{"safety_score":%d,"personalization_score":%d,"feasibility_score":%d,"compliance_issues":[],"has_pii":false,"reasoning":"ok"}`, score, score, score)
}

func testProfile() model.UserProfile {
	return model.UserProfile{
		Age:          29,
		FitnessLevel: model.FitnessBeginner,
		Goals:        []string{"energy"},
	}
}

func TestRecommend(t *testing.T) {
	client := &scriptedClient{
		generations: []string{genPayload("Morning Flow", "gentle morning yoga")},
		evals:       map[string]string{"gentle morning yoga": evalPayload(84)},
	}
	history := &memoryHistory{}
	svc, traces := newService(client, history)

	resp, err := svc.Recommend(context.Background(), model.RecommendRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationWorkout,
		UserID:             "user-7",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Morning Flow", resp.Recommendation.Title)

	require.NotNil(t, resp.Evaluation)
	require.Len(t, resp.Evaluation.IndividualEvals, 4)
	require.NotNil(t, resp.Evaluation.Aggregate)
	assert.Equal(t, 84, resp.Evaluation.Aggregate.AvgSafetyScore)

	assert.Equal(t, 2, resp.Trace.SpansCount)
	assert.Equal(t, resp.RunID, resp.Trace.RunID)

	run, ok := traces.GetRun(resp.RunID)
	require.True(t, ok)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	require.Len(t, run.Spans, 2)
	assert.Equal(t, "generate_recommendation", run.Spans[0].Name)
	assert.Equal(t, "evaluate_recommendation", run.Spans[1].Name)
	assert.Equal(t, 84, run.Result["quality_score"])

	require.Len(t, history.recommendations, 1)
	saved := history.recommendations[0]
	assert.Equal(t, "user-7", saved.UserID)
	assert.Equal(t, resp.RunID, saved.RunID)
	assert.Equal(t, 84, saved.Evaluation.SafetyScore)
	assert.True(t, saved.Evaluation.ComplianceChecked)
}

func TestRecommendWithoutEvaluation(t *testing.T) {
	client := &scriptedClient{
		generations: []string{genPayload("Quick Stretch", "five minute stretch")},
	}
	history := &memoryHistory{}
	svc, traces := newService(client, history)

	skip := false
	resp, err := svc.Recommend(context.Background(), model.RecommendRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationMeditation,
		EvaluateResult:     &skip,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Evaluation)
	assert.Equal(t, 1, resp.Trace.SpansCount)

	run, ok := traces.GetRun(resp.RunID)
	require.True(t, ok)
	require.Len(t, run.Spans, 1)
	assert.Equal(t, 0, run.Result["quality_score"])

	// Unevaluated records get the permissive default evaluation.
	require.Len(t, history.recommendations, 1)
	assert.Equal(t, 100, history.recommendations[0].Evaluation.SafetyScore)
	assert.False(t, history.recommendations[0].Evaluation.ComplianceChecked)
}

func TestRecommendInvalidType(t *testing.T) {
	svc, traces := newService(&scriptedClient{}, nil)

	_, err := svc.Recommend(context.Background(), model.RecommendRequest{
		UserProfile:        testProfile(),
		RecommendationType: "yodeling",
	})
	require.ErrorIs(t, err, recommend.ErrInvalidType)
	assert.Zero(t, traces.RunCount())
}

func TestRecommendWithoutHistoryStore(t *testing.T) {
	client := &scriptedClient{
		generations: []string{genPayload("Plan", "desc")},
		evals:       map[string]string{"desc": evalPayload(60)},
	}
	svc, _ := newService(client, nil)

	resp, err := svc.Recommend(context.Background(), model.RecommendRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationSleep,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestExperiment(t *testing.T) {
	client := &scriptedClient{
		generations: []string{
			genPayload("Variant A", "desc-alpha"),
			genPayload("Variant B", "desc-beta"),
			genPayload("Variant C", "desc-gamma"),
		},
		evals: map[string]string{
			"desc-alpha": evalPayload(70),
			"desc-beta":  evalPayload(85),
			"desc-gamma": evalPayload(85),
		},
	}
	history := &memoryHistory{}
	svc, traces := newService(client, history)

	resp, err := svc.Experiment(context.Background(), model.ExperimentRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationWorkout,
		ExperimentName:     "fold-order",
		UserID:             "user-3",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "fold-order", resp.ExperimentName)
	assert.Equal(t, 3, resp.VariantsEvaluated)
	require.Len(t, resp.AllVariants, 3)

	// 85 ties between B and C; the earlier variant keeps the win.
	assert.Equal(t, 1, resp.Winner.VariantIndex)
	assert.Equal(t, "Variant B", resp.Winner.Title)
	assert.Equal(t, 85, resp.Winner.CombinedScore)

	exp, ok := traces.GetExperiment(resp.ExperimentID)
	require.True(t, ok)
	require.Len(t, exp.RunIDs, 3)

	for i, runID := range exp.RunIDs {
		assert.Equal(t, fmt.Sprintf("variant-%s-%d", resp.ExperimentID, i), runID)
		run, ok := traces.GetRun(runID)
		require.True(t, ok)
		assert.Equal(t, model.RunStatusCompleted, run.Status)
		require.Len(t, run.Spans, 1)
		assert.Equal(t, "evaluate_variant", run.Spans[0].Name)
	}

	require.Len(t, history.experiments, 1)
	saved := history.experiments[0]
	assert.Equal(t, "1", saved.WinnerID)
	assert.Equal(t, resp.ExperimentID, saved.ExperimentID)
	assert.Equal(t, "user-3", saved.UserID)
	assert.Len(t, saved.Variants, 3)
}

func TestExperimentDefaultsAndName(t *testing.T) {
	client := &scriptedClient{
		generations: []string{
			genPayload("A", "d0"),
			genPayload("B", "d1"),
			genPayload("C", "d2"),
		},
		evals: map[string]string{},
	}
	svc, _ := newService(client, nil)

	resp, err := svc.Experiment(context.Background(), model.ExperimentRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationSleep,
	})
	require.NoError(t, err)
	// variantCount defaults to 3 and the name derives from the type.
	assert.Equal(t, 3, resp.VariantsEvaluated)
	assert.Equal(t, "sleep variants", resp.ExperimentName)
}

func TestExperimentVariantCountBounds(t *testing.T) {
	svc, _ := newService(&scriptedClient{}, nil)

	_, err := svc.Experiment(context.Background(), model.ExperimentRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationWorkout,
		VariantCount:       model.MaxVariantCount + 1,
	})
	require.ErrorIs(t, err, recommend.ErrInvalidVariantCount)

	_, err = svc.Experiment(context.Background(), model.ExperimentRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationWorkout,
		VariantCount:       -2,
	})
	require.ErrorIs(t, err, recommend.ErrInvalidVariantCount)
}

func TestExperimentPIIFromSafetyVerdict(t *testing.T) {
	client := &scriptedClient{
		generations: []string{genPayload("Solo", "desc-pii")},
		evals: map[string]string{
			"desc-pii": `{"safety_score":90,"personalization_score":80,"feasibility_score":70,"compliance_issues":[],"has_pii":true,"reasoning":"name found"}`,
		},
	}
	svc, _ := newService(client, nil)

	resp, err := svc.Experiment(context.Background(), model.ExperimentRequest{
		UserProfile:        testProfile(),
		RecommendationType: model.RecommendationWorkout,
		VariantCount:       1,
	})
	require.NoError(t, err)
	require.Len(t, resp.AllVariants, 1)
	assert.True(t, resp.AllVariants[0].PIIDetected)
	assert.Equal(t, 90.0, resp.AllVariants[0].Scores.Safety)
	assert.Equal(t, 80.0, resp.AllVariants[0].Scores.Personalization)
	assert.Equal(t, 70.0, resp.AllVariants[0].Scores.Feasibility)
	assert.Equal(t, 80, resp.Winner.CombinedScore)
}
