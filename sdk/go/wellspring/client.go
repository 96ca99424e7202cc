// Package wellspring is a Go client for the Wellspring HTTP API.
package wellspring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the Wellspring server (e.g. "http://localhost:8080").
	BaseURL string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with a 120-second timeout is used (generation requests wait on LLM
	// calls).
	HTTPClient *http.Client

	// Timeout applies to individual API requests when HTTPClient is nil.
	// Defaults to 120 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the Wellspring wellness recommendation API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wellspring: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
	}, nil
}

// Recommend generates one evaluated wellness recommendation.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	var resp RecommendResponse
	if err := c.post(ctx, "/v1/recommend", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Experiment generates and compares recommendation variants, returning the
// winner with the highest combined score.
func (c *Client) Experiment(ctx context.Context, req ExperimentRequest) (*ExperimentResponse, error) {
	var resp ExperimentResponse
	if err := c.post(ctx, "/v1/experiment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NutritionPlan generates a meal plan from the user's fridge contents.
func (c *Client) NutritionPlan(ctx context.Context, req NutritionRequest) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.post(ctx, "/v1/nutrition", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MedicalPlan generates a preventive-care action plan.
func (c *Client) MedicalPlan(ctx context.Context, req MedicalRequest) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.post(ctx, "/v1/medical", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MindfulnessIntervention generates a stress intervention.
func (c *Client) MindfulnessIntervention(ctx context.Context, req MindfulnessRequest) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.post(ctx, "/v1/mindfulness", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExerciseSchedule generates a schedule-aware workout.
func (c *Client) ExerciseSchedule(ctx context.Context, req ExerciseRequest) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.post(ctx, "/v1/exercise", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dashboard fetches the aggregate observability dashboard.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var resp Dashboard
	if err := c.get(ctx, "/v1/observability", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRun fetches one run with its full span timeline.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var resp struct {
		Run Run `json:"run"`
	}
	query := url.Values{"action": {"get-run"}, "id": {runID}}
	if err := c.get(ctx, "/v1/observability", query, &resp); err != nil {
		return nil, err
	}
	return &resp.Run, nil
}

// GetExperiment fetches one experiment by id.
func (c *Client) GetExperiment(ctx context.Context, experimentID string) (*Experiment, error) {
	var resp struct {
		Experiment Experiment `json:"experiment"`
	}
	query := url.Values{"action": {"get-experiment"}, "id": {experimentID}}
	if err := c.get(ctx, "/v1/observability", query, &resp); err != nil {
		return nil, err
	}
	return &resp.Experiment, nil
}

// History fetches recently saved recommendations. A non-empty userID narrows
// the listing to one user; limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, userID string, limit int) ([]StoredRecommendation, error) {
	query := url.Values{}
	if userID != "" {
		query.Set("user_id", userID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Recommendations []StoredRecommendation `json:"recommendations"`
	}
	if err := c.get(ctx, "/v1/history", query, &resp); err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}

// Health fetches the service health status.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("wellspring: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wellspring: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("wellspring: build request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("wellspring: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("wellspring: decode response: %w", err)
	}
	return nil
}

const maxResponseBytes = 10 << 20
