package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/service/recommend"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/trace"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	svc       *recommend.Service
	traces    *trace.Store
	history   storage.Store // nil = history disabled
	logger    *slog.Logger
	version   string
	maxBody   int64
	startedAt time.Time
}

// HandleRecommend serves POST /v1/recommend.
func (h *Handlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req model.RecommendRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.svc.Recommend(r.Context(), req)
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidType) {
			writeError(w, http.StatusBadRequest, "Invalid recommendation type", "")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to generate recommendation", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleExperiment serves POST /v1/experiment.
func (h *Handlers) HandleExperiment(w http.ResponseWriter, r *http.Request) {
	var req model.ExperimentRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.svc.Experiment(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrInvalidType):
			writeError(w, http.StatusBadRequest, "Invalid recommendation type", "")
		case errors.Is(err, recommend.ErrInvalidVariantCount):
			writeError(w, http.StatusBadRequest, "Invalid variant count", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to run experiment", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleNutrition serves POST /v1/nutrition.
func (h *Handlers) HandleNutrition(w http.ResponseWriter, r *http.Request) {
	var req model.NutritionRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.svc.NutritionPlan(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate meal plan", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMedical serves POST /v1/medical.
func (h *Handlers) HandleMedical(w http.ResponseWriter, r *http.Request) {
	var req model.MedicalRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.svc.MedicalPlan(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate action plan", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMindfulness serves POST /v1/mindfulness.
func (h *Handlers) HandleMindfulness(w http.ResponseWriter, r *http.Request) {
	var req model.MindfulnessRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.svc.MindfulnessIntervention(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate intervention", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleExercise serves POST /v1/exercise.
func (h *Handlers) HandleExercise(w http.ResponseWriter, r *http.Request) {
	var req model.ExerciseRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.svc.ExerciseSchedule(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate schedule", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

const recentWindow = 5

// HandleObservability serves GET /v1/observability: a single run or
// experiment by id, or with no action the aggregate dashboard.
func (h *Handlers) HandleObservability(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	id := r.URL.Query().Get("id")

	switch {
	case action == "get-run" && id != "":
		run, ok := h.traces.GetRun(id)
		if !ok {
			writeError(w, http.StatusNotFound, "Run not found", id)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"run": run})

	case action == "get-experiment" && id != "":
		exp, ok := h.traces.GetExperiment(id)
		if !ok {
			writeError(w, http.StatusNotFound, "Experiment not found", id)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"experiment": exp})

	default:
		writeJSON(w, http.StatusOK, model.Dashboard{
			Success:           true,
			Metrics:           h.traces.Metrics(),
			RecentRuns:        h.traces.RecentRuns(recentWindow),
			RecentExperiments: h.traces.RecentExperiments(recentWindow),
		})
	}
}

// HandleHistory serves GET /v1/history: recent saved recommendations, or a
// single user's with ?user_id=.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "History store disabled", "")
		return
	}

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		records, err := h.history.RecommendationsByUser(r.Context(), userID)
		if err != nil {
			h.logger.Error("history query failed", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch history", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "recommendations": records})
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "Invalid limit", v)
			return
		}
		limit = n
	}

	records, err := h.history.RecentRecommendations(r.Context(), limit)
	if err != nil {
		h.logger.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch history", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "recommendations": records})
}

// HandleHealth serves GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	store := "disabled"
	if h.history != nil {
		store = "connected"
		if err := h.history.Ping(r.Context()); err != nil {
			store = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:        "ok",
		Version:       h.version,
		Store:         store,
		RunsTracked:   h.traces.RunCount(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}
