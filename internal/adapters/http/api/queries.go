package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
)

var (
	errRecent     = errors.New("recent must be a non-negative integer")
	errPairParams = errors.New("query parameters a and b are required")
)

// QueryHandler serves read-only views of the learned state.
type QueryHandler struct {
	deps Dependencies
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps Dependencies) *QueryHandler {
	return &QueryHandler{deps: deps}
}

type ingredientCompatibilityResponse struct {
	Ingredient          string             `json:"ingredient"`
	CompatibilityScores map[string]float64 `json:"compatibility_scores"`
	ConfidenceScores    map[string]int     `json:"confidence_scores"`
}

// HandleGenerationInputs handles GET /api/generation_inputs?ingredients=a,b.
func (h *QueryHandler) HandleGenerationInputs(w http.ResponseWriter, r *http.Request) {
	ingredients := splitList(r.URL.Query().Get("ingredients"))
	writeJSON(w, http.StatusOK, h.deps.GenerationInputs(r.Context(), ingredients))
}

// HandleLearningStats handles GET /api/learning_stats.
func (h *QueryHandler) HandleLearningStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.LearningStats(r.Context()))
}

// HandleSkillLevel handles GET /api/skill_level?recent=n.
func (h *QueryHandler) HandleSkillLevel(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("recent"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, WrapKind("api.skill_level", ErrBadRequest, errRecent))
			return
		}
		n = v
	}
	writeJSON(w, http.StatusOK, h.deps.SkillLevel(r.Context(), n))
}

// HandleIngredientCompatibility handles GET /api/ingredient_compatibility/{ingredient}.
func (h *QueryHandler) HandleIngredientCompatibility(w http.ResponseWriter, r *http.Request) {
	name := model.NormalizeName(chi.URLParam(r, "ingredient"))
	row, err := h.deps.IngredientCompatibility(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ingredientCompatibilityResponse{
		Ingredient:          name,
		CompatibilityScores: make(map[string]float64, len(row)),
		ConfidenceScores:    make(map[string]int, len(row)),
	}
	for _, p := range row {
		other := p.B
		if other == name {
			other = p.A
		}
		resp.CompatibilityScores[other] = p.Score
		resp.ConfidenceScores[other] = p.Confidence
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCompatibility handles GET /api/compatibility?a=&b=.
func (h *QueryHandler) HandleCompatibility(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		writeError(w, WrapKind("api.compatibility", ErrBadRequest, errPairParams))
		return
	}
	p, err := h.deps.Compatibility(r.Context(), a, b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleExperiments handles GET /api/experiments.
func (h *QueryHandler) HandleExperiments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Experiments(r.Context()))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
