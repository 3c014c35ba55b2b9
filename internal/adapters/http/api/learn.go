package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

// recipeID accepts either a JSON string or a JSON number.
type recipeID string

func (id *recipeID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = recipeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = recipeID(n.String())
	return nil
}

// learnRequest is the POST /api/learn body.
type learnRequest struct {
	EventID     string       `json:"event_id"`
	RecipeID    recipeID     `json:"recipe_id"`
	Ingredients []string     `json:"ingredients"`
	Techniques  []string     `json:"techniques"`
	Steps       []model.Step `json:"steps"`
	Rating      *float64     `json:"rating"`
	Feedback    string       `json:"feedback"`
	Timestamp   *time.Time   `json:"timestamp"`
}

func (r learnRequest) event() model.FeedbackEvent {
	ev := model.FeedbackEvent{
		EventID:     strings.TrimSpace(r.EventID),
		RecipeID:    string(r.RecipeID),
		Ingredients: r.Ingredients,
		Techniques:  r.Techniques,
		Steps:       r.Steps,
		Rating:      r.Rating,
		Feedback:    r.Feedback,
	}
	if r.Timestamp != nil {
		ev.Timestamp = *r.Timestamp
	}
	return ev
}

type learnResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	types.LearnResult
}

type duplicateResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// LearnHandler handles feedback submission.
type LearnHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewLearnHandler creates a new learn handler.
func NewLearnHandler(deps Dependencies, l logger.Logger) *LearnHandler {
	return &LearnHandler{deps: deps, logger: l}
}

// HandleLearn handles POST /api/learn.
func (h *LearnHandler) HandleLearn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind("api.learn", ErrBadRequest, err))
		return
	}

	res, err := h.deps.Learn(r.Context(), req.event())
	switch {
	case errors.Is(err, learning.ErrDuplicate):
		writeJSON(w, http.StatusOK, duplicateResponse{Status: "duplicate", Duplicate: true})
		return
	case err != nil:
		if status, _ := classify(err); status >= http.StatusInternalServerError {
			h.logger.Error(r.Context(), "learn failed", logger.Error(err))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, learnResponse{
		Status:      "accepted",
		Message:     "Feedback recorded successfully",
		LearnResult: res,
	})
}
