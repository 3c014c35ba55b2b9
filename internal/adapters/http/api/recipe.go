package api

import (
	"net/http"
)

type generateRequest struct {
	Ingredients []string `json:"ingredients"`
}

// RecipeHandler assembles recipes from the learned state.
type RecipeHandler struct {
	deps Dependencies
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(deps Dependencies) *RecipeHandler {
	return &RecipeHandler{deps: deps}
}

// HandleGenerate handles POST /api/generate_recipe.
func (h *RecipeHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind("api.generate_recipe", ErrBadRequest, err))
		return
	}
	rec, err := h.deps.GenerateRecipe(r.Context(), req.Ingredients)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
