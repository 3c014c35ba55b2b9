// Package recipe assembles a rule-based recipe from an ingredient list and
// attaches what the learning engine currently knows about those ingredients.
package recipe

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
)

// Style is the dish family picked from the ingredients.
type Style string

const (
	StyleSandwich Style = "sandwich"
	StyleEggDish  Style = "egg_dish"
	StyleGeneral  Style = "general"
)

// Title renders the style for display, e.g. "Egg Dish".
func (s Style) Title() string {
	return titleCase(strings.ReplaceAll(string(s), "_", " "))
}

const (
	baseConfidence = 0.7
	maxConfidence  = 0.95
	easySteps      = 5
	mediumSteps    = 8
)

// Ingredient is one formatted ingredient line.
type Ingredient struct {
	Item        string `json:"item"`
	Amount      string `json:"amount"`
	Preparation string `json:"preparation"`
}

// Recipe is a generated recipe.
type Recipe struct {
	ID             int                    `json:"id"`
	Name           string                 `json:"recipe_name"`
	Description    string                 `json:"description"`
	Style          Style                  `json:"style"`
	Ingredients    []Ingredient           `json:"ingredients"`
	Techniques     []string               `json:"techniques"`
	Steps          []model.Step           `json:"steps"`
	TotalTime      string                 `json:"total_time"`
	Difficulty     string                 `json:"difficulty"`
	Confidence     float64                `json:"confidence"`
	SuggestedSides []string               `json:"suggested_sides"`
	Learned        types.GenerationInputs `json:"learned"`
}

// Knowledge is what the engine contributes to a recipe.
type Knowledge struct {
	OverallMastery float64
	KnownRecipes   int
	Inputs         types.GenerationInputs
}

// Generate builds a recipe for the given ingredients.
func Generate(ingredients []string, k Knowledge) (Recipe, error) {
	names := model.NormalizeNames(ingredients)
	if len(names) == 0 {
		return Recipe{}, ErrNoIngredients
	}
	has := make(map[string]bool, len(names))
	for _, n := range names {
		has[canonical(n)] = true
	}

	style := detectStyle(has)
	steps := buildSteps(has, style)
	minMinutes, maxMinutes := 0, 0
	for _, s := range steps {
		minMinutes += s.Minutes()
		maxMinutes += s.MaxMinutes()
	}

	learned := k.Inputs
	if learned.CompatibilityScores == nil {
		learned.CompatibilityScores = []types.PairScore{}
	}
	if learned.SuggestedTechniques == nil {
		learned.SuggestedTechniques = []string{}
	}
	if learned.FlavorSuggestions == nil {
		learned.FlavorSuggestions = []types.Experiment{}
	}

	return Recipe{
		ID:             k.KnownRecipes + 1,
		Name:           fmt.Sprintf("Homestyle %s with %s", style.Title(), titleCase(strings.Join(names[:min(2, len(names))], ", "))),
		Description:    fmt.Sprintf("A delicious %s featuring %s", strings.ToLower(style.Title()), strings.Join(names, ", ")),
		Style:          style,
		Ingredients:    formatIngredients(names),
		Techniques:     techniques(has),
		Steps:          steps,
		TotalTime:      fmt.Sprintf("%d-%d minutes", minMinutes, maxMinutes),
		Difficulty:     difficulty(len(steps)),
		Confidence:     min(maxConfidence, baseConfidence+k.OverallMastery),
		SuggestedSides: sides(style),
		Learned:        learned,
	}, nil
}

func canonical(name string) string {
	if a, ok := aliases[name]; ok {
		return a
	}
	return name
}

func detectStyle(has map[string]bool) Style {
	switch {
	case has["bread"] && (has["beef"] || has["eggs"]):
		return StyleSandwich
	case has["eggs"]:
		return StyleEggDish
	default:
		return StyleGeneral
	}
}

func buildSteps(has map[string]bool, style Style) []model.Step {
	plan := []template{gatherStep}
	if has["onions"] {
		plan = append(plan, diceOnionsStep)
	}
	if has["beef"] {
		plan = append(plan, seasonBeefStep, searBeefStep)
	}
	if has["eggs"] {
		plan = append(plan, whiskEggsStep)
	}

	switch {
	case style == StyleSandwich:
		if has["bread"] {
			plan = append(plan, toastBreadStep)
		}
		plan = append(plan, assembleStep)
	case has["eggs"]:
		if has["onions"] {
			plan = append(plan, sauteOnionsStep)
		}
		plan = append(plan, cookEggsStep)
	}

	final := plateStep
	if has["ketchup"] {
		final.instruction += " and add ketchup to taste"
	}
	final.instruction += ". Serve immediately."
	plan = append(plan, final)

	steps := make([]model.Step, len(plan))
	for i, t := range plan {
		steps[i] = model.Step{
			Number:      i + 1,
			Instruction: t.instruction,
			Time:        t.time,
			Tips:        append([]string(nil), t.tips...),
		}
	}
	return steps
}

func formatIngredients(names []string) []Ingredient {
	out := make([]Ingredient, 0, len(names))
	for _, n := range names {
		p, ok := portions[canonical(n)]
		if !ok {
			p = portion{amount: "to taste"}
		}
		out = append(out, Ingredient{Item: n, Amount: p.amount, Preparation: p.preparation})
	}
	return out
}

func techniques(has map[string]bool) []string {
	seen := map[string]bool{}
	out := []string{}
	for ing, techs := range techniquesFor {
		if !has[ing] {
			continue
		}
		for _, t := range techs {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

func difficulty(steps int) string {
	switch {
	case steps <= easySteps:
		return "Easy"
	case steps <= mediumSteps:
		return "Medium"
	default:
		return "Hard"
	}
}

func sides(style Style) []string {
	if style == StyleSandwich {
		return []string{"Potato chips", "Pickle spear"}
	}
	return []string{"Fresh salad", "Steamed vegetables"}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
