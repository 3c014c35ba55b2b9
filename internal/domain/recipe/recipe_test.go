package recipe_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/recipe"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
)

func instructions(r recipe.Recipe) []string {
	out := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Instruction
	}
	return out
}

func TestGenerateEggDish(t *testing.T) {
	Convey("Given eggs, onions and ketchup", t, func() {
		r, err := recipe.Generate([]string{"Eggs", "onions", "ketchup"}, recipe.Knowledge{OverallMastery: 0.1, KnownRecipes: 4})
		So(err, ShouldBeNil)

		Convey("Then an egg dish is assembled", func() {
			So(r.ID, ShouldEqual, 5)
			So(r.Style, ShouldEqual, recipe.StyleEggDish)
			So(r.Name, ShouldEqual, "Homestyle Egg Dish with Eggs, Onions")
			So(r.Description, ShouldEqual, "A delicious egg dish featuring eggs, onions, ketchup")
			So(instructions(r), ShouldResemble, []string{
				"Gather and prepare all ingredients",
				"Dice the onions into small, uniform pieces",
				"Crack eggs into a bowl and whisk until just combined",
				"Sauté the diced onions until translucent",
				"Add beaten eggs to the pan and cook, stirring gently",
				"Plate your dish and add ketchup to taste. Serve immediately.",
			})
			So(r.Steps[5].Number, ShouldEqual, 6)
			So(r.Steps[0].Tips, ShouldHaveLength, 3)
			So(r.TotalTime, ShouldEqual, "14-23 minutes")
			So(r.Difficulty, ShouldEqual, "Medium")
			So(r.Techniques, ShouldResemble, []string{"dicing", "scrambling", "whisking"})
			So(r.Confidence, ShouldAlmostEqual, 0.8)
			So(r.SuggestedSides, ShouldResemble, []string{"Fresh salad", "Steamed vegetables"})
		})

		Convey("Then known ingredients get portions and others are to taste", func() {
			So(r.Ingredients[0], ShouldResemble, recipe.Ingredient{Item: "eggs", Amount: "2 large", Preparation: "beaten"})
			So(r.Ingredients[2], ShouldResemble, recipe.Ingredient{Item: "ketchup", Amount: "to taste"})
		})
	})
}

func TestGenerateSandwich(t *testing.T) {
	Convey("Given bread and beef with a well trained engine", t, func() {
		inputs := types.GenerationInputs{
			CompatibilityScores: []types.PairScore{{A: "beef", B: "bread", Score: 0.9, Confidence: 4}},
			SuggestedTechniques: []string{"sear", "rest"},
		}
		r, err := recipe.Generate([]string{"bread", "beef"}, recipe.Knowledge{OverallMastery: 0.6, Inputs: inputs})
		So(err, ShouldBeNil)

		Convey("Then a sandwich is assembled", func() {
			So(r.Style, ShouldEqual, recipe.StyleSandwich)
			So(r.Name, ShouldEqual, "Homestyle Sandwich with Bread, Beef")
			So(r.Steps, ShouldHaveLength, 6)
			So(r.Steps[3].Instruction, ShouldEqual, "Toast the bread slices until golden brown")
			So(r.Steps[5].Instruction, ShouldEqual, "Plate your dish. Serve immediately.")
			So(r.TotalTime, ShouldEqual, "15-25 minutes")
			So(r.Techniques, ShouldResemble, []string{"searing", "seasoning"})
			So(r.SuggestedSides, ShouldResemble, []string{"Potato chips", "Pickle spear"})
		})

		Convey("Then confidence is capped", func() {
			So(r.Confidence, ShouldEqual, 0.95)
		})

		Convey("Then the learned inputs are attached", func() {
			So(r.Learned.CompatibilityScores, ShouldResemble, inputs.CompatibilityScores)
			So(r.Learned.SuggestedTechniques, ShouldResemble, []string{"sear", "rest"})
			So(r.Learned.FlavorSuggestions, ShouldNotBeNil)
			So(r.Learned.FlavorSuggestions, ShouldBeEmpty)
		})
	})
}

func TestGenerateGeneral(t *testing.T) {
	Convey("Given a single unfamiliar ingredient", t, func() {
		r, err := recipe.Generate([]string{"tomato"}, recipe.Knowledge{})
		So(err, ShouldBeNil)

		Convey("Then a short general recipe is produced", func() {
			So(r.Style, ShouldEqual, recipe.StyleGeneral)
			So(r.Name, ShouldEqual, "Homestyle General with Tomato")
			So(r.Steps, ShouldHaveLength, 2)
			So(r.TotalTime, ShouldEqual, "6-11 minutes")
			So(r.Difficulty, ShouldEqual, "Easy")
			So(r.Techniques, ShouldBeEmpty)
			So(r.ID, ShouldEqual, 1)
		})
	})

	Convey("Given singular spellings", t, func() {
		r, err := recipe.Generate([]string{"egg", "onion"}, recipe.Knowledge{})
		So(err, ShouldBeNil)

		Convey("Then they match the plural templates", func() {
			So(r.Style, ShouldEqual, recipe.StyleEggDish)
			So(r.Ingredients[0].Amount, ShouldEqual, "2 large")
			So(r.Techniques, ShouldContain, "dicing")
		})
	})

	Convey("Given no usable ingredients", t, func() {
		_, err := recipe.Generate([]string{" ", ""}, recipe.Knowledge{})

		Convey("Then ErrNoIngredients is returned", func() {
			So(errors.Is(err, recipe.ErrNoIngredients), ShouldBeTrue)
		})
	})
}
