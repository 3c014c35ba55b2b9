package recipe

// template is one step the assembler may emit.
type template struct {
	instruction string
	time        string
	tips        []string
}

var (
	gatherStep = template{
		instruction: "Gather and prepare all ingredients",
		time:        "5-10 minutes",
		tips: []string{
			"Read through entire recipe first",
			"Set up your workspace with all needed tools",
			"Ensure all ingredients are at room temperature if needed",
		},
	}
	diceOnionsStep = template{
		instruction: "Dice the onions into small, uniform pieces",
		time:        "2-3 minutes",
		tips: []string{
			"Use a sharp knife for clean cuts",
			"Cut end to end for more even pieces",
			"Keep root end intact while cutting for stability",
		},
	}
	seasonBeefStep = template{
		instruction: "Pat the beef dry with paper towels and season generously with salt and pepper",
		time:        "2-3 minutes",
		tips: []string{
			"Let meat come to room temperature before cooking",
			"Don't oversalt - you can add more later",
			"Press seasonings into meat slightly",
		},
	}
	searBeefStep = template{
		instruction: "Heat a large pan over medium-high heat. Once hot, add oil and sear the beef",
		time:        "3-5 minutes per side",
		tips: []string{
			"Use a heavy-bottomed pan for even heating",
			"Don't move the meat too much while searing",
			"Look for a golden-brown crust",
		},
	}
	whiskEggsStep = template{
		instruction: "Crack eggs into a bowl and whisk until just combined",
		time:        "1-2 minutes",
		tips: []string{
			"Don't overbeat the eggs",
			"Add a splash of milk for fluffier eggs",
			"Season with salt and pepper",
		},
	}
	toastBreadStep = template{
		instruction: "Toast the bread slices until golden brown",
		time:        "2-3 minutes",
		tips: []string{
			"Watch carefully to prevent burning",
			"Butter the bread before toasting for extra flavor",
			"Toast both sides evenly",
		},
	}
	assembleStep = template{
		instruction: "Assemble the sandwich with your prepared ingredients",
		time:        "2-3 minutes",
		tips: []string{
			"Layer ingredients evenly for balanced bites",
			"Place warm ingredients in the middle",
			"Add condiments last to prevent soggy bread",
		},
	}
	sauteOnionsStep = template{
		instruction: "Sauté the diced onions until translucent",
		time:        "3-4 minutes",
		tips: []string{
			"Use medium heat to avoid burning",
			"Stir occasionally for even cooking",
			"A pinch of salt helps release moisture",
		},
	}
	cookEggsStep = template{
		instruction: "Add beaten eggs to the pan and cook, stirring gently",
		time:        "2-3 minutes",
		tips: []string{
			"Keep heat at medium-low",
			"Stir occasionally for creamy eggs",
			"Remove from heat just before fully set - they'll continue cooking",
		},
	}
	plateStep = template{
		instruction: "Plate your dish",
		time:        "1 minute",
		tips: []string{
			"Garnish with fresh herbs if available",
			"Serve while hot for best results",
			"Add final seasonings if needed",
		},
	}
)

// portion is the default amount and preparation of a known ingredient.
type portion struct {
	amount      string
	preparation string
}

var portions = map[string]portion{
	"beef":   {amount: "6 ounces", preparation: "sliced or patty form"},
	"eggs":   {amount: "2 large", preparation: "beaten"},
	"onions": {amount: "1 medium", preparation: "diced"},
	"bread":  {amount: "2 slices", preparation: "toasted"},
}

// aliases maps singular spellings onto the names the templates key on.
var aliases = map[string]string{
	"egg":   "eggs",
	"onion": "onions",
}

// techniquesFor lists what each key ingredient implies.
var techniquesFor = map[string][]string{
	"beef":   {"searing", "seasoning"},
	"eggs":   {"whisking", "scrambling"},
	"onions": {"dicing"},
}
