package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/http/api"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/recipe"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
)

// engineDeps serves handlers from a real engine with a map-based deduper.
type engineDeps struct {
	eng     *learning.Engine
	mu      sync.Mutex
	seen    map[string]bool
	learnFn func(ev model.FeedbackEvent) (types.LearnResult, error)
}

func newEngineDeps() *engineDeps {
	return &engineDeps{eng: learning.New(), seen: make(map[string]bool)}
}

func (d *engineDeps) Learn(_ context.Context, ev model.FeedbackEvent) (types.LearnResult, error) {
	if d.learnFn != nil {
		return d.learnFn(ev)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if ev.EventID != "" && d.seen[ev.EventID] {
		return types.LearnResult{}, learning.ErrDuplicate
	}
	res, err := d.eng.Learn(ev)
	if err == nil && ev.EventID != "" {
		d.seen[ev.EventID] = true
	}
	return res, err
}

func (d *engineDeps) GenerateRecipe(ctx context.Context, ingredients []string) (recipe.Recipe, error) {
	return recipe.Generate(ingredients, recipe.Knowledge{
		OverallMastery: d.eng.Stats().OverallMastery,
		Inputs:         d.GenerationInputs(ctx, ingredients),
	})
}

func (d *engineDeps) GenerationInputs(_ context.Context, ingredients []string) types.GenerationInputs {
	return d.eng.GenerateInputs(ingredients)
}

func (d *engineDeps) LearningStats(context.Context) types.LearningStats { return d.eng.Stats() }

func (d *engineDeps) SkillLevel(_ context.Context, n int) types.SkillLevel { return d.eng.SkillLevel(n) }

func (d *engineDeps) IngredientCompatibility(_ context.Context, name string) ([]types.PairScore, error) {
	return d.eng.IngredientRow(name)
}

func (d *engineDeps) Compatibility(_ context.Context, a, b string) (types.PairScore, error) {
	return d.eng.Compatibility(a, b)
}

func (d *engineDeps) Experiments(context.Context) []types.Experiment { return d.eng.Experiments() }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

const eggsAndOnions = `{
	"event_id": "fb-1",
	"recipe_id": 7,
	"ingredients": ["Eggs", "Onions"],
	"techniques": ["whisking", "sauteing"],
	"steps": [{"instruction": "Whisk the eggs", "time": "2-3 minutes"}],
	"rating": 1,
	"feedback": "great"
}`

func TestLearnEndpoint(t *testing.T) {
	Convey("Given a server backed by a fresh engine", t, func() {
		deps := newEngineDeps()
		h := api.NewServer(deps, &mockStatsProvider{}).Handler(context.Background())

		Convey("When a valid feedback event is posted", func() {
			w := do(h, http.MethodPost, "/api/learn", eggsAndOnions)

			Convey("Then the learning result is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["status"], ShouldEqual, "accepted")
				So(body["message"], ShouldEqual, "Feedback recorded successfully")
				So(body["mastery_changes"], ShouldContainKey, "technique_mastery")
				So(body["version"], ShouldEqual, 1)
				So(deps.eng.Version(), ShouldEqual, 1)
			})

			Convey("And replaying the same event id reports a duplicate", func() {
				w := do(h, http.MethodPost, "/api/learn", eggsAndOnions)
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["status"], ShouldEqual, "duplicate")
				So(body["duplicate"], ShouldBeTrue)
				So(deps.eng.Version(), ShouldEqual, 1)
			})
		})

		Convey("When the recipe id is a string", func() {
			w := do(h, http.MethodPost, "/api/learn", `{"recipe_id":"r-1","ingredients":["bread"],"rating":0.5}`)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the rating is missing", func() {
			w := do(h, http.MethodPost, "/api/learn", `{"ingredients":["eggs"]}`)

			Convey("Then a validation error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "validation_error")
				So(deps.eng.Version(), ShouldEqual, 0)
			})
		})

		Convey("When the rating is out of range", func() {
			w := do(h, http.MethodPost, "/api/learn", `{"ingredients":["eggs"],"rating":1.5}`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/api/learn", `{"ingredients":`)

			Convey("Then a bad request is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the engine fails to persist", func() {
			deps.learnFn = func(model.FeedbackEvent) (types.LearnResult, error) {
				return types.LearnResult{}, fmt.Errorf("%w: disk full", learning.ErrPersistence)
			}
			w := do(h, http.MethodPost, "/api/learn", eggsAndOnions)

			Convey("Then an internal error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w)["code"], ShouldEqual, "internal_error")
			})
		})
	})
}

func TestQueryEndpoints(t *testing.T) {
	Convey("Given a server that has learned one event", t, func() {
		deps := newEngineDeps()
		h := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"queue_size": 0}}).Handler(context.Background())
		So(do(h, http.MethodPost, "/api/learn", eggsAndOnions).Code, ShouldEqual, http.StatusOK)

		Convey("Then ingredient compatibility lists known partners", func() {
			w := do(h, http.MethodGet, "/api/ingredient_compatibility/Eggs", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["ingredient"], ShouldEqual, "eggs")
			So(body["compatibility_scores"], ShouldContainKey, "onions")
			So(body["confidence_scores"], ShouldContainKey, "onions")
		})

		Convey("Then an unknown ingredient is not found", func() {
			w := do(h, http.MethodGet, "/api/ingredient_compatibility/saffron", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Then a pair lookup returns its score", func() {
			w := do(h, http.MethodGet, "/api/compatibility?a=eggs&b=onions", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["a"], ShouldEqual, "eggs")
			So(body["b"], ShouldEqual, "onions")
		})

		Convey("Then a pair lookup without both names is rejected", func() {
			So(do(h, http.MethodGet, "/api/compatibility?a=eggs", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then learning stats count the known ingredients", func() {
			w := do(h, http.MethodGet, "/api/learning_stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["known_ingredients"], ShouldEqual, 2)
		})

		Convey("Then the skill level reports the progression", func() {
			w := do(h, http.MethodGet, "/api/skill_level?recent=5", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["label"], ShouldNotBeEmpty)
			So(body["recent_progression"], ShouldHaveLength, 1)
		})

		Convey("Then a malformed recent count is rejected", func() {
			So(do(h, http.MethodGet, "/api/skill_level?recent=lots", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then generation inputs are scoped to the given ingredients", func() {
			w := do(h, http.MethodGet, "/api/generation_inputs?ingredients=eggs,onions", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["compatibility_scores"], ShouldHaveLength, 1)
		})

		Convey("Then experiments are served as a list", func() {
			w := do(h, http.MethodGet, "/api/experiments", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldStartWith, "[")
		})

		Convey("Then a recipe is generated with the learned inputs attached", func() {
			w := do(h, http.MethodPost, "/api/generate_recipe", `{"ingredients":["eggs","onions"]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["recipe_name"], ShouldEqual, "Homestyle Egg Dish with Eggs, Onions")
			So(body["learned"], ShouldContainKey, "compatibility_scores")
		})

		Convey("Then a recipe without ingredients is rejected", func() {
			So(do(h, http.MethodPost, "/api/generate_recipe", `{"ingredients":[]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then health, stats and metrics are served", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")

			w = do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w), ShouldContainKey, "queue_size")

			w = do(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "chef_learning_http_requests_total")
		})

		Convey("Then unknown routes are not found", func() {
			So(do(h, http.MethodGet, "/api/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLearnRateLimit(t *testing.T) {
	Convey("Given a server limited to two learn requests per minute", t, func() {
		h := api.NewServer(newEngineDeps(), nil, api.WithLearnRateLimit(2)).Handler(context.Background())

		Convey("When a client sends a third request", func() {
			body := `{"ingredients":["bread"],"rating":1}`
			first := do(h, http.MethodPost, "/api/learn", body)
			second := do(h, http.MethodPost, "/api/learn", body)
			third := do(h, http.MethodPost, "/api/learn", body)

			Convey("Then it is rejected with 429 while queries stay open", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(third.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(third)["code"], ShouldEqual, "rate_limited")
				So(do(h, http.MethodGet, "/api/learning_stats", "").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given a server restricted to one origin", t, func() {
		h := api.NewServer(newEngineDeps(), nil, api.WithCORSOrigins([]string{"http://kitchen.test"})).Handler(context.Background())

		Convey("When a preflight comes from that origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/learn", http.NoBody)
			req.Header.Set("Origin", "http://kitchen.test")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the origin is allowed with credentials", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://kitchen.test")
				So(w.Header().Get("Access-Control-Allow-Credentials"), ShouldEqual, "true")
			})
		})

		Convey("When a request comes from another origin", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/learning_stats", http.NoBody)
			req.Header.Set("Origin", "http://elsewhere.test")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then no CORS header is sent", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a server open to any origin", t, func() {
		h := api.NewServer(newEngineDeps(), nil).Handler(context.Background())

		Convey("When a credentialed preflight comes from an arbitrary origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/learn", http.NoBody)
			req.Header.Set("Origin", "http://elsewhere.test")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the origin is allowed without credentials", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldNotBeEmpty)
				So(w.Header().Get("Access-Control-Allow-Credentials"), ShouldBeEmpty)
			})
		})
	})
}
