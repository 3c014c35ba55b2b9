// Package api serves the learning engine over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/recipe"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service.
type Dependencies interface {
	// Learn applies one feedback event. Replays return learning.ErrDuplicate.
	Learn(ctx context.Context, ev model.FeedbackEvent) (types.LearnResult, error)
	GenerateRecipe(ctx context.Context, ingredients []string) (recipe.Recipe, error)
	GenerationInputs(ctx context.Context, ingredients []string) types.GenerationInputs
	LearningStats(ctx context.Context) types.LearningStats
	SkillLevel(ctx context.Context, n int) types.SkillLevel
	IngredientCompatibility(ctx context.Context, ingredient string) ([]types.PairScore, error)
	Compatibility(ctx context.Context, a, b string) (types.PairScore, error)
	Experiments(ctx context.Context) []types.Experiment
}

// StatsProvider exposes operational counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the learning API.
type Server struct {
	learnHandler   *LearnHandler
	recipeHandler  *RecipeHandler
	queryHandler   *QueryHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	corsOrigins    []string
	learnRateLimit int
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed origins; "*" allows any.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithLearnRateLimit caps POST /api/learn per client IP, requests per minute.
// 0 disables the limit.
func WithLearnRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute >= 0 {
			s.learnRateLimit = perMinute
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		corsOrigins: []string{"*"},
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.learnHandler = NewLearnHandler(deps, s.logger)
	s.recipeHandler = NewRecipeHandler(deps)
	s.queryHandler = NewQueryHandler(deps)
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	return s
}

// credentialsAllowed reports whether credentialed requests may be allowed.
// A wildcard origin never gets them.
func credentialsAllowed(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, o := range origins {
		if strings.Contains(o, "*") {
			return false
		}
	}
	return true
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: credentialsAllowed(s.corsOrigins),
		MaxAge:           300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.With(s.learnLimiter()).Post("/learn", MetricsMiddleware(s.learnHandler.HandleLearn, "learn"))
		r.Post("/generate_recipe", MetricsMiddleware(s.recipeHandler.HandleGenerate, "generate_recipe"))
		r.Get("/generation_inputs", MetricsMiddleware(s.queryHandler.HandleGenerationInputs, "generation_inputs"))
		r.Get("/learning_stats", MetricsMiddleware(s.queryHandler.HandleLearningStats, "learning_stats"))
		r.Get("/skill_level", MetricsMiddleware(s.queryHandler.HandleSkillLevel, "skill_level"))
		r.Get("/ingredient_compatibility/{ingredient}", MetricsMiddleware(s.queryHandler.HandleIngredientCompatibility, "ingredient_compatibility"))
		r.Get("/compatibility", MetricsMiddleware(s.queryHandler.HandleCompatibility, "compatibility"))
		r.Get("/experiments", MetricsMiddleware(s.queryHandler.HandleExperiments, "experiments"))
	})
}

// Handler builds a router with every route registered.
func (s *Server) Handler(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

func (s *Server) learnLimiter() func(http.Handler) http.Handler {
	if s.learnRateLimit == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.learnRateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, NewKind("api.learn", ErrRateLimited))
		}),
	)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
