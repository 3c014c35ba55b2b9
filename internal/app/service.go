// Package service wires the learning engine to deduplication, snapshot
// persistence and the archive, and implements the dependencies required by
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/archive"
	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/mq/queue"
	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/mq/worker"
	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/repository"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/dedupe"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/recipe"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/metrics"
)

// Service implements the API dependencies for the learning engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine  *learning.Engine
	deduper dedupe.Deduper
	store   repository.SnapshotStore
	archive *archive.Archive
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	stateBackend    string
	statePath       string
	archiveDriver   string
	archiveDSN      string
	breakerFailures int
	breakerTimeout  time.Duration
	engineOpts      []learning.Option

	// State
	started bool
	dropped atomic.Int64

	logger logger.Logger
}

// New constructs a Service. The engine starts in its default state; Start
// restores the persisted snapshot.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     1,
		queueSize:       256,
		dedupeSize:      50_000,
		stateBackend:    repository.BackendNone,
		archiveDriver:   "none",
		breakerFailures: 5,
		breakerTimeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.engine = learning.New(s.engineOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start opens the stores, restores the last snapshot and starts the
// persistence workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting learning service...")

	store, err := repository.Open(s.stateBackend, s.statePath, repository.WithLogger(s.logger.Named("store")))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	s.store = store
	s.restore(ctx)

	var archiver worker.Archiver
	if s.archiveDriver != "" && s.archiveDriver != "none" {
		a, err := archive.Open(ctx, s.archiveDriver, s.archiveDSN,
			archive.WithBreaker(s.breakerFailures, s.breakerTimeout),
			archive.WithLogger(s.logger.Named("archive")),
		)
		if err != nil {
			_ = s.store.Close()
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		s.archive = a
		archiver = a
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	metrics.UpdateQueueCapacity(s.queue.Cap())
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store, archiver, worker.WithLogger(s.logger))
	// Workers must outlive a cancelled start context so Stop can drain them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "learning service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("stateBackend", s.stateBackend),
		logger.String("archiveDriver", s.archiveDriver),
		logger.Int64("version", int64(s.engine.Version())),
	)
	return nil
}

func (s *Service) restore(ctx context.Context) {
	state, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrSnapshotNotFound):
		s.logger.Info(ctx, "no snapshot found, starting from defaults")
		return
	case errors.Is(err, repository.ErrCorruptSnapshot):
		s.logger.Error(ctx, "snapshot corrupt, starting from defaults", logger.Error(err))
		s.discard(ctx)
		return
	case err != nil:
		s.logger.Error(ctx, "snapshot load failed, starting from defaults", logger.Error(err))
		return
	}
	if err := s.engine.Restore(state); err != nil {
		s.logger.Error(ctx, "snapshot rejected, starting from defaults",
			logger.Int64("version", int64(state.Version)),
			logger.Int("schemaVersion", state.SchemaVersion),
			logger.Error(err),
		)
		s.discard(ctx)
		return
	}
	s.refreshGauges()
	s.logger.Info(ctx, "snapshot restored",
		logger.Int64("version", int64(state.Version)),
		logger.String("savedAt", state.SavedAt.Format(time.RFC3339)),
	)
}

// discard sets an unusable snapshot aside so saves from the default state
// are not skipped as stale.
func (s *Service) discard(ctx context.Context) {
	if err := s.store.Discard(ctx); err != nil {
		s.logger.Error(ctx, "could not set snapshot aside, saves may be skipped", logger.Error(err))
		return
	}
	s.logger.Warn(ctx, "unusable snapshot set aside", logger.String("stateBackend", s.stateBackend))
}

// Stop drains the persistence queue, saves a final snapshot and closes the
// stores.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping learning service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	snap := s.engine.Snapshot()
	written, err := s.store.Save(ctx, snap)
	switch {
	case err != nil:
		s.logger.Error(ctx, "final snapshot save failed", logger.Error(err))
		errs = append(errs, fmt.Errorf("%w: %w", learning.ErrPersistence, err))
	case !written:
		if err := s.checkFinal(ctx, snap.Version); err != nil {
			errs = append(errs, err)
		}
	}

	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}

	s.started = false
	s.logger.Info(ctx, "learning service stopped", logger.Int64("version", int64(snap.Version)))
	return errors.Join(errs...)
}

// checkFinal explains a final save that was not written. The same version
// already on disk is expected; a newer one means this run's state was lost.
func (s *Service) checkFinal(ctx context.Context, version uint64) error {
	stored, has, err := s.store.Version(ctx)
	if err != nil {
		s.logger.Warn(ctx, "final snapshot skipped, stored version unknown",
			logger.Int64("version", int64(version)), logger.Error(err))
		return nil
	}
	if has && stored > version {
		s.logger.Warn(ctx, "final snapshot skipped as stale",
			logger.Int64("version", int64(version)),
			logger.Int64("storedVersion", int64(stored)),
		)
		return fmt.Errorf("%w: final snapshot %d older than stored %d", learning.ErrPersistence, version, stored)
	}
	return nil
}

// Learn applies one feedback event and schedules its persistence. Events
// without an id get a fresh one and are never duplicates.
func (s *Service) Learn(ctx context.Context, ev model.FeedbackEvent) (types.LearnResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.LearnResult{}, ErrNotStarted
	}
	start := time.Now()

	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, ev.EventID) {
		metrics.RecordFeedback(metrics.OutcomeDuplicate)
		s.logger.Debug(ctx, "duplicate feedback event", logger.String("eventID", ev.EventID))
		return types.LearnResult{}, fmt.Errorf("%w: %s", learning.ErrDuplicate, ev.EventID)
	}

	res, err := s.engine.Learn(ev)
	if err != nil {
		s.deduper.Unrecord(ctx, ev.EventID)
		metrics.RecordFeedback(metrics.OutcomeInvalid)
		s.logger.Warn(ctx, "feedback event rejected",
			logger.String("eventID", ev.EventID),
			logger.String("recipeID", ev.RecipeID),
			logger.Error(err),
		)
		return types.LearnResult{}, err
	}
	metrics.RecordFeedback(metrics.OutcomeAccepted)
	metrics.RecordLearnLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.refreshGauges()
	s.schedule(ctx, ev, res)
	return res, nil
}

// schedule snapshots the engine and hands the snapshot, with the archive
// record, to the persistence workers.
func (s *Service) schedule(ctx context.Context, ev model.FeedbackEvent, res types.LearnResult) { //nolint:gocritic // hugeParam
	job := queue.Job{Snapshot: s.engine.Snapshot()}
	if s.archive != nil {
		rec := record(ev, res)
		job.Record = &rec
	}
	if !s.queue.Enqueue(ctx, job) {
		s.dropped.Add(1)
		s.logger.Warn(ctx, "persistence queue full, snapshot dropped",
			logger.Int64("version", int64(job.Snapshot.Version)),
			logger.Int("capacity", s.queue.Cap()),
		)
	}
}

// record builds the archive row from facts captured while the event was
// applied, so concurrent events cannot leak into it.
func record(ev model.FeedbackEvent, res types.LearnResult) archive.Record { //nolint:gocritic // hugeParam
	ev = ev.Normalized()
	at := ev.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return archive.Record{
		EventID:           ev.EventID,
		RecipeID:          ev.RecipeID,
		Ingredients:       ev.Ingredients,
		Techniques:        ev.Techniques,
		Rating:            *ev.Rating,
		Complexity:        res.Complexity,
		Novel:             res.Novel,
		Feedback:          ev.Feedback,
		At:                at.UTC(),
		Level:             res.Level,
		OverallMastery:    res.Facts.OverallMastery,
		KnownIngredients:  res.Facts.KnownIngredients,
		KnownTechniques:   res.Facts.KnownTechniques,
		KnownCombinations: res.Facts.KnownCombinations,
		Pairs:             res.Facts.Pairs,
	}
}

func (s *Service) refreshGauges() {
	stats := s.engine.Stats()
	level := s.engine.SkillLevel(1)
	metrics.UpdateComplexityLevel(level.Level)
	metrics.UpdateMastery(stats.OverallMastery, stats.CategoryMastery)
	metrics.UpdateKnowledge(stats.KnownIngredients, len(stats.TechniqueProficiency), stats.KnownCombinations, stats.SuccessfulInnovations)
}

// GenerateRecipe assembles a recipe for the ingredients using the learned state.
func (s *Service) GenerateRecipe(ctx context.Context, ingredients []string) (recipe.Recipe, error) {
	stats := s.engine.Stats()
	return recipe.Generate(ingredients, recipe.Knowledge{
		OverallMastery: stats.OverallMastery,
		KnownRecipes:   stats.KnownCombinations,
		Inputs:         s.GenerationInputs(ctx, ingredients),
	})
}

// GenerationInputs returns what a recipe generator consults for the ingredients.
func (s *Service) GenerationInputs(_ context.Context, ingredients []string) types.GenerationInputs {
	return s.engine.GenerateInputs(ingredients)
}

// LearningStats summarizes the learned state.
func (s *Service) LearningStats(context.Context) types.LearningStats {
	return s.engine.Stats()
}

// SkillLevel returns the complexity level with up to n progression entries.
func (s *Service) SkillLevel(_ context.Context, n int) types.SkillLevel {
	return s.engine.SkillLevel(n)
}

// IngredientCompatibility lists the known partners of an ingredient.
func (s *Service) IngredientCompatibility(_ context.Context, ingredient string) ([]types.PairScore, error) {
	return s.engine.IngredientRow(ingredient)
}

// Compatibility returns the learned compatibility of a pair.
func (s *Service) Compatibility(_ context.Context, a, b string) (types.PairScore, error) {
	return s.engine.Compatibility(a, b)
}

// Experiments returns the suggested flavor experiments.
func (s *Service) Experiments(context.Context) []types.Experiment {
	return s.engine.Experiments()
}

// Snapshot returns the current engine state.
func (s *Service) Snapshot() learning.State {
	return s.engine.Snapshot()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueCapacity": s.queueSize,
		"dedupeSize":    s.deduper.Size(),
		"stateBackend":  s.stateBackend,
		"archiveDriver": s.archiveDriver,
		"version":       s.engine.Version(),
		"dropped":       s.dropped.Load(),
	}

	if s.started {
		ctx := context.Background()
		stats["queueLength"] = s.queue.Len(ctx)
		c := s.pool.Counters()
		stats["processed"] = c.Processed.Load()
		stats["saved"] = c.Saved.Load()
		stats["stale"] = c.Stale.Load()
		stats["archived"] = c.Archived.Load()
		stats["failed"] = c.Failed.Load()
		if s.archive != nil {
			stats["archiveBreaker"] = s.archive.BreakerState()
		}
	}
	return stats
}
