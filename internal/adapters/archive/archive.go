// Package archive appends learning history to a relational database
// (sqlite or postgres). Writes run behind a circuit breaker so a failing
// database does not stall the persistence workers.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	gobreaker "github.com/sony/gobreaker/v2"
	_ "modernc.org/sqlite"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/metrics"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Write outcomes reported to metrics.
const (
	resultOK       = "ok"
	resultError    = "error"
	resultRejected = "rejected"
)

// Record is everything archived for one accepted feedback event.
type Record struct {
	EventID     string
	RecipeID    string
	Ingredients []string
	Techniques  []string
	Rating      float64
	Complexity  float64
	Novel       bool
	Feedback    string
	At          time.Time

	Level             int
	OverallMastery    float64
	KnownIngredients  int
	KnownTechniques   int
	KnownCombinations int

	// Pairs are the post-update compatibilities of the event's ingredients.
	Pairs []types.PairScore
}

// Counts reports table sizes.
type Counts struct {
	Feedback      int
	Progress      int
	Compatibility int
}

// Archive writes Records to a database.
type Archive struct {
	db      *sql.DB
	driver  string
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  logger.Logger

	failureThreshold uint32
	breakerTimeout   time.Duration

	closeOnce sync.Once
}

// Open connects to the database, creates the tables and returns the archive.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Archive, error) {
	var schema []string
	switch driver {
	case DriverSQLite:
		schema = sqliteSchema
	case DriverPostgres:
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	a := &Archive{
		db:               db,
		driver:           driver,
		logger:           logger.Nop(),
		failureThreshold: defaultFailureThreshold,
		breakerTimeout:   defaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "archive-" + driver,
		MaxRequests: 1,
		Timeout:     a.breakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= a.failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.logger.Warn(context.Background(), "archive breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return a, nil
}

// Write appends the feedback and progress rows and upserts the pair rows in
// one transaction.
func (a *Archive) Write(ctx context.Context, r Record) error {
	_, err := a.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, a.write(ctx, r)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordArchiveWrite(resultRejected)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case err != nil:
		metrics.RecordArchiveWrite(resultError)
		metrics.RecordErrorByComponent("archive", "write_failed")
		return err
	}
	metrics.RecordArchiveWrite(resultOK)
	return nil
}

func (a *Archive) write(ctx context.Context, r Record) error {
	ings, err := json.Marshal(r.Ingredients)
	if err != nil {
		return fmt.Errorf("encode ingredients: %w", err)
	}
	techs, err := json.Marshal(nonNil(r.Techniques))
	if err != nil {
		return fmt.Errorf("encode techniques: %w", err)
	}
	at := r.At.UTC()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, a.rebind(insertFeedback),
		r.EventID, r.RecipeID, string(ings), string(techs), r.Rating, r.Complexity, r.Novel, r.Feedback, at); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	if _, err := tx.ExecContext(ctx, a.rebind(insertProgress),
		at, r.Level, r.OverallMastery, r.KnownIngredients, r.KnownTechniques, r.KnownCombinations); err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}
	upsert := a.rebind(upsertCompatibility)
	for _, p := range r.Pairs {
		if _, err := tx.ExecContext(ctx, upsert, p.A, p.B, p.Score, p.Confidence, at); err != nil {
			return fmt.Errorf("upsert compatibility %s/%s: %w", p.A, p.B, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Counts returns the number of rows in each table.
func (a *Archive) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for table, dst := range map[string]*int{
		"feedback":                 &c.Feedback,
		"learning_progress":        &c.Progress,
		"ingredient_compatibility": &c.Compatibility,
	} {
		if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", table, err)
		}
	}
	return c, nil
}

// Compatibility returns the archived score and confidence of a pair.
func (a *Archive) Compatibility(ctx context.Context, ingredient1, ingredient2 string) (float64, int, error) {
	var score float64
	var confidence int
	err := a.db.QueryRowContext(ctx, a.rebind(
		`SELECT compatibility_score, confidence_score FROM ingredient_compatibility
		WHERE ingredient1 = ? AND ingredient2 = ?`), ingredient1, ingredient2).Scan(&score, &confidence)
	if err != nil {
		return 0, 0, err
	}
	return score, confidence, nil
}

// BreakerState returns the breaker state name: closed, half-open or open.
func (a *Archive) BreakerState() string {
	return a.breaker.State().String()
}

// Close closes the database.
func (a *Archive) Close() error {
	var err error
	a.closeOnce.Do(func() { err = a.db.Close() })
	return err
}

// rebind converts ? placeholders to $1, $2, ... for postgres.
func (a *Archive) rebind(query string) string {
	if a.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 1
	for _, ch := range query {
		if ch == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
