package simulate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

const directoryPermission = 0o750

// Run checks the service, submits the generated events concurrently, replays
// a fraction of them and reports what the engine learned.
func Run(ctx context.Context, cfg Config) (Report, error) { //nolint:gocritic // hugeParam
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	if cfg.NumEvents <= 0 {
		return Report{}, ErrNoEvents
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	start := time.Now()

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return Report{}, fmt.Errorf("service health check failed: %w", err)
	}

	events := NewGenerator(cfg.Seed).Events(cfg.NumEvents)
	if cfg.OutputFile != "" {
		if err := saveEvents(cfg.OutputFile, events); err != nil {
			log.Warn(ctx, "failed to save events to file", logger.Error(err))
		}
	}

	replays := int(float64(len(events)) * min(max(cfg.Replays, 0), 1))

	log.Info(ctx, "submitting feedback events",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", len(events)),
		logger.Int("replays", replays),
		logger.Int("workers", cfg.Workers))

	stats := submit(ctx, client, cfg.Workers, events, events[:replays])
	stats.Generated = len(events)
	stats.Duration = time.Since(start)

	learning, err := client.LearningStats(ctx)
	if err != nil {
		return Report{Stats: stats}, err
	}
	level, err := client.SkillLevel(ctx)
	if err != nil {
		return Report{Stats: stats, Learning: learning}, err
	}

	log.Info(ctx, "simulation finished",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("level", level.Level),
		logger.Duration("duration", stats.Duration))
	return Report{Stats: stats, Learning: learning, SkillLevel: level}, nil
}

// submit sends events through a worker pool, then the replays once every
// original was answered so replays are always seen as duplicates.
func submit(ctx context.Context, client *Client, workers int, events, replays []model.FeedbackEvent) Stats {
	var counts [4]atomic.Int64
	index := map[Outcome]int{OutcomeAccepted: 0, OutcomeDuplicate: 1, OutcomeRejected: 2, OutcomeFailed: 3}

	run := func(batch []model.FeedbackEvent) {
		ch := make(chan model.FeedbackEvent, workers*2)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for ev := range ch {
					counts[index[client.Submit(ctx, ev)]].Add(1)
				}
			}()
		}
	feed:
		for _, ev := range batch {
			select {
			case <-ctx.Done():
				break feed
			case ch <- ev:
			}
		}
		close(ch)
		wg.Wait()
	}
	run(events)
	run(replays)

	s := Stats{
		Accepted:  int(counts[0].Load()),
		Duplicate: int(counts[1].Load()),
		Rejected:  int(counts[2].Load()),
		Failed:    int(counts[3].Load()),
	}
	s.Submitted = s.Accepted + s.Duplicate + s.Rejected + s.Failed
	return s
}

func saveEvents(filename string, events []model.FeedbackEvent) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}
