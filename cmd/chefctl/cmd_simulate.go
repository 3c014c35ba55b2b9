package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chris-altman/chef-ai-learning-lab/internal/simulate"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

var simulateFlags struct {
	url     string
	events  int
	workers int
	timeout time.Duration
	replays float64
	seed    uint64
	output  string
	verbose bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Submit synthetic feedback events and report what was learned",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateFlags.url, "url", "http://localhost:5000", "Base URL of the service")
	f.IntVar(&simulateFlags.events, "events", 1000, "Number of distinct events to submit")
	f.IntVar(&simulateFlags.workers, "workers", runtime.NumCPU(), "Number of concurrent submitters")
	f.DurationVar(&simulateFlags.timeout, "timeout", 10*time.Second, "HTTP request timeout")
	f.Float64Var(&simulateFlags.replays, "replays", 0.1, "Fraction of events submitted twice")
	f.Uint64Var(&simulateFlags.seed, "seed", uint64(time.Now().UnixNano()), "Generator seed")
	f.StringVar(&simulateFlags.output, "output", "", "Write the generated events to this JSON file")
	f.BoolVar(&simulateFlags.verbose, "verbose", false, "Log progress to stderr")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	log := logger.Nop()
	if simulateFlags.verbose {
		if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = logger.Named("simulate")
	}

	report, err := simulate.Run(cmd.Context(), simulate.Config{
		BaseURL:    simulateFlags.url,
		NumEvents:  simulateFlags.events,
		Workers:    simulateFlags.workers,
		Timeout:    simulateFlags.timeout,
		Replays:    simulateFlags.replays,
		Seed:       simulateFlags.seed,
		OutputFile: simulateFlags.output,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	return writeYAML(cmd, report)
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
