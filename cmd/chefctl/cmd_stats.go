package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
	"github.com/chris-altman/chef-ai-learning-lab/internal/simulate"
)

var statsFlags struct {
	url     string
	timeout time.Duration
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print learning stats and skill level of a running server",
	RunE:  runStats,
}

func init() {
	f := statsCmd.Flags()
	f.StringVar(&statsFlags.url, "url", "http://localhost:5000", "Base URL of the service")
	f.DurationVar(&statsFlags.timeout, "timeout", 10*time.Second, "HTTP request timeout")
}

func runStats(cmd *cobra.Command, _ []string) error {
	client := simulate.NewClient(statsFlags.url, statsFlags.timeout)
	stats, err := client.LearningStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("learning stats: %w", err)
	}
	level, err := client.SkillLevel(cmd.Context())
	if err != nil {
		return fmt.Errorf("skill level: %w", err)
	}
	return writeYAML(cmd, struct {
		Learning   types.LearningStats `yaml:"learning"`
		SkillLevel types.SkillLevel    `yaml:"skill_level"`
	}{stats, level})
}
