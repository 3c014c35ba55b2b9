package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/repository"
	"github.com/chris-altman/chef-ai-learning-lab/internal/config"
)

var snapshotFlags struct {
	backend string
	path    string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect persisted engine snapshots",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest snapshot as YAML",
	Long: "Print the latest snapshot as YAML. Backend and path default to the\n" +
		"server configuration (CHEF_CONFIG file and CHEF_ env vars). A badger\n" +
		"directory cannot be read while the server holds it open.",
	RunE: runSnapshotShow,
}

func init() {
	f := snapshotShowCmd.Flags()
	f.StringVar(&snapshotFlags.backend, "backend", "", "Snapshot backend: file or badger (default from config)")
	f.StringVar(&snapshotFlags.path, "path", "", "Snapshot file or badger directory (default from config)")
	snapshotCmd.AddCommand(snapshotShowCmd)
}

func runSnapshotShow(cmd *cobra.Command, _ []string) error {
	backend, path := snapshotFlags.backend, snapshotFlags.path
	if backend == "" || path == "" {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		if backend == "" {
			backend = cfg.StateBackend
		}
		if path == "" {
			path = cfg.StatePath
		}
	}

	store, err := repository.Open(backend, path)
	if err != nil {
		return fmt.Errorf("open %s store: %w", backend, err)
	}
	defer func() { _ = store.Close() }()

	state, err := store.Load(cmd.Context())
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "no snapshot in %s store at %q\n", backend, path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	return writeYAML(cmd, state)
}
