package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/mltrack/artifact"
	"github.com/randalmurphal/mltrack/logging"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete artifact directories past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New("gc")

		store := artifact.NewStore(cfg.ArtifactsDir)
		sweeper := artifact.NewSweeper(store, cfg.Retention)

		usage, err := sweeper.Usage()
		if err != nil {
			return fmt.Errorf("scan artifact root: %w", err)
		}
		log.Info("artifact usage", "runs", usage.RunCount, "bytes", usage.TotalSize)

		result, err := sweeper.Sweep(gcDryRun)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		for _, sweepErr := range result.Errors {
			log.Warn("sweep error", "error", sweepErr)
		}
		verb := "deleted"
		if gcDryRun {
			verb = "would delete"
		}
		fmt.Printf("%s %d run(s), kept %d, freed %d bytes\n",
			verb, len(result.Deleted), len(result.Kept), result.SpaceFreed)
		return nil
	},
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "report what would be deleted without deleting")
}
