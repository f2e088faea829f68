package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iowarp/context-runtime/pkg/log"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <manifest.yaml>",
	Short: "Schedule a transfer manifest's entries through the ingest engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath := args[0]
		dataDir, _ := cmd.Flags().GetString("data-dir")
		workers, _ := cmd.Flags().GetInt("workers")

		manifestData, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}

		rt, err := newRuntime(1, dataDir, workers)
		if err != nil {
			return fmt.Errorf("start runtime: %w", err)
		}
		defer rt.Close()

		scheduled, err := rt.cae.Ingest(context.Background(), manifestData)
		if err != nil {
			log.WithComponent("ingest").Error().Err(err).Msg("ingest failed")
			return err
		}

		log.WithComponent("ingest").Info().Int("scheduled", scheduled).Msg("Tasks scheduled")
		fmt.Printf("Tasks scheduled: %d\n", scheduled)
		return nil
	},
}
