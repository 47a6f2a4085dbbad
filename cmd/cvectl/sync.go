package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lebnicolas/cvelistV5/internal/syncer"
)

var syncFullRefresh bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the local cache with the advisory catalog",
	Long: `Synchronize the local cache with the advisory catalog.

Records already held locally are reused; only the gap between the local
cache and the candidate id set is fetched. With --full every record is
re-fetched regardless of cache state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()
		defer log.Sync()

		engine, cleanup, err := buildEngine(cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		run := engine.Discover(context.Background(), syncer.Options{FullRefresh: syncFullRefresh})
		for p := range run.Progress() {
			if p.Total > 0 {
				fmt.Printf("\r%-70s", p.Status)
			}
		}
		fmt.Println()

		records, err := run.Wait()
		if errors.Is(err, syncer.ErrNoDiscoverySource) {
			fmt.Printf("No discovery source reachable; local cache holds %d advisories\n", len(records))
			return err
		}
		if err != nil {
			return err
		}

		fmt.Printf("Synchronized %d advisories\n", len(records))
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFullRefresh, "full", false, "re-fetch every record, bypassing caches")
	rootCmd.AddCommand(syncCmd)
}
