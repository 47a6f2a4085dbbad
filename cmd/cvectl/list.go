package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lebnicolas/cvelistV5/internal/syncer"
	"github.com/lebnicolas/cvelistV5/model"
	"github.com/lebnicolas/cvelistV5/util"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached advisories",
	Long: `List the advisories held after a sync, ordered by CVE id.

Runs a sync first so the listing reflects the current catalog; when no
source is reachable the listing covers the local cache contents.`,
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

		run := engine.Discover(context.Background(), syncer.Options{})
		for range run.Progress() {
		}
		records, err := run.Wait()
		if err != nil && len(records) == 0 {
			return err
		}

		byID := make(map[string]model.Advisory, len(records))
		ids := make([]string, 0, len(records))
		for _, adv := range records {
			byID[adv.ID] = adv
			ids = append(ids, adv.ID)
		}
		util.SortByNumericSuffix(ids)

		if listLimit > 0 && len(ids) > listLimit {
			ids = ids[:listLimit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CVE ID\tPUBLISHED\tSCORE\tSEVERITY\tTITLE")
		for _, id := range ids {
			adv := byID[id]
			score := "-"
			if adv.Score != nil {
				score = fmt.Sprintf("%.1f", *adv.Score)
			}
			title := adv.Title
			if len(title) > 60 {
				title = title[:57] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", adv.ID, adv.DatePublished, score, adv.Severity, title)
		}
		w.Flush()
		fmt.Printf("\n%d advisories\n", len(records))
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many rows (0 = all)")
	rootCmd.AddCommand(listCmd)
}
