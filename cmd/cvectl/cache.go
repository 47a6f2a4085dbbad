package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lebnicolas/cvelistV5/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show local cache location and record count",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		local, err := cache.OpenLocalCache(cfg.CachePath())
		if err != nil {
			return err
		}
		defer local.Close()

		count, err := local.Count()
		if err != nil {
			return err
		}
		fmt.Printf("Cache:      %s\n", local.Path())
		fmt.Printf("Advisories: %d\n", count)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every record from the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		local, err := cache.OpenLocalCache(cfg.CachePath())
		if err != nil {
			return err
		}
		defer local.Close()

		if err := local.Clear(); err != nil {
			return err
		}
		fmt.Println("Local cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
