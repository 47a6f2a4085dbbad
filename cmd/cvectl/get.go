package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lebnicolas/cvelistV5/internal/cache"
	"github.com/lebnicolas/cvelistV5/internal/client"
	"github.com/lebnicolas/cvelistV5/internal/config"
	"github.com/lebnicolas/cvelistV5/internal/discovery"
	"github.com/lebnicolas/cvelistV5/model"
	"github.com/lebnicolas/cvelistV5/util"
)

var getRaw bool

var getCmd = &cobra.Command{
	Use:   "get <cve-id>",
	Short: "Show a single advisory",
	Long: `Show a single advisory by CVE id.

Resolution order: the local cache, then the query service, then the
raw file source.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.ToUpper(args[0])
		if !util.IsCVEID(id) {
			return fmt.Errorf("%q is not a CVE id", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()
		defer log.Sync()

		ctx := context.Background()
		adv, err := resolveAdvisory(ctx, cfg, id)
		if err != nil {
			return err
		}

		if getRaw {
			os.Stdout.Write(adv.Payload)
			fmt.Println()
			return nil
		}

		out, err := json.MarshalIndent(adv, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func resolveAdvisory(ctx context.Context, cfg config.Config, id string) (*model.Advisory, error) {
	if local, err := cache.OpenLocalCache(cfg.CachePath()); err == nil {
		adv, err := local.Get(id)
		local.Close()
		if err == nil && adv != nil {
			return adv, nil
		}
	}

	svc := client.New(cfg.ServerURL)
	adv, err := svc.Get(ctx, id)
	if err == nil {
		return adv, nil
	}
	if !errors.Is(err, client.ErrNotFound) {
		switch {
		case cfg.FilesDir != "":
			return (&discovery.DirFetcher{Dir: cfg.FilesDir}).FetchAdvisory(ctx, id)
		case cfg.FilesURL != "":
			return discovery.NewHTTPFileFetcher(cfg.FilesURL).FetchAdvisory(ctx, id)
		}
	}
	return nil, err
}

func init() {
	getCmd.Flags().BoolVar(&getRaw, "raw", false, "print the raw CVE JSON payload")
	rootCmd.AddCommand(getCmd)
}
