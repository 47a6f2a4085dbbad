// cvectl is the client-side companion to the cved query service: it
// synchronizes the CVE catalog into a local cache and answers queries
// against it, working offline when the service is unreachable.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lebnicolas/cvelistV5/internal/cache"
	"github.com/lebnicolas/cvelistV5/internal/client"
	"github.com/lebnicolas/cvelistV5/internal/config"
	"github.com/lebnicolas/cvelistV5/internal/discovery"
	"github.com/lebnicolas/cvelistV5/internal/syncer"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cvectl",
	Short: "Synchronize and query the CVE advisory catalog",
	Long: `cvectl keeps a local copy of the CVE advisory catalog in sync with a
cved query service and answers queries against it.

When the service is unreachable, cvectl falls back to discovery
artifacts (a manifest or delta log) plus per-record file fetches, so a
previously synced catalog stays usable offline.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath)
}

func newLogger() *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

// buildEngine wires the sync engine from the loaded configuration. The
// returned cleanup closes the durable cache; it is non-nil even when
// the cache failed to open.
func buildEngine(cfg config.Config, log *zap.Logger) (*syncer.Engine, func(), error) {
	svc := client.New(cfg.ServerURL)
	source := discovery.NewSource(cfg.ManifestPath, cfg.DeltaLogPath, log)

	var fetcher discovery.Fetcher
	switch {
	case cfg.FilesDir != "":
		fetcher = &discovery.DirFetcher{Dir: cfg.FilesDir}
	case cfg.FilesURL != "":
		fetcher = discovery.NewHTTPFileFetcher(cfg.FilesURL)
	}

	local, err := cache.OpenLocalCache(cfg.CachePath())
	if err != nil {
		// A broken durable cache degrades the client, it does not
		// stop it.
		log.Warn("local cache unavailable", zap.Error(err))
		engine := syncer.New(svc, source, fetcher, nil, cache.NewMemoryCache(), cfg.EngineConfig(), log)
		return engine, func() {}, nil
	}

	engine := syncer.New(svc, source, fetcher, local, cache.NewMemoryCache(), cfg.EngineConfig(), log)
	return engine, func() { _ = local.Close() }, nil
}
