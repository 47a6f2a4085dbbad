// cveimport bulk-loads a CVE JSON file tree into the advisory store
// and optionally regenerates the discovery manifest afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lebnicolas/cvelistV5/database"
	"github.com/lebnicolas/cvelistV5/internal/discovery"
	"github.com/lebnicolas/cvelistV5/model"
	"github.com/lebnicolas/cvelistV5/util"
)

func main() {
	dir := flag.String("dir", "cves", "directory tree of CVE JSON files")
	manifest := flag.String("manifest", "", "write a discovery manifest to this path after importing")
	flag.Parse()

	logger := database.InitLogger()
	defer logger.Sync()

	db := database.InitializeDatabase()
	ctx := context.Background()

	var imported, skipped int
	err := filepath.Walk(*dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}
		if !util.IsCVEID(strings.TrimSuffix(info.Name(), ".json")) {
			return nil
		}

		payload, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Unreadable file, skipping", zap.String("path", path), zap.Error(err))
			skipped++
			return nil
		}
		adv, err := model.Derive(payload)
		if err != nil {
			logger.Warn("Malformed CVE record, skipping", zap.String("path", path), zap.Error(err))
			skipped++
			return nil
		}
		if err := database.UpsertAdvisory(ctx, db, adv); err != nil {
			return fmt.Errorf("upsert %s: %w", adv.ID, err)
		}

		imported++
		if imported%100 == 0 {
			logger.Info("Import progress", zap.Int("imported", imported))
		}
		return nil
	})
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	logger.Info("Import complete", zap.Int("imported", imported), zap.Int("skipped", skipped))

	if *manifest != "" {
		m, err := discovery.GenerateManifestFromDir(*dir)
		if err != nil {
			logger.Fatal("Manifest generation failed", zap.Error(err))
		}
		if err := discovery.WriteManifest(*manifest, m); err != nil {
			logger.Fatal("Manifest write failed", zap.Error(err))
		}
		logger.Info("Manifest written", zap.String("path", *manifest), zap.Int("totalCves", m.TotalCVEs))
	}
}
