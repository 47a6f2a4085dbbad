// package main provides the entry point for the cved query service,
// serving the CVE advisory catalog over REST and GraphQL backed by
// ArangoDB.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/lebnicolas/cvelistV5/database"
	"github.com/lebnicolas/cvelistV5/internal/api"
	"github.com/lebnicolas/cvelistV5/internal/discovery"
	"github.com/lebnicolas/cvelistV5/internal/kafka"
)

func main() {
	// Initialize database connection
	db := database.InitializeDatabase()

	// Regenerate the discovery manifest from the raw file tree so
	// offline clients see the catalog this server was started with.
	if filesDir := os.Getenv("CVE_FILES_DIR"); filesDir != "" {
		manifestPath := filepath.Join(filesDir, "index.json")
		if m, err := discovery.GenerateManifestFromDir(filesDir); err != nil {
			log.Printf("Manifest generation failed: %v", err)
		} else if err := discovery.WriteManifest(manifestPath, m); err != nil {
			log.Printf("Manifest write failed: %v", err)
		} else {
			log.Printf("Wrote manifest with %d CVEs to %s", m.TotalCVEs, manifestPath)
		}
	}

	// Optional Kafka ingest worker
	if os.Getenv("KAFKA_ENABLED") == "true" {
		if err := kafka.RunEventProcessor(context.Background(), db); err != nil {
			log.Printf("Kafka event processor unavailable: %v", err)
		}
	}

	app := api.NewFiberApp(db)

	// Get port from environment or default to 3000
	port := os.Getenv("MS_PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Starting server on port %s", port)
	log.Printf("GraphQL endpoint available at /api/graphql")
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
