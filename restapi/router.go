// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"log"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/lebnicolas/cvelistV5/database"
	"github.com/lebnicolas/cvelistV5/restapi/modules/advisories"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, db database.DBConnection, schema graphql.Schema) {
	api := app.Group("/api")

	// CVE query service. Order matters: count and batch must be
	// registered before the :cveId wildcard.
	cves := api.Group("/cves")
	cves.Get("/count", advisories.GetCount(db))
	cves.Get("/batch", advisories.GetBatch(db))
	cves.Get("/:cveId", advisories.GetByID(db))
	cves.Get("/", advisories.GetList(db))
	cves.Post("/", advisories.PostAdvisory(db))

	// GraphQL read endpoint
	api.Post("/graphql", GraphQLHandler(schema))

	// Manifest regeneration, for compatibility with file-based clients
	cvesDir := database.GetEnvDefault("CVE_FILES_DIR", "")
	if cvesDir != "" {
		app.Post("/regenerate-index", advisories.RegenerateIndex(db, filepath.Join(cvesDir, "index.json")))
	}

	log.Println("API routes initialized successfully")
}
