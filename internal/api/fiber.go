package api

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lebnicolas/cvelistV5/database"
	gqlschema "github.com/lebnicolas/cvelistV5/graphql"
	"github.com/lebnicolas/cvelistV5/restapi"
)

// NewFiberApp creates and configures a Fiber app with REST and GraphQL routes
func NewFiberApp(db database.DBConnection) *fiber.App {
	// Initialize GraphQL schema
	schema, err := gqlschema.CreateSchema(db)
	if err != nil {
		log.Fatalf("Failed to create GraphQL schema: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "cvelistV5 API v1.0",
		BodyLimit: 10 * 1024 * 1024, // 10MB, CVE payloads are small
		// Batch requests carry up to 1000 percent-encoded ids in the
		// query string (~16KB); the 4KB default would reject them.
		ReadBufferSize: 64 * 1024,
		ReadTimeout:    60 * time.Second,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, HEAD, OPTIONS",
	}))

	app.Use(logger.New())

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	// Setup REST and GraphQL routes
	restapi.SetupRoutes(app, db, schema)

	return app
}
