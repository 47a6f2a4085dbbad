// Package advisories implements the REST API handlers for the CVE query service.
package advisories

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lebnicolas/cvelistV5/database"
	"github.com/lebnicolas/cvelistV5/internal/discovery"
	"github.com/lebnicolas/cvelistV5/model"
)

// storeUnavailable is the error body every operation returns when the
// Record Store cannot be reached.
func storeUnavailable(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "StoreUnavailable: " + err.Error(),
	})
}

// parseFilter reads the filter query params. Malformed numeric values
// are treated as absent predicates, not as errors.
func parseFilter(c *fiber.Ctx) model.Filter {
	f := model.Filter{
		State:    c.Query("state"),
		Severity: c.Query("severity"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("cvssMin"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.CVSSMin = &v
		}
	}
	if raw := c.Query("cvssMax"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.CVSSMax = &v
		}
	}
	return f
}

// GetCount handles GET /api/cves/count.
func GetCount(db database.DBConnection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := database.CountAdvisories(c.Context(), db, parseFilter(c))
		if err != nil {
			return storeUnavailable(c, err)
		}
		return c.JSON(model.CountResponse{Count: count})
	}
}

// GetByID handles GET /api/cves/:cveId.
func GetByID(db database.DBConnection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adv, err := database.GetAdvisory(c.Context(), db, c.Params("cveId"))
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "CVE not found",
				})
			}
			return storeUnavailable(c, err)
		}
		return c.JSON(adv)
	}
}

// GetBatch handles GET /api/cves/batch?ids=CVE-...,CVE-...
// At most the first 1000 ids are used; the rest are silently ignored.
func GetBatch(db database.DBConnection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idsParam := c.Query("ids")
		if idsParam == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": `Parameter "ids" required (comma-separated)`,
			})
		}

		var ids []string
		for _, id := range strings.Split(idsParam, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No valid CVE IDs provided",
			})
		}

		advisories, err := database.BatchGetAdvisories(c.Context(), db, ids)
		if err != nil {
			return storeUnavailable(c, err)
		}
		return c.JSON(model.BatchResponse{CVEs: advisories, Count: len(advisories)})
	}
}

// GetList handles GET /api/cves with pagination, filters and sorting.
// The fields=ids projection returns only the matching ids.
func GetList(db database.DBConnection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 0)
		sort := c.Query("sort")
		filter := parseFilter(c)

		if c.Query("fields") == "ids" {
			resp, err := database.ListAdvisoryIDs(c.Context(), db, filter, sort, page, limit)
			if err != nil {
				return storeUnavailable(c, err)
			}
			return c.JSON(resp)
		}

		resp, err := database.ListAdvisories(c.Context(), db, filter, sort, page, limit)
		if err != nil {
			return storeUnavailable(c, err)
		}
		return c.JSON(resp)
	}
}

// PostAdvisory handles POST /api/cves. The body is a raw CVE payload;
// derived fields are recomputed here, never accepted from the client.
func PostAdvisory(db database.DBConnection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adv, err := model.Derive(c.Body())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(model.UpsertResponse{
				Success: false,
				Message: err.Error(),
			})
		}

		if err := database.UpsertAdvisory(c.Context(), db, adv); err != nil {
			return storeUnavailable(c, err)
		}
		return c.JSON(model.UpsertResponse{
			Success: true,
			Message: "advisory upserted",
			ID:      adv.ID,
		})
	}
}

// RegenerateIndex handles POST /regenerate-index. It rebuilds the
// discovery manifest from the Record Store and writes it to outPath.
func RegenerateIndex(db database.DBConnection, outPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := allAdvisoryIDs(c, db)
		if err != nil {
			return storeUnavailable(c, err)
		}

		manifest := discovery.BuildManifest(ids)
		if err := discovery.WriteManifest(outPath, manifest); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "failed to write index: " + err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "index regenerated",
			"total":   manifest.TotalCVEs,
		})
	}
}

func allAdvisoryIDs(c *fiber.Ctx, db database.DBConnection) ([]string, error) {
	var ids []string
	for page := 1; ; page++ {
		resp, err := database.ListAdvisoryIDs(c.Context(), db, model.Filter{}, model.SortIDAsc, page, model.MaxListLimit)
		if err != nil {
			return nil, err
		}
		ids = append(ids, resp.IDs...)
		if int64(page) >= resp.Pagination.TotalPages {
			break
		}
	}
	return ids, nil
}
