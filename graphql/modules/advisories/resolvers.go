// Package advisories implements the resolvers for advisory queries.
package advisories

import (
	"context"
	"errors"

	"github.com/lebnicolas/cvelistV5/database"
	"github.com/lebnicolas/cvelistV5/model"
)

// filterFromArgs maps GraphQL arguments onto the shared filter model.
func filterFromArgs(args map[string]interface{}) model.Filter {
	var f model.Filter
	if v, ok := args["state"].(string); ok {
		f.State = v
	}
	if v, ok := args["severity"].(string); ok {
		f.Severity = v
	}
	if v, ok := args["cvssMin"].(float64); ok {
		f.CVSSMin = &v
	}
	if v, ok := args["cvssMax"].(float64); ok {
		f.CVSSMax = &v
	}
	if v, ok := args["search"].(string); ok {
		f.Search = v
	}
	return f
}

// ResolveAdvisory fetches a single advisory by CVE id. Missing ids
// resolve to null rather than an error.
func ResolveAdvisory(ctx context.Context, db database.DBConnection, id string) (interface{}, error) {
	adv, err := database.GetAdvisory(ctx, db, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return adv, nil
}

// ResolveAdvisories fetches one page of advisories under the filter.
func ResolveAdvisories(ctx context.Context, db database.DBConnection, args map[string]interface{}) (interface{}, error) {
	page, _ := args["page"].(int)
	limit, _ := args["limit"].(int)
	sort, _ := args["sort"].(string)

	resp, err := database.ListAdvisories(ctx, db, filterFromArgs(args), sort, page, limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"advisories": resp.CVEs,
		"page":       resp.Pagination.Page,
		"limit":      resp.Pagination.Limit,
		"total":      resp.Pagination.Total,
		"totalPages": resp.Pagination.TotalPages,
	}, nil
}

// ResolveAdvisoryCount counts advisories matching the filter.
func ResolveAdvisoryCount(ctx context.Context, db database.DBConnection, args map[string]interface{}) (interface{}, error) {
	count, err := database.CountAdvisories(ctx, db, filterFromArgs(args))
	if err != nil {
		return nil, err
	}
	return int(count), nil
}
