package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/lebnicolas/cvelistV5/model"
)

// ErrNotFound is returned when a CVE id has no document in the store.
var ErrNotFound = errors.New("advisory not found")

// buildAdvisoryFilter renders the AND-combined filter predicates as AQL
// FILTER clauses over a document bound to @doc variable d, returning the
// clause text and its bind vars.
func buildAdvisoryFilter(f model.Filter) (string, map[string]interface{}) {
	var clauses []string
	bindVars := map[string]interface{}{}

	if f.State != "" {
		clauses = append(clauses, "FILTER d.state == @state")
		bindVars["state"] = f.State
	}
	if f.Severity != "" {
		clauses = append(clauses, "FILTER d.severity == @severity")
		bindVars["severity"] = strings.ToUpper(f.Severity)
	}
	if f.CVSSMin != nil {
		clauses = append(clauses, "FILTER d.cvssScore >= @cvssMin")
		bindVars["cvssMin"] = *f.CVSSMin
	}
	if f.CVSSMax != nil {
		clauses = append(clauses, "FILTER d.cvssScore <= @cvssMax")
		bindVars["cvssMax"] = *f.CVSSMax
	}
	if f.Search != "" {
		clauses = append(clauses,
			"FILTER (CONTAINS(LOWER(d.title), @search) OR CONTAINS(LOWER(d.id), @search) OR CONTAINS(LOWER(d.vendor), @search))")
		bindVars["search"] = strings.ToLower(f.Search)
	}

	return strings.Join(clauses, "\n\t\t\t"), bindVars
}

// sortClause maps a sort key to its AQL SORT clause. Unknown keys fall
// back to the default publish-date-descending order.
func sortClause(sort string) string {
	switch sort {
	case model.SortDateAsc:
		return "SORT d.datePublished ASC"
	case model.SortCVSSDesc:
		return "SORT d.cvssScore DESC"
	case model.SortCVSSAsc:
		return "SORT d.cvssScore ASC"
	case model.SortIDAsc:
		return "SORT d.id ASC"
	case model.SortIDDesc:
		return "SORT d.id DESC"
	default:
		return "SORT d.datePublished DESC"
	}
}

// UpsertAdvisory inserts or fully replaces the advisory keyed by its id.
// There is no partial merge: the stored document is always a complete
// derivation from the payload.
func UpsertAdvisory(ctx context.Context, db DBConnection, adv model.Advisory) error {
	query := `
		UPSERT { _key: @key }
			INSERT @doc
			REPLACE @doc
		IN cve
	`
	bindVars := map[string]interface{}{
		"key": adv.Key,
		"doc": adv,
	}

	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return fmt.Errorf("failed to upsert advisory %s: %w", adv.ID, err)
	}
	defer cursor.Close()
	return nil
}

// CountAdvisories returns the number of advisories matching the filter.
func CountAdvisories(ctx context.Context, db DBConnection, f model.Filter) (int64, error) {
	filterClause, bindVars := buildAdvisoryFilter(f)
	query := fmt.Sprintf(`
		FOR d IN cve
			%s
			COLLECT WITH COUNT INTO total
			RETURN total
	`, filterClause)

	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return 0, fmt.Errorf("failed to count advisories: %w", err)
	}
	defer cursor.Close()

	var total int64
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &total); err != nil {
			return 0, fmt.Errorf("failed to read count: %w", err)
		}
	}
	return total, nil
}

// GetAdvisory returns the advisory for the given id, or ErrNotFound.
func GetAdvisory(ctx context.Context, db DBConnection, id string) (*model.Advisory, error) {
	query := `
		FOR d IN cve
			FILTER d.id == @id
			LIMIT 1
			RETURN d
	`
	bindVars := map[string]interface{}{"id": id}

	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("failed to get advisory %s: %w", id, err)
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, ErrNotFound
	}
	var adv model.Advisory
	if _, err := cursor.ReadDocument(ctx, &adv); err != nil {
		return nil, fmt.Errorf("failed to read advisory %s: %w", id, err)
	}
	return &adv, nil
}

// truncateBatchIDs caps the requested id set at model.MaxBatchIDs,
// keeping the first ids in request order.
func truncateBatchIDs(ids []string) []string {
	if len(ids) > model.MaxBatchIDs {
		return ids[:model.MaxBatchIDs]
	}
	return ids
}

// BatchGetAdvisories returns the advisories for at most the first
// model.MaxBatchIDs requested ids; ids beyond that are silently ignored.
func BatchGetAdvisories(ctx context.Context, db DBConnection, ids []string) ([]model.Advisory, error) {
	ids = truncateBatchIDs(ids)

	query := `
		FOR d IN cve
			FILTER d.id IN @ids
			RETURN d
	`
	bindVars := map[string]interface{}{"ids": ids}

	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("failed to batch get advisories: %w", err)
	}
	defer cursor.Close()

	advisories := make([]model.Advisory, 0, len(ids))
	for cursor.HasMore() {
		var adv model.Advisory
		if _, err := cursor.ReadDocument(ctx, &adv); err != nil {
			return nil, fmt.Errorf("failed to read advisory batch: %w", err)
		}
		advisories = append(advisories, adv)
	}
	return advisories, nil
}

// ListAdvisories returns one page of advisories under the filter and
// sort, with the limit clamped per the API contract.
func ListAdvisories(ctx context.Context, db DBConnection, f model.Filter, sort string, page, limit int) (*model.ListResponse, error) {
	limit = model.ClampLimit(limit)
	if page < 1 {
		page = 1
	}

	total, err := CountAdvisories(ctx, db, f)
	if err != nil {
		return nil, err
	}

	filterClause, bindVars := buildAdvisoryFilter(f)
	query := fmt.Sprintf(`
		FOR d IN cve
			%s
			%s
			LIMIT @offset, @limit
			RETURN d
	`, filterClause, sortClause(sort))
	bindVars["offset"] = (page - 1) * limit
	bindVars["limit"] = limit

	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("failed to list advisories: %w", err)
	}
	defer cursor.Close()

	advisories := make([]model.Advisory, 0, limit)
	for cursor.HasMore() {
		var adv model.Advisory
		if _, err := cursor.ReadDocument(ctx, &adv); err != nil {
			return nil, fmt.Errorf("failed to read advisory page: %w", err)
		}
		advisories = append(advisories, adv)
	}

	return &model.ListResponse{
		CVEs: advisories,
		Pagination: model.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: model.TotalPages(total, limit),
		},
	}, nil
}

// ListAdvisoryIDs is the ids-only projection of ListAdvisories, used by
// sync clients resolving the candidate id set without payload transfer.
func ListAdvisoryIDs(ctx context.Context, db DBConnection, f model.Filter, sort string, page, limit int) (*model.IDListResponse, error) {
	limit = model.ClampLimit(limit)
	if page < 1 {
		page = 1
	}

	total, err := CountAdvisories(ctx, db, f)
	if err != nil {
		return nil, err
	}

	filterClause, bindVars := buildAdvisoryFilter(f)
	query := fmt.Sprintf(`
		FOR d IN cve
			%s
			%s
			LIMIT @offset, @limit
			RETURN d.id
	`, filterClause, sortClause(sort))
	bindVars["offset"] = (page - 1) * limit
	bindVars["limit"] = limit

	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("failed to list advisory ids: %w", err)
	}
	defer cursor.Close()

	ids := make([]string, 0, limit)
	for cursor.HasMore() {
		var id string
		if _, err := cursor.ReadDocument(ctx, &id); err != nil {
			return nil, fmt.Errorf("failed to read id page: %w", err)
		}
		ids = append(ids, id)
	}

	return &model.IDListResponse{
		IDs: ids,
		Pagination: model.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: model.TotalPages(total, limit),
		},
	}, nil
}
