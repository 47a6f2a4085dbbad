package model

// Filter is the AND-combined predicate set accepted by count and list
// operations. Zero-valued fields are absent predicates.
type Filter struct {
	State    string   `json:"state,omitempty"`
	Severity string   `json:"severity,omitempty"`
	CVSSMin  *float64 `json:"cvssMin,omitempty"`
	CVSSMax  *float64 `json:"cvssMax,omitempty"`
	// Search is matched case-insensitively against title, id and vendor.
	Search string `json:"search,omitempty"`
}

// Sort keys accepted by the list operation.
const (
	SortDateDesc = "dateDesc"
	SortDateAsc  = "dateAsc"
	SortCVSSDesc = "cvssDesc"
	SortCVSSAsc  = "cvssAsc"
	SortIDAsc    = "idAsc"
	SortIDDesc   = "idDesc"
)

// CountResponse is the body of GET /api/cves/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// BatchResponse is the body of GET /api/cves/batch.
type BatchResponse struct {
	CVEs  []Advisory `json:"cves"`
	Count int        `json:"count"`
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// ListResponse is the body of GET /api/cves.
type ListResponse struct {
	CVEs       []Advisory `json:"cves"`
	Pagination Pagination `json:"pagination"`
}

// IDListResponse is the body of GET /api/cves?fields=ids, the ids-only
// projection used for candidate resolution.
type IDListResponse struct {
	IDs        []string   `json:"ids"`
	Pagination Pagination `json:"pagination"`
}

// UpsertResponse is the body of POST /api/cves.
type UpsertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// List limits. Requests above MaxListLimit are clamped, requests without
// a limit default to DefaultListLimit.
const (
	DefaultListLimit = 1000
	MaxListLimit     = 5000
	MaxBatchIDs      = 1000
)

// ClampLimit applies the list limit rules.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
