// Package client implements the HTTP client for the CVE query service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lebnicolas/cvelistV5/model"
)

// ErrNotFound is returned when the service has no record for an id.
var ErrNotFound = errors.New("CVE not found")

// ErrStoreUnavailable is returned when the service reports its record
// store as unreachable.
var ErrStoreUnavailable = errors.New("store unavailable")

// QueryClient talks to the read-only CVE query service.
type QueryClient struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *QueryClient {
	return &QueryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Alive probes the service with a short-deadline count request. It is
// the liveness check the sync engine uses to pick its fetch strategy.
func (c *QueryClient) Alive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cves/count", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// filterValues renders the filter as query parameters.
func filterValues(f model.Filter) url.Values {
	vals := url.Values{}
	if f.State != "" {
		vals.Set("state", f.State)
	}
	if f.Severity != "" {
		vals.Set("severity", f.Severity)
	}
	if f.CVSSMin != nil {
		vals.Set("cvssMin", strconv.FormatFloat(*f.CVSSMin, 'f', -1, 64))
	}
	if f.CVSSMax != nil {
		vals.Set("cvssMax", strconv.FormatFloat(*f.CVSSMax, 'f', -1, 64))
	}
	if f.Search != "" {
		vals.Set("search", f.Search)
	}
	return vals
}

func (c *QueryClient) getJSON(ctx context.Context, path string, vals url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(vals) > 0 {
		u += "?" + vals.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable:
		return ErrStoreUnavailable
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// Count returns the number of records matching the filter.
func (c *QueryClient) Count(ctx context.Context, f model.Filter) (int64, error) {
	var resp model.CountResponse
	if err := c.getJSON(ctx, "/api/cves/count", filterValues(f), &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Get fetches one record by id.
func (c *QueryClient) Get(ctx context.Context, id string) (*model.Advisory, error) {
	var adv model.Advisory
	if err := c.getJSON(ctx, "/api/cves/"+url.PathEscape(id), nil, &adv); err != nil {
		return nil, err
	}
	return &adv, nil
}

// BatchGet fetches the records for the given ids in one request. The
// service uses at most the first 1000 ids.
func (c *QueryClient) BatchGet(ctx context.Context, ids []string) ([]model.Advisory, error) {
	vals := url.Values{}
	vals.Set("ids", strings.Join(ids, ","))

	var resp model.BatchResponse
	if err := c.getJSON(ctx, "/api/cves/batch", vals, &resp); err != nil {
		return nil, err
	}
	return resp.CVEs, nil
}

// List fetches one page of records under the filter and sort.
func (c *QueryClient) List(ctx context.Context, f model.Filter, sort string, page, limit int) (*model.ListResponse, error) {
	vals := filterValues(f)
	vals.Set("page", strconv.Itoa(page))
	if limit > 0 {
		vals.Set("limit", strconv.Itoa(limit))
	}
	if sort != "" {
		vals.Set("sort", sort)
	}

	var resp model.ListResponse
	if err := c.getJSON(ctx, "/api/cves", vals, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AllIDs pages the ids-only list projection until every known id has
// been collected, in id order.
func (c *QueryClient) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for page := 1; ; page++ {
		vals := url.Values{}
		vals.Set("fields", "ids")
		vals.Set("sort", model.SortIDAsc)
		vals.Set("page", strconv.Itoa(page))
		vals.Set("limit", strconv.Itoa(model.MaxListLimit))

		var resp model.IDListResponse
		if err := c.getJSON(ctx, "/api/cves", vals, &resp); err != nil {
			return nil, err
		}
		ids = append(ids, resp.IDs...)
		if int64(page) >= resp.Pagination.TotalPages {
			break
		}
	}
	return ids, nil
}
