package database

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lebnicolas/cvelistV5/model"
)

func TestBuildAdvisoryFilter(t *testing.T) {
	min, max := 4.0, 9.0

	tests := []struct {
		name        string
		filter      model.Filter
		wantClauses []string
		wantBinds   map[string]interface{}
	}{
		{
			name:      "empty filter",
			filter:    model.Filter{},
			wantBinds: map[string]interface{}{},
		},
		{
			name:        "state predicate",
			filter:      model.Filter{State: "PUBLISHED"},
			wantClauses: []string{"d.state == @state"},
			wantBinds:   map[string]interface{}{"state": "PUBLISHED"},
		},
		{
			name:        "severity uppercased",
			filter:      model.Filter{Severity: "high"},
			wantClauses: []string{"d.severity == @severity"},
			wantBinds:   map[string]interface{}{"severity": "HIGH"},
		},
		{
			name:        "score range",
			filter:      model.Filter{CVSSMin: &min, CVSSMax: &max},
			wantClauses: []string{"d.cvssScore >= @cvssMin", "d.cvssScore <= @cvssMax"},
			wantBinds:   map[string]interface{}{"cvssMin": 4.0, "cvssMax": 9.0},
		},
		{
			name:   "search lowercased across title id vendor",
			filter: model.Filter{Search: "OpenSSL"},
			wantClauses: []string{
				"CONTAINS(LOWER(d.title), @search)",
				"CONTAINS(LOWER(d.id), @search)",
				"CONTAINS(LOWER(d.vendor), @search)",
			},
			wantBinds: map[string]interface{}{"search": "openssl"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, binds := buildAdvisoryFilter(tt.filter)
			for _, want := range tt.wantClauses {
				if !strings.Contains(clause, want) {
					t.Errorf("filter clause missing %q in:\n%s", want, clause)
				}
			}
			if len(binds) != len(tt.wantBinds) {
				t.Errorf("bind vars = %v, want %v", binds, tt.wantBinds)
			}
			for k, v := range tt.wantBinds {
				if binds[k] != v {
					t.Errorf("binds[%q] = %v, want %v", k, binds[k], v)
				}
			}
		})
	}
}

func TestBuildAdvisoryFilter_AllPredicatesANDCombined(t *testing.T) {
	min := 7.0
	clause, binds := buildAdvisoryFilter(model.Filter{
		State:    "PUBLISHED",
		Severity: "critical",
		CVSSMin:  &min,
		Search:   "kernel",
	})

	if got := strings.Count(clause, "FILTER"); got != 4 {
		t.Errorf("expected 4 FILTER clauses, got %d:\n%s", got, clause)
	}
	if len(binds) != 4 {
		t.Errorf("expected 4 bind vars, got %v", binds)
	}
}

func TestTruncateBatchIDs(t *testing.T) {
	ids := make([]string, model.MaxBatchIDs+50)
	for i := range ids {
		ids[i] = fmt.Sprintf("CVE-2025-%04d", i+1)
	}

	got := truncateBatchIDs(ids)
	if len(got) != model.MaxBatchIDs {
		t.Fatalf("len = %d, want %d", len(got), model.MaxBatchIDs)
	}
	if got[0] != "CVE-2025-0001" {
		t.Errorf("first id = %q, want CVE-2025-0001", got[0])
	}
	if last := got[len(got)-1]; last != fmt.Sprintf("CVE-2025-%04d", model.MaxBatchIDs) {
		t.Errorf("last id = %q, want the %dth requested id", last, model.MaxBatchIDs)
	}
	over := fmt.Sprintf("CVE-2025-%04d", model.MaxBatchIDs+1)
	for _, id := range got {
		if id == over {
			t.Errorf("id beyond the cap kept: %q", id)
		}
	}

	short := []string{"CVE-2025-0001", "CVE-2025-0002"}
	if got := truncateBatchIDs(short); len(got) != 2 {
		t.Errorf("under the cap: len = %d, want 2", len(got))
	}
}

func TestSortClause(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{model.SortDateDesc, "SORT d.datePublished DESC"},
		{model.SortDateAsc, "SORT d.datePublished ASC"},
		{model.SortCVSSDesc, "SORT d.cvssScore DESC"},
		{model.SortCVSSAsc, "SORT d.cvssScore ASC"},
		{model.SortIDAsc, "SORT d.id ASC"},
		{model.SortIDDesc, "SORT d.id DESC"},
		{"", "SORT d.datePublished DESC"},
		{"bogus", "SORT d.datePublished DESC"},
	}
	for _, tt := range tests {
		if got := sortClause(tt.sort); got != tt.want {
			t.Errorf("sortClause(%q) = %q, want %q", tt.sort, got, tt.want)
		}
	}
}
