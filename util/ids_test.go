package util

import (
	"reflect"
	"testing"
)

func TestIsCVEID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"CVE-2024-0001", true},
		{"CVE-1999-12345", true},
		{"CVE-2024-123456789", true},
		{"CVE-2024-123", false},
		{"cve-2024-0001", false},
		{"CVE-24-0001", false},
		{"CVE-2024-", false},
		{"GHSA-xxxx-yyyy", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsCVEID(tt.id); got != tt.want {
			t.Errorf("IsCVEID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestNumericSuffix(t *testing.T) {
	tests := []struct {
		id     string
		want   int
		wantOK bool
	}{
		{"CVE-2025-0042", 42, true},
		{"CVE-2025-12345", 12345, true},
		{"CVE-2025-1000", 1000, true},
		{"not-a-cve", 0, false},
		{"CVE-2025-12b", 0, false},
	}
	for _, tt := range tests {
		got, ok := NumericSuffix(tt.id)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NumericSuffix(%q) = (%d, %v), want (%d, %v)", tt.id, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBucketDir(t *testing.T) {
	tests := []struct {
		id      string
		want    string
		wantErr bool
	}{
		{"CVE-2025-0042", "0xxx", false},
		{"CVE-2025-0999", "0xxx", false},
		{"CVE-2025-1000", "1xxx", false},
		{"CVE-2025-12345", "12xxx", false},
		{"CVE-2025-999999", "999xxx", false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		got, err := BucketDir(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("BucketDir(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("BucketDir(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestSortByNumericSuffix(t *testing.T) {
	ids := []string{"CVE-2025-1000", "CVE-2025-0002", "CVE-2025-30000", "CVE-2025-0042"}
	SortByNumericSuffix(ids)

	want := []string{"CVE-2025-0002", "CVE-2025-0042", "CVE-2025-1000", "CVE-2025-30000"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("SortByNumericSuffix = %v, want %v", ids, want)
	}
}
