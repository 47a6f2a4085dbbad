// Package util provides utility functions for the backend.
package util

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// cveIDPattern matches the CVE id scheme: CVE-<year>-<numeric suffix>.
var cveIDPattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// IsCVEID reports whether id follows the CVE id scheme.
func IsCVEID(id string) bool {
	return cveIDPattern.MatchString(id)
}

// NumericSuffix extracts the numeric suffix of a CVE id.
// CVE-2025-0042 -> 42. Returns false for ids outside the scheme.
func NumericSuffix(id string) (int, bool) {
	if !IsCVEID(id) {
		return 0, false
	}
	n, err := strconv.Atoi(id[strings.LastIndex(id, "-")+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// BucketDir returns the thousands bucket directory a CVE file lives in,
// e.g. CVE-2025-0042 -> "0xxx", CVE-2025-12345 -> "12xxx".
func BucketDir(id string) (string, error) {
	n, ok := NumericSuffix(id)
	if !ok {
		return "", fmt.Errorf("invalid CVE id: %s", id)
	}
	return fmt.Sprintf("%dxxx", n/1000), nil
}

// SortByNumericSuffix sorts CVE ids in place by their numeric suffix.
// Ids outside the scheme sort as suffix 0.
func SortByNumericSuffix(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := NumericSuffix(ids[i])
		b, _ := NumericSuffix(ids[j])
		return a < b
	})
}
