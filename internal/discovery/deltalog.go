package discovery

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lebnicolas/cvelistV5/util"
)

// DeltaItem is one id reference inside a delta-log entry.
type DeltaItem struct {
	CVEID string `json:"cveId"`
}

// DeltaEntry is one batch of the append-only delta log.
type DeltaEntry struct {
	New     []DeltaItem `json:"new"`
	Updated []DeltaItem `json:"updated"`
}

// LoadDeltaLog reads an ordered delta log from disk.
func LoadDeltaLog(path string) ([]DeltaEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read delta log: %w", err)
	}
	var entries []DeltaEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse delta log: %w", err)
	}
	return entries, nil
}

// IDsFromDeltaLog reconstructs the known-id set from the delta log: the
// deduplicated union of all new and updated ids, filtered to the CVE id
// scheme and ordered by numeric suffix.
func IDsFromDeltaLog(entries []DeltaEntry) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(items []DeltaItem) {
		for _, item := range items {
			if util.IsCVEID(item.CVEID) && !seen[item.CVEID] {
				seen[item.CVEID] = true
				ids = append(ids, item.CVEID)
			}
		}
	}
	for _, entry := range entries {
		add(entry.New)
		add(entry.Updated)
	}
	util.SortByNumericSuffix(ids)
	return ids
}
