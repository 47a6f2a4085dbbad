// Package discovery resolves the candidate CVE id set when the query
// service is unreachable, from a manifest snapshot or the delta log, and
// provides the per-id fallback fetchers.
package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lebnicolas/cvelistV5/util"
)

// Manifest is the index snapshot produced by the indexing job. The JSON
// field names follow the index.json format served next to the CVE files.
type Manifest struct {
	GeneratedAt string            `json:"generatedAt"`
	TotalCVEs   int               `json:"totalCves"`
	CVEIDs      []string          `json:"cveIds"`
	CVEPaths    map[string]string `json:"cvePaths"`
}

// LoadManifest reads a manifest file from disk.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// BuildManifest assembles a manifest for the given ids, ordered by
// numeric suffix, with file paths derived from the bucket layout.
func BuildManifest(ids []string) *Manifest {
	ordered := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if util.IsCVEID(id) && !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	util.SortByNumericSuffix(ordered)

	paths := make(map[string]string, len(ordered))
	for _, id := range ordered {
		bucket, err := util.BucketDir(id)
		if err != nil {
			continue
		}
		paths[id] = bucket + "/" + id + ".json"
	}

	return &Manifest{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TotalCVEs:   len(ordered),
		CVEIDs:      ordered,
		CVEPaths:    paths,
	}
}

// GenerateManifestFromDir walks a CVE file tree and builds the manifest
// from the files actually present.
func GenerateManifestFromDir(dir string) (*Manifest, error) {
	var ids []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}
		id := strings.TrimSuffix(info.Name(), ".json")
		if util.IsCVEID(id) {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return BuildManifest(ids), nil
}

// WriteManifest writes the manifest to path as indented JSON.
func WriteManifest(path string, m *Manifest) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
