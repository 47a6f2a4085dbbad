package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lebnicolas/cvelistV5/model"
	"github.com/lebnicolas/cvelistV5/util"
	"go.uber.org/zap"
)

// ErrNoSource is returned when neither a manifest nor a delta log is
// available. Callers must treat this as "no known source", not as an
// empty corpus.
var ErrNoSource = errors.New("no discovery source available")

// ErrNotFound is returned by fetchers for ids with no backing file.
var ErrNotFound = errors.New("CVE file not found")

// Source resolves the candidate id set from local artifacts when the
// query service cannot be asked directly: first the manifest snapshot,
// then the delta log.
type Source struct {
	ManifestPath string
	DeltaLogPath string

	log *zap.Logger
}

// NewSource creates a Source reading the given manifest and delta-log
// paths. Either path may be empty.
func NewSource(manifestPath, deltaLogPath string, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{ManifestPath: manifestPath, DeltaLogPath: deltaLogPath, log: log}
}

// ResolveCandidateIDs returns the ordered, deduplicated candidate id
// set, or ErrNoSource when no artifact is readable.
func (s *Source) ResolveCandidateIDs() ([]string, error) {
	if s.ManifestPath != "" {
		// A manifest that loads is authoritative even when it lists zero
		// ids: an empty corpus is not a missing source.
		m, err := LoadManifest(s.ManifestPath)
		if err == nil {
			s.log.Info("resolved candidate ids from manifest",
				zap.String("path", s.ManifestPath), zap.Int("count", len(m.CVEIDs)))
			return m.CVEIDs, nil
		}
		s.log.Warn("manifest unavailable", zap.String("path", s.ManifestPath), zap.Error(err))
	}

	if s.DeltaLogPath != "" {
		entries, err := LoadDeltaLog(s.DeltaLogPath)
		if err != nil {
			s.log.Warn("delta log unavailable", zap.String("path", s.DeltaLogPath), zap.Error(err))
		} else if ids := IDsFromDeltaLog(entries); len(ids) > 0 {
			s.log.Info("resolved candidate ids from delta log",
				zap.String("path", s.DeltaLogPath), zap.Int("count", len(ids)))
			return ids, nil
		}
	}

	return nil, ErrNoSource
}

// Fetcher retrieves a single advisory by id from a fallback source.
type Fetcher interface {
	FetchAdvisory(ctx context.Context, id string) (*model.Advisory, error)
}

// HTTPFileFetcher fetches raw CVE files over HTTP from the bucket
// layout: <base>/<n>xxx/<id>.json.
type HTTPFileFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFileFetcher creates a fetcher for a static CVE file tree
// served at baseURL.
func NewHTTPFileFetcher(baseURL string) *HTTPFileFetcher {
	return &HTTPFileFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchAdvisory implements Fetcher.
func (f *HTTPFileFetcher) FetchAdvisory(ctx context.Context, id string) (*model.Advisory, error) {
	bucket, err := util.BucketDir(id)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s/%s.json", f.BaseURL, bucket, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}
	adv, err := model.Derive(payload)
	if err != nil {
		return nil, err
	}
	return &adv, nil
}

// DirFetcher reads raw CVE files from a local bucket-layout directory.
type DirFetcher struct {
	Dir string
}

// FetchAdvisory implements Fetcher.
func (f *DirFetcher) FetchAdvisory(_ context.Context, id string) (*model.Advisory, error) {
	bucket, err := util.BucketDir(id)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(filepath.Join(f.Dir, bucket, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}
	adv, err := model.Derive(payload)
	if err != nil {
		return nil, err
	}
	return &adv, nil
}
