package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSource_ManifestPreferred(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "index.json")
	deltaLog := filepath.Join(dir, "deltaLog.json")

	m := BuildManifest([]string{"CVE-2025-0001", "CVE-2025-0002"})
	if err := WriteManifest(manifest, m); err != nil {
		t.Fatal(err)
	}
	writeFile(t, deltaLog, `[{"new":[{"cveId":"CVE-2025-9999"}],"updated":[]}]`)

	s := NewSource(manifest, deltaLog, nil)
	ids, err := s.ResolveCandidateIDs()
	if err != nil {
		t.Fatalf("ResolveCandidateIDs() error = %v", err)
	}

	want := []string{"CVE-2025-0001", "CVE-2025-0002"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v (manifest should win over delta log)", ids, want)
	}
}

func TestSource_DeltaLogFallback(t *testing.T) {
	dir := t.TempDir()
	deltaLog := filepath.Join(dir, "deltaLog.json")
	writeFile(t, deltaLog, `[{"new":[{"cveId":"CVE-2025-0007"}],"updated":[{"cveId":"CVE-2025-0003"}]}]`)

	s := NewSource(filepath.Join(dir, "no-such-manifest.json"), deltaLog, nil)
	ids, err := s.ResolveCandidateIDs()
	if err != nil {
		t.Fatalf("ResolveCandidateIDs() error = %v", err)
	}

	want := []string{"CVE-2025-0003", "CVE-2025-0007"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestSource_EmptyManifestIsAuthoritative(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "index.json")
	deltaLog := filepath.Join(dir, "deltaLog.json")

	if err := WriteManifest(manifest, BuildManifest(nil)); err != nil {
		t.Fatal(err)
	}
	writeFile(t, deltaLog, `[{"new":[{"cveId":"CVE-2025-9999"}],"updated":[]}]`)

	s := NewSource(manifest, deltaLog, nil)
	ids, err := s.ResolveCandidateIDs()
	if err != nil {
		t.Fatalf("ResolveCandidateIDs() error = %v (empty corpus is not a missing source)", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want none (delta log must not override the manifest)", ids)
	}
}

func TestSource_NoSource(t *testing.T) {
	dir := t.TempDir()

	s := NewSource(filepath.Join(dir, "missing.json"), filepath.Join(dir, "also-missing.json"), nil)
	_, err := s.ResolveCandidateIDs()
	if !errors.Is(err, ErrNoSource) {
		t.Errorf("ResolveCandidateIDs() error = %v, want ErrNoSource", err)
	}

	s = NewSource("", "", nil)
	if _, err := s.ResolveCandidateIDs(); !errors.Is(err, ErrNoSource) {
		t.Errorf("ResolveCandidateIDs() with no paths error = %v, want ErrNoSource", err)
	}
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	payload := fmt.Sprintf(`{
		"cveMetadata": {"cveId": %q, "state": "PUBLISHED"},
		"containers": {"cna": {"title": "Local file advisory"}}
	}`, "CVE-2025-1234")
	writeFile(t, filepath.Join(dir, "1xxx", "CVE-2025-1234.json"), payload)

	f := &DirFetcher{Dir: dir}

	adv, err := f.FetchAdvisory(context.Background(), "CVE-2025-1234")
	if err != nil {
		t.Fatalf("FetchAdvisory() error = %v", err)
	}
	if adv.ID != "CVE-2025-1234" || adv.Title != "Local file advisory" {
		t.Errorf("FetchAdvisory() = %+v", adv)
	}

	if _, err := f.FetchAdvisory(context.Background(), "CVE-2025-5678"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchAdvisory(absent) error = %v, want ErrNotFound", err)
	}

	if _, err := f.FetchAdvisory(context.Background(), "garbage"); err == nil {
		t.Error("FetchAdvisory(invalid id) returned no error")
	}
}

func TestHTTPFileFetcher(t *testing.T) {
	payload := `{
		"cveMetadata": {"cveId": "CVE-2025-2500", "state": "PUBLISHED"},
		"containers": {"cna": {"title": "Remote file advisory"}}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2xxx/CVE-2025-2500.json" {
			fmt.Fprint(w, payload)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFileFetcher(srv.URL)

	adv, err := f.FetchAdvisory(context.Background(), "CVE-2025-2500")
	if err != nil {
		t.Fatalf("FetchAdvisory() error = %v", err)
	}
	if adv.ID != "CVE-2025-2500" || adv.Title != "Remote file advisory" {
		t.Errorf("FetchAdvisory() = %+v", adv)
	}

	if _, err := f.FetchAdvisory(context.Background(), "CVE-2025-9999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchAdvisory(absent) error = %v, want ErrNotFound", err)
	}
}
