package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

// cvePayload builds a minimal CVE JSON 5.0 record for tests.
func cvePayload(id string, cna map[string]interface{}) json.RawMessage {
	doc := map[string]interface{}{
		"cveMetadata": map[string]interface{}{
			"cveId":         id,
			"datePublished": "2025-03-01T00:00:00Z",
			"state":         "PUBLISHED",
		},
		"containers": map[string]interface{}{
			"cna": cna,
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return raw
}

func TestDerive_Metadata(t *testing.T) {
	adv, err := Derive(cvePayload("CVE-2025-0001", map[string]interface{}{
		"title": "Buffer overflow in widget parser",
	}))
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if adv.ID != "CVE-2025-0001" {
		t.Errorf("ID = %q, want CVE-2025-0001", adv.ID)
	}
	if adv.Key != adv.ID {
		t.Errorf("Key = %q, want same as ID", adv.Key)
	}
	if adv.DatePublished != "2025-03-01T00:00:00Z" {
		t.Errorf("DatePublished = %q", adv.DatePublished)
	}
	if adv.State != "PUBLISHED" {
		t.Errorf("State = %q, want PUBLISHED", adv.State)
	}
	if adv.Title != "Buffer overflow in widget parser" {
		t.Errorf("Title = %q", adv.Title)
	}
}

func TestDerive_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
	}{
		{"malformed JSON", json.RawMessage(`{not json`)},
		{"no cveId", json.RawMessage(`{"cveMetadata":{"state":"PUBLISHED"}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Derive(tt.payload); err == nil {
				t.Errorf("Derive() accepted payload, want error")
			}
		})
	}
}

func TestDerive_ScorePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		metrics []map[string]interface{}
		want    *float64
	}{
		{
			name: "v3.1 wins over v3.0 and v2",
			metrics: []map[string]interface{}{
				{"cvssV2": map[string]interface{}{"baseScore": 5.0}},
				{"cvssV3_1": map[string]interface{}{"baseScore": 9.8}},
				{"cvssV3_0": map[string]interface{}{"baseScore": 7.5}},
			},
			want: ptr(9.8),
		},
		{
			name: "v3.0 wins over v2",
			metrics: []map[string]interface{}{
				{"cvssV2": map[string]interface{}{"baseScore": 5.0}},
				{"cvssV3_0": map[string]interface{}{"baseScore": 7.5}},
			},
			want: ptr(7.5),
		},
		{
			name: "v2 alone",
			metrics: []map[string]interface{}{
				{"cvssV2": map[string]interface{}{"baseScore": 5.0}},
			},
			want: ptr(5.0),
		},
		{
			name:    "no metrics",
			metrics: nil,
			want:    nil,
		},
		{
			name: "vector-only metric scored from vector",
			metrics: []map[string]interface{}{
				{"cvssV3_1": map[string]interface{}{
					"vectorString": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
				}},
			},
			want: ptr(9.8),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cna := map[string]interface{}{"title": "t"}
			if tt.metrics != nil {
				cna["metrics"] = tt.metrics
			}
			adv, err := Derive(cvePayload("CVE-2025-0001", cna))
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			switch {
			case tt.want == nil && adv.Score != nil:
				t.Errorf("Score = %v, want nil", *adv.Score)
			case tt.want != nil && adv.Score == nil:
				t.Errorf("Score = nil, want %v", *tt.want)
			case tt.want != nil && *adv.Score != *tt.want:
				t.Errorf("Score = %v, want %v", *adv.Score, *tt.want)
			}
		})
	}
}

func TestDerive_Severity(t *testing.T) {
	tests := []struct {
		name    string
		metrics []map[string]interface{}
		want    string
	}{
		{
			name: "explicit baseSeverity uppercased",
			metrics: []map[string]interface{}{
				{"cvssV3_1": map[string]interface{}{"baseScore": 6.5, "baseSeverity": "Medium"}},
			},
			want: "MEDIUM",
		},
		{
			name: "derived from score when not explicit",
			metrics: []map[string]interface{}{
				{"cvssV3_1": map[string]interface{}{"baseScore": 9.1}},
			},
			want: "CRITICAL",
		},
		{
			name: "v2 score maps through thresholds",
			metrics: []map[string]interface{}{
				{"cvssV2": map[string]interface{}{"baseScore": 4.3}},
			},
			want: "MEDIUM",
		},
		{
			name:    "no metrics yields empty severity",
			metrics: nil,
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cna := map[string]interface{}{"title": "t"}
			if tt.metrics != nil {
				cna["metrics"] = tt.metrics
			}
			adv, err := Derive(cvePayload("CVE-2025-0001", cna))
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if adv.Severity != tt.want {
				t.Errorf("Severity = %q, want %q", adv.Severity, tt.want)
			}
		})
	}
}

func TestDerive_Title(t *testing.T) {
	longDesc := strings.Repeat("a", 250)
	longMultibyte := strings.Repeat("é", 250)

	tests := []struct {
		name string
		cna  map[string]interface{}
		want string
	}{
		{
			name: "explicit title",
			cna:  map[string]interface{}{"title": "Explicit title"},
			want: "Explicit title",
		},
		{
			name: "first description fallback",
			cna: map[string]interface{}{
				"descriptions": []map[string]interface{}{
					{"value": "First description"},
					{"value": "Second description"},
				},
			},
			want: "First description",
		},
		{
			name: "long description truncated with ellipsis",
			cna: map[string]interface{}{
				"descriptions": []map[string]interface{}{{"value": longDesc}},
			},
			want: longDesc[:200] + "...",
		},
		{
			name: "multibyte description truncated on a rune boundary",
			cna: map[string]interface{}{
				"descriptions": []map[string]interface{}{{"value": longMultibyte}},
			},
			want: strings.Repeat("é", 200) + "...",
		},
		{
			name: "placeholder when nothing available",
			cna:  map[string]interface{}{},
			want: NoTitle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv, err := Derive(cvePayload("CVE-2025-0001", tt.cna))
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if adv.Title != tt.want {
				t.Errorf("Title = %q, want %q", adv.Title, tt.want)
			}
			if !utf8.ValidString(adv.Title) {
				t.Errorf("Title is not valid UTF-8: %q", adv.Title)
			}
		})
	}
}

func TestDerive_Vendor(t *testing.T) {
	adv, err := Derive(cvePayload("CVE-2025-0001", map[string]interface{}{
		"title": "t",
		"affected": []map[string]interface{}{
			{"vendor": "ExampleCorp"},
			{"vendor": "OtherVendor"},
		},
	}))
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if adv.Vendor != "examplecorp" {
		t.Errorf("Vendor = %q, want examplecorp", adv.Vendor)
	}

	adv, err = Derive(cvePayload("CVE-2025-0002", map[string]interface{}{"title": "t"}))
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if adv.Vendor != "" {
		t.Errorf("Vendor = %q, want empty", adv.Vendor)
	}
}

func TestDerive_Deterministic(t *testing.T) {
	payload := cvePayload("CVE-2025-0042", map[string]interface{}{
		"title": "Deterministic derivation",
		"metrics": []map[string]interface{}{
			{"cvssV3_1": map[string]interface{}{"baseScore": 8.1, "baseSeverity": "HIGH"}},
		},
		"affected": []map[string]interface{}{{"vendor": "Acme"}},
	})

	first, err := Derive(payload)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Derive(payload)
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}
		// LastUpdated is ingestion time, everything else is a pure
		// function of the payload.
		if fingerprint(first) != fingerprint(again) {
			t.Fatalf("derivation not deterministic: %q vs %q", fingerprint(first), fingerprint(again))
		}
	}
}

func fingerprint(a Advisory) string {
	score := "nil"
	if a.Score != nil {
		score = fmt.Sprintf("%.1f", *a.Score)
	}
	return strings.Join([]string{a.ID, a.DatePublished, a.State, score, a.Severity, a.Title, a.Vendor}, "|")
}

func ptr(f float64) *float64 { return &f }
