// Package model defines the data model for the CVE catalog service.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lebnicolas/cvelistV5/util"
)

// NoTitle is the placeholder title for advisories with neither a title
// nor a description.
const NoTitle = "No title available"

// titleMaxLen is the truncation length when the title falls back to the
// first description.
const titleMaxLen = 200

// Advisory is one immutable CVE record plus the scalar fields derived
// from its payload at ingestion time. The derived fields are a pure
// function of the payload: re-deriving from the same bytes always
// produces the same values.
type Advisory struct {
	Key           string          `json:"_key,omitempty"`
	ID            string          `json:"id"`
	DatePublished string          `json:"datePublished,omitempty"`
	State         string          `json:"state,omitempty"`
	Score         *float64        `json:"cvssScore,omitempty"`
	Severity      string          `json:"severity,omitempty"`
	Title         string          `json:"title"`
	Vendor        string          `json:"vendor,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	LastUpdated   string          `json:"lastUpdated,omitempty"`
}

// cveDocument mirrors the subset of the CVE JSON 5.0 schema the derived
// fields are computed from.
type cveDocument struct {
	CVEMetadata struct {
		CVEID         string `json:"cveId"`
		DatePublished string `json:"datePublished"`
		State         string `json:"state"`
	} `json:"cveMetadata"`
	Containers struct {
		CNA struct {
			Title        string `json:"title"`
			Descriptions []struct {
				Value string `json:"value"`
			} `json:"descriptions"`
			Metrics []cveMetric `json:"metrics"`
			Affected []struct {
				Vendor string `json:"vendor"`
			} `json:"affected"`
		} `json:"cna"`
	} `json:"containers"`
}

type cveMetric struct {
	CVSSV31 *cvssEntry `json:"cvssV3_1"`
	CVSSV30 *cvssEntry `json:"cvssV3_0"`
	CVSSV2  *cvssEntry `json:"cvssV2"`
}

type cvssEntry struct {
	BaseScore    *float64 `json:"baseScore"`
	BaseSeverity string   `json:"baseSeverity"`
	VectorString string   `json:"vectorString"`
}

// Derive builds an Advisory from a raw CVE payload, computing all
// derived fields. Payloads that do not parse or carry no cveId are
// rejected and must never reach any storage tier.
func Derive(payload json.RawMessage) (Advisory, error) {
	var doc cveDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Advisory{}, fmt.Errorf("malformed CVE payload: %w", err)
	}
	id := doc.CVEMetadata.CVEID
	if id == "" {
		return Advisory{}, fmt.Errorf("CVE payload has no cveMetadata.cveId")
	}

	adv := Advisory{
		Key:           id,
		ID:            id,
		DatePublished: doc.CVEMetadata.DatePublished,
		State:         doc.CVEMetadata.State,
		Score:         extractScore(doc.Containers.CNA.Metrics),
		Title:         extractTitle(&doc),
		Vendor:        extractVendor(&doc),
		Payload:       payload,
		LastUpdated:   time.Now().UTC().Format(time.RFC3339),
	}
	adv.Severity = extractSeverity(doc.Containers.CNA.Metrics, adv.Score)
	return adv, nil
}

// extractScore walks the metrics in precedence order 3.1, 3.0, 2.0 and
// returns the first base score found. A metric carrying only a vector
// string is scored from the vector.
func extractScore(metrics []cveMetric) *float64 {
	for _, pick := range []func(m cveMetric) *cvssEntry{
		func(m cveMetric) *cvssEntry { return m.CVSSV31 },
		func(m cveMetric) *cvssEntry { return m.CVSSV30 },
		func(m cveMetric) *cvssEntry { return m.CVSSV2 },
	} {
		for _, m := range metrics {
			entry := pick(m)
			if entry == nil {
				continue
			}
			if entry.BaseScore != nil {
				s := *entry.BaseScore
				return &s
			}
			if s := util.CalculateCVSSScore(entry.VectorString); s > 0 {
				return &s
			}
		}
	}
	return nil
}

// extractSeverity takes the explicit baseSeverity of the highest-priority
// v3 metric if present, else derives it from the score. Empty when the
// payload carries neither.
func extractSeverity(metrics []cveMetric, score *float64) string {
	for _, pick := range []func(m cveMetric) *cvssEntry{
		func(m cveMetric) *cvssEntry { return m.CVSSV31 },
		func(m cveMetric) *cvssEntry { return m.CVSSV30 },
	} {
		for _, m := range metrics {
			if entry := pick(m); entry != nil && entry.BaseSeverity != "" {
				return strings.ToUpper(entry.BaseSeverity)
			}
		}
	}
	if score != nil {
		return util.SeverityForScore(*score)
	}
	return ""
}

func extractTitle(doc *cveDocument) string {
	if doc.Containers.CNA.Title != "" {
		return doc.Containers.CNA.Title
	}
	if len(doc.Containers.CNA.Descriptions) > 0 {
		desc := doc.Containers.CNA.Descriptions[0].Value
		if desc != "" {
			// Truncate on a rune boundary; descriptions are not ASCII-only.
			if runes := []rune(desc); len(runes) > titleMaxLen {
				return string(runes[:titleMaxLen]) + "..."
			}
			return desc
		}
	}
	return NoTitle
}

func extractVendor(doc *cveDocument) string {
	if len(doc.Containers.CNA.Affected) > 0 {
		return strings.ToLower(doc.Containers.CNA.Affected[0].Vendor)
	}
	return ""
}
