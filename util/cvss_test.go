package util

import (
	"math"
	"testing"
)

func TestCalculateCVSSScore(t *testing.T) {
	tests := []struct {
		name   string
		vector string
		want   float64
	}{
		{
			name:   "critical v3.1 vector",
			vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			want:   9.8,
		},
		{
			name:   "medium v3.1 vector",
			vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N",
			want:   6.1,
		},
		{
			name:   "empty vector",
			vector: "",
			want:   0,
		},
		{
			name:   "no CVSS prefix",
			vector: "AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			want:   0,
		},
		{
			name:   "garbage after prefix",
			vector: "CVSS:3.1/not-a-vector",
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCVSSScore(tt.vector)
			if math.Abs(got-tt.want) > 0.05 {
				t.Errorf("CalculateCVSSScore(%q) = %v, want %v", tt.vector, got, tt.want)
			}
		})
	}
}

func TestSeverityForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{10.0, "CRITICAL"},
		{9.0, "CRITICAL"},
		{8.9, "HIGH"},
		{7.0, "HIGH"},
		{6.9, "MEDIUM"},
		{4.0, "MEDIUM"},
		{3.9, "LOW"},
		{0.0, "LOW"},
	}
	for _, tt := range tests {
		if got := SeverityForScore(tt.score); got != tt.want {
			t.Errorf("SeverityForScore(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
