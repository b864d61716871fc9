package model

import (
	"math"
	"regexp"
	"testing"
	"time"
)

func TestApprovalRate(t *testing.T) {
	tests := []struct {
		name     string
		approved int64
		claimed  int64
		want     string
	}{
		{"sample claim", 24500, 32000, "76.6%"},
		{"after rejecting supplements", 24000, 32000, "75.0%"},
		{"full approval", 100, 100, "100.0%"},
		{"nothing claimed", 0, 0, "0.0%"},
		{"negative claimed", 10, -5, "0.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := ApprovalRate(tt.approved, tt.claimed)
			if math.IsNaN(rate) || math.IsInf(rate, 0) {
				t.Fatalf("expected finite rate, got %v", rate)
			}
			if got := FormatRate(rate); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFinalDecision_ApprovalRate_Nil(t *testing.T) {
	var d *FinalDecision
	if rate := d.ApprovalRate(); rate != 0 {
		t.Errorf("expected 0 for nil decision, got %v", rate)
	}
}

func TestNewReferenceID(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^CLM-[0-9A-Z]+-[0-9A-F]{4}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewReferenceID(now)
		if !pattern.MatchString(id) {
			t.Fatalf("unexpected reference id format: %s", id)
		}
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected reference ids to differ within the same millisecond, got %d distinct of 50", len(seen))
	}
}

func TestDocumentType_Required(t *testing.T) {
	for _, dt := range DocumentTypes {
		want := dt != DocLab
		if dt.Required() != want {
			t.Errorf("%s: expected required=%v", dt, want)
		}
	}
	if _, ok := ParseDocumentType("xray"); ok {
		t.Error("expected unknown document type to be rejected")
	}
}
