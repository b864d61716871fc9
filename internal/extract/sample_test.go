package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

func TestNewSampleSource_BuiltinDataset(t *testing.T) {
	src, err := NewSampleSource()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx := context.Background()
	extraction, err := src.ReadDocuments(ctx, nil)
	if err != nil {
		t.Fatalf("ReadDocuments: %v", err)
	}
	if extraction.Patient.Name != "Raj Kumar" || extraction.Patient.Age != 45 {
		t.Errorf("Unexpected patient %+v", extraction.Patient)
	}
	if extraction.Patient.PolicyID != "HLT-2024-78542" {
		t.Errorf("Expected policy HLT-2024-78542, got %q", extraction.Patient.PolicyID)
	}

	draft, err := src.DraftDecision(ctx, nil)
	if err != nil {
		t.Fatalf("DraftDecision: %v", err)
	}
	if draft.Result.TotalClaimed != 32000 {
		t.Errorf("Expected total claimed 32000, got %d", draft.Result.TotalClaimed)
	}
	if draft.Result.SuggestedApproval != 24500 {
		t.Errorf("Expected suggested approval 24500, got %d", draft.Result.SuggestedApproval)
	}
	if len(draft.Result.Items) != 7 {
		t.Fatalf("Expected 7 items, got %d", len(draft.Result.Items))
	}

	var attention int
	for _, item := range draft.Result.Items {
		if item.Status == model.StatusAttention {
			attention++
			if item.ID != 7 {
				t.Errorf("Expected item 7 to need attention, got item %d", item.ID)
			}
		}
		if item.Confirmed {
			t.Errorf("Item %d should start unconfirmed", item.ID)
		}
	}
	if attention != 1 {
		t.Errorf("Expected 1 attention item, got %d", attention)
	}
}

func TestSampleSource_DraftItemsAreCopies(t *testing.T) {
	src, err := NewSampleSource()
	if err != nil {
		t.Fatal(err)
	}

	first, _ := src.DraftDecision(context.Background(), nil)
	first.Result.Items[0].ApprovedAmount = 0

	second, _ := src.DraftDecision(context.Background(), nil)
	if second.Result.Items[0].ApprovedAmount != 1500 {
		t.Errorf("Mutating one draft leaked into the next: got %d", second.Result.Items[0].ApprovedAmount)
	}
}

func TestSampleSource_CancelledContext(t *testing.T) {
	src, err := NewSampleSource()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.CheckConsistency(ctx, nil); err == nil {
		t.Error("Expected error for cancelled context")
	}
	if _, err := src.ApplyPolicy(ctx, nil); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestParseSample_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing patient",
			yaml:    "draft:\n  result:\n    total_claimed: 10\n    items:\n      - {id: 1, claimed: 10, approved: 10, status: approved}\n",
			wantErr: "patient name",
		},
		{
			name:    "no items",
			yaml:    "draft:\n  result:\n    patient: {name: A}\n",
			wantErr: "no items",
		},
		{
			name:    "duplicate id",
			yaml:    "draft:\n  result:\n    patient: {name: A}\n    total_claimed: 20\n    items:\n      - {id: 1, claimed: 10, approved: 10, status: approved}\n      - {id: 1, claimed: 10, approved: 10, status: approved}\n",
			wantErr: "duplicate item id",
		},
		{
			name:    "approved above claimed",
			yaml:    "draft:\n  result:\n    patient: {name: A}\n    total_claimed: 10\n    items:\n      - {id: 1, claimed: 10, approved: 11, status: approved}\n",
			wantErr: "out of range",
		},
		{
			name:    "unknown status",
			yaml:    "draft:\n  result:\n    patient: {name: A}\n    total_claimed: 10\n    items:\n      - {id: 1, claimed: 10, approved: 10, status: maybe}\n",
			wantErr: "unknown status",
		},
		{
			name:    "total mismatch",
			yaml:    "draft:\n  result:\n    patient: {name: A}\n    total_claimed: 99\n    items:\n      - {id: 1, claimed: 10, approved: 10, status: approved}\n",
			wantErr: "does not match",
		},
		{
			name:    "malformed yaml",
			yaml:    "draft: [",
			wantErr: "decode sample",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSample([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadSampleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	content := "draft:\n  result:\n    patient: {name: Asha Rao, age: 31, policy_id: P-1}\n    total_claimed: 900\n    suggested_approval: 400\n    items:\n      - {id: 1, description: Scan, claimed: 900, approved: 400, status: partial}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := LoadSampleFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	draft, _ := src.DraftDecision(context.Background(), nil)
	if draft.Result.Patient.Name != "Asha Rao" {
		t.Errorf("Expected patient Asha Rao, got %q", draft.Result.Patient.Name)
	}

	if _, err := LoadSampleFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
