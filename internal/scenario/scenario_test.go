package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/claimadjudicate/internal/export"
	"github.com/ppiankov/claimadjudicate/internal/extract"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/reconcile"
	"github.com/ppiankov/claimadjudicate/internal/workflow"
)

func newRunner(t *testing.T) *Runner {
	t.Helper()
	src, err := extract.NewSampleSource()
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(src, intake.New(0), nil)
}

const docsYAML = `documents:
  - {type: prescription, file: rx.pdf, page_count: 1}
  - {type: invoice, file: invoice.pdf, page_count: 2}
  - {type: policy, file: policy.pdf, page_count: 6}
`

func TestParse_Confirm(t *testing.T) {
	sc, err := Parse([]byte("name: a\n" + docsYAML + "confirm: all\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !sc.Confirm.All {
		t.Error("Expected confirm all")
	}

	sc, err = Parse([]byte("name: a\n" + docsYAML + "confirm: [1, 3]\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sc.Confirm.All || len(sc.Confirm.IDs) != 2 || sc.Confirm.IDs[1] != 3 {
		t.Errorf("Unexpected confirm %+v", sc.Confirm)
	}

	if _, err := Parse([]byte("name: a\n" + docsYAML + "confirm: some\n")); err == nil {
		t.Error("Expected error for unknown confirm value")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", docsYAML, "name is required"},
		{"no documents", "name: a\n", "documents"},
		{"bad edit", "name: a\n" + docsYAML + "edits: [{item: 0, amount: 5}]\n", "item must be at least 1"},
		{"bad yaml", "name: [", "decode scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Reject supplements":        "reject-supplements",
		"  Accept -- draft (v2)!  ": "accept-draft-v2",
		"???":                       "scenario",
	}
	for name, want := range tests {
		if got := (&Scenario{Name: name}).Slug(); got != want {
			t.Errorf("Slug(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestCheckOutputNames(t *testing.T) {
	dir := t.TempDir()
	write := func(file, name string) string {
		path := filepath.Join(dir, file)
		if err := os.WriteFile(path, []byte("name: "+name+"\n"+docsYAML), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	first := write("a.yaml", "Accept draft")
	second := write("b.yaml", "Reject supplements")
	clash := write("c.yaml", "accept  DRAFT!")
	broken := filepath.Join(dir, "missing.yaml")

	if err := CheckOutputNames([]string{first, second, broken}); err != nil {
		t.Errorf("Expected distinct names to pass, got %v", err)
	}

	err := CheckOutputNames([]string{first, second, clash})
	if err == nil {
		t.Fatal("Expected error for scenarios sharing an output name")
	}
	if !strings.Contains(err.Error(), "accept-draft") || !strings.Contains(err.Error(), "c.yaml") {
		t.Errorf("Expected error to name the slug and the second file, got %v", err)
	}
}

func TestRunner_RejectSupplements(t *testing.T) {
	r := newRunner(t)

	base, err := Load("testdata/accept-draft.yaml")
	if err != nil {
		t.Fatal(err)
	}
	baseline, err := r.Run(context.Background(), base)
	if err != nil {
		t.Fatalf("Baseline run failed: %v", err)
	}

	sc, err := Load("testdata/reject-supplements.yaml")
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.View.Step != workflow.StepSuccess {
		t.Errorf("Expected success step, got %s", out.View.Step)
	}
	if out.Decision.TotalApproved != 24000 {
		t.Errorf("Expected 24000 approved, got %d", out.Decision.TotalApproved)
	}
	if baseline.Decision.TotalApproved != 24500 {
		t.Errorf("Expected baseline 24500 approved, got %d", baseline.Decision.TotalApproved)
	}
	if out.Decision.RejectedCount != baseline.Decision.RejectedCount+1 {
		t.Errorf("Expected one more rejection: %d vs %d", out.Decision.RejectedCount, baseline.Decision.RejectedCount)
	}
}

func TestRunner_UnconfirmedSubmitFails(t *testing.T) {
	sc, err := Parse([]byte("name: partial\n" + docsYAML + "confirm: [1, 2]\nsubmit: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = newRunner(t).Run(context.Background(), sc)
	if !errors.Is(err, reconcile.ErrNotConfirmed) {
		t.Fatalf("Expected ErrNotConfirmed, got %v", err)
	}
}

func TestRunner_StopsAtReview(t *testing.T) {
	sc, err := Parse([]byte("name: look only\n" + docsYAML + "edits: [{item: 4, amount: 9999}]\n"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := newRunner(t).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Decision != nil || out.View.Step != workflow.StepReview {
		t.Errorf("Expected to stop in review, got %s", out.View.Step)
	}
	// clamped to the claimed 4500
	if out.View.TotalApproved != 24500+1000 {
		t.Errorf("Expected 25500 approved, got %d", out.View.TotalApproved)
	}
}

func TestRunner_MissingRequiredDocument(t *testing.T) {
	sc, err := Parse([]byte("name: no policy\ndocuments:\n  - {type: invoice, file: a.pdf, page_count: 1}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newRunner(t).Run(context.Background(), sc); !errors.Is(err, intake.ErrMissingRequired) {
		t.Fatalf("Expected ErrMissingRequired, got %v", err)
	}
}

func TestFileReplayer_WritesExports(t *testing.T) {
	dir := t.TempDir()
	f := &FileReplayer{
		Runner: newRunner(t),
		OutDir: dir,
		Export: export.Options{Brand: "ClaimAdjudicate.ai", Currency: "INR", FirstPageRows: 8, RowsPerPage: 25},
	}

	replay, err := f.Replay(context.Background(), "testdata/reject-supplements.yaml")
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(replay.Outputs) != 2 {
		t.Fatalf("Expected 2 outputs, got %v", replay.Outputs)
	}

	md, err := os.ReadFile(filepath.Join(dir, "reject-supplements.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "APPROVED AMOUNT INR 24,000") {
		t.Error("Markdown export is missing the approved amount")
	}
	if !strings.Contains(string(md), replay.Decision.ReferenceID) {
		t.Error("Markdown export is missing the reference id")
	}
	if _, err := os.Stat(filepath.Join(dir, "reject-supplements.json")); err != nil {
		t.Errorf("JSON export missing: %v", err)
	}
}

func TestFileReplayer_MissingFile(t *testing.T) {
	f := &FileReplayer{Runner: newRunner(t), OutDir: t.TempDir()}
	if _, err := f.Replay(context.Background(), "testdata/nope.yaml"); err == nil {
		t.Fatal("Expected error for missing scenario")
	}
}
