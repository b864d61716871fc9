package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

type mockReplayer struct{}

func (mockReplayer) Replay(ctx context.Context, path string) (*Replay, error) {
	time.Sleep(time.Millisecond)
	if strings.Contains(path, "bad") {
		return nil, errors.New("replay error")
	}
	return &Replay{
		Name:     filepath.Base(path),
		Decision: &model.FinalDecision{ReferenceID: "CLM-" + filepath.Base(path)},
	}, nil
}

func TestBatchReplayer_ReplayFiles(t *testing.T) {
	b := NewBatchReplayer(mockReplayer{}, 2)
	paths := []string{"a.yaml", "bad.yaml", "c.yaml"}

	results := b.ReplayFiles(context.Background(), paths)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d is for %s, want %s", i, r.Path, paths[i])
		}
	}
	if results[1].Error == nil {
		t.Error("expected bad.yaml to fail")
	}
	if results[0].Replay == nil || results[0].Replay.Decision.ReferenceID != "CLM-a.yaml" {
		t.Errorf("unexpected replay %+v", results[0].Replay)
	}
}

func TestBatchReplayer_Empty(t *testing.T) {
	if got := NewBatchReplayer(mockReplayer{}, 2).ReplayFiles(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.yaml", "two.yml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("name: x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := ExpandPaths([]string{dir, filepath.Join(dir, "one.yaml")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 scenario files, got %v", paths)
	}

	if _, err := ExpandPaths([]string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")
	content := "# scenarios\nreject.yaml\n\napprove.yaml\nreject.yaml\n/abs/other.yaml\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{filepath.Join(dir, "reject.yaml"), filepath.Join(dir, "approve.yaml"), "/abs/other.yaml"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], paths[i])
		}
	}
}
