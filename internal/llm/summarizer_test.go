package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimadjudicate/internal/worker"
)

type mockProvider struct {
	name      string
	available bool
	response  *NoteResponse
	err       error
	calls     int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Draft(ctx context.Context, req NoteRequest) (*NoteResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return m.available }

func TestNewSummarizer_Disabled(t *testing.T) {
	s, err := NewSummarizer(Config{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.IsEnabled() || s.ProviderName() != "" {
		t.Error("Expected summarizer to be disabled")
	}

	d := testDecision()
	note, err := s.GenerateNote(context.Background(), &d)
	if err != nil || note != nil {
		t.Errorf("Expected nil note and error when disabled, got %v, %v", note, err)
	}
}

func TestSummarizer_NilReceiver(t *testing.T) {
	var s *Summarizer
	if s.IsEnabled() {
		t.Error("nil summarizer must be disabled")
	}
}

func TestSummarizer_ProviderUnavailable(t *testing.T) {
	s := &Summarizer{provider: &mockProvider{name: "test-provider"}, config: Config{StrictAmounts: true}}

	d := testDecision()
	note, err := s.GenerateNote(context.Background(), &d)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if note == nil || note.Enabled {
		t.Fatal("Expected a disabled note")
	}
	if len(note.Warnings) == 0 || !strings.Contains(note.Warnings[0], "not available") {
		t.Errorf("Expected unavailability warning, got %v", note.Warnings)
	}
}

func TestSummarizer_Success(t *testing.T) {
	p := &mockProvider{
		name:      "test-provider",
		available: true,
		response:  &NoteResponse{Note: "INR 15,000 approved.", Figures: []int64{15000}, Model: "test-model", TokensUsed: 90},
	}
	s := (&Summarizer{provider: p, config: Config{StrictAmounts: true}}).WithLimiter(worker.NewLimiter(100, 1))

	d := testDecision()
	note, err := s.GenerateNote(context.Background(), &d)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !note.Enabled || note.Text != "INR 15,000 approved." || note.Model != "test-model" {
		t.Errorf("Unexpected note %+v", note)
	}
	if note.Provider != "test-provider" || !note.StrictAmounts {
		t.Errorf("Unexpected provenance %+v", note)
	}

	var tokens, verified bool
	for _, w := range note.Warnings {
		tokens = tokens || strings.Contains(w, "Tokens used: 90")
		verified = verified || strings.Contains(w, "Verified 1 quoted amounts")
	}
	if !tokens || !verified {
		t.Errorf("Expected token and verification warnings, got %v", note.Warnings)
	}
}

func TestSummarizer_ProviderError(t *testing.T) {
	p := &mockProvider{name: "test-provider", available: true, err: errors.New("boom")}
	s := &Summarizer{provider: p}

	d := testDecision()
	if _, err := s.GenerateNote(context.Background(), &d); err == nil {
		t.Fatal("Expected error")
	}
	if _, err := s.GenerateNote(context.Background(), nil); err == nil {
		t.Fatal("Expected error for nil decision")
	}
}
