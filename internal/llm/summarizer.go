// Package llm drafts an optional plain-language note about a submitted
// decision. Notes never change amounts, counts or status.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/worker"
)

// Note is a generated narrative note and how it was produced
type Note struct {
	Enabled       bool      `json:"enabled"`
	Provider      string    `json:"provider,omitempty"`
	Model         string    `json:"model,omitempty"`
	StrictAmounts bool      `json:"strictAmounts"`
	Text          string    `json:"text,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Summarizer wraps a provider. A nil provider disables it.
type Summarizer struct {
	provider Provider
	config   Config
	limiter  *worker.Limiter
}

// NewSummarizer creates a summarizer for the configured provider
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// WithLimiter paces provider calls through l, keyed by provider name
func (s *Summarizer) WithLimiter(l *worker.Limiter) *Summarizer {
	s.limiter = l
	return s
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateNote drafts a note for d. It returns nil when disabled, and a
// disabled note with a warning when the provider cannot be reached.
func (s *Summarizer) GenerateNote(ctx context.Context, d *model.FinalDecision) (*Note, error) {
	if !s.IsEnabled() {
		return nil, nil
	}
	if d == nil {
		return nil, errors.New("no decision to describe")
	}

	note := &Note{
		Provider:      s.provider.Name(),
		Model:         s.config.Model,
		StrictAmounts: s.config.StrictAmounts,
		GeneratedAt:   time.Now().UTC(),
	}

	if !s.provider.IsAvailable(ctx) {
		note.Warnings = append(note.Warnings, fmt.Sprintf("LLM provider %s is not available", note.Provider))
		return note, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, note.Provider); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	resp, err := s.provider.Draft(ctx, NoteRequest{
		Decision:  *d,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("draft note: %w", err)
	}

	note.Enabled = true
	note.Text = resp.Note
	if resp.Model != "" {
		note.Model = resp.Model
	}
	note.Warnings = append(note.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictAmounts {
		note.Warnings = append(note.Warnings, fmt.Sprintf("Verified %d quoted amounts against the decision", len(resp.Figures)))
	}
	return note, nil
}
