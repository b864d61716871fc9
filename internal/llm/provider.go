package llm

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/claimadjudicate/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Draft writes a narrative note about a submitted decision
	Draft(ctx context.Context, req NoteRequest) (*NoteResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// NoteRequest contains the input for a narrative note
type NoteRequest struct {
	// Decision is the submitted decision to describe
	Decision model.FinalDecision

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// NoteResponse contains the generated note
type NoteResponse struct {
	Note string

	// Figures are the currency amounts the note mentions
	Figures []int64

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictAmounts rejects notes quoting a figure the decision does not contain
	StrictAmounts bool

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:      "", // Disabled by default
		Timeout:       30,
		StrictAmounts: true,
		MaxTokens:     400,
	}
}

const systemPrompt = "You write short, factual notes about insurance claim decisions. You never change or invent amounts."

// BuildPrompt constructs the default prompt for a decision note
func BuildPrompt(d model.FinalDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Write a 3-4 sentence plain-language note for the claimant about this adjudicated claim.

RULES:
1. Quote only amounts listed below, written as INR with thousands separators.
2. Do not speculate about policy terms beyond the reasons given.
3. Do not promise payment dates or further review.

Decision:
- Reference: %s
- Patient: %s (policy %s)
- Claimed: INR %s
- Approved: INR %s (%s)
- Items: %d approved, %d partial, %d rejected

Items:
`, d.ReferenceID, d.Patient.Name, d.Patient.PolicyID,
		humanize.Comma(d.TotalClaimed), humanize.Comma(d.TotalApproved), model.FormatRate(d.ApprovalRate()),
		d.ApprovedCount, d.PartialCount, d.RejectedCount)

	for i, item := range d.Items {
		if i >= 20 {
			fmt.Fprintf(&b, "... and %d more items\n", len(d.Items)-20)
			break
		}
		fmt.Fprintf(&b, "- %s: claimed INR %s, approved INR %s (%s)\n",
			item.Description, humanize.Comma(item.ClaimedAmount), humanize.Comma(item.ApprovedAmount), item.Reason)
	}
	return b.String()
}

// AllowedFigures lists every amount a note may quote: totals, the total
// reduction and each item's claimed, approved and reduced amount.
func AllowedFigures(d model.FinalDecision) map[int64]bool {
	allowed := map[int64]bool{
		d.TotalClaimed:                   true,
		d.TotalApproved:                  true,
		d.TotalClaimed - d.TotalApproved: true,
	}
	for _, item := range d.Items {
		allowed[item.ClaimedAmount] = true
		allowed[item.ApprovedAmount] = true
		allowed[item.ClaimedAmount-item.ApprovedAmount] = true
	}
	return allowed
}

var figurePattern = regexp.MustCompile(`(?i)(?:₹|INR|Rs\.?)\s?(\d[\d,]*(?:\.\d+)?)`)

// extractFigures returns the whole currency amounts quoted in text, and
// separately the quoted amounts carrying a non-zero fraction
func extractFigures(text string) ([]int64, []string) {
	var out []int64
	var fractional []string
	seen := make(map[int64]bool)
	for _, m := range figurePattern.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if f != math.Trunc(f) {
			fractional = append(fractional, m[1])
			continue
		}
		v := int64(f)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, fractional
}

// checkFigures fails on the first quoted amount that is not allowed.
// Decisions hold whole amounts only, so any fractional figure is a leak.
func checkFigures(figures []int64, fractional []string, allowed map[int64]bool) error {
	if len(fractional) > 0 {
		return fmt.Errorf("AMOUNT LEAK: note quotes INR %s, which is not part of the decision", fractional[0])
	}
	for _, f := range figures {
		if !allowed[f] {
			return fmt.Errorf("AMOUNT LEAK: note quotes INR %s, which is not part of the decision", humanize.Comma(f))
		}
	}
	return nil
}

// finishNote validates raw model output against the decision
func finishNote(raw string, req NoteRequest, strict bool) (string, []int64, error) {
	note := strings.TrimSpace(raw)
	if note == "" {
		return "", nil, fmt.Errorf("empty note")
	}
	figures, fractional := extractFigures(note)
	if strict {
		if err := checkFigures(figures, fractional, AllowedFigures(req.Decision)); err != nil {
			return "", nil, err
		}
	}
	return note, figures, nil
}
