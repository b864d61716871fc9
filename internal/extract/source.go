// Package extract defines the processing collaborator: one typed result per
// pipeline stage. The built-in implementation replays a fixed dataset; a real
// extraction or adjudication backend implements the same Source.
package extract

import (
	"context"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

// Source produces the result of each processing stage
type Source interface {
	// ReadDocuments extracts patient and line counts from the uploads
	ReadDocuments(ctx context.Context, docs []model.Document) (*model.ExtractionFindings, error)

	// CheckConsistency cross-checks prescription, invoice and lab report
	CheckConsistency(ctx context.Context, docs []model.Document) (*model.ConsistencyFindings, error)

	// ApplyPolicy applies coverage rules and exclusions
	ApplyPolicy(ctx context.Context, docs []model.Document) (*model.PolicyFindings, error)

	// DraftDecision prepares the item-level draft handed to the reviewer
	DraftDecision(ctx context.Context, docs []model.Document) (*model.DraftFindings, error)
}
