package pipeline

import (
	"context"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

// StageState is the visible state of one processing stage
type StageState struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      model.StageStatus `json:"status"`
	Summary     []string          `json:"summary,omitempty"`
}

// Stats are the running counters shown next to the timeline
type Stats struct {
	DocumentsScanned int `json:"documentsScanned"`
	ItemsValidated   int `json:"itemsValidated"`
	ItemsAdjudicated int `json:"itemsAdjudicated"`
}

// Progress is a snapshot of a run handed to the observer
type Progress struct {
	Stages    []StageState `json:"stages"`
	Completed int          `json:"completed"`
	Total     int          `json:"total"`
	Percent   int          `json:"percent"`
	Ticks     int          `json:"ticks"`
	Stats     Stats        `json:"stats"`
	Done      bool         `json:"done"`
}

// Active returns the index of the stage being processed, or -1
func (p Progress) Active() int {
	for i, s := range p.Stages {
		if s.Status == model.StageProcessing {
			return i
		}
	}
	return -1
}

// stage is one step of the run. exec calls the source and folds its
// findings into the run state, returning the stage summary.
type stage struct {
	title       string
	description string
	exec        func(ctx context.Context, r *run) ([]string, error)
}

var stages = []stage{
	{
		title:       "Document Reading & Extraction",
		description: "Extracting information from uploaded documents",
		exec: func(ctx context.Context, r *run) ([]string, error) {
			f, err := r.source.ReadDocuments(ctx, r.docs)
			if err != nil {
				return nil, err
			}
			r.stats.DocumentsScanned = len(r.docs)
			return f.Summary(), nil
		},
	},
	{
		title:       "Medical Consistency Check",
		description: "Verifying prescription vs invoice vs lab report",
		exec: func(ctx context.Context, r *run) ([]string, error) {
			f, err := r.source.CheckConsistency(ctx, r.docs)
			if err != nil {
				return nil, err
			}
			r.stats.ItemsValidated = f.MatchedItems + f.FlaggedItems
			return f.Summary(), nil
		},
	},
	{
		title:       "Policy Rules Check",
		description: "Applying coverage rules and exclusions",
		exec: func(ctx context.Context, r *run) ([]string, error) {
			f, err := r.source.ApplyPolicy(ctx, r.docs)
			if err != nil {
				return nil, err
			}
			return f.Summary(), nil
		},
	},
	{
		title:       "Draft Decision Preparation",
		description: "Preparing item-level adjudication",
		exec: func(ctx context.Context, r *run) ([]string, error) {
			f, err := r.source.DraftDecision(ctx, r.docs)
			if err != nil {
				return nil, err
			}
			r.result = &f.Result
			r.stats.ItemsValidated = len(f.Result.Items)
			r.stats.ItemsAdjudicated = len(f.Result.Items)
			return f.Summary(), nil
		},
	},
}

// InitialProgress is the snapshot before any stage has started
func InitialProgress() Progress {
	states := make([]StageState, len(stages))
	for i, s := range stages {
		states[i] = StageState{
			Title:       s.title,
			Description: s.description,
			Status:      model.StagePending,
		}
	}
	return Progress{Stages: states, Total: len(stages)}
}
