package scenario

import (
	"context"
	"fmt"

	"github.com/ppiankov/claimadjudicate/internal/extract"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/pipeline"
	"github.com/ppiankov/claimadjudicate/internal/session"
	"go.uber.org/zap"
)

// Outcome is the end state of a replayed scenario
type Outcome struct {
	Name     string
	View     session.View
	Decision *model.FinalDecision // nil unless the scenario submits
}

// Runner drives scenarios through a fresh session each, with no stage delay
type Runner struct {
	pipeline *pipeline.Pipeline
	intake   *intake.Intake
	log      *zap.Logger
}

// NewRunner creates a runner over source
func NewRunner(source extract.Source, in *intake.Intake, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		pipeline: pipeline.New(source, pipeline.Options{}),
		intake:   in,
		log:      log,
	}
}

// Run replays sc in an isolated session
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Outcome, error) {
	s := session.New(r.log)
	defer s.Close()

	if err := s.StartNewClaim(); err != nil {
		return nil, err
	}

	docs, err := r.intake.Check(sc.Documents)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if err := s.Upload(docs, r.pipeline); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	select {
	case <-s.ProcessingDone():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := s.EnterReview(); err != nil {
		if v := s.Snapshot(); v.ProcessingErr != "" {
			return nil, fmt.Errorf("processing: %s", v.ProcessingErr)
		}
		return nil, fmt.Errorf("enter review: %w", err)
	}

	for _, e := range sc.Edits {
		if err := s.SetApprovedAmount(e.Item, e.Amount); err != nil {
			return nil, fmt.Errorf("edit item %d: %w", e.Item, err)
		}
	}

	if sc.Confirm.All {
		if err := s.ConfirmAll(); err != nil {
			return nil, err
		}
	} else {
		for _, id := range sc.Confirm.IDs {
			if err := s.SetConfirmed(id, true); err != nil {
				return nil, fmt.Errorf("confirm item %d: %w", id, err)
			}
		}
	}

	out := &Outcome{Name: sc.Name}
	if sc.Submit {
		decision, err := s.Submit()
		if err != nil {
			return nil, fmt.Errorf("submit: %w", err)
		}
		out.Decision = decision
	}
	out.View = s.Snapshot()
	return out, nil
}
