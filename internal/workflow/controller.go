// Package workflow sequences a reviewer through landing, upload,
// processing, review and success, carrying the claim between steps.
package workflow

import (
	"errors"
	"fmt"

	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/reconcile"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed from the current step
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// ErrIncompleteResult is returned when a processing result lacks a patient or items
	ErrIncompleteResult = errors.New("processing result has no patient or items")

	// ErrInvalidItems is returned when a processing result repeats an item id
	// or claims a negative amount
	ErrInvalidItems = errors.New("processing result has duplicate or negative items")

	// ErrNoDecision is returned when submitting without a decision
	ErrNoDecision = errors.New("no final decision")
)

// Controller owns the current step and the accumulating claim record of
// one session.
type Controller struct {
	step     Step
	claim    *model.Claim
	engine   *reconcile.Engine
	decision *model.FinalDecision
}

// NewController starts a session on the landing step
func NewController() *Controller {
	return &Controller{step: StepLanding}
}

// Step returns the current step
func (c *Controller) Step() Step {
	return c.step
}

// Claim returns the claim held by the session, or nil
func (c *Controller) Claim() *model.Claim {
	return c.claim
}

// Engine returns the reconciliation engine while the session is in review
func (c *Controller) Engine() *reconcile.Engine {
	if c.step != StepReview {
		return nil
	}
	return c.engine
}

// Decision returns the submitted decision, or nil before submission
func (c *Controller) Decision() *model.FinalDecision {
	return c.decision
}

// StartNewClaim discards everything held and moves to upload
func (c *Controller) StartNewClaim() error {
	if c.step != StepLanding && c.step != StepSuccess {
		return c.transitionError("start new claim")
	}
	c.reset()
	c.step = StepUpload
	return nil
}

// CompleteUpload stores the uploaded documents and moves to processing.
// Required documents are checked by the upload collaborator, not here.
func (c *Controller) CompleteUpload(docs []model.Document) error {
	if c.step != StepUpload {
		return c.transitionError("complete upload")
	}
	c.claim = &model.Claim{Documents: append([]model.Document(nil), docs...)}
	c.step = StepProcessing
	return nil
}

// CompleteProcessing merges the processing result into the claim and
// moves to review. A result without a patient or items, or with items the
// engine cannot address, is refused.
func (c *Controller) CompleteProcessing(result model.ExtractionResult) error {
	if c.step != StepProcessing {
		return c.transitionError("complete processing")
	}
	if result.Patient.Name == "" || len(result.Items) == 0 {
		return ErrIncompleteResult
	}
	if err := checkItems(result.Items); err != nil {
		return err
	}

	patient := result.Patient
	if c.claim == nil {
		c.claim = &model.Claim{}
	}
	c.claim.Patient = &patient
	c.claim.TotalClaimed = result.TotalClaimed
	c.claim.SuggestedApproval = result.SuggestedApproval
	c.engine = reconcile.NewEngine(patient, result.TotalClaimed, result.Items)
	c.claim.Items = c.engine.Items()
	c.step = StepReview
	return nil
}

func checkItems(items []model.ClaimItem) error {
	seen := make(map[int]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: item %d appears twice", ErrInvalidItems, item.ID)
		}
		if item.ClaimedAmount < 0 {
			return fmt.Errorf("%w: item %d claims %d", ErrInvalidItems, item.ID, item.ClaimedAmount)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// SubmitDecision stores the final decision and moves to success
func (c *Controller) SubmitDecision(decision *model.FinalDecision) error {
	if c.step != StepReview {
		return c.transitionError("submit decision")
	}
	if decision == nil {
		return ErrNoDecision
	}
	c.decision = decision
	c.claim.Items = model.CloneItems(decision.Items)
	c.engine = nil
	c.step = StepSuccess
	return nil
}

// Submit asks the engine for a snapshot and submits it
func (c *Controller) Submit() (*model.FinalDecision, error) {
	engine := c.Engine()
	if engine == nil {
		return nil, c.transitionError("submit decision")
	}
	decision, err := engine.Submit()
	if err != nil {
		return nil, err
	}
	if err := c.SubmitDecision(decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// ReturnHome discards everything held and moves to landing
func (c *Controller) ReturnHome() {
	c.reset()
	c.step = StepLanding
}

// CanRender reports whether the session holds what step needs
func (c *Controller) CanRender(step Step) bool {
	switch step {
	case StepLanding, StepUpload:
		return true
	case StepProcessing:
		return c.claim != nil && len(c.claim.Documents) > 0
	case StepReview:
		return c.engine != nil && c.claim.HasReviewData()
	case StepSuccess:
		return c.decision != nil
	default:
		return false
	}
}

// Resolve picks the step to show for a requested (deep-linked) step. A
// link only resumes the step the session is actually on; anything else
// falls back to the current step, or landing if even that cannot render.
func (c *Controller) Resolve(requested Step) Step {
	if requested == c.step && c.CanRender(requested) {
		return requested
	}
	if c.CanRender(c.step) {
		return c.step
	}
	return StepLanding
}

func (c *Controller) reset() {
	c.claim = nil
	c.engine = nil
	c.decision = nil
}

func (c *Controller) transitionError(op string) error {
	return fmt.Errorf("%s from %s: %w", op, c.step, ErrInvalidTransition)
}
