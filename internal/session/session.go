// Package session keeps one workflow session per reviewer in memory and
// runs the processing pipeline in the background for it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/pipeline"
	"github.com/ppiankov/claimadjudicate/internal/reconcile"
	"github.com/ppiankov/claimadjudicate/internal/workflow"
	"go.uber.org/zap"
)

var (
	// ErrProcessingPending is returned when review is requested before every stage completed
	ErrProcessingPending = errors.New("processing has not finished")

	// ErrNotInReview is returned for item edits outside the review step
	ErrNotInReview = errors.New("claim is not in review")
)

// Session is one reviewer's workflow. All methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu   sync.Mutex
	ctrl *workflow.Controller
	log  *zap.Logger

	// processing run state; generation identifies the current run
	generation uint64
	cancel     context.CancelFunc
	runDone    chan struct{}
	progress   pipeline.Progress
	result     *model.ExtractionResult
	procErr    error

	view ViewState
	note string
}

// New creates a standalone session outside any store
func New(log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return newSession(uuid.NewString(), log)
}

func newSession(id string, log *zap.Logger) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		ctrl:      workflow.NewController(),
		log:       log,
		view:      DefaultViewState(),
	}
}

// View is a consistent read-only snapshot of a session
type View struct {
	ID             string               `json:"id"`
	Step           workflow.Step        `json:"step"`
	Documents      []model.Document     `json:"documents,omitempty"`
	Patient        *model.Patient       `json:"patient,omitempty"`
	TotalClaimed   int64                `json:"totalClaimed"`
	Suggested      int64                `json:"suggestedApproval"`
	Items          []model.ClaimItem    `json:"items,omitempty"`
	TotalApproved  int64                `json:"totalApproved"`
	AttentionCount int                  `json:"attentionCount"`
	ConfirmedCount int                  `json:"confirmedCount"`
	CanSubmit      bool                 `json:"canSubmit"`
	Counts         reconcile.Counts     `json:"counts"`
	Progress       *pipeline.Progress   `json:"progress,omitempty"`
	ProcessingErr  string               `json:"processingError,omitempty"`
	Decision       *model.FinalDecision `json:"decision,omitempty"`
	Note           string               `json:"note,omitempty"`
	ViewState      ViewState            `json:"view"`
}

// Snapshot returns the current state of the session
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.ID,
		Step:      s.ctrl.Step(),
		Decision:  s.ctrl.Decision(),
		Note:      s.note,
		ViewState: s.view,
	}

	if claim := s.ctrl.Claim(); claim != nil {
		v.Documents = append([]model.Document(nil), claim.Documents...)
		if claim.Patient != nil {
			p := *claim.Patient
			v.Patient = &p
		}
		v.TotalClaimed = claim.TotalClaimed
		v.Suggested = claim.SuggestedApproval
		v.Items = model.CloneItems(claim.Items)
	}

	if engine := s.ctrl.Engine(); engine != nil {
		v.Items = engine.Items()
		v.TotalApproved = engine.TotalApproved()
		v.AttentionCount = engine.AttentionCount()
		v.ConfirmedCount = engine.ConfirmedCount()
		v.CanSubmit = engine.CanSubmit()
		v.Counts = reconcile.CountItems(v.Items)
	} else if v.Decision != nil {
		v.TotalApproved = v.Decision.TotalApproved
		v.ConfirmedCount = len(v.Decision.Items)
		v.Counts = reconcile.Counts{
			Approved: v.Decision.ApprovedCount,
			Partial:  v.Decision.PartialCount,
			Rejected: v.Decision.RejectedCount,
		}
	}

	if v.Step == workflow.StepProcessing {
		p := s.progress
		v.Progress = &p
		if s.procErr != nil {
			v.ProcessingErr = s.procErr.Error()
		}
	}
	return v
}

// Step returns the current workflow step
func (s *Session) Step() workflow.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Step()
}

// Resolve maps a requested deep-link step onto the step to render
func (s *Session) Resolve(requested workflow.Step) workflow.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Resolve(requested)
}

// StartNewClaim discards the current claim and opens the upload step
func (s *Session) StartNewClaim() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.StartNewClaim(); err != nil {
		return err
	}
	s.resetLocked()
	return nil
}

// ReturnHome discards the current claim and goes back to the landing step
func (s *Session) ReturnHome() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctrl.ReturnHome()
	s.resetLocked()
}

// Upload stores the documents and starts processing them with p
func (s *Session) Upload(docs []model.Document, p *pipeline.Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.CompleteUpload(docs); err != nil {
		return err
	}
	s.startProcessingLocked(docs, p)
	return nil
}

// startProcessingLocked launches a run whose progress is applied only while
// it is still the session's current run
func (s *Session) startProcessingLocked(docs []model.Document, p *pipeline.Pipeline) {
	s.stopProcessingLocked()

	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.cancel = cancel
	s.runDone = done
	s.progress = pipeline.InitialProgress()
	s.result = nil
	s.procErr = nil

	docs = append([]model.Document(nil), docs...)
	go func() {
		defer close(done)
		defer cancel()

		result, err := p.Run(ctx, docs, func(pr pipeline.Progress) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.generation == gen {
				// done is published together with the result below
				pr.Done = false
				s.progress = pr
			}
		})

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			return
		}
		s.cancel = nil
		switch {
		case err == nil:
			s.result = result
			s.progress.Done = true
		case errors.Is(err, context.Canceled):
		default:
			s.procErr = err
			s.log.Warn("processing failed", zap.String("session", s.ID), zap.Error(err))
		}
	}()
}

func (s *Session) stopProcessingLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
}

// ProcessingDone returns a channel closed when the current run exits.
// It is nil when no run was started.
func (s *Session) ProcessingDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runDone
}

// EnterReview hands the finished processing result to the controller
func (s *Session) EnterReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if step := s.ctrl.Step(); step != workflow.StepProcessing {
		return fmt.Errorf("enter review from %s: %w", step, workflow.ErrInvalidTransition)
	}
	if s.result == nil || !s.progress.Done {
		return ErrProcessingPending
	}
	if err := s.ctrl.CompleteProcessing(*s.result); err != nil {
		return err
	}
	s.result = nil
	s.view = DefaultViewState()
	return nil
}

// SetApprovedAmount edits one item. Unknown ids are ignored.
func (s *Session) SetApprovedAmount(id int, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := s.ctrl.Engine()
	if engine == nil {
		return ErrNotInReview
	}
	engine.SetApprovedAmount(id, amount)
	return nil
}

// SetConfirmed sets one item's confirmation. Unknown ids are ignored.
func (s *Session) SetConfirmed(id int, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := s.ctrl.Engine()
	if engine == nil {
		return ErrNotInReview
	}
	engine.SetConfirmed(id, confirmed)
	return nil
}

// ConfirmAll confirms every item
func (s *Session) ConfirmAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := s.ctrl.Engine()
	if engine == nil {
		return ErrNotInReview
	}
	engine.ConfirmAll()
	return nil
}

// Submit finalizes the review and moves to success
func (s *Session) Submit() (*model.FinalDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decision, err := s.ctrl.Submit()
	if err != nil {
		return nil, err
	}
	s.view = DefaultViewState()
	s.log.Info("claim submitted",
		zap.String("session", s.ID),
		zap.String("reference", decision.ReferenceID),
		zap.Int64("approved", decision.TotalApproved),
		zap.Int64("claimed", decision.TotalClaimed),
	)
	return decision, nil
}

// Decision returns the submitted decision, or nil
func (s *Session) Decision() *model.FinalDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Decision()
}

// SetNote attaches a narrative note to the submitted decision. The note is
// dropped if the session moved on to another claim.
func (s *Session) SetNote(referenceID, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d := s.ctrl.Decision(); d != nil && d.ReferenceID == referenceID {
		s.note = note
	}
}

// Note returns the narrative note of the submitted decision
func (s *Session) Note() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note
}

// UpdateView applies fn to the review view state
func (s *Session) UpdateView(fn func(v *ViewState)) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.view)
	return s.view
}

// Close stops any processing run
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopProcessingLocked()
}

func (s *Session) resetLocked() {
	s.stopProcessingLocked()
	s.runDone = nil
	s.progress = pipeline.Progress{}
	s.result = nil
	s.procErr = nil
	s.view = DefaultViewState()
	s.note = ""
}
