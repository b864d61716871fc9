package workflow

import (
	"errors"
	"testing"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

func allDocuments() []model.Document {
	return []model.Document{
		{Type: model.DocPrescription, File: "rx.pdf", PageCount: 1},
		{Type: model.DocInvoice, File: "bill.pdf", PageCount: 3},
		{Type: model.DocLab, File: "cbc.pdf", PageCount: 2},
		{Type: model.DocPolicy, File: "policy.pdf", PageCount: 5},
	}
}

func sampleResult() model.ExtractionResult {
	return model.ExtractionResult{
		Patient:           model.Patient{Name: "Raj Kumar", Age: 45, PolicyID: "HLT-2024-78542"},
		TotalClaimed:      32000,
		SuggestedApproval: 24500,
		Items: []model.ClaimItem{
			{ID: 1, Description: "Consultation Fee", ClaimedAmount: 1500, ApprovedAmount: 1500, Status: model.StatusApproved},
			{ID: 2, Description: "Blood Test - CBC", ClaimedAmount: 800, ApprovedAmount: 800, Status: model.StatusApproved},
			{ID: 3, Description: "X-Ray Chest", ClaimedAmount: 2200, ApprovedAmount: 2200, Status: model.StatusApproved},
			{ID: 4, Description: "Medicines (Antibiotics)", ClaimedAmount: 4500, ApprovedAmount: 3500, Status: model.StatusPartial},
			{ID: 5, Description: "Room Charges (2 days)", ClaimedAmount: 12000, ApprovedAmount: 10000, Status: model.StatusPartial},
			{ID: 6, Description: "Nursing Charges", ClaimedAmount: 6000, ApprovedAmount: 6000, Status: model.StatusApproved},
			{ID: 7, Description: "Vitamin Supplements", ClaimedAmount: 5000, ApprovedAmount: 500, Status: model.StatusAttention},
		},
	}
}

func toReview(t *testing.T) *Controller {
	t.Helper()
	c := NewController()
	if err := c.StartNewClaim(); err != nil {
		t.Fatalf("StartNewClaim: %v", err)
	}
	if err := c.CompleteUpload(allDocuments()); err != nil {
		t.Fatalf("CompleteUpload: %v", err)
	}
	if err := c.CompleteProcessing(sampleResult()); err != nil {
		t.Fatalf("CompleteProcessing: %v", err)
	}
	return c
}

func TestController_HappyPath(t *testing.T) {
	c := NewController()
	if c.Step() != StepLanding {
		t.Fatalf("expected landing, got %s", c.Step())
	}

	c = toReview(t)
	if c.Step() != StepReview {
		t.Fatalf("expected review, got %s", c.Step())
	}
	if c.Engine() == nil {
		t.Fatal("expected engine in review")
	}
	if got := len(c.Claim().Documents); got != 4 {
		t.Errorf("expected 4 documents on claim, got %d", got)
	}

	c.Engine().ConfirmAll()
	d, err := c.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Step() != StepSuccess {
		t.Errorf("expected success, got %s", c.Step())
	}
	if c.Decision() != d {
		t.Error("expected controller to hold the submitted decision")
	}
	if c.Engine() != nil {
		t.Error("expected engine to be released after submission")
	}
}

func TestController_InvalidTransitions(t *testing.T) {
	c := NewController()

	if err := c.CompleteUpload(allDocuments()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("upload from landing: expected ErrInvalidTransition, got %v", err)
	}
	if err := c.CompleteProcessing(sampleResult()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("processing from landing: expected ErrInvalidTransition, got %v", err)
	}
	if err := c.SubmitDecision(&model.FinalDecision{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("submit from landing: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := c.Submit(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Submit from landing: expected ErrInvalidTransition, got %v", err)
	}

	c = toReview(t)
	if err := c.StartNewClaim(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("start from review: expected ErrInvalidTransition, got %v", err)
	}
	if c.Step() != StepReview {
		t.Errorf("refused transition must not move the step, now %s", c.Step())
	}
}

func TestController_CompleteProcessing_RefusesIncompleteResult(t *testing.T) {
	c := NewController()
	_ = c.StartNewClaim()
	_ = c.CompleteUpload(allDocuments())

	empty := sampleResult()
	empty.Items = nil
	if err := c.CompleteProcessing(empty); !errors.Is(err, ErrIncompleteResult) {
		t.Fatalf("expected ErrIncompleteResult, got %v", err)
	}

	noPatient := sampleResult()
	noPatient.Patient = model.Patient{}
	if err := c.CompleteProcessing(noPatient); !errors.Is(err, ErrIncompleteResult) {
		t.Fatalf("expected ErrIncompleteResult, got %v", err)
	}

	if c.Step() != StepProcessing {
		t.Errorf("expected to stay on processing, got %s", c.Step())
	}
	if c.CanRender(StepReview) {
		t.Error("review must not be renderable without items")
	}
}

func TestController_CompleteProcessing_RefusesInvalidItems(t *testing.T) {
	duplicate := sampleResult()
	duplicate.Items = append(duplicate.Items, model.ClaimItem{ID: 3, Description: "X-Ray Chest (repeat)", ClaimedAmount: 2200})

	negative := sampleResult()
	negative.Items[0].ClaimedAmount = -1500

	for name, result := range map[string]model.ExtractionResult{"duplicate id": duplicate, "negative claim": negative} {
		c := NewController()
		_ = c.StartNewClaim()
		_ = c.CompleteUpload(allDocuments())

		if err := c.CompleteProcessing(result); !errors.Is(err, ErrInvalidItems) {
			t.Errorf("%s: expected ErrInvalidItems, got %v", name, err)
		}
		if c.Step() != StepProcessing {
			t.Errorf("%s: expected to stay on processing, got %s", name, c.Step())
		}
	}
}

func TestController_CompleteProcessing_ClampsDraft(t *testing.T) {
	result := sampleResult()
	result.Items[0].ApprovedAmount = 2500 // claimed 1500

	c := NewController()
	_ = c.StartNewClaim()
	_ = c.CompleteUpload(allDocuments())
	if err := c.CompleteProcessing(result); err != nil {
		t.Fatalf("CompleteProcessing: %v", err)
	}

	if got := c.Claim().Items[0].ApprovedAmount; got != 1500 {
		t.Errorf("Expected claim item clamped to 1500, got %d", got)
	}
	if got := c.Engine().TotalApproved(); got > c.Engine().TotalClaimed() {
		t.Errorf("Expected total approved within claimed %d, got %d", c.Engine().TotalClaimed(), got)
	}
}

func TestController_SubmitDecision_Nil(t *testing.T) {
	c := toReview(t)
	if err := c.SubmitDecision(nil); !errors.Is(err, ErrNoDecision) {
		t.Errorf("expected ErrNoDecision, got %v", err)
	}
	if c.Step() != StepReview {
		t.Errorf("expected to stay on review, got %s", c.Step())
	}
}

func TestController_StartNewClaimClearsPriorSession(t *testing.T) {
	c := toReview(t)
	c.Engine().SetApprovedAmount(7, 0)
	c.Engine().ConfirmAll()
	if _, err := c.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := c.StartNewClaim(); err != nil {
		t.Fatalf("StartNewClaim from success: %v", err)
	}

	if c.Claim() != nil || c.Decision() != nil || c.Engine() != nil {
		t.Fatal("expected prior claim data to be discarded")
	}
	if c.CanRender(StepReview) {
		t.Error("review must not render stale items after a new claim")
	}
	if c.CanRender(StepSuccess) {
		t.Error("success must not render a stale decision after a new claim")
	}
	if got := c.Resolve(StepReview); got != StepUpload {
		t.Errorf("expected deep link to review to resolve to upload, got %s", got)
	}
}

func TestController_ReturnHome(t *testing.T) {
	c := toReview(t)
	c.ReturnHome()

	if c.Step() != StepLanding {
		t.Errorf("expected landing, got %s", c.Step())
	}
	if c.Claim() != nil {
		t.Error("expected claim to be cleared")
	}
}

func TestController_Resolve(t *testing.T) {
	fresh := NewController()
	review := toReview(t)

	tests := []struct {
		name      string
		c         *Controller
		requested Step
		want      Step
	}{
		{"fresh session asks for review", fresh, StepReview, StepLanding},
		{"fresh session asks for success", fresh, StepSuccess, StepLanding},
		{"fresh session asks for landing", fresh, StepLanding, StepLanding},
		{"review session reloads review", review, StepReview, StepReview},
		{"review session asks for upload", review, StepUpload, StepReview},
		{"review session asks for success", review, StepSuccess, StepReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Resolve(tt.requested); got != tt.want {
				t.Errorf("Resolve(%s) = %s, want %s", tt.requested, got, tt.want)
			}
		})
	}
}

func TestController_EndToEndRejectSupplements(t *testing.T) {
	baseline := toReview(t)
	baseline.Engine().ConfirmAll()
	unedited, err := baseline.Submit()
	if err != nil {
		t.Fatalf("baseline Submit: %v", err)
	}

	c := toReview(t)
	c.Engine().SetApprovedAmount(7, 0)
	for _, item := range c.Engine().Items() {
		c.Engine().SetConfirmed(item.ID, true)
	}
	d, err := c.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if d.TotalApproved != 24000 {
		t.Errorf("expected total approved 24000, got %d", d.TotalApproved)
	}
	if unedited.TotalApproved != 24500 {
		t.Errorf("expected unedited total 24500, got %d", unedited.TotalApproved)
	}
	if d.RejectedCount != unedited.RejectedCount+1 {
		t.Errorf("expected one more rejection than unedited path (%d), got %d", unedited.RejectedCount, d.RejectedCount)
	}
}

func TestParseStep(t *testing.T) {
	for _, s := range Steps {
		got, ok := ParseStep(string(s))
		if !ok || got != s {
			t.Errorf("ParseStep(%q) = %q, %v", s, got, ok)
		}
	}
	if _, ok := ParseStep("checkout"); ok {
		t.Error("expected unknown step to be rejected")
	}
	if StepReview.Ordinal() != 3 {
		t.Errorf("expected review ordinal 3, got %d", StepReview.Ordinal())
	}
}
