package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

func samplePatient() model.Patient {
	return model.Patient{Name: "Raj Kumar", Age: 45, PolicyID: "HLT-2024-78542"}
}

// sampleItems mirrors the draft produced by the built-in processing dataset
func sampleItems() []model.ClaimItem {
	return []model.ClaimItem{
		{ID: 1, Description: "Consultation Fee", Category: "OPD", ClaimedAmount: 1500, ApprovedAmount: 1500, Status: model.StatusApproved},
		{ID: 2, Description: "Blood Test - CBC", Category: "Diagnostics", ClaimedAmount: 800, ApprovedAmount: 800, Status: model.StatusApproved},
		{ID: 3, Description: "X-Ray Chest", Category: "Diagnostics", ClaimedAmount: 2200, ApprovedAmount: 2200, Status: model.StatusApproved},
		{ID: 4, Description: "Medicines (Antibiotics)", Category: "Pharmacy", ClaimedAmount: 4500, ApprovedAmount: 3500, Status: model.StatusPartial},
		{ID: 5, Description: "Room Charges (2 days)", Category: "Accommodation", ClaimedAmount: 12000, ApprovedAmount: 10000, Status: model.StatusPartial},
		{ID: 6, Description: "Nursing Charges", Category: "Services", ClaimedAmount: 6000, ApprovedAmount: 6000, Status: model.StatusApproved},
		{ID: 7, Description: "Vitamin Supplements", Category: "Pharmacy", ClaimedAmount: 5000, ApprovedAmount: 500, Status: model.StatusAttention},
	}
}

func newSampleEngine() *Engine {
	return NewEngine(samplePatient(), 32000, sampleItems())
}

func itemByID(e *Engine, id int) (model.ClaimItem, bool) {
	for _, item := range e.Items() {
		if item.ID == id {
			return item, true
		}
	}
	return model.ClaimItem{}, false
}

func TestEngine_SetApprovedAmount_Clamps(t *testing.T) {
	inputs := []int64{-1_000_000, -1, 0, 1, 2499, 5000, 5001, 1 << 40}

	for _, x := range inputs {
		e := newSampleEngine()
		if !e.SetApprovedAmount(7, x) {
			t.Fatalf("expected item 7 to be updated for input %d", x)
		}
		item, _ := itemByID(e, 7)
		if item.ApprovedAmount < 0 || item.ApprovedAmount > item.ClaimedAmount {
			t.Errorf("input %d: approved %d outside [0, %d]", x, item.ApprovedAmount, item.ClaimedAmount)
		}
	}
}

func TestEngine_SetApprovedAmount_ResetsConfirmation(t *testing.T) {
	e := newSampleEngine()
	e.ConfirmAll()

	// Re-typing the same amount still invalidates the confirmation
	e.SetApprovedAmount(1, 1500)

	item, _ := itemByID(e, 1)
	if item.Confirmed {
		t.Error("expected confirmation to be cleared after amount edit")
	}
	if e.CanSubmit() {
		t.Error("expected CanSubmit to be false after an edit")
	}
}

func TestEngine_StatusDerivation(t *testing.T) {
	tests := []struct {
		amount int64
		want   model.ItemStatus
	}{
		{1000, model.StatusApproved},
		{0, model.StatusRejected},
		{400, model.StatusPartial},
		{-50, model.StatusRejected},
		{2000, model.StatusApproved},
	}

	for _, tt := range tests {
		e := NewEngine(samplePatient(), 1000, []model.ClaimItem{
			{ID: 1, ClaimedAmount: 1000, ApprovedAmount: 1000, Status: model.StatusAttention},
		})
		e.SetApprovedAmount(1, tt.amount)
		item, _ := itemByID(e, 1)
		if item.Status != tt.want {
			t.Errorf("amount %d: expected status %s, got %s", tt.amount, tt.want, item.Status)
		}
	}
}

func TestEngine_AttentionIsStickyUntilEdited(t *testing.T) {
	e := newSampleEngine()

	if got := e.AttentionCount(); got != 1 {
		t.Fatalf("expected 1 item needing attention, got %d", got)
	}

	// Confirming does not clear the flag
	e.SetConfirmed(7, true)
	if got := e.AttentionCount(); got != 1 {
		t.Errorf("expected attention to survive confirmation, got %d", got)
	}

	// Any amount edit replaces it with a rule-derived status
	e.SetApprovedAmount(7, 500)
	item, _ := itemByID(e, 7)
	if item.Status != model.StatusPartial {
		t.Errorf("expected partial after edit, got %s", item.Status)
	}
	if got := e.AttentionCount(); got != 0 {
		t.Errorf("expected no attention items after edit, got %d", got)
	}
}

func TestEngine_CanSubmit(t *testing.T) {
	e := newSampleEngine()
	if e.CanSubmit() {
		t.Fatal("expected CanSubmit false with nothing confirmed")
	}

	e.ConfirmAll()
	if !e.CanSubmit() {
		t.Fatal("expected CanSubmit true with everything confirmed")
	}

	for _, item := range e.Items() {
		e.SetConfirmed(item.ID, false)
		if e.CanSubmit() {
			t.Errorf("expected CanSubmit false after unconfirming item %d", item.ID)
		}
		e.SetConfirmed(item.ID, true)
	}

	if got := e.ConfirmedCount(); got != 7 {
		t.Errorf("expected 7 confirmed, got %d", got)
	}
}

func TestEngine_TotalApprovedTracksEdits(t *testing.T) {
	items := sampleItems()
	for i := range items {
		items[i].ApprovedAmount = items[i].ClaimedAmount
	}
	e := NewEngine(samplePatient(), 32000, items)

	before := e.TotalApproved()
	if before != 32000 {
		t.Fatalf("expected 32000 approved, got %d", before)
	}

	e.SetApprovedAmount(7, 500)
	if diff := before - e.TotalApproved(); diff != 4500 {
		t.Errorf("expected total to drop by 4500, dropped by %d", diff)
	}

	e.SetApprovedAmount(5, 99999)
	e.SetApprovedAmount(4, -10)
	want := int64(1500 + 800 + 2200 + 0 + 12000 + 6000 + 500)
	if got := e.TotalApproved(); got != want {
		t.Errorf("expected total %d, got %d", want, got)
	}
}

func TestEngine_UnknownItemIsNoop(t *testing.T) {
	e := newSampleEngine()
	before := e.Items()

	if e.SetApprovedAmount(99, 10) {
		t.Error("expected SetApprovedAmount on unknown id to report false")
	}
	if e.SetConfirmed(-1, true) {
		t.Error("expected SetConfirmed on unknown id to report false")
	}
	if _, ok := itemByID(e, 99); ok {
		t.Error("expected unknown id to be absent")
	}

	after := e.Items()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("item %d changed after no-op: %+v -> %+v", before[i].ID, before[i], after[i])
		}
	}
}

func TestEngine_Submit_CountsIgnoreStoredStatus(t *testing.T) {
	items := []model.ClaimItem{
		{ID: 1, ClaimedAmount: 100, ApprovedAmount: 100, Status: model.StatusRejected},
		{ID: 2, ClaimedAmount: 200, ApprovedAmount: 200, Status: model.StatusAttention},
		{ID: 3, ClaimedAmount: 300, ApprovedAmount: 300, Status: model.StatusPartial},
		{ID: 4, ClaimedAmount: 400, ApprovedAmount: 400},
		{ID: 5, ClaimedAmount: 500, ApprovedAmount: 250, Status: model.StatusApproved},
		{ID: 6, ClaimedAmount: 600, ApprovedAmount: 1, Status: model.StatusRejected},
		{ID: 7, ClaimedAmount: 700, ApprovedAmount: 0, Status: model.StatusApproved},
	}
	e := NewEngine(samplePatient(), 2800, items)
	e.ConfirmAll()

	d, err := e.Submit()
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if d.ApprovedCount != 4 || d.PartialCount != 2 || d.RejectedCount != 1 {
		t.Errorf("expected counts 4/2/1, got %d/%d/%d", d.ApprovedCount, d.PartialCount, d.RejectedCount)
	}
	if d.TotalApproved != 100+200+300+400+250+1 {
		t.Errorf("unexpected total approved %d", d.TotalApproved)
	}
}

func TestEngine_Submit_RequiresConfirmation(t *testing.T) {
	e := newSampleEngine()
	e.ConfirmAll()
	e.SetConfirmed(3, false)

	d, err := e.Submit()
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if d != nil {
		t.Error("expected no decision when submission is refused")
	}
}

func TestEngine_Submit_Snapshot(t *testing.T) {
	e := newSampleEngine()
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	e.refID = func(time.Time) string { return "CLM-TEST" }
	e.ConfirmAll()

	d, err := e.Submit()
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if d.ReferenceID != "CLM-TEST" {
		t.Errorf("expected reference CLM-TEST, got %s", d.ReferenceID)
	}
	if d.TotalClaimed != 32000 || d.TotalApproved != 24500 {
		t.Errorf("expected 24500 of 32000, got %d of %d", d.TotalApproved, d.TotalClaimed)
	}
	if d.Patient != samplePatient() {
		t.Errorf("unexpected patient %+v", d.Patient)
	}

	// Later edits must not leak into the snapshot
	e.SetApprovedAmount(1, 0)
	if d.Items[0].ApprovedAmount != 1500 || !d.Items[0].Confirmed {
		t.Errorf("snapshot mutated by later edit: %+v", d.Items[0])
	}
}

func TestNewEngine_CopiesInput(t *testing.T) {
	items := sampleItems()
	e := NewEngine(samplePatient(), 32000, items)

	items[0].ApprovedAmount = 0
	item, _ := itemByID(e, 1)
	if item.ApprovedAmount != 1500 {
		t.Error("engine shares backing array with caller")
	}
}

func TestNewEngine_ClampsDraftAmounts(t *testing.T) {
	e := NewEngine(samplePatient(), 400, []model.ClaimItem{
		{ID: 1, ClaimedAmount: 100, ApprovedAmount: 250, Status: model.StatusPartial, Confirmed: true},
		{ID: 2, ClaimedAmount: 200, ApprovedAmount: -50, Status: model.StatusPartial, Confirmed: true},
		{ID: 3, ClaimedAmount: 100, ApprovedAmount: 40, Status: model.StatusAttention, Confirmed: true},
	})

	over, _ := itemByID(e, 1)
	if over.ApprovedAmount != 100 || over.Status != model.StatusApproved || over.Confirmed {
		t.Errorf("item 1: expected 100/approved/unconfirmed, got %d/%s/%v", over.ApprovedAmount, over.Status, over.Confirmed)
	}
	negative, _ := itemByID(e, 2)
	if negative.ApprovedAmount != 0 || negative.Status != model.StatusRejected || negative.Confirmed {
		t.Errorf("item 2: expected 0/rejected/unconfirmed, got %d/%s/%v", negative.ApprovedAmount, negative.Status, negative.Confirmed)
	}

	// in-range drafts keep their upstream status and confirmation
	inRange, _ := itemByID(e, 3)
	if inRange.ApprovedAmount != 40 || inRange.Status != model.StatusAttention || !inRange.Confirmed {
		t.Errorf("item 3: expected draft untouched, got %+v", inRange)
	}

	if _, err := e.Submit(); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed after clamping, got %v", err)
	}
	e.ConfirmAll()
	d, err := e.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if d.TotalApproved != 140 || d.TotalApproved > d.TotalClaimed {
		t.Errorf("Expected total approved 140 within claimed %d, got %d", d.TotalClaimed, d.TotalApproved)
	}
	if d.ApprovedCount != 1 || d.PartialCount != 1 || d.RejectedCount != 1 {
		t.Errorf("Expected counts 1/1/1, got %d/%d/%d", d.ApprovedCount, d.PartialCount, d.RejectedCount)
	}
}
