package reconcile

import (
	"errors"
	"time"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

// ErrNotConfirmed is returned by Submit while any item is unconfirmed
var ErrNotConfirmed = errors.New("all items must be confirmed before submission")

// Engine owns the editable item list of the review step. Totals are
// derived on every read and never cached.
//
// Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	patient      model.Patient
	totalClaimed int64
	items        []model.ClaimItem
	index        map[int]int

	now   func() time.Time
	refID func(time.Time) string
}

// NewEngine creates an engine over a private copy of items. Draft amounts
// outside [0, claimed] are clamped; a clamped item loses its status and
// confirmation like any other amount edit.
func NewEngine(patient model.Patient, totalClaimed int64, items []model.ClaimItem) *Engine {
	e := &Engine{
		patient:      patient,
		totalClaimed: totalClaimed,
		items:        model.CloneItems(items),
		index:        make(map[int]int, len(items)),
		now:          time.Now,
		refID:        model.NewReferenceID,
	}
	for i := range e.items {
		item := &e.items[i]
		if clamped := Clamp(item.ApprovedAmount, item.ClaimedAmount); clamped != item.ApprovedAmount {
			item.ApprovedAmount = clamped
			item.Status = Classify(clamped, item.ClaimedAmount)
			item.Confirmed = false
		}
		e.index[item.ID] = i
	}
	return e
}

// Patient returns the patient under review
func (e *Engine) Patient() model.Patient {
	return e.patient
}

// TotalClaimed returns the claimed total fixed at intake
func (e *Engine) TotalClaimed() int64 {
	return e.totalClaimed
}

// Items returns a copy of the items in display order
func (e *Engine) Items() []model.ClaimItem {
	return model.CloneItems(e.items)
}

// SetApprovedAmount clamps amount into [0, claimed], rederives the status
// and clears the item's confirmation. Unknown ids are ignored; the return
// value reports whether an item was updated.
func (e *Engine) SetApprovedAmount(id int, amount int64) bool {
	i, ok := e.index[id]
	if !ok {
		return false
	}
	item := &e.items[i]
	item.ApprovedAmount = Clamp(amount, item.ClaimedAmount)
	item.Status = Classify(item.ApprovedAmount, item.ClaimedAmount)
	item.Confirmed = false
	return true
}

// SetConfirmed sets the reviewer attestation for one item
func (e *Engine) SetConfirmed(id int, confirmed bool) bool {
	i, ok := e.index[id]
	if !ok {
		return false
	}
	e.items[i].Confirmed = confirmed
	return true
}

// ConfirmAll marks every item as confirmed
func (e *Engine) ConfirmAll() {
	for i := range e.items {
		e.items[i].Confirmed = true
	}
}

// CanSubmit reports whether every item is confirmed
func (e *Engine) CanSubmit() bool {
	for _, item := range e.items {
		if !item.Confirmed {
			return false
		}
	}
	return true
}

// TotalApproved sums the current approved amounts
func (e *Engine) TotalApproved() int64 {
	var total int64
	for _, item := range e.items {
		total += item.ApprovedAmount
	}
	return total
}

// AttentionCount counts items still carrying the upstream attention flag
func (e *Engine) AttentionCount() int {
	n := 0
	for _, item := range e.items {
		if item.Status == model.StatusAttention {
			n++
		}
	}
	return n
}

// ConfirmedCount counts confirmed items
func (e *Engine) ConfirmedCount() int {
	n := 0
	for _, item := range e.items {
		if item.Confirmed {
			n++
		}
	}
	return n
}

// Submit snapshots the current items into a FinalDecision. Counts are
// recomputed from the amounts, not read from the stored status.
func (e *Engine) Submit() (*model.FinalDecision, error) {
	if !e.CanSubmit() {
		return nil, ErrNotConfirmed
	}

	items := e.Items()
	counts := CountItems(items)
	now := e.now().UTC()

	return &model.FinalDecision{
		ReferenceID:   e.refID(now),
		SubmittedAt:   now,
		Patient:       e.patient,
		TotalClaimed:  e.totalClaimed,
		TotalApproved: e.TotalApproved(),
		Items:         items,
		ApprovedCount: counts.Approved,
		PartialCount:  counts.Partial,
		RejectedCount: counts.Rejected,
	}, nil
}
