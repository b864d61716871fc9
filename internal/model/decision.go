package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FinalDecision is the immutable snapshot taken when the reviewer submits
type FinalDecision struct {
	ReferenceID   string      `json:"referenceId"`
	SubmittedAt   time.Time   `json:"submittedAt"`
	Patient       Patient     `json:"patient"`
	TotalClaimed  int64       `json:"totalClaimed"`
	TotalApproved int64       `json:"totalApproved"`
	Items         []ClaimItem `json:"items"`
	ApprovedCount int         `json:"approvedCount"`
	PartialCount  int         `json:"partialCount"`
	RejectedCount int         `json:"rejectedCount"`
}

// ApprovalRate returns totalApproved/totalClaimed as a percentage.
// A claim with nothing claimed has a rate of zero.
func (d *FinalDecision) ApprovalRate() float64 {
	if d == nil {
		return 0
	}
	return ApprovalRate(d.TotalApproved, d.TotalClaimed)
}

// ApprovalRate returns approved/claimed*100, or 0 when claimed is not positive
func ApprovalRate(approved, claimed int64) float64 {
	if claimed <= 0 {
		return 0
	}
	return float64(approved) / float64(claimed) * 100
}

// FormatRate renders a percentage with one decimal place
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 1, 64) + "%"
}

// NewReferenceID builds a human-shareable submission reference such as
// CLM-M1ABC2XY-4F2A. The random suffix keeps ids unique when two sessions
// submit within the same millisecond.
func NewReferenceID(now time.Time) string {
	stamp := strconv.FormatInt(now.UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return strings.ToUpper("CLM-" + stamp + "-" + suffix)
}
