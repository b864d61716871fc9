package model

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// StageStatus tracks one processing stage
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageComplete   StageStatus = "complete"
)

// ExtractionFindings is the result of reading the uploaded documents
type ExtractionFindings struct {
	Patient           Patient `json:"patient" yaml:"patient"`
	InvoiceItems      int     `json:"invoiceItems" yaml:"invoice_items"`
	PrescriptionItems int     `json:"prescriptionItems" yaml:"prescription_items"`
	LabTests          int     `json:"labTests" yaml:"lab_tests"`
}

func (f ExtractionFindings) Summary() []string {
	return []string{
		fmt.Sprintf("Patient: %s, Age: %d", f.Patient.Name, f.Patient.Age),
		fmt.Sprintf("%d invoice items extracted", f.InvoiceItems),
		fmt.Sprintf("Policy ID: %s", f.Patient.PolicyID),
	}
}

// ConsistencyFindings is the result of cross-checking prescription, invoice and lab report
type ConsistencyFindings struct {
	MatchedItems   int    `json:"matchedItems" yaml:"matched_items"`
	FlaggedItems   int    `json:"flaggedItems" yaml:"flagged_items"`
	LabCorrelation string `json:"labCorrelation" yaml:"lab_correlation"`
}

func (f ConsistencyFindings) Summary() []string {
	return []string{
		fmt.Sprintf("%d items matched with prescription", f.MatchedItems),
		fmt.Sprintf("%d item%s flagged for review", f.FlaggedItems, plural(f.FlaggedItems)),
	}
}

// PolicyFindings is the result of applying coverage rules
type PolicyFindings struct {
	RoomRentStatus  string `json:"roomRentStatus" yaml:"room_rent_status"`
	MedicineCap     bool   `json:"medicineCap" yaml:"medicine_cap"`
	PartialCoverage int    `json:"partialCoverage" yaml:"partial_coverage"`
}

func (f PolicyFindings) Summary() []string {
	medicineCap := "Not applicable"
	if f.MedicineCap {
		medicineCap = "Applicable"
	}
	return []string{
		"Room rent: " + f.RoomRentStatus,
		"Medicine cap: " + medicineCap,
		fmt.Sprintf("%d item%s partially covered", f.PartialCoverage, plural(f.PartialCoverage)),
	}
}

// DraftFindings is the draft decision handed to the reviewer
type DraftFindings struct {
	TotalClaimed      int64 `json:"totalClaimed" yaml:"total_claimed"`
	SuggestedApproval int64 `json:"suggestedApproval" yaml:"suggested_approval"`
	ItemsApproved     int   `json:"itemsApproved" yaml:"items_approved"`
	ItemsPartial      int   `json:"itemsPartial" yaml:"items_partial"`
	ItemsRejected     int   `json:"itemsRejected" yaml:"items_rejected"`
	ItemsAttention    int   `json:"itemsAttention" yaml:"items_attention"`

	Result ExtractionResult `json:"result" yaml:"result"`
}

func (f DraftFindings) Summary() []string {
	return []string{
		"Draft ready for review",
		fmt.Sprintf("Suggested approval: ₹%s of ₹%s",
			humanize.Comma(f.SuggestedApproval), humanize.Comma(f.TotalClaimed)),
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
