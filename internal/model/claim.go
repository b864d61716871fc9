package model

// Patient identifies the insured person on a claim
type Patient struct {
	Name     string `json:"name" yaml:"name"`
	Age      int    `json:"age" yaml:"age"`
	PolicyID string `json:"policyId" yaml:"policy_id"`
}

// ItemStatus classifies a claim line during review
type ItemStatus string

const (
	StatusApproved  ItemStatus = "approved"  // approved == claimed
	StatusPartial   ItemStatus = "partial"   // 0 < approved < claimed
	StatusRejected  ItemStatus = "rejected"  // approved == 0
	StatusAttention ItemStatus = "attention" // flagged upstream, cleared by the first edit
)

// Label returns the short human label used by the review screen and exports
func (s ItemStatus) Label() string {
	switch s {
	case StatusApproved:
		return "Approved"
	case StatusPartial:
		return "Partial"
	case StatusRejected:
		return "Rejected"
	case StatusAttention:
		return "Review"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the known statuses
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusApproved, StatusPartial, StatusRejected, StatusAttention:
		return true
	}
	return false
}

// ClaimItem is a single billable line on a claim
type ClaimItem struct {
	ID             int        `json:"id" yaml:"id"`
	Description    string     `json:"description" yaml:"description"`
	Category       string     `json:"category" yaml:"category"`
	ClaimedAmount  int64      `json:"claimedAmount" yaml:"claimed"`
	ApprovedAmount int64      `json:"approvedAmount" yaml:"approved"`
	Reason         string     `json:"reason" yaml:"reason"`
	Status         ItemStatus `json:"status" yaml:"status"`
	Confirmed      bool       `json:"confirmed" yaml:"confirmed"`
}

// ExtractionResult is the fixed-shape output of the processing pipeline
type ExtractionResult struct {
	Patient           Patient     `json:"patient" yaml:"patient"`
	TotalClaimed      int64       `json:"totalClaimed" yaml:"total_claimed"`
	SuggestedApproval int64       `json:"suggestedApproval" yaml:"suggested_approval"`
	Items             []ClaimItem `json:"items" yaml:"items"`
}

// Claim accumulates everything known about the claim in the current session
type Claim struct {
	Documents         []Document  `json:"documents,omitempty"`
	Patient           *Patient    `json:"patient,omitempty"`
	TotalClaimed      int64       `json:"totalClaimed"`
	SuggestedApproval int64       `json:"suggestedApproval"`
	Items             []ClaimItem `json:"items,omitempty"`
}

// HasReviewData reports whether the claim carries what the review step needs
func (c *Claim) HasReviewData() bool {
	return c != nil && c.Patient != nil && len(c.Items) > 0
}

// CloneItems returns a copy of items that shares no backing array
func CloneItems(items []ClaimItem) []ClaimItem {
	if items == nil {
		return nil
	}
	out := make([]ClaimItem, len(items))
	copy(out, items)
	return out
}
