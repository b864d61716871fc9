package reconcile

import "github.com/ppiankov/claimadjudicate/internal/model"

// Classify derives an item status from its amounts alone. An item with
// nothing claimed counts as approved.
func Classify(approved, claimed int64) model.ItemStatus {
	switch {
	case approved == claimed:
		return model.StatusApproved
	case approved == 0:
		return model.StatusRejected
	default:
		return model.StatusPartial
	}
}

// Clamp bounds amount to [0, claimed]
func Clamp(amount, claimed int64) int64 {
	if claimed < 0 {
		claimed = 0
	}
	if amount < 0 {
		return 0
	}
	if amount > claimed {
		return claimed
	}
	return amount
}

// Counts tallies items by the amount-equality rule, ignoring stored status
type Counts struct {
	Approved int `json:"approved"`
	Partial  int `json:"partial"`
	Rejected int `json:"rejected"`
}

// CountItems classifies every item from its amounts
func CountItems(items []model.ClaimItem) Counts {
	var c Counts
	for _, item := range items {
		switch Classify(item.ApprovedAmount, item.ClaimedAmount) {
		case model.StatusApproved:
			c.Approved++
		case model.StatusRejected:
			c.Rejected++
		default:
			c.Partial++
		}
	}
	return c
}
