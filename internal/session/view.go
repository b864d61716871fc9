package session

import "github.com/ppiankov/claimadjudicate/internal/model"

// Zoom bounds for the document viewer, in percent
const (
	MinZoom     = 50
	MaxZoom     = 200
	ZoomStep    = 25
	DefaultZoom = 100
)

// ViewState is review-screen presentation state. It never touches the claim.
type ViewState struct {
	ActiveDocument model.DocumentType `json:"activeDocument"`
	Zoom           int                `json:"zoom"`
	DrawerOpen     bool               `json:"drawerOpen"`
	ReasonItem     int                `json:"reasonItem,omitempty"` // item whose rationale dialog is open, 0 for none
	SubmitDialog   bool               `json:"submitDialog"`
}

// DefaultViewState opens the invoice at 100%
func DefaultViewState() ViewState {
	return ViewState{ActiveDocument: model.DocInvoice, Zoom: DefaultZoom}
}

// SetZoom snaps z onto the zoom grid within bounds
func (v *ViewState) SetZoom(z int) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	v.Zoom = MinZoom + (z-MinZoom)/ZoomStep*ZoomStep
}

// ZoomIn and ZoomOut move one step and stop at the bounds
func (v *ViewState) ZoomIn()  { v.SetZoom(v.Zoom + ZoomStep) }
func (v *ViewState) ZoomOut() { v.SetZoom(v.Zoom - ZoomStep) }
