package workflow

// Step is one screen of the guided review
type Step string

const (
	StepLanding    Step = "landing"
	StepUpload     Step = "upload"
	StepProcessing Step = "processing"
	StepReview     Step = "review"
	StepSuccess    Step = "success"
)

// Steps lists every step in workflow order
var Steps = []Step{StepLanding, StepUpload, StepProcessing, StepReview, StepSuccess}

// ParseStep maps a query value onto a step. Unknown values report false.
func ParseStep(s string) (Step, bool) {
	for _, step := range Steps {
		if string(step) == s {
			return step, true
		}
	}
	return "", false
}

// Ordinal returns the position of the step in the workflow (landing is 0)
func (s Step) Ordinal() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}
