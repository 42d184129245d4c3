package revision

import "github.com/conorfennell/flashdeck/internal/domain"

// ApplyFeedback returns the weight a card should have after the given
// feedback. Failing a card quadruples it and an easy answer quarters it, so
// failed cards resurface quickly. Labels outside the four known ones leave the
// weight as it is. The result is always within [MinWeight, MaxWeight].
func ApplyFeedback(weight int, fb domain.Feedback) int {
	switch fb {
	case domain.Fail:
		weight *= 4
	case domain.Hard:
		weight *= 2
	case domain.Good:
		weight /= 2
	case domain.Easy:
		weight /= 4
	}
	return ClampWeight(weight)
}

// ClampWeight forces w into [MinWeight, MaxWeight].
func ClampWeight(w int) int {
	return max(domain.MinWeight, min(w, domain.MaxWeight))
}
