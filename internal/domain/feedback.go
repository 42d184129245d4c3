package domain

import "fmt"

// Feedback is the label a user gives a card after studying it.
type Feedback int

const (
	Fail Feedback = iota + 1
	Hard
	Good
	Easy
)

var feedbackNames = [...]string{Fail: "fail", Hard: "hard", Good: "good", Easy: "easy"}

// ParseFeedback maps a wire token to a Feedback. Unknown tokens report false;
// callers treat them as a no-op rather than an error.
func ParseFeedback(s string) (Feedback, bool) {
	for f := Fail; f <= Easy; f++ {
		if feedbackNames[f] == s {
			return f, true
		}
	}
	return 0, false
}

// IsValid reports whether f is one of the four labels.
func (f Feedback) IsValid() bool {
	return f >= Fail && f <= Easy
}

func (f Feedback) String() string {
	if f.IsValid() {
		return feedbackNames[f]
	}
	return fmt.Sprintf("Feedback(%d)", int(f))
}
