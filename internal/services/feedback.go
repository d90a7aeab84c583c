package services

import "fmt"

const (
	fastResponseSeconds = 10
	slowResponseSeconds = 120
)

// Feedback is the learner-facing explanation attached to a verdict
type Feedback struct {
	Message string   `json:"message"`
	Hints   []string `json:"hints,omitempty"`
}

// BuildFeedback derives feedback from the verdict and how long the learner
// took to answer. Hints are only given for incorrect answers.
func BuildFeedback(verdict *Verdict, responseTimeSeconds float64) Feedback {
	if verdict.IsCorrect {
		return Feedback{Message: fmt.Sprintf("Correct! You earned %.4g of %.4g points.", verdict.Score, verdict.MaxScore)}
	}

	fb := Feedback{Message: "Incorrect. Review the related material and try similar questions."}
	switch {
	case responseTimeSeconds > 0 && responseTimeSeconds < fastResponseSeconds:
		fb.Hints = append(fb.Hints, "Consider taking more time to read the question carefully.")
	case responseTimeSeconds > slowResponseSeconds:
		fb.Hints = append(fb.Hints, "Practice similar problems to work more efficiently.")
	}
	return fb
}
