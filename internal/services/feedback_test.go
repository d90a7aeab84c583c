package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFeedback(t *testing.T) {
	correct := BuildFeedback(&Verdict{IsCorrect: true, Score: 1, MaxScore: 1}, 3)
	assert.Contains(t, correct.Message, "Correct")
	assert.Empty(t, correct.Hints)

	rushed := BuildFeedback(&Verdict{MaxScore: 1}, 4)
	assert.Contains(t, rushed.Message, "Incorrect")
	assert.Len(t, rushed.Hints, 1)
	assert.Contains(t, rushed.Hints[0], "read the question carefully")

	slow := BuildFeedback(&Verdict{MaxScore: 1}, 300)
	assert.Contains(t, slow.Hints[0], "work more efficiently")

	steady := BuildFeedback(&Verdict{MaxScore: 1}, 45)
	assert.Empty(t, steady.Hints)
}
