package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("session", "abc")

	assert.Equal(t, "session not found: abc", err.Error())
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestMalformedResponseError(t *testing.T) {
	err := NewMalformedResponseError(7, "numeric", "text submitted")

	assert.Equal(t, "malformed response for item 7 (expected numeric): text submitted", err.Error())
	assert.True(t, IsMalformedResponse(fmt.Errorf("grade: %w", err)))
	assert.False(t, IsInvalidState(err))
}

func TestInvalidStateError(t *testing.T) {
	err := NewInvalidStateError("s-1", "completed", "submit", "")
	assert.Equal(t, "cannot submit session s-1 in state completed", err.Error())

	withReason := NewInvalidStateError("s-1", "in_progress", "submit", "item 4 is not the presented item")
	assert.Equal(t, "cannot submit session s-1 in state in_progress: item 4 is not the presented item", withReason.Error())

	assert.True(t, IsInvalidState(withReason))
	assert.False(t, IsNotFound(withReason))
}
