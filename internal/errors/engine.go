package errors

import (
	stderrors "errors"
	"fmt"
)

// NotFoundError reports an unknown topic scope, session, item or learner.
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       fmt.Sprint(id),
	}
}

// MalformedResponseError reports a submitted response whose shape does not
// match the item's answer key. The caller must re-prompt; it is never retried.
type MalformedResponseError struct {
	ItemID   uint   `json:"item_id"`
	Expected string `json:"expected"`
	Reason   string `json:"reason"`
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response for item %d (expected %s): %s", e.ItemID, e.Expected, e.Reason)
}

func NewMalformedResponseError(itemID uint, expected, reason string) *MalformedResponseError {
	return &MalformedResponseError{
		ItemID:   itemID,
		Expected: expected,
		Reason:   reason,
	}
}

// InvalidStateError reports an operation attempted on a session whose state
// does not allow it.
type InvalidStateError struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Operation string `json:"operation"`
	Reason    string `json:"reason,omitempty"`
}

func (e *InvalidStateError) Error() string {
	msg := fmt.Sprintf("cannot %s session %s in state %s", e.Operation, e.SessionID, e.State)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func NewInvalidStateError(sessionID, state, operation, reason string) *InvalidStateError {
	return &InvalidStateError{
		SessionID: sessionID,
		State:     state,
		Operation: operation,
		Reason:    reason,
	}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

func IsMalformedResponse(err error) bool {
	var mr *MalformedResponseError
	return stderrors.As(err, &mr)
}

func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return stderrors.As(err, &is)
}
