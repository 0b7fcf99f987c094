package chat

import "errors"

var (
	// ErrEmptyContent rejects a message with no text before anything is stored.
	ErrEmptyContent = errors.New("message content is required")

	// ErrNoActiveConversation is returned when an operation needs an active conversation and the user has none.
	ErrNoActiveConversation = errors.New("no active conversation")

	// ErrMessageNotFound is returned by MarkRead when no message of the user has the given id.
	ErrMessageNotFound = errors.New("message not found")

	// ErrPersistence wraps any store failure. The user's turn is not acknowledged.
	ErrPersistence = errors.New("persistence failed")
)
