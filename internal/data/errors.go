package data

import "errors"

// Sentinel errors for store operations. Use errors.Is() to check for them.
var (
	// ErrNotFound indicates the requested user or conversation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail indicates registration with an email that is already taken.
	ErrDuplicateEmail = errors.New("user already exists")

	// ErrActiveConflict indicates another active conversation was created for the
	// same user concurrently (rejected by the partial unique index on user_id).
	ErrActiveConflict = errors.New("active conversation already exists")

	// ErrConversationClosed is returned when appending to an ended conversation.
	ErrConversationClosed = errors.New("conversation is closed")
)
