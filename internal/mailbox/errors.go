package mailbox

import "errors"

var (
	// ErrUserNotFound means the recipient handle does not resolve to a DID.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmptyMessage means the submitted body is empty or whitespace.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotOwner means the caller tried to delete a message filed
	// against a different recipient.
	ErrNotOwner = errors.New("not the message owner")
)
