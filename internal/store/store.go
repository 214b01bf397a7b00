package store

import (
	"context"
	"errors"
	"time"
)

// TimeLayout is the canonical indexedAt format: UTC, second precision.
// Messages are stored and served with this exact rendering, and it sorts
// lexicographically, so the database can order on the raw column.
const TimeLayout = "2006-01-02 15:04:05"

var (
	// ErrNotOwner is returned when a delete targets a message that exists
	// but belongs to a different recipient.
	ErrNotOwner = errors.New("message belongs to another recipient")
)

// Message is one unit of anonymous mail, filed against the recipient's DID.
// Messages are immutable after insert; deletion by id is the only mutation.
type Message struct {
	ID              string
	RecipientDID    string
	RecipientHandle string
	Body            string
	ArrivedAt       time.Time
}

// MessageStore handles mailbox persistence. Every call hits durable
// storage; there is no in-memory cache in front of it.
type MessageStore interface {
	// ListByRecipient returns the recipient's messages, newest first.
	// No messages is an empty slice, not an error.
	ListByRecipient(ctx context.Context, recipientDID string) ([]*Message, error)

	// Insert persists a message. The id must be unique.
	Insert(ctx context.Context, msg *Message) error

	// DeleteByID removes a message owned by recipientDID. Deleting an id
	// that does not exist is a no-op success; deleting an id owned by a
	// different recipient returns ErrNotOwner.
	DeleteByID(ctx context.Context, id, recipientDID string) error
}

// Store aggregates storage interfaces plus connection lifecycle.
type Store interface {
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
