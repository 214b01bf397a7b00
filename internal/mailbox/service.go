// Package mailbox implements the relay service: the operations a caller
// can run against their mailbox, authorized by their DID.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skymail/skymail/internal/bsky"
	"github.com/skymail/skymail/internal/store"
)

// Resolver turns a handle into a DID. Satisfied by *bsky.Directory.
type Resolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// Service orchestrates the mailbox operations over the store and the
// identity resolver. It holds no cross-request state; every operation is
// a single request/response transaction.
type Service struct {
	store    store.MessageStore
	resolver Resolver
	log      *zerolog.Logger
	now      func() time.Time
}

// NewService builds the relay service.
func NewService(st store.MessageStore, resolver Resolver, logger *zerolog.Logger) *Service {
	return &Service{
		store:    st,
		resolver: resolver,
		log:      logger,
		now:      time.Now,
	}
}

// ListInbox returns the caller's messages, newest first. Messages are
// scoped by the authenticated DID; no other recipient's mail is reachable
// through this path.
func (s *Service) ListInbox(ctx context.Context, callerDID string) ([]*store.Message, error) {
	messages, err := s.store.ListByRecipient(ctx, callerDID)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	return messages, nil
}

// Submit files an anonymous message against the recipient identified by
// handle. The handle is resolved to a DID first: messages are addressed
// by DID so later handle changes cannot orphan them.
func (s *Service) Submit(ctx context.Context, handle, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyMessage
	}

	recipientDID, err := s.resolver.ResolveHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, bsky.ErrHandleNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("resolve recipient: %w", err)
	}

	now := s.now().UTC()
	msg := &store.Message{
		ID:              newMessageID(now, recipientDID),
		RecipientDID:    recipientDID,
		RecipientHandle: strings.TrimPrefix(strings.TrimSpace(handle), "@"),
		Body:            body,
		ArrivedAt:       now,
	}

	if err := s.store.Insert(ctx, msg); err != nil {
		return fmt.Errorf("store message: %w", err)
	}

	s.log.Info().Str("recipient", recipientDID).Str("id", msg.ID).Msg("message filed")
	return nil
}

// Delete removes one of the caller's messages. Deleting an id that no
// longer exists is a success; deleting another recipient's message is
// ErrNotOwner.
func (s *Service) Delete(ctx context.Context, callerDID, id string) error {
	err := s.store.DeleteByID(ctx, id, callerDID)
	if err != nil {
		if errors.Is(err, store.ErrNotOwner) {
			return ErrNotOwner
		}
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
