package bsky

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSessionExpired means both the access and refresh tokens are no
	// longer accepted by the network; the caller must log in again.
	ErrSessionExpired = errors.New("session expired, log in again")
	// ErrNoSession means an operation needing authentication ran on a
	// session that was never created or resumed.
	ErrNoSession = errors.New("no active session")
)

// SessionData is the persistable state of an authenticated session:
// short-lived access token plus long-lived refresh token.
type SessionData struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// SessionEvent describes a session lifecycle transition reported to the
// persist hook.
type SessionEvent string

const (
	SessionCreated SessionEvent = "create"
	SessionUpdated SessionEvent = "update"
	SessionExpired SessionEvent = "expired"
)

// PersistFunc receives lifecycle events so the caller can store or clear
// the session outside this package. data is nil on SessionExpired.
type PersistFunc func(event SessionEvent, data *SessionData)

// Session holds one authenticated identity on the network. The relay
// process owns one for its service identity; each recipient's client owns
// its own. They are never shared.
type Session struct {
	client  *Client
	persist PersistFunc

	// refreshMu is held across the whole refresh round-trip so two
	// requests hitting an expired token cannot both spend the refresh
	// token (the network rotates it on use).
	refreshMu sync.Mutex

	mu   sync.Mutex
	data SessionData
}

// NewSession builds an unauthenticated session on the given client.
// persist may be nil.
func NewSession(client *Client, persist PersistFunc) *Session {
	return &Session{client: client, persist: persist}
}

// DID returns the authenticated identity's DID, or "" before login.
func (s *Session) DID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DID
}

// Handle returns the authenticated identity's handle, or "" before login.
func (s *Session) Handle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Handle
}

// Data returns a copy of the current session state.
func (s *Session) Data() SessionData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Create exchanges an identifier and app password for a token pair.
func (s *Session) Create(ctx context.Context, identifier, password string) error {
	input := struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}{Identifier: identifier, Password: password}

	var out SessionData
	if err := s.client.Procedure(ctx, "com.atproto.server.createSession", "", input, &out); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = out
	s.mu.Unlock()
	s.notify(SessionCreated, &out)
	return nil
}

// Resume re-establishes the session from persisted tokens. If the access
// token has expired it is refreshed; if the refresh token is also expired
// the persisted state is cleared and ErrSessionExpired is returned.
func (s *Session) Resume(ctx context.Context, data SessionData) error {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	var out struct {
		DID    string `json:"did"`
		Handle string `json:"handle"`
	}
	err := s.client.Query(ctx, "com.atproto.server.getSession", nil, data.AccessJwt, &out)
	if err == nil {
		s.mu.Lock()
		s.data.DID = out.DID
		s.data.Handle = out.Handle
		s.mu.Unlock()
		return nil
	}
	if !isExpiredToken(err) {
		return err
	}
	return s.refresh(ctx, data.AccessJwt)
}

// WithAccess runs fn with the current access token, refreshing and
// retrying once if the network reports the token expired.
func (s *Session) WithAccess(ctx context.Context, fn func(accessJwt string) error) error {
	s.mu.Lock()
	access := s.data.AccessJwt
	s.mu.Unlock()
	if access == "" {
		return ErrNoSession
	}

	err := fn(access)
	if err == nil || !isExpiredToken(err) {
		return err
	}

	if err := s.refresh(ctx, access); err != nil {
		return err
	}
	s.mu.Lock()
	access = s.data.AccessJwt
	s.mu.Unlock()
	return fn(access)
}

// refresh exchanges the refresh token for a new pair. A caller that lost
// the race to a concurrent refresh (the access token changed while it
// waited) skips the network call and uses the fresh pair.
func (s *Session) refresh(ctx context.Context, staleAccess string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	if s.data.AccessJwt != staleAccess {
		s.mu.Unlock()
		return nil
	}
	refreshJwt := s.data.RefreshJwt
	s.mu.Unlock()

	if refreshJwt == "" {
		return ErrNoSession
	}

	var out SessionData
	err := s.client.Procedure(ctx, "com.atproto.server.refreshSession", refreshJwt, nil, &out)
	if err != nil {
		if isExpiredToken(err) {
			s.mu.Lock()
			s.data = SessionData{}
			s.mu.Unlock()
			s.notify(SessionExpired, nil)
			return ErrSessionExpired
		}
		return err
	}

	s.mu.Lock()
	s.data = out
	s.mu.Unlock()
	s.notify(SessionUpdated, &out)
	return nil
}

func (s *Session) notify(event SessionEvent, data *SessionData) {
	if s.persist != nil {
		s.persist(event, data)
	}
}

func isExpiredToken(err error) bool {
	return IsErrorCode(err, "ExpiredToken") || IsErrorCode(err, "InvalidToken")
}
