package auth

import (
	"context"
	"crypto"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// KeyResolver turns a DID into its signing key. Satisfied by
// *bsky.Directory.
type KeyResolver interface {
	ResolveSigningKey(ctx context.Context, did string) (crypto.PublicKey, error)
}

// VerifyingAuthenticator checks the token signature against the subject
// identity's resolved signing key. It implements the same Authenticator
// interface as DecodeAuthenticator, so the wired route can be upgraded to
// full verification by swapping the value passed to the server.
type VerifyingAuthenticator struct {
	// ServiceDID, when set, must match the token's audience.
	ServiceDID string
	Keys       KeyResolver
}

// Authenticate verifies the bearer token and returns its subject DID.
func (a *VerifyingAuthenticator) Authenticate(r *http.Request) (Identity, bool) {
	tokenString := BearerToken(r)
	if tokenString == "" {
		return Identity{}, false
	}

	ctx := r.Context()
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"ES256"})}
	if a.ServiceDID != "" {
		opts = append(opts, jwt.WithAudience(a.ServiceDID))
	}

	token, err := jwt.NewParser(opts...).Parse(tokenString, func(t *jwt.Token) (any, error) {
		sub, err := t.Claims.GetSubject()
		if err != nil || sub == "" {
			return nil, errors.New("token has no subject")
		}
		return a.Keys.ResolveSigningKey(ctx, sub)
	})
	if err != nil || !token.Valid {
		return Identity{}, false
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, false
	}

	return Identity{DID: sub, Verified: true}, true
}

var _ Authenticator = (*VerifyingAuthenticator)(nil)
