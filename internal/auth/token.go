// Package auth extracts and checks caller identities from bearer tokens.
package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is a caller identity taken from a bearer token. Verified is
// false when the claims were only decoded, not checked against the
// identity's signing key — treat such an identity as a claim, not proof.
type Identity struct {
	DID      string
	Verified bool
}

// Authenticator extracts a caller identity from a request. The second
// return is false when no identity is present (missing or undecodable
// token); that is "unauthenticated", not an error.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, bool)
}

// BearerToken pulls the token out of the Authorization header, or ""
// if the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// DecodeAuthenticator reads the token's subject claim without verifying
// the signature. This mirrors the upstream service's behavior; the
// resulting Identity is explicitly unverified so stricter call sites
// cannot mistake it for a checked one.
type DecodeAuthenticator struct{}

// Authenticate decodes the bearer token and returns its subject DID.
func (DecodeAuthenticator) Authenticate(r *http.Request) (Identity, bool) {
	token := BearerToken(r)
	if token == "" {
		return Identity{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, false
	}

	return Identity{DID: sub, Verified: false}, true
}

var _ Authenticator = DecodeAuthenticator{}
