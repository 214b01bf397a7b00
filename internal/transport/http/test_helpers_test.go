package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/skymail/skymail/internal/auth"
	"github.com/skymail/skymail/internal/bsky"
	"github.com/skymail/skymail/internal/config"
	"github.com/skymail/skymail/internal/mailbox"
	"github.com/skymail/skymail/internal/store/sqlite"
)

// testResolver resolves from a fixed handle→DID table.
type testResolver struct {
	handles map[string]string
}

func (r *testResolver) ResolveHandle(_ context.Context, handle string) (string, error) {
	did, ok := r.handles[strings.TrimPrefix(handle, "@")]
	if !ok {
		return "", bsky.ErrHandleNotFound
	}
	return did, nil
}

// newTestServer builds the full stack over an in-memory store: decode
// authenticator, relay service, gin routes.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	resolver := &testResolver{handles: map[string]string{
		"alice.bsky.social": "did:plc:alice",
		"bob.bsky.social":   "did:plc:bob",
	}}

	disabledLogger := zerolog.New(nil)
	svc := mailbox.NewService(st, resolver, &disabledLogger)

	cfg := config.Default()
	server := NewServer(svc, auth.DecodeAuthenticator{}, &cfg, &disabledLogger)
	return server.Handler
}

// mintToken builds a decodable access token for the given DID. The wired
// authenticator does not check signatures, so any signing key works.
func mintToken(t *testing.T, did string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   did,
		"scope": "com.atproto.access",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}
