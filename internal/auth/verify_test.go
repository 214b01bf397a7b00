package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type staticKeys struct {
	key crypto.PublicKey
	err error
}

func (k staticKeys) ResolveSigningKey(context.Context, string) (crypto.PublicKey, error) {
	return k.key, k.err
}

func signES256(t *testing.T, key *ecdsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyingAuthenticator(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	authn := &VerifyingAuthenticator{Keys: staticKeys{key: &key.PublicKey}}

	token := signES256(t, key, jwt.MapClaims{
		"sub": "did:plc:abc",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	identity, ok := authn.Authenticate(requestWithAuth("Bearer " + token))
	if !ok {
		t.Fatal("expected a verified identity")
	}
	if identity.DID != "did:plc:abc" {
		t.Errorf("expected did:plc:abc, got %q", identity.DID)
	}
	if !identity.Verified {
		t.Error("identity from signature verification must be marked verified")
	}
}

func TestVerifyingAuthenticatorRejects(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		keys  KeyResolver
		token string
	}{
		{
			name:  "wrong key",
			keys:  staticKeys{key: &otherKey.PublicKey},
			token: signES256(t, key, jwt.MapClaims{"sub": "did:plc:abc", "exp": future}),
		},
		{
			name:  "expired",
			keys:  staticKeys{key: &key.PublicKey},
			token: signES256(t, key, jwt.MapClaims{"sub": "did:plc:abc", "exp": time.Now().Add(-time.Hour).Unix()}),
		},
		{
			name:  "no subject",
			keys:  staticKeys{key: &key.PublicKey},
			token: signES256(t, key, jwt.MapClaims{"exp": future}),
		},
		{
			name:  "key resolution fails",
			keys:  staticKeys{err: errors.New("directory unreachable")},
			token: signES256(t, key, jwt.MapClaims{"sub": "did:plc:abc", "exp": future}),
		},
		{
			name:  "unverified HMAC alg",
			keys:  staticKeys{key: &key.PublicKey},
			token: mintToken(t, jwt.MapClaims{"sub": "did:plc:abc", "exp": future}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := &VerifyingAuthenticator{Keys: tt.keys}
			if _, ok := authn.Authenticate(requestWithAuth("Bearer " + tt.token)); ok {
				t.Error("expected rejection")
			}
		})
	}
}

func TestVerifyingAuthenticatorAudience(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	authn := &VerifyingAuthenticator{
		ServiceDID: "did:web:relay.example.com",
		Keys:       staticKeys{key: &key.PublicKey},
	}

	good := signES256(t, key, jwt.MapClaims{
		"sub": "did:plc:abc",
		"aud": "did:web:relay.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, ok := authn.Authenticate(requestWithAuth("Bearer " + good)); !ok {
		t.Error("expected matching audience to verify")
	}

	bad := signES256(t, key, jwt.MapClaims{
		"sub": "did:plc:abc",
		"aud": "did:web:other.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, ok := authn.Authenticate(requestWithAuth("Bearer " + bad)); ok {
		t.Error("expected mismatched audience to be rejected")
	}
}
