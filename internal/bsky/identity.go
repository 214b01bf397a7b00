package bsky

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mr-tron/base58"
)

// DefaultPlcHost is the public PLC directory.
const DefaultPlcHost = "https://plc.directory"

var (
	// ErrHandleNotFound means the handle does not resolve to any DID.
	// Distinct from transient directory failures: the two have different
	// retry policies.
	ErrHandleNotFound = errors.New("handle not found")
	// ErrUnsupportedKey means the DID's signing key uses a curve this
	// package cannot verify against.
	ErrUnsupportedKey = errors.New("unsupported signing key type")
)

// Directory resolves identities: handle to DID through the network, and
// DID to signing-key material through the PLC directory.
type Directory struct {
	client  *Client
	plcHost string
	http    *http.Client
}

// NewDirectory builds a resolver over the given XRPC client and PLC host
// (DefaultPlcHost if empty).
func NewDirectory(client *Client, plcHost string) *Directory {
	if plcHost == "" {
		plcHost = DefaultPlcHost
	}
	return &Directory{
		client:  client,
		plcHost: plcHost,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ResolveHandle resolves a handle to its DID. An unknown handle returns
// ErrHandleNotFound; anything else is a transient failure.
func (d *Directory) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", ErrHandleNotFound
	}

	params := url.Values{"handle": []string{handle}}
	var out struct {
		DID string `json:"did"`
	}
	err := d.client.Query(ctx, "com.atproto.identity.resolveHandle", params, "", &out)
	if err != nil {
		var xe *Error
		if errors.As(err, &xe) && xe.StatusCode == http.StatusBadRequest {
			// The directory answers 400 ("Unable to resolve handle")
			// for handles that simply do not exist.
			return "", ErrHandleNotFound
		}
		return "", fmt.Errorf("resolve handle %q: %w", handle, err)
	}
	if out.DID == "" {
		return "", ErrHandleNotFound
	}
	return out.DID, nil
}

// didDocument is the subset of a PLC DID document we read.
type didDocument struct {
	ID                 string `json:"id"`
	VerificationMethod []struct {
		ID                 string `json:"id"`
		Type               string `json:"type"`
		PublicKeyMultibase string `json:"publicKeyMultibase"`
	} `json:"verificationMethod"`
}

// ResolveSigningKey fetches the DID document and returns the identity's
// atproto signing key. Only did:plc identities and P-256 keys are
// supported; secp256k1 material returns ErrUnsupportedKey.
func (d *Directory) ResolveSigningKey(ctx context.Context, did string) (crypto.PublicKey, error) {
	if !strings.HasPrefix(did, "did:plc:") {
		return nil, fmt.Errorf("resolve signing key: unsupported DID method in %q", did)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.plcHost+"/"+url.PathEscape(did), nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch DID document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch DID document: %s", resp.Status)
	}

	var doc didDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode DID document: %w", err)
	}

	for _, vm := range doc.VerificationMethod {
		if !strings.HasSuffix(vm.ID, "#atproto") || vm.PublicKeyMultibase == "" {
			continue
		}
		return parseMultibaseKey(vm.PublicKeyMultibase)
	}
	return nil, fmt.Errorf("no atproto verification method in DID document for %s", did)
}

// multicodec prefixes for compressed public keys.
var (
	prefixP256      = []byte{0x80, 0x24} // p256-pub, varint(0x1200)
	prefixSecp256k1 = []byte{0xe7, 0x01} // secp256k1-pub, varint(0xe7)
)

// parseMultibaseKey decodes a base58btc multibase key with a multicodec
// prefix into a public key usable for signature checks.
func parseMultibaseKey(mb string) (crypto.PublicKey, error) {
	if !strings.HasPrefix(mb, "z") {
		return nil, fmt.Errorf("unsupported multibase encoding in %q", mb)
	}
	raw, err := base58.Decode(mb[1:])
	if err != nil {
		return nil, fmt.Errorf("decode multibase key: %w", err)
	}

	switch {
	case len(raw) > 2 && raw[0] == prefixP256[0] && raw[1] == prefixP256[1]:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), raw[2:])
		if x == nil {
			return nil, errors.New("invalid compressed P-256 point")
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	case len(raw) > 2 && raw[0] == prefixSecp256k1[0] && raw[1] == prefixSecp256k1[1]:
		return nil, ErrUnsupportedKey
	default:
		return nil, ErrUnsupportedKey
	}
}
