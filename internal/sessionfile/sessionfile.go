// Package sessionfile persists network session tokens across process
// restarts: plain 0600 JSON for the server's service identity, or a
// passphrase-sealed blob for the recipient CLI (the refresh token is a
// long-lived credential and should not sit on disk in the clear).
package sessionfile

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/skymail/skymail/internal/bsky"
)

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed file has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted session file")

const sealedFormatVersion = 1

// Save writes the session as plain JSON, readable only by the owner.
func Save(path string, data *bsky.SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Load reads a plain JSON session. A missing file returns os.ErrNotExist.
func Load(path string) (*bsky.SessionData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data bsky.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &data, nil
}

// Clear removes the persisted session. Removing an absent file succeeds.
func Clear(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// sealedBlob is the on-disk JSON structure for the sealed variant.
type sealedBlob struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	N       int    `json:"scrypt_n"`
	R       int    `json:"scrypt_r"`
	P       int    `json:"scrypt_p"`
	Sealed  []byte `json:"sealed"`
}

func scryptParams() (N, r, p int) { return 1 << 15, 8, 1 }

// SaveSealed seals the session with a key derived from passphrase and
// writes it to path.
func SaveSealed(path, passphrase string, data *bsky.SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	N, r, p := scryptParams()
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return err
	}

	// Zero nonce: the key is bound to a fresh random salt per write, so
	// nonce reuse cannot occur.
	nonce := make([]byte, chacha20poly1305.NonceSize)
	sealed := aead.Seal(nil, nonce, raw, salt)

	blob, err := json.Marshal(sealedBlob{
		Version: sealedFormatVersion,
		Salt:    salt,
		N:       N,
		R:       r,
		P:       p,
		Sealed:  sealed,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o600)
}

// LoadSealed opens a sealed session file with the passphrase.
func LoadSealed(path, passphrase string) (*bsky.SessionData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var blob sealedBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if blob.Version > sealedFormatVersion {
		return nil, fmt.Errorf("unsupported session file version %d", blob.Version)
	}

	key, err := scrypt.Key([]byte(passphrase), blob.Salt, blob.N, blob.R, blob.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	plain, err := aead.Open(nil, nonce, blob.Sealed, blob.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}

	var data bsky.SessionData
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("parse sealed session: %w", err)
	}
	return &data, nil
}
