// Package auth implements the credential engine: opaque token minting and
// hashing, argon2id password hashing, and the database-backed session and
// password checks. Validation is boolean by contract; malformed input,
// absent rows and revoked or expired sessions all collapse to false.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// TokenEntropy is the number of random bytes behind every session token and
// API key.
const TokenEntropy = 32

// TokenPair carries the two forms of a freshly minted credential.
type TokenPair struct {
	Token string // plaintext, returned to the client exactly once
	Hash  string // stored and indexed form
}

// MintToken generates a new opaque credential. The plaintext is the URL-safe
// unpadded base64 of 32 random bytes; the hash is the URL-safe unpadded
// base64 of the SHA-256 of those same raw bytes. Only the hash is ever
// persisted.
func MintToken() (*TokenPair, error) {
	raw := make([]byte, TokenEntropy)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token entropy: %w", err)
	}

	sum := sha256.Sum256(raw)

	return &TokenPair{
		Token: base64.RawURLEncoding.EncodeToString(raw),
		Hash:  base64.RawURLEncoding.EncodeToString(sum[:]),
	}, nil
}

// HashToken recomputes the stored hash form of a transport-form token. It
// returns false for anything that does not decode to exactly 32 bytes.
func HashToken(tokenB64 string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(tokenB64)
	if err != nil || len(raw) != TokenEntropy {
		return "", false
	}

	sum := sha256.Sum256(raw)
	return base64.RawURLEncoding.EncodeToString(sum[:]), true
}
