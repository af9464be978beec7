// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// # Password Hashing Algorithms

// HashAlgo identifies which KDF produced a Credential's stored digest. It is
// persisted alongside the digest so a config-level default change never
// breaks verification of rows hashed under a previous algo.
type HashAlgo string

const (
	AlgoArgon2id HashAlgo = "argon2id"
	AlgoSHA256   HashAlgo = "sha256"
)

// argon2id tuning. These are deliberately modest so a single request's login
// path stays well under the DB call timeout even on constrained hardware.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32
)

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("sec: entropy source exhausted: %w", err)
	}
	return buf, nil
}

// NewSalt returns 16 random bytes rendered as 32 lowercase hex characters.
func NewSalt() (string, error) {
	raw, err := RandomBytes(16)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// HashPassword derives a digest for password under salt using algo. An empty
// algo selects the argon2id default.
func HashPassword(password, salt string, algo HashAlgo) (digest string, usedAlgo HashAlgo, err error) {
	if algo == "" {
		algo = AlgoArgon2id
	}
	switch algo {
	case AlgoArgon2id:
		sum := argon2.IDKey([]byte(password), []byte(salt), argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
		return hex.EncodeToString(sum), AlgoArgon2id, nil
	case AlgoSHA256:
		sum := sha256.Sum256([]byte(salt + password))
		return hex.EncodeToString(sum[:]), AlgoSHA256, nil
	default:
		return "", "", fmt.Errorf("sec: unknown password hash algo %q", algo)
	}
}

// VerifyHash recomputes the hash of candidate under salt using algo and
// compares it against storedDigest in constant time. Any mismatch, including
// a length mismatch, returns false without leaking timing information.
func VerifyHash(candidate, salt, storedDigest string, algo HashAlgo) bool {
	computed, _, err := HashPassword(candidate, salt, algo)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}

// DummyHash performs a throwaway hash computation so that a login attempt
// against a nonexistent account takes roughly the same time as one against a
// real account, denying an attacker a timing oracle for account enumeration.
func DummyHash(password string) {
	_, _, _ = HashPassword(password, "00000000000000000000000000000000", AlgoArgon2id)
}

// # Random Codes & Tokens

// NewNumericCode returns a zero-padded 6-digit numeric code drawn uniformly
// from crypto/rand, suitable for SMS delivery.
func NewNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("sec: entropy source exhausted: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewOpaqueToken returns 32 random bytes rendered as 64 lowercase hex
// characters, used for the email-verification and password-reset flows that
// store a server-side opaque token rather than a signed claim.
func NewOpaqueToken() (string, error) {
	raw, err := RandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
