// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec provides cryptographic primitives and identity security services.

It encapsulates sensitive operations like password hashing, token signing, and
role hierarchy comparisons.

Core Components:

  - JWT: HMAC-SHA-256-signed tokens for stateless authentication, issued in
    three kinds (access, password_reset, *_verification).
  - Hash: Secure password derivation using Argon2id, with a SHA-256 parity
    mode selectable by configuration.
  - Role: Closed 5-level hierarchy used by the authorization core.

The package enforces a strict boundary between infrastructure-level security
and high-level business logic.
*/
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kind discriminators, carried in the "type" claim of non-access tokens.
const (
	tokenTypePasswordReset    = "password_reset"
	tokenTypeEmailVerifyKind  = "email_verification"
	tokenTypePhoneVerifyKind  = "phone_verification"
)

var (
	ErrTokenMissing   = errors.New("sec: token missing")
	ErrTokenInvalid   = errors.New("sec: token invalid")
	ErrTokenExpired   = errors.New("sec: token expired")
	ErrTokenWrongType = errors.New("sec: token wrong type")
)

// # Identity Claims

// AccessClaims is the payload of an `access` token.
type AccessClaims struct {
	jwt.RegisteredClaims
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  int    `json:"role"`
}

// ResetClaims is the payload of a `password_reset` token.
type ResetClaims struct {
	jwt.RegisteredClaims
	ID    int    `json:"id"`
	Email string `json:"email"`
	Type  string `json:"type"`
}

// VerificationClaims is the payload of a `*_verification` token. The token
// service implements and tests this kind for completeness; production email
// verification uses opaque database-stored tokens instead (see the identity
// verification service), so this kind is never minted on a live request path.
type VerificationClaims struct {
	jwt.RegisteredClaims
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// AuthClaims is the identity carried in request context once a bearer token
// has been verified. It is the trimmed-down, transport-agnostic projection of
// AccessClaims that the rest of the application depends on.
type AuthClaims struct {
	ID    int
	Email string
	Role  int
}

// IsAtLeast reports whether the caller's role meets or exceeds min.
func (c *AuthClaims) IsAtLeast(min Role) bool {
	return Role(c.Role).AtLeast(min)
}

// # Token Service (HMAC-SHA-256)

// TokenService mints and verifies all three token kinds using a single
// server-wide HMAC secret. There is deliberately no asymmetric key material:
// every component that can verify a token can also mint one, which is
// acceptable because minting only ever happens inside this service.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService constructs a [TokenService]. secret must be non-empty;
// callers are expected to fail application startup if it is missing, per the
// halt-on-missing-secret requirement.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: JWT secret must not be empty")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

// IssueAccess mints a 14-day `access` token. It never logs the claims it signs.
func (s *TokenService) IssueAccess(id int, email string, role int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ID:    id,
		Email: email,
		Role:  role,
	}
	return s.sign(claims)
}

// VerifyAccess validates an `access` token and returns its claims.
func (s *TokenService) VerifyAccess(tokenString string) (*AuthClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}

	return &AuthClaims{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}

// IssueReset mints a 15-minute `password_reset` token.
func (s *TokenService) IssueReset(id int, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ID:    id,
		Email: email,
		Type:  tokenTypePasswordReset,
	}
	return s.sign(claims)
}

// VerifyReset validates a `password_reset` token, rejecting any other kind
// (in particular, a valid access token must never satisfy this check).
func (s *TokenService) VerifyReset(tokenString string) (id int, email string, err error) {
	if tokenString == "" {
		return 0, "", ErrTokenMissing
	}

	claims := &ResetClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return 0, "", err
	}
	if claims.Type != tokenTypePasswordReset {
		return 0, "", ErrTokenWrongType
	}

	return claims.ID, claims.Email, nil
}

// IssueVerification mints a 24-hour `*_verification` token. Implemented for
// completeness per the token service contract; not used by the opaque-token
// email verification flow.
func (s *TokenService) IssueVerification(id int, kind string, ttl time.Duration) (string, error) {
	if kind != tokenTypeEmailVerifyKind && kind != tokenTypePhoneVerifyKind {
		return "", fmt.Errorf("sec: unknown verification kind %q", kind)
	}
	now := time.Now()
	claims := VerificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ID:   id,
		Type: kind,
	}
	return s.sign(claims)
}

// VerifyVerification validates a `*_verification` token.
func (s *TokenService) VerifyVerification(tokenString string) (id int, kind string, err error) {
	if tokenString == "" {
		return 0, "", ErrTokenMissing
	}

	claims := &VerificationClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return 0, "", err
	}

	return claims.ID, claims.Type, nil
}

// sign signs claims with HMAC-SHA-256 and the service secret.
func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signed, nil
}

// parse validates signature and expiry, rejecting any signing method other
// than HMAC. Expiration and signature are both enforced by jwt.ParseWithClaims.
func (s *TokenService) parse(tokenString string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	return nil
}
