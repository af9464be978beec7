// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and window durations.
  - Security: token TTLs and header names.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "aegis-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// DBCallTimeout bounds every store operation.
	DBCallTimeout = 10 * time.Second

	// DeliveryTimeout bounds every outbound mail/SMS attempt.
	DeliveryTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the per-IP rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute

	// EmailVerificationResendWindow bounds resend requests per account.
	EmailVerificationResendWindow = 5 * time.Minute

	// PhoneCodeSendWindow bounds SMS code sends per account.
	PhoneCodeSendWindow = 1 * time.Minute

	// PasswordResetRequestWindow bounds reset-request attempts per account/email.
	PasswordResetRequestWindow = 5 * time.Minute
)

// # Token Lifetimes

const (
	// AccessTokenTTL is the lifetime of a bearer access token.
	AccessTokenTTL = 14 * 24 * time.Hour

	// PasswordResetTokenTTL is the lifetime of a signed password-reset token.
	PasswordResetTokenTTL = 15 * time.Minute

	// VerificationTokenTTL is the lifetime of a signed verification token (unused by the
	// opaque-token email flow, but implemented by the token service for completeness).
	VerificationTokenTTL = 24 * time.Hour

	// EmailVerificationRowTTL is how long an opaque email-verification token remains valid.
	EmailVerificationRowTTL = 48 * time.Hour

	// PhoneVerificationRowTTL is how long a 6-digit phone code remains valid.
	PhoneVerificationRowTTL = 15 * time.Minute

	// MaxPhoneVerificationAttempts is the number of incorrect submissions allowed before lockout.
	MaxPhoneVerificationAttempts = 3
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "aegis.app"

	// ContextKeyUser is the key used to store user claims in the request context.
	ContextKeyUser = "user_claims"
)

// # HTTP Headers

const (
	HeaderXRequestID      = "X-Request-ID"
	HeaderOrigin          = "Origin"
	HeaderXRealIP         = "X-Real-IP"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderAuthorization   = "Authorization"
	HeaderLegacyAccessTok = "x-access-token"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaIdentity = "identity"
)

// # Redis Key Prefixes (rate-limit counters)

const (
	RedisPrefixEmailResend  = "ratelimit:email_verify:"
	RedisPrefixPhoneSend    = "ratelimit:phone_send:"
	RedisPrefixResetRequest = "ratelimit:password_reset:"
)
