// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"time"

	"github.com/taibuivan/aegis/internal/platform/sec"
)

// NewAccountInput carries the fields needed to create an account alongside
// its initial credential, atomically.
type NewAccountInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Phone     string
	Role      sec.Role
	Status    AccountStatus
}

// PhoneVerifyOutcome reports the result of a phone code submission.
type PhoneVerifyOutcome int

const (
	PhoneVerifySuccess PhoneVerifyOutcome = iota
	PhoneVerifyWrongCode
	PhoneVerifyTooManyAttempts
	PhoneVerifyExpired
	PhoneVerifyAbsent
)

// Store is the persistence boundary for the identity domain. Every
// multi-statement mutation runs inside its own transaction; callers never see
// partial effects.
type Store interface {
	// CreateAccountWithCredential inserts an Account and its Credential in a
	// single transaction, returning the new account id. Fails with a
	// DuplicateUser-shaped error when username/email/phone collide.
	CreateAccountWithCredential(ctx context.Context, input NewAccountInput, salt, digest string, algo sec.HashAlgo) (int, error)

	// GetAccountByEmail returns the account and its credential, for login.
	GetAccountByEmail(ctx context.Context, email string) (Account, Credential, error)

	// GetAccountByID returns the account and its credential.
	GetAccountByID(ctx context.Context, id int) (Account, Credential, error)

	// UpdateAccountFields applies a dynamic partial update limited to the
	// fields carried by patch, bumping updated_at.
	UpdateAccountFields(ctx context.Context, id int, patch AccountPatch) error

	// UpdateRole sets the account's role and bumps updated_at.
	UpdateRole(ctx context.Context, id int, newRole sec.Role) error

	// SoftDelete marks the account deleted. Idempotent calls surface
	// ErrNotFound so the caller can return 404.
	SoftDelete(ctx context.Context, id int) error

	// SetCredential upserts the credential row for id and bumps the
	// account's updated_at in the same transaction.
	SetCredential(ctx context.Context, id int, salt, digest string, algo sec.HashAlgo) error

	// UpsertEmailVerification replaces any outstanding row for the account.
	UpsertEmailVerification(ctx context.Context, id int, email, token string, expiresAt time.Time) error

	// ConsumeEmailVerification locates a row by token, validates expiry,
	// marks the account verified, and deletes the row — all atomically.
	// Returns the account id.
	ConsumeEmailVerification(ctx context.Context, token string) (int, error)

	// UpsertPhoneVerification replaces any outstanding row, resetting attempts.
	UpsertPhoneVerification(ctx context.Context, id int, phone, code string, expiresAt time.Time) error

	// ConsumePhoneVerification evaluates the state machine in §4.5.4 against
	// the stored row for id, returning the outcome and the attempts made so
	// far (meaningful for PhoneVerifyWrongCode).
	ConsumePhoneVerification(ctx context.Context, id int, submittedCode string) (PhoneVerifyOutcome, int, error)

	// ListAccounts returns a page of accounts matching filter and the total
	// row count across all pages (not just this one).
	ListAccounts(ctx context.Context, filter AccountFilter, page, limit int) ([]Account, int, error)

	// SearchAccounts performs a case-insensitive substring search over the
	// named fields.
	SearchAccounts(ctx context.Context, query string, fields []string, page, limit int) ([]Account, int, error)

	// DashboardCounts returns the aggregate figures behind DashboardStats.
	DashboardCounts(ctx context.Context) (DashboardStats, error)
}
