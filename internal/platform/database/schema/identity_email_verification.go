// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// EmailVerificationTable represents the 'identity.email_verifications' table.
// At most one outstanding row exists per account; a resend overwrites it.
type EmailVerificationTable struct {
	Table     string
	AccountID string
	Email     string
	Token     string
	ExpiresAt string
	CreatedAt string
}

// EmailVerification is the schema definition for identity.email_verifications.
var EmailVerification = EmailVerificationTable{
	Table:     "identity.email_verifications",
	AccountID: "account_id",
	Email:     "email",
	Token:     "token",
	ExpiresAt: "expires_at",
	CreatedAt: "created_at",
}

// Columns returns all column names in declaration order.
func (t EmailVerificationTable) Columns() []string {
	return []string{t.AccountID, t.Email, t.Token, t.ExpiresAt, t.CreatedAt}
}
