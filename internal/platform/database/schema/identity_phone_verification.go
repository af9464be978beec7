// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// PhoneVerificationTable represents the 'identity.phone_verifications' table.
// At most one outstanding row exists per account; a resend resets attempts to 0.
type PhoneVerificationTable struct {
	Table     string
	AccountID string
	Phone     string
	Code      string
	Attempts  string
	ExpiresAt string
	CreatedAt string
}

// PhoneVerification is the schema definition for identity.phone_verifications.
var PhoneVerification = PhoneVerificationTable{
	Table:     "identity.phone_verifications",
	AccountID: "account_id",
	Phone:     "phone",
	Code:      "code",
	Attempts:  "attempts",
	ExpiresAt: "expires_at",
	CreatedAt: "created_at",
}

// Columns returns all column names in declaration order.
func (t PhoneVerificationTable) Columns() []string {
	return []string{t.AccountID, t.Phone, t.Code, t.Attempts, t.ExpiresAt, t.CreatedAt}
}
