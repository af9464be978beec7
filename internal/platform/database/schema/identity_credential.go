// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CredentialTable represents the 'identity.credentials' table. Each row is
// keyed 1:1 on account_id; a password change upserts in place rather than
// appending history.
type CredentialTable struct {
	Table     string
	AccountID string
	Salt      string
	Digest    string
	Algo      string
	UpdatedAt string
}

// Credential is the schema definition for identity.credentials.
var Credential = CredentialTable{
	Table:     "identity.credentials",
	AccountID: "account_id",
	Salt:      "salt",
	Digest:    "digest",
	Algo:      "algo",
	UpdatedAt: "updated_at",
}

// Columns returns all column names in declaration order.
func (t CredentialTable) Columns() []string {
	return []string{t.AccountID, t.Salt, t.Digest, t.Algo, t.UpdatedAt}
}
