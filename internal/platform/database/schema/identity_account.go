// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// AccountTable represents the 'identity.accounts' table.
type AccountTable struct {
	Table         string
	ID            string
	FirstName     string
	LastName      string
	Username      string
	Email         string
	Phone         string
	EmailVerified string
	PhoneVerified string
	Role          string
	Status        string
	CreatedAt     string
	UpdatedAt     string
}

// Account is the schema definition for identity.accounts.
var Account = AccountTable{
	Table:         "identity.accounts",
	ID:            "id",
	FirstName:     "first_name",
	LastName:      "last_name",
	Username:      "username",
	Email:         "email",
	Phone:         "phone",
	EmailVerified: "email_verified",
	PhoneVerified: "phone_verified",
	Role:          "role",
	Status:        "status",
	CreatedAt:     "created_at",
	UpdatedAt:     "updated_at",
}

// Columns returns all column names in declaration order.
func (t AccountTable) Columns() []string {
	return []string{
		t.ID, t.FirstName, t.LastName, t.Username, t.Email, t.Phone,
		t.EmailVerified, t.PhoneVerified, t.Role, t.Status, t.CreatedAt, t.UpdatedAt,
	}
}

// Account status values, stored as a Postgres enum.
const (
	AccountStatusPending   = "pending"
	AccountStatusActive    = "active"
	AccountStatusSuspended = "suspended"
	AccountStatusLocked    = "locked"
	AccountStatusDeleted   = "deleted"
)
