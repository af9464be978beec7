// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity implements account registration, authentication, email/phone
verification, and administrative user management.

It is organized as Store (persistence) → Service (business rules) → HTTP
(boundary adapter), mirroring the layering the rest of the platform uses for
its domain packages.
*/
package identity

import (
	"time"

	"github.com/taibuivan/aegis/internal/platform/sec"
)

// Account is the durable identity record. It never carries credential
// material — that lives in [Credential], loaded only where a login or
// password change actually needs it.
type Account struct {
	ID            int
	FirstName     string
	LastName      string
	Username      string
	Email         string
	Phone         string
	EmailVerified bool
	PhoneVerified bool
	Role          sec.Role
	Status        AccountStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AccountStatus is the closed set of lifecycle states an account can be in.
type AccountStatus string

const (
	StatusPending   AccountStatus = "pending"
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusLocked    AccountStatus = "locked"
	StatusDeleted   AccountStatus = "deleted"
)

// Credential holds the password material for exactly one account.
type Credential struct {
	AccountID int
	Salt      string
	Digest    string
	Algo      sec.HashAlgo
	UpdatedAt time.Time
}

// EmailVerification is the single outstanding opaque-token row for an
// account's pending email confirmation.
type EmailVerification struct {
	AccountID int
	Email     string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PhoneVerification is the single outstanding numeric-code row for an
// account's pending phone confirmation.
type PhoneVerification struct {
	AccountID int
	Phone     string
	Code      string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AccountPatch is a dynamic partial update restricted to the three admin
// mutable fields. Unset pointers are left untouched.
type AccountPatch struct {
	Status        *AccountStatus
	EmailVerified *bool
	PhoneVerified *bool
}

// IsEmpty reports whether the patch carries no changes at all.
func (p AccountPatch) IsEmpty() bool {
	return p.Status == nil && p.EmailVerified == nil && p.PhoneVerified == nil
}

// AccountFilter narrows list_accounts by optional equality filters.
type AccountFilter struct {
	Status *AccountStatus
	Role   *sec.Role
}

// AccountView is the client-facing projection of an Account: never a hash,
// salt, verification code, or raw token.
type AccountView struct {
	ID            int       `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	EmailVerified bool      `json:"emailVerified"`
	PhoneVerified bool      `json:"phoneVerified"`
	Role          string    `json:"role"`
	Status        string    `json:"accountStatus"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToView projects an Account into its client-safe representation.
func (a Account) ToView() AccountView {
	return AccountView{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Username:      a.Username,
		Email:         a.Email,
		Phone:         a.Phone,
		EmailVerified: a.EmailVerified,
		PhoneVerified: a.PhoneVerified,
		Role:          a.Role.Label(),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// DashboardStats aggregates counts surfaced on the admin dashboard.
type DashboardStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	ByRole      map[string]int `json:"byRole"`
	NewLast24h  int            `json:"newLast24h"`
	NewLast7d   int            `json:"newLast7d"`
	NewLast30d  int            `json:"newLast30d"`
}
