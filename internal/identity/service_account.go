// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/pkg/slice"
)

// AccountService implements the self-service read and the admin CRUD surface
// (C6 in the design). Every hierarchy guard runs before its corresponding
// store mutation.
type AccountService struct {
	store Store
	algo  sec.HashAlgo
}

// NewAccountService wires the account service's collaborators.
func NewAccountService(store Store, algo sec.HashAlgo) *AccountService {
	return &AccountService{store: store, algo: algo}
}

// GetSelf returns the authenticated caller's own projection.
func (s *AccountService) GetSelf(ctx context.Context, id int) (AccountView, error) {
	account, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	return account.ToView(), nil
}

// CreateUserInput carries an admin-initiated account creation, including the
// caller-supplied role and an initial status of active.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Phone     string
	Role      sec.Role
}

// CreateUser creates an account with the given role and status=active,
// subject to [ValidateRoleCreation].
func (s *AccountService) CreateUser(ctx context.Context, input CreateUserInput, caller sec.AuthClaims) (AccountView, error) {
	if err := ValidateRoleCreation(input.Role, caller); err != nil {
		return AccountView{}, err
	}

	salt, err := sec.NewSalt()
	if err != nil {
		return AccountView{}, apperr.Internal(err)
	}
	digest, algo, err := sec.HashPassword(input.Password, salt, s.algo)
	if err != nil {
		return AccountView{}, apperr.Internal(err)
	}

	id, err := s.store.CreateAccountWithCredential(ctx, NewAccountInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role,
		Status:    StatusActive,
	}, salt, digest, algo)
	if err != nil {
		return AccountView{}, err
	}

	account, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	return account.ToView(), nil
}

// ListUsers returns an offset-paginated page of accounts matching filter.
func (s *AccountService) ListUsers(ctx context.Context, filter AccountFilter, page, limit int) ([]AccountView, int, error) {
	accounts, total, err := s.store.ListAccounts(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toViews(accounts), total, nil
}

// SearchUsers performs a case-insensitive substring search restricted to the
// allowed field set; unknown field names are silently dropped.
func (s *AccountService) SearchUsers(ctx context.Context, query string, fields []string, page, limit int) ([]AccountView, int, error) {
	allowed := slice.Filter(fields, func(f string) bool { return AllowedSearchFields[f] })
	accounts, total, err := s.store.SearchAccounts(ctx, query, allowed, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toViews(accounts), total, nil
}

// GetUser returns a single account's projection by id.
func (s *AccountService) GetUser(ctx context.Context, id int) (AccountView, error) {
	account, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	return account.ToView(), nil
}

// UpdateUser applies a dynamic partial update after the hierarchy guard.
func (s *AccountService) UpdateUser(ctx context.Context, id int, patch AccountPatch, caller sec.AuthClaims) (AccountView, error) {
	if patch.IsEmpty() {
		return AccountView{}, apperr.MissingFields("At least one field must be provided")
	}

	target, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	if err := CheckRoleHierarchy(id, target, caller); err != nil {
		return AccountView{}, err
	}

	if err := s.store.UpdateAccountFields(ctx, id, patch); err != nil {
		return AccountView{}, err
	}

	updated, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	return updated.ToView(), nil
}

// ResetUserPassword installs a new password for id without requiring the
// target's current password, after the hierarchy guard.
func (s *AccountService) ResetUserPassword(ctx context.Context, id int, newPassword string, caller sec.AuthClaims) error {
	target, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err := CheckRoleHierarchy(id, target, caller); err != nil {
		return err
	}

	salt, err := sec.NewSalt()
	if err != nil {
		return apperr.Internal(err)
	}
	digest, algo, err := sec.HashPassword(newPassword, salt, s.algo)
	if err != nil {
		return apperr.Internal(err)
	}

	return s.store.SetCredential(ctx, id, salt, digest, algo)
}

// DeleteUser soft-deletes the account after the hierarchy guard.
func (s *AccountService) DeleteUser(ctx context.Context, id int, caller sec.AuthClaims) error {
	target, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err := CheckRoleHierarchy(id, target, caller); err != nil {
		return err
	}
	return s.store.SoftDelete(ctx, id)
}

// ChangeUserRole updates the target's role after the strictest hierarchy
// guard in the domain.
func (s *AccountService) ChangeUserRole(ctx context.Context, id int, newRole sec.Role, caller sec.AuthClaims) (AccountView, error) {
	target, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	if err := CheckRoleChangeHierarchy(id, target, newRole, caller); err != nil {
		return AccountView{}, err
	}

	if err := s.store.UpdateRole(ctx, id, newRole); err != nil {
		return AccountView{}, err
	}

	updated, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	return updated.ToView(), nil
}

// DashboardStats returns the aggregate figures behind the admin dashboard.
func (s *AccountService) DashboardStats(ctx context.Context) (DashboardStats, error) {
	return s.store.DashboardCounts(ctx)
}

func toViews(accounts []Account) []AccountView {
	return slice.Map(accounts, Account.ToView)
}
