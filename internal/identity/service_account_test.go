// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/identity"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

func seedAccount(t *testing.T, store *fakeStore, role sec.Role, status identity.AccountStatus) identity.Account {
	t.Helper()
	salt, err := sec.NewSalt()
	require.NoError(t, err)
	digest, algo, err := sec.HashPassword("irrelevant-password", salt, sec.AlgoArgon2id)
	require.NoError(t, err)

	id, err := store.CreateAccountWithCredential(context.Background(), identity.NewAccountInput{
		FirstName: "Test", LastName: "User", Username: "user" + string(status) + strconv.Itoa(store.nextID),
		Email: "user" + string(status) + strconv.Itoa(store.nextID) + "@aegis.test", Phone: "+1555000" + strconv.Itoa(store.nextID),
		Role: role, Status: status,
	}, salt, digest, algo)
	require.NoError(t, err)

	account, _, err := store.GetAccountByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func TestAccountService_CreateUser_RejectsHigherRole(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}

	_, err := svc.CreateUser(context.Background(), identity.CreateUserInput{
		FirstName: "New", LastName: "Owner", Username: "newowner", Email: "newowner@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550003333", Role: sec.RoleOwner,
	}, caller)

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestAccountService_CreateUser_Success(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleOwner)}

	view, err := svc.CreateUser(context.Background(), identity.CreateUserInput{
		FirstName: "New", LastName: "Admin", Username: "newadmin", Email: "newadmin@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550004444", Role: sec.RoleAdmin,
	}, caller)

	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin.Label(), view.Role)
	assert.Equal(t, string(identity.StatusActive), view.Status)
}

func TestAccountService_UpdateUser_RejectsEmptyPatch(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	target := seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	caller := sec.AuthClaims{ID: 999, Role: int(sec.RoleAdmin)}

	_, err := svc.UpdateUser(context.Background(), target.ID, identity.AccountPatch{}, caller)

	require.Error(t, err)
	assert.Equal(t, "MissingFields", apperr.Code(err))
}

func TestAccountService_DeleteUser_EnforcesHierarchy(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	target := seedAccount(t, store, sec.RoleAdmin, identity.StatusActive)
	caller := sec.AuthClaims{ID: 999, Role: int(sec.RoleModerator)}

	err := svc.DeleteUser(context.Background(), target.ID, caller)

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestAccountService_DeleteUser_SoftDeletes(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	target := seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	caller := sec.AuthClaims{ID: 999, Role: int(sec.RoleAdmin)}

	require.NoError(t, svc.DeleteUser(context.Background(), target.ID, caller))

	updated, err := svc.GetUser(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.StatusDeleted), updated.Status)
}

func TestAccountService_ChangeUserRole_AdminCannotPromoteToOwner(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	target := seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	caller := sec.AuthClaims{ID: 999, Role: int(sec.RoleAdmin)}

	_, err := svc.ChangeUserRole(context.Background(), target.ID, sec.RoleOwner, caller)

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestAccountService_ListUsers_FiltersByStatus(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	seedAccount(t, store, sec.RoleUser, identity.StatusSuspended)

	active := identity.StatusActive
	views, total, err := svc.ListUsers(context.Background(), identity.AccountFilter{Status: &active}, 1, 20)

	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, string(identity.StatusActive), views[0].Status)
}

func TestAccountService_SearchUsers_IgnoresDisallowedFields(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	seedAccount(t, store, sec.RoleUser, identity.StatusActive)

	_, total, err := svc.SearchUsers(context.Background(), "test", []string{"password", "salt"}, 1, 20)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestAccountService_DashboardStats_CountsByStatusAndRole(t *testing.T) {
	store := newFakeStore()
	svc := identity.NewAccountService(store, sec.AlgoArgon2id)
	seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	seedAccount(t, store, sec.RoleAdmin, identity.StatusSuspended)

	stats, err := svc.DashboardStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[string(identity.StatusActive)])
	assert.Equal(t, 1, stats.ByRole[sec.RoleAdmin.String()])
}
