// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/aegis/internal/identity"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

func TestCheckRoleHierarchy_RejectsSelfTarget(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}
	target := identity.Account{ID: 1, Role: sec.RoleUser}

	err := identity.CheckRoleHierarchy(1, target, caller)

	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestCheckRoleHierarchy_RejectsEqualOrHigherTarget(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}
	target := identity.Account{ID: 2, Role: sec.RoleAdmin}

	err := identity.CheckRoleHierarchy(2, target, caller)

	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestCheckRoleHierarchy_AllowsStrictlyLowerTarget(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}
	target := identity.Account{ID: 2, Role: sec.RoleUser}

	err := identity.CheckRoleHierarchy(2, target, caller)

	assert.NoError(t, err)
}

func TestValidateRoleCreation_RejectsInvalidRole(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleOwner)}

	err := identity.ValidateRoleCreation(sec.Role(99), caller)

	assert.Equal(t, "VALIDATION_ERROR", apperr.Code(err))
}

func TestValidateRoleCreation_RejectsHigherThanCaller(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}

	err := identity.ValidateRoleCreation(sec.RoleSuperAdmin, caller)

	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestValidateRoleCreation_AllowsEqualToCaller(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}

	err := identity.ValidateRoleCreation(sec.RoleAdmin, caller)

	assert.NoError(t, err)
}

func TestCheckRoleChangeHierarchy_RejectsSelfChange(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleOwner)}
	target := identity.Account{ID: 1, Role: sec.RoleUser}

	err := identity.CheckRoleChangeHierarchy(1, target, sec.RoleAdmin, caller)

	assert.Equal(t, "VALIDATION_ERROR", apperr.Code(err))
}

func TestCheckRoleChangeHierarchy_RejectsTargetAtOrAboveCaller(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}
	target := identity.Account{ID: 2, Role: sec.RoleAdmin}

	err := identity.CheckRoleChangeHierarchy(2, target, sec.RoleModerator, caller)

	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestCheckRoleChangeHierarchy_AdminCannotMintSuperAdmin(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleAdmin)}
	target := identity.Account{ID: 2, Role: sec.RoleUser}

	err := identity.CheckRoleChangeHierarchy(2, target, sec.RoleSuperAdmin, caller)

	assert.Equal(t, "FORBIDDEN", apperr.Code(err))
}

func TestCheckRoleChangeHierarchy_OwnerCanPromoteToSuperAdmin(t *testing.T) {
	caller := sec.AuthClaims{ID: 1, Role: int(sec.RoleOwner)}
	target := identity.Account{ID: 2, Role: sec.RoleUser}

	err := identity.CheckRoleChangeHierarchy(2, target, sec.RoleSuperAdmin, caller)

	assert.NoError(t, err)
}
