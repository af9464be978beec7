// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// CheckRoleHierarchy guards a modify/delete action against target, used by
// update_user, reset_user_password and delete_user. Self-targeting and
// equal-or-higher targets are both forbidden.
func CheckRoleHierarchy(targetID int, target Account, caller sec.AuthClaims) error {
	if targetID == caller.ID {
		return apperr.Forbidden("You cannot perform this action on your own account")
	}
	if !sec.Role(caller.Role).Dominates(target.Role) {
		return apperr.Forbidden("Insufficient role to modify this account")
	}
	return nil
}

// ValidateRoleCreation guards create_user: the requested role must be a
// valid role and no higher than the caller's own (equal is allowed).
func ValidateRoleCreation(newRole sec.Role, caller sec.AuthClaims) error {
	if !newRole.Valid() {
		return apperr.ValidationError("Role must be between 1 and 5")
	}
	if int(newRole) > caller.Role {
		return apperr.Forbidden("Cannot create a user with a role higher than your own")
	}
	return nil
}

// CheckRoleChangeHierarchy guards change_user_role, the strictest of the
// three guards: it combines self-protection, a ceiling on the requested
// role, a strict floor on the target's current role, and an Admin-specific
// cap preventing Admins from minting SuperAdmin or Owner accounts.
func CheckRoleChangeHierarchy(targetID int, target Account, newRole sec.Role, caller sec.AuthClaims) error {
	if targetID == caller.ID {
		return apperr.ValidationError("You cannot change your own role")
	}
	if !newRole.Valid() {
		return apperr.ValidationError("Role must be between 1 and 5")
	}
	if int(newRole) > caller.Role {
		return apperr.Forbidden("Cannot assign a role higher than your own")
	}
	if int(target.Role) >= caller.Role {
		return apperr.Forbidden("Insufficient role to modify this account")
	}
	if sec.Role(caller.Role) == sec.RoleAdmin && newRole > sec.RoleAdmin {
		return apperr.Forbidden("Admins cannot grant SuperAdmin or Owner roles")
	}
	return nil
}
