package auth

import (
	"github.com/NickM101/project-management-app/internal/common"
	"github.com/NickM101/project-management-app/internal/server/models"
)

// Authorize evaluates a declared required-role set against the caller.
// It is a pure decision function, free of transport concerns:
//
//   - no declared roles: every caller passes, authenticated or not;
//   - declared roles and no identity: common.ErrForbidden;
//   - identity role outside the set: common.ErrForbidden.
//
// When a route group and an individual route both declare roles, the caller
// resolves the effective set with EffectiveRoles before invoking Authorize.
func Authorize(declared []models.Role, identity *Identity) error {
	if len(declared) == 0 {
		return nil
	}
	if identity == nil {
		return common.ErrForbidden
	}
	for _, r := range declared {
		if identity.Role == r {
			return nil
		}
	}
	return common.ErrForbidden
}

// EffectiveRoles merges a coarse (group) declaration with a fine (route)
// declaration. The route-level set overrides the group-level one when both
// are present.
func EffectiveRoles(group, route []models.Role) []models.Role {
	if len(route) > 0 {
		return route
	}
	return group
}
