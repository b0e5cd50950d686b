// Package auth implements the access decision functions: stateless
// predicates over a principal's roles and permissions. Nothing here touches
// storage; the principal carries everything the checks need.
package auth

import "github.com/dkarlovs/shopcore/internal/model"

// HasRole reports whether the principal holds a role with the given name.
func HasRole(p model.Principal, roleName string) bool {
	for _, r := range p.Roles {
		if r.Name == roleName {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of the given
// roles. An empty list never matches.
func HasAnyRole(p model.Principal, roleNames ...string) bool {
	for _, name := range roleNames {
		if HasRole(p, name) {
			return true
		}
	}
	return false
}

// HasPermission reports whether any of the principal's roles carries the
// permission named "resource:action". Malformed names (no colon, empty
// resource or action) fail closed and return false rather than erroring.
func HasPermission(p model.Principal, permission string) bool {
	resource, action, ok := splitPermission(permission)
	if !ok {
		return false
	}
	for _, r := range p.Roles {
		for _, perm := range r.Permissions {
			if perm.Resource == resource && perm.Action == action {
				return true
			}
		}
	}
	return false
}

// HasAllPermissions reports whether every named permission is individually
// satisfied. The conjunction is over independent HasPermission evaluations;
// an empty list is trivially true.
func HasAllPermissions(p model.Principal, permissions ...string) bool {
	for _, name := range permissions {
		if !HasPermission(p, name) {
			return false
		}
	}
	return true
}

// splitPermission parses "resource:action". Extra colons belong to the
// action, matching how permission names are seeded.
func splitPermission(s string) (resource, action string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			resource, action = s[:i], s[i+1:]
			return resource, action, resource != "" && action != ""
		}
	}
	return "", "", false
}
