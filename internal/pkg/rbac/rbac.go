// Package rbac evaluates role and permission requirements against granted slugs.
//
// All checks are pure. HasAll* over an empty requirement is true and
// HasAny* over an empty requirement is false.
package rbac

// Role is a role slug plus the permissions it grants, in order.
type Role struct {
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission is a permission slug with an optional description.
type Permission struct {
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// HasPermission reports whether required is among granted.
func HasPermission(granted []string, required string) bool {
	return contains(granted, required)
}

// HasAnyPermission reports whether granted and required intersect.
func HasAnyPermission(granted, required []string) bool {
	return anyOf(granted, required)
}

// HasAllPermissions reports whether required is a subset of granted.
func HasAllPermissions(granted, required []string) bool {
	return allOf(granted, required)
}

// HasAnyRole reports whether granted and required intersect.
func HasAnyRole(granted, required []string) bool {
	return anyOf(granted, required)
}

// HasAllRoles reports whether required is a subset of granted.
func HasAllRoles(granted, required []string) bool {
	return allOf(granted, required)
}

// Flatten collects the distinct permission slugs of roles, first occurrence wins.
func Flatten(roles []Role) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range roles {
		for _, p := range r.Permissions {
			if _, ok := seen[p.Slug]; ok {
				continue
			}
			seen[p.Slug] = struct{}{}
			out = append(out, p.Slug)
		}
	}
	return out
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func anyOf(granted, required []string) bool {
	for _, r := range required {
		if contains(granted, r) {
			return true
		}
	}
	return false
}

func allOf(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	index := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		index[g] = struct{}{}
	}
	for _, r := range required {
		if _, ok := index[r]; !ok {
			return false
		}
	}
	return true
}
