package models

import "strings"

// Role is a staff role resolved from the directory.
type Role string

const (
	RoleViewer Role = "Viewer"
	RoleWriter Role = "Writer"
	RoleEditor Role = "Editor"
	RoleAdmin  Role = "Admin"
)

// RoleHierarchy lists, for each role, every role whose requirements it satisfies.
var RoleHierarchy = map[Role][]Role{
	RoleAdmin:  {RoleAdmin, RoleEditor, RoleWriter, RoleViewer},
	RoleEditor: {RoleEditor, RoleWriter, RoleViewer},
	RoleWriter: {RoleWriter, RoleViewer},
	RoleViewer: {RoleViewer},
}

// ParseRole maps a directory cell to a Role. Blank cells mean Viewer; matching
// is case-insensitive and unknown values are kept verbatim so they satisfy no
// requirement.
func ParseRole(s string) Role {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleViewer
	}
	for r := range RoleHierarchy {
		if strings.EqualFold(string(r), s) {
			return r
		}
	}
	return Role(s)
}

// Known reports whether r is part of the hierarchy.
func (r Role) Known() bool {
	_, ok := RoleHierarchy[r]
	return ok
}

// CanAccess reports whether a holder of role satisfies required.
func CanAccess(role, required Role) bool {
	for _, r := range RoleHierarchy[role] {
		if r == required {
			return true
		}
	}
	return false
}
