package domain

import (
	"fmt"
	"strings"
)

// Role is the authorization tier attached to an authenticated identity.
// The set of roles is closed; the zero value is not a valid role.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleFaculty
	RoleAdmin
)

// Roles lists every valid role.
var Roles = []Role{RoleStudent, RoleFaculty, RoleAdmin}

// ParseRole converts the textual form used in tokens and storage.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "faculty":
		return RoleFaculty, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleFaculty:
		return "faculty"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// MarshalText encodes the role; unknown roles cannot be encoded.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role and rejects anything outside the closed set.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is a fixed-width set of roles. The empty set means any
// authenticated caller is accepted.
type RoleSet uint8

// NewRoleSet builds a set from the given roles. Invalid roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

// Has reports membership.
func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool {
	return s == 0
}

// Members returns the roles in declaration order.
func (s RoleSet) Members() []Role {
	out := make([]Role, 0, len(Roles))
	for _, r := range Roles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	members := s.Members()
	parts := make([]string, len(members))
	for i, r := range members {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Elevated is the role set allowed to access video content.
var Elevated = NewRoleSet(RoleFaculty, RoleAdmin)
