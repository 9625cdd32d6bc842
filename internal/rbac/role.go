package rbac

import (
	"fmt"
	"strings"
)

// Role is a membership role inside an organization. Roles are totally
// ordered: owner > admin > member > viewer.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// ranks are only defined for known roles; the zero rank means invalid.
var ranks = map[Role]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

// Roles lists every valid role from lowest to highest rank.
func Roles() []Role {
	return []Role{RoleViewer, RoleMember, RoleAdmin, RoleOwner}
}

// ParseRole converts s into a Role, rejecting anything outside the hierarchy.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// MustParseRole is ParseRole for constants known at compile time.
func MustParseRole(s string) Role {
	r, err := ParseRole(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Role) Valid() bool { return ranks[r] > 0 }

func (r Role) Rank() int { return ranks[r] }

// AtLeast reports whether r satisfies a requirement of required. Invalid
// roles on either side never satisfy anything.
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Rank() >= required.Rank()
}

func (r Role) String() string { return string(r) }
