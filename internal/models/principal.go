package models

import "strings"

// Role is the single role carried by a principal
type Role string

const (
	RoleNone   Role = ""
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// rank orders roles by privilege; unknown roles rank zero.
var rank = map[Role]int{
	RoleReader: 1,
	RoleWriter: 2,
	RoleEditor: 3,
	RoleAdmin:  4,
}

// ParseRole maps a claim value onto a known role. Matching is case-insensitive
// and unknown values yield RoleNone, false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rank[r]; !ok {
		return RoleNone, false
	}
	return r, true
}

// HighestRole collapses a list of role claims to the most privileged known role
func HighestRole(values []string) Role {
	best := RoleNone
	for _, v := range values {
		r, ok := ParseRole(v)
		if ok && rank[r] > rank[best] {
			best = r
		}
	}
	return best
}

// Valid reports whether r is one of the enumerated roles
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Principal is the authenticated actor attached to a request
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Is reports whether the principal exists and holds exactly the given role
func (p *Principal) Is(role Role) bool {
	return p != nil && role.Valid() && p.Role == role
}
