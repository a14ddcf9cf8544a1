package domain

import (
	"slices"
	"strings"
	"time"
)

// Role tags an identity independent of the store that holds it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHOD     Role = "hod"
	RoleFaculty Role = "faculty"
)

// Roles lists every role in identity resolution order.
var Roles = []Role{RoleAdmin, RoleHOD, RoleFaculty}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// ParseRole normalizes user input into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Token represents issued session token metadata.
type Token struct {
	SubjectID string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}
