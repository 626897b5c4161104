package account

import (
	"github.com/uniasistencia/backend/core"
)

// Role discriminates the three kinds of accounts, each kept in its own store.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleTeacher       Role = "teacher"
	RoleStudent       Role = "student"
)

// Roles lists every role, credential holding roles first (the authentication order).
var Roles = []Role{RoleAdministrator, RoleTeacher, RoleStudent}

func (r Role) String() string { return string(r) }

// Valid tells whether r is one of Roles.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRole returns a bad request error for unknown roles.
func ParseRole(s string) (Role, error) {
	r := Role(core.CleanString(s, true))
	if !r.Valid() {
		return "", core.NewBadRequestError("invalid role: must be one of administrator, teacher, student")
	}
	return r, nil
}
