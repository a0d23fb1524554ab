package auth

// Package auth contains domain-level types for identities, roles and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents one of the fixed organizational personas.
// The string form is the canonical wire value stored in sessions.
type Role string

const (
	RoleEmployee            Role = "Employee"
	RoleMentor              Role = "Mentor"
	RoleHRLead              Role = "HR Lead"
	RolePeopleCommittee     Role = "People Committee"
	RoleSystemAdministrator Role = "System Administrator"
)

// AllRoles returns every defined role in display order.
func AllRoles() []Role {
	return []Role{
		RoleEmployee,
		RoleMentor,
		RoleHRLead,
		RolePeopleCommittee,
		RoleSystemAdministrator,
	}
}

// roleAliases maps normalized spellings to canonical roles.
//
//nolint:gochecknoglobals // static read-only lookup
var roleAliases = map[string]Role{
	"employee":            RoleEmployee,
	"mentee":              RoleEmployee,
	"mentor":              RoleMentor,
	"hrlead":              RoleHRLead,
	"hr":                  RoleHRLead,
	"peoplecommittee":     RolePeopleCommittee,
	"committee":           RolePeopleCommittee,
	"systemadministrator": RoleSystemAdministrator,
	"sysadmin":            RoleSystemAdministrator,
	"admin":               RoleSystemAdministrator,
}

// ParseRole resolves a role from its canonical string or a known alias.
// Matching ignores case, spaces, underscores and dashes.
func ParseRole(s string) (Role, bool) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	role, ok := roleAliases[key]
	return role, ok
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleMentor, RoleHRLead, RolePeopleCommittee, RoleSystemAdministrator:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// UnmarshalText implements encoding.TextUnmarshaler so roles can be read from config.
func (r *Role) UnmarshalText(text []byte) error {
	role, ok := ParseRole(string(text))
	if !ok {
		return &InvalidRoleError{Value: string(text)}
	}
	*r = role
	return nil
}

// Principal is the authenticated identity + role pair for one browser session.
type Principal struct {
	Identifier string `json:"identifier"`
	Role       Role   `json:"role"`
}

// Identity represents the authenticated user returned by an SSO identity provider.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from IdP token
}
