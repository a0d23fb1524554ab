// Package authroles resolves portal roles from directory groups or login identifiers.
package authroles

import (
	"strings"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

// GroupRoleMapper maps IdP group names to roles. When a user is in several
// mapped groups the most privileged role wins, in the order of precedence.
type GroupRoleMapper struct {
	Groups map[domainauth.Role]string
}

var _ ports.RoleMapper = GroupRoleMapper{}

// precedence lists roles from most to least privileged.
//
//nolint:gochecknoglobals // static read-only lookup
var precedence = []domainauth.Role{
	domainauth.RoleSystemAdministrator,
	domainauth.RoleHRLead,
	domainauth.RolePeopleCommittee,
	domainauth.RoleMentor,
	domainauth.RoleEmployee,
}

// Map returns the role for groups, or false when none of them is mapped.
// Group comparison is case-insensitive.
func (m GroupRoleMapper) Map(groups []string) (domainauth.Role, bool) {
	for _, role := range precedence {
		want := m.Groups[role]
		if want == "" {
			continue
		}
		for _, g := range groups {
			if strings.EqualFold(g, want) || strings.EqualFold(commonName(g), want) {
				return role, true
			}
		}
	}
	return "", false
}

// commonName extracts the CN from an LDAP distinguished name, or returns g.
func commonName(g string) string {
	first, _, _ := strings.Cut(g, ",")
	if k, v, ok := strings.Cut(first, "="); ok && strings.EqualFold(strings.TrimSpace(k), "CN") {
		return strings.TrimSpace(v)
	}
	return g
}
