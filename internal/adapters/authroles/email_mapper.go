package authroles

import (
	"strings"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
)

// EmailRoleMapper derives a role from well-known mailbox prefixes. It exists
// for local demos where no directory is available; anyone else is an Employee.
type EmailRoleMapper struct{}

//nolint:gochecknoglobals // static read-only lookup
var mailboxRoles = []struct {
	marker string
	role   domainauth.Role
}{
	{"admin@", domainauth.RoleSystemAdministrator},
	{"mentor@", domainauth.RoleMentor},
	{"hr@", domainauth.RoleHRLead},
	{"committee@", domainauth.RolePeopleCommittee},
}

// RoleFor returns the role implied by identifier. Markers match case-sensitively,
// so "ADMIN@x.com" is an Employee.
func (EmailRoleMapper) RoleFor(identifier string) domainauth.Role {
	id := strings.TrimSpace(identifier)
	for _, mr := range mailboxRoles {
		if strings.Contains(id, mr.marker) {
			return mr.role
		}
	}
	return domainauth.RoleEmployee
}
