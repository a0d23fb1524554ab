package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedaara/performance-hub/internal/domain/auth"
)

func TestFor_EveryRoleHasEntries(t *testing.T) {
	require.NoError(t, CheckTotal())
	for _, r := range auth.AllRoles() {
		entries := For(r)
		assert.NotEmpty(t, entries, "role %q", r)
		for _, e := range entries {
			assert.NotEmpty(t, e.Label)
			assert.NotEmpty(t, e.Path)
		}
	}
}

func TestFor_UnknownRole(t *testing.T) {
	assert.Empty(t, For(""))
	assert.Empty(t, For(auth.Role("Intern")))
	_, ok := DefaultPath("")
	assert.False(t, ok)
	assert.Equal(t, LayoutGeneral, LayoutFor(""))
}

func TestFor_ReturnsCopy(t *testing.T) {
	entries := For(auth.RoleEmployee)
	entries[0].Path = "/tampered"
	assert.Equal(t, PathDashboard, For(auth.RoleEmployee)[0].Path)
}

func TestDefaultPath(t *testing.T) {
	cases := map[auth.Role]string{
		auth.RoleEmployee:            "/dashboard",
		auth.RoleMentor:              "/dashboard",
		auth.RoleHRLead:              "/dashboard",
		auth.RolePeopleCommittee:     "/dashboard",
		auth.RoleSystemAdministrator: "/admin",
	}
	for role, want := range cases {
		got, ok := DefaultPath(role)
		require.True(t, ok)
		assert.Equal(t, want, got, "role %q", role)
	}
}

func TestFor_EmployeeNavigation(t *testing.T) {
	var labels []string
	for _, e := range For(auth.RoleEmployee) {
		labels = append(labels, e.Label)
	}
	assert.Equal(t, []string{"Dashboard", "Select Reviewers", "Feedback"}, labels)
}

func TestLayoutFor(t *testing.T) {
	assert.Equal(t, LayoutAdmin, LayoutFor(auth.RoleSystemAdministrator))
	assert.Equal(t, LayoutHRLead, LayoutFor(auth.RoleHRLead))
	assert.Equal(t, LayoutGeneral, LayoutFor(auth.RoleMentor))
}

func TestEntry_IsActive(t *testing.T) {
	index := Entry{Label: "Overview", Path: "/admin", Index: true}
	assert.True(t, index.IsActive("/admin"))
	assert.False(t, index.IsActive("/admin/users"))

	users := Entry{Label: "User Master", Path: "/admin/users"}
	assert.True(t, users.IsActive("/admin/users"))
	assert.True(t, users.IsActive("/admin/users/42"))
	assert.False(t, users.IsActive("/admin/usersx"))
	assert.False(t, users.IsActive("/admin"))
}
