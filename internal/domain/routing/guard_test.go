package routing

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/domain/nav"
)

func principals() []*auth.Principal {
	out := []*auth.Principal{nil}
	for _, r := range auth.AllRoles() {
		out = append(out, &auth.Principal{Identifier: "u@kedaara.com", Role: r})
	}
	return out
}

// Exhaustive over every principal and every protected descriptor in the table.
func TestDecide_RendersOnlyWhenAllowed(t *testing.T) {
	for _, d := range DefaultTable().Descriptors() {
		if d.Access == Public {
			continue
		}
		for _, p := range principals() {
			got := Decide(p, d)
			want := p != nil && (len(d.Roles) == 0 || slices.Contains(d.Roles, p.Role))
			assert.Equal(t, want, got.Outcome == Render, "path=%s principal=%v", d.Path, p)
		}
	}
}

func TestDecide_UnauthorizedRedirectsToLanding(t *testing.T) {
	for _, d := range DefaultTable().Descriptors() {
		for _, p := range principals() {
			if p == nil {
				continue
			}
			got := Decide(p, d)
			if got.Outcome == Render {
				continue
			}
			first := nav.For(p.Role)[0].Path
			assert.Equal(t, RedirectDefault, got.Outcome)
			assert.Equal(t, Unauthorized, got.State)
			assert.Equal(t, first, got.Target, "path=%s role=%s", d.Path, p.Role)

			var navErr *auth.UnauthorizedNavigationError
			require.ErrorAs(t, got.Err(), &navErr)
			assert.Equal(t, d.Path, navErr.Path)
			assert.Equal(t, p.Role, navErr.Role)
		}
	}
}

func TestDecide_Unauthenticated(t *testing.T) {
	d, _ := DefaultTable().Lookup("/feedback")
	got := Decide(nil, d)
	assert.Equal(t, Unauthenticated, got.State)
	assert.Equal(t, RedirectLogin, got.Outcome)
	assert.Equal(t, "/login", got.Target)
	assert.True(t, got.Redirect())
	assert.NoError(t, got.Err())
}

func TestDecide_PublicSkipsAuthentication(t *testing.T) {
	d, _ := DefaultTable().Lookup("/login")

	anon := Decide(nil, d)
	assert.Equal(t, Render, anon.Outcome)
	assert.Empty(t, anon.Target)

	signedIn := Decide(&auth.Principal{Identifier: "a@x.com", Role: auth.RoleEmployee}, d)
	assert.Equal(t, Render, signedIn.Outcome)
	assert.Equal(t, Authorized, signedIn.State)
}

func TestDecide_UnknownRole(t *testing.T) {
	ghost := &auth.Principal{Identifier: "g@x.com", Role: auth.Role("Intern")}

	feedback, _ := DefaultTable().Lookup("/feedback")
	assert.Equal(t, Render, Decide(ghost, feedback).Outcome)

	dash, _ := DefaultTable().Lookup("/dashboard")
	got := Decide(ghost, dash)
	assert.Equal(t, Unauthorized, got.State)
	assert.Equal(t, "/login", got.Target)
}

func TestDecide_EmployeeToAdmin(t *testing.T) {
	admin, _ := DefaultTable().Lookup("/admin/users")
	got := Decide(&auth.Principal{Identifier: "a@x.com", Role: auth.RoleEmployee}, admin)
	assert.Equal(t, "/dashboard", got.Target)

	dash, _ := DefaultTable().Lookup("/dashboard")
	got = Decide(&auth.Principal{Identifier: "root@x.com", Role: auth.RoleSystemAdministrator}, dash)
	assert.Equal(t, "/admin", got.Target)
}
