// Package routing declares which screens exist, who may reach them, and the
// guard that decides render-or-redirect for a request.
package routing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/domain/nav"
)

// Access is the authorization class of a route.
type Access int

const (
	// Public routes render without any authentication check.
	Public Access = iota
	// Authenticated routes require any signed-in Principal.
	Authenticated
	// Restricted routes require a Principal whose role is in Descriptor.Roles.
	Restricted
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Restricted:
		return "restricted"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// PathLogin is the login screen every unauthenticated redirect targets.
const PathLogin = "/login"

// Descriptor binds a path to its screen and access rule.
type Descriptor struct {
	Path   string
	Access Access
	Roles  []auth.Role
	// Screen is the template rendered as the body of the page.
	Screen string
	Title  string
}

// Allows reports whether role satisfies the descriptor's role set.
// A restricted descriptor with no roles admits any role.
func (d Descriptor) Allows(role auth.Role) bool {
	switch d.Access {
	case Public, Authenticated:
		return true
	case Restricted:
		return len(d.Roles) == 0 || slices.Contains(d.Roles, role)
	default:
		return false
	}
}

// Table is the immutable set of route descriptors.
type Table struct {
	byPath map[string]Descriptor
	order  []string
}

// NewTable builds a table. Duplicate paths, unknown access classes, and role
// sets naming anything outside auth.AllRoles are rejected; only restricted
// descriptors may carry roles.
func NewTable(ds ...Descriptor) (*Table, error) {
	t := &Table{byPath: make(map[string]Descriptor, len(ds))}
	for _, d := range ds {
		if d.Path == "" || !strings.HasPrefix(d.Path, "/") {
			return nil, fmt.Errorf("routing: invalid path %q", d.Path)
		}
		if _, dup := t.byPath[d.Path]; dup {
			return nil, fmt.Errorf("routing: duplicate path %q", d.Path)
		}
		if err := d.check(); err != nil {
			return nil, err
		}
		d.Roles = slices.Clone(d.Roles)
		t.byPath[d.Path] = d
		t.order = append(t.order, d.Path)
	}
	return t, nil
}

func (d Descriptor) check() error {
	switch d.Access {
	case Public, Authenticated:
		if len(d.Roles) > 0 {
			return fmt.Errorf("routing: %s route %s cannot list roles", d.Access, d.Path)
		}
	case Restricted:
		for _, r := range d.Roles {
			if !r.Valid() {
				return fmt.Errorf("routing: route %s names unknown role %q", d.Path, r)
			}
		}
	default:
		return fmt.Errorf("routing: route %s has unknown %s", d.Path, d.Access)
	}
	return nil
}

// Lookup returns the descriptor registered for path.
func (t *Table) Lookup(path string) (Descriptor, bool) {
	d, ok := t.byPath[path]
	if !ok {
		return Descriptor{}, false
	}
	d.Roles = slices.Clone(d.Roles)
	return d, true
}

// Descriptors returns all descriptors in declaration order.
func (t *Table) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(t.order))
	for _, p := range t.order {
		d, _ := t.Lookup(p)
		out = append(out, d)
	}
	return out
}

// Validate checks the table against the navigation map: every role has a
// default path, that path is a route the role may reach, and every navigation
// entry shown to a role points at a route that role may reach.
func (t *Table) Validate() error {
	if err := nav.CheckTotal(); err != nil {
		return err
	}
	if d, ok := t.byPath[PathLogin]; !ok || d.Access != Public {
		return errors.New("routing: login route must exist and be public")
	}

	var errs []error
	for _, role := range auth.AllRoles() {
		def, ok := nav.DefaultPath(role)
		if !ok {
			errs = append(errs, fmt.Errorf("routing: role %q has no default path", role))
			continue
		}
		if !t.reachable(def, role) {
			errs = append(errs, fmt.Errorf("routing: default path %s is not reachable by %q", def, role))
		}
		for _, e := range nav.For(role) {
			if !t.reachable(e.Path, role) {
				errs = append(errs, fmt.Errorf("routing: nav entry %s is not reachable by %q", e.Path, role))
			}
		}
	}
	return errors.Join(errs...)
}

func (t *Table) reachable(path string, role auth.Role) bool {
	d, ok := t.byPath[path]
	return ok && d.Allows(role)
}

// DefaultTable returns the portal's route table.
func DefaultTable() *Table {
	var (
		dashboard = []auth.Role{auth.RoleHRLead, auth.RoleEmployee, auth.RoleMentor, auth.RolePeopleCommittee}
		hr        = []auth.Role{auth.RoleHRLead}
		admin     = []auth.Role{auth.RoleSystemAdministrator}
	)
	t, err := NewTable(
		Descriptor{Path: PathLogin, Access: Public, Screen: "login", Title: "Sign in"},
		Descriptor{Path: nav.PathFeedback, Access: Authenticated, Screen: "feedback", Title: "Feedback"},

		Descriptor{Path: nav.PathDashboard, Access: Restricted, Roles: dashboard, Screen: "dashboard", Title: "Dashboard"},
		Descriptor{Path: "/dashboard/initiate-cycle", Access: Restricted, Roles: hr, Screen: "initiate-cycle", Title: "Initiate Review Cycle"},
		Descriptor{Path: "/dashboard/review-data", Access: Restricted, Roles: hr, Screen: "review-data", Title: "Review Data"},
		Descriptor{Path: "/dashboard/select-reviewers", Access: Restricted,
			Roles: []auth.Role{auth.RoleEmployee}, Screen: "select-reviewers", Title: "Select Reviewers"},
		Descriptor{Path: "/dashboard/review-approve", Access: Restricted,
			Roles: []auth.Role{auth.RoleMentor}, Screen: "review-approve", Title: "Review & Approve"},
		Descriptor{Path: "/dashboard/feedback", Access: Restricted,
			Roles: []auth.Role{auth.RolePeopleCommittee}, Screen: "committee-feedback", Title: "Reviewer Feedback"},

		Descriptor{Path: nav.PathAdmin, Access: Restricted, Roles: admin, Screen: "admin-overview", Title: "Overview"},
		Descriptor{Path: "/admin/users", Access: Restricted, Roles: admin, Screen: "admin-users", Title: "User Master"},
		Descriptor{Path: "/admin/locations", Access: Restricted, Roles: admin, Screen: "admin-locations", Title: "Location Master"},
		Descriptor{Path: "/admin/review-cycles", Access: Restricted, Roles: admin, Screen: "admin-review-cycles", Title: "Review Cycle Master"},
	)
	if err != nil {
		panic(err) //nolint:forbidigo // static table
	}
	return t
}
