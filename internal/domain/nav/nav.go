// Package nav maps each role to the navigation entries and chrome it may see.
// It is the single place role-dependent navigation is decided.
package nav

import (
	"fmt"

	"github.com/kedaara/performance-hub/internal/domain/auth"
)

// Entry is one navigation link.
type Entry struct {
	Label string
	Path  string
	// Index marks the section landing page (matched exactly when highlighting).
	Index bool
}

// Layout identifies the chrome a role is rendered with.
type Layout string

const (
	LayoutAdmin   Layout = "admin"
	LayoutHRLead  Layout = "hr-lead"
	LayoutGeneral Layout = "general"
)

const (
	PathDashboard = "/dashboard"
	PathAdmin     = "/admin"
	PathFeedback  = "/feedback"
)

type roleNav struct {
	layout  Layout
	entries []Entry
}

//nolint:gochecknoglobals // static read-only lookup, checked for totality in init
var table = map[auth.Role]roleNav{
	auth.RoleEmployee: {
		layout: LayoutGeneral,
		entries: []Entry{
			{Label: "Dashboard", Path: PathDashboard, Index: true},
			{Label: "Select Reviewers", Path: "/dashboard/select-reviewers"},
			{Label: "Feedback", Path: PathFeedback},
		},
	},
	auth.RoleMentor: {
		layout: LayoutGeneral,
		entries: []Entry{
			{Label: "Dashboard", Path: PathDashboard, Index: true},
			{Label: "Review & Approve", Path: "/dashboard/review-approve"},
			{Label: "Feedback", Path: PathFeedback},
		},
	},
	auth.RoleHRLead: {
		layout: LayoutHRLead,
		entries: []Entry{
			{Label: "Dashboard", Path: PathDashboard, Index: true},
			{Label: "Initiate Cycle", Path: "/dashboard/initiate-cycle"},
			{Label: "Review Data", Path: "/dashboard/review-data"},
			{Label: "Feedback", Path: PathFeedback},
		},
	},
	auth.RolePeopleCommittee: {
		layout: LayoutGeneral,
		entries: []Entry{
			{Label: "Dashboard", Path: PathDashboard, Index: true},
			{Label: "Reviewer Feedback", Path: "/dashboard/feedback"},
			{Label: "Feedback", Path: PathFeedback},
		},
	},
	auth.RoleSystemAdministrator: {
		layout: LayoutAdmin,
		entries: []Entry{
			{Label: "Overview", Path: PathAdmin, Index: true},
			{Label: "User Master", Path: "/admin/users"},
			{Label: "Location Master", Path: "/admin/locations"},
			{Label: "Review Cycle Master", Path: "/admin/review-cycles"},
		},
	},
}

func init() {
	if err := CheckTotal(); err != nil {
		panic(err) //nolint:forbidigo // a role without navigation is a programming error
	}
}

// CheckTotal verifies that every defined role has a non-empty navigation.
func CheckTotal() error {
	for _, r := range auth.AllRoles() {
		rn, ok := table[r]
		if !ok || len(rn.entries) == 0 {
			return fmt.Errorf("nav: role %q has no navigation entries", r)
		}
		if rn.layout == "" {
			return fmt.Errorf("nav: role %q has no layout", r)
		}
	}
	return nil
}

// For returns the ordered navigation for role. Unknown or empty roles get nil.
// The returned slice is a copy and may be modified by the caller.
func For(role auth.Role) []Entry {
	rn, ok := table[role]
	if !ok {
		return nil
	}
	return append([]Entry(nil), rn.entries...)
}

// DefaultPath returns the landing screen for role, the path of its first entry.
func DefaultPath(role auth.Role) (string, bool) {
	rn, ok := table[role]
	if !ok || len(rn.entries) == 0 {
		return "", false
	}
	return rn.entries[0].Path, true
}

// LayoutFor returns the chrome used for role. Unknown roles get the general layout.
func LayoutFor(role auth.Role) Layout {
	if rn, ok := table[role]; ok {
		return rn.layout
	}
	return LayoutGeneral
}

// IsActive reports whether entry should be highlighted for the current path.
// Index entries match exactly; others also match their sub-paths.
func (e Entry) IsActive(currentPath string) bool {
	if e.Index {
		return currentPath == e.Path
	}
	return currentPath == e.Path || (len(currentPath) > len(e.Path) &&
		currentPath[:len(e.Path)] == e.Path && currentPath[len(e.Path)] == '/')
}
