package dashboard

import "github.com/goatkit/querypro/internal/models"

// Section is one navigation entry of a dashboard.
type Section string

// Dashboard sections. Admin and student views share the slugs they have in common.
const (
	SectionDashboard  Section = "dashboard"
	SectionAll        Section = "all-complaints"
	SectionPending    Section = "pending"
	SectionInProgress Section = "in-progress"
	SectionResolved   Section = "resolved"
	SectionMine       Section = "my-complaints"
	SectionNew        Section = "new-complaint"
	SectionTrack      Section = "track-progress"
)

// NavItem is a navigation entry with its caption.
type NavItem struct {
	Section Section
	Name    string
}

var adminNav = []NavItem{
	{SectionDashboard, "Dashboard"},
	{SectionAll, "All Complaints"},
	{SectionPending, "Pending"},
	{SectionInProgress, "In Progress"},
	{SectionResolved, "Resolved"},
}

var studentNav = []NavItem{
	{SectionDashboard, "Dashboard"},
	{SectionMine, "My Complaints"},
	{SectionNew, "New Complaint"},
	{SectionTrack, "Track Progress"},
	{SectionResolved, "Resolved"},
}

// Navigation returns the sections offered to role.
func Navigation(role models.Role) []NavItem {
	src := studentNav
	if role == models.RoleAdmin {
		src = adminNav
	}
	out := make([]NavItem, len(src))
	copy(out, src)
	return out
}

// HasSection reports whether role can navigate to s.
func HasSection(role models.Role, s Section) bool {
	for _, item := range Navigation(role) {
		if item.Section == s {
			return true
		}
	}
	return false
}

// Title returns the list heading for a section.
func (s Section) Title() string {
	switch s {
	case SectionAll:
		return "All Complaints"
	case SectionPending:
		return "Pending Complaints"
	case SectionInProgress:
		return "In Progress Complaints"
	case SectionResolved:
		return "Resolved Complaints"
	case SectionMine:
		return "My Complaints"
	case SectionNew:
		return "New Complaint"
	case SectionTrack:
		return "Track Progress"
	}
	return "Dashboard"
}

// StatusFilter returns the status a section lists, or "" for unfiltered
// sections. ok is false for sections that show no complaint list.
func (s Section) StatusFilter() (status models.Status, ok bool) {
	switch s {
	case SectionDashboard, SectionAll, SectionMine:
		return "", true
	case SectionPending:
		return models.StatusPending, true
	case SectionInProgress:
		return models.StatusInProgress, true
	case SectionResolved:
		return models.StatusResolved, true
	}
	return "", false
}
