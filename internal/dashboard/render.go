package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/xeonx/timeago"

	"github.com/goatkit/querypro/internal/models"
)

// DateLayout is the display format of complaint timestamps.
const DateLayout = "Jan 2, 2006, 03:04 PM"

var (
	badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	statusColors = map[models.Status]lipgloss.Color{
		models.StatusPending:    lipgloss.Color("#CA8A04"),
		models.StatusInProgress: lipgloss.Color("#2563EB"),
		models.StatusResolved:   lipgloss.Color("#16A34A"),
		models.StatusClosed:     lipgloss.Color("#6B7280"),
	}

	priorityColors = map[models.Priority]lipgloss.Color{
		models.PriorityUrgent: lipgloss.Color("#DC2626"),
		models.PriorityHigh:   lipgloss.Color("#EA580C"),
		models.PriorityMedium: lipgloss.Color("#CA8A04"),
		models.PriorityLow:    lipgloss.Color("#16A34A"),
	}

	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(16)
)

// StatusBadge renders the coloured status label.
func StatusBadge(s models.Status) string {
	style := badgeBase
	if c, ok := statusColors[s]; ok {
		style = style.Foreground(c)
	}
	return style.Render(s.Label())
}

// PriorityBadge renders the coloured priority label.
func PriorityBadge(p models.Priority) string {
	style := badgeBase
	if c, ok := priorityColors[p]; ok {
		style = style.Foreground(c)
	}
	return style.Render(p.Label())
}

// FormatDate renders t in DateLayout, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DateLayout)
}

// Relative renders t relative to now, e.g. "5 minutes ago".
func Relative(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return timeago.English.FormatReference(t, now)
}

// RenderList renders complaints as a table. An empty list renders emptyMsg.
func RenderList(title string, list []models.Complaint, now time.Time, emptyMsg string) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(title))
	b.WriteString("\n")
	if len(list) == 0 {
		b.WriteString(mutedStyle.Render(emptyMsg))
		b.WriteString("\n")
		return b.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TICKET", "TITLE", "STATUS", "PRIORITY", "CREATED")
	for _, c := range list {
		t.Row(c.TicketID, truncate(c.Title, 40), StatusBadge(c.Status), PriorityBadge(c.Priority), Relative(c.CreatedAt, now))
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// RenderComplaint renders the detail card of a single complaint, including
// the admin actions offered for it.
func RenderComplaint(c *models.Complaint, actions []models.Action) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(headingStyle.Render(c.Title))
	b.WriteString("\n")
	row("Ticket", c.TicketID)
	row("Status", StatusBadge(c.Status))
	row("Priority", PriorityBadge(c.Priority))
	if c.Category != "" {
		row("Category", c.Category)
	}
	row("Submitted", FormatDate(c.CreatedAt))
	if c.ResolvedAt != nil {
		row("Resolved", FormatDate(*c.ResolvedAt))
	}
	b.WriteString("\n")
	b.WriteString(c.Description)
	b.WriteString("\n")
	if c.AdminResponse != "" {
		b.WriteString("\n")
		row("Admin response", c.AdminResponse)
	}
	if c.HasAttachments() {
		b.WriteString("\n")
		for i, a := range c.Attachments {
			kind := "file"
			if a.IsImage() {
				kind = "image"
			}
			fmt.Fprintf(&b, "  [%d] %s (%s)\n", i, a.OriginalFilename, kind)
		}
	}
	if len(actions) > 0 {
		labels := make([]string, 0, len(actions))
		for _, a := range actions {
			labels = append(labels, a.Label())
		}
		b.WriteString("\n")
		row("Actions", strings.Join(labels, " | "))
	}
	return b.String()
}

// RenderStats renders the statistics cards.
func RenderStats(st *models.Statistics) string {
	if st == nil {
		return mutedStyle.Render("Statistics unavailable") + "\n"
	}
	cards := []string{
		statCard("Total", st.TotalComplaints, lipgloss.Color("#111827")),
		statCard(models.StatusPending.Label(), st.StatusStats.Pending, statusColors[models.StatusPending]),
		statCard(models.StatusInProgress.Label(), st.StatusStats.InProgress, statusColors[models.StatusInProgress]),
		statCard(models.StatusResolved.Label(), st.StatusStats.Resolved, statusColors[models.StatusResolved]),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n"
}

func statCard(label string, n int, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 2).
		MarginRight(1).
		Render(fmt.Sprintf("%s\n%d", label, n))
}

// RenderError renders a banner line, or "" when msg is empty.
func RenderError(msg string) string {
	if msg == "" {
		return ""
	}
	return errorStyle.Render(msg) + "\n"
}

// RenderDashboard renders the whole view: banner, statistics and list.
func RenderDashboard(d *Dashboard, now time.Time) string {
	var b strings.Builder
	b.WriteString(RenderError(d.Error()))
	section := d.Section()
	if section == SectionDashboard {
		b.WriteString(RenderStats(d.Stats()))
		b.WriteString("\n")
		b.WriteString(RenderList("Recent Complaints", d.Recent(5), now, msgNoComplaints))
		return b.String()
	}
	b.WriteString(RenderList(section.Title(), d.Complaints(), now, msgNoComplaints))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
