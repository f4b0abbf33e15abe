// Package dashboard holds the view state of the admin and student dashboards:
// the complaint list of the active section, the statistics snapshot, the
// user-visible error banner and the status transitions offered per complaint.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/client"
	"github.com/goatkit/querypro/internal/models"
)

// ComplaintAPI is the part of the API client the dashboard needs.
type ComplaintAPI interface {
	FetchAll(ctx context.Context, filter models.Status) (*client.ComplaintPage, error)
	FetchMine(ctx context.Context, page, perPage int) (*client.ComplaintPage, error)
	FetchStats(ctx context.Context) (*models.Statistics, error)
	UpdateStatus(ctx context.Context, complaintID string, status models.Status, adminResponse string) error
}

// Banner texts shown when the backend gives no message of its own.
const (
	msgFetchFailed  = "Failed to fetch complaints"
	msgUpdateFailed = "Failed to update complaint status"
	msgNoComplaints = "No complaints found"
)

// Dashboard is the consolidated admin/student complaint view.
type Dashboard struct {
	api      ComplaintAPI
	role     models.Role
	logger   *slog.Logger
	perPage  int
	onChange func()

	mu         sync.Mutex
	section    Section
	complaints []models.Complaint
	stats      *models.Statistics
	loading    bool
	errMsg     string
	busy       map[string]bool
	generation uint64
	closed     bool
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger injects a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dashboard) {
		d.logger = l
	}
}

// WithPageSize sets how many complaints a student list requests.
func WithPageSize(n int) Option {
	return func(d *Dashboard) {
		if n > 0 {
			d.perPage = n
		}
	}
}

// WithOnChange registers a callback invoked after every state change, used
// by renderers to redraw.
func WithOnChange(fn func()) Option {
	return func(d *Dashboard) {
		d.onChange = fn
	}
}

// New creates a dashboard for role. Nothing is fetched until SetSection or Refresh.
func New(api ComplaintAPI, role models.Role, opts ...Option) *Dashboard {
	d := &Dashboard{
		api:     api,
		role:    role,
		logger:  slog.Default(),
		perPage: 50,
		section: SectionDashboard,
		busy:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Role returns the role the dashboard renders for.
func (d *Dashboard) Role() models.Role { return d.role }

// Navigation returns the sections of this dashboard.
func (d *Dashboard) Navigation() []NavItem { return Navigation(d.role) }

// Section returns the active section.
func (d *Dashboard) Section() Section {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.section
}

// SetSection switches section and loads its data.
func (d *Dashboard) SetSection(ctx context.Context, s Section) error {
	if !HasSection(d.role, s) {
		return apierrors.NewWithMessage(apierrors.CodeValidationFailed, fmt.Sprintf("unknown section %q", s))
	}
	d.mu.Lock()
	d.section = s
	d.errMsg = ""
	d.mu.Unlock()
	d.changed()
	return d.Refresh(ctx)
}

// Refresh re-fetches the active section's list and the statistics in full.
// A failed list fetch sets the banner and leaves the previous list visible;
// a failed statistics fetch is only logged. Unauthorized errors are returned
// without a banner so the caller can send the user to login.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.generation++
	gen := d.generation
	section := d.section
	d.loading = true
	d.mu.Unlock()
	d.changed()

	filter, lists := section.StatusFilter()
	var (
		list    []models.Complaint
		mine    []models.Complaint
		listErr error
	)
	if lists {
		list, mine, listErr = d.fetchList(ctx, filter)
	}

	var stats *models.Statistics
	var statsErr error
	if d.role == models.RoleAdmin {
		stats, statsErr = d.api.FetchStats(ctx)
		if statsErr != nil && !apierrors.IsUnauthorized(statsErr) {
			d.logger.Warn("failed to fetch stats", "error", statsErr)
		}
	}

	d.mu.Lock()
	if d.closed || gen != d.generation {
		// view torn down or superseded by a newer refresh
		d.mu.Unlock()
		return nil
	}
	d.loading = false
	switch {
	case listErr == nil && lists:
		d.complaints = list
		d.errMsg = ""
		if d.role != models.RoleAdmin {
			d.stats = computeStats(mine)
		}
	case listErr != nil && !apierrors.IsUnauthorized(listErr):
		d.errMsg = apierrors.UserMessage(listErr, msgFetchFailed)
	}
	if statsErr == nil && stats != nil {
		d.stats = stats
	}
	d.mu.Unlock()
	d.changed()

	if apierrors.IsUnauthorized(listErr) {
		return listErr
	}
	if apierrors.IsUnauthorized(statsErr) {
		return statsErr
	}
	return listErr
}

// fetchList returns the section's list and, for students, the unfiltered
// my-complaints page the statistics are counted from.
func (d *Dashboard) fetchList(ctx context.Context, filter models.Status) (list, mine []models.Complaint, err error) {
	if d.role == models.RoleAdmin {
		page, err := d.api.FetchAll(ctx, filter)
		if err != nil {
			return nil, nil, err
		}
		return page.Complaints, nil, nil
	}

	// students only have the my-complaints endpoint; filter locally
	page, err := d.api.FetchMine(ctx, 1, d.perPage)
	if err != nil {
		return nil, nil, err
	}
	if filter == "" {
		return page.Complaints, page.Complaints, nil
	}
	return models.FilterByStatus(page.Complaints, filter), page.Complaints, nil
}

func computeStats(list []models.Complaint) *models.Statistics {
	st := &models.Statistics{TotalComplaints: len(list)}
	for _, c := range list {
		switch c.Status {
		case models.StatusPending:
			st.StatusStats.Pending++
		case models.StatusInProgress:
			st.StatusStats.InProgress++
		case models.StatusResolved:
			st.StatusStats.Resolved++
		}
	}
	return st
}

// Transition applies action to the complaint with id. The local copy must
// still admit the action; on success the list and statistics are re-fetched.
// Concurrent transitions by other admins are not detected: the last write wins.
func (d *Dashboard) Transition(ctx context.Context, id string, action models.Action, adminResponse string) error {
	if d.role != models.RoleAdmin {
		return apierrors.New(apierrors.CodeForbidden)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	c, ok := d.findLocked(id)
	if !ok {
		d.mu.Unlock()
		return apierrors.NewWithMessage(apierrors.CodeNotFound, "Complaint not found")
	}
	if !action.Allows(c.Status) {
		err := apierrors.New(apierrors.CodeInvalidTransition)
		d.errMsg = err.Message
		d.mu.Unlock()
		d.changed()
		return err
	}
	if d.busy[c.ID] {
		d.mu.Unlock()
		return apierrors.NewWithMessage(apierrors.CodeInvalidTransition, "An update for this complaint is already in progress")
	}
	d.busy[c.ID] = true
	d.mu.Unlock()
	d.changed()

	err := d.api.UpdateStatus(ctx, c.ID, action.Target(), adminResponse)

	d.mu.Lock()
	delete(d.busy, c.ID)
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		if !apierrors.IsUnauthorized(err) {
			d.errMsg = apierrors.UserMessage(err, msgUpdateFailed)
		}
		d.mu.Unlock()
		d.changed()
		return err
	}
	d.mu.Unlock()

	d.logger.Info("complaint transitioned", "complaint_id", c.ID, "ticket_id", c.TicketID, "status", action.Target())
	return d.Refresh(ctx)
}

func (d *Dashboard) findLocked(id string) (models.Complaint, bool) {
	for _, c := range d.complaints {
		if c.ID == id || c.TicketID == id {
			return c, true
		}
	}
	return models.Complaint{}, false
}

// Find returns the listed complaint with the given id or ticket id.
func (d *Dashboard) Find(id string) (models.Complaint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findLocked(id)
}

// Actions returns the actions offered for a listed complaint. Students and
// complaints with an update in flight get none.
func (d *Dashboard) Actions(id string) []models.Action {
	if d.role != models.RoleAdmin {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.findLocked(id)
	if !ok || d.busy[c.ID] {
		return nil
	}
	return c.Actions()
}

// Busy reports whether a transition request for id is outstanding.
func (d *Dashboard) Busy(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy[id]
}

// Complaints returns a copy of the displayed list.
func (d *Dashboard) Complaints() []models.Complaint {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Complaint, len(d.complaints))
	copy(out, d.complaints)
	return out
}

// Recent returns at most n complaints from the top of the list.
func (d *Dashboard) Recent(n int) []models.Complaint {
	list := d.Complaints()
	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

// Stats returns the latest statistics snapshot, or nil before the first fetch.
func (d *Dashboard) Stats() *models.Statistics {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stats == nil {
		return nil
	}
	st := *d.stats
	return &st
}

// Loading reports whether a refresh is in flight.
func (d *Dashboard) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// Error returns the banner text, or "".
func (d *Dashboard) Error() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

// ClearError dismisses the banner.
func (d *Dashboard) ClearError() {
	d.mu.Lock()
	d.errMsg = ""
	d.mu.Unlock()
	d.changed()
}

// EmptyMessage returns the empty-state text when the list is empty, or "".
func (d *Dashboard) EmptyMessage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.complaints) > 0 || d.loading {
		return ""
	}
	return msgNoComplaints
}

// Close marks the view as gone; responses landing afterwards are dropped.
func (d *Dashboard) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// Closed reports whether Close was called.
func (d *Dashboard) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dashboard) changed() {
	if d.onChange != nil {
		d.onChange()
	}
}
