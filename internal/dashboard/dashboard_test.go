package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/client"
	"github.com/goatkit/querypro/internal/models"
)

// fakeAPI is an in-memory ComplaintAPI. Errors set on it are returned once.
type fakeAPI struct {
	mu         sync.Mutex
	complaints []models.Complaint
	listErr    error
	statsErr   error
	updateErr  error
	updates    []update
	fetchCalls int
	statsCalls int
	beforeList func()
}

type update struct {
	id     string
	status models.Status
	note   string
}

func (f *fakeAPI) FetchAll(_ context.Context, filter models.Status) (*client.ComplaintPage, error) {
	if f.beforeList != nil {
		f.beforeList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if err := f.listErr; err != nil {
		f.listErr = nil
		return nil, err
	}
	list := append([]models.Complaint(nil), f.complaints...)
	if filter != "" {
		list = models.FilterByStatus(list, filter)
	}
	return &client.ComplaintPage{Complaints: list}, nil
}

func (f *fakeAPI) FetchMine(ctx context.Context, _, _ int) (*client.ComplaintPage, error) {
	return f.FetchAll(ctx, "")
}

func (f *fakeAPI) FetchStats(context.Context) (*models.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	if err := f.statsErr; err != nil {
		f.statsErr = nil
		return nil, err
	}
	return computeStats(f.complaints), nil
}

func (f *fakeAPI) UpdateStatus(_ context.Context, id string, status models.Status, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr; err != nil {
		f.updateErr = nil
		return err
	}
	f.updates = append(f.updates, update{id: id, status: status, note: note})
	for i := range f.complaints {
		if f.complaints[i].ID == id {
			f.complaints[i].Status = status
			if status == models.StatusResolved {
				now := time.Now()
				f.complaints[i].ResolvedAt = &now
				f.complaints[i].AdminResponse = note
			}
		}
	}
	return nil
}

func sampleComplaints() []models.Complaint {
	return []models.Complaint{
		{ID: "1", TicketID: "QP-2026-0001", Title: "Broken projector", Status: models.StatusPending, Priority: models.PriorityHigh},
		{ID: "2", TicketID: "QP-2026-0002", Title: "Wifi down", Status: models.StatusInProgress, Priority: models.PriorityUrgent},
		{ID: "3", TicketID: "QP-2026-0003", Title: "Cold food", Status: models.StatusResolved, Priority: models.PriorityLow},
		{ID: "4", TicketID: "QP-2026-0004", Title: "Old request", Status: models.StatusClosed, Priority: models.PriorityMedium},
	}
}

func newAdmin(t *testing.T) (*Dashboard, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{complaints: sampleComplaints()}
	return New(api, models.RoleAdmin), api
}

func TestNavigation(t *testing.T) {
	admin := Navigation(models.RoleAdmin)
	require.Len(t, admin, 5)
	assert.Equal(t, SectionAll, admin[1].Section)
	assert.False(t, HasSection(models.RoleAdmin, SectionNew))

	student := Navigation(models.RoleStudent)
	require.Len(t, student, 5)
	assert.True(t, HasSection(models.RoleStudent, SectionTrack))
	assert.False(t, HasSection(models.RoleStudent, SectionPending))
}

func TestSectionStatusFilter(t *testing.T) {
	tests := []struct {
		section Section
		status  models.Status
		lists   bool
	}{
		{SectionDashboard, "", true},
		{SectionAll, "", true},
		{SectionPending, models.StatusPending, true},
		{SectionInProgress, models.StatusInProgress, true},
		{SectionResolved, models.StatusResolved, true},
		{SectionMine, "", true},
		{SectionNew, "", false},
		{SectionTrack, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			st, ok := tt.section.StatusFilter()
			assert.Equal(t, tt.status, st)
			assert.Equal(t, tt.lists, ok)
		})
	}
}

func TestSetSection_Filters(t *testing.T) {
	d, _ := newAdmin(t)
	ctx := context.Background()

	require.NoError(t, d.SetSection(ctx, SectionPending))
	list := d.Complaints()
	require.Len(t, list, 1)
	assert.Equal(t, "QP-2026-0001", list[0].TicketID)

	require.NoError(t, d.SetSection(ctx, SectionAll))
	assert.Len(t, d.Complaints(), 4)

	stats := d.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.TotalComplaints)
	assert.Equal(t, 1, stats.StatusStats.Pending)

	err := d.SetSection(ctx, SectionNew)
	assert.True(t, apierrors.Is(err, apierrors.CodeValidationFailed))
	assert.Equal(t, SectionAll, d.Section())
}

func TestTransition_StartThenResolve(t *testing.T) {
	d, api := newAdmin(t)
	ctx := context.Background()
	require.NoError(t, d.SetSection(ctx, SectionAll))

	assert.Equal(t, []models.Action{models.ActionStartProgress}, d.Actions("1"))
	require.NoError(t, d.Transition(ctx, "1", models.ActionStartProgress, ""))

	c, ok := d.Find("1")
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, c.Status)
	assert.Equal(t, []models.Action{models.ActionMarkResolved}, d.Actions("1"))

	require.NoError(t, d.Transition(ctx, "QP-2026-0001", models.ActionMarkResolved, "Replaced the bulb"))
	c, _ = d.Find("1")
	assert.Equal(t, models.StatusResolved, c.Status)
	assert.NotNil(t, c.ResolvedAt)
	assert.Empty(t, d.Actions("1"))

	require.Len(t, api.updates, 2)
	assert.Equal(t, update{id: "1", status: models.StatusResolved, note: "Replaced the bulb"}, api.updates[1])
	assert.Equal(t, 2, d.Stats().StatusStats.Resolved)
}

func TestTransition_NotAllowed(t *testing.T) {
	d, api := newAdmin(t)
	ctx := context.Background()
	require.NoError(t, d.SetSection(ctx, SectionAll))

	for _, id := range []string{"3", "4"} {
		assert.Empty(t, d.Actions(id))
		err := d.Transition(ctx, id, models.ActionStartProgress, "")
		assert.True(t, apierrors.Is(err, apierrors.CodeInvalidTransition))
	}
	err := d.Transition(ctx, "2", models.ActionStartProgress, "")
	assert.True(t, apierrors.Is(err, apierrors.CodeInvalidTransition))
	assert.NotEmpty(t, d.Error())
	assert.Empty(t, api.updates)

	err = d.Transition(ctx, "99", models.ActionStartProgress, "")
	assert.True(t, apierrors.Is(err, apierrors.CodeNotFound))
}

func TestTransition_StudentForbidden(t *testing.T) {
	api := &fakeAPI{complaints: sampleComplaints()}
	d := New(api, models.RoleStudent)
	ctx := context.Background()
	require.NoError(t, d.SetSection(ctx, SectionMine))

	assert.Nil(t, d.Actions("1"))
	err := d.Transition(ctx, "1", models.ActionStartProgress, "")
	assert.True(t, apierrors.Is(err, apierrors.CodeForbidden))
	assert.Empty(t, api.updates)
}

func TestTransition_FailureShowsBanner(t *testing.T) {
	d, api := newAdmin(t)
	ctx := context.Background()
	require.NoError(t, d.SetSection(ctx, SectionAll))

	api.updateErr = &apierrors.Error{Code: apierrors.CodeApplication, Status: 500}
	err := d.Transition(ctx, "1", models.ActionStartProgress, "")
	require.Error(t, err)
	assert.Equal(t, msgUpdateFailed, d.Error())
	assert.False(t, d.Busy("1"))

	c, _ := d.Find("1")
	assert.Equal(t, models.StatusPending, c.Status)
}

func TestRefresh_FailureKeepsPreviousList(t *testing.T) {
	d, api := newAdmin(t)
	ctx := context.Background()
	require.NoError(t, d.SetSection(ctx, SectionAll))

	api.listErr = apierrors.NewWithMessage(apierrors.CodeApplication, "Database unavailable")
	err := d.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, "Database unavailable", d.Error())
	assert.Len(t, d.Complaints(), 4)

	api.listErr = &apierrors.Error{Code: apierrors.CodeApplication, Status: 500}
	require.Error(t, d.Refresh(ctx))
	assert.Equal(t, msgFetchFailed, d.Error())

	require.NoError(t, d.Refresh(ctx))
	assert.Empty(t, d.Error())
}

func TestRefresh_StatsFailureIsSilent(t *testing.T) {
	d, api := newAdmin(t)
	ctx := context.Background()
	api.statsErr = apierrors.New(apierrors.CodeNetwork)

	require.NoError(t, d.SetSection(ctx, SectionAll))
	assert.Empty(t, d.Error())
	assert.Nil(t, d.Stats())
	assert.Len(t, d.Complaints(), 4)
}

func TestRefresh_UnauthorizedHasNoBanner(t *testing.T) {
	d, api := newAdmin(t)
	api.listErr = apierrors.New(apierrors.CodeUnauthorized)

	err := d.SetSection(context.Background(), SectionAll)
	assert.True(t, apierrors.IsUnauthorized(err))
	assert.Empty(t, d.Error())
}

func TestStudentStatsComputedLocally(t *testing.T) {
	api := &fakeAPI{complaints: sampleComplaints()}
	d := New(api, models.RoleStudent)

	ctx := context.Background()
	want := models.Statistics{TotalComplaints: 4}
	want.StatusStats.Pending = 1
	want.StatusStats.InProgress = 1
	want.StatusStats.Resolved = 1

	require.NoError(t, d.SetSection(ctx, SectionDashboard))
	require.NotNil(t, d.Stats())
	assert.Equal(t, want, *d.Stats())

	// switching to a filtered section keeps the aggregate
	require.NoError(t, d.SetSection(ctx, SectionResolved))
	require.Len(t, d.Complaints(), 1)
	assert.Zero(t, api.statsCalls)
	require.NotNil(t, d.Stats())
	assert.Equal(t, want, *d.Stats())
}

func TestClose_DropsLateResponses(t *testing.T) {
	d, api := newAdmin(t)
	api.beforeList = d.Close

	require.NoError(t, d.SetSection(context.Background(), SectionAll))
	assert.True(t, d.Closed())
	assert.Empty(t, d.Complaints())

	api.beforeList = nil
	require.NoError(t, d.Refresh(context.Background()))
	assert.Empty(t, d.Complaints())
}

func TestEmptyMessageAndRecent(t *testing.T) {
	api := &fakeAPI{}
	changes := 0
	d := New(api, models.RoleAdmin, WithOnChange(func() { changes++ }))
	require.NoError(t, d.SetSection(context.Background(), SectionPending))
	assert.Equal(t, "No complaints found", d.EmptyMessage())
	assert.Positive(t, changes)

	api.complaints = sampleComplaints()
	require.NoError(t, d.Refresh(context.Background()))
	assert.Empty(t, d.EmptyMessage())

	require.NoError(t, d.SetSection(context.Background(), SectionAll))
	assert.Len(t, d.Recent(2), 2)
	assert.Len(t, d.Recent(10), 4)
}
