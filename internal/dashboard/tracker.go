package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/models"
)

// TicketLookup resolves a ticket code to a complaint.
type TicketLookup interface {
	FetchByTicket(ctx context.Context, ticketID string) (*models.Complaint, bool, error)
}

// TrackState is the outcome of the last lookup.
type TrackState int

// Tracker states.
const (
	TrackIdle TrackState = iota
	TrackFound
	TrackNotFound
	TrackFailed
)

func (s TrackState) String() string {
	switch s {
	case TrackFound:
		return "found"
	case TrackNotFound:
		return "not_found"
	case TrackFailed:
		return "failed"
	}
	return "idle"
}

// Tracker is the "Track Progress" view: one ticket lookup at a time.
type Tracker struct {
	api    TicketLookup
	logger *slog.Logger

	mu        sync.Mutex
	ticketID  string
	state     TrackState
	complaint *models.Complaint
	errMsg    string
	pending   bool
	closed    bool
}

// NewTracker creates a tracker backed by api.
func NewTracker(api TicketLookup, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{api: api, logger: logger}
}

// Lookup fetches the complaint for ticketID. An unknown ticket is a normal
// outcome (TrackNotFound), not an error.
func (t *Tracker) Lookup(ctx context.Context, ticketID string) (TrackState, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return TrackIdle, apierrors.NewWithMessage(apierrors.CodeValidationFailed, "Please enter a ticket ID")
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return TrackIdle, nil
	}
	t.ticketID = ticketID
	t.pending = true
	t.mu.Unlock()

	c, found, err := t.api.FetchByTicket(ctx, ticketID)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = false
	if t.closed || t.ticketID != ticketID {
		return TrackIdle, nil
	}
	switch {
	case err != nil:
		t.state = TrackFailed
		t.complaint = nil
		t.errMsg = apierrors.UserMessage(err, "Failed to check ticket status")
		t.logger.Warn("ticket lookup failed", "ticket_id", ticketID, "error", err)
		return t.state, err
	case !found:
		t.state = TrackNotFound
		t.complaint = nil
		t.errMsg = ""
	default:
		t.state = TrackFound
		t.complaint = c
		t.errMsg = ""
	}
	return t.state, nil
}

// State returns the outcome of the last lookup.
func (t *Tracker) State() TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Complaint returns the complaint found by the last lookup.
func (t *Tracker) Complaint() *models.Complaint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.complaint
}

// Pending reports whether a lookup is in flight.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Error returns the banner text of a failed lookup.
func (t *Tracker) Error() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// EmptyMessage returns the empty-state text after a not-found lookup.
func (t *Tracker) EmptyMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TrackNotFound {
		return ""
	}
	return fmt.Sprintf("No complaint found for ticket %s", t.ticketID)
}

// Close drops any lookup still in flight.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}
