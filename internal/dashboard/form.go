package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/client"
	"github.com/goatkit/querypro/internal/models"
)

// SubmitAPI is the part of the API client the submission form needs.
type SubmitAPI interface {
	Submit(ctx context.Context, req client.SubmitRequest) (*client.SubmitResult, error)
	Classify(ctx context.Context, title, description string) (*models.Classification, error)
}

// Form is the "New Complaint" view.
type Form struct {
	api    SubmitAPI
	logger *slog.Logger

	mu             sync.Mutex
	title          string
	description    string
	attachments    []client.Upload
	classification *models.Classification
	pending        bool
	errMsg         string
	lastTicket     string
}

// NewForm creates an empty form backed by api.
func NewForm(api SubmitAPI, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{api: api, logger: logger}
}

// SetTitle updates the title field.
func (f *Form) SetTitle(s string) {
	f.mu.Lock()
	f.title = s
	f.mu.Unlock()
}

// SetDescription updates the description field.
func (f *Form) SetDescription(s string) {
	f.mu.Lock()
	f.description = s
	f.mu.Unlock()
}

// Attach adds a file to the submission.
func (f *Form) Attach(u client.Upload) {
	f.mu.Lock()
	f.attachments = append(f.attachments, u)
	f.mu.Unlock()
}

// Classify fetches an advisory category and priority for the current text.
// Failures are logged and leave the previous suggestion in place.
func (f *Form) Classify(ctx context.Context) *models.Classification {
	f.mu.Lock()
	title, desc := f.title, f.description
	f.mu.Unlock()

	res, err := f.api.Classify(ctx, title, desc)
	if err != nil {
		f.logger.Debug("classification unavailable", "error", err)
		return f.Classification()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.classification = res
	return res
}

// Classification returns the current suggestion, or nil.
func (f *Form) Classification() *models.Classification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classification
}

// Submit validates the form and sends it. The fields are cleared only after
// the backend accepted the complaint; on failure they are kept for a retry.
func (f *Form) Submit(ctx context.Context) (*client.SubmitResult, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return nil, apierrors.NewWithMessage(apierrors.CodeValidationFailed, "Submission already in progress")
	}
	req := client.SubmitRequest{
		Title:       f.title,
		Description: f.description,
		Attachments: append([]client.Upload(nil), f.attachments...),
	}
	if err := req.Validate(); err != nil {
		f.errMsg = apierrors.UserMessage(err, "Please fill in all required fields")
		f.mu.Unlock()
		return nil, err
	}
	f.pending = true
	f.errMsg = ""
	f.mu.Unlock()

	res, err := f.api.Submit(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil {
		if !apierrors.IsUnauthorized(err) {
			f.errMsg = apierrors.UserMessage(err, "Failed to submit complaint")
		}
		return nil, err
	}
	f.title, f.description = "", ""
	f.attachments = nil
	f.classification = nil
	f.lastTicket = res.TicketID
	f.logger.Info("complaint submitted", "ticket_id", res.TicketID)
	return res, nil
}

// Pending reports whether a submission is in flight.
func (f *Form) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Error returns the banner text of the last failed submission.
func (f *Form) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Fields returns the current title and description.
func (f *Form) Fields() (title, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, f.description
}

// Attachments returns the number of attached files.
func (f *Form) Attachments() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attachments)
}

// LastTicket returns the ticket id of the last accepted submission.
func (f *Form) LastTicket() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTicket
}
