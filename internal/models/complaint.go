package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Complaint is one submitted issue as returned by the backend.
type Complaint struct {
	ID            string       `json:"id"`
	TicketID      string       `json:"ticket_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Status        Status       `json:"status"`
	Priority      Priority     `json:"priority"`
	Category      string       `json:"category,omitempty"`
	AdminResponse string       `json:"admin_response,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ResolvedAt    *time.Time   `json:"resolved_at,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file uploaded with a complaint.
type Attachment struct {
	FileURL          string `json:"file_url"`
	FileType         string `json:"file_type"`
	OriginalFilename string `json:"original_filename"`
}

// IsImage reports whether the attachment can be shown in the image overlay.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.FileType), "image/")
}

// HasAttachments reports whether any files were uploaded.
func (c *Complaint) HasAttachments() bool {
	return c != nil && len(c.Attachments) > 0
}

// ImageAttachments returns the image attachments in upload order.
func (c *Complaint) ImageAttachments() []Attachment {
	if c == nil {
		return nil
	}
	var images []Attachment
	for _, a := range c.Attachments {
		if a.IsImage() {
			images = append(images, a)
		}
	}
	return images
}

// Actions returns the admin actions offered for the complaint.
func (c *Complaint) Actions() []Action {
	if c == nil {
		return nil
	}
	return AvailableActions(c.Status)
}

// ErrResolvedAtMismatch is returned by Validate when resolved_at disagrees with the status.
var ErrResolvedAtMismatch = errors.New("resolved_at does not match status")

// Validate checks the resolved_at invariant: set for resolved complaints,
// unset while pending or in progress. Closed complaints may carry either.
func (c *Complaint) Validate() error {
	if !c.Status.Valid() {
		return fmt.Errorf("complaint %s: unknown status %q", c.TicketID, c.Status)
	}
	switch c.Status {
	case StatusResolved:
		if c.ResolvedAt == nil {
			return fmt.Errorf("complaint %s: %w", c.TicketID, ErrResolvedAtMismatch)
		}
	case StatusPending, StatusInProgress:
		if c.ResolvedAt != nil {
			return fmt.Errorf("complaint %s: %w", c.TicketID, ErrResolvedAtMismatch)
		}
	}
	return nil
}

// FilterByStatus returns the complaints in state s, preserving order.
func FilterByStatus(list []Complaint, s Status) []Complaint {
	out := make([]Complaint, 0, len(list))
	for _, c := range list {
		if c.Status == s {
			out = append(out, c)
		}
	}
	return out
}

// StatusStats counts complaints per open state.
type StatusStats struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// Statistics is the aggregate snapshot shown on the admin dashboard.
type Statistics struct {
	TotalComplaints int         `json:"total_complaints"`
	StatusStats     StatusStats `json:"status_stats"`
}

// Pagination describes a page of list results.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// Classification is the advisory category/priority suggestion.
type Classification struct {
	PredictedCategory    string   `json:"predicted_category"`
	PredictedPriority    Priority `json:"predicted_priority"`
	ClassificationMethod string   `json:"classification_method"`
}
