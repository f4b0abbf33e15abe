package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ComplaintPage is one page of complaints.
type ComplaintPage struct {
	Complaints []models.Complaint `json:"complaints"`
	Pagination models.Pagination  `json:"pagination"`
}

type complaintListResponse struct {
	envelope
	Data ComplaintPage `json:"data"`
}

// FetchAll lists every complaint, optionally filtered server-side by status.
// An empty filter lists all states.
func (c *Client) FetchAll(ctx context.Context, filter models.Status) (*ComplaintPage, error) {
	if filter != "" && !filter.Valid() {
		return nil, apierrors.NewWithMessage(apierrors.CodeValidationFailed, fmt.Sprintf("unknown status filter %q", filter))
	}
	var out complaintListResponse
	err := c.do(ctx, call{
		operation: "complaints_all",
		method:    http.MethodGet,
		path:      "/api/complaints/all",
		auth:      true,
		prepare: func(r *resty.Request) {
			if filter != "" {
				r.SetQueryParam("status", string(filter))
			}
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Data.Complaints == nil {
		out.Data.Complaints = []models.Complaint{}
	}
	return &out.Data, nil
}

// FetchMine lists the complaints of the logged-in student.
func (c *Client) FetchMine(ctx context.Context, page, perPage int) (*ComplaintPage, error) {
	var out complaintListResponse
	err := c.do(ctx, call{
		operation: "complaints_mine",
		method:    http.MethodGet,
		path:      "/api/complaints/my-complaints",
		auth:      true,
		prepare: func(r *resty.Request) {
			if page > 0 {
				r.SetQueryParam("page", strconv.Itoa(page))
			}
			if perPage > 0 {
				r.SetQueryParam("per_page", strconv.Itoa(perPage))
			}
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Data.Complaints == nil {
		out.Data.Complaints = []models.Complaint{}
	}
	return &out.Data, nil
}

// FetchStats returns the aggregate snapshot.
func (c *Client) FetchStats(ctx context.Context) (*models.Statistics, error) {
	var out struct {
		envelope
		Data models.Statistics `json:"data"`
	}
	err := c.do(ctx, call{
		operation: "complaints_stats",
		method:    http.MethodGet,
		path:      "/api/complaints/stats",
		auth:      true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// FetchByTicket looks a complaint up by its human-readable ticket code.
// An unknown ticket is reported as found=false with a nil error.
func (c *Client) FetchByTicket(ctx context.Context, ticketID string) (*models.Complaint, bool, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, false, apierrors.NewWithMessage(apierrors.CodeValidationFailed, "Please enter a ticket ID")
	}
	var out struct {
		envelope
		HasComplaintData bool              `json:"has_complaint_data"`
		ComplaintData    *models.Complaint `json:"complaint_data"`
	}
	err := c.do(ctx, call{
		operation: "check_status",
		method:    http.MethodGet,
		path:      "/api/chatbot/check-status",
		auth:      true,
		prepare: func(r *resty.Request) {
			r.SetQueryParam("ticket_id", ticketID)
		},
	}, &out)
	if apierrors.Is(err, apierrors.CodeNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !out.HasComplaintData || out.ComplaintData == nil {
		return nil, false, nil
	}
	return out.ComplaintData, true, nil
}

// UpdateStatus moves a complaint to status, optionally recording an admin response.
func (c *Client) UpdateStatus(ctx context.Context, complaintID string, status models.Status, adminResponse string) error {
	if strings.TrimSpace(complaintID) == "" {
		return apierrors.NewWithMessage(apierrors.CodeValidationFailed, "complaint id is required")
	}
	if !status.Valid() {
		return apierrors.NewWithMessage(apierrors.CodeValidationFailed, fmt.Sprintf("unknown status %q", status))
	}
	return c.do(ctx, call{
		operation: "update_status",
		method:    http.MethodPut,
		path:      "/api/complaints/{id}/update-status",
		auth:      true,
		prepare: func(r *resty.Request) {
			r.SetPathParam("id", complaintID).
				SetHeader("Content-Type", "application/json").
				SetBody(map[string]string{
					"status":         string(status),
					"admin_response": adminResponse,
				})
		},
	}, nil)
}

// Upload is a file attached to a new complaint.
type Upload struct {
	Filename string    `validate:"required"`
	Reader   io.Reader `validate:"required"`
}

// SubmitRequest is the new-complaint form.
type SubmitRequest struct {
	Title       string   `validate:"required,max=200"`
	Description string   `validate:"required"`
	Attachments []Upload `validate:"dive"`
}

// Validate trims the text fields and checks that both are present.
func (r *SubmitRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apierrors.NewWithMessage(apierrors.CodeValidationFailed, validationMessage(verrs[0]))
		}
		return apierrors.Wrap(apierrors.CodeValidationFailed, err)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
}

// SubmitResult is returned after a complaint is accepted.
type SubmitResult struct {
	Message   string            `json:"message"`
	TicketID  string            `json:"ticket_id"`
	Complaint *models.Complaint `json:"complaint,omitempty"`
}

// Submit validates and sends a new complaint as multipart form data. Nothing
// is sent when validation fails.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out struct {
		envelope
		Data SubmitResult `json:"data"`
	}
	err := c.do(ctx, call{
		operation: "submit",
		method:    http.MethodPost,
		path:      "/api/complaints/submit",
		auth:      true,
		prepare: func(r *resty.Request) {
			r.SetMultipartFormData(map[string]string{
				"title":       req.Title,
				"description": req.Description,
			})
			for _, a := range req.Attachments {
				r.SetFileReader("attachments", a.Filename, a.Reader)
			}
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Data.Message == "" {
		out.Data.Message = out.Message
	}
	return &out.Data, nil
}

// Classify asks the categorization service for an advisory category and priority.
func (c *Client) Classify(ctx context.Context, title, description string) (*models.Classification, error) {
	query := strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(description))
	if query == "" {
		return nil, apierrors.NewWithMessage(apierrors.CodeValidationFailed, "Nothing to classify")
	}
	var out struct {
		envelope
		Data models.Classification `json:"data"`
	}
	err := c.do(ctx, call{
		operation: "classify",
		method:    http.MethodPost,
		path:      "/api/ml/classify",
		auth:      true,
		prepare: func(r *resty.Request) {
			r.SetHeader("Content-Type", "application/json").
				SetBody(map[string]string{"query": query})
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}
