package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/models"
)

// ChatRequest is one user message to the assistant.
type ChatRequest struct {
	Message  string      `json:"message"`
	UserID   string      `json:"user_id"`
	UserRole models.Role `json:"user_role"`
}

// Chat sends a message to the assistant and returns its reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*models.ChatReply, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, apierrors.NewWithMessage(apierrors.CodeValidationFailed, "Message is empty")
	}
	var out struct {
		envelope
		models.ChatReply
	}
	err := c.do(ctx, call{
		operation: "chat",
		method:    http.MethodPost,
		path:      "/api/chatbot/chat",
		auth:      true,
		prepare: func(r *resty.Request) {
			r.SetHeader("Content-Type", "application/json").SetBody(req)
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.ChatReply, nil
}
