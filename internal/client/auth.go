package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/models"
)

// LoginResult carries the issued token and the user profile.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates against the student or admin entry point.
func (c *Client) Login(ctx context.Context, email, password string, role models.Role) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apierrors.NewWithMessage(apierrors.CodeValidationFailed, "Email and password are required")
	}
	path := "/api/auth/login"
	if role == models.RoleAdmin {
		path = "/api/admin/login"
	}

	var out struct {
		envelope
		LoginResult
	}
	err := c.do(ctx, call{
		operation: "login",
		method:    http.MethodPost,
		path:      path,
		prepare: func(r *resty.Request) {
			r.SetHeader("Content-Type", "application/json").
				SetBody(map[string]string{"email": email, "password": password})
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.User.Role == "" {
		out.User.Role = role
	}
	return &out.LoginResult, nil
}
