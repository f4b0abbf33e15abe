// Package client is the typed SDK for the Query Pro REST API.
package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/goatkit/querypro/internal/apierrors"
)

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to the Query Pro backend.
type Client struct {
	http    *resty.Client
	tokens  TokenSource
	logger  *slog.Logger
	metrics *apiMetrics
}

type options struct {
	Logger     *slog.Logger
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
	Metrics    bool
}

// Option applies configuration to the client.
type Option func(*options)

func defaultOptions() options {
	return options{Logger: slog.Default(), Timeout: 30 * time.Second, UserAgent: "querypro-cli", Metrics: true}
}

// WithLogger injects a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.Logger = l
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.Timeout = d
	}
}

// WithHTTPClient supplies the underlying transport, e.g. an httptest client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.HTTPClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.UserAgent = ua
	}
}

// WithoutMetrics disables prometheus instrumentation.
func WithoutMetrics() Option {
	return func(o *options) {
		o.Metrics = false
	}
}

// New creates a client for the backend at baseURL. tokens may be nil for
// clients that only log in.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var rc *resty.Client
	if o.HTTPClient != nil {
		rc = resty.NewWithClient(o.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(o.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", o.UserAgent).
		SetRetryCount(0)

	c := &Client{http: rc, tokens: tokens, logger: o.Logger}
	if o.Metrics {
		c.metrics = globalAPIMetrics()
	}
	return c
}

// envelope is the common part of every backend response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type call struct {
	operation string
	method    string
	path      string
	auth      bool
	prepare   func(*resty.Request)
}

// do executes a call and decodes the full body into out. It maps every
// failure onto the apierrors taxonomy: transport errors become core:network,
// 401 becomes core:unauthorized, success:false becomes core:application.
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	var status int
	if c.metrics != nil {
		done := c.metrics.start(cl.operation)
		defer func() { done(outcomeLabel(status, apierrors.CodeOf(err))) }()
	}

	req := c.http.R().SetContext(ctx)
	if cl.auth {
		if c.tokens == nil {
			return apierrors.New(apierrors.CodeUnauthorized)
		}
		token, terr := c.tokens.Token()
		if terr != nil {
			return terr
		}
		req.SetAuthToken(token)
	}
	if cl.prepare != nil {
		cl.prepare(req)
	}

	resp, rerr := req.Execute(cl.method, cl.path)
	if rerr != nil {
		c.logger.Warn("api request failed", "operation", cl.operation, "error", rerr)
		return apierrors.Wrap(apierrors.CodeNetwork, rerr)
	}
	status = resp.StatusCode()

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	switch {
	case status == http.StatusUnauthorized:
		return apierrors.NewWithMessage(apierrors.CodeUnauthorized, env.text())
	case status == http.StatusForbidden:
		return apierrors.NewWithMessage(apierrors.CodeForbidden, env.text())
	case status == http.StatusNotFound:
		return &apierrors.Error{Code: apierrors.CodeNotFound, Message: env.text(), Status: status}
	case !resp.IsSuccess():
		return &apierrors.Error{Code: apierrors.CodeApplication, Message: env.text(), Status: status}
	case decodeErr != nil:
		return apierrors.Wrap(apierrors.CodeBadResponse, decodeErr)
	case !env.Success:
		return &apierrors.Error{Code: apierrors.CodeApplication, Message: env.text(), Status: status}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return apierrors.Wrap(apierrors.CodeBadResponse, err)
		}
	}
	c.logger.Debug("api request completed", "operation", cl.operation, "status", status)
	return nil
}
