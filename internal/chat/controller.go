// Package chat holds the assistant popup state: an in-memory transcript, a
// single pending flag and the inline failure notice.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/client"
	"github.com/goatkit/querypro/internal/models"
)

// Backend answers assistant messages.
type Backend interface {
	Chat(ctx context.Context, req client.ChatRequest) (*models.ChatReply, error)
}

// Identity supplies the signed-in user sent along with every message.
type Identity interface {
	Current() *models.Session
}

// Controller is the assistant chat popup.
type Controller struct {
	backend  Backend
	identity Identity
	logger   *slog.Logger
	now      func() time.Time
	greeting string

	mu         sync.Mutex
	transcript []models.ChatMessage
	pending    bool
	notice     string
	closed     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger injects a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithGreeting seeds the transcript with a bot message.
func WithGreeting(text string) Option {
	return func(c *Controller) {
		c.greeting = text
	}
}

// NewController opens a chat popup.
func NewController(backend Backend, identity Identity, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		identity: identity,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.greeting != "" {
		c.transcript = append(c.transcript, c.message(c.greeting, models.SenderBot, nil))
	}
	return c
}

func (c *Controller) message(text string, sender models.Sender, complaint *models.Complaint) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: c.now(),
		Complaint: complaint,
	}
}

// Send appends the user message, asks the backend and appends its reply.
// Blank text is ignored. Only one request may be outstanding at a time.
// A failed request sets Notice and adds nothing to the transcript.
func (c *Controller) Send(ctx context.Context, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil
	}
	if c.pending {
		c.mu.Unlock()
		return nil, apierrors.New(CodeRequestPending)
	}
	c.transcript = append(c.transcript, c.message(text, models.SenderUser, nil))
	c.pending = true
	c.notice = ""
	c.mu.Unlock()

	req := client.ChatRequest{Message: text}
	if c.identity != nil {
		if s := c.identity.Current(); s != nil {
			req.UserID = s.ID
			req.UserRole = s.Role
		}
	}
	reply, err := c.backend.Chat(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if c.closed {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("assistant request failed", "error", err)
		if apierrors.IsUnauthorized(err) {
			return nil, err
		}
		c.notice = NoticeUnavailable
		return nil, apierrors.Wrap(CodeUnavailable, err)
	}
	msg := c.message(reply.BotResponse, models.SenderBot, reply.Complaint)
	c.transcript = append(c.transcript, msg)
	return &msg, nil
}

// Transcript returns a copy of the messages in order.
func (c *Controller) Transcript() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Pending reports whether a reply is outstanding.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Notice returns the inline failure notice, or "".
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Close discards the transcript. A reply arriving afterwards is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.transcript = nil
	c.notice = ""
	c.mu.Unlock()
}

// Closed reports whether the popup was closed.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
