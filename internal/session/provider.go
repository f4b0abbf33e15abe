package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/models"
)

// ErrNoSession is returned by Init when nothing is stored for the role.
var ErrNoSession = errors.New("no stored session")

// Provider owns the current session for one role. It is created explicitly and
// passed to the views that need identity; there is no package-level session.
type Provider struct {
	store  Store
	role   models.Role
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *models.Session
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger injects a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a provider for role backed by store.
func NewProvider(store Store, role models.Role, opts ...Option) *Provider {
	p := &Provider{
		store:  store,
		role:   role,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Role returns the role this provider serves.
func (p *Provider) Role() models.Role { return p.role }

// Init restores the session from the store. A stored profile that cannot be
// decoded is treated like a missing session and removed.
func (p *Provider) Init(ctx context.Context) (*models.Session, error) {
	tokenKey, userKey := models.SessionKeys(p.role)

	token, okToken, err := p.store.Get(ctx, tokenKey)
	if err != nil {
		return nil, err
	}
	raw, okUser, err := p.store.Get(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if !okToken || !okUser || token == "" {
		return nil, ErrNoSession
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		p.logger.Warn("discarding unreadable stored profile", "role", p.role, "error", err)
		if derr := p.store.Delete(ctx, tokenKey, userKey); derr != nil {
			p.logger.Warn("failed to clear stored session", "error", derr)
		}
		return nil, ErrNoSession
	}

	s := p.build(token, user)
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	return s, nil
}

// Establish persists a freshly issued token and profile.
func (p *Provider) Establish(ctx context.Context, token string, user models.User) (*models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apierrors.NewWithMessage(apierrors.CodeUnauthorized, "Login response did not include a token")
	}
	if user.Role == "" {
		user.Role = p.role
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	tokenKey, userKey := models.SessionKeys(p.role)
	if err := p.store.Set(ctx, tokenKey, token); err != nil {
		return nil, err
	}
	if err := p.store.Set(ctx, userKey, string(raw)); err != nil {
		return nil, err
	}

	s := p.build(token, user)
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	p.logger.Info("session established", "role", p.role, "email", user.Email)
	return s, nil
}

// Current returns the active session or nil.
func (p *Provider) Current() *models.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Token returns the bearer token for the active session. A missing or expired
// session yields a core:unauthorized error so callers send the user to login.
func (p *Provider) Token() (string, error) {
	s := p.Current()
	if s == nil || s.Token == "" {
		return "", apierrors.New(apierrors.CodeUnauthorized)
	}
	if s.Expired(p.now()) {
		return "", apierrors.NewWithMessage(apierrors.CodeUnauthorized, "Session expired, please log in again")
	}
	return s.Token, nil
}

// Teardown clears the stored keys and forgets the active session.
func (p *Provider) Teardown(ctx context.Context) error {
	tokenKey, userKey := models.SessionKeys(p.role)
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	if err := p.store.Delete(ctx, tokenKey, userKey); err != nil {
		return err
	}
	p.logger.Info("session cleared", "role", p.role)
	return nil
}

func (p *Provider) build(token string, user models.User) *models.Session {
	return &models.Session{
		User:      user,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority, this only avoids sending dead tokens.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
