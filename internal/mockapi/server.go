// Package mockapi is an in-memory implementation of the Query Pro backend
// contract. It backs the client tests and the `querypro mock-server` command.
package mockapi

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goatkit/querypro/internal/models"
)

type account struct {
	user models.User
	hash []byte
}

type record struct {
	complaint models.Complaint
	ownerID   string
}

// Server holds the mock backend state.
type Server struct {
	mu       sync.RWMutex
	accounts map[string]*account // email -> account
	records  []*record
	seq      int

	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures the mock server.
type Option func(*Server)

// WithSecret sets the HMAC secret used to sign tokens.
func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithLogger injects a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates an empty mock backend.
func New(opts ...Option) *Server {
	s := &Server{
		accounts: make(map[string]*account),
		secret:   []byte("querypro-mock-secret"),
		ttl:      24 * time.Hour,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedUser registers an account and returns its profile.
func (s *Server) SeedUser(name, email, password string, role models.Role) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	u := models.User{ID: uuid.NewString(), Name: name, Email: strings.ToLower(email), Role: role}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[u.Email] = &account{user: u, hash: hash}
	return u, nil
}

// SeedComplaint stores c on behalf of ownerID, assigning ids when missing.
func (s *Server) SeedComplaint(ownerID string, c models.Complaint) models.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.TicketID == "" {
		c.TicketID = s.nextTicketIDLocked()
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.records = append(s.records, &record{complaint: c, ownerID: ownerID})
	return c
}

// Complaint returns a copy of the stored complaint with id.
func (s *Server) Complaint(id string) (models.Complaint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.complaint.ID == id {
			return r.complaint, true
		}
	}
	return models.Complaint{}, false
}

func (s *Server) nextTicketIDLocked() string {
	s.seq++
	return fmt.Sprintf("QP-%d-%04d", s.now().Year(), s.seq)
}

type claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for u.
func (s *Server) IssueToken(u models.User) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return tok.SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Server) authenticate(email, password string) (models.User, bool) {
	s.mu.RLock()
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, false
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return models.User{}, false
	}
	return acc.user, true
}

// SeedDemo loads two accounts and a handful of complaints for local use.
func (s *Server) SeedDemo() error {
	if _, err := s.SeedUser("Query Pro Admin", "admin@querypro.test", "admin123", models.RoleAdmin); err != nil {
		return err
	}
	student, err := s.SeedUser("Demo Student", "student@querypro.test", "student123", models.RoleStudent)
	if err != nil {
		return err
	}

	now := s.now()
	resolvedAt := now.Add(-20 * time.Hour)
	s.SeedComplaint(student.ID, models.Complaint{
		Title:       "Hostel WiFi Issue",
		Description: "WiFi in block C drops every evening.",
		Priority:    models.PriorityHigh,
		Category:    "Infrastructure",
		CreatedAt:   now.Add(-2 * time.Hour),
	})
	s.SeedComplaint(student.ID, models.Complaint{
		Title:       "Cafeteria Service",
		Description: "Lunch counter closes before the posted time.",
		Status:      models.StatusInProgress,
		Priority:    models.PriorityMedium,
		Category:    "Food Services",
		CreatedAt:   now.Add(-24 * time.Hour),
	})
	s.SeedComplaint(student.ID, models.Complaint{
		Title:         "Library Access",
		Description:   "ID card is not accepted at the library gate.",
		Status:        models.StatusResolved,
		Priority:      models.PriorityLow,
		Category:      "Administration",
		AdminResponse: "Card re-issued.",
		CreatedAt:     now.Add(-72 * time.Hour),
		ResolvedAt:    &resolvedAt,
		Attachments: []models.Attachment{
			{FileURL: "/uploads/demo/gate.jpg", FileType: "image/jpeg", OriginalFilename: "gate.jpg"},
			{FileURL: "/uploads/demo/card.png", FileType: "image/png", OriginalFilename: "card.png"},
			{FileURL: "/uploads/demo/receipt.pdf", FileType: "application/pdf", OriginalFilename: "receipt.pdf"},
		},
	})
	return nil
}
