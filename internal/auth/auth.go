// Package auth owns password hashing and server-side sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"spendwise/internal/cache"
	"spendwise/internal/core"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Store is the persistence the service needs. *storage.SQLiteRepository
// satisfies it.
type Store interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	store    Store
	ttl      time.Duration
	cost     int
	sessions *cache.LRUCache[core.Session]
	now      func() time.Time
}

type Option func(*Service)

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithSessionCache fronts session lookups with an LRU cache.
func WithSessionCache(c *cache.LRUCache[core.Session]) Option {
	return func(s *Service) { s.sessions = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		store: store,
		ttl:   ttl,
		cost:  DefaultCost,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a user. A taken email yields core.ErrConflict.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return core.User{}, ErrMissingFields
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, fmt.Errorf("register %s: %w", email, core.ErrConflict)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, err
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return core.User{}, err
	}

	return s.store.CreateUser(ctx, core.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, core.Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return core.User{}, core.Session{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, core.Session{}, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return core.User{}, core.Session{}, ErrInvalidCredentials
	}

	now := s.now()
	session := core.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return core.User{}, core.Session{}, err
	}
	if s.sessions != nil {
		s.sessions.Set(session.Token, session)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return user, session, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if s.sessions != nil {
		s.sessions.Delete(token)
	}
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a session token. Unknown and expired tokens both
// return ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, ErrUnauthorized
	}

	session, ok := core.Session{}, false
	if s.sessions != nil {
		session, ok = s.sessions.Get(token)
	}
	if !ok {
		var err error
		session, err = s.store.GetSession(ctx, token)
		if errors.Is(err, core.ErrNotFound) {
			return core.Session{}, ErrUnauthorized
		}
		if err != nil {
			return core.Session{}, err
		}
		if s.sessions != nil {
			s.sessions.Set(token, session)
		}
	}

	if !s.now().Before(session.ExpiresAt) {
		if s.sessions != nil {
			s.sessions.Delete(token)
		}
		return core.Session{}, ErrUnauthorized
	}
	return session, nil
}

// CurrentUser loads the session's user. A deleted user yields core.ErrNotFound.
func (s *Service) CurrentUser(ctx context.Context, session core.Session) (core.User, error) {
	return s.store.GetUser(ctx, session.UserID)
}

// PurgeExpired deletes expired sessions from the store.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
	return n, nil
}
