package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"backoffice/internal/cache"
	"backoffice/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	sessionCacheSize = 1000
	sessionCacheTTL  = time.Minute
)

var ErrUnauthorized = errors.New("unauthorized")

// UserStore is the part of the record store backing authentication.
type UserStore interface {
	Authenticate(ctx context.Context, email, password string) (storage.User, error)
	CreateUser(ctx context.Context, email, name, role, password string) (storage.User, error)
	UserByEmail(ctx context.Context, email string) (storage.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (storage.User, error)
	ListUsers(ctx context.Context) ([]storage.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SetPassword(ctx context.Context, id uuid.UUID, password string) error
	CreateSession(ctx context.Context, userID uuid.UUID, ttl time.Duration) (storage.Session, error)
	SessionByToken(ctx context.Context, token string) (storage.Session, storage.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// Principal is the caller a bearer token resolves to. Service principals are
// other back-office processes holding the configured service token.
type Principal struct {
	UserID    uuid.UUID `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role,omitempty"`
	Service   bool      `json:"service,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (p Principal) IsAdmin() bool {
	return !p.Service && p.Role == storage.RoleAdmin
}

// NewUser is the input for creating an account.
type NewUser struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin agent"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AuthService struct {
	store        UserStore
	sessions     *cache.LRUCache[Principal]
	serviceToken string
	sessionTTL   time.Duration
	validate     *validator.Validate
}

func NewAuthService(store UserStore, serviceToken string, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		store:        store,
		sessions:     cache.NewLRUCache[Principal](sessionCacheSize, sessionCacheTTL),
		serviceToken: serviceToken,
		sessionTTL:   sessionTTL,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SessionCache exposes the principal cache so it can be registered with a
// cache.Manager for periodic cleanup.
func (s *AuthService) SessionCache() *cache.LRUCache[Principal] {
	return s.sessions
}

func (s *AuthService) Login(ctx context.Context, email, password string) (storage.Session, storage.User, error) {
	u, err := s.store.Authenticate(ctx, email, password)
	if err != nil {
		return storage.Session{}, storage.User{}, err
	}
	sess, err := s.store.CreateSession(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return storage.Session{}, storage.User{}, err
	}
	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return sess, u, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	s.sessions.Delete(token)
	return s.store.DeleteSession(ctx, token)
}

// Resolve turns a bearer token into a principal. Session lookups are cached
// briefly; the cached entry never outlives the session itself.
func (s *AuthService) Resolve(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnauthorized
	}
	if s.serviceToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.serviceToken)) == 1 {
		return Principal{Service: true, Name: "service"}, nil
	}
	if p, ok := s.sessions.Get(token); ok {
		if time.Now().Before(p.ExpiresAt) {
			return p, nil
		}
		s.sessions.Delete(token)
	}

	sess, u, err := s.store.SessionByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrSessionExpired) {
		return Principal{}, ErrUnauthorized
	}
	if err != nil {
		return Principal{}, fmt.Errorf("resolve session: %w", err)
	}
	p := Principal{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		ExpiresAt: sess.ExpiresAt,
	}
	s.sessions.Set(token, p)
	return p, nil
}

func (s *AuthService) CreateUser(ctx context.Context, in NewUser) (storage.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return storage.User{}, userValidationError(err)
	}
	return s.store.CreateUser(ctx, in.Email, in.Name, in.Role, in.Password)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]storage.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (storage.User, error) {
	return s.store.GetUser(ctx, id)
}

// DeleteUser removes the account and drops any cached session of it.
func (s *AuthService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.forget(id)
	return nil
}

// SetPassword changes a password; the store revokes existing sessions.
func (s *AuthService) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	if err := s.validate.Var(password, "required,min=8,max=72"); err != nil {
		return userValidationError(err)
	}
	if err := s.store.SetPassword(ctx, id, password); err != nil {
		return err
	}
	s.forget(id)
	return nil
}

// BootstrapAdmin creates the first administrator when email is set and no
// account uses it yet.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	_, err := s.store.UserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}
	if _, err := s.CreateUser(ctx, NewUser{Email: email, Name: "Administrator", Role: storage.RoleAdmin, Password: password}); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	slog.InfoContext(ctx, "Bootstrap administrator created", "email", email)
	return nil
}

func (s *AuthService) forget(id uuid.UUID) {
	s.sessions.DeleteFunc(func(_ string, p Principal) bool {
		return p.UserID == id
	})
}

// ErrInvalidUser wraps account validation failures.
var ErrInvalidUser = errors.New("invalid user")

func userValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		if field == "" {
			field = "password"
		}
		return fmt.Errorf("%w: %s failed %s", ErrInvalidUser, field, fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidUser, err)
}
