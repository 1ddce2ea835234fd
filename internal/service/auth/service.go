package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"eato/internal/domain"
	sessionrepo "eato/internal/repository/session"
	userrepo "eato/internal/repository/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided session token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// Service handles sign-up, sign-in and session lookup.
type Service struct {
	users       userrepo.Repository
	sessions    *sessionManager
	logger      *log.Logger
	sessionTTL  time.Duration
	passwordMin int
}

// New creates a Service. A zero sessionTTL falls back to one week.
func New(users userrepo.Repository, sessions sessionrepo.Repository, sessionTTL time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Service{
		users:       users,
		sessions:    newSessionManager(sessions),
		logger:      logger,
		sessionTTL:  sessionTTL,
		passwordMin: 8,
	}
}

// SignUpInput captures fields expected by the sign-up endpoint.
type SignUpInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// SignUp registers a new user and opens a session for it.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, "", fmt.Errorf("%w: email required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: email is malformed", domain.ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	u, err := s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  displayName(in.FirstName, in.LastName),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Printf("auth: signup email=%s error=%v", email, err)
		}
		return nil, "", err
	}
	token, err := s.sessions.Issue(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Printf("auth: signed up uid=%s", u.ID)
	return u, token, nil
}

// SignIn validates credentials and returns the user plus a fresh session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, string, error) {
	password = strings.TrimSpace(password)
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.sessions.Issue(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// SignOut revokes a session token. Unknown tokens are not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// LookupByToken returns the user bound to a live session token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	uid, ok := s.sessions.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// SessionTTLSeconds exposes the session lifetime in seconds.
func (s *Service) SessionTTLSeconds() int {
	return int(s.sessionTTL.Seconds())
}

func displayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func validatePassword(p string, min int) error {
	if len(strings.TrimSpace(p)) < min {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, min)
	}
	return nil
}
