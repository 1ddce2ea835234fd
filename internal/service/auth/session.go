package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"eato/internal/domain"
	sessionrepo "eato/internal/repository/session"
)

type sessionManager struct {
	repo sessionrepo.Repository
	now  func() time.Time
}

func newSessionManager(repo sessionrepo.Repository) *sessionManager {
	return &sessionManager{repo: repo, now: time.Now}
}

func (m *sessionManager) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, sessionrepo.Session{
			Token:     token,
			UserID:    userID,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("session token collision")
}

// Validate reports the owner of a token. Expired sessions are removed on sight.
func (m *sessionManager) Validate(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	s, err := m.repo.Get(ctx, token)
	if err != nil {
		return "", false
	}
	if m.now().After(s.ExpiresAt) {
		_ = m.repo.Delete(ctx, token)
		return "", false
	}
	return s.UserID, true
}

func (m *sessionManager) Revoke(ctx context.Context, token string) error {
	return m.repo.Delete(ctx, token)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
