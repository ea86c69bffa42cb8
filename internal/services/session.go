package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// SessionService handles login, logout and the current identity of a
// browser session
type SessionService struct {
	api         AuthAPI
	credentials CredentialStore
	log         logrus.FieldLogger
}

// NewSessionService creates a new session service
func NewSessionService(api AuthAPI, credentials CredentialStore, log logrus.FieldLogger) *SessionService {
	return &SessionService{
		api:         api,
		credentials: credentials,
		log:         log.WithField("component", "session"),
	}
}

// Login exchanges credentials for a token and stores it for the session.
// The returned identity is best effort; a failed lookup does not undo the login.
func (s *SessionService) Login(ctx context.Context, sessionID string, req *models.LoginRequest) (*models.Identity, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	email := strings.TrimSpace(req.Email)
	token, err := s.api.Login(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	if err := s.credentials.SetCredential(ctx, sessionID, token); err != nil {
		return nil, err
	}

	identity, err := s.api.Me(ctx, token)
	if err != nil {
		s.log.WithField("session_id", sessionID).WithError(err).Warn("identity lookup after login failed")
		return &models.Identity{Email: email}, nil
	}

	s.log.WithField("session_id", sessionID).Info("session logged in")
	return identity, nil
}

// Logout clears the credential. The cart and any checkout record are kept.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	return s.credentials.ClearCredential(ctx, sessionID)
}

// Me returns the identity behind the session's credential
func (s *SessionService) Me(ctx context.Context, sessionID string) (*models.Identity, error) {
	token, ok, err := s.credentials.GetCredential(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrAuthRequired
	}

	identity, err := s.api.Me(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrAuthRequired) {
			return nil, models.ErrAuthRequired
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return identity, nil
}

// IsAuthenticated reports whether a credential is present
func (s *SessionService) IsAuthenticated(ctx context.Context, sessionID string) (bool, error) {
	_, ok, err := s.credentials.GetCredential(ctx, sessionID)
	return ok, err
}
