package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/utils"
)

type contextKey string

const userIDKey contextKey = "fakeapi_user_id"

type fakeUser struct {
	id           string
	name         string
	email        string
	passwordHash string
}

func (u *fakeUser) identity() models.Identity {
	return models.Identity{ID: u.id, Name: u.name, Email: u.email}
}

// AddUser registers an account and returns its id
func (s *Server) AddUser(email, name, password string) (string, error) {
	hash, err := utils.HashPassword(password, utils.FastPasswordHashConfig())
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	key := strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return "", fmt.Errorf("user %s already exists", email)
	}

	user := &fakeUser{
		id:           uuid.NewString(),
		name:         name,
		email:        key,
		passwordHash: hash,
	}
	s.users[key] = user
	return user.id, nil
}

// IssueToken signs an access token for the user with the given email
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	user, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("user %s not found", email)
	}
	return s.signToken(user)
}

func (s *Server) signToken(user *fakeUser) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// authenticated rejects requests without a valid bearer token
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		userID, err := s.parseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (s *Server) userByID(id string) (*fakeUser, bool) {
	for _, u := range s.users {
		if u.id == id {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	s.mu.Lock()
	user, ok := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	match, err := utils.VerifyPassword(req.Password, user.passwordHash)
	if err != nil || !match {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	token, err := s.signToken(user)
	if err != nil {
		s.log.WithError(err).Error("failed to sign token")
		writeError(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	user, ok := s.userByID(userIDFrom(r.Context()))
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unknown user")
		return
	}
	writeJSON(w, http.StatusOK, user.identity())
}
