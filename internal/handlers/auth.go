package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/middleware"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/services"
)

// AuthHandler handles login, logout and the identity greeting
type AuthHandler struct {
	sessions *services.SessionService
	log      logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *services.SessionService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		log:      log.WithField("component", "handlers.auth"),
	}
}

type identityView struct {
	models.Identity
	FirstName string `json:"first_name"`
}

func newIdentityView(identity *models.Identity) identityView {
	return identityView{Identity: *identity, FirstName: identity.FirstName()}
}

// Login handles POST /api/session/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	identity, err := h.sessions.Login(r.Context(), middleware.SessionIDFromContext(r.Context()), &req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, newIdentityView(identity))
}

// Logout handles POST /api/session/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/session/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := h.sessions.Me(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, newIdentityView(identity))
}
