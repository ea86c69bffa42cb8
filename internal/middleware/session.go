package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

const (
	sessionIDKey    contextKey = "session_id"
	sessionValueKey            = "sid"
)

// SessionMiddleware gives every browser a stable session id carried in a
// signed cookie. All client state is keyed by that id server-side; the
// cookie holds nothing else.
type SessionMiddleware struct {
	store sessions.Store
	name  string
	log   logrus.FieldLogger
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(store sessions.Store, cookieName string, log logrus.FieldLogger) *SessionMiddleware {
	return &SessionMiddleware{
		store: store,
		name:  cookieName,
		log:   log,
	}
}

// NewCookieStore builds the signed cookie store for the session cookie
func NewCookieStore(secret string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Handler attaches the session id to the request context, issuing one if the
// cookie is missing or fails verification
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, m.name)
		if err != nil {
			m.log.WithError(err).Debug("discarding unreadable session cookie")
		}
		if session == nil {
			session, _ = m.store.New(r, m.name)
		}

		sid, _ := session.Values[sessionValueKey].(string)
		if _, parseErr := uuid.Parse(sid); parseErr != nil {
			sid = uuid.NewString()
			session.Values[sessionValueKey] = sid
			if err := session.Save(r, w); err != nil {
				m.log.WithError(err).Error("failed to save session")
				WriteError(w, http.StatusInternalServerError, "session_error", "Could not start a session.")
				return
			}
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext returns the session id, or "" outside the middleware
func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}

// WithSessionID returns a context carrying the session id
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sid)
}
