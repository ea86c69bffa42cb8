// Package fakeapi is an in-memory implementation of the remote event API.
// It backs cmd/mock-api for local development and the integration tests.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// Endpoint names used for call counters and fault injection
const (
	EndpointListEvents   = "events.list"
	EndpointGetEvent     = "events.get"
	EndpointLogin        = "auth.login"
	EndpointMe           = "auth.me"
	EndpointPriceCheck   = "cart.price_check"
	EndpointCreateOrder  = "orders.create"
	EndpointConfirmOrder = "orders.confirm"
	EndpointMyTickets    = "tickets.me"
)

// Options configures a Server
type Options struct {
	JWTSecret             string
	ServiceFeeBasisPoints int
	TokenTTL              time.Duration
	Seed                  bool
}

type fault struct {
	status int
	code   string
}

type ticketTypeRef struct {
	event    *fakeEvent
	instance *models.EventInstance
	index    int
}

// Server is the fake API. All state is guarded by mu.
type Server struct {
	mu sync.Mutex

	router http.Handler
	secret []byte
	feeBPS int
	ttl    time.Duration
	now    func() time.Time
	log    logrus.FieldLogger

	events      []*fakeEvent
	ticketTypes map[string]ticketTypeRef
	users       map[string]*fakeUser // by email
	orders      map[string]*fakeOrder
	idempotency map[string]string // user id + key -> order id
	tickets     map[string][]models.Ticket

	calls  map[string]int
	faults map[string][]fault
}

// New creates a fake API server
func New(opts Options, log logrus.FieldLogger) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "fake-api-secret"
	}
	if opts.ServiceFeeBasisPoints < 0 {
		opts.ServiceFeeBasisPoints = 0
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}

	s := &Server{
		secret:      []byte(opts.JWTSecret),
		feeBPS:      opts.ServiceFeeBasisPoints,
		ttl:         opts.TokenTTL,
		now:         time.Now,
		log:         log.WithField("component", "fakeapi"),
		ticketTypes: make(map[string]ticketTypeRef),
		users:       make(map[string]*fakeUser),
		orders:      make(map[string]*fakeOrder),
		idempotency: make(map[string]string),
		tickets:     make(map[string][]models.Ticket),
		calls:       make(map[string]int),
		faults:      make(map[string][]fault),
	}

	if opts.Seed {
		if err := s.seed(); err != nil {
			s.log.WithError(err).Error("failed to seed fake API")
		}
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.counted(EndpointListEvents, s.handleListEvents))
		r.Get("/events/{id}", s.counted(EndpointGetEvent, s.handleGetEvent))
		r.Post("/auth/login", s.counted(EndpointLogin, s.handleLogin))
		r.Get("/auth/me", s.counted(EndpointMe, s.authenticated(s.handleMe)))
		r.Post("/cart/price-check", s.counted(EndpointPriceCheck, s.handlePriceCheck))
		r.Post("/orders", s.counted(EndpointCreateOrder, s.authenticated(s.handleCreateOrder)))
		r.Post("/orders/{id}/confirm", s.counted(EndpointConfirmOrder, s.authenticated(s.handleConfirmOrder)))
		r.Get("/tickets/me", s.counted(EndpointMyTickets, s.authenticated(s.handleMyTickets)))
	})

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Calls returns how many requests reached the endpoint
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// ResetCalls zeroes all call counters
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// FailNext makes the next request to endpoint fail with status and code.
// Calls queue up: FailNext twice fails the next two requests.
func (s *Server) FailNext(endpoint string, status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[endpoint] = append(s.faults[endpoint], fault{status: status, code: code})
}

// counted records the call and applies any queued fault before the handler runs
func (s *Server) counted(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[endpoint]++
		var injected *fault
		if queue := s.faults[endpoint]; len(queue) > 0 {
			injected = &queue[0]
			s.faults[endpoint] = queue[1:]
		}
		s.mu.Unlock()

		if injected != nil {
			writeError(w, injected.status, injected.code, "injected failure")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	body := map[string]string{"message": message}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}
