// Package server assembles the BFF: services over the state backend and the
// remote API, the middleware chain, and the HTTP listener.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/config"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/handlers"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/middleware"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/repositories"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/services"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

const (
	janitorInterval   = 10 * time.Minute
	limiterInterval   = time.Minute
	readinessTimeout  = 2 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server is the BFF HTTP server
type Server struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	backend storage.Backend
	limiter *middleware.LoginRateLimiter
	handler http.Handler
}

// New wires the services and routes over the given backend and API
func New(cfg *config.Config, log logrus.FieldLogger, backend storage.Backend, api services.EventAPI) *Server {
	credentials := repositories.NewCredentialRepository(backend)
	carts := repositories.NewCartRepository(backend)
	records := repositories.NewCheckoutRepository(backend)

	store := middleware.NewCookieStore(cfg.Session.Secret, cfg.Session.MaxAge, cfg.IsProduction())
	limiter := middleware.NewLoginRateLimiter(cfg.Server.LoginAttempts, cfg.Server.LoginWindow)

	handler := handlers.NewRouter(handlers.RouterConfig{
		Catalog:  services.NewCatalogService(api, cfg.Checkout.DefaultCity),
		Sessions: services.NewSessionService(api, credentials, log),
		Carts:    carts,
		Checkout: services.NewCheckoutService(api, credentials, carts, records, cfg.Checkout.PaymentProvider, log),
		Tickets:  services.NewTicketService(api, credentials),
		Session:  middleware.NewSessionMiddleware(store, cfg.Session.CookieName, log),
		Login:    limiter,
		CORS:     middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...),
		Log:      log,
		Readiness: func(r *http.Request) error {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			return storage.Ping(ctx, backend)
		},
	})

	return &Server{
		cfg:     cfg,
		log:     log,
		backend: backend,
		limiter: limiter,
		handler: handler,
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured address until ctx is cancelled, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	go storage.RunJanitor(bgCtx, s.backend, janitorInterval, s.log)
	go s.limiter.Run(bgCtx, limiterInterval)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
