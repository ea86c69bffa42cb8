package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/middleware"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/services"
)

// RouterConfig carries everything the BFF routes are built from
type RouterConfig struct {
	Catalog   *services.CatalogService
	Sessions  *services.SessionService
	Carts     services.CartStore
	Checkout  *services.CheckoutService
	Tickets   *services.TicketService
	Session   *middleware.SessionMiddleware
	Login     *middleware.LoginRateLimiter
	CORS      middleware.CORSConfig
	Log       logrus.FieldLogger
	Readiness func(r *http.Request) error
}

// NewRouter builds the BFF HTTP surface
func NewRouter(cfg RouterConfig) http.Handler {
	publicHandler := NewPublicHandler(cfg.Catalog, cfg.Log)
	authHandler := NewAuthHandler(cfg.Sessions, cfg.Log)
	cartHandler := NewCartHandler(cfg.Carts, cfg.Log)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.Log)
	ticketHandler := NewTicketHandler(cfg.Tickets, cfg.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Log))
	r.Use(middleware.Logging(cfg.Log))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.CORS))

	r.NotFound(middleware.NotFoundHandler())
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler())

	r.Get("/healthz", health(cfg.Readiness))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Session.Handler)
		r.Use(middleware.CSRFProtection(cfg.CORS.AllowedOrigins))

		r.Get("/categories", publicHandler.Categories)
		r.Get("/events", publicHandler.ListEvents)
		r.Get("/events/{id}", publicHandler.GetEvent)

		r.Route("/session", func(r chi.Router) {
			r.With(middleware.LoginRateLimit(cfg.Login)).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.ViewCart)
			r.Put("/", cartHandler.ReplaceCart)
			r.Delete("/", cartHandler.ClearCart)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.Status)
			r.Post("/open", checkoutHandler.Open)
			r.Post("/pay", checkoutHandler.Pay)
			r.Post("/confirm", checkoutHandler.Confirm)
			r.Post("/retry", checkoutHandler.Retry)
			r.Post("/abandon", checkoutHandler.Abandon)
		})

		r.Get("/tickets", ticketHandler.ListTickets)
		r.Get("/tickets/{id}/qr.png", ticketHandler.QRCode)
	})

	return r
}

// health reports liveness, and readiness of the state backend when a check is set
func health(ready func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
