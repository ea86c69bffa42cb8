package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/metrics"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// IdempotencyKeyHeader carries the per-snapshot key on order creation
const IdempotencyKeyHeader = "Idempotency-Key"

// Config represents the event API client configuration
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 means unlimited
	Burst      int
	MaxRetries int
}

// Client talks to the remote event API. Reads are retried with backoff;
// writes are sent exactly once per call.
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryWait  time.Duration
	log        logrus.FieldLogger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryWait sets the initial backoff interval for read retries
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}

// New creates a new event API client
func New(config Config, log logrus.FieldLogger, opts ...Option) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    config.BaseURL,
		http:       &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: config.MaxRetries,
		retryWait:  250 * time.Millisecond,
		log:        log.WithField("component", "apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEvents returns the events matching the filter
func (c *Client) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.EventSummary, error) {
	query := url.Values{}
	if filter.City != "" {
		query.Set("city", filter.City)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category.String())
	}

	path := "/api/events"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var events []models.EventSummary
	if err := c.getJSON(ctx, "events.list", path, "", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns one event with its instances and ticket types
func (c *Client) GetEvent(ctx context.Context, id string) (*models.EventDetail, error) {
	var event models.EventDetail
	err := c.getJSON(ctx, "events.get", "/api/events/"+url.PathEscape(id), "", &event)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, models.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for an access token. Any non-success status
// means the credentials were rejected.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.send(ctx, "auth.login", http.MethodPost, "/api/auth/login", "", nil, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %w", models.ErrInvalidCredentials, apiErr)
		}
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", models.ErrInvalidCredentials)
	}
	return resp.AccessToken, nil
}

// Me returns the identity behind the token
func (c *Client) Me(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, models.ErrAuthRequired
	}

	var identity models.Identity
	if err := c.getJSON(ctx, "auth.me", "/api/auth/me", token, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

type priceCheckRequest struct {
	Items []models.CartItem `json:"items"`
}

// PriceCheck asks the server to price a cart snapshot
func (c *Client) PriceCheck(ctx context.Context, items []models.CartItem) (*models.PriceQuote, error) {
	var quote models.PriceQuote
	err := c.send(ctx, "cart.price_check", http.MethodPost, "/api/cart/price-check", "", nil, priceCheckRequest{Items: items}, &quote)
	if err != nil {
		return nil, err
	}
	if err := quote.Validate(); err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateOrder places a pending order for the items
func (c *Client) CreateOrder(ctx context.Context, token string, req models.OrderRequest, idempotencyKey string) (*models.Order, error) {
	if token == "" {
		return nil, models.ErrAuthRequired
	}

	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set(IdempotencyKeyHeader, idempotencyKey)
	}

	var order models.Order
	if err := c.send(ctx, "orders.create", http.MethodPost, "/api/orders", token, headers, req, &order); err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("unexpected order response: %w", err)
	}
	return &order, nil
}

// ConfirmOrder confirms payment for a pending order
func (c *Client) ConfirmOrder(ctx context.Context, token, orderID string) (*models.Order, error) {
	if token == "" {
		return nil, models.ErrAuthRequired
	}

	var order models.Order
	path := "/api/orders/" + url.PathEscape(orderID) + "/confirm"
	if err := c.send(ctx, "orders.confirm", http.MethodPost, path, token, nil, struct{}{}, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		order.ID = orderID
	}
	return &order, nil
}

// MyTickets returns the tickets issued to the token's user
func (c *Client) MyTickets(ctx context.Context, token string) ([]models.Ticket, error) {
	if token == "" {
		return nil, models.ErrAuthRequired
	}

	var tickets []models.Ticket
	if err := c.getJSON(ctx, "tickets.me", "/api/tickets/me", token, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// getJSON performs an idempotent GET, retrying transient failures
func (c *Client) getJSON(ctx context.Context, endpoint, path, token string, out interface{}) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryWait
	policy.MaxElapsedTime = 0

	retries := c.maxRetries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithMaxRetries(policy, uint64(retries))

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.send(ctx, endpoint, http.MethodGet, path, token, nil, nil, out)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		c.log.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
		}).WithError(err).Warn("API read failed, retrying")
		return err
	}, backoff.WithContext(b, ctx))
}

// send issues one request and decodes a 2xx JSON body into out
func (c *Client) send(ctx context.Context, endpoint, method, path, token string, headers http.Header, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("failed to send %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	metrics.APIRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	c.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
