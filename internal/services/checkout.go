package services

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/apiclient"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/metrics"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// Navigation hints returned with checkout outcomes
const (
	RedirectLogin   = "/login"
	RedirectTickets = "/me/tickets"
)

// CheckoutService drives price check, order creation and confirmation for
// each session. It is the only component that creates or confirms orders.
//
// Every transition that sends a request holds the session's in-flight guard
// until the response is observed. Create-order is gated on no order id being
// held, and the cart is cleared once per confirmed order id.
type CheckoutService struct {
	api         OrderAPI
	credentials CredentialStore
	carts       CartStore
	records     CheckoutStore
	provider    string
	log         logrus.FieldLogger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(api OrderAPI, credentials CredentialStore, carts CartStore, records CheckoutStore, paymentProvider string, log logrus.FieldLogger) *CheckoutService {
	return &CheckoutService{
		api:         api,
		credentials: credentials,
		carts:       carts,
		records:     records,
		provider:    paymentProvider,
		log:         log.WithField("component", "checkout"),
		inFlight:    make(map[string]struct{}),
	}
}

// checkoutRun carries the loaded state of one transition
type checkoutRun struct {
	sessionID string
	rec       *models.CheckoutRecord
	cart      models.Cart
	outcome   models.CheckoutOutcome
	log       logrus.FieldLogger
}

func (s *CheckoutService) acquire(sessionID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[sessionID]; busy {
		return nil, models.ErrTransitionInFlight
	}
	s.inFlight[sessionID] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}, nil
}

func (s *CheckoutService) busy(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[sessionID]
	return ok
}

func (s *CheckoutService) load(ctx context.Context, sessionID string) (*checkoutRun, error) {
	rec, err := s.records.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &checkoutRun{
		sessionID: sessionID,
		rec:       rec,
		cart:      cart,
		log:       s.log.WithField("session_id", sessionID),
	}, nil
}

// begin acquires the guard and loads the session's state
func (s *CheckoutService) begin(ctx context.Context, sessionID string) (*checkoutRun, func(), error) {
	release, err := s.acquire(sessionID)
	if err != nil {
		return nil, nil, err
	}
	run, err := s.load(ctx, sessionID)
	if err != nil {
		release()
		return nil, nil, err
	}
	return run, release, nil
}

// Status returns the current view without any network call
func (s *CheckoutService) Status(ctx context.Context, sessionID string) (*models.CheckoutView, error) {
	run, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := s.view(run)
	view.InFlight = s.busy(sessionID)
	return view, nil
}

// Open enters the checkout view. A non-empty cart is priced afresh. A held
// order is never re-created; the view offers resume or abandon instead.
func (s *CheckoutService) Open(ctx context.Context, sessionID string) (*models.CheckoutView, error) {
	run, release, err := s.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The guard is ours, so an in-flight state is left over from an
	// interrupted process.
	if run.rec.State.IsInFlight() {
		switch {
		case run.rec.OrderID != "":
			s.transition(run, models.CheckoutPlaced)
		case run.rec.State == models.CheckoutPlacing:
			s.fail(run, models.StepPlacing, "interrupted", "order placement was interrupted")
			return s.persist(ctx, run)
		}
	}

	if run.rec.HoldsOrder() {
		run.outcome = models.OutcomeResumable
		run.log.WithField("order_id", run.rec.OrderID).Info("held order found on checkout entry")
		return s.persist(ctx, run)
	}

	if run.rec.State == models.CheckoutConfirmed {
		if run.cart.IsEmpty() {
			return s.view(run), nil
		}
		s.reset(run)
	}

	if run.cart.IsEmpty() {
		if run.rec.State != models.CheckoutIdle {
			s.reset(run)
			return s.persist(ctx, run)
		}
		return s.view(run), nil
	}

	// A failed write step waits for an explicit retry
	if run.rec.State == models.CheckoutErrored && run.rec.FailedStep != models.StepPricing &&
		run.rec.Snapshot.Fingerprint() == run.cart.Fingerprint() {
		return s.view(run), nil
	}

	return s.price(ctx, run)
}

// Pay places an order for the priced snapshot and confirms it. Without a
// credential nothing is sent. A stale quote is re-priced instead of placed.
// A held order is confirmed rather than placed again.
func (s *CheckoutService) Pay(ctx context.Context, sessionID string) (*models.CheckoutView, error) {
	run, release, err := s.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Placement and confirmation must outlive a client disconnect.
	ctx = context.WithoutCancel(ctx)
	rec := run.rec

	if rec.HoldsOrder() {
		return s.resume(ctx, run)
	}

	switch rec.State {
	case models.CheckoutConfirmed:
		if run.cart.IsEmpty() {
			run.outcome = models.OutcomeConfirmed
			return s.view(run), nil
		}
		return nil, models.ErrInvalidTransition
	case models.CheckoutIdle:
		if run.cart.IsEmpty() {
			return s.view(run), nil
		}
		return nil, models.ErrInvalidTransition
	case models.CheckoutPriced:
	default:
		return nil, models.ErrInvalidTransition
	}

	if run.cart.IsEmpty() {
		s.reset(run)
		return s.persist(ctx, run)
	}

	if rec.IsStale(run.cart) {
		return s.reprice(ctx, run)
	}

	token, ok, err := s.credentials.GetCredential(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.requireAuth(run)
		return s.view(run), nil
	}

	return s.place(ctx, run, token)
}

// Confirm resumes confirmation of a held order. Confirming an order that is
// already confirmed is a no-op.
func (s *CheckoutService) Confirm(ctx context.Context, sessionID string) (*models.CheckoutView, error) {
	run, release, err := s.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = context.WithoutCancel(ctx)

	if run.rec.State == models.CheckoutConfirmed {
		run.outcome = models.OutcomeConfirmed
		return s.view(run), nil
	}
	if !run.rec.HoldsOrder() {
		return nil, models.ErrInvalidTransition
	}
	return s.resume(ctx, run)
}

// Retry re-issues the step recorded in the Errored state, and only that step
func (s *CheckoutService) Retry(ctx context.Context, sessionID string) (*models.CheckoutView, error) {
	run, release, err := s.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = context.WithoutCancel(ctx)
	rec := run.rec

	if rec.State != models.CheckoutErrored {
		return nil, models.ErrInvalidTransition
	}

	run.log.WithField("step", rec.FailedStep).Info("retrying checkout step")

	switch rec.FailedStep {
	case models.StepPricing:
		if run.cart.IsEmpty() {
			s.reset(run)
			return s.persist(ctx, run)
		}
		return s.price(ctx, run)

	case models.StepPlacing:
		if rec.OrderID != "" {
			return s.resume(ctx, run)
		}
		if run.cart.IsEmpty() {
			s.reset(run)
			return s.persist(ctx, run)
		}
		if rec.IsStale(run.cart) {
			return s.reprice(ctx, run)
		}
		token, ok, err := s.credentials.GetCredential(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.requireAuth(run)
			return s.view(run), nil
		}
		return s.place(ctx, run, token)

	case models.StepConfirming:
		return s.resume(ctx, run)
	}

	return nil, models.ErrInvalidTransition
}

// Abandon forfeits any held order, clears the cart and returns to Idle
func (s *CheckoutService) Abandon(ctx context.Context, sessionID string) (*models.CheckoutView, error) {
	run, release, err := s.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if run.rec.OrderID != "" && run.rec.State != models.CheckoutConfirmed {
		run.log.WithField("order_id", run.rec.OrderID).Warn("held order abandoned")
	}

	if err := s.carts.ClearCart(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := s.records.Reset(ctx, sessionID); err != nil {
		return nil, err
	}

	if run.rec.State != models.CheckoutIdle {
		metrics.CheckoutTransitions.WithLabelValues(string(run.rec.State), string(models.CheckoutIdle)).Inc()
	}
	run.rec = models.NewCheckoutRecord()
	run.cart = models.Cart{}
	return s.view(run), nil
}

// price sends the cart snapshot for a quote: Pricing -> Priced or Errored
func (s *CheckoutService) price(ctx context.Context, run *checkoutRun) (*models.CheckoutView, error) {
	rec := run.rec

	snapshot := run.cart.Clone()
	if rec.Snapshot.Fingerprint() != snapshot.Fingerprint() {
		rec.IdemKey = ""
	}
	rec.Snapshot = snapshot
	rec.Quote = nil
	rec.QuotedFor = ""
	s.clearError(run)
	s.transition(run, models.CheckoutPricing)
	if err := s.save(ctx, run); err != nil {
		return nil, err
	}

	quote, err := s.api.PriceCheck(ctx, snapshot.Items)
	if err != nil {
		s.failWith(run, models.StepPricing, err)
		return s.persist(ctx, run)
	}

	rec.Quote = quote
	rec.QuotedFor = snapshot.Fingerprint()
	s.transition(run, models.CheckoutPriced)
	return s.persist(ctx, run)
}

// reprice replaces a stale quote; nothing is placed
func (s *CheckoutService) reprice(ctx context.Context, run *checkoutRun) (*models.CheckoutView, error) {
	run.log.Info("quote is stale, re-pricing before placement")
	view, err := s.price(ctx, run)
	if err != nil || view.State != models.CheckoutPriced {
		return view, err
	}
	view.Outcome = models.OutcomeRepriced
	metrics.CheckoutOutcomes.WithLabelValues(string(models.OutcomeRepriced)).Inc()
	return view, nil
}

// place creates the order for the snapshot and chains into confirmation
func (s *CheckoutService) place(ctx context.Context, run *checkoutRun, token string) (*models.CheckoutView, error) {
	rec := run.rec

	if rec.IdemKey == "" {
		rec.IdemKey = uuid.NewString()
	}
	s.clearError(run)
	s.transition(run, models.CheckoutPlacing)
	if err := s.save(ctx, run); err != nil {
		return nil, err
	}

	order, err := s.api.CreateOrder(ctx, token, models.OrderRequest{
		Items:           rec.Snapshot.Items,
		PaymentProvider: s.provider,
	}, rec.IdemKey)
	if err != nil {
		if errors.Is(err, models.ErrAuthRequired) {
			s.transition(run, models.CheckoutPriced)
			s.requireAuth(run)
			return s.persist(ctx, run)
		}
		s.failWith(run, models.StepPlacing, err)
		return s.persist(ctx, run)
	}

	rec.OrderID = order.ID
	run.log = run.log.WithField("order_id", order.ID)

	if order.IsConfirmed() {
		return s.complete(ctx, run)
	}

	s.transition(run, models.CheckoutPlaced)
	if err := s.save(ctx, run); err != nil {
		return nil, err
	}
	run.log.Info("order placed")

	return s.confirm(ctx, run, token)
}

// resume confirms the held order, checking for a credential first
func (s *CheckoutService) resume(ctx context.Context, run *checkoutRun) (*models.CheckoutView, error) {
	token, ok, err := s.credentials.GetCredential(ctx, run.sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.requireAuth(run)
		return s.view(run), nil
	}
	return s.confirm(ctx, run, token)
}

// confirm issues one confirm request for the held order id
func (s *CheckoutService) confirm(ctx context.Context, run *checkoutRun, token string) (*models.CheckoutView, error) {
	rec := run.rec
	prior := rec.State

	s.clearError(run)
	s.transition(run, models.CheckoutConfirming)
	if err := s.save(ctx, run); err != nil {
		return nil, err
	}

	order, err := s.api.ConfirmOrder(ctx, token, rec.OrderID)
	switch {
	case err == nil && (order.IsConfirmed() || order.Status == ""):
	case err == nil:
		s.fail(run, models.StepConfirming, confirmStatusCode(order), "order was not confirmed")
		return s.persist(ctx, run)
	case errors.Is(err, models.ErrAlreadyConfirmed):
		run.log.Info("order was already confirmed")
	case errors.Is(err, models.ErrAuthRequired):
		if prior == models.CheckoutErrored {
			s.fail(run, models.StepConfirming, "auth_required", err.Error())
		} else {
			s.transition(run, models.CheckoutPlaced)
		}
		s.requireAuth(run)
		return s.persist(ctx, run)
	default:
		s.failWith(run, models.StepConfirming, err)
		return s.persist(ctx, run)
	}

	return s.complete(ctx, run)
}

// complete marks the order confirmed and clears the cart once per order id.
// A cart replaced while the order was held is a new selection and stays.
func (s *CheckoutService) complete(ctx context.Context, run *checkoutRun) (*models.CheckoutView, error) {
	rec := run.rec

	if rec.ClearedFor != rec.OrderID {
		if run.cart.Fingerprint() == rec.Snapshot.Fingerprint() {
			if err := s.carts.ClearCart(ctx, run.sessionID); err != nil {
				return nil, err
			}
			run.cart = models.Cart{}
		} else {
			run.log.Info("cart changed while order was held; keeping new selection")
		}
		rec.ClearedFor = rec.OrderID
	}

	s.transition(run, models.CheckoutConfirmed)
	run.outcome = models.OutcomeConfirmed
	metrics.CheckoutOutcomes.WithLabelValues(string(run.outcome)).Inc()
	run.log.Info("order confirmed")

	return s.persist(ctx, run)
}

func (s *CheckoutService) requireAuth(run *checkoutRun) {
	run.outcome = models.OutcomeAuthRequired
	metrics.CheckoutOutcomes.WithLabelValues(string(run.outcome)).Inc()
	run.log.Info("checkout requires authentication")
}

func (s *CheckoutService) transition(run *checkoutRun, to models.CheckoutState) {
	from := run.rec.State
	if from == to {
		return
	}
	run.rec.State = to
	metrics.CheckoutTransitions.WithLabelValues(string(from), string(to)).Inc()
	run.log.WithFields(logrus.Fields{"from": from, "to": to}).Debug("checkout transition")
}

func (s *CheckoutService) reset(run *checkoutRun) {
	if run.rec.State != models.CheckoutIdle {
		metrics.CheckoutTransitions.WithLabelValues(string(run.rec.State), string(models.CheckoutIdle)).Inc()
	}
	run.rec = models.NewCheckoutRecord()
}

func (s *CheckoutService) clearError(run *checkoutRun) {
	run.rec.FailedStep = ""
	run.rec.ErrorCode = ""
	run.rec.LastError = ""
}

func (s *CheckoutService) failWith(run *checkoutRun, step models.CheckoutStep, err error) {
	s.fail(run, step, errorCode(err), err.Error())
}

func (s *CheckoutService) fail(run *checkoutRun, step models.CheckoutStep, code, message string) {
	run.rec.FailedStep = step
	run.rec.ErrorCode = code
	run.rec.LastError = message
	s.transition(run, models.CheckoutErrored)
	run.outcome = models.OutcomeFailed
	metrics.CheckoutOutcomes.WithLabelValues(string(run.outcome)).Inc()
	run.log.WithFields(logrus.Fields{
		"step":  step,
		"code":  code,
		"error": message,
	}).Warn("checkout step failed")
}

func (s *CheckoutService) save(ctx context.Context, run *checkoutRun) error {
	return s.records.Save(ctx, run.sessionID, run.rec)
}

func (s *CheckoutService) persist(ctx context.Context, run *checkoutRun) (*models.CheckoutView, error) {
	if err := s.save(ctx, run); err != nil {
		return nil, err
	}
	return s.view(run), nil
}

func (s *CheckoutService) view(run *checkoutRun) *models.CheckoutView {
	rec := run.rec

	items := run.cart.Items
	if rec.HoldsOrder() || rec.State == models.CheckoutConfirmed {
		items = rec.Snapshot.Items
	}
	if items == nil {
		items = []models.CartItem{}
	}

	view := &models.CheckoutView{
		State:      rec.State,
		FailedStep: rec.FailedStep,
		Outcome:    run.outcome,
		Items:      items,
		Quote:      models.NewQuoteView(rec.Quote),
		OrderID:    rec.OrderID,
		ErrorCode:  rec.ErrorCode,
		Error:      rec.LastError,
		CanPay:     rec.State == models.CheckoutPriced && !rec.IsStale(run.cart),
		CanResume:  rec.HoldsOrder(),
		CanRetry:   rec.State == models.CheckoutErrored,
		CanAbandon: rec.State != models.CheckoutIdle && rec.State != models.CheckoutConfirmed,
	}

	switch run.outcome {
	case models.OutcomeAuthRequired:
		view.Redirect = RedirectLogin
	case models.OutcomeConfirmed:
		view.Redirect = RedirectTickets
	}
	return view
}

// errorCode turns a step failure into a stable code for the UI
func errorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrSoldOut):
		return "sold_out"
	case errors.Is(err, models.ErrInvalidQuote):
		return "invalid_quote"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code != "" {
			return apiErr.Code
		}
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return "server_error"
		}
		return "request_failed"
	}
	return "network_error"
}

// confirmStatusCode names a confirm response that did not confirm the order
func confirmStatusCode(order *models.Order) string {
	switch {
	case order.IsPending():
		return "order_pending"
	case order.Status.IsValid():
		return string(order.Status)
	}
	return "unexpected_status"
}
