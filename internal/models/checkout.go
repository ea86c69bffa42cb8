package models

import "time"

// CheckoutState is a state of the purchase flow
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutPricing    CheckoutState = "pricing"
	CheckoutPriced     CheckoutState = "priced"
	CheckoutPlacing    CheckoutState = "placing"
	CheckoutPlaced     CheckoutState = "placed"
	CheckoutConfirming CheckoutState = "confirming"
	CheckoutConfirmed  CheckoutState = "confirmed"
	CheckoutErrored    CheckoutState = "errored"
)

// IsInFlight reports whether the state represents an outstanding request
func (s CheckoutState) IsInFlight() bool {
	return s == CheckoutPricing || s == CheckoutPlacing || s == CheckoutConfirming
}

// CheckoutStep names the network step that failed
type CheckoutStep string

const (
	StepPricing    CheckoutStep = "pricing"
	StepPlacing    CheckoutStep = "placing"
	StepConfirming CheckoutStep = "confirming"
)

// CheckoutOutcome is a user-facing result of a transition that is not a state
type CheckoutOutcome string

const (
	OutcomeNone         CheckoutOutcome = ""
	OutcomeAuthRequired CheckoutOutcome = "auth_required"
	OutcomeRepriced     CheckoutOutcome = "repriced"
	OutcomeResumable    CheckoutOutcome = "resume_available"
	OutcomeConfirmed    CheckoutOutcome = "confirmed"
	OutcomeFailed       CheckoutOutcome = "failed"
)

// CheckoutRecord is the persisted state of one session's checkout
type CheckoutRecord struct {
	State      CheckoutState `json:"state"`
	Quote      *PriceQuote   `json:"quote,omitempty"`
	Snapshot   Cart          `json:"snapshot"`
	QuotedFor  string        `json:"quoted_for,omitempty"`
	IdemKey    string        `json:"idempotency_key,omitempty"`
	OrderID    string        `json:"order_id,omitempty"`
	ClearedFor string        `json:"cleared_for,omitempty"`
	FailedStep CheckoutStep  `json:"failed_step,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
	LastError  string        `json:"last_error,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewCheckoutRecord returns a record in the Idle state
func NewCheckoutRecord() *CheckoutRecord {
	return &CheckoutRecord{State: CheckoutIdle}
}

// HoldsOrder reports whether an order id is held that has not been confirmed
func (r *CheckoutRecord) HoldsOrder() bool {
	return r.OrderID != "" && r.State != CheckoutConfirmed
}

// IsStale reports whether the quote no longer matches the cart
func (r *CheckoutRecord) IsStale(cart Cart) bool {
	return r.Quote == nil || r.QuotedFor != cart.Fingerprint()
}

// CheckoutView is what the checkout screen renders
type CheckoutView struct {
	State      CheckoutState   `json:"state"`
	FailedStep CheckoutStep    `json:"failed_step,omitempty"`
	Outcome    CheckoutOutcome `json:"outcome,omitempty"`
	Items      []CartItem      `json:"items"`
	Quote      *QuoteView      `json:"quote,omitempty"`
	OrderID    string          `json:"order_id,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Error      string          `json:"error,omitempty"`
	Redirect   string          `json:"redirect,omitempty"`
	InFlight   bool            `json:"in_flight"`
	CanPay     bool            `json:"can_pay"`
	CanResume  bool            `json:"can_resume"`
	CanRetry   bool            `json:"can_retry"`
	CanAbandon bool            `json:"can_abandon"`
}

// QuoteView is a price quote with display strings
type QuoteView struct {
	PriceQuote
	Subtotal   string `json:"subtotal"`
	ServiceFee string `json:"service_fee"`
	Total      string `json:"total"`
}

// NewQuoteView formats a quote for display
func NewQuoteView(q *PriceQuote) *QuoteView {
	if q == nil {
		return nil
	}
	return &QuoteView{
		PriceQuote: *q,
		Subtotal:   q.Subtotal(),
		ServiceFee: q.ServiceFee(),
		Total:      q.Total(),
	}
}
