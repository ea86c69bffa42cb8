package models

import "errors"

// Common errors used throughout the application
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrAuthRequired       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSoldOut            = errors.New("tickets sold out or capacity exceeded")
	ErrAlreadyConfirmed   = errors.New("order already confirmed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 10")
	ErrInvalidCategory    = errors.New("unknown event category")
	ErrInvalidQuote       = errors.New("price quote total does not match subtotal plus service fee")
)

// Checkout transition errors
var (
	ErrTransitionInFlight = errors.New("a checkout transition is already in flight")
	ErrInvalidTransition  = errors.New("transition not allowed in the current checkout state")
)
