package models

import (
	"errors"
	"time"
)

// OrderStatus represents the server-side status of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderFailed    OrderStatus = "failed"
)

// Order is a server-side record of a purchase attempt
type Order struct {
	ID              string      `json:"id"`
	Status          OrderStatus `json:"status"`
	Items           []CartItem  `json:"items"`
	PaymentProvider string      `json:"payment_provider"`
	ProviderRef     string      `json:"provider_reference,omitempty"`
	TotalCents      int         `json:"total_cents,omitempty"`
	CreatedAt       time.Time   `json:"created_at,omitempty"`
}

// OrderRequest is the body of an order creation call
type OrderRequest struct {
	Items           []CartItem `json:"items"`
	PaymentProvider string     `json:"payment_provider"`
}

// Validate validates the order returned by the server
func (o *Order) Validate() error {
	if o.ID == "" {
		return errors.New("order id is required")
	}
	if !o.Status.IsValid() {
		return errors.New("invalid order status")
	}
	return nil
}

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderFailed:
		return true
	}
	return false
}

// IsPending checks if the order still awaits confirmation
func (o *Order) IsPending() bool {
	return o.Status == OrderPending
}

// IsConfirmed checks if the order has been confirmed
func (o *Order) IsConfirmed() bool {
	return o.Status == OrderConfirmed
}
