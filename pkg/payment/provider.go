// Package payment talks to the external checkout provider.
package payment

import (
	"context"
	"errors"
)

const StatusPaid = "paid"

// Metadata keys attached to every checkout session.
const (
	MetaFoodID   = "foodId"
	MetaOrderID  = "orderId"
	MetaQuantity = "quantity"
)

var ErrBadSession = errors.New("checkout session is missing required fields")

type SessionRequest struct {
	OrderID       string
	MealID        string
	MealName      string
	CustomerEmail string
	UnitPrice     float64
	Quantity      int64
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	Metadata        map[string]string
	AmountTotal     float64
	Currency        string
	CustomerEmail   string
}

func (s *Session) Paid() bool {
	return s != nil && s.PaymentStatus == StatusPaid
}

func (s *Session) OrderID() string {
	return s.Metadata[MetaOrderID]
}

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}
