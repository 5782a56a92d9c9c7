package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/chefbazaar/pkg/config"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider opens and inspects Stripe Checkout sessions.
type StripeProvider struct {
	api      *client.API
	currency string
	success  string
	cancel   string
}

func NewStripeProvider(cfg *config.StripeConfig) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeProvider{
		api:      api,
		currency: strings.ToLower(cfg.Currency),
		success:  cfg.SuccessURL,
		cancel:   cfg.CancelURL,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.MealName),
				},
				UnitAmount: stripe.Int64(toMinorUnits(req.UnitPrice)),
			},
			Quantity: stripe.Int64(req.Quantity),
		}},
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(p.success + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(p.cancel),
	}
	params.Context = ctx
	params.AddMetadata(MetaFoodID, req.MealID)
	params.AddMetadata(MetaOrderID, req.OrderID)
	params.AddMetadata(MetaQuantity, strconv.FormatInt(req.Quantity, 10))

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return fromStripe(s), nil
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}
	return fromStripe(s), nil
}

func fromStripe(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
		AmountTotal:   fromMinorUnits(s.AmountTotal),
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
