package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/metrics"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/payment"
	"github.com/example/chefbazaar/pkg/repository"
	"github.com/example/chefbazaar/pkg/statemachine"
	"go.uber.org/zap"
)

const (
	maxTrackingDraws = 5
	paymentLockKey   = "payment:"
)

type PlaceOrderInput struct {
	MealID   string
	Quantity int
	Address  string
	Name     string
}

type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// Confirmation is the outcome of a payment callback. Completed is false
// when the provider has not yet collected the payment. Duplicate is true
// when the transaction was already in the ledger.
type Confirmation struct {
	Completed     bool            `json:"completed"`
	Duplicate     bool            `json:"duplicate"`
	OrderID       string          `json:"orderId,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	TrackingID    string          `json:"trackingId,omitempty"`
	Order         *models.Order   `json:"order,omitempty"`
	Payment       *models.Payment `json:"payment,omitempty"`
}

type OrderService struct {
	orders      OrderRepository
	meals       MealRepository
	payments    PaymentRepository
	accounts    AccountRepository
	provider    payment.Provider
	locker      Locker
	audit       Auditor
	lockTTL     time.Duration
	currency    string
	logger      *zap.Logger
	now         func() time.Time
	trackingIDs func() (string, error)
}

func NewOrderService(d Deps, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:      d.Orders,
		meals:       d.Meals,
		payments:    d.Payments,
		accounts:    d.Accounts,
		provider:    d.Provider,
		locker:      d.Locker,
		audit:       d.Auditor,
		lockTTL:     d.LockTTL,
		currency:    strings.ToLower(d.Currency),
		logger:      logger,
		now:         time.Now,
		trackingIDs: NewTrackingID,
	}
}

// PlaceOrder creates an unpaid order for a catalog meal.
func (s *OrderService) PlaceOrder(ctx context.Context, email string, in PlaceOrderInput) (*models.Order, error) {
	if in.Quantity < 1 {
		return nil, apperr.Invalid("quantity must be at least 1")
	}
	acc, err := activeAccount(ctx, s.accounts, email)
	if err != nil {
		return nil, err
	}
	meal, err := s.meals.FindByID(ctx, in.MealID)
	if err != nil {
		return nil, storeErr(err, "meal not found")
	}

	name := in.Name
	if name == "" {
		name = acc.Name
	}
	now := s.now().UTC()
	order := &models.Order{
		FoodID:        meal.ID.Hex(),
		MealName:      meal.FoodName,
		Price:         meal.Price,
		Quantity:      in.Quantity,
		ChefID:        meal.ChefID,
		ChefEmail:     meal.UserEmail,
		UserEmail:     acc.Email,
		UserName:      name,
		UserAddress:   in.Address,
		PaymentStatus: models.PaymentNone,
		OrderStatus:   models.OrderPending,
		OrderTime:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, storeErr(err, "order not found")
	}
	s.audit.Record("order.placed", order.ID.Hex(), acc.Email, map[string]any{
		"foodId":   order.FoodID,
		"quantity": order.Quantity,
	})
	return order, nil
}

// OpenCheckout starts a provider checkout for the caller's unpaid order.
// Name and price come from the catalog. The order is only written once the
// provider has issued a session.
func (s *OrderService) OpenCheckout(ctx context.Context, email, orderID string) (*CheckoutResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order not found")
	}
	if order.UserEmail != normalizeEmail(email) {
		return nil, apperr.Forbidden("order belongs to another account")
	}
	if order.PaymentStatus == models.PaymentPaid {
		return nil, apperr.Conflict("order is already paid")
	}
	if order.OrderStatus == models.OrderCancelled {
		return nil, apperr.Conflict("order is cancelled")
	}
	meal, err := s.meals.FindByID(ctx, order.FoodID)
	if err != nil {
		return nil, storeErr(err, "meal not found")
	}

	session, err := s.provider.CreateSession(ctx, payment.SessionRequest{
		OrderID:       orderID,
		MealID:        order.FoodID,
		MealName:      meal.FoodName,
		CustomerEmail: order.UserEmail,
		UnitPrice:     meal.Price,
		Quantity:      int64(order.Quantity),
	})
	if err != nil {
		metrics.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Checkout session creation failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperr.Upstream("payment provider failed to create a checkout session", err)
	}

	if err := s.orders.AttachCheckout(ctx, orderID, session.ID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Conflict("order was paid while opening checkout")
		}
		return nil, storeErr(err, "order not found")
	}
	metrics.CheckoutSessionsTotal.WithLabelValues("created").Inc()
	s.audit.Record("checkout.opened", orderID, order.UserEmail, map[string]any{"sessionId": session.ID})
	return &CheckoutResult{URL: session.URL, SessionID: session.ID}, nil
}

// ConfirmPayment reconciles an order with the provider's view of a checkout
// session. At most one Payment exists per transaction id however often the
// callback is delivered.
func (s *OrderService) ConfirmPayment(ctx context.Context, sessionID string) (*Confirmation, error) {
	if sessionID == "" {
		return nil, apperr.Invalid("session_id is required")
	}
	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("Checkout session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, apperr.Upstream("payment provider failed to return the checkout session", err)
	}
	if !session.Paid() {
		return &Confirmation{Completed: false}, nil
	}

	orderID := session.OrderID()
	if orderID == "" {
		return nil, apperr.Invalid("checkout session carries no order reference")
	}
	txID := session.PaymentIntentID
	if txID == "" {
		txID = session.ID
	}

	unlock, ok, err := s.locker.TryLock(ctx, paymentLockKey+txID, s.lockTTL)
	if err != nil {
		return nil, apperr.Internal("failed to acquire payment lock", err)
	}
	if !ok {
		return nil, apperr.Conflict("payment confirmation already in progress")
	}
	defer unlock()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order not found")
	}
	meal, err := s.meals.FindByID(ctx, order.FoodID)
	if err != nil {
		return nil, storeErr(err, "meal not found")
	}

	now := s.now().UTC()
	order, changed, err := s.markPaid(ctx, orderID, txID, now)
	if err != nil {
		return nil, err
	}
	if changed {
		s.audit.Record("order.paid", orderID, order.UserEmail, map[string]any{
			"transactionId": txID,
			"trackingId":    order.TrackingID,
		})
	}

	result := &Confirmation{
		Completed:     true,
		OrderID:       orderID,
		TransactionID: txID,
		TrackingID:    order.TrackingID,
		Order:         order,
	}

	existing, err := s.payments.FindByTransaction(ctx, txID)
	if err == nil {
		return s.duplicate(result, existing), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr(err, "payment not found")
	}

	p := &models.Payment{
		TransactionID: txID,
		OrderID:       orderID,
		MealID:        order.FoodID,
		MealName:      meal.FoodName,
		ChefID:        meal.ChefID,
		Price:         session.AmountTotal,
		Currency:      session.Currency,
		CustomerEmail: order.UserEmail,
		Status:        payment.StatusPaid,
		TrackingID:    order.TrackingID,
		PaidAt:        now,
	}
	if p.Price == 0 {
		p.Price = order.Total()
	}
	if p.Currency == "" {
		p.Currency = s.currency
	}

	if err := s.payments.Insert(ctx, p); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, storeErr(err, "payment not found")
		}
		existing, ferr := s.payments.FindByTransaction(ctx, txID)
		if ferr != nil {
			return nil, storeErr(ferr, "payment not found")
		}
		return s.duplicate(result, existing), nil
	}

	metrics.PaymentsConfirmedTotal.Inc()
	s.audit.Record("payment.recorded", txID, p.CustomerEmail, map[string]any{
		"orderId": orderID,
		"price":   p.Price,
	})
	s.logger.Info("Payment recorded",
		zap.String("order_id", orderID),
		zap.String("transaction_id", txID),
		zap.String("tracking_id", p.TrackingID))
	result.Payment = p
	return result, nil
}

func (s *OrderService) duplicate(result *Confirmation, existing *models.Payment) *Confirmation {
	metrics.DuplicateConfirmationsTotal.Inc()
	s.logger.Info("Duplicate payment confirmation ignored",
		zap.String("order_id", result.OrderID),
		zap.String("transaction_id", result.TransactionID))
	result.Duplicate = true
	result.Payment = existing
	return result
}

// markPaid marks the order paid with a fresh tracking id, redrawing when the
// id collides with another order's.
func (s *OrderService) markPaid(ctx context.Context, orderID, txID string, now time.Time) (*models.Order, bool, error) {
	for i := 0; i < maxTrackingDraws; i++ {
		trackingID, err := s.trackingIDs()
		if err != nil {
			return nil, false, apperr.Internal("failed to generate tracking id", err)
		}
		order, changed, err := s.orders.MarkPaid(ctx, orderID, txID, trackingID, now)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, false, storeErr(err, "order not found")
		}
		return order, changed, nil
	}
	return nil, false, apperr.Conflict("could not allocate a unique tracking id, retry later")
}

// UpdateStatus moves an order along its fulfilment lifecycle. Chefs act on
// orders for their own meals, users may only cancel their own pending
// orders, admins act on any order.
func (s *OrderService) UpdateStatus(ctx context.Context, acc *models.Account, orderID string, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, apperr.Invalid("unknown order status")
	}
	if acc == nil || acc.IsFraud() {
		return nil, apperr.Forbidden("account may not update orders")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order not found")
	}

	actor := statemachine.ActorFor(acc.Role)
	switch actor {
	case statemachine.ActorChef:
		if order.ChefEmail != acc.Email {
			return nil, apperr.Forbidden("order is for another chef's meal")
		}
	case statemachine.ActorUser:
		if order.UserEmail != acc.Email {
			return nil, apperr.Forbidden("order belongs to another account")
		}
	}
	if err := statemachine.CanTransition(order.OrderStatus, to, actor); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, err.Error(), err)
	}

	updated, err := s.orders.TransitionStatus(ctx, orderID, order.OrderStatus, to, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Conflict("order status changed concurrently, reload and retry")
	}
	if err != nil {
		return nil, storeErr(err, "order not found")
	}
	s.audit.Record("order.status", orderID, acc.Email, map[string]any{
		"from": string(order.OrderStatus),
		"to":   string(to),
	})
	return updated, nil
}

func (s *OrderService) MyOrders(ctx context.Context, email string) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeErr(err, "orders not found")
	}
	return orders, nil
}

func (s *OrderService) ChefOrders(ctx context.Context, chefEmail string) ([]models.Order, error) {
	orders, err := s.orders.ListByChef(ctx, normalizeEmail(chefEmail))
	if err != nil {
		return nil, storeErr(err, "orders not found")
	}
	return orders, nil
}

func (s *OrderService) MyPayments(ctx context.Context, email string) ([]models.Payment, error) {
	payments, err := s.payments.ListByCustomer(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeErr(err, "payments not found")
	}
	return payments, nil
}
