package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/payment"
)

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Pasta", 12.0)

	order, err := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 2})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if order.PaymentStatus != models.PaymentNone || order.OrderStatus != models.OrderPending {
		t.Fatalf("new order statuses = %s/%s", order.PaymentStatus, order.OrderStatus)
	}
	if order.ChefEmail != "chef@x.com" || order.ChefID != 4242 || order.Price != 12.0 {
		t.Errorf("order not denormalised from meal: %+v", order)
	}
	orderID := order.ID.Hex()

	checkout, err := h.svc.Orders.OpenCheckout(ctx, "a@x.com", orderID)
	if err != nil {
		t.Fatalf("OpenCheckout() error = %v", err)
	}
	if checkout.URL == "" {
		t.Error("expected a redirect URL")
	}
	stored, _ := h.store.Orders.FindByID(ctx, orderID)
	if stored.PaymentStatus != models.PaymentPending || stored.CheckoutSessionID != checkout.SessionID {
		t.Fatalf("after checkout order = %+v", stored)
	}
	req := h.provider.Created[0]
	if req.OrderID != orderID || req.MealID != meal.ID.Hex() || req.Quantity != 2 {
		t.Errorf("session request = %+v", req)
	}

	h.provider.Pay(checkout.SessionID, "T1")

	first, err := h.svc.Orders.ConfirmPayment(ctx, checkout.SessionID)
	if err != nil {
		t.Fatalf("ConfirmPayment() error = %v", err)
	}
	if !first.Completed || first.Duplicate {
		t.Fatalf("first confirmation = %+v", first)
	}
	if !strings.HasPrefix(first.TrackingID, TrackingPrefix) {
		t.Errorf("tracking id = %q", first.TrackingID)
	}
	if first.Payment == nil || first.Payment.Price != 24.0 || first.Payment.TransactionID != "T1" {
		t.Errorf("payment = %+v", first.Payment)
	}
	afterFirst, _ := h.store.Orders.FindByID(ctx, orderID)
	if afterFirst.PaymentStatus != models.PaymentPaid || afterFirst.TransactionID != "T1" {
		t.Fatalf("after confirm order = %+v", afterFirst)
	}

	second, err := h.svc.Orders.ConfirmPayment(ctx, checkout.SessionID)
	if err != nil {
		t.Fatalf("second ConfirmPayment() error = %v", err)
	}
	if !second.Duplicate {
		t.Error("second confirmation should be reported as duplicate")
	}
	if h.store.Payments.Len() != 1 {
		t.Errorf("payments = %d, want 1", h.store.Payments.Len())
	}
	afterSecond, _ := h.store.Orders.FindByID(ctx, orderID)
	if afterSecond.TrackingID != afterFirst.TrackingID || !afterSecond.UpdatedAt.Equal(afterFirst.UpdatedAt) {
		t.Errorf("order changed on duplicate confirm: %+v vs %+v", afterSecond, afterFirst)
	}

	payments, err := h.svc.Orders.MyPayments(ctx, "a@x.com")
	if err != nil || len(payments) != 1 {
		t.Fatalf("MyPayments() = %v, %v", payments, err)
	}
}

func TestConfirmPayment_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)
	order, _ := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})
	checkout, _ := h.svc.Orders.OpenCheckout(ctx, "a@x.com", order.ID.Hex())
	h.provider.Pay(checkout.SessionID, "T-race")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.svc.Orders.ConfirmPayment(ctx, checkout.SessionID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("ConfirmPayment() error = %v", err)
	}
	if h.store.Payments.Len() != 1 {
		t.Errorf("payments = %d, want exactly 1", h.store.Payments.Len())
	}
}

func TestConfirmPayment_SameTransactionTwoSessions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)
	order, _ := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})

	for _, id := range []string{"cs_a", "cs_b"} {
		h.provider.AddSession(payment.Session{
			ID:              id,
			PaymentStatus:   payment.StatusPaid,
			PaymentIntentID: "T-shared",
			Metadata:        map[string]string{payment.MetaOrderID: order.ID.Hex()},
			AmountTotal:     8,
		})
	}
	if _, err := h.svc.Orders.ConfirmPayment(ctx, "cs_a"); err != nil {
		t.Fatal(err)
	}
	res, err := h.svc.Orders.ConfirmPayment(ctx, "cs_b")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Duplicate || h.store.Payments.Len() != 1 {
		t.Errorf("duplicate = %v, payments = %d", res.Duplicate, h.store.Payments.Len())
	}
}

func TestConfirmPayment_NotPaid(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)
	order, _ := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})
	checkout, _ := h.svc.Orders.OpenCheckout(ctx, "a@x.com", order.ID.Hex())

	res, err := h.svc.Orders.ConfirmPayment(ctx, checkout.SessionID)
	if err != nil {
		t.Fatalf("ConfirmPayment() error = %v", err)
	}
	if res.Completed {
		t.Error("unpaid session reported as completed")
	}
	stored, _ := h.store.Orders.FindByID(ctx, order.ID.Hex())
	if stored.PaymentStatus != models.PaymentPending || h.store.Payments.Len() != 0 {
		t.Errorf("state changed for unpaid session: %+v", stored)
	}
}

func TestConfirmPayment_UnknownSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Orders.ConfirmPayment(context.Background(), "cs_missing")
	assertKind(t, err, apperr.KindUpstream)
}

func TestOpenCheckout_ProviderFailureLeavesOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)
	order, _ := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})

	h.provider.CreateErr = errors.New("stripe unavailable")
	_, err := h.svc.Orders.OpenCheckout(ctx, "a@x.com", order.ID.Hex())
	assertKind(t, err, apperr.KindUpstream)

	stored, _ := h.store.Orders.FindByID(ctx, order.ID.Hex())
	if stored.PaymentStatus != models.PaymentNone || stored.CheckoutSessionID != "" {
		t.Errorf("order modified after provider failure: %+v", stored)
	}
}

func TestOpenCheckout_Guards(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	h.account("b@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)
	order, _ := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})

	_, err := h.svc.Orders.OpenCheckout(ctx, "b@x.com", order.ID.Hex())
	assertKind(t, err, apperr.KindForbidden)

	_, err = h.svc.Orders.OpenCheckout(ctx, "a@x.com", "not-an-id")
	assertKind(t, err, apperr.KindNotFound)

	user := h.account("a@x.com", models.RoleUser)
	if _, err := h.svc.Orders.UpdateStatus(ctx, &user, order.ID.Hex(), models.OrderCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = h.svc.Orders.OpenCheckout(ctx, "a@x.com", order.ID.Hex())
	assertKind(t, err, apperr.KindConflict)
	if len(h.provider.Created) != 0 {
		t.Errorf("provider called for a cancelled order: %+v", h.provider.Created)
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	fraud := models.Account{Email: "f@x.com", Role: models.RoleUser, Status: models.StatusFraud}
	h.store.Accounts.Put(fraud)
	meal := h.meal(t, "chef@x.com", "Soup", 8)

	_, err := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 0})
	assertKind(t, err, apperr.KindInvalid)

	_, err = h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: "64b000000000000000000000", Quantity: 1})
	assertKind(t, err, apperr.KindNotFound)

	_, err = h.svc.Orders.PlaceOrder(ctx, "f@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})
	assertKind(t, err, apperr.KindForbidden)
}

func TestMarkPaid_RedrawsOnTrackingCollision(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)

	ids := []string{"TRK-AAAAAAAAAA", "TRK-AAAAAAAAAA", "TRK-BBBBBBBBBB"}
	h.svc.Orders.trackingIDs = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	var tracking []string
	for _, tx := range []string{"T1", "T2"} {
		order, _ := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})
		checkout, _ := h.svc.Orders.OpenCheckout(ctx, "a@x.com", order.ID.Hex())
		h.provider.Pay(checkout.SessionID, tx)
		res, err := h.svc.Orders.ConfirmPayment(ctx, checkout.SessionID)
		if err != nil {
			t.Fatalf("ConfirmPayment(%s) error = %v", tx, err)
		}
		tracking = append(tracking, res.TrackingID)
	}
	if tracking[0] != "TRK-AAAAAAAAAA" || tracking[1] != "TRK-BBBBBBBBBB" {
		t.Errorf("tracking ids = %v", tracking)
	}
}

type busyLocker struct{}

func (busyLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return nil, false, nil
}

func TestConfirmPayment_LockContention(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)
	order, _ := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})
	checkout, _ := h.svc.Orders.OpenCheckout(ctx, "a@x.com", order.ID.Hex())
	h.provider.Pay(checkout.SessionID, "T1")

	h.svc.Orders.locker = busyLocker{}
	_, err := h.svc.Orders.ConfirmPayment(ctx, checkout.SessionID)
	assertKind(t, err, apperr.KindConflict)
	if h.store.Payments.Len() != 0 {
		t.Error("payment written without the lock")
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	chef := h.account("chef@x.com", models.RoleChef)
	other := h.account("other@x.com", models.RoleChef)
	user := h.account("a@x.com", models.RoleUser)
	admin := h.account("admin@x.com", models.RoleAdmin)
	meal := h.meal(t, "chef@x.com", "Soup", 8)

	place := func() string {
		o, err := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1})
		if err != nil {
			t.Fatal(err)
		}
		return o.ID.Hex()
	}

	id := place()
	_, err := h.svc.Orders.UpdateStatus(ctx, &other, id, models.OrderConfirmed)
	assertKind(t, err, apperr.KindForbidden)

	_, err = h.svc.Orders.UpdateStatus(ctx, &user, id, models.OrderConfirmed)
	assertKind(t, err, apperr.KindConflict)

	o, err := h.svc.Orders.UpdateStatus(ctx, &chef, id, models.OrderConfirmed)
	if err != nil || o.OrderStatus != models.OrderConfirmed {
		t.Fatalf("chef confirm = %v, %v", o, err)
	}
	_, err = h.svc.Orders.UpdateStatus(ctx, &chef, id, models.OrderPending)
	assertKind(t, err, apperr.KindConflict)

	o, err = h.svc.Orders.UpdateStatus(ctx, &admin, id, models.OrderDelivered)
	if err != nil || o.OrderStatus != models.OrderDelivered {
		t.Fatalf("admin deliver = %v, %v", o, err)
	}
	_, err = h.svc.Orders.UpdateStatus(ctx, &admin, id, models.OrderCancelled)
	assertKind(t, err, apperr.KindConflict)

	id2 := place()
	o, err = h.svc.Orders.UpdateStatus(ctx, &user, id2, models.OrderCancelled)
	if err != nil || o.OrderStatus != models.OrderCancelled {
		t.Fatalf("user cancel = %v, %v", o, err)
	}

	_, err = h.svc.Orders.UpdateStatus(ctx, &admin, id2, "shipped")
	assertKind(t, err, apperr.KindInvalid)
}

func TestChefOrders(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	h.account("a@x.com", models.RoleUser)
	meal := h.meal(t, "chef@x.com", "Soup", 8)
	for i := 0; i < 3; i++ {
		if _, err := h.svc.Orders.PlaceOrder(ctx, "a@x.com", PlaceOrderInput{MealID: meal.ID.Hex(), Quantity: 1}); err != nil {
			t.Fatal(err)
		}
	}
	orders, err := h.svc.Orders.ChefOrders(ctx, "chef@x.com")
	if err != nil || len(orders) != 3 {
		t.Fatalf("ChefOrders() = %d, %v", len(orders), err)
	}
	mine, _ := h.svc.Orders.MyOrders(ctx, "A@X.com")
	if len(mine) != 3 {
		t.Errorf("MyOrders() = %d, want 3", len(mine))
	}
}
