package service

import (
	"context"
	"testing"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/service/servicetest"
	"go.uber.org/zap"
)

type harness struct {
	store    *servicetest.Store
	provider *servicetest.Provider
	svc      *Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := servicetest.NewStore()
	provider := servicetest.NewProvider()
	svc := New(Deps{
		Accounts:  store.Accounts,
		Meals:     store.Meals,
		Requests:  store.Requests,
		Orders:    store.Orders,
		Payments:  store.Payments,
		Reviews:   store.Reviews,
		Favorites: store.Favorites,
		AuditLogs: store.AuditLogs,
		Provider:  provider,
		Currency:  "usd",
		Logger:    zap.NewNop(),
	})
	return &harness{store: store, provider: provider, svc: svc}
}

func (h *harness) account(email string, role models.Role) models.Account {
	acc := models.Account{Email: email, Name: email, Role: role, Status: models.StatusActive}
	if role == models.RoleChef {
		id := 4242
		acc.ChefID = &id
	}
	h.store.Accounts.Put(acc)
	return acc
}

func (h *harness) meal(t *testing.T, chef string, name string, price float64) *models.Meal {
	t.Helper()
	m, err := h.svc.Catalog.Create(context.Background(), chef, models.MealInput{
		FoodName: name,
		ChefName: "Chef",
		Price:    price,
		Rating:   4,
	})
	if err != nil {
		t.Fatalf("Create meal: %v", err)
	}
	return m
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %v, want %v (err: %v)", got, kind, err)
	}
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
