package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/chefbazaar/pkg/audit"
	"github.com/example/chefbazaar/pkg/config"
	"github.com/example/chefbazaar/pkg/identity"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/service"
	"github.com/example/chefbazaar/pkg/service/servicetest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MockVerifier implements identity.Verifier for testing
type MockVerifier struct {
	VerifyFunc func(ctx context.Context, token string) (*identity.Principal, error)
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*identity.Principal, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	return nil, identity.ErrInvalidToken
}

// tokenVerifier accepts tokens of the form "token:<email>".
func tokenVerifier() *MockVerifier {
	return &MockVerifier{VerifyFunc: func(_ context.Context, token string) (*identity.Principal, error) {
		email, ok := strings.CutPrefix(token, "token:")
		if !ok {
			return nil, identity.ErrInvalidToken
		}
		return &identity.Principal{UID: email, Email: email, Name: "Test " + email}, nil
	}}
}

type testEnv struct {
	store    *servicetest.Store
	provider *servicetest.Provider
	recorder *audit.Recorder
	handler  http.Handler
}

type envSetup struct {
	cfg    *config.Config
	logger *zap.Logger
	audit  bool
}

type envOption func(*envSetup)

func withLogger(logger *zap.Logger) envOption {
	return func(s *envSetup) { s.logger = logger }
}

// withAudit routes service audit entries through a real recorder backed by
// the in-memory store.
func withAudit() envOption {
	return func(s *envSetup) { s.audit = true }
}

func withOrigins(origins ...string) envOption {
	return func(s *envSetup) { s.cfg.HTTP.AllowedOrigins = origins }
}

func newTestEnv(t *testing.T, ready ReadyFunc, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	setup := &envSetup{
		cfg:    &config.Config{HTTP: config.HTTPConfig{AllowedOrigins: []string{"http://localhost:5173"}}},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(setup)
	}

	store := servicetest.NewStore()
	provider := servicetest.NewProvider()
	env := &testEnv{store: store, provider: provider}

	var auditor service.Auditor
	if setup.audit {
		rec, err := audit.NewRecorder(store.AuditLogs, zap.NewNop())
		if err != nil {
			t.Fatalf("NewRecorder() error = %v", err)
		}
		env.recorder = rec
		auditor = rec
	}

	svc := service.New(service.Deps{
		Accounts:  store.Accounts,
		Meals:     store.Meals,
		Requests:  store.Requests,
		Orders:    store.Orders,
		Payments:  store.Payments,
		Reviews:   store.Reviews,
		Favorites: store.Favorites,
		AuditLogs: store.AuditLogs,
		Provider:  provider,
		Auditor:   auditor,
		Currency:  "usd",
	})
	gw := NewGateway(setup.cfg, setup.logger, tokenVerifier(), svc, ready)
	gw.SetupRoutes()
	env.handler = gw.Handler()
	return env
}

func (e *testEnv) account(email string, role models.Role) {
	acc := models.Account{Email: email, Name: email, Role: role}
	if role == models.RoleChef {
		id := 1234
		acc.ChefID = &id
	}
	e.store.Accounts.Put(acc)
}

func (e *testEnv) do(t *testing.T, method, path, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set("Authorization", "Bearer token:"+email)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}

var mealBody = map[string]any{"foodName": "Pasta", "chefName": "Chef", "price": 12.0, "rating": 4}

func TestChefMutations_RequireAuthentication(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/meals"},
		{http.MethodPatch, "/mymeals/64b000000000000000000000"},
		{http.MethodDelete, "/mymeals/64b000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, "", mealBody)
			expectStatus(t, w, http.StatusUnauthorized)
			if msg := decode[map[string]string](t, w)["message"]; msg == "" {
				t.Error("error body has no message")
			}
		})
	}
	if env.store.Meals.Len() != 0 {
		t.Error("store touched by unauthenticated request")
	}
}

func TestInvalidToken(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/my-orders", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestRoleGuard_PositiveMatch(t *testing.T) {
	env := newTestEnv(t, nil)
	env.account("user@x.com", models.RoleUser)
	env.store.Accounts.Put(models.Account{Email: "norole@x.com"})
	env.account("chef@x.com", models.RoleChef)

	expectStatus(t, env.do(t, http.MethodPost, "/meals", "user@x.com", mealBody), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPost, "/meals", "norole@x.com", mealBody), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPost, "/meals", "stranger@x.com", mealBody), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, "/dashboard-statistics", "norole@x.com", nil), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, "/dashboard-statistics", "chef@x.com", nil), http.StatusForbidden)

	w := env.do(t, http.MethodPost, "/meals", "chef@x.com", mealBody)
	expectStatus(t, w, http.StatusCreated)
	meal := decode[models.Meal](t, w)
	if meal.ChefID != 1234 || meal.UserEmail != "chef@x.com" {
		t.Errorf("meal = %+v", meal)
	}
}

func TestCreateMeal_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.account("chef@x.com", models.RoleChef)
	w := env.do(t, http.MethodPost, "/meals", "chef@x.com", map[string]any{"foodName": "P", "rating": 9})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestListMeals_Pagination(t *testing.T) {
	env := newTestEnv(t, nil)
	env.account("chef@x.com", models.RoleChef)
	for i := 0; i < 15; i++ {
		body := map[string]any{"foodName": fmt.Sprintf("Meal %d", i), "chefName": "Chef", "price": float64(i)}
		expectStatus(t, env.do(t, http.MethodPost, "/meals", "chef@x.com", body), http.StatusCreated)
	}

	w := env.do(t, http.MethodGet, "/allmeals?page=2&limit=10", "", nil)
	expectStatus(t, w, http.StatusOK)
	page := decode[models.MealPage](t, w)
	if len(page.Meals) != 5 || page.TotalPages != 2 || page.CurrentPage != 2 {
		t.Errorf("page = %d meals, totalPages %d, currentPage %d", len(page.Meals), page.TotalPages, page.CurrentPage)
	}

	w = env.do(t, http.MethodGet, "/meals", "", nil)
	expectStatus(t, w, http.StatusOK)
	if home := decode[[]models.Meal](t, w); len(home) != service.HomeMealCount {
		t.Errorf("home = %d meals", len(home))
	}

	expectStatus(t, env.do(t, http.MethodGet, "/meals/not-an-id", "", nil), http.StatusNotFound)
}

func TestRoleRequestFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.account("admin@x.com", models.RoleAdmin)

	expectStatus(t, env.do(t, http.MethodPost, "/users", "ann@x.com", map[string]string{"name": "Ann"}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPost, "/become-chef", "ann@x.com", nil), http.StatusCreated)
	expectStatus(t, env.do(t, http.MethodPost, "/become-chef", "ann@x.com", nil), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPost, "/become-admin", "ann@x.com", nil), http.StatusCreated)

	w := env.do(t, http.MethodGet, "/chef-requests", "admin@x.com", nil)
	expectStatus(t, w, http.StatusOK)
	if reqs := decode[[]models.RoleRequest](t, w); len(reqs) != 1 || reqs[0].UserName != "Ann" {
		t.Fatalf("chef requests = %+v", reqs)
	}

	w = env.do(t, http.MethodPatch, "/update-role", "admin@x.com",
		map[string]string{"email": "ann@x.com", "requestType": "chef", "role": "chef"})
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/users/role", "ann@x.com", nil)
	expectStatus(t, w, http.StatusOK)
	role := decode[map[string]any](t, w)
	if role["role"] != "chef" || role["chefId"] == nil {
		t.Errorf("role = %v", role)
	}
	if _, err := env.store.Requests.FindPending(context.Background(), "ann@x.com", models.RequestChef); err == nil {
		t.Error("pending chef request survived approval")
	}

	expectStatus(t, env.do(t, http.MethodPatch, "/reject-request", "admin@x.com",
		map[string]string{"email": "ann@x.com", "requestType": "admin"}), http.StatusOK)
	w = env.do(t, http.MethodGet, "/admin-requests", "admin@x.com", nil)
	if reqs := decode[[]models.RoleRequest](t, w); len(reqs) != 1 || reqs[0].RequestStatus != models.RequestRejected {
		t.Errorf("admin requests = %+v", reqs)
	}

	expectStatus(t, env.do(t, http.MethodPatch, "/update-role", "admin@x.com",
		map[string]string{"email": "ann@x.com", "requestType": "owner", "role": "chef"}), http.StatusBadRequest)
}

func TestOrderAndPaymentFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.account("chef@x.com", models.RoleChef)
	env.account("a@x.com", models.RoleUser)
	env.account("admin@x.com", models.RoleAdmin)

	meal := decode[models.Meal](t, env.do(t, http.MethodPost, "/meals", "chef@x.com", mealBody))

	w := env.do(t, http.MethodPost, "/orders", "a@x.com", map[string]any{"mealId": meal.ID.Hex(), "quantity": 2})
	expectStatus(t, w, http.StatusCreated)
	order := decode[models.Order](t, w)
	if order.PaymentStatus != models.PaymentNone {
		t.Fatalf("new order payment status = %s", order.PaymentStatus)
	}

	w = env.do(t, http.MethodPost, "/create-checkout-session", "a@x.com",
		map[string]any{"orderId": order.ID.Hex(), "mealName": "Pasta", "price": 12.0, "quantity": 2})
	expectStatus(t, w, http.StatusOK)
	checkout := decode[service.CheckoutResult](t, w)
	if checkout.URL == "" {
		t.Fatal("no checkout url")
	}

	w = env.do(t, http.MethodPatch, "/success-payment?session_id="+checkout.SessionID, "a@x.com", nil)
	expectStatus(t, w, http.StatusOK)
	if res := decode[map[string]any](t, w); res["completed"] != false {
		t.Errorf("unpaid session = %v", res)
	}

	env.provider.Pay(checkout.SessionID, "T1")
	for i := 0; i < 2; i++ {
		w = env.do(t, http.MethodPatch, "/success-payment?session_id="+checkout.SessionID, "a@x.com", nil)
		expectStatus(t, w, http.StatusOK)
		res := decode[service.Confirmation](t, w)
		if res.TransactionID != "T1" || !strings.HasPrefix(res.TrackingID, service.TrackingPrefix) {
			t.Errorf("confirmation %d = %+v", i, res)
		}
		if res.Duplicate != (i == 1) {
			t.Errorf("confirmation %d duplicate = %v", i, res.Duplicate)
		}
	}
	if env.store.Payments.Len() != 1 {
		t.Errorf("payments = %d, want 1", env.store.Payments.Len())
	}

	expectStatus(t, env.do(t, http.MethodPost, "/create-checkout-session", "a@x.com",
		map[string]any{"orderId": order.ID.Hex()}), http.StatusConflict)

	w = env.do(t, http.MethodPatch, "/orders/"+order.ID.Hex()+"/status", "chef@x.com", map[string]string{"orderStatus": "confirmed"})
	expectStatus(t, w, http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPatch, "/orders/"+order.ID.Hex()+"/status", "chef@x.com",
		map[string]string{"orderStatus": "pending"}), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPatch, "/orders/"+order.ID.Hex()+"/status", "chef@x.com",
		map[string]string{"orderStatus": "shipped"}), http.StatusBadRequest)

	w = env.do(t, http.MethodGet, "/dashboard-statistics", "admin@x.com", nil)
	expectStatus(t, w, http.StatusOK)
	stats := decode[models.DashboardStats](t, w)
	if stats.TotalPayments != 24 || stats.OrdersByStatus[models.OrderConfirmed] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	w = env.do(t, http.MethodGet, "/payments", "a@x.com", nil)
	if p := decode[[]models.Payment](t, w); len(p) != 1 {
		t.Errorf("payments = %d", len(p))
	}
}

func TestCheckout_ProviderFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.account("chef@x.com", models.RoleChef)
	env.account("a@x.com", models.RoleUser)
	meal := decode[models.Meal](t, env.do(t, http.MethodPost, "/meals", "chef@x.com", mealBody))
	order := decode[models.Order](t, env.do(t, http.MethodPost, "/orders", "a@x.com", map[string]any{"mealId": meal.ID.Hex(), "quantity": 1}))

	env.provider.CreateErr = errors.New("card network down")
	w := env.do(t, http.MethodPost, "/create-checkout-session", "a@x.com", map[string]any{"orderId": order.ID.Hex()})
	expectStatus(t, w, http.StatusBadGateway)
	if strings.Contains(w.Body.String(), "card network") {
		t.Error("upstream cause leaked to client")
	}
}

func TestReviewsAndFavorites(t *testing.T) {
	env := newTestEnv(t, nil)
	env.account("chef@x.com", models.RoleChef)
	meal := decode[models.Meal](t, env.do(t, http.MethodPost, "/meals", "chef@x.com", mealBody))

	w := env.do(t, http.MethodPost, "/reviews", "a@x.com", map[string]any{"foodId": meal.ID.Hex(), "rating": 5, "comment": "lovely"})
	expectStatus(t, w, http.StatusOK)
	review := decode[models.Review](t, w)

	w = env.do(t, http.MethodGet, "/meals/"+meal.ID.Hex()+"/reviews", "", nil)
	if list := decode[[]models.Review](t, w); len(list) != 1 {
		t.Errorf("reviews = %d", len(list))
	}
	expectStatus(t, env.do(t, http.MethodPatch, "/reviews/64b000000000000000000000", "a@x.com",
		map[string]any{"rating": 3}), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodPatch, "/reviews/"+review.ID.Hex(), "a@x.com",
		map[string]any{"rating": 3, "comment": "ok"}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodDelete, "/reviews/"+review.ID.Hex(), "a@x.com", nil), http.StatusOK)

	expectStatus(t, env.do(t, http.MethodPost, "/favourite-meal", "a@x.com", map[string]any{"mealId": meal.ID.Hex()}), http.StatusCreated)
	expectStatus(t, env.do(t, http.MethodPost, "/favourite-meal", "a@x.com", map[string]any{"mealId": meal.ID.Hex()}), http.StatusOK)
	w = env.do(t, http.MethodGet, "/favourite-meals", "a@x.com", nil)
	favs := decode[[]models.Favorite](t, w)
	if len(favs) != 1 {
		t.Fatalf("favorites = %d", len(favs))
	}
	expectStatus(t, env.do(t, http.MethodDelete, "/favourite-meal/"+favs[0].ID.Hex(), "a@x.com", nil), http.StatusOK)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	expectStatus(t, env.do(t, http.MethodGet, "/health", "", nil), http.StatusOK)

	down := newTestEnv(t, func(context.Context) error { return errors.New("mongo unreachable") })
	expectStatus(t, down.do(t, http.MethodGet, "/health", "", nil), http.StatusServiceUnavailable)
}
