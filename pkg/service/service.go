// Package service implements the marketplace operations on top of the
// document stores, the checkout provider and the audit trail.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/payment"
	"github.com/example/chefbazaar/pkg/repository"
	"go.uber.org/zap"
)

type AccountRepository interface {
	UpsertLogin(ctx context.Context, email, name, photo string, now time.Time) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	SetRole(ctx context.Context, email string, role models.Role, chefID *int) error
	SetStatus(ctx context.Context, email string, status models.AccountStatus) error
	ChefIDTaken(ctx context.Context, chefID int) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type MealRepository interface {
	Home(ctx context.Context, n int64) ([]models.Meal, error)
	List(ctx context.Context, q models.MealQuery) ([]models.Meal, int64, error)
	ListByOwner(ctx context.Context, email string) ([]models.Meal, error)
	FindByID(ctx context.Context, id string) (*models.Meal, error)
	Insert(ctx context.Context, meal *models.Meal) error
	Update(ctx context.Context, id, owner string, in models.MealInput, now time.Time) (*models.Meal, error)
	Delete(ctx context.Context, id, owner string) error
}

type RoleRequestRepository interface {
	Insert(ctx context.Context, req *models.RoleRequest) error
	FindPending(ctx context.Context, email string, typ models.RequestType) (*models.RoleRequest, error)
	ListByType(ctx context.Context, typ models.RequestType) ([]models.RoleRequest, error)
	DeletePending(ctx context.Context, email string, typ models.RequestType) error
	Reject(ctx context.Context, email string, typ models.RequestType) error
}

type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, email string) ([]models.Order, error)
	ListByChef(ctx context.Context, chefEmail string) ([]models.Order, error)
	AttachCheckout(ctx context.Context, id, sessionID string, now time.Time) error
	MarkPaid(ctx context.Context, id, transactionID, trackingID string, now time.Time) (*models.Order, bool, error)
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, now time.Time) (*models.Order, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
}

type PaymentRepository interface {
	FindByTransaction(ctx context.Context, transactionID string) (*models.Payment, error)
	Insert(ctx context.Context, p *models.Payment) error
	ListByCustomer(ctx context.Context, email string) ([]models.Payment, error)
	TotalRevenue(ctx context.Context) (float64, error)
}

type ReviewRepository interface {
	Replace(ctx context.Context, r *models.Review) (*models.Review, error)
	ListByFood(ctx context.Context, foodID string) ([]models.Review, error)
	ListByReviewer(ctx context.Context, email string) ([]models.Review, error)
	Update(ctx context.Context, id, reviewer string, rating int, comment string, now time.Time) (*models.Review, error)
	Delete(ctx context.Context, id, reviewer string) error
}

type FavoriteRepository interface {
	Upsert(ctx context.Context, f *models.Favorite) (*models.Favorite, bool, error)
	ListByUser(ctx context.Context, email string) ([]models.Favorite, error)
	Delete(ctx context.Context, id, email string) error
}

type AuditLogRepository interface {
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]repository.AuditLog, error)
}

// Locker grants short-lived exclusive holds on a key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// Auditor receives a record of every state change. Implementations must not
// block the caller.
type Auditor interface {
	Record(action, entityID, actor string, data map[string]any)
}

// NopLocker always grants the lock. Used when no Redis is configured; the
// unique transactionId index still guards the ledger.
type NopLocker struct{}

func (NopLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

type NopAuditor struct{}

func (NopAuditor) Record(string, string, string, map[string]any) {}

// Deps bundles everything the services need.
type Deps struct {
	Accounts  AccountRepository
	Meals     MealRepository
	Requests  RoleRequestRepository
	Orders    OrderRepository
	Payments  PaymentRepository
	Reviews   ReviewRepository
	Favorites FavoriteRepository
	AuditLogs AuditLogRepository
	Provider  payment.Provider
	Locker    Locker
	Auditor   Auditor
	LockTTL   time.Duration
	Currency  string
	Logger    *zap.Logger
}

type Services struct {
	Accounts  *AccountService
	Catalog   *CatalogService
	Roles     *RoleService
	Orders    *OrderService
	Reviews   *ReviewService
	Favorites *FavoriteService
	Stats     *StatsService
	Audit     *AuditService
}

func New(d Deps) *Services {
	if d.Locker == nil {
		d.Locker = NopLocker{}
	}
	if d.Auditor == nil {
		d.Auditor = NopAuditor{}
	}
	if d.AuditLogs == nil {
		d.AuditLogs = noAuditLogs{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 30 * time.Second
	}
	return &Services{
		Accounts:  NewAccountService(d.Accounts, d.Auditor),
		Catalog:   NewCatalogService(d.Meals, d.Accounts, d.Auditor),
		Roles:     NewRoleService(d.Requests, d.Accounts, d.Auditor, d.Logger.Named("roles")),
		Orders:    NewOrderService(d, d.Logger.Named("orders")),
		Reviews:   NewReviewService(d.Reviews, d.Meals, d.Auditor),
		Favorites: NewFavoriteService(d.Favorites, d.Meals),
		Stats:     NewStatsService(d.Payments, d.Accounts, d.Orders),
		Audit:     NewAuditService(d.AuditLogs),
	}
}

// storeErr maps repository sentinels onto the error taxonomy.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, notFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Wrap(apperr.KindConflict, "resource already exists", err)
	default:
		return apperr.Internal("store operation failed", err)
	}
}

// activeAccount loads the caller's account and rejects unknown or flagged
// accounts.
func activeAccount(ctx context.Context, accounts AccountRepository, email string) (*models.Account, error) {
	acc, err := accounts.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Forbidden("account is not registered")
	}
	if err != nil {
		return nil, storeErr(err, "account not found")
	}
	if acc.IsFraud() {
		return nil, apperr.Forbidden("account is flagged as fraud")
	}
	return acc, nil
}
