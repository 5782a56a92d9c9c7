package service

import (
	"context"
	"strings"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
)

type AccountService struct {
	accounts AccountRepository
	audit    Auditor
	now      func() time.Time
}

func NewAccountService(accounts AccountRepository, audit Auditor) *AccountService {
	return &AccountService{accounts: accounts, audit: audit, now: time.Now}
}

// Login records a sign-in. The first login creates the account as an active
// user.
func (s *AccountService) Login(ctx context.Context, email, name, photo string) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Invalid("email is required")
	}
	acc, err := s.accounts.UpsertLogin(ctx, email, strings.TrimSpace(name), strings.TrimSpace(photo), s.now().UTC())
	if err != nil {
		return nil, storeErr(err, "account not found")
	}
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, email string) (*models.Account, error) {
	acc, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeErr(err, "account not found")
	}
	return acc, nil
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	accs, err := s.accounts.List(ctx)
	if err != nil {
		return nil, storeErr(err, "accounts not found")
	}
	return accs, nil
}

// MarkFraud flags target as fraudulent. Admin accounts cannot be flagged.
func (s *AccountService) MarkFraud(ctx context.Context, admin, target string) (*models.Account, error) {
	acc, err := s.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	if acc.Role == models.RoleAdmin {
		return nil, apperr.Forbidden("admin accounts cannot be marked as fraud")
	}
	if acc.IsFraud() {
		return acc, nil
	}
	if err := s.accounts.SetStatus(ctx, acc.Email, models.StatusFraud); err != nil {
		return nil, storeErr(err, "account not found")
	}
	acc.Status = models.StatusFraud
	s.audit.Record("account.fraud", acc.Email, admin, nil)
	return acc, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
