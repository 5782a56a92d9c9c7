package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/repository"
	"go.uber.org/zap"
)

const maxChefIDDraws = 10

type RoleService struct {
	requests RoleRequestRepository
	accounts AccountRepository
	audit    Auditor
	logger   *zap.Logger
	now      func() time.Time
	chefIDs  func() (int, error)
}

func NewRoleService(requests RoleRequestRepository, accounts AccountRepository, audit Auditor, logger *zap.Logger) *RoleService {
	return &RoleService{
		requests: requests,
		accounts: accounts,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
		chefIDs:  NewChefID,
	}
}

// Request files a pending role request. Only one pending request per
// (email, type) may exist.
func (s *RoleService) Request(ctx context.Context, email, name string, typ models.RequestType) (*models.RoleRequest, error) {
	if !typ.Valid() {
		return nil, apperr.Invalid("unknown request type")
	}
	acc, err := activeAccount(ctx, s.accounts, email)
	if err != nil {
		return nil, err
	}
	if acc.Role == typ.Role() {
		return nil, apperr.Conflict("account already has the " + string(typ) + " role")
	}

	_, err = s.requests.FindPending(ctx, acc.Email, typ)
	switch {
	case err == nil:
		return nil, apperr.Conflict("a " + string(typ) + " request is already pending")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr(err, "request not found")
	}

	if name == "" {
		name = acc.Name
	}
	req := &models.RoleRequest{
		UserEmail:     acc.Email,
		UserName:      name,
		RequestType:   typ,
		RequestStatus: models.RequestPending,
		RequestTime:   s.now().UTC(),
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("a " + string(typ) + " request is already pending")
		}
		return nil, storeErr(err, "request not found")
	}
	s.audit.Record("role.requested", acc.Email, acc.Email, map[string]any{"type": string(typ)})
	return req, nil
}

func (s *RoleService) List(ctx context.Context, typ models.RequestType) ([]models.RoleRequest, error) {
	if !typ.Valid() {
		return nil, apperr.Invalid("unknown request type")
	}
	reqs, err := s.requests.ListByType(ctx, typ)
	if err != nil {
		return nil, storeErr(err, "requests not found")
	}
	return reqs, nil
}

// Approve grants the requested role and removes the pending request. The
// account is updated before the request is deleted.
func (s *RoleService) Approve(ctx context.Context, admin, email string, typ models.RequestType, role models.Role) (*models.Account, error) {
	if !typ.Valid() {
		return nil, apperr.Invalid("unknown request type")
	}
	if role != typ.Role() {
		return nil, apperr.Invalid("role does not match the request type")
	}
	email = normalizeEmail(email)
	if _, err := s.requests.FindPending(ctx, email, typ); err != nil {
		return nil, storeErr(err, "no pending "+string(typ)+" request for this account")
	}
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err, "account not found")
	}

	if role == models.RoleChef && acc.ChefID == nil {
		id, err := s.assignChefID(ctx, email)
		if err != nil {
			return nil, err
		}
		acc.ChefID = &id
	} else if err := s.accounts.SetRole(ctx, email, role, nil); err != nil {
		return nil, storeErr(err, "account not found")
	}
	acc.Role = role

	if err := s.requests.DeletePending(ctx, email, typ); err != nil && !errors.Is(err, repository.ErrNotFound) {
		// the role is granted; a stale request is harmless and an admin can reject it
		s.logger.Warn("Failed to delete approved request",
			zap.String("email", email), zap.String("type", string(typ)), zap.Error(err))
	}
	s.audit.Record("role.approved", email, admin, map[string]any{"role": string(role)})
	return acc, nil
}

// assignChefID draws chef ids until one is free and stores it with the chef
// role. The unique chefId index rejects a draw that raced another approval.
func (s *RoleService) assignChefID(ctx context.Context, email string) (int, error) {
	for i := 0; i < maxChefIDDraws; i++ {
		id, err := s.chefIDs()
		if err != nil {
			return 0, apperr.Internal("failed to generate chef id", err)
		}
		taken, err := s.accounts.ChefIDTaken(ctx, id)
		if err != nil {
			return 0, storeErr(err, "account not found")
		}
		if taken {
			continue
		}
		err = s.accounts.SetRole(ctx, email, models.RoleChef, &id)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return 0, storeErr(err, "account not found")
		}
		return id, nil
	}
	return 0, apperr.Conflict("could not allocate a free chef id, retry later")
}

func (s *RoleService) Reject(ctx context.Context, admin, email string, typ models.RequestType) error {
	if !typ.Valid() {
		return apperr.Invalid("unknown request type")
	}
	email = normalizeEmail(email)
	if err := s.requests.Reject(ctx, email, typ); err != nil {
		return storeErr(err, "no pending "+string(typ)+" request for this account")
	}
	s.audit.Record("role.rejected", email, admin, map[string]any{"type": string(typ)})
	return nil
}
