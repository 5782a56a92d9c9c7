package service

import (
	"context"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
)

type StatsService struct {
	payments PaymentRepository
	accounts AccountRepository
	orders   OrderRepository
}

func NewStatsService(payments PaymentRepository, accounts AccountRepository, orders OrderRepository) *StatsService {
	return &StatsService{payments: payments, accounts: accounts, orders: orders}
}

// Dashboard aggregates revenue, account count and orders per status. Every
// status is present, zero when no order has it.
func (s *StatsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	revenue, err := s.payments.TotalRevenue(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to aggregate payments", err)
	}
	users, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to count accounts", err)
	}
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to group orders", err)
	}

	byStatus := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		byStatus[st] = counts[st]
	}
	return &models.DashboardStats{
		TotalPayments:  revenue,
		TotalUsers:     users,
		OrdersByStatus: byStatus,
	}, nil
}
