package service

import (
	"context"
	"strings"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/repository"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

// AuditService reads back the trail written by the audit recorder.
type AuditService struct {
	logs AuditLogRepository
}

func NewAuditService(logs AuditLogRepository) *AuditService {
	return &AuditService{logs: logs}
}

// Trail lists the entries recorded for entityID, newest first. Entity ids are
// order, meal, transaction ids or account emails.
func (s *AuditService) Trail(ctx context.Context, entityID string, limit int) ([]repository.AuditLog, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return nil, apperr.Invalid("entity id is required")
	}
	switch {
	case limit <= 0:
		limit = DefaultAuditLimit
	case limit > MaxAuditLimit:
		limit = MaxAuditLimit
	}
	logs, err := s.logs.GetAuditLogs(ctx, entityID, int64(limit))
	if err != nil {
		return nil, apperr.Internal("failed to load audit trail", err)
	}
	if logs == nil {
		logs = []repository.AuditLog{}
	}
	return logs, nil
}

type noAuditLogs struct{}

func (noAuditLogs) GetAuditLogs(context.Context, string, int64) ([]repository.AuditLog, error) {
	return []repository.AuditLog{}, nil
}
