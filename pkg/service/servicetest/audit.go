package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/chefbazaar/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLogs doubles as the audit recorder's store and the trail reader.
type AuditLogs struct {
	mu      sync.Mutex
	entries []repository.AuditLog
}

func (s *AuditLogs) CreateAuditLog(_ context.Context, entry *repository.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.ID = primitive.NewObjectID()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *AuditLogs) GetAuditLogs(_ context.Context, entityID string, limit int64) ([]repository.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []repository.AuditLog{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].EntityID == entityID {
			out = append(out, s.entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *AuditLogs) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
