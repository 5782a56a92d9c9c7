package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/chefbazaar/pkg/repository"
	"go.uber.org/zap"
)

type memStore struct {
	mu   sync.Mutex
	logs []*repository.AuditLog
	err  error
}

func (m *memStore) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

func TestRecorder_PersistsInOrder(t *testing.T) {
	store := &memStore{}
	rec, err := NewRecorder(store, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	rec.Record("order.placed", "o1", "ann@example.com", map[string]any{"quantity": 2})
	rec.Record("payment.recorded", "tx1", "ann@example.com", nil)
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(store.logs))
	}
	if store.logs[0].Action != "order.placed" || store.logs[1].EntityID != "tx1" {
		t.Errorf("unexpected order: %+v, %+v", store.logs[0], store.logs[1])
	}
	if store.logs[0].Service != serviceName || store.logs[0].CreatedAt.IsZero() {
		t.Errorf("entry not stamped: %+v", store.logs[0])
	}
}

func TestRecorder_StoreErrorDoesNotStopActor(t *testing.T) {
	store := &memStore{err: errors.New("mongo down")}
	rec, err := NewRecorder(store, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	rec.Record("meal.created", "m1", "chef@example.com", nil)
	rec.Record("meal.created", "m2", "chef@example.com", nil)
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(store.logs) != 0 {
		t.Errorf("logs = %d, want 0", len(store.logs))
	}
}
