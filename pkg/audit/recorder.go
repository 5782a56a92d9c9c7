// Package audit records state-changing operations asynchronously. Entries are
// handed to a single actor that persists them in arrival order, so callers
// never wait on the audit store.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/chefbazaar/pkg/metrics"
	"github.com/example/chefbazaar/pkg/repository"
	"go.uber.org/zap"
)

const (
	serviceName  = "chefbazaar"
	writeTimeout = 5 * time.Second
)

// Store persists audit entries.
type Store interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

type recordEntry struct {
	Action   string
	EntityID string
	Actor    string
	Data     map[string]any
	At       time.Time
}

type auditActor struct {
	store  Store
	logger *zap.Logger
}

func (a *auditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *recordEntry:
		wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := a.store.CreateAuditLog(wctx, &repository.AuditLog{
			Service:   serviceName,
			Action:    msg.Action,
			EntityID:  msg.EntityID,
			Actor:     msg.Actor,
			Data:      msg.Data,
			CreatedAt: msg.At,
		})
		cancel()
		if err != nil {
			metrics.AuditEventsTotal.WithLabelValues("error").Inc()
			a.logger.Error("Failed to write audit log",
				zap.String("action", msg.Action),
				zap.String("entity_id", msg.EntityID),
				zap.Error(err))
			return
		}
		metrics.AuditEventsTotal.WithLabelValues("ok").Inc()

	case *actor.Started:
		a.logger.Info("Audit actor started")

	case *actor.Stopped:
		a.logger.Info("Audit actor stopped")
	}
}

// Recorder is the fire-and-forget front of the audit actor.
type Recorder struct {
	system *actor.ActorSystem
	pid    *actor.PID
	now    func() time.Time
}

func NewRecorder(store Store, logger *zap.Logger) (*Recorder, error) {
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &auditActor{store: store, logger: logger.Named("audit-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "audit-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}
	return &Recorder{system: system, pid: pid, now: time.Now}, nil
}

func (r *Recorder) Record(action, entityID, actorEmail string, data map[string]any) {
	r.system.Root.Send(r.pid, &recordEntry{
		Action:   action,
		EntityID: entityID,
		Actor:    actorEmail,
		Data:     data,
		At:       r.now().UTC(),
	})
}

// Close drains queued entries and stops the actor.
func (r *Recorder) Close() error {
	return r.system.Root.PoisonFuture(r.pid).Wait()
}
