// Package discovery publishes running instances under an etcd prefix so
// load balancers and peers can find them.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/example/chefbazaar/pkg/config"
	"github.com/goccy/go-json"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const defaultLeaseTTL = 30

// Registry registers one process under leased keys. Keys vanish when the
// lease expires, so a crashed instance drops out on its own.
type Registry struct {
	client *clientv3.Client
	config *config.EtcdConfig
	logger *zap.Logger

	mu      sync.Mutex
	leaseID clientv3.LeaseID
}

type Instance struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Version string `json:"version,omitempty"`
}

func (i *Instance) Addr() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

func NewRegistry(cfg *config.EtcdConfig, logger *zap.Logger) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Registry{
		client: cli,
		config: cfg,
		logger: logger,
	}, nil
}

func instanceKey(prefix string, inst *Instance) string {
	return fmt.Sprintf("%s%s/%s", prefix, inst.Name, inst.ID)
}

func encodeInstance(inst *Instance) (string, error) {
	b, err := json.Marshal(inst)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Register puts inst under a fresh lease and keeps it alive until ctx ends or
// Deregister is called.
func (r *Registry) Register(ctx context.Context, inst *Instance) error {
	ttl := r.config.LeaseTTL
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	value, err := encodeInstance(inst)
	if err != nil {
		return fmt.Errorf("failed to encode instance: %w", err)
	}

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	if _, err := r.client.Put(ctx, instanceKey(r.config.Prefix, inst), value, clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep alive: %w", err)
	}

	r.mu.Lock()
	r.leaseID = lease.ID
	r.mu.Unlock()

	go func() {
		for range ch {
		}
		r.logger.Info("Registration keep-alive ended", zap.String("instance", inst.ID))
	}()

	r.logger.Info("Instance registered",
		zap.String("name", inst.Name),
		zap.String("address", inst.Addr()),
		zap.Int64("ttl", ttl))
	return nil
}

// Deregister revokes the lease, removing every key registered under it.
func (r *Registry) Deregister(ctx context.Context) error {
	r.mu.Lock()
	id := r.leaseID
	r.leaseID = 0
	r.mu.Unlock()

	if id == 0 {
		return nil
	}
	if _, err := r.client.Revoke(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
