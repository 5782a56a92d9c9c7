// Package grpc serves the standard gRPC health protocol so orchestrators can
// probe the service without going through the HTTP stack.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/example/chefbazaar/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Checker probes one dependency.
type Checker func(ctx context.Context) error

// HealthServer reports SERVING for each named dependency whose last probe
// succeeded. The empty service name aggregates all of them.
type HealthServer struct {
	config *config.GRPCConfig
	logger *zap.Logger
	health *health.Server
	server *grpc.Server
	checks map[string]Checker

	stopOnce sync.Once
	stop     chan struct{}
}

func NewHealthServer(cfg *config.GRPCConfig, logger *zap.Logger, checks map[string]Checker) *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		config: cfg,
		logger: logger,
		health: hs,
		server: srv,
		checks: checks,
		stop:   make(chan struct{}),
	}
}

func (s *HealthServer) Start() error {
	addr := s.config.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("gRPC health service started", zap.String("address", addr))
	return s.Serve(lis)
}

// Serve probes once, keeps probing on the configured interval and serves on
// lis until Stop.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.CheckOnce(context.Background())
	go s.loop()
	return s.server.Serve(lis)
}

func (s *HealthServer) loop() {
	interval := s.config.CheckInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.CheckOnce(context.Background())
		}
	}
}

// CheckOnce runs every probe and publishes the results.
func (s *HealthServer) CheckOnce(ctx context.Context) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.checks[name](cctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("Dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		}
		s.health.SetServingStatus(name, status)
	}
	s.health.SetServingStatus("", overall)
}

func (s *HealthServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
		s.server.GracefulStop()
	})
}
