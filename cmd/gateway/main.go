package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/chefbazaar/gateway"
	"github.com/example/chefbazaar/pkg/audit"
	"github.com/example/chefbazaar/pkg/config"
	"github.com/example/chefbazaar/pkg/discovery"
	healthgrpc "github.com/example/chefbazaar/pkg/grpc"
	"github.com/example/chefbazaar/pkg/identity"
	"github.com/example/chefbazaar/pkg/logger"
	"github.com/example/chefbazaar/pkg/payment"
	"github.com/example/chefbazaar/pkg/repository"
	"github.com/example/chefbazaar/pkg/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
	log.Info("Server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting chefbazaar",
		zap.String("version", cfg.Server.Version),
		zap.String("address", cfg.HTTP.Addr()))

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoRepo.Close(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = mongoRepo.EnsureIndexes(ctx)
	cancel()
	if err != nil {
		return err
	}

	checks := map[string]healthgrpc.Checker{"mongodb": mongoRepo.Ping}

	var locker service.Locker = service.NopLocker{}
	if cfg.Redis.Addr != "" {
		redisRepo := repository.NewRedisRepository(&cfg.Redis)
		defer redisRepo.Close()
		locker = redisRepo
		checks["redis"] = redisRepo.Ping
	} else {
		log.Warn("Redis not configured, payment confirmations rely on the unique transaction index only")
	}

	recorder, err := audit.NewRecorder(mongoRepo, log.Named("audit"))
	if err != nil {
		return err
	}
	defer recorder.Close()

	var verifier identity.Verifier
	if cfg.Auth.HMACSecret != "" {
		log.Warn("Using HMAC token verification")
		verifier = identity.NewHMACVerifier(cfg.Auth.HMACSecret)
	} else {
		verifier = identity.NewFirebaseVerifier(cfg.Auth.ProjectID, cfg.Auth.CertsURL, cfg.Auth.Timeout, log.Named("identity"))
	}

	provider := payment.NewBreakerProvider(payment.NewStripeProvider(&cfg.Stripe), cfg.Breaker, log.Named("payment"))

	svc := service.New(service.Deps{
		Accounts:  mongoRepo.Accounts(),
		Meals:     mongoRepo.Meals(),
		Requests:  mongoRepo.RoleRequests(),
		Orders:    mongoRepo.Orders(),
		Payments:  mongoRepo.Payments(),
		Reviews:   mongoRepo.Reviews(),
		Favorites: mongoRepo.Favorites(),
		AuditLogs: mongoRepo,
		Provider:  provider,
		Locker:    locker,
		Auditor:   recorder,
		LockTTL:   cfg.Redis.LockTTL,
		Currency:  cfg.Stripe.Currency,
		Logger:    log,
	})

	gw := gateway.NewGateway(cfg, log, verifier, svc, mongoRepo.Ping)
	gw.SetupRoutes()

	errCh := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var healthSrv *healthgrpc.HealthServer
	if cfg.GRPC.Port > 0 {
		healthSrv = healthgrpc.NewHealthServer(&cfg.GRPC, log.Named("health"), checks)
		go func() {
			if err := healthSrv.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	var registry *discovery.Registry
	if len(cfg.Etcd.Endpoints) > 0 {
		registry, err = discovery.NewRegistry(&cfg.Etcd, log.Named("discovery"))
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without registration", zap.Error(err))
		} else {
			inst := &discovery.Instance{
				Name:    cfg.Server.Name,
				ID:      uuid.NewString(),
				Host:    cfg.HTTP.Host,
				Port:    cfg.HTTP.Port,
				Version: cfg.Server.Version,
			}
			if err := registry.Register(context.Background(), inst); err != nil {
				log.Warn("Failed to register instance", zap.Error(err))
			}
		}
	}

	log.Info("Server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-errCh:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()

	if registry != nil {
		if err := registry.Deregister(shutdownCtx); err != nil {
			log.Warn("Failed to deregister instance", zap.Error(err))
		}
		_ = registry.Close()
	}
	if healthSrv != nil {
		healthSrv.Stop()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	return runErr
}
