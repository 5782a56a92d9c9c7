package payment

import (
	"context"
	"errors"
	"time"

	"github.com/example/chefbazaar/pkg/config"
	"github.com/example/chefbazaar/pkg/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const breakerName = "checkout-provider"

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("checkout provider temporarily unavailable")

// BreakerProvider fails fast once the provider keeps erroring, instead of
// piling requests onto it.
type BreakerProvider struct {
	next   Provider
	cb     *gobreaker.CircuitBreaker[*Session]
	logger *zap.Logger
}

func NewBreakerProvider(next Provider, cfg config.BreakerConfig, logger *zap.Logger) *BreakerProvider {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerProvider{next: next, cb: cb, logger: logger}
}

func (b *BreakerProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	return b.execute(func() (*Session, error) { return b.next.CreateSession(ctx, req) })
}

func (b *BreakerProvider) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	return b.execute(func() (*Session, error) { return b.next.RetrieveSession(ctx, id) })
}

func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerProvider) execute(fn func() (*Session, error)) (*Session, error) {
	start := time.Now()
	s, err := b.cb.Execute(fn)
	metrics.ProviderLatency.Observe(time.Since(start).Seconds())
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return s, err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
