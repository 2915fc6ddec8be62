package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/rogerio-castellano/enterprise-bi/internal/telemetry"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// BreakerMetricsRepository fails fast with gobreaker.ErrOpenState while the warehouse keeps
// failing. It never retries.
type BreakerMetricsRepository struct {
	next MetricsRepository
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerMetricsRepository(next MetricsRepository, failureThreshold uint32, openTimeout time.Duration) *BreakerMetricsRepository {
	settings := gobreaker.Settings{
		Name:        "warehouse",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a caller hanging up says nothing about the warehouse
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.BreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &BreakerMetricsRepository{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerMetricsRepository) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerMetricsRepository) DepartmentMetrics(ctx context.Context, q db.Querier) ([]DepartmentMetrics, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.DepartmentMetrics(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return res.([]DepartmentMetrics), nil
}

func (b *BreakerMetricsRepository) TimeSeriesMetrics(ctx context.Context, q db.Querier) ([]TimeSeriesMetrics, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.TimeSeriesMetrics(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return res.([]TimeSeriesMetrics), nil
}
