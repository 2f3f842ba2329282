package professionals

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"estate-workers/internal/common/logger"
	"estate-workers/internal/common/metrics"
	"estate-workers/internal/ranking"
)

const breakerName = "professional-store"

// BreakerSettings configures the circuit around the store. The circuit opens
// once at least MinRequests calls were seen in the current interval and the
// failure ratio reaches FailureRatio.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerStore rejects store calls while the database is failing. Rejections
// wrap gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
type BreakerStore struct {
	store  ranking.Store
	cb     *gobreaker.CircuitBreaker[any]
	logger logger.Logger
}

func NewBreakerStore(store ranking.Store, settings BreakerSettings, log logger.Logger) *BreakerStore {
	log = log.WithFields(map[string]interface{}{"component": breakerName})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		// canceled calls say nothing about the database
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			log.Warn("circuit breaker state changed", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	return &BreakerStore{store: store, cb: cb, logger: log}
}

func (b *BreakerStore) Count(ctx context.Context, filter ranking.Filter) (int, error) {
	res, err := b.execute(func() (any, error) {
		return b.store.Count(ctx, filter)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

func (b *BreakerStore) Find(ctx context.Context, q ranking.FindQuery) ([]ranking.Candidate, error) {
	res, err := b.execute(func() (any, error) {
		return b.store.Find(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return res.([]ranking.Candidate), nil
}

// State reports the current circuit state.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, metrics.BreakerSuccess).Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, metrics.BreakerRejected).Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, metrics.BreakerFailure).Inc()
	}
	return res, err
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
