// Package research guards research providers with a circuit breaker so a
// failing upstream stops being called until it recovers.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned without calling the provider while the breaker
// is open or probing.
var ErrUnavailable = errors.New("research provider unavailable")

// Provider runs research queries.
type Provider interface {
	Research(ctx context.Context, query string, sources []models.ResearchSource, maxResults int) ([]models.ResearchResult, error)
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Failure ratio at which the breaker opens once MinRequests were seen.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used for live research.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// Breaker wraps a Provider with a circuit breaker.
type Breaker struct {
	next   Provider
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreaker wraps next. Caller cancellation does not count as a failure.
func NewBreaker(next Provider, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("research breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{next: next, cb: cb, logger: logger}
}

// Research calls the wrapped provider unless the breaker is open.
func (b *Breaker) Research(ctx context.Context, query string, sources []models.ResearchSource, maxResults int) ([]models.ResearchResult, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Research(ctx, query, sources, maxResults)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Debug("research rejected by breaker", "breaker", b.cb.Name(), "query", query)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	results, _ := out.([]models.ResearchResult)
	return results, nil
}

// State reports the breaker state: closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
