package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"stock-valuator/observability"
)

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	MaxRequests  uint32        // max requests allowed in half-open state
	Interval     time.Duration // cyclic period of the closed state to clear counts
	Timeout      time.Duration // period of the open state before transitioning to half-open
	MinRequests  uint32        // requests seen before the failure ratio is considered
	FailureRatio float64
}

var DefaultCircuitBreakerConfig = CircuitBreakerConfig{
	MaxRequests:  3,
	Interval:     time.Minute,
	Timeout:      30 * time.Second,
	MinRequests:  5,
	FailureRatio: 0.5,
}

// CircuitBreakerRegistry manages one breaker per upstream service
type CircuitBreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	config   CircuitBreakerConfig
}

// NewCircuitBreakerRegistry creates a new registry with the given config
func NewCircuitBreakerRegistry(config CircuitBreakerConfig) *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		config:   config,
	}
}

// GetBreaker returns (or creates) a circuit breaker for the given service name
func (r *CircuitBreakerRegistry) GetBreaker(name string) *gobreaker.CircuitBreaker[any] {
	r.mu.RLock()
	cb, exists := r.breakers[name]
	r.mu.RUnlock()
	if exists {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, exists = r.breakers[name]; exists {
		return cb
	}

	cfg := r.config
	cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		// Unknown symbols and rejected keys say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || !Retryable(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			observability.WithService(name).Warn("circuit breaker state change",
				"from", from.String(),
				"to", to.String())

			metrics := observability.GetMetrics()
			metrics.SetCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(name)
			}
		},
	})
	r.breakers[name] = cb

	return cb
}

// Execute runs fn through the named breaker. Rejections come back wrapping
// ErrServiceUnavailable.
func (r *CircuitBreakerRegistry) Execute(ctx context.Context, name string, fn func() (any, error)) (any, error) {
	result, err := r.GetBreaker(name).Execute(func() (any, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return fn()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		observability.WithService(name).Warn("circuit breaker open, rejecting request")
		return nil, fmt.Errorf("%s: circuit breaker open: %w", name, ErrServiceUnavailable)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.WithService(name).Warn("circuit breaker half-open, too many requests")
		return nil, fmt.Errorf("%s: too many requests in half-open state: %w", name, ErrServiceUnavailable)
	}
	return result, err
}

// Status returns the current state of all circuit breakers
func (r *CircuitBreakerRegistry) Status() map[string]CircuitBreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[string]CircuitBreakerStatus, len(r.breakers))
	for name, cb := range r.breakers {
		counts := cb.Counts()
		status[name] = CircuitBreakerStatus{
			Name:             name,
			State:            cb.State().String(),
			Requests:         counts.Requests,
			TotalSuccesses:   counts.TotalSuccesses,
			TotalFailures:    counts.TotalFailures,
			ConsecutiveSucc:  counts.ConsecutiveSuccesses,
			ConsecutiveFails: counts.ConsecutiveFailures,
		}
	}
	return status
}

// CircuitBreakerStatus represents the current state of a circuit breaker
type CircuitBreakerStatus struct {
	Name             string `json:"name"`
	State            string `json:"state"`
	Requests         uint32 `json:"requests"`
	TotalSuccesses   uint32 `json:"total_successes"`
	TotalFailures    uint32 `json:"total_failures"`
	ConsecutiveSucc  uint32 `json:"consecutive_successes"`
	ConsecutiveFails uint32 `json:"consecutive_failures"`
}

var (
	globalRegistry *CircuitBreakerRegistry
	registryMu     sync.Mutex
)

// GetGlobalRegistry returns the process-wide registry, creating it on first use
func GetGlobalRegistry() *CircuitBreakerRegistry {
	registryMu.Lock()
	defer registryMu.Unlock()
	if globalRegistry == nil {
		globalRegistry = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	}
	return globalRegistry
}

// SetGlobalRegistry replaces the process-wide registry
func SetGlobalRegistry(r *CircuitBreakerRegistry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	globalRegistry = r
}

// WithCircuitBreaker wraps a function call with circuit breaker protection
func WithCircuitBreaker[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	result, err := GetGlobalRegistry().Execute(ctx, name, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// BreakerFMP guards every Financial Modeling Prep call
const BreakerFMP = "fmp"

// stateToInt converts a breaker state for the state gauge: 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
