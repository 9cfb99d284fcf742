package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Settings for a breaker; zero values fall back to the defaults below.
type Settings struct {
	Name             string
	MaxFailures      uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32

	// IsSuccessful reports errors that should not count as failures,
	// e.g. a not-found from a healthy backend.
	IsSuccessful func(err error) bool
}

const (
	defaultMaxFailures = 5
	defaultOpenTimeout = 30 * time.Second
)

// Breaker trips after MaxFailures consecutive failures and rejects calls
// with gobreaker.ErrOpenState until OpenTimeout has passed.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

func New[T any](s Settings, logger *zap.Logger) *Breaker[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = defaultMaxFailures
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = defaultOpenTimeout
	}
	maxFailures := s.MaxFailures

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         s.Name,
		MaxRequests:  s.HalfOpenRequests,
		Timeout:      s.OpenTimeout,
		IsSuccessful: s.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Breaker[T]{cb: cb}
}

func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}
