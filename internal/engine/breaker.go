package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Per-provider circuit breakers. A flapping provider gets cut off for a
// minute instead of burning retries on every keyword in a refresh run.
var (
	breakerMu sync.Mutex
	breakers  = map[string]*gobreaker.CircuitBreaker{}
)

// Breaker returns the named circuit breaker, creating it on first use.
func Breaker(name string) *gobreaker.CircuitBreaker {
	breakerMu.Lock()
	defer breakerMu.Unlock()

	if cb, ok := breakers[name]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("breaker: state change",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	breakers[name] = cb
	return cb
}
