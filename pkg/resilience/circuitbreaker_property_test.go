package resilience

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// The circuit is open exactly when the last maxFailures outcomes were all
// failures, as long as the cooldown never elapses.
func TestProperty_OpensOnConsecutiveFailures(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("open iff a run of maxFailures failures was seen", prop.ForAll(
		func(maxFailures int, outcomes []bool) bool {
			clock := newFakeClock()
			cb := NewCircuitBreaker(maxFailures, time.Hour, WithClock(clock.Now))

			run, opened := 0, false
			for _, failed := range outcomes {
				err := cb.Execute(func() error {
					if failed {
						return errBackend
					}
					return nil
				})
				if opened {
					if err != ErrCircuitBreakerOpen {
						return false
					}
					continue
				}
				if failed {
					run++
				} else {
					run = 0
				}
				opened = run >= maxFailures
			}
			return (cb.State() == StateOpen) == opened
		},
		gen.IntRange(1, 6),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
