// Package counter provides small per-object tallies (packets sent and
// received) kept on circuits; they are separate from, and not fed into,
// the Prometheus counters in package metrics.
package counter

import "fmt"

// Counter is a 64-bit monotonic tally.
type Counter struct {
	count uint64
}

// New creates a new counter starting at zero.
func New() *Counter {
	return new(Counter)
}

// Reset zeroes the counter.
func (c *Counter) Reset() {
	c.count = 0
}

// Increment adds one.
func (c *Counter) Increment() {
	c.count++
}

// Value returns the current tally.
func (c *Counter) Value() uint64 {
	return c.count
}

// String implements fmt.Stringer.
func (c *Counter) String() string {
	return fmt.Sprintf("%d", c.count)
}
