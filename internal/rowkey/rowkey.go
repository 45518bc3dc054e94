// Package rowkey mints string row keys whose lexicographic order equals
// chronological order, or its inverse. This lets "most recent N sent
// notifications" and "drafts in creation order" be served by a bounded
// ascending key scan with no secondary index and no sort step.
//
// Keys are 19-digit zero-padded decimal tick strings. Newest-first keys use
// the complemented tick value so that a later mint produces a
// lexicographically smaller key. A mutex plus a tick bump guarantees strict
// monotonicity even when two mints land on the same clock reading.
package rowkey

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// maxTicks bounds the tick domain. math.MaxInt64 is itself 19 decimal
// digits, so complemented keys stay 19 digits wide.
const maxTicks = int64(math.MaxInt64)

// Generator mints ordered row keys. The zero value is not usable; construct
// with NewGenerator. Safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	lastTicks int64
	now       func() time.Time // injectable clock for tests
}

// NewGenerator returns a Generator backed by the system clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewKeyNewestFirst mints a key such that later calls produce
// lexicographically smaller keys. Used for the Sent partition, where the
// first N keys of an ascending scan are the N most recent sends.
func (g *Generator) NewKeyNewestFirst() string {
	return format(maxTicks - g.nextTicks())
}

// NewKeyOldestFirst mints a key such that later calls produce
// lexicographically larger keys. Used for the Draft partition so natural
// creation order is preserved.
func (g *Generator) NewKeyOldestFirst() string {
	return format(g.nextTicks())
}

// nextTicks returns a strictly increasing tick value. Nanosecond resolution
// normally provides uniqueness; if two calls observe the same clock reading
// the previous value is bumped by one to break the tie.
func (g *Generator) nextTicks() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ticks := g.now().UTC().UnixNano()
	if ticks <= g.lastTicks {
		ticks = g.lastTicks + 1
	}
	g.lastTicks = ticks
	return ticks
}

func format(ticks int64) string {
	return fmt.Sprintf("%019d", ticks)
}
