// Package countdown implements the resend-OTP countdown: a single owned
// timer that ticks once per interval, counting remaining seconds down from N
// to 0 and then signaling completion.
//
// Invariant: at most one run is active per Countdown. Start on a running
// countdown cancels the prior run first, and a generation guard ensures a
// cancelled run never delivers another tick, even if its goroutine is mid
// tick when the new run begins.
package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sink receives countdown events. Callbacks are invoked from the countdown's
// own goroutine; implementations must be safe for that.
type Sink interface {
	// OnTick fires once per interval with the seconds remaining, from the
	// starting total down to 0 inclusive.
	OnTick(remaining int)
	// OnDone fires exactly once after the 0 tick, unless the run was stopped.
	OnDone()
}

// Countdown owns one countdown timer. The zero value is not usable; use New.
type Countdown struct {
	interval time.Duration
	sink     Sink
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// New creates a countdown ticking at interval (1s in production; tests pass
// something shorter).
func New(interval time.Duration, sink Sink, log zerolog.Logger) *Countdown {
	return &Countdown{
		interval: interval,
		sink:     sink,
		log:      log.With().Str("component", "countdown").Logger(),
	}
}

// Start begins a run of total+1 ticks (total down to 0). A run already in
// progress is stopped first; this is the cancel-before-start rule.
func (c *Countdown) Start(total int) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.log.Debug().Msg("Cancelled previous run before starting a new one")
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx, gen, total)
}

// Stop cancels the active run, if any. Safe to call when idle.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Running reports whether a run is currently active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Countdown) run(ctx context.Context, gen uint64, total int) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	remaining := total
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.isCurrent(gen) {
				return
			}
			c.sink.OnTick(remaining)
			remaining--
			if remaining < 0 {
				c.finish(gen)
				c.sink.OnDone()
				return
			}
		}
	}
}

// isCurrent reports whether gen is still the active run.
func (c *Countdown) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen && c.cancel != nil
}

// finish clears the handle for a naturally completed run.
func (c *Countdown) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Format renders remaining seconds as M:SS, the display format of the resend
// timer text.
func Format(remaining int) string {
	return fmt.Sprintf("%d:%02d", remaining/60, remaining%60)
}
