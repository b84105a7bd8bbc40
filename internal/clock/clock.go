// Package clock implements the two-sided countdown that runs a room's game
// clock. A Clock is owned by one room and must only be touched from the
// goroutine that owns that room; the ticker goroutine it starts never mutates
// the Clock itself, it only posts tagged ticks back to the owner.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"

	"optimal-chess/internal/game"
)

// Timers is the remaining time per side in whole seconds.
type Timers struct {
	W int `json:"w"`
	B int `json:"b"`
}

type TickResult struct {
	Applied bool
	Side    game.Color
	Expired bool
}

type Clock struct {
	clk      clockwork.Clock
	interval time.Duration

	white  int
	black  int
	active game.Color

	// gen changes on every start and stop so ticks that were already in
	// flight when the clock stopped are recognised as stale.
	gen    uint64
	ticker clockwork.Ticker
	done   chan struct{}
}

func New(clk clockwork.Clock, interval time.Duration, seconds int) *Clock {
	return &Clock{clk: clk, interval: interval, white: seconds, black: seconds}
}

func (c *Clock) Running() bool { return c.done != nil }

// Active is the side currently ticking, or NoColor.
func (c *Clock) Active() game.Color { return c.active }

func (c *Clock) Remaining() Timers { return Timers{W: c.white, B: c.black} }

// Set overrides one side's remaining seconds.
func (c *Clock) Set(side game.Color, seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	switch side {
	case game.White:
		c.white = seconds
	case game.Black:
		c.black = seconds
	}
}

// Reset stops the clock and gives both sides the same budget.
func (c *Clock) Reset(seconds int) {
	c.Stop()
	c.white, c.black = seconds, seconds
}

// Start begins ticking for side. It is a no-op when the clock is already
// running or either side has run out of time. post is invoked from the
// ticker goroutine once per interval; the owner must hand the generation back
// to Tick on its own goroutine.
func (c *Clock) Start(side game.Color, post func(gen uint64)) bool {
	if c.Running() || !side.Valid() || c.white <= 0 || c.black <= 0 {
		return false
	}

	c.gen++
	gen := c.gen
	c.active = side
	done := make(chan struct{})
	ticker := c.clk.NewTicker(c.interval)
	c.done, c.ticker = done, ticker

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				select {
				case <-done:
					return
				default:
				}
				post(gen)
			}
		}
	}()
	return true
}

// Stop cancels ticking. It is idempotent.
func (c *Clock) Stop() {
	if c.done == nil {
		return
	}
	c.ticker.Stop()
	close(c.done)
	c.done, c.ticker = nil, nil
	c.active = game.NoColor
	c.gen++
}

// Restart stops the clock and starts it again for side with a fresh
// interval, so the new side never inherits a partially elapsed second.
func (c *Clock) Restart(side game.Color, post func(gen uint64)) bool {
	c.Stop()
	return c.Start(side, post)
}

// Tick applies one elapsed interval if gen belongs to the current run.
// When the ticking side reaches zero the clock stops itself and the result
// reports the expiry.
func (c *Clock) Tick(gen uint64) TickResult {
	if !c.Running() || gen != c.gen {
		return TickResult{}
	}

	side := c.active
	remaining := &c.white
	if side == game.Black {
		remaining = &c.black
	}
	if *remaining > 0 {
		*remaining--
	}

	res := TickResult{Applied: true, Side: side}
	if *remaining == 0 {
		c.Stop()
		res.Expired = true
	}
	return res
}
