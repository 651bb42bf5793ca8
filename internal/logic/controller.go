package logic

import "time"

// Controller owns the signal runtime state: the current phase, its frozen
// duration, the active cycle, and the pending-update slot. It is the single
// point of mutation; only Tick, Activate, and CheckStaleness write to it.
// Not safe for concurrent use — the control loop owns it.
type Controller struct {
	phase      Phase
	phaseStart time.Time
	phaseDur   time.Duration
	active     Cycle
	pending    Cycle
	hasPending bool
	lastUpdate time.Time
	def        Cycle
	counts     EventCounts
	out        Outputs
}

// NewController creates a controller running the given default cycle.
// The default is also what the watchdog falls back to.
func NewController(def Cycle, now time.Time) *Controller {
	c := &Controller{def: def}
	c.Activate(def, now)
	return c
}

// Activate replaces the active cycle wholesale, jumps to the cycle's first
// phase, freezes that phase's duration, stamps phase start and last-update,
// clears any pending cycle, and applies the output mapping. This is the
// only path that changes which cycle is active.
func (c *Controller) Activate(cy Cycle, now time.Time) Transition {
	return c.activate(cy, now, CauseActivate)
}

func (c *Controller) activate(cy Cycle, now time.Time, cause Cause) Transition {
	c.active = cy
	c.phase = cy.FirstPhase()
	c.phaseDur = cy.DurationFor(c.phase)
	c.phaseStart = now
	c.lastUpdate = now
	c.hasPending = false
	c.out = OutputsFor(c.phase)
	return Transition{
		Timestamp: now,
		Phase:     c.phase,
		Duration:  c.phaseDur,
		Outputs:   c.out,
		Cause:     cause,
		Cycle:     c.active,
	}
}

// Submit stores a decoded cycle as pending. Last writer wins: an
// unconsumed pending cycle is overwritten, never queued. The last-update
// stamp advances whether or not the cycle is eventually promoted, so a
// live planner keeps the watchdog fed even while updates wait at the gate.
func (c *Controller) Submit(cy Cycle, now time.Time) {
	c.pending = cy
	c.hasPending = true
	c.lastUpdate = now
}

// promotable reports whether a pending cycle may replace the active one
// right now. Safe boundaries: the current phase is all-red, or the phase
// the ring is about to enter is a green. Either way no go or caution phase
// is ever truncated.
func (c *Controller) promotable() bool {
	return c.phase.IsAllRed() || c.phase.Next().IsGreen()
}

// Tick advances the state machine. While the current phase's frozen
// duration has not elapsed it does nothing and returns nil; the caller
// polls it from a non-blocking loop. At expiry a pending cycle is adopted
// if the gate allows, otherwise the ring advances one phase.
func (c *Controller) Tick(now time.Time) *Transition {
	if now.Sub(c.phaseStart) < c.phaseDur {
		return nil
	}

	if c.hasPending && c.promotable() {
		cy := c.pending
		tr := c.activate(cy, now, CauseAdopt)
		c.counts.Adoptions++
		return &tr
	}

	c.phase = c.phase.Next()
	c.phaseDur = c.active.DurationFor(c.phase)
	c.phaseStart = now
	c.out = OutputsFor(c.phase)
	c.counts.Advances++
	tr := Transition{
		Timestamp: now,
		Phase:     c.phase,
		Duration:  c.phaseDur,
		Outputs:   c.out,
		Cause:     CauseAdvance,
		Cycle:     c.active,
	}
	return &tr
}

// CheckStaleness is the watchdog. If no update has been received for at
// least threshold, it reverts to the default cycle unconditionally, even
// mid-phase: an abrupt transition beats running indefinitely on values
// from a dead planner. Returns nil when the source is still fresh or the
// threshold is <= 0 (disabled).
func (c *Controller) CheckStaleness(now time.Time, threshold time.Duration) *Transition {
	if threshold <= 0 {
		return nil
	}
	if now.Sub(c.lastUpdate) < threshold {
		return nil
	}
	tr := c.activate(c.def, now, CauseFallback)
	c.counts.Fallbacks++
	return &tr
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Outputs returns the currently applied output mapping.
func (c *Controller) Outputs() Outputs {
	return c.out
}

// ActiveCycle returns the cycle the controller is running.
func (c *Controller) ActiveCycle() Cycle {
	return c.active
}

// HasPending reports whether an update is waiting at the gate.
func (c *Controller) HasPending() bool {
	return c.hasPending
}

// LastUpdate returns when the last valid update was received (or the last
// activation, whichever is later).
func (c *Controller) LastUpdate() time.Time {
	return c.lastUpdate
}

// Remaining returns how long the current phase has left. Zero once the
// phase has expired.
func (c *Controller) Remaining(now time.Time) time.Duration {
	left := c.phaseDur - now.Sub(c.phaseStart)
	if left < 0 {
		return 0
	}
	return left
}

// Counts returns the transition counts since startup.
func (c *Controller) Counts() EventCounts {
	return c.counts
}
