// Package logic contains pure business logic for the signal controller:
// the six-phase cycle state machine, the safe-update gate, and the
// staleness watchdog. This package has NO external dependencies (no GPIO,
// MQTT, OS, or time.Sleep). Time is always injectable via time.Time
// parameters.
package logic

import "time"

// Order identifies which direction pair leads a cycle.
type Order string

const (
	OrderNS Order = "NS"
	OrderEW Order = "EW"
)

// Aspect is what one direction pair's signal head shows.
type Aspect string

const (
	AspectStop    Aspect = "STOP"
	AspectCaution Aspect = "CAUTION"
	AspectGo      Aspect = "GO"
)

// Phase is one state in the fixed six-phase signal ring.
type Phase int

const (
	PhaseNSGreen Phase = iota
	PhaseNSAmber
	PhaseAllRedToEW
	PhaseEWGreen
	PhaseEWAmber
	PhaseAllRedToNS

	numPhases
)

// successor is the fixed cyclic transition table. Advancing never branches
// on external input; configuration swaps happen only via the update gate.
var successor = [numPhases]Phase{
	PhaseNSGreen:    PhaseNSAmber,
	PhaseNSAmber:    PhaseAllRedToEW,
	PhaseAllRedToEW: PhaseEWGreen,
	PhaseEWGreen:    PhaseEWAmber,
	PhaseEWAmber:    PhaseAllRedToNS,
	PhaseAllRedToNS: PhaseNSGreen,
}

var phaseNames = [numPhases]string{
	PhaseNSGreen:    "NS_GREEN",
	PhaseNSAmber:    "NS_AMBER",
	PhaseAllRedToEW: "ALL_RED_TO_EW",
	PhaseEWGreen:    "EW_GREEN",
	PhaseEWAmber:    "EW_AMBER",
	PhaseAllRedToNS: "ALL_RED_TO_NS",
}

// Next returns the cyclic successor phase. An out-of-range phase maps to
// the all-red phase ahead of NS so a corrupted value cannot skip clearance.
func (p Phase) Next() Phase {
	if p < 0 || p >= numPhases {
		return PhaseAllRedToNS
	}
	return successor[p]
}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// IsAllRed reports whether the phase is one of the two universal-stop
// phases, the designated safe boundaries for configuration swaps.
func (p Phase) IsAllRed() bool {
	return p == PhaseAllRedToEW || p == PhaseAllRedToNS
}

// IsGreen reports whether the phase gives one pair right of way.
func (p Phase) IsGreen() bool {
	return p == PhaseNSGreen || p == PhaseEWGreen
}

// Outputs is the signal head state for both direction pairs.
type Outputs struct {
	NS Aspect
	EW Aspect
}

// allStop is the fail-closed output: both pairs held at stop.
var allStop = Outputs{NS: AspectStop, EW: AspectStop}

var phaseOutputs = [numPhases]Outputs{
	PhaseNSGreen:    {NS: AspectGo, EW: AspectStop},
	PhaseNSAmber:    {NS: AspectCaution, EW: AspectStop},
	PhaseAllRedToEW: allStop,
	PhaseEWGreen:    {NS: AspectStop, EW: AspectGo},
	PhaseEWAmber:    {NS: AspectStop, EW: AspectCaution},
	PhaseAllRedToNS: allStop,
}

// OutputsFor returns the output mapping for a phase. Any unrecognized
// phase value fails closed to all-stop.
func OutputsFor(p Phase) Outputs {
	if p < 0 || p >= numPhases {
		return allStop
	}
	return phaseOutputs[p]
}

// Cycle is an immutable signal cycle configuration. Updates replace the
// active cycle wholesale; it is never mutated in place.
type Cycle struct {
	Order   Order
	NSGreen time.Duration
	EWGreen time.Duration
	Amber   time.Duration
	AllRed  time.Duration
}

// DefaultCycle is the built-in fallback configuration used at startup and
// by the watchdog. Matches the planner's last-will payload
// "CYCLE NS 5000 5000 2000 1000".
var DefaultCycle = Cycle{
	Order:   OrderNS,
	NSGreen: 5 * time.Second,
	EWGreen: 5 * time.Second,
	Amber:   2 * time.Second,
	AllRed:  1 * time.Second,
}

// FirstPhase returns the phase this cycle starts in.
func (c Cycle) FirstPhase() Phase {
	if c.Order == OrderEW {
		return PhaseEWGreen
	}
	return PhaseNSGreen
}

// DurationFor resolves a phase's duration from this cycle. Resolution
// happens once at phase entry; a cycle adopted mid-phase never shortens
// the running phase.
func (c Cycle) DurationFor(p Phase) time.Duration {
	switch p {
	case PhaseNSGreen:
		return c.NSGreen
	case PhaseEWGreen:
		return c.EWGreen
	case PhaseNSAmber, PhaseEWAmber:
		return c.Amber
	default:
		return c.AllRed
	}
}

// Cause records why a transition happened.
type Cause string

const (
	CauseActivate Cause = "ACTIVATE" // direct activation (startup)
	CauseAdvance  Cause = "ADVANCE"  // normal ring advance on expiry
	CauseAdopt    Cause = "ADOPT"    // pending cycle promoted at a safe boundary
	CauseFallback Cause = "FALLBACK" // watchdog reverted to the default cycle
)

// Transition describes an output change to be applied and published.
type Transition struct {
	Timestamp time.Time
	Phase     Phase
	Duration  time.Duration
	Outputs   Outputs
	Cause     Cause
	Cycle     Cycle
}

// EventCounts tracks transition causes since startup.
type EventCounts struct {
	Advances  int
	Adoptions int
	Fallbacks int
}
