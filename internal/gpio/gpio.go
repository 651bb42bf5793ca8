// Package gpio drives the signal lamp outputs with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/signal-controller/internal/logic"

// Writer applies signal outputs to lamp hardware.
type Writer interface {
	// Apply sets the six lamp lines to match the given outputs.
	// Exactly one lamp per direction pair is lit.
	Apply(out logic.Outputs) error

	// Close releases GPIO resources, leaving all lamps dark except red.
	Close() error
}

// Pins holds the BCM line numbers for the six lamps.
type Pins struct {
	NSRed   int
	NSAmber int
	NSGreen int
	EWRed   int
	EWAmber int
	EWGreen int
}

// Default lamp pins (BCM numbering).
var DefaultPins = Pins{
	NSRed:   17,
	NSAmber: 27,
	NSGreen: 22,
	EWRed:   23,
	EWAmber: 24,
	EWGreen: 25,
}

// lampValues maps an aspect to (red, amber, green) line values.
func lampValues(a logic.Aspect) (red, amber, green int) {
	switch a {
	case logic.AspectGo:
		return 0, 0, 1
	case logic.AspectCaution:
		return 0, 1, 0
	default:
		// Unknown aspects fail closed to red.
		return 1, 0, 0
	}
}
