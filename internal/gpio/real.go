//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/signal-controller/internal/logic"
)

// RealWriter drives actual lamp hardware using Linux GPIO character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
	pins  Pins
}

// NewRealWriter requests the six lamp lines as outputs. All lamps start
// red: the intersection holds all-stop until the controller applies its
// first phase.
func NewRealWriter(pins Pins) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
		pins:  pins,
	}

	initial := map[int]int{
		pins.NSRed: 1, pins.NSAmber: 0, pins.NSGreen: 0,
		pins.EWRed: 1, pins.EWAmber: 0, pins.EWGreen: 0,
	}
	for pin, val := range initial {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(val))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request lamp pin %d: %w", pin, err)
		}
		w.lines[pin] = line
	}

	return w, nil
}

// Apply sets the six lamp lines to match the outputs.
func (w *RealWriter) Apply(out logic.Outputs) error {
	nsR, nsA, nsG := lampValues(out.NS)
	ewR, ewA, ewG := lampValues(out.EW)

	values := []struct {
		pin int
		val int
	}{
		{w.pins.NSRed, nsR}, {w.pins.NSAmber, nsA}, {w.pins.NSGreen, nsG},
		{w.pins.EWRed, ewR}, {w.pins.EWAmber, ewA}, {w.pins.EWGreen, ewG},
	}
	for _, v := range values {
		line, ok := w.lines[v.pin]
		if !ok {
			return fmt.Errorf("lamp pin %d not requested", v.pin)
		}
		if err := line.SetValue(v.val); err != nil {
			return fmt.Errorf("set lamp pin %d: %w", v.pin, err)
		}
	}
	return nil
}

// Close drops all lamps to red before releasing the lines, so a controller
// restart never leaves a green lamp lit.
func (w *RealWriter) Close() error {
	var errs []error

	for pin, line := range w.lines {
		val := 0
		if pin == w.pins.NSRed || pin == w.pins.EWRed {
			val = 1
		}
		if err := line.SetValue(val); err != nil {
			errs = append(errs, fmt.Errorf("reset lamp pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lamp pin %d: %w", pin, err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
