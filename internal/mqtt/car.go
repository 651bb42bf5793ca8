package mqtt

import (
	"fmt"

	"github.com/sweeney/signal-controller/internal/logic"
)

// CarCommand is one actuation message for a roadside client.
type CarCommand struct {
	Direction string // "N", "S", "E", "W"
	Payload   string // "GO <greenMs>" or "STOP"
}

// CarCommands translates a phase transition into the roadside command
// fan-out. Entering a green phase releases that pair with the phase's
// green window and holds the crossing pair; entering an amber phase stops
// its own pair. All-red entries send nothing: both pairs were already
// stopped by the preceding amber.
func CarCommands(tr logic.Transition) []CarCommand {
	goPayload := fmt.Sprintf("GO %d", tr.Duration.Milliseconds())

	switch tr.Phase {
	case logic.PhaseNSGreen:
		return []CarCommand{
			{Direction: "N", Payload: goPayload},
			{Direction: "S", Payload: goPayload},
			{Direction: "E", Payload: "STOP"},
			{Direction: "W", Payload: "STOP"},
		}
	case logic.PhaseEWGreen:
		return []CarCommand{
			{Direction: "E", Payload: goPayload},
			{Direction: "W", Payload: goPayload},
			{Direction: "N", Payload: "STOP"},
			{Direction: "S", Payload: "STOP"},
		}
	case logic.PhaseNSAmber:
		return []CarCommand{
			{Direction: "N", Payload: "STOP"},
			{Direction: "S", Payload: "STOP"},
		}
	case logic.PhaseEWAmber:
		return []CarCommand{
			{Direction: "E", Payload: "STOP"},
			{Direction: "W", Payload: "STOP"},
		}
	default:
		return nil
	}
}
