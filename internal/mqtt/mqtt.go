// Package mqtt connects the controller to the cycle planner and the
// roadside clients, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/signal-controller/internal/logic"
)

// TopicCycle is the MQTT topic the planner publishes cycle updates on.
const TopicCycle = "signals/cycle"

// TopicState is the MQTT topic for phase transition events.
const TopicState = "signals/state"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "signals/system"

// CarTopic returns the actuation topic for one approach direction.
func CarTopic(direction string) string {
	return "cars/" + direction
}

// Publisher publishes controller output to the broker.
type Publisher interface {
	// PublishTransition sends a phase transition event.
	// Returns error if publishing fails (should not crash the process).
	PublishTransition(tr logic.Transition) error

	// PublishCar sends an actuation command to one approach direction.
	PublishCar(direction, payload string) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// CycleSource delivers raw cycle payloads from the planner. The channel
// holds at most the latest unconsumed payload; older payloads are dropped
// when a newer one arrives before the loop drains it.
type CycleSource interface {
	Cycles() <-chan string
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, status).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "STATUS"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// StatePayload represents the MQTT message payload for phase transitions.
type StatePayload struct {
	Signal SignalPayload `json:"signal"`
}

// SignalPayload contains the transition details.
type SignalPayload struct {
	Timestamp  string      `json:"timestamp"`
	Phase      string      `json:"phase"`
	Cause      string      `json:"cause"`
	DurationMs int64       `json:"duration_ms"`
	NS         AspectState `json:"ns"`
	EW         AspectState `json:"ew"`
	Cycle      CycleJSON   `json:"cycle"`
}

// AspectState represents a single direction pair's signal head.
type AspectState struct {
	Aspect string `json:"aspect"`
}

// CycleJSON is the JSON representation of the active cycle.
type CycleJSON struct {
	Order     string `json:"order"`
	NSGreenMs int64  `json:"ns_green_ms"`
	EWGreenMs int64  `json:"ew_green_ms"`
	AmberMs   int64  `json:"amber_ms"`
	AllRedMs  int64  `json:"all_red_ms"`
}

// FormatTransition creates the JSON payload for a phase transition event.
func FormatTransition(tr logic.Transition) ([]byte, error) {
	payload := StatePayload{
		Signal: SignalPayload{
			Timestamp:  tr.Timestamp.UTC().Format(time.RFC3339),
			Phase:      tr.Phase.String(),
			Cause:      string(tr.Cause),
			DurationMs: tr.Duration.Milliseconds(),
			NS:         AspectState{Aspect: string(tr.Outputs.NS)},
			EW:         AspectState{Aspect: string(tr.Outputs.EW)},
			Cycle: CycleJSON{
				Order:     string(tr.Cycle.Order),
				NSGreenMs: tr.Cycle.NSGreen.Milliseconds(),
				EWGreenMs: tr.Cycle.EWGreen.Milliseconds(),
				AmberMs:   tr.Cycle.Amber.Milliseconds(),
				AllRedMs:  tr.Cycle.AllRed.Milliseconds(),
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
