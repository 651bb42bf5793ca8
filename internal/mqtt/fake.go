package mqtt

import (
	"github.com/sweeney/signal-controller/internal/logic"
)

// FakeClient records published messages and scripts inbound cycle
// payloads for test assertions.
type FakeClient struct {
	// Transitions contains all phase transitions that were published.
	Transitions []logic.Transition

	// TransitionPayloads contains the JSON payloads that were published.
	TransitionPayloads [][]byte

	// CarMessages contains all car commands that were published.
	CarMessages []CarCommand

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by all publish methods.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	cycles chan string
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{cycles: make(chan string, 1)}
}

// InjectCycle delivers a raw payload the way the real subscriber does:
// capacity-1, latest wins, never blocks.
func (f *FakeClient) InjectCycle(payload string) {
	for {
		select {
		case f.cycles <- payload:
			return
		default:
			select {
			case <-f.cycles:
			default:
			}
		}
	}
}

// Cycles returns the inbound cycle payload channel.
func (f *FakeClient) Cycles() <-chan string {
	return f.cycles
}

// PublishTransition records the phase transition.
func (f *FakeClient) PublishTransition(tr logic.Transition) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Transitions = append(f.Transitions, tr)

	payload, err := FormatTransition(tr)
	if err != nil {
		return err
	}
	f.TransitionPayloads = append(f.TransitionPayloads, payload)

	return nil
}

// PublishCar records the car command.
func (f *FakeClient) PublishCar(direction, payload string) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.CarMessages = append(f.CarMessages, CarCommand{Direction: direction, Payload: payload})
	return nil
}

// PublishSystem records the system event.
func (f *FakeClient) PublishSystem(event SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakeClient) Reset() {
	f.Transitions = nil
	f.TransitionPayloads = nil
	f.CarMessages = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.Connected = false
}
