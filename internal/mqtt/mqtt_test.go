package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/signal-controller/internal/logic"
)

func sampleTransition() logic.Transition {
	return logic.Transition{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Phase:     logic.PhaseNSGreen,
		Duration:  9 * time.Second,
		Outputs:   logic.Outputs{NS: logic.AspectGo, EW: logic.AspectStop},
		Cause:     logic.CauseAdopt,
		Cycle: logic.Cycle{
			Order:   logic.OrderNS,
			NSGreen: 9 * time.Second,
			EWGreen: 7 * time.Second,
			Amber:   2 * time.Second,
			AllRed:  1 * time.Second,
		},
	}
}

func TestFormatTransition(t *testing.T) {
	payload, err := FormatTransition(sampleTransition())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed StatePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Signal.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Signal.Timestamp)
	}
	if parsed.Signal.Phase != "NS_GREEN" {
		t.Errorf("unexpected phase: %s", parsed.Signal.Phase)
	}
	if parsed.Signal.Cause != "ADOPT" {
		t.Errorf("unexpected cause: %s", parsed.Signal.Cause)
	}
	if parsed.Signal.DurationMs != 9000 {
		t.Errorf("unexpected duration: %d", parsed.Signal.DurationMs)
	}
	if parsed.Signal.NS.Aspect != "GO" {
		t.Errorf("unexpected NS aspect: %s", parsed.Signal.NS.Aspect)
	}
	if parsed.Signal.EW.Aspect != "STOP" {
		t.Errorf("unexpected EW aspect: %s", parsed.Signal.EW.Aspect)
	}
	if parsed.Signal.Cycle.Order != "NS" || parsed.Signal.Cycle.EWGreenMs != 7000 {
		t.Errorf("unexpected cycle: %+v", parsed.Signal.Cycle)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"custom":true}}`)
	event := SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		RawPayload: raw,
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestCarTopic(t *testing.T) {
	if got := CarTopic("N"); got != "cars/N" {
		t.Errorf("got %q, want cars/N", got)
	}
}

func TestCarCommands(t *testing.T) {
	tests := []struct {
		name  string
		phase logic.Phase
		dur   time.Duration
		want  []CarCommand
	}{
		{
			name:  "ns green releases NS and holds EW",
			phase: logic.PhaseNSGreen,
			dur:   9 * time.Second,
			want: []CarCommand{
				{"N", "GO 9000"}, {"S", "GO 9000"}, {"E", "STOP"}, {"W", "STOP"},
			},
		},
		{
			name:  "ew green releases EW and holds NS",
			phase: logic.PhaseEWGreen,
			dur:   12 * time.Second,
			want: []CarCommand{
				{"E", "GO 12000"}, {"W", "GO 12000"}, {"N", "STOP"}, {"S", "STOP"},
			},
		},
		{
			name:  "ns amber stops NS",
			phase: logic.PhaseNSAmber,
			dur:   2 * time.Second,
			want:  []CarCommand{{"N", "STOP"}, {"S", "STOP"}},
		},
		{
			name:  "ew amber stops EW",
			phase: logic.PhaseEWAmber,
			dur:   2 * time.Second,
			want:  []CarCommand{{"E", "STOP"}, {"W", "STOP"}},
		},
		{
			name:  "all red sends nothing",
			phase: logic.PhaseAllRedToEW,
			dur:   time.Second,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := logic.Transition{
				Phase:    tt.phase,
				Duration: tt.dur,
				Outputs:  logic.OutputsFor(tt.phase),
			}
			got := CarCommands(tr)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d commands, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("command %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFakeClientRecords(t *testing.T) {
	f := NewFakeClient()

	tr := sampleTransition()
	if err := f.PublishTransition(tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishCar("N", "GO 9000"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Transitions) != 1 || f.Transitions[0].Phase != logic.PhaseNSGreen {
		t.Errorf("transition not recorded: %+v", f.Transitions)
	}
	if len(f.CarMessages) != 1 || f.CarMessages[0].Direction != "N" {
		t.Errorf("car message not recorded: %+v", f.CarMessages)
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system event not recorded: %+v", f.SystemEvents)
	}
}

func TestFakeClientPublishError(t *testing.T) {
	f := NewFakeClient()
	f.PublishError = errors.New("simulated error")

	if err := f.PublishTransition(sampleTransition()); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Transitions) != 0 {
		t.Error("failed publish should not be recorded")
	}
}

func TestFakeClientCycleLatestWins(t *testing.T) {
	f := NewFakeClient()

	f.InjectCycle("CYCLE NS 5000 5000 2000 1000")
	f.InjectCycle("CYCLE EW 7000 9000 2000 1000")

	select {
	case got := <-f.Cycles():
		if got != "CYCLE EW 7000 9000 2000 1000" {
			t.Errorf("expected the newer payload, got %q", got)
		}
	default:
		t.Fatal("expected a payload on the channel")
	}

	// Channel drained: nothing else pending.
	select {
	case got := <-f.Cycles():
		t.Errorf("unexpected second payload %q", got)
	default:
	}
}
