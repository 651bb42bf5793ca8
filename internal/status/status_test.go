package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/signal-controller/internal/logic"
)

func testConfig() Config {
	return Config{
		TickMs:   50,
		StaleMs:  15000,
		StatusMs: 60000,
		Broker:   "tcp://192.168.1.200:1883",
		HTTPPort: ":80",
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("expected start time %v, got %v", start, snap.StartTime)
	}
	if !snap.LastUpdate.Equal(start) {
		t.Errorf("expected lastUpdate seeded to start, got %v", snap.LastUpdate)
	}
	if snap.Outputs != (logic.Outputs{NS: logic.AspectStop, EW: logic.AspectStop}) {
		t.Errorf("expected all-stop before first update, got %+v", snap.Outputs)
	}
	if snap.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("unexpected config: %+v", snap.Config)
	}
}

func TestTrackerUpdate(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())

	lastUpdate := start.Add(3 * time.Second)
	tr.Update(
		logic.PhaseEWGreen,
		logic.Outputs{NS: logic.AspectStop, EW: logic.AspectGo},
		logic.DefaultCycle,
		true,
		lastUpdate,
		logic.EventCounts{Advances: 4, Adoptions: 1},
	)
	tr.SetMQTTConnected(true)
	tr.IncMalformed()
	tr.IncMalformed()

	snap := tr.Snapshot()
	if snap.Phase != logic.PhaseEWGreen {
		t.Errorf("unexpected phase: %s", snap.Phase)
	}
	if snap.Outputs.EW != logic.AspectGo {
		t.Errorf("unexpected outputs: %+v", snap.Outputs)
	}
	if !snap.HasPending {
		t.Error("expected pending flag")
	}
	if !snap.LastUpdate.Equal(lastUpdate) {
		t.Errorf("unexpected lastUpdate: %v", snap.LastUpdate)
	}
	if snap.Counts.Advances != 4 || snap.Counts.Adoptions != 1 {
		t.Errorf("unexpected counts: %+v", snap.Counts)
	}
	if snap.Malformed != 2 {
		t.Errorf("expected 2 malformed, got %d", snap.Malformed)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTT connected")
	}
}

func TestSnapshotStale(t *testing.T) {
	snap := Snapshot{
		LastUpdate: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Config:     Config{StaleMs: 15000},
	}

	snap.Now = snap.LastUpdate.Add(14 * time.Second)
	if snap.Stale() {
		t.Error("should not be stale before threshold")
	}
	snap.Now = snap.LastUpdate.Add(15 * time.Second)
	if !snap.Stale() {
		t.Error("should be stale at threshold")
	}

	// Disabled watchdog never reports stale.
	snap.Config.StaleMs = 0
	snap.Now = snap.LastUpdate.Add(time.Hour)
	if snap.Stale() {
		t.Error("stale with StaleMs=0")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())
	tr.Update(
		logic.PhaseNSGreen,
		logic.Outputs{NS: logic.AspectGo, EW: logic.AspectStop},
		logic.DefaultCycle,
		false,
		start,
		logic.EventCounts{Advances: 2},
	)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Phase != "NS_GREEN" {
		t.Errorf("unexpected phase: %s", parsed.Status.Phase)
	}
	if parsed.Status.NS != "GO" || parsed.Status.EW != "STOP" {
		t.Errorf("unexpected aspects: ns=%s ew=%s", parsed.Status.NS, parsed.Status.EW)
	}
	if parsed.Status.Cycle.NSGreenMs != 5000 || parsed.Status.Cycle.Order != "NS" {
		t.Errorf("unexpected cycle: %+v", parsed.Status.Cycle)
	}
	if parsed.Status.Counts.Advances != 2 {
		t.Errorf("unexpected counts: %+v", parsed.Status.Counts)
	}
	if parsed.Status.Event != "" {
		t.Errorf("web JSON should carry no event, got %q", parsed.Status.Event)
	}
	if parsed.Status.Config.StaleMs != 15000 {
		t.Errorf("unexpected config: %+v", parsed.Status.Config)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.Status.Reason)
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.50", Status: "connected", SSID: "roadside"})

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Network == nil {
		t.Fatal("expected network block")
	}
	if parsed.Status.Network.IP != "192.168.1.50" {
		t.Errorf("unexpected IP: %s", parsed.Status.Network.IP)
	}
}
