// Package status provides a thread-safe status tracker for the
// signal-controller daemon. It is designed to be read by HTTP handlers
// and serialized into MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/signal-controller/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs   int64
	StaleMs  int64
	StatusMs int64
	Broker   string
	HTTPPort string
	WSBroker string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Phase         logic.Phase
	Outputs       logic.Outputs
	Cycle         logic.Cycle
	HasPending    bool
	LastUpdate    time.Time
	Counts        logic.EventCounts
	Malformed     int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// UpdateAge returns how long ago the last valid planner update arrived.
func (s Snapshot) UpdateAge() time.Duration {
	return s.Now.Sub(s.LastUpdate)
}

// Stale reports whether the planner source has gone quiet for longer than
// the watchdog threshold.
func (s Snapshot) Stale() bool {
	if s.Config.StaleMs <= 0 {
		return false
	}
	return s.UpdateAge() >= time.Duration(s.Config.StaleMs)*time.Millisecond
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:  startTime,
			LastUpdate: startTime,
			Config:     cfg,
			Outputs:    logic.Outputs{NS: logic.AspectStop, EW: logic.AspectStop},
		},
	}
}

// Update sets controller state. Called from runLoop on every tick.
func (t *Tracker) Update(phase logic.Phase, out logic.Outputs, cycle logic.Cycle, hasPending bool, lastUpdate time.Time, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Phase = phase
	t.snap.Outputs = out
	t.snap.Cycle = cycle
	t.snap.HasPending = hasPending
	t.snap.LastUpdate = lastUpdate
	t.snap.Counts = counts
	t.mu.Unlock()
}

// IncMalformed counts a rejected planner payload.
func (t *Tracker) IncMalformed() {
	t.mu.Lock()
	t.snap.Malformed++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
