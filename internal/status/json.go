package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string       `json:"event,omitempty"`
	Reason           string       `json:"reason,omitempty"`
	Phase            string       `json:"phase"`
	NS               string       `json:"ns"`
	EW               string       `json:"ew"`
	Pending          bool         `json:"pending_update"`
	Stale            bool         `json:"stale"`
	UpdateAgeSeconds int64        `json:"update_age_seconds"`
	LastUpdate       string       `json:"last_update"`
	Cycle            CycleJSON    `json:"cycle"`
	UptimeSeconds    int64        `json:"uptime_seconds"`
	StartTime        string       `json:"start_time"`
	Timestamp        string       `json:"timestamp"`
	MQTT             MQTTStatus   `json:"mqtt"`
	Counts           CountsJSON   `json:"event_counts"`
	Network          *NetworkJSON `json:"network,omitempty"`
	Config           ConfigJSON   `json:"config"`
}

// CycleJSON is the JSON representation of the active cycle.
type CycleJSON struct {
	Order     string `json:"order"`
	NSGreenMs int64  `json:"ns_green_ms"`
	EWGreenMs int64  `json:"ew_green_ms"`
	AmberMs   int64  `json:"amber_ms"`
	AllRedMs  int64  `json:"all_red_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Advances  int `json:"advances"`
	Adoptions int `json:"adoptions"`
	Fallbacks int `json:"fallbacks"`
	Malformed int `json:"malformed"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs   int64  `json:"tick_ms"`
	StaleMs  int64  `json:"stale_ms"`
	StatusMs int64  `json:"status_ms"`
	Broker   string `json:"broker"`
	HTTPPort string `json:"http_port"`
	WSBroker string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Phase:            snap.Phase.String(),
		NS:               string(snap.Outputs.NS),
		EW:               string(snap.Outputs.EW),
		Pending:          snap.HasPending,
		Stale:            snap.Stale(),
		UpdateAgeSeconds: int64(snap.UpdateAge().Truncate(time.Second).Seconds()),
		LastUpdate:       snap.LastUpdate.UTC().Format(time.RFC3339),
		Cycle: CycleJSON{
			Order:     string(snap.Cycle.Order),
			NSGreenMs: snap.Cycle.NSGreen.Milliseconds(),
			EWGreenMs: snap.Cycle.EWGreen.Milliseconds(),
			AmberMs:   snap.Cycle.Amber.Milliseconds(),
			AllRedMs:  snap.Cycle.AllRed.Milliseconds(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Advances:  snap.Counts.Advances,
			Adoptions: snap.Counts.Adoptions,
			Fallbacks: snap.Counts.Fallbacks,
			Malformed: snap.Malformed,
		},
		Config: ConfigJSON{
			TickMs:   snap.Config.TickMs,
			StaleMs:  snap.Config.StaleMs,
			StatusMs: snap.Config.StatusMs,
			Broker:   snap.Config.Broker,
			HTTPPort: snap.Config.HTTPPort,
			WSBroker: snap.Config.WSBroker,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
