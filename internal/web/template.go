package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/signal-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"aspectClass": func(s string) string {
		switch s {
		case "GO":
			return "go"
		case "CAUTION":
			return "caution"
		default:
			return "stop"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Signal Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.go { color: green; font-weight: bold; }
.caution { color: orange; font-weight: bold; }
.stop { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.stale { color: red; font-weight: bold; }
.fresh { color: green; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Signal Controller{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Intersection</h2>
<table>
<tr><th>Phase</th><td id="phase">{{printf "%s" .Phase}}</td></tr>
<tr><th>North/South</th><td id="ns-aspect" class="{{aspectClass (printf "%s" .Outputs.NS)}}">{{printf "%s" .Outputs.NS}}</td></tr>
<tr><th>East/West</th><td id="ew-aspect" class="{{aspectClass (printf "%s" .Outputs.EW)}}">{{printf "%s" .Outputs.EW}}</td></tr>
<tr><th>Planner</th><td class="{{if .Stale}}stale{{else}}fresh{{end}}">{{if .Stale}}STALE (on fallback){{else}}fresh{{end}}</td></tr>
<tr><th>Pending update</th><td>{{if .HasPending}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Active Cycle</h2>
<table>
<tr><th>Order</th><td>{{printf "%s" .Cycle.Order}}</td></tr>
<tr><th>NS green</th><td>{{.Cycle.NSGreen.Milliseconds}}ms</td></tr>
<tr><th>EW green</th><td>{{.Cycle.EWGreen.Milliseconds}}ms</td></tr>
<tr><th>Amber</th><td>{{.Cycle.Amber.Milliseconds}}ms</td></tr>
<tr><th>All-red</th><td>{{.Cycle.AllRed.Milliseconds}}ms</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} - {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Advances</th><td>{{.Counts.Advances}}</td></tr>
<tr><th>Adoptions</th><td>{{.Counts.Adoptions}}</td></tr>
<tr><th>Fallbacks</th><td>{{.Counts.Fallbacks}}</td></tr>
<tr><th>Rejected payloads</th><td>{{.Malformed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Stale threshold</th><td>{{if eq .Config.StaleMs 0}}disabled{{else}}{{.Config.StaleMs}}ms{{end}}</td></tr>
<tr><th>Status interval</th><td>{{if eq .Config.StatusMs 0}}disabled{{else}}{{.Config.StatusMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "signals/state";
  var dot = document.getElementById("live-dot");
  var phaseEl = document.getElementById("phase");
  var nsEl = document.getElementById("ns-aspect");
  var ewEl = document.getElementById("ew-aspect");

  function setAspect(el, aspect) {
    el.textContent = aspect;
    el.className = aspect === "GO" ? "go" : aspect === "CAUTION" ? "caution" : "stop";
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.signal) {
        phaseEl.textContent = msg.signal.phase;
        setAspect(nsEl, msg.signal.ns.aspect);
        setAspect(ewEl, msg.signal.ew.aspect);
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Stale  bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Stale:    snap.Stale(),
	}
	indexTmpl.Execute(w, data)
}
