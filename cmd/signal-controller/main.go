// Command signal-controller runs a two-direction traffic signal from MQTT
// cycle updates, with a safe-boundary update gate and a staleness watchdog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/signal-controller/internal/gpio"
	"github.com/sweeney/signal-controller/internal/logic"
	"github.com/sweeney/signal-controller/internal/mqtt"
	"github.com/sweeney/signal-controller/internal/status"
	"github.com/sweeney/signal-controller/internal/web"
)

func main() {
	tick := flag.Duration("tick", 50*time.Millisecond, "Control loop interval")
	stale := flag.Duration("stale", 15*time.Second, "Watchdog staleness threshold (0 to disable)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	statusEvery := flag.Duration("status-interval", time.Minute, "Periodic status event interval (0 to disable)")
	pinNSRed := flag.Int("pin-ns-red", gpio.DefaultPins.NSRed, "BCM pin for the NS red lamp")
	pinNSAmber := flag.Int("pin-ns-amber", gpio.DefaultPins.NSAmber, "BCM pin for the NS amber lamp")
	pinNSGreen := flag.Int("pin-ns-green", gpio.DefaultPins.NSGreen, "BCM pin for the NS green lamp")
	pinEWRed := flag.Int("pin-ew-red", gpio.DefaultPins.EWRed, "BCM pin for the EW red lamp")
	pinEWAmber := flag.Int("pin-ew-amber", gpio.DefaultPins.EWAmber, "BCM pin for the EW amber lamp")
	pinEWGreen := flag.Int("pin-ew-green", gpio.DefaultPins.EWGreen, "BCM pin for the EW green lamp")
	lampTest := flag.Bool("lamp-test", false, "Walk each phase's lamp outputs once and exit")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	flag.Parse()

	pins := gpio.Pins{
		NSRed: *pinNSRed, NSAmber: *pinNSAmber, NSGreen: *pinNSGreen,
		EWRed: *pinEWRed, EWAmber: *pinEWAmber, EWGreen: *pinEWGreen,
	}
	ws := resolveWSBroker(*wsBroker, *broker)
	if err := run(*tick, *stale, *broker, *statusEvery, pins, *lampTest, *httpAddr, ws); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(tick, stale time.Duration, broker string, statusEvery time.Duration, pins gpio.Pins, lampTest bool, httpAddr, wsBroker string) error {
	// Initialize GPIO
	lamps, err := gpio.NewRealWriter(pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lamps.Close()

	// Lamp test mode
	if lampTest {
		return runLampTest(lamps)
	}

	// Initialize MQTT
	client := mqtt.NewRealClient(broker)
	defer client.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:   tick.Milliseconds(),
		StaleMs:  stale.Milliseconds(),
		StatusMs: statusEvery.Milliseconds(),
		Broker:   broker,
		HTTPPort: httpAddr,
		WSBroker: wsBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := client.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: tick=%v stale=%v broker=%s status-interval=%v", tick, stale, broker, statusEvery)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(lamps, client, client, tracker, client.Cycles(), stale, statusEvery, time.Now, ticker.C, sigCh)
}

func runLoop(lamps gpio.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cycles <-chan string, stale, statusEvery time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	ctrl := logic.NewController(logic.DefaultCycle, startTime)
	lastStatus := startTime

	// The controller starts on the built-in default; put the lamps there
	// before the first tick so hardware never shows a stale state.
	if err := lamps.Apply(ctrl.Outputs()); err != nil {
		log.Printf("gpio apply error: %v", err)
	}
	log.Printf("initial phase: %s [NS=%s EW=%s]", ctrl.Phase(), ctrl.Outputs().NS, ctrl.Outputs().EW)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()

			// Message pump: at most one payload waits (latest wins).
			select {
			case payload := <-cycles:
				cy, err := logic.ParseCycle(payload)
				if err != nil {
					log.Printf("cycle rejected: %v (payload %q)", err, payload)
					if tracker != nil {
						tracker.IncMalformed()
					}
				} else {
					ctrl.Submit(cy, t)
					log.Printf("cycle received: order=%s ns=%v ew=%v amber=%v allred=%v",
						cy.Order, cy.NSGreen, cy.EWGreen, cy.Amber, cy.AllRed)
				}
			default:
			}

			if tr := ctrl.Tick(t); tr != nil {
				applyTransition(*tr, lamps, publisher)
			}

			if tr := ctrl.CheckStaleness(t, stale); tr != nil {
				log.Printf("watchdog: no update for >= %v, reverting to default cycle", stale)
				applyTransition(*tr, lamps, publisher)
			}

			// Periodic status event
			if statusEvery > 0 && t.Sub(lastStatus) >= statusEvery {
				lastStatus = t
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh network info for the status event
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					event := mqtt.SystemEvent{
						Timestamp:  t,
						Event:      "STATUS",
						RawPayload: status.FormatStatusEvent(snap, "STATUS", ""),
					}
					if err := publisher.PublishSystem(event); err != nil {
						log.Printf("status publish error: %v", err)
					}
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(ctrl.Phase(), ctrl.Outputs(), ctrl.ActiveCycle(), ctrl.HasPending(), ctrl.LastUpdate(), ctrl.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

// applyTransition pushes a phase change to the lamps and the broker.
// Neither failure crashes the loop: lamps and broker fail independently
// and the controller keeps its own time.
func applyTransition(tr logic.Transition, lamps gpio.Writer, publisher mqtt.Publisher) {
	log.Printf("phase: %s (%s) for %v [NS=%s EW=%s]", tr.Phase, tr.Cause, tr.Duration, tr.Outputs.NS, tr.Outputs.EW)

	if err := lamps.Apply(tr.Outputs); err != nil {
		log.Printf("gpio apply error: %v", err)
	}
	if err := publisher.PublishTransition(tr); err != nil {
		log.Printf("publish error: %v", err)
	}
	for _, cmd := range mqtt.CarCommands(tr) {
		if err := publisher.PublishCar(cmd.Direction, cmd.Payload); err != nil {
			log.Printf("car publish error (%s): %v", cmd.Direction, err)
		}
	}
}

// runLampTest walks every phase's output mapping once, then returns to
// all-stop. Useful after wiring changes.
func runLampTest(lamps gpio.Writer) error {
	phases := []logic.Phase{
		logic.PhaseNSGreen, logic.PhaseNSAmber, logic.PhaseAllRedToEW,
		logic.PhaseEWGreen, logic.PhaseEWAmber, logic.PhaseAllRedToNS,
	}
	for _, p := range phases {
		out := logic.OutputsFor(p)
		fmt.Printf("%s: NS=%s EW=%s\n", p, out.NS, out.EW)
		if err := lamps.Apply(out); err != nil {
			return fmt.Errorf("apply %s: %w", p, err)
		}
		time.Sleep(500 * time.Millisecond)
	}
	return lamps.Apply(logic.Outputs{NS: logic.AspectStop, EW: logic.AspectStop})
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
