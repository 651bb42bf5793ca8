package mqtt

import (
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/signal-controller/internal/logic"
)

// bufferCapacity bounds how many messages queue while the broker is down.
// A cycle under the default spec produces ~16 messages per minute.
const bufferCapacity = 64

// publishTimeout bounds how long the delivery watcher waits for an ack.
const publishTimeout = 5 * time.Second

// RealClient talks to an actual MQTT broker. It subscribes to the
// planner's cycle topic and publishes state, car commands, and system
// events. Connection handling is fully asynchronous: the control loop
// must keep ticking whether or not the broker is reachable.
type RealClient struct {
	client paho.Client
	cycles chan string

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealClient creates a client that connects (and reconnects) to the
// given broker in the background. It never blocks waiting for the broker;
// publishes while disconnected are buffered and replayed on connect.
func NewRealClient(broker string) *RealClient {
	c := &RealClient{
		cycles: make(chan string, 1),
		buffer: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("signal-controller").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c.client = paho.NewClient(opts)
	c.client.Connect()
	return c
}

// onConnect runs on every (re)connect: paho does not restore
// subscriptions for clean sessions, so resubscribe here, then flush
// anything buffered while offline.
func (c *RealClient) onConnect(client paho.Client) {
	log.Printf("mqtt: connected, subscribing to %s", TopicCycle)
	token := client.Subscribe(TopicCycle, 1, c.onCycle)
	go func() {
		if token.WaitTimeout(publishTimeout) {
			if err := token.Error(); err != nil {
				log.Printf("mqtt: subscribe %s: %v", TopicCycle, err)
			}
		}
	}()

	c.mu.Lock()
	queued := c.buffer.drainAll()
	c.mu.Unlock()
	if len(queued) > 0 {
		log.Printf("mqtt: replaying %d buffered messages", len(queued))
	}
	for _, msg := range queued {
		c.send(msg.topic, msg.qos, msg.retained, msg.payload)
	}
}

// onCycle runs on paho's router goroutine. Hand the payload to the
// control loop through the capacity-1 channel, replacing any unconsumed
// older payload: last writer wins, and the callback never blocks.
func (c *RealClient) onCycle(_ paho.Client, msg paho.Message) {
	payload := string(msg.Payload())
	for {
		select {
		case c.cycles <- payload:
			return
		default:
			select {
			case <-c.cycles:
			default:
			}
		}
	}
}

// Cycles returns the inbound cycle payload channel.
func (c *RealClient) Cycles() <-chan string {
	return c.cycles
}

// publish buffers when offline, otherwise sends.
func (c *RealClient) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !c.client.IsConnectionOpen() {
		c.mu.Lock()
		c.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		c.mu.Unlock()
		return nil
	}
	c.send(topic, qos, retained, payload)
	return nil
}

// send fires the publish and watches for the ack off the control loop's
// thread. The loop must never block on broker round-trips; delivery
// failures are logged, not surfaced.
func (c *RealClient) send(topic string, qos byte, retained bool, payload []byte) {
	token := c.client.Publish(topic, qos, retained, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("mqtt: publish %s: ack timeout", topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish %s: %v", topic, err)
		}
	}()
}

// PublishTransition sends a phase transition event.
func (c *RealClient) PublishTransition(tr logic.Transition) error {
	payload, err := FormatTransition(tr)
	if err != nil {
		return err
	}
	// QoS 0 (at-most-once): the next transition supersedes this one anyway.
	return c.publish(TopicState, 0, false, payload)
}

// PublishCar sends an actuation command to one approach direction.
func (c *RealClient) PublishCar(direction, payload string) error {
	// QoS 1 (at-least-once): a lost STOP matters.
	return c.publish(CarTopic(direction), 1, false, []byte(payload))
}

// PublishSystem sends a system lifecycle event.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	return c.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
