// Package notify publishes dashboard state changes to external systems.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jpalmerr/menuboard"
)

const (
	defaultClientID       = "menuboard"
	defaultPublishTimeout = 5 * time.Second
	queueSize             = 16
	disconnectQuiesceMs   = 250
)

// Event is the JSON payload published for each state change.
type Event struct {
	State    string    `json:"state"`
	Previous string    `json:"previous"`
	Message  string    `json:"message,omitempty"`
	Seq      uint64    `json:"seq"`
	At       time.Time `json:"at"`
}

// EventFromStateChange converts a dashboard state change to an [Event].
func EventFromStateChange(c menuboard.StateChange) Event {
	return Event{
		State:    c.To.String(),
		Previous: c.From.String(),
		Message:  c.Message,
		Seq:      c.Seq,
		At:       c.At,
	}
}

// MQTTConfig configures an [MQTTPublisher].
type MQTTConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker string

	// Topic is the topic events are published to. Wildcards are not allowed.
	Topic string

	// ClientID defaults to "menuboard".
	ClientID string

	// PublishTimeout bounds the wait for a publish acknowledgement.
	// Defaults to 5s.
	PublishTimeout time.Duration
}

// MQTTPublisher publishes state events as retained QoS 1 messages, so a
// subscriber connecting later still sees the current state.
//
// Events are queued and published from a single goroutine; [Notify] never
// blocks the caller.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
	logger  *slog.Logger

	queue chan Event
	stop  chan struct{}
	done  chan struct{}

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewMQTTPublisher validates cfg and creates a publisher. It does not
// connect until [MQTTPublisher.Start].
func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) (*MQTTPublisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker, "topic", cfg.Topic)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	return newPublisher(mqtt.NewClient(opts), cfg, logger), nil
}

func newPublisher(client mqtt.Client, cfg MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &MQTTPublisher{
		client:  client,
		topic:   cfg.Topic,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan Event, queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (c MQTTConfig) validate() error {
	if c.Broker == "" {
		return errors.New("mqtt broker is required")
	}
	if c.Topic == "" {
		return errors.New("mqtt topic is required")
	}
	if strings.ContainsAny(c.Topic, "#+") {
		return fmt.Errorf("mqtt topic %q must not contain wildcards", c.Topic)
	}
	return nil
}

// Start connects in the background and begins publishing queued events
// until ctx is cancelled or [MQTTPublisher.Close] is called. The client
// keeps retrying the connection; events published while disconnected fail
// and are logged.
func (p *MQTTPublisher) Start(ctx context.Context) {
	p.mu.Lock()
	select {
	case <-p.stop:
		p.mu.Unlock()
		return
	default:
	}
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.client.Connect()
	go p.run(ctx)
}

// Notify queues ev for publishing. If the queue is full the event is
// dropped and logged.
func (p *MQTTPublisher) Notify(ev Event) {
	select {
	case <-p.stop:
		return
	default:
	}

	select {
	case p.queue <- ev:
	default:
		p.logger.Warn("mqtt queue full, dropping state event", "state", ev.State, "seq", ev.Seq)
	}
}

// Close stops publishing and disconnects. Safe to call multiple times.
func (p *MQTTPublisher) Close() {
	p.stopOnce.Do(func() {
		close(p.stop)

		p.mu.Lock()
		started := p.started
		p.mu.Unlock()

		if started {
			<-p.done
			p.client.Disconnect(disconnectQuiesceMs)
		}
	})
}

func (p *MQTTPublisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case ev := <-p.queue:
			if err := p.publish(ev); err != nil {
				p.logger.Warn("failed to publish state event",
					"topic", p.topic,
					"state", ev.State,
					"seq", ev.Seq,
					"error", err,
				)
			}
		}
	}
}

func (p *MQTTPublisher) publish(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	token := p.client.Publish(p.topic, 1, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish timed out after %s", p.timeout)
	}
	return token.Error()
}
