// Package mqtt publishes snapshots to an MQTT broker.
//
// Every change is published as a retained JSON document on
// <prefix>/state. Numeric leaves are additionally published, retained, on
// <prefix>/<category path>/<id> whenever their value changes, so that
// home-automation systems can subscribe to single fields. The publisher
// announces itself on <prefix>/status with "online" and registers
// "offline" as its last will.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/snapshot"
	"go.uber.org/zap"
)

// Defaults for Config fields left at zero.
const (
	DefaultTopicPrefix    = "luxws"
	DefaultConnectTimeout = 10 * time.Second

	publishTimeout = 5 * time.Second
	qos            = 0

	statusOnline  = "online"
	statusOffline = "offline"
)

// Config describes the broker connection.
type Config struct {
	// Broker is a URL such as tcp://broker:1883.
	Broker      string
	TopicPrefix string
	ClientID    string
	Username    string
	Password    string

	ConnectTimeout time.Duration
}

// client is the subset of the paho client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

type update struct {
	leaves  []snapshot.Leaf
	updated time.Time
}

// Publisher sends snapshots to the broker from its own goroutine so that
// the session never waits on the network.
type Publisher struct {
	client client
	prefix string

	pending chan update

	mu   sync.Mutex
	last map[string]string
}

// StatePayload is the document published on <prefix>/state.
type StatePayload struct {
	Timestamp int64           `json:"timestamp"`
	Data      []snapshot.Leaf `json:"data"`
}

// Connect dials the broker and returns a publisher.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(timeout)
	opts.SetWill(prefix+"/status", statusOffline, qos, true)
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		logging.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
		c.Publish(prefix+"/status", qos, true, statusOnline)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logging.Warn("MQTT connection lost", zap.String("broker", cfg.Broker), zap.Error(err))
	})

	c := pahomqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	return newPublisher(c, prefix), nil
}

func newPublisher(c client, prefix string) *Publisher {
	return &Publisher{
		client:  c,
		prefix:  prefix,
		pending: make(chan update, 1),
		last:    make(map[string]string),
	}
}

// Enqueue schedules a snapshot for publishing. It never blocks; an older
// snapshot still waiting is replaced. Its signature matches
// snapshot.Listener.
func (p *Publisher) Enqueue(leaves []snapshot.Leaf, updated time.Time) {
	u := update{leaves: leaves, updated: updated}
	for {
		select {
		case p.pending <- u:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

// Run publishes queued snapshots until ctx is done, then disconnects.
func (p *Publisher) Run(ctx context.Context) {
	defer p.close()
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-p.pending:
			if err := p.Publish(u.leaves, u.updated); err != nil {
				logging.Warn("MQTT publish failed", zap.Error(err))
			}
		}
	}
}

// Publish sends the state document and every numeric leaf whose value
// changed since the last successful publish.
func (p *Publisher) Publish(leaves []snapshot.Leaf, updated time.Time) error {
	payload, err := json.Marshal(StatePayload{Timestamp: updated.Unix(), Data: leaves})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := p.send(p.prefix+"/state", payload); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, l := range leaves {
		if l.Numeric == nil {
			continue
		}
		topic := p.prefix + "/" + l.Topic()
		value := strconv.FormatFloat(*l.Numeric, 'f', -1, 64)
		if p.last[topic] == value {
			continue
		}
		if err := p.send(topic, []byte(value)); err != nil {
			errs = append(errs, err)
			continue
		}
		p.last[topic] = value
	}
	return errors.Join(errs...)
}

func (p *Publisher) send(topic string, payload []byte) error {
	token := p.client.Publish(topic, qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) close() {
	token := p.client.Publish(p.prefix+"/status", qos, true, statusOffline)
	token.WaitTimeout(time.Second)
	p.client.Disconnect(250)
	logging.Info("Disconnected from MQTT broker")
}
