package session

import (
	"errors"
	"time"

	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/protocol"
	"github.com/muurk/luxws/internal/snapshot"
	"go.uber.org/zap"
)

// Events are produced by connection goroutines and consumed by the loop.
// gen ties an event to the connection attempt that produced it.
type event interface {
	generation() uint64
}

type openedEvent struct {
	gen  uint64
	conn Conn
}

type dialFailedEvent struct {
	gen uint64
	err error
}

type messageEvent struct {
	gen  uint64
	body []byte
}

type closedEvent struct {
	gen uint64
	err error
}

func (e openedEvent) generation() uint64     { return e.gen }
func (e dialFailedEvent) generation() uint64 { return e.gen }
func (e messageEvent) generation() uint64    { return e.gen }
func (e closedEvent) generation() uint64     { return e.gen }

// Counters are cumulative session statistics.
type Counters struct {
	Dials            uint64 `json:"dials"`
	DialFailures     uint64 `json:"dial_failures"`
	TransportErrors  uint64 `json:"transport_errors"`
	CleanCloses      uint64 `json:"clean_closes"`
	Messages         uint64 `json:"messages"`
	Malformed        uint64 `json:"malformed"`
	Snapshots        uint64 `json:"snapshots"`
	Merges           uint64 `json:"merges"`
	SkippedItems     uint64 `json:"skipped_items"`
	SendFailures     uint64 `json:"send_failures"`
	CooldownsStarted uint64 `json:"cooldowns_started"`
}

// machine owns all session state. It is only touched by the event loop.
type machine struct {
	state    State
	conn     Conn
	gen      uint64
	dialing  bool
	address  string
	errors   int
	cooldown int

	threshold     int
	cooldownTicks int
	url           string

	store    *snapshot.Store
	resolver protocol.Resolver
	decoder  snapshot.Decoder

	// startDial begins an asynchronous connection attempt for gen.
	startDial func(gen uint64)
	// active is false once shutdown began.
	active func() bool

	counters Counters
	lastErr  error
	changed  time.Time
	now      func() time.Time
}

// drive performs the one action due in the current state.
func (m *machine) drive() {
	if !m.active() {
		return
	}
	switch m.state {
	case StateNew:
		if m.dialing {
			logging.Debug("Dial already in flight", zap.Uint64("generation", m.gen))
			return
		}
		m.gen++
		m.dialing = true
		m.counters.Dials++
		m.startDial(m.gen)
	case StateOpen:
		m.send(protocol.LoginCommand)
	case StateLoggedIn:
		m.send(protocol.SelectCommand(m.address))
	case StateDataSelected:
		m.send(protocol.RefreshCommand)
	case StateError:
		if m.cooldown > 0 {
			m.cooldown--
			logging.Debug("Waiting for error to cool down",
				zap.Int("remaining", m.cooldown),
			)
			return
		}
		m.errors = 0
		m.cooldown = m.cooldownTicks
		logging.Info("Error cooldown elapsed, starting over")
		m.setState(StateNew)
	}
}

// handle applies one transport event.
func (m *machine) handle(ev event) {
	if ev.generation() != m.gen {
		if o, ok := ev.(openedEvent); ok {
			_ = o.conn.Close()
		}
		logging.Debug("Ignoring event from superseded connection",
			zap.Uint64("generation", ev.generation()),
			zap.Uint64("current", m.gen),
		)
		return
	}

	switch e := ev.(type) {
	case openedEvent:
		m.dialing = false
		if !m.active() {
			_ = e.conn.Close()
			return
		}
		m.conn = e.conn
		m.setState(StateOpen, zap.String("conn_id", e.conn.ID()))
		m.send(protocol.LoginCommand)
	case dialFailedEvent:
		m.dialing = false
		m.counters.DialFailures++
		m.fail(e.err)
	case messageEvent:
		m.counters.Messages++
		m.handleMessage(e.body)
	case closedEvent:
		if e.err == nil {
			m.conn = nil
			m.counters.CleanCloses++
			// Bump the generation so nothing else from this connection counts.
			m.gen++
			m.setState(StateNew)
			return
		}
		m.fail(e.err)
	}
}

func (m *machine) handleMessage(body []byte) {
	msg, err := protocol.Decode(body, m.resolver, m.decoder)
	if err != nil {
		m.counters.Malformed++
		m.lastErr = err
		logging.Warn("Discarding malformed message",
			zap.String("state", m.state.String()),
			zap.Int("length", len(body)),
			zap.Error(err),
		)
		logging.LogRawBytes("Malformed message body", body)
		return
	}

	switch msg := msg.(type) {
	case protocol.NavigationMessage:
		if msg.Address == "" {
			logging.Warn("Navigation reply without address, staying logged out")
			return
		}
		m.address = msg.Address
		m.setState(StateLoggedIn, zap.String("address", msg.Address))
		m.send(protocol.SelectCommand(m.address))
	case protocol.ContentMessage:
		for _, s := range msg.Skipped {
			logging.Debug("Skipped item", zap.Stringer("item", s))
		}
		m.counters.SkippedItems += uint64(len(msg.Skipped))
		m.counters.Snapshots++
		m.store.Replace(msg.Tree)
		m.errors = 0
		if m.state != StateDataSelected {
			m.setState(StateDataSelected,
				zap.Int("items", msg.Tree.Len()),
				zap.Int("skipped", len(msg.Skipped)),
			)
		}
	case protocol.ValuesMessage:
		if _, err := m.store.Merge(msg.Updates, m.decoder); err != nil {
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				logging.Debug("Values reply before first content, ignoring")
				return
			}
			logging.Warn("Failed to merge values", zap.Error(err))
			return
		}
		m.counters.Merges++
	default:
		logging.Debug("Ignoring unrecognized message", zap.Int("length", len(body)))
	}
}

// fail records a transport failure and either starts over or enters the
// error state.
func (m *machine) fail(err error) {
	m.counters.TransportErrors++
	m.lastErr = err
	m.dropConn()
	m.errors++

	if m.active() {
		logging.Warn("Transport failure",
			zap.Int("errors", m.errors),
			zap.Int("threshold", m.threshold),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Error(err),
		)
	}

	if m.errors >= m.threshold {
		m.cooldown = m.cooldownTicks
		m.counters.CooldownsStarted++
		m.setState(StateError, zap.Int("cooldown", m.cooldown))
		logging.Error("Session in error state after repeated failures",
			zap.Int("errors", m.errors),
		)
		return
	}
	m.setState(StateNew)
}

// dropConn closes the current connection and invalidates its pending
// events.
func (m *machine) dropConn() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.gen++
	m.dialing = false
}

func (m *machine) send(cmd string) {
	if m.conn == nil {
		if m.active() {
			logging.Warn("Cannot send command", zap.String("command", cmd), zap.Error(ErrNotConnected))
		}
		return
	}
	logging.Debug("Sending command", zap.String("command", cmd))
	if err := m.conn.Send(cmd); err != nil {
		m.counters.SendFailures++
		if m.active() {
			logging.Warn("Unable to send command",
				zap.String("command", cmd),
				zap.Error(err),
			)
		}
	}
}

func (m *machine) setState(s State, fields ...zap.Field) {
	if s == m.state {
		return
	}
	logging.LogStateChange(m.state.String(), s.String(), fields...)
	m.state = s
	m.changed = m.now()
}

// shutdown releases the connection and cancels pending events.
func (m *machine) shutdown() {
	m.dropConn()
}
