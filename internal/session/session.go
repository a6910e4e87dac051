package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/protocol"
	"github.com/muurk/luxws/internal/snapshot"
	"go.uber.org/zap"
)

// Defaults for Options fields left at zero.
const (
	DefaultPollInterval   = 10 * time.Second
	DefaultDialTimeout    = 30 * time.Second
	DefaultErrorThreshold = 3
	DefaultErrorCooldown  = 100

	eventBuffer = 16
)

// Options configures a Session.
type Options struct {
	// URL is the controller's websocket URL, see protocol.URL.
	URL string
	// Dialer defaults to a WebsocketDialer using DialTimeout.
	Dialer Dialer

	Resolver protocol.Resolver
	Decoder  snapshot.Decoder
	Store    *snapshot.Store

	// PollInterval is the drive cadence.
	PollInterval time.Duration
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
	// ErrorThreshold is the number of consecutive transport failures that
	// put the session into the error state.
	ErrorThreshold int
	// ErrorCooldown is the number of drives spent in the error state before
	// starting over.
	ErrorCooldown int
}

func (o *Options) applyDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.ErrorThreshold <= 0 {
		o.ErrorThreshold = DefaultErrorThreshold
	}
	if o.ErrorCooldown <= 0 {
		o.ErrorCooldown = DefaultErrorCooldown
	}
	if o.Dialer == nil {
		o.Dialer = WebsocketDialer{HandshakeTimeout: o.DialTimeout}
	}
}

// Status is a point-in-time view of the session.
type Status struct {
	State        State     `json:"state"`
	URL          string    `json:"url"`
	Address      string    `json:"address,omitempty"`
	ConnectionID string    `json:"connection_id,omitempty"`
	Errors       int       `json:"errors"`
	Cooldown     int       `json:"cooldown"`
	LastError    string    `json:"last_error,omitempty"`
	StateSince   time.Time `json:"state_since"`
	Counters     Counters  `json:"counters"`
}

// Session keeps one controller connection alive and publishes what it reads
// to the store. All protocol state is owned by the goroutine running Run;
// connection goroutines and Drive only send it messages.
type Session struct {
	opts Options

	events   chan event
	driveReq chan struct{}
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	active atomic.Bool
	status atomic.Pointer[Status]

	dialCtx context.Context
	conns   sync.WaitGroup

	// live holds every dialed connection until its goroutine exits, so Run
	// can abort them all on the way out.
	liveMu sync.Mutex
	live   map[Conn]struct{}
	closed bool
}

// New validates opts and returns a session that has not started.
func New(opts Options) (*Session, error) {
	if opts.URL == "" {
		return nil, errors.New("session: URL is required")
	}
	if opts.Resolver == nil || opts.Decoder == nil || opts.Store == nil {
		return nil, errors.New("session: resolver, decoder and store are required")
	}
	opts.applyDefaults()

	s := &Session{
		opts:     opts,
		events:   make(chan event, eventBuffer),
		driveReq: make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		live:     make(map[Conn]struct{}),
	}
	s.status.Store(&Status{State: StateNew, URL: opts.URL, Cooldown: opts.ErrorCooldown})
	return s, nil
}

// Run drives the session until ctx is cancelled or Shutdown is called. The
// first drive happens immediately.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session: already running")
	}
	select {
	case <-s.stop:
		close(s.stopped)
		return nil
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.dialCtx = ctx
	s.active.Store(true)

	m := &machine{
		state:         StateNew,
		threshold:     s.opts.ErrorThreshold,
		cooldownTicks: s.opts.ErrorCooldown,
		cooldown:      s.opts.ErrorCooldown,
		url:           s.opts.URL,
		store:         s.opts.Store,
		resolver:      s.opts.Resolver,
		decoder:       s.opts.Decoder,
		startDial:     s.connect,
		active:        s.active.Load,
		now:           time.Now,
	}
	m.changed = m.now()

	logging.Info("Session started",
		zap.String("url", s.opts.URL),
		zap.Duration("poll_interval", s.opts.PollInterval),
	)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	m.drive()
	s.publish(m)

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case <-s.stop:
			break loop
		case <-ticker.C:
			m.drive()
		case <-s.driveReq:
			m.drive()
		case ev := <-s.events:
			m.handle(ev)
		}
		s.publish(m)
	}

	s.active.Store(false)
	m.shutdown()
	cancel()
	s.closeLive()
	close(s.stopped)
	s.conns.Wait()
	s.publish(m)

	logging.Info("Session stopped", zap.String("url", s.opts.URL))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Drive requests an out-of-cadence drive. It never blocks; requests made
// while one is pending are coalesced.
func (s *Session) Drive() {
	select {
	case s.driveReq <- struct{}{}:
	default:
	}
}

// Shutdown marks the session inactive, aborts the connection and waits for
// Run to return or ctx to expire.
func (s *Session) Shutdown(ctx context.Context) error {
	s.active.Store(false)
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.running.Load() {
		return nil
	}
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session shutdown: %w", ctx.Err())
	}
}

// Status returns the latest session status. It is safe to call from any
// goroutine.
func (s *Session) Status() Status {
	return *s.status.Load()
}

// Store returns the snapshot store the session publishes to.
func (s *Session) Store() *snapshot.Store {
	return s.opts.Store
}

func (s *Session) publish(m *machine) {
	st := &Status{
		State:      m.state,
		URL:        m.url,
		Address:    m.address,
		Errors:     m.errors,
		Cooldown:   m.cooldown,
		StateSince: m.changed,
		Counters:   m.counters,
	}
	if m.conn != nil {
		st.ConnectionID = m.conn.ID()
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	s.status.Store(st)
}

// connect dials and then pumps the connection's messages into the loop.
func (s *Session) connect(gen uint64) {
	s.conns.Add(1)
	go func() {
		defer s.conns.Done()

		ctx, cancel := context.WithTimeout(s.dialCtx, s.opts.DialTimeout)
		conn, err := s.opts.Dialer.Dial(ctx, s.opts.URL)
		cancel()
		if err != nil {
			s.post(dialFailedEvent{gen: gen, err: err})
			return
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		defer s.untrack(conn)
		if !s.post(openedEvent{gen: gen, conn: conn}) {
			_ = conn.Close()
			return
		}

		err = conn.Receive(func(body []byte) {
			s.post(messageEvent{gen: gen, body: body})
		})
		_ = conn.Close()
		s.post(closedEvent{gen: gen, err: err})
	}()
}

// track registers conn for closeLive. It reports false once Run is exiting.
func (s *Session) track(conn Conn) bool {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	if s.closed {
		return false
	}
	s.live[conn] = struct{}{}
	return true
}

func (s *Session) untrack(conn Conn) {
	s.liveMu.Lock()
	delete(s.live, conn)
	s.liveMu.Unlock()
}

// closeLive closes every tracked connection and refuses new ones.
func (s *Session) closeLive() {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	s.closed = true
	for conn := range s.live {
		_ = conn.Close()
	}
}

// post hands an event to the loop. It reports false once the loop is gone.
func (s *Session) post(ev event) bool {
	select {
	case <-s.stopped:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.stopped:
		return false
	}
}
