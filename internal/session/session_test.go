package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/luxws/internal/locale"
	"github.com/muurk/luxws/internal/protocol"
	"github.com/muurk/luxws/internal/snapshot"
	"github.com/muurk/luxws/internal/units"
)

// fakeDevice answers the controller's commands over a real websocket.
type fakeDevice struct {
	t *testing.T
	// closeAfterContent makes the device end the session cleanly once it
	// has served the content reply.
	closeAfterContent bool

	mu       sync.Mutex
	received []string
	accepted int
}

func (d *fakeDevice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		Subprotocols: []string{protocol.SubProtocol},
		// A small buffer splits the content reply into continuation frames.
		WriteBufferSize: 64,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	d.mu.Lock()
	d.accepted++
	d.mu.Unlock()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		cmd := string(msg)
		d.mu.Lock()
		d.received = append(d.received, cmd)
		d.mu.Unlock()

		switch {
		case cmd == protocol.LoginCommand:
			_ = conn.WriteMessage(websocket.TextMessage, []byte(testNavigation))
		case strings.HasPrefix(cmd, "GET;"):
			w, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write([]byte(testContent))
			_ = w.Close()
			if d.closeAfterContent {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
				return
			}
		case cmd == protocol.RefreshCommand:
			_ = conn.WriteMessage(websocket.TextMessage, []byte(testValues))
		}
	}
}

func (d *fakeDevice) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.received...)
}

func (d *fakeDevice) connections() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestSession(t *testing.T, url string, opts Options) *Session {
	t.Helper()
	opts.URL = url
	opts.Resolver = testRegistry()
	opts.Decoder = units.Converter{Locale: locale.Table{}}
	opts.Store = snapshot.NewStore()
	if opts.PollInterval == 0 {
		opts.PollInterval = 20 * time.Millisecond
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 2 * time.Second
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func runSession(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := s.Shutdown(shutdownCtx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionAgainstDevice(t *testing.T) {
	device := &fakeDevice{t: t}
	srv := httptest.NewServer(device)
	t.Cleanup(srv.Close)

	s := newTestSession(t, wsURL(srv), Options{})
	runSession(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	leaves, _, err := s.Store().Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(leaves) != 2 || leaves[1].Key() != "temperature.return_flow" {
		t.Fatalf("leaves = %+v", leaves)
	}

	waitFor(t, "refresh merge", func() bool {
		l := s.Store().Leaves()
		return len(l) == 2 && l[0].Numeric != nil && *l[0].Numeric == 30.5
	})

	st := s.Status()
	if st.State != StateDataSelected {
		t.Errorf("Status().State = %s, want DATA_SELECTED", st.State)
	}
	if st.Address != "0x44fdcc" || st.ConnectionID == "" {
		t.Errorf("Status() = %+v", st)
	}

	cmds := device.commands()
	if len(cmds) < 3 || cmds[0] != "LOGIN;0" || cmds[1] != "GET;0x44fdcc" {
		t.Errorf("device received %v", cmds)
	}
}

func TestSessionReconnectsAfterCleanClose(t *testing.T) {
	device := &fakeDevice{t: t, closeAfterContent: true}
	srv := httptest.NewServer(device)
	t.Cleanup(srv.Close)

	s := newTestSession(t, wsURL(srv), Options{})
	runSession(t, s)

	waitFor(t, "second connection", func() bool { return device.connections() >= 2 })
	waitFor(t, "clean close recorded", func() bool { return s.Status().Counters.CleanCloses >= 1 })

	if st := s.Status(); st.Errors != 0 {
		t.Errorf("clean closes counted as errors: %+v", st)
	}
	if !s.Store().HasData() {
		t.Error("no snapshot published")
	}
}

func TestSessionEntersErrorState(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	s := newTestSession(t, wsURL(srv), Options{
		PollInterval:   5 * time.Millisecond,
		ErrorThreshold: 2,
		ErrorCooldown:  1000,
	})
	runSession(t, s)

	waitFor(t, "error state", func() bool { return s.Status().State == StateError })

	st := s.Status()
	if st.Counters.DialFailures != 2 {
		t.Errorf("dial failures = %d, want 2", st.Counters.DialFailures)
	}
	if !strings.Contains(st.LastError, "dial") {
		t.Errorf("LastError = %q", st.LastError)
	}
}

func TestWebsocketDialerBadHandshake(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := WebsocketDialer{HandshakeTimeout: time.Second}.Dial(context.Background(), wsURL(srv))
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Dial() error = %v, want TransportError", err)
	}
	if te.Op != "dial" || te.Retryable || IsRetryable(err) {
		t.Errorf("TransportError = %+v", te)
	}
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Error("TransportError should unwrap to ErrBadHandshake")
	}
}

// slowDialer ignores its context and only returns once released.
type slowDialer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *slowDialer) Dial(context.Context, string) (Conn, error) {
	d.once.Do(func() { close(d.started) })
	<-d.release
	return newBlockingConn(), nil
}

// blockingConn delivers nothing until it is closed.
type blockingConn struct {
	done chan struct{}
	once sync.Once
}

func newBlockingConn() *blockingConn {
	return &blockingConn{done: make(chan struct{})}
}

func (c *blockingConn) ID() string { return "blocking" }

func (c *blockingConn) Send(string) error { return nil }

func (c *blockingConn) Receive(func([]byte)) error {
	<-c.done
	return nil
}

func (c *blockingConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func TestSessionShutdownDuringDial(t *testing.T) {
	for i := 0; i < 20; i++ {
		dialer := &slowDialer{started: make(chan struct{}), release: make(chan struct{})}
		s := newTestSession(t, "ws://127.0.0.1:1", Options{Dialer: dialer})

		done := make(chan error, 1)
		go func() { done <- s.Run(context.Background()) }()
		<-dialer.started

		go func() { _ = s.Shutdown(context.Background()) }()
		close(dialer.release)

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("Run did not return after shutdown (iteration %d)", i)
		}
	}
}

func TestSessionShutdownClosesOpenConnection(t *testing.T) {
	dialer := &slowDialer{started: make(chan struct{}), release: make(chan struct{})}
	close(dialer.release)
	s := newTestSession(t, "ws://127.0.0.1:1", Options{Dialer: dialer})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	waitFor(t, "open connection", func() bool { return s.Status().State == StateOpen })

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

func TestSessionShutdownBeforeRun(t *testing.T) {
	s := newTestSession(t, "ws://127.0.0.1:1", Options{})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Errorf("Run() after Shutdown error = %v", err)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() without URL should fail")
	}
	if _, err := New(Options{URL: "ws://x"}); err == nil {
		t.Error("New() without collaborators should fail")
	}
}

func TestStateString(t *testing.T) {
	want := []string{"NEW", "OPEN", "LOGGED_IN", "DATA_SELECTED", "ERROR"}
	for i, w := range want {
		if got := State(i).String(); got != w {
			t.Errorf("State(%d) = %s, want %s", i, got, w)
		}
	}
}
