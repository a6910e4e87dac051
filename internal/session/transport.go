package session

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum size of a reassembled message from the controller
	maxMessageSize = 4 << 20
)

// Conn is an open connection to the controller.
type Conn interface {
	// ID identifies the connection in logs and status output.
	ID() string
	// Send writes a text command. It waits for the write to complete, bounded
	// by a deadline, and never for a reply.
	Send(text string) error
	// Receive delivers every complete message to handle until the
	// connection ends. It returns nil when the peer closed cleanly.
	Receive(handle func(body []byte)) error
	// Close aborts the connection. It is safe to call concurrently with
	// Send and Receive, and more than once.
	Close() error
}

// Dialer opens connections to the controller.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials the controller's websocket with the Lux_WS
// sub-protocol.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

// Dial connects to url.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
		Subprotocols:     []string{protocol.SubProtocol},
	}

	logging.LogConnection(url, "dialing")
	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, newTransportError("dial", url, err)
	}
	ws.SetReadLimit(maxMessageSize)

	c := &wsConn{
		ws:   ws,
		id:   uuid.NewString(),
		addr: url,
	}
	if sp := ws.Subprotocol(); sp != protocol.SubProtocol {
		logging.Warn("Controller did not confirm sub-protocol",
			zap.String("conn_id", c.id),
			zap.String("subprotocol", sp),
		)
	}
	logging.Info("Connected to controller",
		zap.String("remote_addr", url),
		zap.String("conn_id", c.id),
	)
	return c, nil
}

type wsConn struct {
	ws   *websocket.Conn
	id   string
	addr string

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return newTransportError("write", c.addr, err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return newTransportError("write", c.addr, err)
	}
	logging.LogWebSocketMessage(c.addr, "sent", websocket.TextMessage, []byte(text))
	return nil
}

// Receive reads whole messages; continuation frames are joined by the
// websocket reader before handle sees the body.
func (c *wsConn) Receive(handle func(body []byte)) error {
	for {
		messageType, r, err := c.ws.NextReader()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.LogConnection(c.addr, "closed_by_peer")
				return nil
			}
			return newTransportError("read", c.addr, err)
		}

		body, err := io.ReadAll(r)
		if err != nil {
			return newTransportError("read", c.addr, err)
		}
		logging.LogWebSocketMessage(c.addr, "received", messageType, body)

		if messageType != websocket.TextMessage {
			continue
		}
		handle(body)
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.closeErr = c.ws.Close()
		logging.LogConnection(c.addr, "closed")
	})
	return c.closeErr
}
