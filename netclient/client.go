package netclient

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/duongdatdev/miniisland-2.0-sub000/logging"
)

const (
	// WebSocket heartbeat settings to detect a dead server
	PING_INTERVAL = 10 * time.Second
	PONG_WAIT     = 60 * time.Second
	WRITE_WAIT    = 10 * time.Second
	SEND_BUFFER   = 256
)

var (
	// ErrClosed is returned by SendMessage once the connection has ended.
	ErrClosed = errors.New("connection closed")
	// ErrBackpressure is returned when the outbound buffer is full. The
	// message is dropped.
	ErrBackpressure = errors.New("send buffer full")
)

// Handler receives one inbound protocol line.
type Handler func(line string)

// Client is the websocket transport to the game server. Inbound frames are
// split into lines and handed to the handler from the read goroutine;
// outbound lines are queued and written by the write goroutine.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	handler Handler
	log     *zap.Logger
}

// Dial connects to url. The connection is idle until Run is called.
func Dial(ctx context.Context, url string, handler Handler, log *zap.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	log = logging.OrNop(log).Named("netclient")
	log.Info("connected", zap.String("url", url))
	return &Client{
		conn:    conn,
		send:    make(chan []byte, SEND_BUFFER),
		done:    make(chan struct{}),
		handler: handler,
		log:     log,
	}, nil
}

// SendMessage queues line for delivery without blocking.
func (c *Client) SendMessage(line string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- []byte(line):
		return nil
	default:
		return ErrBackpressure
	}
}

// Done is closed once the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Run pumps the connection until the server goes away or ctx is cancelled.
// A normal close returns nil.
func (c *Client) Run(ctx context.Context) error {
	var g errgroup.Group
	g.Go(c.readPump)
	g.Go(func() error { return c.writePump(ctx) })
	return g.Wait()
}

func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readPump() error {
	defer func() {
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(PONG_WAIT))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PONG_WAIT))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected close", zap.Error(err))
				select {
				case <-c.done:
					return nil
				default:
					return err
				}
			}
			c.log.Debug("read loop ended", zap.Error(err))
			return nil
		}
		for _, line := range bytes.Split(frame, []byte("\n")) {
			if line = bytes.TrimSpace(line); len(line) > 0 && c.handler != nil {
				c.handler(string(line))
			}
		}
	}
}

func (c *Client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn("write failed", zap.Error(err))
				c.shutdown()
				return err
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Warn("ping failed", zap.Error(err))
				c.shutdown()
				return err
			}

		case <-ctx.Done():
			c.shutdown()
			c.closeNormally()
			return nil

		case <-c.done:
			c.closeNormally()
			return nil
		}
	}
}

func (c *Client) closeNormally() {
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(WRITE_WAIT))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.log.Debug("close frame not sent", zap.Error(err))
	}
}
