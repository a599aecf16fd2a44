package nats

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNotConnected is returned by request-style calls made while offline.
var ErrNotConnected = errors.New("nats client not connected")

// Client is used by processes that report status to statusled or send it
// LED commands. Status publishing degrades to a no-op when NATS is down.
type Client struct {
	url       string
	name      string
	conn      *nats.Conn
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
}

// NewClient creates a client. name identifies the connection on the server.
func NewClient(url, name string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		url:    url,
		name:   name,
		logger: logger.With("component", "nats-client", "client", name),
	}
}

// Connect establishes a connection to the NATS server. On failure the client
// stays usable in offline mode.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := []nats.Option{
		nats.Name("statusled-" + c.name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.setConnected(false)
			if err != nil {
				c.logger.Warn("NATS disconnected", "error", err)
			} else {
				c.logger.Debug("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.setConnected(true)
			c.logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		c.logger.Warn("Failed to connect to NATS, running in offline mode", "error", err)
		return err
	}

	c.conn = conn
	c.connected = true
	c.logger.Info("Connected to NATS", "url", c.url)
	return nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) current() *nats.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || !c.connected {
		return nil
	}
	return c.conn
}

// PublishStatus reports a status for source. No-op when offline.
func (c *Client) PublishStatus(source, status string) {
	conn := c.current()
	if conn == nil {
		return
	}

	data, err := StatusMessage{
		Source:    source,
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
	}.Marshal()
	if err != nil {
		c.logger.Warn("Failed to marshal status", "error", err)
		return
	}

	if err := conn.Publish(SubjectStatus(source), data); err != nil {
		c.logger.Warn("Failed to publish status", "error", err)
	}
}

// Control sends a command to an LED and waits for the reply.
func (c *Client) Control(ctx context.Context, ledName string, m ControlMessage) (ControlReply, error) {
	conn := c.current()
	if conn == nil {
		return ControlReply{}, ErrNotConnected
	}

	if m.Timestamp == "" {
		m.Timestamp = time.Now().Format(time.RFC3339)
	}
	data, err := m.Marshal()
	if err != nil {
		return ControlReply{}, err
	}

	msg, err := conn.RequestWithContext(ctx, SubjectControl(ledName), data)
	if err != nil {
		return ControlReply{}, err
	}
	return UnmarshalControlReply(msg.Data)
}

// SubscribeLEDStates calls fn for every LED state change published by the
// daemon. ledName "*" matches all LEDs.
func (c *Client) SubscribeLEDStates(ledName string, fn func(LEDStateMessage)) (func(), error) {
	conn := c.current()
	if conn == nil {
		return nil, ErrNotConnected
	}

	sub, err := conn.Subscribe(SubjectLEDState(ledName), func(msg *nats.Msg) {
		m, err := UnmarshalLEDState(msg.Data)
		if err != nil {
			c.logger.Warn("Failed to unmarshal LED state", "error", err, "subject", msg.Subject)
			return
		}
		fn(m)
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Flush waits until buffered publishes reached the server.
func (c *Client) Flush() error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Flush()
}

// IsConnected reports whether the client is connected to NATS.
func (c *Client) IsConnected() bool {
	return c.current() != nil
}

// Close closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.logger.Debug("NATS client closed")
}
