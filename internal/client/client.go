// Package client is the connecting side of the protocol. It owns one server
// connection at a time and fans every received event out to the registered
// listeners.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KDT2006/roguelobby/internal/protocol"
	"github.com/KDT2006/roguelobby/internal/transport"
)

// DisconnectMessage is carried by the synthetic SERVER/disconnect event.
const DisconnectMessage = "The server has disconnected"

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
)

// Listener receives every event from the server, followed by exactly one
// SERVER/disconnect event when the connection ends. Callbacks run on the
// connection's read goroutine.
type Listener interface {
	OnConnectionEvent(ev protocol.Event)
}

type Options struct {
	DialTimeout  time.Duration
	MaxFrameSize uint32
	WriteTimeout time.Duration
	Logger       *zap.Logger

	// Dial opens the server connection. Nil uses a net.Dialer bounded by
	// DialTimeout.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

type Client struct {
	opts Options
	log  *zap.Logger

	mu        sync.Mutex
	conn      *transport.Conn
	listeners []Listener
}

func New(opts Options) *Client {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.Dial == nil {
		dialer := &net.Dialer{Timeout: opts.DialTimeout}
		opts.Dial = dialer.DialContext
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		opts: opts,
		log:  opts.Logger,
	}
}

// Connect dials the server and starts receiving on a background goroutine.
// The client lock is not held while dialing.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	if c.Connected() {
		return ErrAlreadyConnected
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	nc, err := c.opts.Dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	conn := transport.New(nc, transport.HandlerFuncs{
		Message: func(_ *transport.Conn, ev protocol.Event) {
			c.notify(ev)
		},
		Disconnect: func(conn *transport.Conn, err error) {
			c.detach(conn)
			c.notify(protocol.NewEvent(protocol.TargetServer, protocol.VerbDisconnect, map[string]any{
				protocol.ParamMessage: DisconnectMessage,
			}))
		},
	}, transport.Options{
		MaxFrameSize: c.opts.MaxFrameSize,
		WriteTimeout: c.opts.WriteTimeout,
		Logger:       c.log,
	})

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		// Lost a race with a concurrent Connect. This conn never listened,
		// so no disconnect event is emitted for it.
		conn.Close()
		return ErrAlreadyConnected
	}
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("connected to server", zap.String("address", addr))

	go conn.Listen(context.Background())
	return nil
}

func (c *Client) detach(conn *transport.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) Send(ev protocol.Event) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	return conn.Send(ev)
}

// Disconnect closes the connection and waits until listeners have seen the
// SERVER/disconnect event. It must not be called from a listener callback.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	err := conn.Close()
	<-conn.Done()
	return err
}

// AddEventListener registers l. Listeners are compared by identity, so they
// should be pointers.
func (c *Client) AddEventListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(c.listeners, l) {
		c.listeners = append(c.listeners, l)
	}
}

func (c *Client) RemoveEventListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = slices.DeleteFunc(c.listeners, func(x Listener) bool {
		return x == l
	})
}

func (c *Client) notify(ev protocol.Event) {
	c.mu.Lock()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.OnConnectionEvent(ev)
	}
}
