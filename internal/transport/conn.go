package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/KDT2006/roguelobby/internal/protocol"
)

const (
	DefaultWriteTimeout = 10 * time.Second
	DefaultMaxMalformed = 3
)

var ErrAlreadyListening = errors.New("connection is already listening")

type State int32

const (
	StateConnecting State = iota
	StateListening
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Handler receives the events decoded by a Conn. OnMessage is called from the
// connection's own read goroutine, one event at a time, in wire order.
// OnDisconnect is called exactly once when the read loop ends, before the
// socket is released; err is nil when the peer or the local side closed the
// connection normally.
type Handler interface {
	OnMessage(c *Conn, ev protocol.Event)
	OnDisconnect(c *Conn, err error)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Message    func(c *Conn, ev protocol.Event)
	Disconnect func(c *Conn, err error)
}

func (h HandlerFuncs) OnMessage(c *Conn, ev protocol.Event) {
	if h.Message != nil {
		h.Message(c, ev)
	}
}

func (h HandlerFuncs) OnDisconnect(c *Conn, err error) {
	if h.Disconnect != nil {
		h.Disconnect(c, err)
	}
}

type Options struct {
	// MaxFrameSize bounds inbound and outbound payloads. Zero selects
	// protocol.DefaultMaxFrameSize.
	MaxFrameSize uint32
	// WriteTimeout is applied to every Send. Negative disables it.
	WriteTimeout time.Duration
	// MaxMalformed is the number of consecutive undecodable frames after
	// which the connection is dropped.
	MaxMalformed int
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout == 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.MaxMalformed <= 0 {
		o.MaxMalformed = DefaultMaxMalformed
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Conn owns one peer connection: it runs the blocking receive loop and
// serializes outbound frames.
type Conn struct {
	conn    net.Conn
	handler Handler
	opts    Options
	log     *zap.Logger

	writeMu sync.Mutex

	state     atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	causeMu sync.Mutex
	cause   error
}

func New(conn net.Conn, h Handler, opts Options) *Conn {
	opts = opts.withDefaults()
	return &Conn{
		conn:    conn,
		handler: h,
		opts:    opts,
		log:     opts.Logger.With(zap.String("remote", conn.RemoteAddr().String())),
		done:    make(chan struct{}),
	}
}

func (c *Conn) State() State {
	return State(c.state.Load())
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Done is closed once the read loop has exited and OnDisconnect returned.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Listen runs the receive loop until the connection closes or fails. It
// blocks; run it on its own goroutine. Cancelling ctx closes the connection.
func (c *Conn) Listen(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateListening)) {
		return ErrAlreadyListening
	}

	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	err := c.readLoop()
	if cause := c.failure(); cause != nil {
		err = cause
	}

	if err == nil || errors.Is(err, protocol.ErrConnectionClosed) {
		c.state.Store(int32(StateClosed))
		c.log.Debug("connection closed")
		err = nil
	} else {
		c.state.Store(int32(StateErrored))
		c.log.Warn("connection dropped", zap.Error(err))
	}

	c.handler.OnDisconnect(c, err)
	c.Close()
	close(c.done)

	return err
}

func (c *Conn) readLoop() error {
	malformed := 0

	for {
		payload, err := protocol.ReadFrame(c.conn, c.opts.MaxFrameSize)
		if err != nil {
			return err
		}

		ev, err := protocol.Decode(payload)
		if err != nil {
			malformed++
			c.log.Warn("dropping malformed frame", zap.Int("consecutive", malformed), zap.Error(err))
			if malformed >= c.opts.MaxMalformed {
				return fmt.Errorf("%d consecutive malformed frames: %w", malformed, err)
			}
			continue
		}
		malformed = 0

		c.handler.OnMessage(c, ev)
	}
}

// Send encodes ev and writes it as one frame. It is safe to call from any
// goroutine. A failed write closes the connection, which ends the read loop
// and triggers OnDisconnect.
func (c *Conn) Send(ev protocol.Event) error {
	data, err := protocol.Encode(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("send %s/%s: %w", ev.Target, ev.Verb, protocol.ErrConnectionClosed)
	}

	if c.opts.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			c.fail(err)
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	if err := protocol.WriteFrame(c.conn, data, c.opts.MaxFrameSize); err != nil {
		if errors.Is(err, protocol.ErrFrameTooLarge) {
			return err
		}
		c.fail(err)
		return err
	}
	return nil
}

// Close releases the socket. It is idempotent and unblocks a pending read.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return
}

func (c *Conn) fail(err error) {
	c.causeMu.Lock()
	if c.cause == nil {
		c.cause = err
	}
	c.causeMu.Unlock()

	c.log.Debug("write failed, closing connection", zap.Error(err))
	c.Close()
}

func (c *Conn) failure() error {
	c.causeMu.Lock()
	defer c.causeMu.Unlock()
	return c.cause
}
