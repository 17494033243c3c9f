// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/pharmanity/event-store-client/log"
)

// Handler receives the events of a Conn.
// HandleFrame is called from the reader goroutine in arrival order.
// HandleClosed is called exactly once, after which no frame is delivered.
type Handler interface {
	HandleFrame(conn *Conn, frame *Frame)
	HandleClosed(conn *Conn, err error)
}

// Conn is a framed connection to a single node.
// Frames are written in enqueue order by a dedicated writer goroutine and read
// by a dedicated reader goroutine. Conn is safe for concurrent use.
type Conn struct {
	id         uuid.UUID
	generation uint64
	remote     string
	raw        net.Conn
	handler    Handler
	logger     log.Logger
	decoder    *Decoder

	outbound  *queue.Queue
	received  *atomic.Uint64
	closed    *atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ConnOption configures Dial
type ConnOption func(*connConfig)

type connConfig struct {
	dialTimeout  time.Duration
	keepAlive    time.Duration
	tlsConfig    *tls.Config
	maxFrameSize int
	logger       log.Logger
}

// WithDialTimeout bounds the TCP handshake
func WithDialTimeout(timeout time.Duration) ConnOption {
	return func(c *connConfig) { c.dialTimeout = timeout }
}

// WithKeepAlive sets the TCP keep-alive period
func WithKeepAlive(period time.Duration) ConnOption {
	return func(c *connConfig) { c.keepAlive = period }
}

// WithTLS wraps the connection with TLS
func WithTLS(config *tls.Config) ConnOption {
	return func(c *connConfig) { c.tlsConfig = config }
}

// WithMaxFrameSize overrides MaxFrameSize for inbound frames
func WithMaxFrameSize(size int) ConnOption {
	return func(c *connConfig) { c.maxFrameSize = size }
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) ConnOption {
	return func(c *connConfig) { c.logger = logger }
}

// Dial connects to address and starts the reader and writer goroutines.
// The generation is an opaque number the caller uses to tell successive
// connections apart.
func Dial(ctx context.Context, address string, generation uint64, handler Handler, opts ...ConnOption) (*Conn, error) {
	config := &connConfig{
		dialTimeout:  time.Second,
		keepAlive:    15 * time.Second,
		maxFrameSize: MaxFrameSize,
		logger:       log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(config)
	}

	dialer := net.Dialer{
		Timeout:   config.dialTimeout,
		KeepAlive: config.keepAlive,
	}

	raw, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	if tcpConn, ok := raw.(*net.TCPConn); ok {
		// the protocol is chatty and latency bound
		_ = tcpConn.SetNoDelay(true)
	}

	if config.tlsConfig != nil {
		tlsConn := tls.Client(raw, config.tlsConfig)
		handshakeCtx, cancel := context.WithTimeout(ctx, config.dialTimeout)
		err := tlsConn.HandshakeContext(handshakeCtx)
		cancel()
		if err != nil {
			// Close error intentionally ignored, the handshake error is what matters
			_ = raw.Close()
			return nil, err
		}
		raw = tlsConn
	}

	return newConn(raw, address, generation, handler, config), nil
}

func newConn(raw net.Conn, address string, generation uint64, handler Handler, config *connConfig) *Conn {
	conn := &Conn{
		id:         uuid.New(),
		generation: generation,
		remote:     address,
		raw:        raw,
		handler:    handler,
		logger:     config.logger,
		decoder:    NewDecoder(config.maxFrameSize),
		outbound:   queue.New(64),
		received:   atomic.NewUint64(0),
		closed:     atomic.NewBool(false),
	}

	conn.wg.Add(2)
	go conn.readLoop()
	go conn.writeLoop()
	return conn
}

// ID returns the unique connection id
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// Generation returns the generation given at Dial time
func (c *Conn) Generation() uint64 {
	return c.generation
}

// RemoteAddress returns the address the connection was dialed to
func (c *Conn) RemoteAddress() string {
	return c.remote
}

// ReceivedFrames returns the number of frames read so far
func (c *Conn) ReceivedFrames() uint64 {
	return c.received.Load()
}

// IsClosed reports whether the connection is closed
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Enqueue schedules a frame for writing. Frames are written in call order.
func (c *Conn) Enqueue(frame *Frame) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	bytea, err := frame.Encode()
	if err != nil {
		return err
	}

	if err := c.outbound.Put(bytea); err != nil {
		return ErrConnClosed
	}
	return nil
}

// Close closes the connection and waits for its goroutines to exit.
// The handler is notified with a nil error.
func (c *Conn) Close() error {
	c.close(nil)
	c.wg.Wait()
	return nil
}

func (c *Conn) close(reason error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		// Close error intentionally ignored, the socket is being torn down
		_ = c.raw.Close()
		c.outbound.Dispose()
		if reason != nil {
			c.logger.Debugf("connection %s to %s closed: %v", c.id, c.remote, reason)
		}
		c.handler.HandleClosed(c, reason)
	})
}

func (c *Conn) readLoop() {
	defer c.wg.Done()

	chunk := make([]byte, 64<<10)
	for {
		n, err := c.raw.Read(chunk)
		if n > 0 {
			c.decoder.Feed(chunk[:n])
			if derr := c.dispatch(); derr != nil {
				c.close(derr)
				return
			}
		}

		if err != nil {
			if c.closed.Load() {
				return
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			c.close(err)
			return
		}
	}
}

func (c *Conn) dispatch() error {
	for {
		frame, err := c.decoder.Next()
		if err != nil {
			if errors.Is(err, ErrNeedMoreBytes) {
				return nil
			}
			return err
		}

		if c.closed.Load() {
			return nil
		}

		c.received.Inc()
		c.handler.HandleFrame(c, frame)
	}
}

func (c *Conn) writeLoop() {
	defer c.wg.Done()

	for {
		items, err := c.outbound.Get(64)
		if err != nil {
			// queue disposed
			return
		}

		buffers := make(net.Buffers, 0, len(items))
		for _, item := range items {
			buffers = append(buffers, item.([]byte))
		}

		if _, err := buffers.WriteTo(c.raw); err != nil {
			c.close(err)
			return
		}
	}
}
