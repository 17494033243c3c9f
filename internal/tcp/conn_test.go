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
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.uber.org/goleak"

	"github.com/pharmanity/event-store-client/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingHandler struct {
	mu       sync.Mutex
	frames   []*Frame
	closed   chan error
	received chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		closed:   make(chan error, 1),
		received: make(chan struct{}, 128),
	}
}

func (h *recordingHandler) HandleFrame(_ *Conn, frame *Frame) {
	h.mu.Lock()
	h.frames = append(h.frames, frame)
	h.mu.Unlock()
	h.received <- struct{}{}
}

func (h *recordingHandler) HandleClosed(_ *Conn, err error) {
	h.closed <- err
}

func (h *recordingHandler) snapshot() []*Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Frame, len(h.frames))
	copy(out, h.frames)
	return out
}

// echoServer writes back every frame it reads
func echoServer(t *testing.T) (string, func()) {
	t.Helper()
	port := dynaport.Get(1)[0]
	address := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	listener, err := net.Listen("tcp", address)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		decoder := NewDecoder(0)
		chunk := make([]byte, 1024)
		for {
			n, err := conn.Read(chunk)
			if err != nil {
				return
			}
			decoder.Feed(chunk[:n])
			for {
				frame, err := decoder.Next()
				if err != nil {
					break
				}
				bytea, _ := frame.Encode()
				if _, err := conn.Write(bytea); err != nil {
					return
				}
			}
		}
	}()

	return address, func() {
		_ = listener.Close()
		wg.Wait()
	}
}

func TestConn(t *testing.T) {
	t.Run("frames are written and read in order", func(t *testing.T) {
		address, stop := echoServer(t)
		defer stop()

		handler := newRecordingHandler()
		conn, err := Dial(context.Background(), address, 3, handler, WithDialTimeout(time.Second))
		require.NoError(t, err)
		assert.EqualValues(t, 3, conn.Generation())
		assert.Equal(t, address, conn.RemoteAddress())

		ids := make([]uuid.UUID, 10)
		for i := range ids {
			ids[i] = uuid.New()
			require.NoError(t, conn.Enqueue(NewFrame(Ping, ids[i], []byte{byte(i)})))
		}

		for range ids {
			select {
			case <-handler.received:
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for echoed frames")
			}
		}

		frames := handler.snapshot()
		require.Len(t, frames, len(ids))
		for i, frame := range frames {
			assert.Equal(t, ids[i], frame.CorrelationID)
		}
		assert.EqualValues(t, len(ids), conn.ReceivedFrames())

		require.NoError(t, conn.Close())
		assert.True(t, conn.IsClosed())
		assert.NoError(t, <-handler.closed)
		assert.ErrorIs(t, conn.Enqueue(NewFrame(Ping, uuid.New(), nil)), ErrConnClosed)
	})
	t.Run("remote close is reported once", func(t *testing.T) {
		client, server := net.Pipe()
		handler := newRecordingHandler()
		conn := newConn(client, "pipe", 1, handler, &connConfig{maxFrameSize: MaxFrameSize, logger: discard()})

		require.NoError(t, server.Close())
		select {
		case err := <-handler.closed:
			assert.Error(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("close was not reported")
		}
		require.NoError(t, conn.Close())
		assert.Empty(t, handler.closed)
	})
	t.Run("garbage closes the connection", func(t *testing.T) {
		client, server := net.Pipe()
		handler := newRecordingHandler()
		conn := newConn(client, "pipe", 1, handler, &connConfig{maxFrameSize: 1024, logger: discard()})

		go func() {
			_, _ = server.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
		}()

		select {
		case err := <-handler.closed:
			assert.Error(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("close was not reported")
		}
		require.NoError(t, conn.Close())
		_ = server.Close()
	})
	t.Run("dial failure", func(t *testing.T) {
		port := dynaport.Get(1)[0]
		_, err := Dial(context.Background(), net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 1, newRecordingHandler(),
			WithDialTimeout(200*time.Millisecond))
		assert.Error(t, err)
	})
}

func discard() log.Logger {
	return log.DiscardLogger
}
