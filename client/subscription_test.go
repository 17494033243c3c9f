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

package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/messages"
	"github.com/pharmanity/event-store-client/internal/tcp"
)

func TestVolatileSubscription(t *testing.T) {
	t.Run("With confirmation, events and unsubscribe", func(t *testing.T) {
		records := []*messages.EventRecord{eventRecord("orders", 11), eventRecord("orders", 12)}
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command != tcp.SubscribeToStream {
				return
			}
			conn.send(subscriptionConfirmed(frame.CorrelationID))
			for _, record := range records {
				conn.send(streamEventAppeared(frame.CorrelationID, record))
			}
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.SubscribeToStream(context.Background(), "orders", true, handler, nil)
		confirmed, err := await(t, sub.Future())
		require.NoError(t, err)
		assert.Same(t, sub, confirmed)
		assert.EqualValues(t, 10, sub.LastEventNumber())
		assert.EqualValues(t, 100, sub.LastCommitPosition())
		assert.Equal(t, "orders", sub.StreamID())
		assert.False(t, sub.IsSubscribedToAll())

		subscribe := server.nextOf(t, tcp.SubscribeToStream, time.Second)
		request := new(messages.SubscribeToStream)
		require.NoError(t, request.Unmarshal(subscribe.Payload))
		assert.Equal(t, "orders", request.EventStreamID)
		assert.True(t, request.ResolveLinkTos)

		waitConfirmed(t, handler)
		first := handler.nextEvent(t)
		second := handler.nextEvent(t)
		assert.Equal(t, records[0].EventID, first.OriginalEventID())
		assert.Equal(t, records[1].EventID, second.OriginalEventID())
		require.NotNil(t, first.OriginalPosition)
		assert.EqualValues(t, 200, first.OriginalPosition.CommitPosition)

		sub.Unsubscribe()
		waitDropped(t, sub)
		reason, err := handler.dropped()
		assert.Equal(t, UserInitiated, reason)
		assert.NoError(t, err)
		assert.True(t, sub.IsDropped())

		unsubscribe := server.nextOf(t, tcp.UnsubscribeFromStream, time.Second)
		assert.Equal(t, subscribe.CorrelationID, unsubscribe.CorrelationID)
	})
	t.Run("With all streams", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command == tcp.SubscribeToStream {
				conn.send(subscriptionConfirmed(frame.CorrelationID))
			}
		})
		conn := connect(t, server)

		sub := conn.SubscribeToAll(context.Background(), false, HandlerFuncs{}, nil)
		_, err := await(t, sub.Future())
		require.NoError(t, err)
		assert.True(t, sub.IsSubscribedToAll())

		request := new(messages.SubscribeToStream)
		require.NoError(t, request.Unmarshal(server.nextOf(t, tcp.SubscribeToStream, time.Second).Payload))
		assert.Empty(t, request.EventStreamID)
	})
	t.Run("With the connection lost", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command == tcp.SubscribeToStream {
				conn.send(subscriptionConfirmed(frame.CorrelationID))
			}
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.SubscribeToStream(context.Background(), "orders", false, handler, nil)
		_, err := await(t, sub.Future())
		require.NoError(t, err)

		server.dropConnections()
		waitDropped(t, sub)
		reason, err := handler.dropped()
		assert.Equal(t, ConnectionClosed, reason)
		assert.ErrorIs(t, err, eserrors.ErrConnectionClosed)
	})
	t.Run("With a drop from the server", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command == tcp.SubscribeToStream {
				dto := &messages.SubscriptionDropped{Reason: messages.DropAccessDenied}
				conn.send(tcp.NewFrame(tcp.SubscriptionDropped, frame.CorrelationID, dto.Marshal()))
			}
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.SubscribeToStream(context.Background(), "$secret", false, handler, nil)
		_, err := await(t, sub.Future())
		var dropped *SubscriptionDroppedError
		require.ErrorAs(t, err, &dropped)
		assert.Equal(t, AccessDenied, dropped.Reason)

		waitDropped(t, sub)
		reason, err := handler.dropped()
		assert.Equal(t, AccessDenied, reason)
		var denied *eserrors.AccessDeniedError
		assert.ErrorAs(t, err, &denied)
	})
	t.Run("With a processing queue overflow", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command != tcp.SubscribeToStream {
				return
			}
			conn.send(subscriptionConfirmed(frame.CorrelationID))
			for i := 0; i < 10; i++ {
				conn.send(streamEventAppeared(frame.CorrelationID, eventRecord("orders", int64(i))))
			}
		})
		conn := connect(t, server, WithSubscriptionQueueSize(2))

		release := make(chan struct{})
		handler := newRecordingHandler()
		handler.onEvent = func(ResolvedEvent) error {
			<-release
			return nil
		}

		sub := conn.SubscribeToStream(context.Background(), "orders", false, handler, nil)
		require.Eventually(t, sub.IsDropped, 5*time.Second, 10*time.Millisecond)
		close(release)

		waitDropped(t, sub)
		reason, _ := handler.dropped()
		assert.Equal(t, ProcessingQueueOverflow, reason)
		server.nextOf(t, tcp.UnsubscribeFromStream, time.Second)
	})
	t.Run("With a failing handler", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command != tcp.SubscribeToStream {
				return
			}
			conn.send(subscriptionConfirmed(frame.CorrelationID))
			conn.send(streamEventAppeared(frame.CorrelationID, eventRecord("orders", 0)))
			conn.send(streamEventAppeared(frame.CorrelationID, eventRecord("orders", 1)))
		})
		conn := connect(t, server)

		boom := errors.New("boom")
		handler := newRecordingHandler()
		handler.onEvent = func(ResolvedEvent) error { return boom }

		sub := conn.SubscribeToStream(context.Background(), "orders", false, handler, nil)
		waitDropped(t, sub)
		reason, err := handler.dropped()
		assert.Equal(t, EventHandlerException, reason)
		assert.ErrorIs(t, err, boom)

		handler.mu.Lock()
		assert.Len(t, handler.events, 1)
		handler.mu.Unlock()
		server.nextOf(t, tcp.UnsubscribeFromStream, time.Second)
	})
	t.Run("With invalid arguments", func(t *testing.T) {
		server := newFakeServer(t, nil)
		conn := connect(t, server)

		sub := conn.SubscribeToStream(context.Background(), "", false, HandlerFuncs{}, nil)
		_, err := await(t, sub.Future())
		require.ErrorIs(t, err, eserrors.ErrInvalidArgument)
		waitDropped(t, sub)

		sub = conn.SubscribeToStream(context.Background(), "orders", false, nil, nil)
		_, err = await(t, sub.Future())
		require.ErrorIs(t, err, eserrors.ErrInvalidArgument)
	})
	t.Run("With the connection closed", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command == tcp.SubscribeToStream {
				conn.send(subscriptionConfirmed(frame.CorrelationID))
			}
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.SubscribeToStream(context.Background(), "orders", false, handler, nil)
		_, err := await(t, sub.Future())
		require.NoError(t, err)

		conn.Close()
		waitDropped(t, sub)
		reason, err := handler.dropped()
		assert.Equal(t, ConnectionClosed, reason)
		assert.ErrorIs(t, err, eserrors.ErrConnectionClosed)

		late := conn.SubscribeToStream(context.Background(), "orders", false, HandlerFuncs{}, nil)
		_, err = await(t, late.Future())
		require.ErrorIs(t, err, eserrors.ErrConnectionClosed)
	})
}

func TestPersistentSubscription(t *testing.T) {
	t.Run("With redelivery after reconnect", func(t *testing.T) {
		record := eventRecord("orders", 3)
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command != tcp.ConnectToPersistentSubscription {
				return
			}
			conn.send(persistentConfirmed(frame.CorrelationID, "orders::billing"))
			conn.send(persistentEventAppeared(frame.CorrelationID, record, int32(conn.index-1)))
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.ConnectToPersistentSubscription(context.Background(), "orders", "billing", handler, 10, false, nil)
		confirmed, err := await(t, sub.Future())
		require.NoError(t, err)
		assert.Same(t, sub, confirmed)
		assert.Equal(t, "orders::billing", sub.SubscriptionID())
		assert.Equal(t, "billing", sub.GroupName())

		request := new(messages.ConnectToPersistentSubscription)
		require.NoError(t, request.Unmarshal(server.nextOf(t, tcp.ConnectToPersistentSubscription, time.Second).Payload))
		assert.Equal(t, "billing", request.SubscriptionID)
		assert.Equal(t, "orders", request.EventStreamID)
		assert.EqualValues(t, 10, request.AllowedInFlightMessages)

		first := handler.nextEvent(t)
		assert.Equal(t, record.EventID, first.OriginalEventID())
		assert.EqualValues(t, 0, first.RetryCount)

		server.dropConnections()

		second := handler.nextEvent(t)
		assert.Equal(t, record.EventID, second.OriginalEventID())
		assert.EqualValues(t, 1, second.RetryCount)
		assert.False(t, sub.IsDropped())

		require.NoError(t, sub.Acknowledge(second))
		ack := new(messages.PersistentSubscriptionAckEvents)
		require.NoError(t, ack.Unmarshal(server.nextOf(t, tcp.PersistentSubscriptionAckEvents, time.Second).Payload))
		assert.Equal(t, []uuid.UUID{record.EventID}, ack.ProcessedEventIDs)
	})
	t.Run("With acknowledgements split in batches", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command == tcp.ConnectToPersistentSubscription {
				conn.send(persistentConfirmed(frame.CorrelationID, "orders::billing"))
			}
		})
		conn := connect(t, server)

		sub := conn.ConnectToPersistentSubscription(context.Background(), "orders", "billing", HandlerFuncs{}, 10, false, nil)
		_, err := await(t, sub.Future())
		require.NoError(t, err)

		ids := make([]uuid.UUID, 4500)
		for i := range ids {
			ids[i] = uuid.New()
		}
		require.NoError(t, sub.AcknowledgeIDs(ids...))

		var sizes []int
		var acked []uuid.UUID
		for len(acked) < len(ids) {
			ack := new(messages.PersistentSubscriptionAckEvents)
			require.NoError(t, ack.Unmarshal(server.nextOf(t, tcp.PersistentSubscriptionAckEvents, 2*time.Second).Payload))
			assert.Equal(t, "orders::billing", ack.SubscriptionID)
			sizes = append(sizes, len(ack.ProcessedEventIDs))
			acked = append(acked, ack.ProcessedEventIDs...)
		}
		assert.Equal(t, []int{2000, 2000, 500}, sizes)
		assert.Equal(t, ids, acked)
	})
	t.Run("With auto ack", func(t *testing.T) {
		records := []*messages.EventRecord{eventRecord("orders", 0), eventRecord("orders", 1)}
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command != tcp.ConnectToPersistentSubscription {
				return
			}
			conn.send(persistentConfirmed(frame.CorrelationID, "orders::billing"))
			for _, record := range records {
				conn.send(persistentEventAppeared(frame.CorrelationID, record, 0))
			}
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.ConnectToPersistentSubscription(context.Background(), "orders", "billing", handler, 10, true, nil)
		_, err := await(t, sub.Future())
		require.NoError(t, err)

		for _, record := range records {
			ack := new(messages.PersistentSubscriptionAckEvents)
			require.NoError(t, ack.Unmarshal(server.nextOf(t, tcp.PersistentSubscriptionAckEvents, 2*time.Second).Payload))
			assert.Equal(t, []uuid.UUID{record.EventID}, ack.ProcessedEventIDs)
		}
	})
	t.Run("With a nak", func(t *testing.T) {
		record := eventRecord("orders", 0)
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command != tcp.ConnectToPersistentSubscription {
				return
			}
			conn.send(persistentConfirmed(frame.CorrelationID, "orders::billing"))
			conn.send(persistentEventAppeared(frame.CorrelationID, record, 0))
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.ConnectToPersistentSubscription(context.Background(), "orders", "billing", handler, 10, false, nil)
		event := handler.nextEvent(t)
		require.NoError(t, sub.Fail([]ResolvedEvent{event}, NakPark, "poison"))

		nak := new(messages.PersistentSubscriptionNakEvents)
		require.NoError(t, nak.Unmarshal(server.nextOf(t, tcp.PersistentSubscriptionNakEvents, 2*time.Second).Payload))
		assert.Equal(t, []uuid.UUID{record.EventID}, nak.ProcessedEventIDs)
		assert.Equal(t, messages.NakPark, nak.Action)
		assert.Equal(t, "poison", nak.Message)
	})
	t.Run("With the credit exhausted", func(t *testing.T) {
		records := []*messages.EventRecord{eventRecord("orders", 0), eventRecord("orders", 1), eventRecord("orders", 2)}
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command != tcp.ConnectToPersistentSubscription {
				return
			}
			conn.send(persistentConfirmed(frame.CorrelationID, "orders::billing"))
			for _, record := range records {
				conn.send(persistentEventAppeared(frame.CorrelationID, record, 0))
			}
		})
		conn := connect(t, server)
		handler := newRecordingHandler()

		sub := conn.ConnectToPersistentSubscription(context.Background(), "orders", "billing", handler, 2, false, nil)
		first := handler.nextEvent(t)
		handler.nextEvent(t)

		select {
		case <-handler.received:
			require.FailNow(t, "event delivered beyond the buffer size")
		case <-time.After(200 * time.Millisecond):
		}

		require.NoError(t, sub.Acknowledge(first))
		third := handler.nextEvent(t)
		assert.Equal(t, records[2].EventID, third.OriginalEventID())
	})
	t.Run("With acknowledgement after drop", func(t *testing.T) {
		server := newFakeServer(t, func(conn *serverConn, frame *tcp.Frame) {
			if frame.Command == tcp.ConnectToPersistentSubscription {
				conn.send(persistentConfirmed(frame.CorrelationID, "orders::billing"))
			}
		})
		conn := connect(t, server)

		sub := conn.ConnectToPersistentSubscription(context.Background(), "orders", "billing", HandlerFuncs{}, 10, false, nil)
		_, err := await(t, sub.Future())
		require.NoError(t, err)

		sub.Unsubscribe()
		waitDropped(t, sub)
		require.ErrorIs(t, sub.AcknowledgeIDs(uuid.New()), eserrors.ErrSubscriptionNotFound)
	})
}
