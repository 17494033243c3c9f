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
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/pharmanity/event-store-client/future"
	"github.com/pharmanity/event-store-client/internal/messages"
	"github.com/pharmanity/event-store-client/internal/tcp"
	"github.com/pharmanity/event-store-client/log"
)

// VolatileSubscription pushes the live events of a stream, or of all streams.
// It is dropped with ConnectionClosed when the connection is lost.
type VolatileSubscription struct {
	*subscriptionBase
	resolveLinkTos     bool
	lastCommitPosition *atomic.Int64
	lastEventNumber    *atomic.Int64
	promise            future.Completable[*VolatileSubscription]
}

// enforce compilation error
var _ subscriptionOperation = (*VolatileSubscription)(nil)

func newVolatileSubscription(streamID string, resolveLinkTos bool, handler EventHandler,
	credentials *UserCredentials, queueSize int, logger log.Logger) *VolatileSubscription {
	sub := &VolatileSubscription{
		resolveLinkTos:     resolveLinkTos,
		lastCommitPosition: atomic.NewInt64(-1),
		lastEventNumber:    atomic.NewInt64(-1),
		promise:            future.NewCompletable[*VolatileSubscription](),
	}
	sub.subscriptionBase = newSubscriptionBase("VolatileSubscription", streamID, credentials, newSession(handler, queueSize, logger))
	sub.self = sub
	sub.failFuture = func(err error) { sub.promise.Failure(err) }
	sub.start(sub)
	return sub
}

// Future is completed once the server confirmed the subscription
func (s *VolatileSubscription) Future() future.Future[*VolatileSubscription] {
	return s.promise.Future()
}

// IsSubscribedToAll reports whether the subscription covers all streams
func (s *VolatileSubscription) IsSubscribedToAll() bool {
	return s.streamID == ""
}

// LastCommitPosition returns the last commit position when the subscription was confirmed
func (s *VolatileSubscription) LastCommitPosition() int64 {
	return s.lastCommitPosition.Load()
}

// LastEventNumber returns the last event number of the stream when the
// subscription was confirmed, -1 when unknown
func (s *VolatileSubscription) LastEventNumber() int64 {
	return s.lastEventNumber.Load()
}

// String describes the subscription
func (s *VolatileSubscription) String() string {
	return fmt.Sprintf("VolatileSubscription Stream: '%s', ResolveLinkTos: %t", s.streamID, s.resolveLinkTos)
}

// ReplaySafe reports whether the subscribe request can be sent again: only
// until the server confirmed it
func (s *VolatileSubscription) ReplaySafe() bool {
	return !s.Confirmed()
}

// CreateSubscriptionPackage builds the subscribe frame
func (s *VolatileSubscription) CreateSubscriptionPackage(correlationID uuid.UUID) *tcp.Frame {
	dto := &messages.SubscribeToStream{EventStreamID: s.streamID, ResolveLinkTos: s.resolveLinkTos}
	return newPackage(tcp.SubscribeToStream, correlationID, s.credentials, dto.Marshal())
}

// InspectPackage handles the frames of the subscription
func (s *VolatileSubscription) InspectPackage(frame *tcp.Frame, generation uint64) InspectionResult {
	switch frame.Command {
	case tcp.SubscriptionConfirmation:
		dto := new(messages.SubscriptionConfirmation)
		if err := dto.Unmarshal(frame.Payload); err != nil {
			s.DropSubscription(ServerError, err)
			return InspectionResult{Decision: EndOperation, Description: "SubscriptionConfirmation", Err: err}
		}

		s.lastCommitPosition.Store(dto.LastCommitPosition)
		if dto.LastEventNumber != nil {
			s.lastEventNumber.Store(*dto.LastEventNumber)
		}
		s.resubscribed(generation)
		if s.confirm() {
			s.promise.Success(s)
		}
		return InspectionResult{Decision: Subscribed, Description: "SubscriptionConfirmation"}
	case tcp.StreamEventAppeared:
		dto := new(messages.StreamEventAppeared)
		if err := dto.Unmarshal(frame.Payload); err != nil || dto.Event == nil {
			if err == nil {
				err = fmt.Errorf("event appeared without an event")
			}
			s.DropSubscription(ServerError, err)
			return InspectionResult{Decision: EndOperation, Description: "StreamEventAppeared", Err: err}
		}
		return s.pushEvent(newPushedEvent(dto.Event), generation)
	default:
		return s.inspectCommon(frame)
	}
}
