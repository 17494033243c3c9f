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

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/future"
	"github.com/pharmanity/event-store-client/internal/messages"
	"github.com/pharmanity/event-store-client/internal/tcp"
	"github.com/pharmanity/event-store-client/log"
)

// maxAckBatch is the largest number of event ids in one ack or nak frame
const maxAckBatch = 2000

// NakAction tells the server what to do with a failed event
type NakAction int

const (
	NakUnknown NakAction = iota
	NakPark
	NakRetry
	NakSkip
	NakStop
)

func (a NakAction) toMessage() messages.NakAction {
	switch a {
	case NakPark:
		return messages.NakPark
	case NakRetry:
		return messages.NakRetry
	case NakSkip:
		return messages.NakSkip
	case NakStop:
		return messages.NakStop
	default:
		return messages.NakUnknown
	}
}

// PersistentSubscription is a member of a consumer group.
// Events must be acknowledged, with Acknowledge or automatically; once
// bufferSize events are unacknowledged the delivery is suspended.
// The subscription survives reconnections: the server redelivers the events
// that were not acknowledged.
type PersistentSubscription struct {
	*subscriptionBase
	groupName      string
	bufferSize     int
	autoAck        bool
	subscriptionID *atomic.String
	promise        future.Completable[*PersistentSubscription]
}

// enforce compilation error
var _ subscriptionOperation = (*PersistentSubscription)(nil)

func newPersistentSubscription(streamID, groupName string, handler EventHandler, bufferSize int, autoAck bool,
	credentials *UserCredentials, queueSize int, logger log.Logger) *PersistentSubscription {
	sub := &PersistentSubscription{
		groupName:      groupName,
		bufferSize:     bufferSize,
		autoAck:        autoAck,
		subscriptionID: atomic.NewString(""),
		promise:        future.NewCompletable[*PersistentSubscription](),
	}

	if queueSize < bufferSize {
		queueSize = bufferSize
	}
	session := newSession(handler, queueSize, logger)
	session.bufferSize = int64(bufferSize)
	if autoAck {
		session.afterEvent = func(event ResolvedEvent) {
			// an ack on a dropped subscription is pointless, the server redelivers
			_ = sub.Acknowledge(event)
		}
	}

	sub.subscriptionBase = newSubscriptionBase("PersistentSubscription", streamID, credentials, session)
	sub.self = sub
	sub.failFuture = func(err error) { sub.promise.Failure(err) }
	sub.start(sub)
	return sub
}

// Future is completed once the server confirmed the subscription
func (s *PersistentSubscription) Future() future.Future[*PersistentSubscription] {
	return s.promise.Future()
}

// GroupName returns the consumer group
func (s *PersistentSubscription) GroupName() string {
	return s.groupName
}

// SubscriptionID returns the id confirmed by the server
func (s *PersistentSubscription) SubscriptionID() string {
	return s.subscriptionID.Load()
}

// String describes the subscription
func (s *PersistentSubscription) String() string {
	return fmt.Sprintf("PersistentSubscription Stream: '%s', Group: '%s', BufferSize: %d", s.streamID, s.groupName, s.bufferSize)
}

// Acknowledge marks the events as processed
func (s *PersistentSubscription) Acknowledge(events ...ResolvedEvent) error {
	return s.AcknowledgeIDs(eventIDs(events)...)
}

// AcknowledgeIDs marks the events with the given ids as processed
func (s *PersistentSubscription) AcknowledgeIDs(ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if s.IsDropped() || s.control == nil {
		return eserrors.ErrSubscriptionNotFound
	}
	s.release(len(ids))
	return s.control.acknowledge(s, ids)
}

// Fail reports the events as failed, the server applies action to them
func (s *PersistentSubscription) Fail(events []ResolvedEvent, action NakAction, reason string) error {
	ids := eventIDs(events)
	if len(ids) == 0 {
		return nil
	}
	if s.IsDropped() || s.control == nil {
		return eserrors.ErrSubscriptionNotFound
	}
	s.release(len(ids))
	return s.control.nak(s, ids, action, reason)
}

// ReplaySafe is always true: the server redelivers unacknowledged events
func (s *PersistentSubscription) ReplaySafe() bool {
	return true
}

// CreateSubscriptionPackage builds the connect frame
func (s *PersistentSubscription) CreateSubscriptionPackage(correlationID uuid.UUID) *tcp.Frame {
	dto := &messages.ConnectToPersistentSubscription{
		SubscriptionID:          s.groupName,
		EventStreamID:           s.streamID,
		AllowedInFlightMessages: int32(s.bufferSize),
	}
	return newPackage(tcp.ConnectToPersistentSubscription, correlationID, s.credentials, dto.Marshal())
}

// createAckPackages builds the ack frames, chunked at maxAckBatch ids
func (s *PersistentSubscription) createAckPackages(correlationID uuid.UUID, ids []uuid.UUID) []*tcp.Frame {
	frames := make([]*tcp.Frame, 0, len(ids)/maxAckBatch+1)
	for _, chunk := range chunkIDs(ids) {
		dto := &messages.PersistentSubscriptionAckEvents{
			SubscriptionID:    s.SubscriptionID(),
			ProcessedEventIDs: chunk,
		}
		frames = append(frames, newPackage(tcp.PersistentSubscriptionAckEvents, correlationID, s.credentials, dto.Marshal()))
	}
	return frames
}

// createNakPackages builds the nak frames, chunked at maxAckBatch ids
func (s *PersistentSubscription) createNakPackages(correlationID uuid.UUID, ids []uuid.UUID, action NakAction, reason string) []*tcp.Frame {
	frames := make([]*tcp.Frame, 0, len(ids)/maxAckBatch+1)
	for _, chunk := range chunkIDs(ids) {
		dto := &messages.PersistentSubscriptionNakEvents{
			SubscriptionID:    s.SubscriptionID(),
			ProcessedEventIDs: chunk,
			Message:           reason,
			Action:            action.toMessage(),
		}
		frames = append(frames, newPackage(tcp.PersistentSubscriptionNakEvents, correlationID, s.credentials, dto.Marshal()))
	}
	return frames
}

// InspectPackage handles the frames of the subscription
func (s *PersistentSubscription) InspectPackage(frame *tcp.Frame, generation uint64) InspectionResult {
	switch frame.Command {
	case tcp.PersistentSubscriptionConfirmation:
		dto := new(messages.PersistentSubscriptionConfirmation)
		if err := dto.Unmarshal(frame.Payload); err != nil {
			s.DropSubscription(ServerError, err)
			return InspectionResult{Decision: EndOperation, Description: "PersistentSubscriptionConfirmation", Err: err}
		}

		s.subscriptionID.Store(dto.SubscriptionID)
		s.resubscribed(generation)
		if s.confirm() {
			s.promise.Success(s)
		}
		return InspectionResult{Decision: Subscribed, Description: "PersistentSubscriptionConfirmation"}
	case tcp.PersistentSubscriptionEventAppeared:
		dto := new(messages.PersistentSubscriptionStreamEventAppeared)
		if err := dto.Unmarshal(frame.Payload); err != nil || dto.Event == nil {
			if err == nil {
				err = fmt.Errorf("event appeared without an event")
			}
			s.DropSubscription(ServerError, err)
			return InspectionResult{Decision: EndOperation, Description: "PersistentSubscriptionEventAppeared", Err: err}
		}
		return s.pushEvent(newIndexedEvent(dto.Event, dto.RetryCount), generation)
	default:
		return s.inspectCommon(frame)
	}
}

func eventIDs(events []ResolvedEvent) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.OriginalEventID())
	}
	return ids
}

func chunkIDs(ids []uuid.UUID) [][]uuid.UUID {
	chunks := make([][]uuid.UUID, 0, len(ids)/maxAckBatch+1)
	for len(ids) > maxAckBatch {
		chunks = append(chunks, ids[:maxAckBatch])
		ids = ids[maxAckBatch:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
