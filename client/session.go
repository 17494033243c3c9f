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
	"github.com/Workiva/go-datastructures/queue"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/pharmanity/event-store-client/log"
)

// DefaultSubscriptionQueueSize bounds the events buffered by a subscription
const DefaultSubscriptionQueueSize = 2048

type deliveryKind int

const (
	deliverConfirmed deliveryKind = iota
	deliverEvent
	deliverDrop
)

type delivery struct {
	kind       deliveryKind
	event      ResolvedEvent
	generation uint64
	reason     SubscriptionDropReason
	err        error
}

// subscriptionControl is the engine side of a subscription.
// Every method fails once the engine is closed.
type subscriptionControl interface {
	unsubscribe(op subscriptionOperation, reason SubscriptionDropReason, err error) error
	acknowledge(sub *PersistentSubscription, ids []uuid.UUID) error
	nak(sub *PersistentSubscription, ids []uuid.UUID, action NakAction, message string) error
}

// session runs the callbacks of one subscription on its own goroutine.
// Only one goroutine enqueues: the engine. The drop marker always fits
// because events are refused once limit entries are buffered.
type session struct {
	owner   Subscription
	handler EventHandler
	logger  log.Logger

	limit      uint64
	buffer     *queue.RingBuffer
	dropping   *atomic.Bool
	dropSignal chan struct{}
	dropped    chan struct{}
	generation *atomic.Uint64
	onDrop     func(reason SubscriptionDropReason)

	// credit of persistent subscriptions, disabled when bufferSize is zero
	bufferSize int64
	unacked    *atomic.Int64
	credit     chan struct{}
	afterEvent func(event ResolvedEvent)
}

func newSession(handler EventHandler, limit int, logger log.Logger) *session {
	if limit <= 0 {
		limit = DefaultSubscriptionQueueSize
	}
	if handler == nil {
		handler = HandlerFuncs{}
	}
	return &session{
		handler:    handler,
		logger:     logger,
		limit:      uint64(limit),
		buffer:     queue.NewRingBuffer(uint64(limit) + 2),
		dropping:   atomic.NewBool(false),
		dropSignal: make(chan struct{}),
		dropped:    make(chan struct{}),
		generation: atomic.NewUint64(0),
		unacked:    atomic.NewInt64(0),
		credit:     make(chan struct{}, 1),
	}
}

func (s *session) start(owner Subscription) {
	s.owner = owner
	go s.run()
}

// onDropped registers fn, called once with the drop reason when the session starts dropping
func (s *session) onDropped(fn func(reason SubscriptionDropReason)) {
	s.onDrop = fn
}

// Dropped is closed once the drop callback returned
func (s *session) Dropped() <-chan struct{} {
	return s.dropped
}

// IsDropped reports whether the subscription is dropped or being dropped
func (s *session) IsDropped() bool {
	return s.dropping.Load()
}

// enqueue buffers a delivery. It returns false when the buffer is full.
func (s *session) enqueue(d *delivery) bool {
	if s.dropping.Load() {
		return true
	}
	if s.buffer.Len() >= s.limit {
		return false
	}
	// the buffer has room, Put does not block
	_ = s.buffer.Put(d)
	return true
}

// drop queues the drop callback behind the buffered events.
// It returns false when the session was already dropped.
func (s *session) drop(reason SubscriptionDropReason, err error) bool {
	if !s.dropping.CompareAndSwap(false, true) {
		return false
	}
	close(s.dropSignal)
	if s.onDrop != nil {
		s.onDrop(reason)
	}
	_ = s.buffer.Put(&delivery{kind: deliverDrop, reason: reason, err: err})
	return true
}

// resubscribed starts a new generation: events of older connections are
// skipped and the credit is restored
func (s *session) resubscribed(generation uint64) {
	s.generation.Store(generation)
	s.unacked.Store(0)
	s.signalCredit()
}

// release gives back the credit of n acknowledged events
func (s *session) release(n int) {
	for {
		current := s.unacked.Load()
		next := current - int64(n)
		if next < 0 {
			next = 0
		}
		if s.unacked.CompareAndSwap(current, next) {
			break
		}
	}
	s.signalCredit()
}

func (s *session) signalCredit() {
	select {
	case s.credit <- struct{}{}:
	default:
	}
}

// awaitCredit suspends the delivery while the unacknowledged events fill the
// buffer. It returns false when the subscription is dropped meanwhile.
func (s *session) awaitCredit() bool {
	for s.bufferSize > 0 && s.unacked.Load() >= s.bufferSize {
		select {
		case <-s.credit:
		case <-s.dropSignal:
			return false
		}
	}
	return true
}

func (s *session) run() {
	defer close(s.dropped)
	defer s.buffer.Dispose()

	// skip is set once the handler failed or the credit can no longer come back
	skip := false
	for {
		item, err := s.buffer.Get()
		if err != nil {
			return
		}

		d := item.(*delivery)
		switch d.kind {
		case deliverDrop:
			s.handler.HandleDropped(s.owner, d.reason, d.err)
			return
		case deliverConfirmed:
			if !skip {
				s.handler.HandleConfirmed(s.owner)
			}
		case deliverEvent:
			if skip || d.generation != s.generation.Load() {
				continue
			}
			if !s.awaitCredit() {
				skip = true
				continue
			}
			if d.generation != s.generation.Load() {
				continue
			}
			if s.bufferSize > 0 {
				s.unacked.Inc()
			}
			if err := s.handler.HandleEvent(s.owner, d.event); err != nil {
				s.logger.Errorf("subscription to '%s' handler failed: %v", s.owner.StreamID(), err)
				skip = true
				s.fail(err)
				continue
			}
			if s.afterEvent != nil {
				s.afterEvent(d.event)
			}
		}
	}
}

// fail asks the engine to drop the subscription after a handler error
func (s *session) fail(err error) {
	op, ok := s.owner.(subscriptionOperation)
	if !ok {
		s.drop(EventHandlerException, err)
		return
	}
	op.requestDrop(EventHandlerException, err)
}
