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
	"github.com/pharmanity/event-store-client/internal/messages"
	"github.com/pharmanity/event-store-client/internal/tcp"
)

// subscriptionOperation is the engine side of a volatile or persistent subscription.
// The engine calls its methods from a single goroutine, except requestDrop.
type subscriptionOperation interface {
	Subscription
	Name() string
	// ReplaySafe reports whether the subscription is sent again when the
	// connection it was sent on is lost
	ReplaySafe() bool
	// Confirmed reports whether the server confirmed the subscription once
	Confirmed() bool
	IsDropped() bool
	CreateSubscriptionPackage(correlationID uuid.UUID) *tcp.Frame
	CreateUnsubscriptionPackage(correlationID uuid.UUID) *tcp.Frame
	InspectPackage(frame *tcp.Frame, generation uint64) InspectionResult
	// DropSubscription drops the session, the drop callback runs after the buffered events
	DropSubscription(reason SubscriptionDropReason, err error)
	// requestDrop drops through the engine so the server is told to unsubscribe
	requestDrop(reason SubscriptionDropReason, err error)
	bind(control subscriptionControl)
	onDropped(fn func(reason SubscriptionDropReason))
}

// subscriptionBase holds what volatile and persistent subscriptions share
type subscriptionBase struct {
	*session
	self        subscriptionOperation
	name        string
	streamID    string
	credentials *UserCredentials
	control     subscriptionControl
	confirmed   *atomic.Bool
	failFuture  func(err error)
}

func newSubscriptionBase(name, streamID string, credentials *UserCredentials, session *session) *subscriptionBase {
	return &subscriptionBase{
		session:     session,
		name:        name,
		streamID:    streamID,
		credentials: credentials,
		confirmed:   atomic.NewBool(false),
	}
}

// Name returns the subscription kind
func (b *subscriptionBase) Name() string {
	return b.name
}

// StreamID returns the subscribed stream, empty for all streams
func (b *subscriptionBase) StreamID() string {
	return b.streamID
}

// Confirmed reports whether the server confirmed the subscription
func (b *subscriptionBase) Confirmed() bool {
	return b.confirmed.Load()
}

// Unsubscribe drops the subscription with UserInitiated
func (b *subscriptionBase) Unsubscribe() {
	b.requestDrop(UserInitiated, nil)
}

func (b *subscriptionBase) bind(control subscriptionControl) {
	b.control = control
}

func (b *subscriptionBase) requestDrop(reason SubscriptionDropReason, err error) {
	if b.control == nil || b.control.unsubscribe(b.self, reason, err) != nil {
		b.DropSubscription(reason, err)
	}
}

// DropSubscription drops the session and fails the future when not confirmed yet
func (b *subscriptionBase) DropSubscription(reason SubscriptionDropReason, err error) {
	if !b.drop(reason, err) {
		return
	}
	if reason != UserInitiated {
		b.logger.Debugf("%s to '%s' dropped: %s: %v", b.name, b.streamID, reason, err)
	}
	b.failFuture(&SubscriptionDroppedError{Reason: reason, Err: err})
}

// CreateUnsubscriptionPackage builds the unsubscribe frame
func (b *subscriptionBase) CreateUnsubscriptionPackage(correlationID uuid.UUID) *tcp.Frame {
	return newPackage(tcp.UnsubscribeFromStream, correlationID, b.credentials, nil)
}

// confirm records the first confirmation
func (b *subscriptionBase) confirm() bool {
	if !b.confirmed.CompareAndSwap(false, true) {
		return false
	}
	b.enqueue(&delivery{kind: deliverConfirmed})
	return true
}

// pushEvent buffers an event, dropping the subscription when the buffer is full
func (b *subscriptionBase) pushEvent(event ResolvedEvent, generation uint64) InspectionResult {
	if !b.enqueue(&delivery{kind: deliverEvent, event: event, generation: generation}) {
		err := fmt.Errorf("more than %d events buffered", b.limit)
		b.DropSubscription(ProcessingQueueOverflow, err)
		return InspectionResult{Decision: EndOperation, Description: "ProcessingQueueOverflow", Err: err}
	}
	return InspectionResult{Decision: DoNothing, Description: "EventAppeared"}
}

// inspectCommon handles the responses both kinds of subscription share
func (b *subscriptionBase) inspectCommon(frame *tcp.Frame) InspectionResult {
	switch frame.Command {
	case tcp.SubscriptionDropped:
		dto := new(messages.SubscriptionDropped)
		if err := dto.Unmarshal(frame.Payload); err != nil {
			b.DropSubscription(ServerError, err)
			return InspectionResult{Decision: EndOperation, Description: "SubscriptionDropped", Err: err}
		}

		reason := dropReasonFromServer(dto.Reason)
		var err error
		switch reason {
		case AccessDenied:
			err = &eserrors.AccessDeniedError{Stream: b.streamID, Op: "Subscription"}
		case NotFound:
			err = fmt.Errorf("%w: '%s'", eserrors.ErrSubscriptionNotFound, b.streamID)
		}
		b.DropSubscription(reason, err)
		return InspectionResult{Decision: EndOperation, Description: "SubscriptionDropped: " + reason.String(), Err: err}
	case tcp.NotAuthenticated:
		err := notAuthenticated(frame.Payload)
		b.DropSubscription(NotAuthenticated, err)
		return InspectionResult{Decision: EndOperation, Description: "NotAuthenticated", Err: err}
	case tcp.BadRequest:
		err := eserrors.NewServerError(string(frame.Payload))
		b.DropSubscription(ServerError, err)
		return InspectionResult{Decision: EndOperation, Description: "BadRequest", Err: err}
	case tcp.NotHandled:
		if b.Confirmed() {
			return InspectionResult{
				Decision:    NotifyError,
				Description: "NotHandled",
				Err:         fmt.Errorf("%w: NotHandled while subscribed", eserrors.ErrCommandNotExpected),
			}
		}
		return inspectNotHandled(frame.Payload)
	default:
		err := fmt.Errorf("%w: %s", eserrors.ErrCommandNotExpected, frame.Command)
		b.DropSubscription(ServerError, err)
		return InspectionResult{Decision: EndOperation, Description: "Unexpected command", Err: err}
	}
}
