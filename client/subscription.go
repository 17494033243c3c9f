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

	"github.com/pharmanity/event-store-client/internal/messages"
)

// SubscriptionDropReason tells why a subscription ended
type SubscriptionDropReason int

const (
	UserInitiated SubscriptionDropReason = iota
	NotAuthenticated
	AccessDenied
	SubscribingError
	ServerError
	ConnectionClosed
	CatchUpError
	ProcessingQueueOverflow
	EventHandlerException
	MaxSubscribersReached
	PersistentSubscriptionDeleted
	NotFound
	Unknown
)

var dropReasonNames = [...]string{
	UserInitiated:                 "UserInitiated",
	NotAuthenticated:              "NotAuthenticated",
	AccessDenied:                  "AccessDenied",
	SubscribingError:              "SubscribingError",
	ServerError:                   "ServerError",
	ConnectionClosed:              "ConnectionClosed",
	CatchUpError:                  "CatchUpError",
	ProcessingQueueOverflow:       "ProcessingQueueOverflow",
	EventHandlerException:         "EventHandlerException",
	MaxSubscribersReached:         "MaxSubscribersReached",
	PersistentSubscriptionDeleted: "PersistentSubscriptionDeleted",
	NotFound:                      "NotFound",
	Unknown:                       "Unknown",
}

// String returns the reason name
func (r SubscriptionDropReason) String() string {
	if r < 0 || int(r) >= len(dropReasonNames) {
		return fmt.Sprintf("SubscriptionDropReason(%d)", int(r))
	}
	return dropReasonNames[r]
}

func dropReasonFromServer(reason messages.DropReason) SubscriptionDropReason {
	switch reason {
	case messages.DropUnsubscribed:
		return UserInitiated
	case messages.DropAccessDenied:
		return AccessDenied
	case messages.DropNotFound:
		return NotFound
	case messages.DropPersistentSubscriptionDeleted:
		return PersistentSubscriptionDeleted
	case messages.DropSubscriberMaxCountReached:
		return MaxSubscribersReached
	default:
		return Unknown
	}
}

// SubscriptionDroppedError fails the future of a subscription dropped before it was confirmed
type SubscriptionDroppedError struct {
	Reason SubscriptionDropReason
	Err    error
}

// Error implements error
func (e *SubscriptionDroppedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("subscription dropped: %s", e.Reason)
	}
	return fmt.Sprintf("subscription dropped: %s: %v", e.Reason, e.Err)
}

// Unwrap returns the cause of the drop
func (e *SubscriptionDroppedError) Unwrap() error {
	return e.Err
}

// Subscription is a live subscription
type Subscription interface {
	// StreamID returns the subscribed stream, empty for all streams
	StreamID() string
	// Unsubscribe drops the subscription with UserInitiated
	Unsubscribe()
	// Dropped is closed once the drop callback returned
	Dropped() <-chan struct{}
}

// EventHandler receives the events of a subscription.
// Calls are sequential: the next event is delivered once HandleEvent returned.
// A HandleEvent error drops the subscription with EventHandlerException.
type EventHandler interface {
	HandleConfirmed(sub Subscription)
	HandleEvent(sub Subscription, event ResolvedEvent) error
	HandleDropped(sub Subscription, reason SubscriptionDropReason, err error)
}

// HandlerFuncs adapts functions to EventHandler. Nil functions are skipped.
type HandlerFuncs struct {
	OnConfirmed func(sub Subscription)
	OnEvent     func(sub Subscription, event ResolvedEvent) error
	OnDropped   func(sub Subscription, reason SubscriptionDropReason, err error)
}

// enforce compilation error
var _ EventHandler = HandlerFuncs{}

// HandleConfirmed calls OnConfirmed
func (h HandlerFuncs) HandleConfirmed(sub Subscription) {
	if h.OnConfirmed != nil {
		h.OnConfirmed(sub)
	}
}

// HandleEvent calls OnEvent
func (h HandlerFuncs) HandleEvent(sub Subscription, event ResolvedEvent) error {
	if h.OnEvent != nil {
		return h.OnEvent(sub, event)
	}
	return nil
}

// HandleDropped calls OnDropped
func (h HandlerFuncs) HandleDropped(sub Subscription, reason SubscriptionDropReason, err error) {
	if h.OnDropped != nil {
		h.OnDropped(sub, reason, err)
	}
}
