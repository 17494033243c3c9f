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
	"time"

	"github.com/google/uuid"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/tcp"
	"github.com/pharmanity/event-store-client/log"
)

// subscriptionItem is the pending record of a subscription
type subscriptionItem struct {
	operation     subscriptionOperation
	correlationID uuid.UUID
	conn          *tcp.Conn
	isSubscribed  bool
	retryCount    int
	createdAt     time.Time
	lastUpdated   time.Time
}

// subscriptionsManager holds the subscriptions of the engine.
// It is owned by the engine goroutine.
type subscriptionsManager struct {
	settings *Settings
	logger   log.Logger

	active       map[uuid.UUID]*subscriptionItem
	byOperation  map[subscriptionOperation]*subscriptionItem
	waiting      []*subscriptionItem
	retryPending []*subscriptionItem
}

func newSubscriptionsManager(settings *Settings, logger log.Logger) *subscriptionsManager {
	return &subscriptionsManager{
		settings:    settings,
		logger:      logger,
		active:      make(map[uuid.UUID]*subscriptionItem),
		byOperation: make(map[subscriptionOperation]*subscriptionItem),
	}
}

func (m *subscriptionsManager) activeSubscription(correlationID uuid.UUID) (*subscriptionItem, bool) {
	item, ok := m.active[correlationID]
	return item, ok
}

func (m *subscriptionsManager) find(op subscriptionOperation) (*subscriptionItem, bool) {
	item, ok := m.byOperation[op]
	return item, ok
}

func (m *subscriptionsManager) enqueue(op subscriptionOperation, now time.Time) error {
	if len(m.waiting) >= m.settings.MaxQueueSize() {
		return fmt.Errorf("%w: %d subscriptions waiting", eserrors.ErrQueueOverflow, len(m.waiting))
	}
	item := &subscriptionItem{operation: op, createdAt: now, lastUpdated: now}
	m.byOperation[op] = item
	m.waiting = append(m.waiting, item)
	return nil
}

func (m *subscriptionsManager) scheduleWaiting(conn *tcp.Conn, now time.Time) {
	if conn == nil {
		return
	}
	for len(m.waiting) > 0 && len(m.active) < m.settings.MaxConcurrentItems() {
		item := m.waiting[0]
		m.waiting[0] = nil
		m.waiting = m.waiting[1:]
		m.send(item, conn, now)
	}
}

func (m *subscriptionsManager) send(item *subscriptionItem, conn *tcp.Conn, now time.Time) {
	item.correlationID = uuid.New()
	item.conn = conn
	item.isSubscribed = false
	item.lastUpdated = now
	m.active[item.correlationID] = item

	if m.settings.VerboseLogging() {
		m.logger.Debugf("subscribing %s, correlation id %s, retry count %d", item.operation, item.correlationID, item.retryCount)
	}
	if err := conn.Enqueue(item.operation.CreateSubscriptionPackage(item.correlationID)); err != nil {
		m.logger.Debugf("failed to send %s: %v", item.operation.Name(), err)
	}
}

// remove forgets a subscription
func (m *subscriptionsManager) remove(item *subscriptionItem) {
	delete(m.active, item.correlationID)
	delete(m.byOperation, item.operation)
	m.waiting = removeItem(m.waiting, item)
	m.retryPending = removeItem(m.retryPending, item)
}

// drop removes the subscription and drops it
func (m *subscriptionsManager) drop(item *subscriptionItem, reason SubscriptionDropReason, err error) {
	m.remove(item)
	item.operation.DropSubscription(reason, err)
}

func (m *subscriptionsManager) scheduleRetry(item *subscriptionItem) {
	if _, ok := m.active[item.correlationID]; !ok {
		return
	}
	delete(m.active, item.correlationID)
	item.isSubscribed = false
	item.conn = nil
	m.retryPending = append(m.retryPending, item)
}

// connectionLost drops the subscriptions that cannot survive the loss of conn
// and schedules the others for a resubscription
func (m *subscriptionsManager) connectionLost(conn *tcp.Conn) {
	for _, item := range m.active {
		if item.conn != conn {
			continue
		}
		if item.operation.ReplaySafe() {
			m.scheduleRetry(item)
			continue
		}
		m.drop(item, ConnectionClosed, fmt.Errorf("%w: connection %s lost", eserrors.ErrConnectionClosed, conn.ID()))
	}
}

// checkTimeouts drops the subscriptions not confirmed within the operation
// timeout. Resubscriptions of confirmed subscriptions are exempt: the server
// keeps their state.
func (m *subscriptionsManager) checkTimeouts(now time.Time) {
	timeout := m.settings.OperationTimeout()
	expired := func(item *subscriptionItem) bool {
		return !item.isSubscribed && !item.operation.Confirmed() && now.Sub(item.lastUpdated) > timeout
	}

	var timedOut []*subscriptionItem
	for _, item := range m.active {
		if expired(item) {
			timedOut = append(timedOut, item)
		}
	}
	for _, item := range m.waiting {
		if expired(item) {
			timedOut = append(timedOut, item)
		}
	}
	for _, item := range m.retryPending {
		if expired(item) {
			timedOut = append(timedOut, item)
		}
	}

	for _, item := range timedOut {
		m.logger.Warnf("%s to '%s' was not confirmed within %s", item.operation.Name(), item.operation.StreamID(), timeout)
		m.drop(item, SubscribingError, fmt.Errorf("%w: subscription to '%s' not confirmed within %s",
			eserrors.ErrOperationTimedOut, item.operation.StreamID(), timeout))
	}
}

// checkTimeoutsAndRetry runs the timeouts then sends the retries and the
// waiting subscriptions on conn
func (m *subscriptionsManager) checkTimeoutsAndRetry(conn *tcp.Conn, now time.Time) {
	for _, item := range m.active {
		if item.conn != conn {
			m.scheduleRetry(item)
		}
	}

	m.checkTimeouts(now)

	retries := m.retryPending
	m.retryPending = nil
	maxRetries := m.settings.MaxRetries()
	for _, item := range retries {
		// reconnections do not count against confirmed subscriptions
		if !item.operation.Confirmed() {
			item.retryCount++
		}
		if maxRetries >= 0 && item.retryCount > maxRetries {
			m.drop(item, SubscribingError, fmt.Errorf("%w: subscription to '%s' retried %d times",
				eserrors.ErrRetriesLimitReached, item.operation.StreamID(), maxRetries))
			continue
		}
		m.send(item, conn, now)
	}

	m.scheduleWaiting(conn, now)
}

// cleanUp drops every subscription with ConnectionClosed
func (m *subscriptionsManager) cleanUp(err error) {
	items := make([]*subscriptionItem, 0, len(m.byOperation))
	for _, item := range m.byOperation {
		items = append(items, item)
	}
	for _, item := range items {
		m.drop(item, ConnectionClosed, err)
	}
}

func removeItem(items []*subscriptionItem, target *subscriptionItem) []*subscriptionItem {
	for i, item := range items {
		if item == target {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
