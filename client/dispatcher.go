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
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/metric"
	"github.com/pharmanity/event-store-client/internal/tcp"
	"github.com/pharmanity/event-store-client/log"
)

// operationItem is the pending record of an operation
type operationItem struct {
	seqNo         uint64
	operation     Operation
	correlationID uuid.UUID
	conn          *tcp.Conn
	retryCount    int
	createdAt     time.Time
	lastUpdated   time.Time
}

// operationsManager holds the waiting, active and retry pending operations.
// It is owned by the engine goroutine.
type operationsManager struct {
	settings *Settings
	logger   log.Logger
	metric   *metric.ConnectionMetric

	active       map[uuid.UUID]*operationItem
	waiting      []*operationItem
	retryPending []*operationItem
	seqNo        uint64
}

func newOperationsManager(settings *Settings, logger log.Logger, metric *metric.ConnectionMetric) *operationsManager {
	return &operationsManager{
		settings: settings,
		logger:   logger,
		metric:   metric,
		active:   make(map[uuid.UUID]*operationItem),
	}
}

func (m *operationsManager) newItem(op Operation, now time.Time) *operationItem {
	m.seqNo++
	return &operationItem{
		seqNo:       m.seqNo,
		operation:   op,
		createdAt:   now,
		lastUpdated: now,
	}
}

// activeOperation returns the operation sent with correlationID
func (m *operationsManager) activeOperation(correlationID uuid.UUID) (*operationItem, bool) {
	item, ok := m.active[correlationID]
	return item, ok
}

// totalCount returns the number of operations not yet completed
func (m *operationsManager) totalCount() int {
	return len(m.active) + len(m.waiting) + len(m.retryPending)
}

// enqueue adds an operation to the waiting queue
func (m *operationsManager) enqueue(item *operationItem) error {
	if len(m.waiting) >= m.settings.MaxQueueSize() {
		return fmt.Errorf("%w: %d operations waiting", eserrors.ErrQueueOverflow, len(m.waiting))
	}
	m.metric.OperationQueued(context.Background(), item.operation.Name())
	m.waiting = append(m.waiting, item)
	return nil
}

// scheduleWaiting sends waiting operations while there is room in flight
func (m *operationsManager) scheduleWaiting(conn *tcp.Conn, now time.Time) {
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

func (m *operationsManager) send(item *operationItem, conn *tcp.Conn, now time.Time) {
	item.correlationID = uuid.New()
	item.conn = conn
	item.lastUpdated = now

	frame, err := item.operation.CreateNetworkPackage(item.correlationID)
	if err != nil {
		m.fail(item, fmt.Errorf("failed to create %s request: %w", item.operation.Name(), err), now)
		return
	}

	m.active[item.correlationID] = item
	if m.settings.VerboseLogging() {
		m.logger.Debugf("sending %s, correlation id %s, retry count %d", item.operation.Name(), item.correlationID, item.retryCount)
	}

	m.metric.OperationSent(context.Background(), item.operation.Name())
	if err := conn.Enqueue(frame); err != nil {
		// the close notification of conn moves the operation
		m.logger.Debugf("failed to send %s: %v", item.operation.Name(), err)
	}
}

// complete removes an ended operation
func (m *operationsManager) complete(item *operationItem, err error, now time.Time) {
	delete(m.active, item.correlationID)
	m.done(item, err, now)
}

// fail ends an operation with err wherever it is
func (m *operationsManager) fail(item *operationItem, err error, now time.Time) {
	delete(m.active, item.correlationID)
	item.operation.Fail(err)
	m.done(item, err, now)
}

func (m *operationsManager) done(item *operationItem, err error, now time.Time) {
	m.metric.OperationDone(context.Background(), item.operation.Name(), now.Sub(item.createdAt),
		err != nil, eserrors.IsTimeout(err))
}

// scheduleRetry moves an active operation to the retry queue
func (m *operationsManager) scheduleRetry(item *operationItem) {
	if _, ok := m.active[item.correlationID]; !ok {
		return
	}
	delete(m.active, item.correlationID)
	m.retryPending = append(m.retryPending, item)
}

// touch refreshes the last update of an operation kept after a notified error
func (m *operationsManager) touch(item *operationItem, now time.Time) {
	item.lastUpdated = now
}

// connectionLost moves the operations sent on conn. Replay safe operations are
// retried on the next connection, the others fail.
func (m *operationsManager) connectionLost(conn *tcp.Conn, now time.Time) {
	for correlationID, item := range m.active {
		if item.conn != conn {
			continue
		}
		delete(m.active, correlationID)
		if item.operation.ReplaySafe() {
			m.retryPending = append(m.retryPending, item)
			continue
		}
		m.fail(item, fmt.Errorf("%w: %s was in flight on connection %s", eserrors.ErrConnectionClosed,
			item.operation.Name(), conn.ID()), now)
	}
}

// checkTimeouts fails the operations not updated within the operation timeout
func (m *operationsManager) checkTimeouts(now time.Time) {
	timeout := m.settings.OperationTimeout()
	expired := func(item *operationItem) bool {
		return now.Sub(item.lastUpdated) > timeout
	}

	for _, item := range m.active {
		if expired(item) {
			m.timeOut(item, now)
		}
	}

	m.retryPending = m.filter(m.retryPending, expired, now)
	m.waiting = m.filter(m.waiting, expired, now)
}

// checkTimeoutsAndRetry runs the timeouts then sends the retries and the waiting
// operations on conn. Operations active on another connection are retried.
func (m *operationsManager) checkTimeoutsAndRetry(conn *tcp.Conn, now time.Time) {
	for _, item := range m.active {
		if item.conn != conn {
			m.scheduleRetry(item)
		}
	}

	m.checkTimeouts(now)

	if len(m.retryPending) > 0 {
		retries := m.retryPending
		m.retryPending = nil
		sort.Slice(retries, func(i, j int) bool { return retries[i].seqNo < retries[j].seqNo })
		for _, item := range retries {
			m.retry(item, conn, now)
		}
	}

	m.scheduleWaiting(conn, now)
}

func (m *operationsManager) retry(item *operationItem, conn *tcp.Conn, now time.Time) {
	maxRetries := m.settings.MaxRetries()
	item.retryCount++
	if maxRetries >= 0 && item.retryCount > maxRetries {
		m.fail(item, fmt.Errorf("%w: %s retried %d times", eserrors.ErrRetriesLimitReached,
			item.operation.Name(), maxRetries), now)
		return
	}

	m.metric.OperationRetried(context.Background(), item.operation.Name())
	m.send(item, conn, now)
}

func (m *operationsManager) timeOut(item *operationItem, now time.Time) {
	m.logger.Warnf("%s timed out after %s, retry count %d", item.operation.Name(), m.settings.OperationTimeout(), item.retryCount)
	m.fail(item, fmt.Errorf("%w: %s did not complete within %s", eserrors.ErrOperationTimedOut,
		item.operation.Name(), m.settings.OperationTimeout()), now)
}

func (m *operationsManager) filter(items []*operationItem, expired func(*operationItem) bool, now time.Time) []*operationItem {
	kept := items[:0]
	for _, item := range items {
		if expired(item) {
			m.timeOut(item, now)
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(items); i++ {
		items[i] = nil
	}
	return kept
}

// cleanUp fails every operation with err
func (m *operationsManager) cleanUp(err error, now time.Time) {
	for _, item := range m.active {
		m.fail(item, err, now)
	}
	for _, item := range m.waiting {
		m.fail(item, err, now)
	}
	for _, item := range m.retryPending {
		m.fail(item, err, now)
	}
	m.waiting = nil
	m.retryPending = nil
}
