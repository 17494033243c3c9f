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
	"net"
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/pharmanity/event-store-client/discovery"
	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/eventstream"
	"github.com/pharmanity/event-store-client/future"
	"github.com/pharmanity/event-store-client/internal/heartbeat"
	"github.com/pharmanity/event-store-client/internal/messages"
	"github.com/pharmanity/event-store-client/internal/metric"
	"github.com/pharmanity/event-store-client/internal/tcp"
	"github.com/pharmanity/event-store-client/internal/ticker"
	"github.com/pharmanity/event-store-client/log"
)

// State is the state of a Connection
type State int32

const (
	StateInit State = iota
	StateConnecting
	StateConnected
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateClosed:
		return "Closed"
	default:
		return "Init"
	}
}

type connectingPhase int

const (
	phaseInvalid connectingPhase = iota
	phaseReconnecting
	phaseEndPointDiscovery
	phaseConnectionEstablishing
	phaseAuthentication
	phaseIdentification
	phaseConnected
)

// messages of the engine inbox
type (
	startMessage struct {
		promise future.Completable[struct{}]
	}
	closeMessage struct {
		reason string
	}
	discoveredMessage struct {
		attempt   uint64
		endpoints discovery.NodeEndPoints
		err       error
	}
	connectedMessage struct {
		conn *tcp.Conn
	}
	connectFailedMessage struct {
		generation uint64
		endpoint   string
		err        error
	}
	connClosedMessage struct {
		conn *tcp.Conn
		err  error
	}
	frameMessage struct {
		conn  *tcp.Conn
		frame *tcp.Frame
	}
	startOperationMessage struct {
		operation Operation
	}
	startSubscriptionMessage struct {
		operation subscriptionOperation
	}
	unsubscribeMessage struct {
		operation subscriptionOperation
		reason    SubscriptionDropReason
		err       error
	}
	ackMessage struct {
		subscription *PersistentSubscription
		ids          []uuid.UUID
	}
	nakMessage struct {
		subscription *PersistentSubscription
		ids          []uuid.UUID
		action       NakAction
		message      string
	}
	tickMessage struct{}
)

// engine drives a logical connection. Every state change happens on the run
// goroutine, which consumes the inbox; other goroutines only post messages.
type engine struct {
	name       string
	settings   *Settings
	logger     log.Logger
	discoverer discovery.EndPointDiscoverer
	events     eventstream.Stream
	metric     *metric.ConnectionMetric

	inbox       *queue.Queue
	inboxMu     sync.RWMutex
	inboxClosed bool
	state       *atomic.Int32
	startMu     sync.Mutex
	started     bool
	closing     bool
	ctx         context.Context
	cancel      context.CancelFunc
	ticker      *ticker.Ticker
	stopTicks   chan struct{}
	wg          sync.WaitGroup

	// owned by the run goroutine
	phase                 connectingPhase
	conn                  *tcp.Conn
	generation            uint64
	discoveryAttempt      uint64
	failedEndpoint        string
	reconnectionAttempts  int
	reconnectionStamp     time.Time
	heartbeat             *heartbeat.Monitor
	authCorrelationID     uuid.UUID
	authStamp             time.Time
	identifyCorrelationID uuid.UUID
	identifyStamp         time.Time
	connectPromise        future.Completable[struct{}]
	wasConnected          bool
	operations            *operationsManager
	subscriptions         *subscriptionsManager
}

// enforce compilation error
var (
	_ tcp.Handler         = (*engine)(nil)
	_ subscriptionControl = (*engine)(nil)
)

func newEngine(name string, settings *Settings, discoverer discovery.EndPointDiscoverer, events eventstream.Stream,
	logger log.Logger, connMetric *metric.ConnectionMetric) *engine {
	return &engine{
		name:          name,
		settings:      settings,
		logger:        logger,
		discoverer:    discoverer,
		events:        events,
		metric:        connMetric,
		inbox:         queue.New(64),
		state:         atomic.NewInt32(int32(StateInit)),
		heartbeat:     heartbeat.New(settings.HeartbeatInterval(), settings.HeartbeatTimeout()),
		operations:    newOperationsManager(settings, logger, connMetric),
		subscriptions: newSubscriptionsManager(settings, logger),
	}
}

// State returns the current state
func (e *engine) State() State {
	return State(e.state.Load())
}

func (e *engine) setState(state State) {
	e.state.Store(int32(state))
}

// start runs the engine and returns the promise completed once connected
func (e *engine) start() (future.Completable[struct{}], error) {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if e.State() == StateClosed {
		return nil, eserrors.ErrConnectionClosed
	}
	if e.started {
		return nil, eserrors.ErrAlreadyConnecting
	}
	e.started = true

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.ticker = ticker.New(e.settings.TimerPeriod())
	e.stopTicks = make(chan struct{})
	promise := future.NewCompletable[struct{}]()

	e.wg.Add(2)
	go e.run()
	go e.forwardTicks()
	e.ticker.Start()

	if err := e.post(startMessage{promise: promise}); err != nil {
		return nil, err
	}
	return promise, nil
}

// stop closes the engine and waits for its goroutines
func (e *engine) stop(reason string) {
	e.startMu.Lock()
	if !e.started {
		e.setState(StateClosed)
		e.startMu.Unlock()
		return
	}
	if !e.closing {
		e.closing = true
		// a failed post means the engine already closed itself
		_ = e.post(closeMessage{reason: reason})
	}
	e.startMu.Unlock()
	e.wg.Wait()
}

// post adds a message to the inbox
func (e *engine) post(message any) error {
	e.inboxMu.RLock()
	defer e.inboxMu.RUnlock()
	if e.inboxClosed {
		return eserrors.ErrConnectionClosed
	}
	if err := e.inbox.Put(message); err != nil {
		return eserrors.ErrConnectionClosed
	}
	return nil
}

// HandleFrame implements tcp.Handler
func (e *engine) HandleFrame(conn *tcp.Conn, frame *tcp.Frame) {
	// the engine is closed, the frame is of no use
	_ = e.post(frameMessage{conn: conn, frame: frame})
}

// HandleClosed implements tcp.Handler
func (e *engine) HandleClosed(conn *tcp.Conn, err error) {
	_ = e.post(connClosedMessage{conn: conn, err: err})
}

func (e *engine) unsubscribe(op subscriptionOperation, reason SubscriptionDropReason, err error) error {
	return e.post(unsubscribeMessage{operation: op, reason: reason, err: err})
}

func (e *engine) acknowledge(sub *PersistentSubscription, ids []uuid.UUID) error {
	return e.post(ackMessage{subscription: sub, ids: ids})
}

func (e *engine) nak(sub *PersistentSubscription, ids []uuid.UUID, action NakAction, message string) error {
	return e.post(nakMessage{subscription: sub, ids: ids, action: action, message: message})
}

func (e *engine) forwardTicks() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ticker.Ticks:
			if e.post(tickMessage{}) != nil {
				return
			}
		case <-e.stopTicks:
			return
		}
	}
}

func (e *engine) run() {
	defer e.wg.Done()
	for {
		items, err := e.inbox.Get(64)
		if err != nil {
			return
		}
		for _, item := range items {
			e.handle(item)
		}
		if e.State() == StateClosed {
			e.drain()
			return
		}
	}
}

// drain refuses new messages then handles the ones already posted
func (e *engine) drain() {
	e.inboxMu.Lock()
	e.inboxClosed = true
	e.inboxMu.Unlock()

	for e.inbox.Len() > 0 {
		items, err := e.inbox.Get(e.inbox.Len())
		if err != nil {
			break
		}
		for _, item := range items {
			e.handle(item)
		}
	}
	e.inbox.Dispose()
}

func (e *engine) handle(message any) {
	switch msg := message.(type) {
	case startMessage:
		e.startConnection(msg.promise)
	case closeMessage:
		e.closeConnection(msg.reason, eserrors.ErrConnectionClosed)
	case discoveredMessage:
		e.handleDiscovered(msg)
	case connectedMessage:
		e.handleConnected(msg.conn)
	case connectFailedMessage:
		e.handleConnectFailed(msg)
	case connClosedMessage:
		e.handleConnClosed(msg.conn, msg.err)
	case frameMessage:
		e.handleFrame(msg.conn, msg.frame)
	case startOperationMessage:
		e.startOperation(msg.operation)
	case startSubscriptionMessage:
		e.startSubscription(msg.operation)
	case unsubscribeMessage:
		e.handleUnsubscribe(msg)
	case ackMessage:
		e.handleAck(msg)
	case nakMessage:
		e.handleNak(msg)
	case tickMessage:
		e.timerTick()
	default:
		e.logger.Warnf("connection '%s' received an unknown message %T", e.name, message)
	}
}

func (e *engine) startConnection(promise future.Completable[struct{}]) {
	if e.State() != StateInit {
		promise.Failure(eserrors.ErrAlreadyConnecting)
		return
	}
	e.connectPromise = promise
	e.setState(StateConnecting)
	e.phase = phaseReconnecting
	e.logger.Infof("connection '%s' starting", e.name)
	e.discoverEndPoint("")
}

func (e *engine) discoverEndPoint(failed string) {
	e.phase = phaseEndPointDiscovery
	e.discoveryAttempt++
	attempt := e.discoveryAttempt
	ctx := e.ctx

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		endpoints, err := e.discoverer.Discover(ctx, failed)
		_ = e.post(discoveredMessage{attempt: attempt, endpoints: endpoints, err: err})
	}()
}

func (e *engine) handleDiscovered(msg discoveredMessage) {
	if e.State() != StateConnecting || e.phase != phaseEndPointDiscovery || msg.attempt != e.discoveryAttempt {
		return
	}
	if msg.err != nil {
		e.logger.Warnf("connection '%s' failed to discover an endpoint: %v", e.name, msg.err)
		e.notifyError(fmt.Errorf("%w: %w", eserrors.ErrCannotConnect, msg.err))
		e.phase = phaseReconnecting
		e.reconnectionStamp = time.Now()
		return
	}
	e.establishTCPConnection(msg.endpoints)
}

func (e *engine) selectEndpoint(endpoints discovery.NodeEndPoints) string {
	if e.settings.TLS() != nil && endpoints.SecureTCP != "" {
		return endpoints.SecureTCP
	}
	return endpoints.TCP
}

func (e *engine) establishTCPConnection(endpoints discovery.NodeEndPoints) {
	endpoint := e.selectEndpoint(endpoints)
	if endpoint == "" {
		e.notifyError(fmt.Errorf("%w: no endpoint to connect to", eserrors.ErrCannotConnect))
		e.phase = phaseReconnecting
		e.reconnectionStamp = time.Now()
		return
	}

	e.phase = phaseConnectionEstablishing
	e.generation++
	generation := e.generation
	ctx := e.ctx

	opts := []tcp.ConnOption{
		tcp.WithDialTimeout(e.settings.ConnectTimeout()),
		tcp.WithLogger(e.logger),
	}
	if config := e.settings.TLS(); config != nil {
		config = config.Clone()
		if config.ServerName == "" {
			if host, _, err := net.SplitHostPort(endpoint); err == nil {
				config.ServerName = host
			}
		}
		opts = append(opts, tcp.WithTLS(config))
	}

	e.logger.Debugf("connection '%s' connecting to %s, generation %d", e.name, endpoint, generation)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		conn, err := tcp.Dial(ctx, endpoint, generation, e, opts...)
		if err != nil {
			_ = e.post(connectFailedMessage{generation: generation, endpoint: endpoint, err: err})
			return
		}
		if e.post(connectedMessage{conn: conn}) != nil {
			// the engine is closed
			_ = conn.Close()
		}
	}()
}

func (e *engine) handleConnectFailed(msg connectFailedMessage) {
	if e.State() != StateConnecting || e.phase != phaseConnectionEstablishing || msg.generation != e.generation {
		return
	}
	e.logger.Warnf("connection '%s' failed to connect to %s: %v", e.name, msg.endpoint, msg.err)
	e.failedEndpoint = msg.endpoint
	e.phase = phaseReconnecting
	e.reconnectionStamp = time.Now()
}

func (e *engine) handleConnected(conn *tcp.Conn) {
	if e.State() != StateConnecting || e.phase != phaseConnectionEstablishing || conn.Generation() != e.generation {
		e.logger.Debugf("connection '%s' closing stale connection %s", e.name, conn.ID())
		_ = conn.Close()
		return
	}

	now := time.Now()
	e.conn = conn
	e.heartbeat.Reset(now, conn.ReceivedFrames())
	e.logger.Debugf("connection '%s' established TCP connection %s to %s", e.name, conn.ID(), conn.RemoteAddress())

	credentials := e.settings.DefaultUserCredentials()
	if credentials == nil {
		e.goToIdentification(now)
		return
	}

	e.phase = phaseAuthentication
	e.authCorrelationID = uuid.New()
	e.authStamp = now
	e.send(tcp.NewAuthenticatedFrame(tcp.Authenticate, e.authCorrelationID, credentials.Username, credentials.Password, nil))
}

func (e *engine) goToIdentification(now time.Time) {
	e.phase = phaseIdentification
	e.identifyCorrelationID = uuid.New()
	e.identifyStamp = now
	dto := &messages.IdentifyClient{Version: 1, ConnectionName: e.name}
	e.send(tcp.NewFrame(tcp.IdentifyClient, e.identifyCorrelationID, dto.Marshal()))
}

func (e *engine) goToConnected(now time.Time) {
	e.phase = phaseConnected
	e.setState(StateConnected)
	e.reconnectionAttempts = 0
	e.reconnectionStamp = now
	if e.wasConnected {
		e.metric.Reconnected(context.Background())
	}
	e.wasConnected = true

	endpoint := e.conn.RemoteAddress()
	e.logger.Infof("connection '%s' connected to %s", e.name, endpoint)
	e.events.Publish(TopicConnection, Connected{Name: e.name, Endpoint: endpoint})
	if e.connectPromise != nil {
		e.connectPromise.Success(struct{}{})
	}

	e.operations.checkTimeoutsAndRetry(e.conn, now)
	e.subscriptions.checkTimeoutsAndRetry(e.conn, now)
}

func (e *engine) send(frame *tcp.Frame) {
	if e.conn == nil {
		return
	}
	if e.settings.VerboseLogging() {
		e.logger.Debugf("connection '%s' sending %s", e.name, frame)
	}
	if err := e.conn.Enqueue(frame); err != nil {
		e.logger.Debugf("connection '%s' failed to send %s: %v", e.name, frame.Command, err)
	}
}

func (e *engine) handleConnClosed(conn *tcp.Conn, err error) {
	if e.State() == StateInit || e.State() == StateClosed || conn != e.conn {
		e.logger.Debugf("connection '%s' ignoring close of stale connection %s", e.name, conn.ID())
		return
	}
	reason := "socket closed"
	if err != nil {
		reason = err.Error()
	}
	e.connectionLost(reason)
}

// connectionLost moves the engine back to Connecting after e.conn went away
func (e *engine) connectionLost(reason string) {
	conn := e.conn
	e.conn = nil
	now := time.Now()

	e.logger.Infof("connection '%s' lost TCP connection to %s: %s", e.name, conn.RemoteAddress(), reason)
	e.setState(StateConnecting)
	e.phase = phaseReconnecting
	e.heartbeat.Disarm()
	e.failedEndpoint = conn.RemoteAddress()
	e.reconnectionStamp = now

	e.operations.connectionLost(conn, now)
	e.subscriptions.connectionLost(conn)
	e.events.Publish(TopicConnection, Disconnected{Name: e.name, Endpoint: conn.RemoteAddress()})
}

// closeTCPConnection drops the current socket, the engine reconnects
func (e *engine) closeTCPConnection(reason string) {
	conn := e.conn
	if conn == nil {
		return
	}
	e.connectionLost(reason)
	_ = conn.Close()
}

func (e *engine) reconnectTo(endpoints discovery.NodeEndPoints) {
	if e.State() != StateConnected || e.conn == nil {
		return
	}

	endpoint := e.selectEndpoint(endpoints)
	if endpoint == "" || endpoint == e.conn.RemoteAddress() {
		e.logger.Warnf("connection '%s' asked to reconnect to the current endpoint %s", e.name, e.conn.RemoteAddress())
		return
	}

	e.logger.Infof("connection '%s' reconnecting from %s to %s", e.name, e.conn.RemoteAddress(), endpoint)
	e.closeTCPConnection("reconnecting to " + endpoint)
	e.events.Publish(TopicConnection, Reconnecting{Name: e.name, Attempt: e.reconnectionAttempts})
	e.establishTCPConnection(endpoints)
}

func (e *engine) closeConnection(reason string, err error) {
	if e.State() == StateClosed {
		return
	}

	now := time.Now()
	e.logger.Infof("connection '%s' closing: %s", e.name, reason)
	e.setState(StateClosed)
	e.cancel()
	close(e.stopTicks)
	e.ticker.Stop()
	e.heartbeat.Disarm()

	closeErr := fmt.Errorf("%s: %w", reason, err)
	e.operations.cleanUp(closeErr, now)
	e.subscriptions.cleanUp(closeErr)

	if conn := e.conn; conn != nil {
		e.conn = nil
		_ = conn.Close()
	}
	if e.connectPromise != nil {
		e.connectPromise.Failure(closeErr)
	}
	e.events.Publish(TopicConnection, Closed{Name: e.name, Reason: closeErr})
}

func (e *engine) notifyError(err error) {
	e.logger.Errorf("connection '%s': %v", e.name, err)
	e.events.Publish(TopicConnection, ErrorOccurred{Name: e.name, Err: err})
}

func (e *engine) timerTick() {
	now := time.Now()
	switch e.State() {
	case StateConnecting:
		switch e.phase {
		case phaseReconnecting:
			if now.Sub(e.reconnectionStamp) >= e.settings.ReconnectionDelay() {
				e.reconnectionAttempts++
				maxReconnections := e.settings.MaxReconnections()
				if maxReconnections >= 0 && e.reconnectionAttempts > maxReconnections {
					e.closeConnection("reconnection limit reached",
						fmt.Errorf("%w: %w", eserrors.ErrCannotConnect, eserrors.ErrReconnectionLimitReached))
					return
				}
				e.logger.Infof("connection '%s' reconnecting, attempt %d", e.name, e.reconnectionAttempts)
				e.events.Publish(TopicConnection, Reconnecting{Name: e.name, Attempt: e.reconnectionAttempts})
				e.discoverEndPoint(e.failedEndpoint)
			}
		case phaseAuthentication:
			if now.Sub(e.authStamp) >= e.settings.OperationTimeout() {
				e.logger.Warnf("connection '%s' authentication timed out", e.name)
				e.events.Publish(TopicConnection, AuthenticationFailed{Name: e.name, Reason: "authentication timed out"})
				e.goToIdentification(now)
			}
		case phaseIdentification:
			if now.Sub(e.identifyStamp) >= e.settings.OperationTimeout() {
				e.logger.Warnf("connection '%s' timed out waiting for client to be identified", e.name)
				e.closeTCPConnection("timed out waiting for client to be identified")
			}
		}
		e.manageHeartbeats(now)
		e.operations.checkTimeouts(now)
		e.subscriptions.checkTimeouts(now)
	case StateConnected:
		e.manageHeartbeats(now)
		if e.State() != StateConnected {
			e.operations.checkTimeouts(now)
			e.subscriptions.checkTimeouts(now)
			return
		}
		e.operations.checkTimeoutsAndRetry(e.conn, now)
		e.subscriptions.checkTimeoutsAndRetry(e.conn, now)
	}
}

func (e *engine) manageHeartbeats(now time.Time) {
	if e.conn == nil {
		return
	}
	switch e.heartbeat.Check(now, e.conn.ReceivedFrames()) {
	case heartbeat.SendHeartbeat:
		e.send(tcp.NewFrame(tcp.HeartbeatRequest, uuid.New(), nil))
	case heartbeat.TimedOut:
		e.metric.HeartbeatTimedOut(context.Background())
		e.logger.Warnf("connection '%s' to %s: no response to heartbeat within %s", e.name,
			e.conn.RemoteAddress(), e.settings.HeartbeatInterval()+e.settings.HeartbeatTimeout())
		e.closeTCPConnection("heartbeat timeout")
	}
}

func (e *engine) handleFrame(conn *tcp.Conn, frame *tcp.Frame) {
	if e.State() == StateClosed || conn != e.conn {
		return
	}
	if e.settings.VerboseLogging() {
		e.logger.Debugf("connection '%s' received %s", e.name, frame)
	}

	now := time.Now()
	switch frame.Command {
	case tcp.HeartbeatResponse:
		return
	case tcp.HeartbeatRequest:
		e.send(tcp.NewFrame(tcp.HeartbeatResponse, frame.CorrelationID, nil))
		return
	case tcp.Authenticated, tcp.NotAuthenticated:
		if e.phase == phaseAuthentication && frame.CorrelationID == e.authCorrelationID {
			if frame.Command == tcp.NotAuthenticated {
				e.logger.Warnf("connection '%s' default credentials were rejected", e.name)
				e.events.Publish(TopicConnection, AuthenticationFailed{Name: e.name, Reason: string(frame.Payload)})
			}
			e.goToIdentification(now)
			return
		}
	case tcp.ClientIdentified:
		if e.phase == phaseIdentification && frame.CorrelationID == e.identifyCorrelationID {
			e.goToConnected(now)
			return
		}
	case tcp.BadRequest:
		if frame.CorrelationID == uuid.Nil {
			e.notifyError(eserrors.NewServerError(string(frame.Payload)))
			return
		}
	}

	if item, ok := e.operations.activeOperation(frame.CorrelationID); ok {
		e.inspectOperation(item, frame, now)
		return
	}

	if item, ok := e.subscriptions.activeSubscription(frame.CorrelationID); ok {
		e.inspectSubscription(item, frame, now)
		return
	}

	e.logger.Debugf("connection '%s' dropping %s with unknown correlation id %s", e.name, frame.Command, frame.CorrelationID)
}

func (e *engine) inspectOperation(item *operationItem, frame *tcp.Frame, now time.Time) {
	result := item.operation.InspectPackage(frame)
	if e.settings.VerboseLogging() {
		e.logger.Debugf("connection '%s' %s inspected %s: %s, %s", e.name, item.operation.Name(), frame.Command,
			result.Decision, result.Description)
	}

	switch result.Decision {
	case DoNothing:
	case EndOperation:
		e.operations.complete(item, result.Err, now)
		e.operations.scheduleWaiting(e.conn, now)
	case Retry:
		e.operations.scheduleRetry(item)
	case Reconnect:
		e.operations.scheduleRetry(item)
		e.reconnectTo(result.Endpoints)
	case NotifyError:
		e.notifyError(fmt.Errorf("%s: %w", item.operation.Name(), result.Err))
		e.operations.touch(item, now)
	default:
		e.logger.Warnf("connection '%s' %s returned an unexpected decision %s", e.name, item.operation.Name(), result.Decision)
	}
}

func (e *engine) inspectSubscription(item *subscriptionItem, frame *tcp.Frame, now time.Time) {
	result := item.operation.InspectPackage(frame, item.conn.Generation())
	if e.settings.VerboseLogging() && frame.Command != tcp.StreamEventAppeared && frame.Command != tcp.PersistentSubscriptionEventAppeared {
		e.logger.Debugf("connection '%s' %s inspected %s: %s, %s", e.name, item.operation.Name(), frame.Command,
			result.Decision, result.Description)
	}

	switch result.Decision {
	case DoNothing:
	case Subscribed:
		item.isSubscribed = true
		item.lastUpdated = now
	case EndOperation:
		if item.isSubscribed && frame.Command != tcp.SubscriptionDropped {
			e.send(item.operation.CreateUnsubscriptionPackage(item.correlationID))
		}
		e.subscriptions.remove(item)
		e.subscriptions.scheduleWaiting(e.conn, now)
	case Retry:
		e.subscriptions.scheduleRetry(item)
	case Reconnect:
		e.subscriptions.scheduleRetry(item)
		e.reconnectTo(result.Endpoints)
	case NotifyError:
		e.notifyError(fmt.Errorf("%s: %w", item.operation.Name(), result.Err))
		item.lastUpdated = now
	default:
		e.logger.Warnf("connection '%s' %s returned an unexpected decision %s", e.name, item.operation.Name(), result.Decision)
	}
}

func (e *engine) startOperation(op Operation) {
	now := time.Now()
	switch e.State() {
	case StateInit:
		op.Fail(eserrors.ErrNotStarted)
	case StateClosed:
		op.Fail(fmt.Errorf("%w: connection '%s'", eserrors.ErrConnectionClosed, e.name))
	default:
		item := e.operations.newItem(op, now)
		if err := e.operations.enqueue(item); err != nil {
			op.Fail(err)
			return
		}
		if e.State() == StateConnected {
			e.operations.scheduleWaiting(e.conn, now)
		}
	}
}

func (e *engine) startSubscription(op subscriptionOperation) {
	now := time.Now()
	switch e.State() {
	case StateInit:
		op.DropSubscription(SubscribingError, eserrors.ErrNotStarted)
	case StateClosed:
		op.DropSubscription(ConnectionClosed, fmt.Errorf("%w: connection '%s'", eserrors.ErrConnectionClosed, e.name))
	default:
		if op.IsDropped() {
			return
		}
		if err := e.subscriptions.enqueue(op, now); err != nil {
			op.DropSubscription(SubscribingError, err)
			return
		}
		if e.State() == StateConnected {
			e.subscriptions.scheduleWaiting(e.conn, now)
		}
	}
}

func (e *engine) handleUnsubscribe(msg unsubscribeMessage) {
	if item, ok := e.subscriptions.find(msg.operation); ok {
		if item.isSubscribed && item.conn != nil && item.conn == e.conn {
			e.send(msg.operation.CreateUnsubscriptionPackage(item.correlationID))
		}
		e.subscriptions.remove(item)
		if e.State() == StateConnected {
			e.subscriptions.scheduleWaiting(e.conn, time.Now())
		}
	}
	msg.operation.DropSubscription(msg.reason, msg.err)
}

// subscribedItem returns the record of a persistent subscription confirmed on the current connection
func (e *engine) subscribedItem(sub *PersistentSubscription) (*subscriptionItem, bool) {
	item, ok := e.subscriptions.find(sub)
	if !ok || !item.isSubscribed || e.conn == nil || item.conn != e.conn {
		return nil, false
	}
	return item, true
}

func (e *engine) handleAck(msg ackMessage) {
	item, ok := e.subscribedItem(msg.subscription)
	if !ok {
		e.logger.Debugf("connection '%s' dropping ack of %d events, %s is not subscribed", e.name, len(msg.ids), msg.subscription)
		return
	}
	for _, frame := range msg.subscription.createAckPackages(item.correlationID, msg.ids) {
		e.send(frame)
	}
}

func (e *engine) handleNak(msg nakMessage) {
	item, ok := e.subscribedItem(msg.subscription)
	if !ok {
		e.logger.Debugf("connection '%s' dropping nak of %d events, %s is not subscribed", e.name, len(msg.ids), msg.subscription)
		return
	}
	for _, frame := range msg.subscription.createNakPackages(item.correlationID, msg.ids, msg.action, msg.message) {
		e.send(frame)
	}
}
