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

	"github.com/google/uuid"

	"github.com/pharmanity/event-store-client/discovery"
	"github.com/pharmanity/event-store-client/discovery/static"
	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/eventstream"
	"github.com/pharmanity/event-store-client/future"
	"github.com/pharmanity/event-store-client/internal/metric"
	"github.com/pharmanity/event-store-client/internal/validation"
)

// Connection is a logical connection to an event store node or cluster.
// It survives the loss of the underlying TCP connection: pending operations
// are retried and subscriptions are restored once reconnected.
//
// All methods are safe for concurrent use.
type Connection struct {
	engine   *engine
	settings *Settings
	events   eventstream.Stream
}

// New creates a Connection that locates its node with discoverer
func New(settings *Settings, discoverer discovery.EndPointDiscoverer) (*Connection, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if discoverer == nil {
		return nil, fmt.Errorf("%w: endpoint discoverer is required", eserrors.ErrInvalidSettings)
	}

	name := settings.ConnectionName()
	if name == "" {
		name = "ES-" + uuid.NewString()
	}

	connMetric, err := metric.NewConnectionMetric(metric.NewProvider(settings.MeterProvider()).Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create the connection metric: %w", err)
	}

	logger := settings.Logger().With("connection", name)
	events := eventstream.New()
	return &Connection{
		engine:   newEngine(name, settings, discoverer, events, logger, connMetric),
		settings: settings,
		events:   events,
	}, nil
}

// NewSingleNode creates a Connection to the node listening on endpoint, a host:port
func NewSingleNode(settings *Settings, endpoint string) (*Connection, error) {
	if err := validation.NewEndPointValidator("endpoint", endpoint).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", eserrors.ErrInvalidSettings, err)
	}
	secure := ""
	if settings != nil && settings.TLS() != nil {
		secure = endpoint
	}
	return New(settings, static.NewDiscoverer(endpoint, secure))
}

// NewCluster creates a Connection to the master, or best node, of a cluster
func NewCluster(settings *Settings, cluster *discovery.ClusterSettings) (*Connection, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	if cluster == nil {
		return nil, fmt.Errorf("%w: cluster settings are required", eserrors.ErrInvalidClusterSettings)
	}
	logger := settings.Logger().With("discovery", "cluster")
	return New(settings, discovery.NewClusterDiscoverer(cluster, settings.RequireMaster(), discovery.WithLogger(logger)))
}

// Name returns the connection name
func (c *Connection) Name() string {
	return c.engine.name
}

// State returns the connection state
func (c *Connection) State() State {
	return c.engine.State()
}

// Settings returns the connection settings
func (c *Connection) Settings() *Settings {
	return c.settings
}

// Subscribe returns a subscriber receiving the connection lifecycle events:
// Connected, Disconnected, Reconnecting, Closed, ErrorOccurred and AuthenticationFailed
func (c *Connection) Subscribe() eventstream.Subscriber {
	sub := c.events.AddSubscriber()
	c.events.Subscribe(sub, TopicConnection)
	return sub
}

// Unsubscribe stops sub from receiving lifecycle events
func (c *Connection) Unsubscribe(sub eventstream.Subscriber) {
	c.events.Unsubscribe(sub, TopicConnection)
	c.events.RemoveSubscriber(sub)
}

// Connect starts the connection and blocks until it reached the Connected state,
// the connection gave up or ctx is done. The connection keeps trying to connect in the
// background when ctx is done first.
func (c *Connection) Connect(ctx context.Context) error {
	promise, err := c.engine.start()
	if err != nil {
		return err
	}
	_, err = promise.Future().Await(ctx)
	return err
}

// Close closes the connection. Pending operations fail with ErrConnectionClosed
// and subscriptions are dropped with ConnectionClosed.
func (c *Connection) Close() {
	c.engine.stop("connection close requested by client")
	c.events.Close()
}

// Execute hands op to the connection. The outcome is reported through op.
func (c *Connection) Execute(ctx context.Context, op Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch c.State() {
	case StateInit:
		return eserrors.ErrNotStarted
	case StateClosed:
		return fmt.Errorf("%w: connection '%s'", eserrors.ErrConnectionClosed, c.Name())
	}
	return c.engine.post(startOperationMessage{operation: op})
}

// ReadStreamEventsForward reads count events of stream starting at start
func (c *Connection) ReadStreamEventsForward(ctx context.Context, stream string, start int64, count int,
	resolveLinkTos bool, credentials *UserCredentials) future.Future[*StreamEventsSlice] {
	return c.readStreamEvents(ctx, Forward, stream, start, count, resolveLinkTos, credentials)
}

// ReadStreamEventsBackward reads count events of stream backwards starting at start,
// StreamEnd reads from the last event
func (c *Connection) ReadStreamEventsBackward(ctx context.Context, stream string, start int64, count int,
	resolveLinkTos bool, credentials *UserCredentials) future.Future[*StreamEventsSlice] {
	return c.readStreamEvents(ctx, Backward, stream, start, count, resolveLinkTos, credentials)
}

func (c *Connection) readStreamEvents(ctx context.Context, direction ReadDirection, stream string, start int64, count int,
	resolveLinkTos bool, credentials *UserCredentials) future.Future[*StreamEventsSlice] {
	op := NewReadStreamEventsOperation(direction, stream, start, count, resolveLinkTos, c.settings.RequireMaster(), c.credentials(credentials))

	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("stream", stream)).
		AddAssertion(count > 0, "count must be positive").
		AddAssertion(count <= MaxReadSize, fmt.Sprintf("count must not exceed %d", MaxReadSize)).
		AddAssertion(direction == Backward || start >= 0, "start must not be negative")
	if err := chain.Validate(); err != nil {
		op.Fail(fmt.Errorf("%w: %w", eserrors.ErrInvalidArgument, err))
		return op.Future()
	}

	c.submit(ctx, op)
	return op.Future()
}

// AppendToStream appends events to stream when its version matches expectedVersion
func (c *Connection) AppendToStream(ctx context.Context, stream string, expectedVersion int64, events []EventData,
	credentials *UserCredentials) future.Future[*WriteResult] {
	op := NewAppendToStreamOperation(stream, expectedVersion, events, c.settings.RequireMaster(), c.credentials(credentials))

	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("stream", stream)).
		AddAssertion(expectedVersion >= ExpectedVersionStreamExists, "invalid expected version")
	if err := chain.Validate(); err != nil {
		op.Fail(fmt.Errorf("%w: %w", eserrors.ErrInvalidArgument, err))
		return op.Future()
	}

	c.submit(ctx, op)
	return op.Future()
}

// CreatePersistentSubscription creates the subscription group on stream
func (c *Connection) CreatePersistentSubscription(ctx context.Context, stream, group string,
	settings PersistentSubscriptionSettings, credentials *UserCredentials) future.Future[struct{}] {
	op := NewCreatePersistentSubscriptionOperation(stream, group, settings, c.credentials(credentials))

	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("stream", stream)).
		AddValidator(validation.NewEmptyStringValidator("group", group))
	if err := chain.Validate(); err != nil {
		op.Fail(fmt.Errorf("%w: %w", eserrors.ErrInvalidArgument, err))
		return op.Future()
	}

	c.submit(ctx, op)
	return op.Future()
}

// SubscribeToStream pushes the events appended to stream from now on to handler.
// The returned subscription is usable at once, its Future completes on confirmation.
func (c *Connection) SubscribeToStream(ctx context.Context, stream string, resolveLinkTos bool, handler EventHandler,
	credentials *UserCredentials) *VolatileSubscription {
	sub := newVolatileSubscription(stream, resolveLinkTos, handler, c.credentials(credentials),
		c.settings.SubscriptionQueueSize(), c.engine.logger)

	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("stream", stream)).
		AddAssertion(handler != nil, "handler is required")
	c.subscribe(ctx, sub, chain)
	return sub
}

// SubscribeToAll pushes the events appended to any stream from now on to handler
func (c *Connection) SubscribeToAll(ctx context.Context, resolveLinkTos bool, handler EventHandler,
	credentials *UserCredentials) *VolatileSubscription {
	sub := newVolatileSubscription("", resolveLinkTos, handler, c.credentials(credentials),
		c.settings.SubscriptionQueueSize(), c.engine.logger)

	chain := validation.New(validation.FailFast()).
		AddAssertion(handler != nil, "handler is required")
	c.subscribe(ctx, sub, chain)
	return sub
}

// ConnectToPersistentSubscription joins the group of stream. bufferSize bounds
// the events in flight; with autoAck an event is acknowledged once handled.
func (c *Connection) ConnectToPersistentSubscription(ctx context.Context, stream, group string, handler EventHandler,
	bufferSize int, autoAck bool, credentials *UserCredentials) *PersistentSubscription {
	sub := newPersistentSubscription(stream, group, handler, bufferSize, autoAck, c.credentials(credentials),
		c.settings.SubscriptionQueueSize(), c.engine.logger)

	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("stream", stream)).
		AddValidator(validation.NewEmptyStringValidator("group", group)).
		AddAssertion(bufferSize > 0, "bufferSize must be positive").
		AddAssertion(handler != nil, "handler is required")
	c.subscribe(ctx, sub, chain)
	return sub
}

func (c *Connection) credentials(credentials *UserCredentials) *UserCredentials {
	if credentials != nil {
		return credentials
	}
	return c.settings.DefaultUserCredentials()
}

func (c *Connection) submit(ctx context.Context, op Operation) {
	if err := c.Execute(ctx, op); err != nil {
		op.Fail(err)
	}
}

func (c *Connection) subscribe(ctx context.Context, sub subscriptionOperation, chain *validation.Chain) {
	if err := chain.Validate(); err != nil {
		sub.DropSubscription(SubscribingError, fmt.Errorf("%w: %w", eserrors.ErrInvalidArgument, err))
		return
	}
	if err := ctx.Err(); err != nil {
		sub.DropSubscription(SubscribingError, err)
		return
	}

	engineMetric := c.engine.metric
	sub.onDropped(func(reason SubscriptionDropReason) {
		engineMetric.SubscriptionDropped(context.Background(), reason.String())
	})
	sub.bind(c.engine)

	switch c.State() {
	case StateInit:
		sub.DropSubscription(SubscribingError, eserrors.ErrNotStarted)
		return
	case StateClosed:
		sub.DropSubscription(ConnectionClosed, fmt.Errorf("%w: connection '%s'", eserrors.ErrConnectionClosed, c.Name()))
		return
	}
	if err := c.engine.post(startSubscriptionMessage{operation: sub}); err != nil {
		sub.DropSubscription(ConnectionClosed, err)
	}
}
