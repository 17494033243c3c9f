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
	"crypto/tls"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/validation"
	"github.com/pharmanity/event-store-client/log"
)

const (
	DefaultMaxQueueSize       = 5000
	DefaultMaxConcurrentItems = 5000
	DefaultMaxRetries         = 10
	DefaultMaxReconnections   = 10
	DefaultReconnectionDelay  = 100 * time.Millisecond
	DefaultOperationTimeout   = 7 * time.Second
	DefaultHeartbeatInterval  = 750 * time.Millisecond
	DefaultHeartbeatTimeout   = 1500 * time.Millisecond
	DefaultConnectTimeout     = time.Second
	DefaultTimerPeriod        = 200 * time.Millisecond

	// Unlimited disables the retry or reconnection limit
	Unlimited = -1
)

// Settings is the immutable configuration of a Connection.
// Build it with NewSettings and pass it to New.
type Settings struct {
	logger                 log.Logger
	verboseLogging         bool
	meterProvider          metric.MeterProvider
	maxQueueSize           int
	maxConcurrentItems     int
	maxRetries             int
	maxReconnections       int
	requireMaster          bool
	reconnectionDelay      time.Duration
	operationTimeout       time.Duration
	heartbeatInterval      time.Duration
	heartbeatTimeout       time.Duration
	connectTimeout         time.Duration
	timerPeriod            time.Duration
	defaultUserCredentials *UserCredentials
	tlsConfig              *tls.Config
	connectionName         string
	subscriptionQueueSize  int
}

// compilation error
var _ validation.Validator = (*Settings)(nil)

// NewSettings creates Settings with the defaults overridden by opts
func NewSettings(opts ...Option) *Settings {
	settings := &Settings{
		logger:                log.DefaultLogger,
		maxQueueSize:          DefaultMaxQueueSize,
		maxConcurrentItems:    DefaultMaxConcurrentItems,
		maxRetries:            DefaultMaxRetries,
		maxReconnections:      DefaultMaxReconnections,
		requireMaster:         true,
		reconnectionDelay:     DefaultReconnectionDelay,
		operationTimeout:      DefaultOperationTimeout,
		heartbeatInterval:     DefaultHeartbeatInterval,
		heartbeatTimeout:      DefaultHeartbeatTimeout,
		connectTimeout:        DefaultConnectTimeout,
		timerPeriod:           DefaultTimerPeriod,
		subscriptionQueueSize: DefaultSubscriptionQueueSize,
	}

	for _, opt := range opts {
		opt.Apply(settings)
	}
	return settings
}

// DefaultSettings returns the default settings
func DefaultSettings() *Settings {
	return NewSettings()
}

// Validate checks the settings
func (x *Settings) Validate() error {
	err := validation.
		New(validation.AllErrors()).
		AddAssertion(x.logger != nil, "logger is required").
		AddAssertion(x.maxQueueSize > 0, "maxQueueSize must be greater than 0").
		AddAssertion(x.maxConcurrentItems > 0, "maxConcurrentItems must be greater than 0").
		AddAssertion(x.subscriptionQueueSize > 0, "subscriptionQueueSize must be greater than 0").
		AddAssertion(x.maxRetries >= Unlimited, "maxRetries must be -1 or greater").
		AddAssertion(x.maxReconnections >= Unlimited, "maxReconnections must be -1 or greater").
		AddValidator(validation.NewDurationValidator("reconnectionDelay", x.reconnectionDelay, 0)).
		AddValidator(validation.NewDurationValidator("operationTimeout", x.operationTimeout, time.Millisecond)).
		AddValidator(validation.NewDurationValidator("heartbeatInterval", x.heartbeatInterval, time.Millisecond)).
		AddValidator(validation.NewDurationValidator("heartbeatTimeout", x.heartbeatTimeout, time.Millisecond)).
		AddValidator(validation.NewDurationValidator("connectTimeout", x.connectTimeout, time.Millisecond)).
		AddValidator(validation.NewDurationValidator("timerPeriod", x.timerPeriod, time.Millisecond)).
		AddAssertion(x.defaultUserCredentials == nil || x.defaultUserCredentials.Username != "", "default credentials require a username").
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", eserrors.ErrInvalidSettings, err)
	}
	return nil
}

// Logger returns the logger
func (x *Settings) Logger() log.Logger {
	return x.logger
}

// VerboseLogging reports whether every frame and decision is logged at debug level
func (x *Settings) VerboseLogging() bool {
	return x.verboseLogging
}

// MeterProvider returns the meter provider, nil when the global one is used
func (x *Settings) MeterProvider() metric.MeterProvider {
	return x.meterProvider
}

// MaxQueueSize returns the maximum number of operations waiting for a slot
func (x *Settings) MaxQueueSize() int {
	return x.maxQueueSize
}

// MaxConcurrentItems returns the maximum number of operations and subscriptions in flight
func (x *Settings) MaxConcurrentItems() int {
	return x.maxConcurrentItems
}

// MaxRetries returns the retry limit of a single operation
func (x *Settings) MaxRetries() int {
	return x.maxRetries
}

// MaxReconnections returns the reconnection limit
func (x *Settings) MaxReconnections() int {
	return x.maxReconnections
}

// RequireMaster reports whether requests must be served by the master node
func (x *Settings) RequireMaster() bool {
	return x.requireMaster
}

// ReconnectionDelay returns the delay between two connection attempts
func (x *Settings) ReconnectionDelay() time.Duration {
	return x.reconnectionDelay
}

// OperationTimeout returns the operation timeout
func (x *Settings) OperationTimeout() time.Duration {
	return x.operationTimeout
}

// HeartbeatInterval returns the silence after which a heartbeat is sent
func (x *Settings) HeartbeatInterval() time.Duration {
	return x.heartbeatInterval
}

// HeartbeatTimeout returns how long to wait for traffic after a heartbeat
func (x *Settings) HeartbeatTimeout() time.Duration {
	return x.heartbeatTimeout
}

// ConnectTimeout returns the TCP connect timeout
func (x *Settings) ConnectTimeout() time.Duration {
	return x.connectTimeout
}

// DefaultUserCredentials returns the credentials used when an operation carries none
func (x *Settings) DefaultUserCredentials() *UserCredentials {
	return x.defaultUserCredentials
}

// TLS returns the TLS configuration, nil for plain TCP
func (x *Settings) TLS() *tls.Config {
	return x.tlsConfig
}

// ConnectionName returns the name sent to the server on identification
func (x *Settings) ConnectionName() string {
	return x.connectionName
}

// SubscriptionQueueSize returns the number of events a subscription buffers
// before it is dropped with ProcessingQueueOverflow
func (x *Settings) SubscriptionQueueSize() int {
	return x.subscriptionQueueSize
}

// TimerPeriod returns the period of the engine timer
func (x *Settings) TimerPeriod() time.Duration {
	return x.timerPeriod
}
