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
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/pharmanity/event-store-client/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of the settings.
	Apply(*Settings)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(settings *Settings)

func (f OptionFunc) Apply(s *Settings) {
	f(s)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(s *Settings) {
		s.logger = logger
	})
}

// WithVerboseLogging logs every frame sent and received, and every
// inspection decision, at debug level
func WithVerboseLogging() Option {
	return OptionFunc(func(s *Settings) {
		s.verboseLogging = true
	})
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(s *Settings) {
		s.meterProvider = provider
	})
}

// WithMaxQueueSize bounds the number of operations waiting to be sent
func WithMaxQueueSize(size int) Option {
	return OptionFunc(func(s *Settings) {
		s.maxQueueSize = size
	})
}

// WithMaxConcurrentItems bounds the number of operations and subscriptions in flight
func WithMaxConcurrentItems(items int) Option {
	return OptionFunc(func(s *Settings) {
		s.maxConcurrentItems = items
	})
}

// WithMaxRetries sets the retry limit of an operation. Use Unlimited to retry forever.
func WithMaxRetries(retries int) Option {
	return OptionFunc(func(s *Settings) {
		s.maxRetries = retries
	})
}

// WithMaxReconnections sets the reconnection limit. Use Unlimited to reconnect forever.
func WithMaxReconnections(reconnections int) Option {
	return OptionFunc(func(s *Settings) {
		s.maxReconnections = reconnections
	})
}

// WithRequireMaster sets whether requests must be served by the master node
func WithRequireMaster(requireMaster bool) Option {
	return OptionFunc(func(s *Settings) {
		s.requireMaster = requireMaster
	})
}

// WithReconnectionDelay sets the delay between connection attempts
func WithReconnectionDelay(delay time.Duration) Option {
	return OptionFunc(func(s *Settings) {
		s.reconnectionDelay = delay
	})
}

// WithOperationTimeout sets the operation timeout
func WithOperationTimeout(timeout time.Duration) Option {
	return OptionFunc(func(s *Settings) {
		s.operationTimeout = timeout
	})
}

// WithHeartbeat sets the heartbeat interval and timeout
func WithHeartbeat(interval, timeout time.Duration) Option {
	return OptionFunc(func(s *Settings) {
		s.heartbeatInterval = interval
		s.heartbeatTimeout = timeout
	})
}

// WithConnectTimeout sets the TCP connect timeout
func WithConnectTimeout(timeout time.Duration) Option {
	return OptionFunc(func(s *Settings) {
		s.connectTimeout = timeout
	})
}

// WithDefaultUserCredentials sets the credentials used to authenticate the
// connection and every operation submitted without credentials
func WithDefaultUserCredentials(credentials *UserCredentials) Option {
	return OptionFunc(func(s *Settings) {
		s.defaultUserCredentials = credentials
	})
}

// WithTLS connects over TLS
func WithTLS(config *tls.Config) Option {
	return OptionFunc(func(s *Settings) {
		s.tlsConfig = config
	})
}

// WithConnectionName sets the name the server shows for this connection
func WithConnectionName(name string) Option {
	return OptionFunc(func(s *Settings) {
		s.connectionName = name
	})
}

// WithTimerPeriod sets the period of the engine timer driving timeouts,
// heartbeats and reconnections
func WithTimerPeriod(period time.Duration) Option {
	return OptionFunc(func(s *Settings) {
		s.timerPeriod = period
	})
}

// WithSubscriptionQueueSize bounds the events a subscription buffers while
// its handler is busy
func WithSubscriptionQueueSize(size int) Option {
	return OptionFunc(func(s *Settings) {
		s.subscriptionQueueSize = size
	})
}
