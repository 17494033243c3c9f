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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/log"
)

func TestSettings(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		settings := DefaultSettings()
		require.NoError(t, settings.Validate())
		assert.Equal(t, DefaultMaxQueueSize, settings.MaxQueueSize())
		assert.Equal(t, DefaultMaxConcurrentItems, settings.MaxConcurrentItems())
		assert.Equal(t, DefaultMaxRetries, settings.MaxRetries())
		assert.Equal(t, DefaultMaxReconnections, settings.MaxReconnections())
		assert.Equal(t, DefaultReconnectionDelay, settings.ReconnectionDelay())
		assert.Equal(t, DefaultOperationTimeout, settings.OperationTimeout())
		assert.Equal(t, DefaultHeartbeatInterval, settings.HeartbeatInterval())
		assert.Equal(t, DefaultHeartbeatTimeout, settings.HeartbeatTimeout())
		assert.Equal(t, DefaultConnectTimeout, settings.ConnectTimeout())
		assert.Equal(t, DefaultTimerPeriod, settings.TimerPeriod())
		assert.Equal(t, DefaultSubscriptionQueueSize, settings.SubscriptionQueueSize())
		assert.True(t, settings.RequireMaster())
		assert.False(t, settings.VerboseLogging())
		assert.Nil(t, settings.TLS())
		assert.Nil(t, settings.DefaultUserCredentials())
		assert.NotNil(t, settings.Logger())
		assert.Nil(t, settings.MeterProvider())
	})
	t.Run("With options", func(t *testing.T) {
		credentials := NewUserCredentials("admin", "changeit")
		config := &tls.Config{MinVersion: tls.VersionTLS12}
		settings := NewSettings(
			WithLogger(log.DiscardLogger),
			WithVerboseLogging(),
			WithMaxQueueSize(10),
			WithMaxConcurrentItems(5),
			WithMaxRetries(Unlimited),
			WithMaxReconnections(3),
			WithRequireMaster(false),
			WithReconnectionDelay(time.Second),
			WithOperationTimeout(3*time.Second),
			WithHeartbeat(time.Second, 2*time.Second),
			WithConnectTimeout(4*time.Second),
			WithDefaultUserCredentials(credentials),
			WithTLS(config),
			WithConnectionName("orders"),
			WithTimerPeriod(50*time.Millisecond),
			WithSubscriptionQueueSize(16),
		)
		require.NoError(t, settings.Validate())
		assert.True(t, settings.VerboseLogging())
		assert.Equal(t, 10, settings.MaxQueueSize())
		assert.Equal(t, 5, settings.MaxConcurrentItems())
		assert.Equal(t, Unlimited, settings.MaxRetries())
		assert.Equal(t, 3, settings.MaxReconnections())
		assert.False(t, settings.RequireMaster())
		assert.Equal(t, time.Second, settings.ReconnectionDelay())
		assert.Equal(t, 3*time.Second, settings.OperationTimeout())
		assert.Equal(t, time.Second, settings.HeartbeatInterval())
		assert.Equal(t, 2*time.Second, settings.HeartbeatTimeout())
		assert.Equal(t, 4*time.Second, settings.ConnectTimeout())
		assert.Same(t, credentials, settings.DefaultUserCredentials())
		assert.Same(t, config, settings.TLS())
		assert.Equal(t, "orders", settings.ConnectionName())
		assert.Equal(t, 50*time.Millisecond, settings.TimerPeriod())
		assert.Equal(t, 16, settings.SubscriptionQueueSize())
	})
	t.Run("With invalid values", func(t *testing.T) {
		settings := NewSettings(
			WithMaxQueueSize(0),
			WithMaxRetries(-2),
			WithOperationTimeout(0),
			WithDefaultUserCredentials(NewUserCredentials("", "secret")),
		)
		err := settings.Validate()
		require.ErrorIs(t, err, eserrors.ErrInvalidSettings)
		assert.Contains(t, err.Error(), "maxQueueSize")
		assert.Contains(t, err.Error(), "maxRetries")
		assert.Contains(t, err.Error(), "operationTimeout")
		assert.Contains(t, err.Error(), "username")
	})
	t.Run("With credentials hiding the password", func(t *testing.T) {
		credentials := NewUserCredentials("admin", "changeit")
		assert.NotContains(t, credentials.String(), "changeit")
		assert.Contains(t, credentials.String(), "admin")
	})
}
