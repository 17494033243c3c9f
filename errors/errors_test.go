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

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClasses(t *testing.T) {
	t.Run("connect", func(t *testing.T) {
		err := fmt.Errorf("giving up: %w", ErrReconnectionLimitReached)
		assert.True(t, IsConnect(err))
		assert.False(t, IsTimeout(err))
		assert.False(t, IsProtocol(err))
	})
	t.Run("timeout", func(t *testing.T) {
		assert.True(t, IsTimeout(fmt.Errorf("op: %w", ErrOperationTimedOut)))
		assert.True(t, IsTimeout(ErrDiscoveryTimeout))
	})
	t.Run("protocol", func(t *testing.T) {
		assert.True(t, IsProtocol(fmt.Errorf("read: %w", ErrFrameTooLarge)))
		assert.True(t, IsProtocol(ErrUnknownCommand))
		assert.False(t, IsProtocol(ErrConnectionClosed))
	})
	t.Run("server reported", func(t *testing.T) {
		assert.True(t, IsServerReported(NewServerError("boom")))
		assert.True(t, IsServerReported(fmt.Errorf("read: %w", &AccessDeniedError{Stream: "s", Op: "Read"})))
		assert.True(t, IsServerReported(ErrStreamDeleted))
		assert.False(t, IsServerReported(ErrOperationTimedOut))
	})
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "unexpected error on server", NewServerError("").Error())
	assert.Equal(t, "unexpected error on server: boom", NewServerError("boom").Error())
	assert.Equal(t, "Read access denied for stream 'orders'", (&AccessDeniedError{Stream: "orders", Op: "Read"}).Error())
	assert.Equal(t, "Create access denied", (&AccessDeniedError{Op: "Create"}).Error())

	current := int64(7)
	err := &WrongExpectedVersionError{Stream: "orders", ExpectedVersion: 3, CurrentVersion: &current}
	assert.Contains(t, err.Error(), "Current version: 7")

	var target *WrongExpectedVersionError
	require.True(t, errors.As(fmt.Errorf("append: %w", err), &target))
	assert.EqualValues(t, 3, target.ExpectedVersion)
}
