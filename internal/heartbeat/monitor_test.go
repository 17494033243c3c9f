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

package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitor(t *testing.T) {
	const (
		interval = 750 * time.Millisecond
		timeout  = 1500 * time.Millisecond
		tick     = 200 * time.Millisecond
	)

	t.Run("disarmed monitor never fires", func(t *testing.T) {
		monitor := New(interval, timeout)
		assert.False(t, monitor.Armed())
		assert.Equal(t, None, monitor.Check(time.Now().Add(time.Hour), 0))
	})
	t.Run("silence fires exactly once per connection", func(t *testing.T) {
		monitor := New(interval, timeout)
		start := time.Now()
		monitor.Reset(start, 5)

		var actions []Action
		for now := start; now.Before(start.Add(10 * time.Second)); now = now.Add(tick) {
			if action := monitor.Check(now, 5); action != None {
				actions = append(actions, action)
			}
		}

		assert.Equal(t, []Action{SendHeartbeat, TimedOut}, actions)
		assert.False(t, monitor.Armed())
	})
	t.Run("time out happens after interval plus timeout", func(t *testing.T) {
		monitor := New(interval, timeout)
		start := time.Now()
		monitor.Reset(start, 0)

		assert.Equal(t, None, monitor.Check(start.Add(interval-time.Millisecond), 0))
		assert.Equal(t, SendHeartbeat, monitor.Check(start.Add(interval), 0))
		assert.Equal(t, None, monitor.Check(start.Add(interval+timeout-time.Millisecond), 0))
		assert.Equal(t, TimedOut, monitor.Check(start.Add(interval+timeout), 0))
	})
	t.Run("traffic suppresses heartbeats", func(t *testing.T) {
		monitor := New(interval, timeout)
		start := time.Now()
		monitor.Reset(start, 0)

		received := uint64(0)
		for now := start; now.Before(start.Add(10 * time.Second)); now = now.Add(tick) {
			received++
			assert.Equal(t, None, monitor.Check(now, received))
		}
	})
	t.Run("heartbeat response returns to the interval stage", func(t *testing.T) {
		monitor := New(interval, timeout)
		start := time.Now()
		monitor.Reset(start, 0)

		assert.Equal(t, SendHeartbeat, monitor.Check(start.Add(interval), 0))
		// the response arrives
		assert.Equal(t, None, monitor.Check(start.Add(interval+tick), 1))
		assert.Equal(t, None, monitor.Check(start.Add(2*interval+tick-time.Millisecond), 1))
		assert.Equal(t, SendHeartbeat, monitor.Check(start.Add(2*interval+tick), 1))
	})
	t.Run("reset re-arms after a time out", func(t *testing.T) {
		monitor := New(interval, timeout)
		start := time.Now()
		monitor.Reset(start, 0)
		monitor.Check(start.Add(interval), 0)
		assert.Equal(t, TimedOut, monitor.Check(start.Add(interval+timeout), 0))

		monitor.Reset(start.Add(time.Minute), 0)
		assert.True(t, monitor.Armed())
		monitor.Disarm()
		assert.False(t, monitor.Armed())
	})
	assert.Equal(t, "SendHeartbeat", SendHeartbeat.String())
}
