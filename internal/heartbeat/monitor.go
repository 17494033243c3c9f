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

// Package heartbeat detects dead connections from the inbound frame count.
package heartbeat

import "time"

// Action is what the connection should do after a check
type Action int

const (
	// None means the connection is healthy or a check is still pending
	None Action = iota
	// SendHeartbeat asks for a heartbeat request to be written
	SendHeartbeat
	// TimedOut means no traffic came back in time; the connection is dead
	TimedOut
)

// String returns the action name
func (a Action) String() string {
	switch a {
	case SendHeartbeat:
		return "SendHeartbeat"
	case TimedOut:
		return "TimedOut"
	default:
		return "None"
	}
}

// Monitor runs the two stage liveness check of a single connection.
// In the interval stage it waits for heartbeatInterval of silence, then asks
// for a heartbeat and enters the timeout stage; if the timeout stage also
// elapses in silence it reports TimedOut once and disarms itself until Reset.
// Any received frame returns the monitor to a fresh interval stage.
//
// Monitor is not safe for concurrent use; it is driven by the engine timer.
type Monitor struct {
	interval time.Duration
	timeout  time.Duration

	armed         bool
	timeoutStage  bool
	stageStarted  time.Time
	lastPackageNo uint64
}

// New creates a disarmed Monitor
func New(interval, timeout time.Duration) *Monitor {
	return &Monitor{interval: interval, timeout: timeout}
}

// Reset arms the monitor for a new connection
func (m *Monitor) Reset(now time.Time, receivedFrames uint64) {
	m.armed = true
	m.timeoutStage = false
	m.stageStarted = now
	m.lastPackageNo = receivedFrames
}

// Disarm stops the monitor until the next Reset
func (m *Monitor) Disarm() {
	m.armed = false
}

// Armed reports whether the monitor is checking a connection
func (m *Monitor) Armed() bool {
	return m.armed
}

// Check compares the received frame count with the previous check and
// returns the action to perform
func (m *Monitor) Check(now time.Time, receivedFrames uint64) Action {
	if !m.armed {
		return None
	}

	if receivedFrames != m.lastPackageNo {
		m.lastPackageNo = receivedFrames
		m.timeoutStage = false
		m.stageStarted = now
		return None
	}

	elapsed := now.Sub(m.stageStarted)
	if !m.timeoutStage {
		if elapsed < m.interval {
			return None
		}
		m.timeoutStage = true
		m.stageStarted = now
		return SendHeartbeat
	}

	if elapsed < m.timeout {
		return None
	}

	m.armed = false
	return TimedOut
}
