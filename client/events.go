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

// TopicConnection is the eventstream topic carrying the lifecycle events of a Connection
const TopicConnection = "connection"

// Connected is published when the connection is identified by a node
type Connected struct {
	Name     string
	Endpoint string
}

// Disconnected is published when the socket to a node is lost
type Disconnected struct {
	Name     string
	Endpoint string
}

// Reconnecting is published before each reconnection attempt
type Reconnecting struct {
	Name    string
	Attempt int
}

// Closed is published once, when the connection is closed
type Closed struct {
	Name   string
	Reason error
}

// ErrorOccurred is published for errors that do not end an operation
type ErrorOccurred struct {
	Name string
	Err  error
}

// AuthenticationFailed is published when the default credentials are rejected
type AuthenticationFailed struct {
	Name   string
	Reason string
}
