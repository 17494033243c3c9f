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
)

// Configuration errors.
var (
	// ErrInvalidSettings is returned when the connection settings fail validation.
	ErrInvalidSettings = errors.New("invalid connection settings")
	// ErrInvalidClusterSettings is returned when the cluster settings fail validation.
	ErrInvalidClusterSettings = errors.New("invalid cluster settings")
	// ErrInvalidConnectionString is returned when a connection string cannot be parsed.
	ErrInvalidConnectionString = errors.New("invalid connection string")
	// ErrInvalidArgument is returned when an operation is submitted with invalid arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Connect errors.
var (
	// ErrConnectionClosed is returned to operations that were still pending when
	// the connection they were sent on went away, and to every submission made
	// after the connection has been closed.
	ErrConnectionClosed = errors.New("connection is closed")
	// ErrCannotConnect is returned when the engine gave up connecting to the server.
	ErrCannotConnect = errors.New("could not connect")
	// ErrReconnectionLimitReached is returned when the configured max reconnection attempts is exceeded.
	ErrReconnectionLimitReached = errors.New("reconnection limit reached")
	// ErrDiscoveryFailed is returned when no cluster node could be elected.
	ErrDiscoveryFailed = errors.New("failed to discover candidate node")
	// ErrNoCandidate is returned by an election round when no member qualifies.
	ErrNoCandidate = errors.New("no candidate node")
	// ErrAlreadyConnecting is returned when Connect is called more than once.
	ErrAlreadyConnecting = errors.New("connection is already started")
	// ErrNotStarted is returned when an operation is submitted before Connect.
	ErrNotStarted = errors.New("connection has not been started")
)

// Timeout errors.
var (
	// ErrOperationTimedOut is returned when an operation did not complete within its timeout.
	ErrOperationTimedOut = errors.New("operation timed out")
	// ErrDiscoveryTimeout is returned when a gossip seed did not answer within the gossip timeout.
	ErrDiscoveryTimeout = errors.New("gossip request timed out")
)

// Protocol errors. They are fatal to the physical connection.
var (
	// ErrFrameTooLarge is returned when a frame declares a length above the sanity bound.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrInvalidFrame is returned when a frame is malformed.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrUnknownCommand is returned when a frame carries a command code the client does not know.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrCommandNotExpected is returned when a response carries a command the operation did not expect.
	ErrCommandNotExpected = errors.New("command not expected")
	// ErrInvalidPayload is returned when a payload cannot be decoded.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Dispatcher errors.
var (
	// ErrRetriesLimitReached is returned when an operation was retried more than allowed.
	ErrRetriesLimitReached = errors.New("retries limit reached")
	// ErrQueueOverflow is returned when the waiting queue is full.
	ErrQueueOverflow = errors.New("operation queue is full")
)

// Server-reported errors.
var (
	// ErrNotAuthenticated is returned when the server rejected the credentials.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStreamDeleted is returned when the target stream has been deleted.
	ErrStreamDeleted = errors.New("stream deleted")
	// ErrInvalidTransaction is returned when a write belongs to an invalid transaction.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrPersistentSubscriptionAlreadyExists is returned when the subscription group exists.
	ErrPersistentSubscriptionAlreadyExists = errors.New("persistent subscription already exists")
	// ErrSubscriptionNotFound is returned when acknowledging on an unknown subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// ServerError is returned when the server reported a generic failure.
type ServerError struct {
	Message string
}

// Error implements error.
func (e *ServerError) Error() string {
	if e.Message == "" {
		return "unexpected error on server"
	}
	return fmt.Sprintf("unexpected error on server: %s", e.Message)
}

// NewServerError creates a ServerError
func NewServerError(message string) *ServerError {
	return &ServerError{Message: message}
}

// AccessDeniedError is returned when the user is not allowed on the target.
type AccessDeniedError struct {
	Stream string
	Op     string
}

// Error implements error.
func (e *AccessDeniedError) Error() string {
	if e.Stream == "" {
		return fmt.Sprintf("%s access denied", e.Op)
	}
	return fmt.Sprintf("%s access denied for stream '%s'", e.Op, e.Stream)
}

// WrongExpectedVersionError is returned when an append did not match the expected version.
type WrongExpectedVersionError struct {
	Stream          string
	ExpectedVersion int64
	CurrentVersion  *int64
}

// Error implements error.
func (e *WrongExpectedVersionError) Error() string {
	if e.CurrentVersion == nil {
		return fmt.Sprintf("append failed due to WrongExpectedVersion. Stream: %s, Expected version: %d", e.Stream, e.ExpectedVersion)
	}
	return fmt.Sprintf("append failed due to WrongExpectedVersion. Stream: %s, Expected version: %d, Current version: %d",
		e.Stream, e.ExpectedVersion, *e.CurrentVersion)
}

// IsConnect reports whether err belongs to the connect class.
func IsConnect(err error) bool {
	return errors.Is(err, ErrConnectionClosed) ||
		errors.Is(err, ErrCannotConnect) ||
		errors.Is(err, ErrReconnectionLimitReached) ||
		errors.Is(err, ErrDiscoveryFailed)
}

// IsTimeout reports whether err belongs to the timeout class.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrOperationTimedOut) || errors.Is(err, ErrDiscoveryTimeout)
}

// IsProtocol reports whether err belongs to the protocol class.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrFrameTooLarge) ||
		errors.Is(err, ErrInvalidFrame) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidPayload)
}

// IsServerReported reports whether err was reported by the server for a single operation.
func IsServerReported(err error) bool {
	var serverErr *ServerError
	var accessErr *AccessDeniedError
	var versionErr *WrongExpectedVersionError
	return errors.As(err, &serverErr) ||
		errors.As(err, &accessErr) ||
		errors.As(err, &versionErr) ||
		errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrStreamDeleted) ||
		errors.Is(err, ErrInvalidTransaction) ||
		errors.Is(err, ErrPersistentSubscriptionAlreadyExists)
}
