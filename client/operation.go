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
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"

	"github.com/pharmanity/event-store-client/discovery"
	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/future"
	"github.com/pharmanity/event-store-client/internal/messages"
	"github.com/pharmanity/event-store-client/internal/tcp"
)

// Decision tells the engine what to do with a response
type Decision int

const (
	// DoNothing keeps the operation as it is
	DoNothing Decision = iota
	// EndOperation removes the operation, its future is completed
	EndOperation
	// Retry sends the request again with a fresh correlation id
	Retry
	// Reconnect retries the request after reconnecting to the given endpoints
	Reconnect
	// NotifyError reports the error and keeps the operation
	NotifyError
	// Subscribed marks a subscription as confirmed
	Subscribed
)

// String returns the decision name
func (d Decision) String() string {
	switch d {
	case EndOperation:
		return "EndOperation"
	case Retry:
		return "Retry"
	case Reconnect:
		return "Reconnect"
	case NotifyError:
		return "NotifyError"
	case Subscribed:
		return "Subscribed"
	default:
		return "DoNothing"
	}
}

// InspectionResult is the outcome of inspecting a response
type InspectionResult struct {
	Decision    Decision
	Description string
	// Endpoints is the node to reconnect to on Reconnect
	Endpoints discovery.NodeEndPoints
	// Err is the failure of an ended operation, or the error to report on NotifyError
	Err error
}

// Operation is a request/response exchange executed by a Connection.
// The engine calls its methods from a single goroutine.
type Operation interface {
	// Name identifies the operation in logs and metrics
	Name() string
	// ReplaySafe reports whether the request can be sent again after the
	// connection it was sent on was lost
	ReplaySafe() bool
	// CreateNetworkPackage builds the request frame
	CreateNetworkPackage(correlationID uuid.UUID) (*tcp.Frame, error)
	// InspectPackage classifies a response. An EndOperation decision completes the operation.
	InspectPackage(frame *tcp.Frame) InspectionResult
	// Fail completes the operation with err
	Fail(err error)
}

type payload interface {
	Marshal() []byte
	Unmarshal([]byte) error
}

// operation is the base of every request/response operation.
// TResp is the response DTO and TResult the value the future is completed with.
type operation[TResp payload, TResult any] struct {
	name            string
	replaySafe      bool
	requestCommand  tcp.Command
	responseCommand tcp.Command
	credentials     *UserCredentials
	request         func() payload
	newResponse     func() TResp
	// inspect classifies the response. On EndOperation a nil error completes
	// the future with transform, otherwise it fails the future.
	inspect   func(TResp) (InspectionResult, error)
	transform func(TResp) TResult
	promise   future.Completable[TResult]
}

// Name returns the operation name
func (o *operation[TResp, TResult]) Name() string {
	return o.name
}

// ReplaySafe reports whether the operation is idempotent
func (o *operation[TResp, TResult]) ReplaySafe() bool {
	return o.replaySafe
}

// Future returns the future completed with the operation result
func (o *operation[TResp, TResult]) Future() future.Future[TResult] {
	return o.promise.Future()
}

// Fail completes the operation with err
func (o *operation[TResp, TResult]) Fail(err error) {
	o.promise.Failure(err)
}

// CreateNetworkPackage builds the request frame
func (o *operation[TResp, TResult]) CreateNetworkPackage(correlationID uuid.UUID) (*tcp.Frame, error) {
	return newPackage(o.requestCommand, correlationID, o.credentials, o.request().Marshal()), nil
}

// InspectPackage classifies a response
func (o *operation[TResp, TResult]) InspectPackage(frame *tcp.Frame) InspectionResult {
	switch frame.Command {
	case o.responseCommand:
		response := o.newResponse()
		if err := response.Unmarshal(frame.Payload); err != nil {
			o.promise.Failure(err)
			return InspectionResult{Decision: EndOperation, Description: "InvalidPayload", Err: err}
		}

		result, err := o.inspect(response)
		if result.Decision == EndOperation {
			if err != nil {
				o.promise.Failure(err)
				result.Err = err
			} else {
				o.promise.Success(o.transform(response))
			}
		}
		return result
	case tcp.NotAuthenticated:
		err := notAuthenticated(frame.Payload)
		o.promise.Failure(err)
		return InspectionResult{Decision: EndOperation, Description: "NotAuthenticated", Err: err}
	case tcp.BadRequest:
		err := eserrors.NewServerError(string(frame.Payload))
		o.promise.Failure(err)
		return InspectionResult{Decision: EndOperation, Description: "BadRequest", Err: err}
	case tcp.NotHandled:
		return inspectNotHandled(frame.Payload)
	default:
		return InspectionResult{
			Decision:    NotifyError,
			Description: "Unexpected command",
			Err:         fmt.Errorf("%w: expected %s, got %s", eserrors.ErrCommandNotExpected, o.responseCommand, frame.Command),
		}
	}
}

func newPackage(command tcp.Command, correlationID uuid.UUID, credentials *UserCredentials, body []byte) *tcp.Frame {
	if credentials != nil {
		return tcp.NewAuthenticatedFrame(command, correlationID, credentials.Username, credentials.Password, body)
	}
	return tcp.NewFrame(command, correlationID, body)
}

func notAuthenticated(payload []byte) error {
	if len(payload) == 0 {
		return eserrors.ErrNotAuthenticated
	}
	return fmt.Errorf("%w: %s", eserrors.ErrNotAuthenticated, string(payload))
}

// inspectNotHandled maps a NotHandled response, shared by operations and subscriptions
func inspectNotHandled(payload []byte) InspectionResult {
	notHandled := new(messages.NotHandled)
	if err := notHandled.Unmarshal(payload); err != nil {
		return InspectionResult{Decision: NotifyError, Description: "NotHandled - invalid payload", Err: err}
	}

	switch notHandled.Reason {
	case messages.NotHandledNotReady:
		return InspectionResult{Decision: Retry, Description: "NotHandled - NotReady"}
	case messages.NotHandledTooBusy:
		return InspectionResult{Decision: Retry, Description: "NotHandled - TooBusy"}
	case messages.NotHandledNotMaster:
		master := new(messages.MasterInfo)
		if err := master.Unmarshal(notHandled.AdditionalInfo); err != nil {
			return InspectionResult{Decision: NotifyError, Description: "NotHandled - NotMaster", Err: err}
		}
		endpoints := discovery.NodeEndPoints{TCP: master.TCPEndPoint()}
		if master.ExternalSecureTCPPort > 0 {
			endpoints.SecureTCP = net.JoinHostPort(master.ExternalSecureTCPAddress, strconv.Itoa(int(master.ExternalSecureTCPPort)))
		}
		return InspectionResult{Decision: Reconnect, Description: "NotHandled - NotMaster", Endpoints: endpoints}
	default:
		return InspectionResult{Decision: Retry, Description: "NotHandled - unknown"}
	}
}
