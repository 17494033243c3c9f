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

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/future"
	"github.com/pharmanity/event-store-client/internal/messages"
	"github.com/pharmanity/event-store-client/internal/tcp"
)

// AppendToStreamOperation appends events to a stream.
// It is not replay safe: a lost response leaves the outcome unknown.
type AppendToStreamOperation struct {
	*operation[*messages.WriteEventsCompleted, *WriteResult]
	stream          string
	expectedVersion int64
}

// enforce compilation error
var _ Operation = (*AppendToStreamOperation)(nil)

// NewAppendToStreamOperation creates an append of events to stream
func NewAppendToStreamOperation(stream string, expectedVersion int64, events []EventData,
	requireMaster bool, credentials *UserCredentials) *AppendToStreamOperation {
	op := &AppendToStreamOperation{
		stream:          stream,
		expectedVersion: expectedVersion,
	}

	op.operation = &operation[*messages.WriteEventsCompleted, *WriteResult]{
		name:            "AppendToStream",
		replaySafe:      false,
		requestCommand:  tcp.WriteEvents,
		responseCommand: tcp.WriteEventsCompleted,
		credentials:     credentials,
		request: func() payload {
			dtos := make([]*messages.NewEvent, 0, len(events))
			for _, event := range events {
				dtos = append(dtos, event.toMessage())
			}
			return &messages.WriteEvents{
				EventStreamID:   stream,
				ExpectedVersion: expectedVersion,
				Events:          dtos,
				RequireMaster:   requireMaster,
			}
		},
		newResponse: func() *messages.WriteEventsCompleted { return new(messages.WriteEventsCompleted) },
		inspect:     op.inspectResponse,
		transform:   op.transformResponse,
		promise:     future.NewCompletable[*WriteResult](),
	}
	return op
}

// String describes the append
func (o *AppendToStreamOperation) String() string {
	return fmt.Sprintf("AppendToStream Stream: %s, ExpectedVersion: %d", o.stream, o.expectedVersion)
}

func (o *AppendToStreamOperation) inspectResponse(response *messages.WriteEventsCompleted) (InspectionResult, error) {
	switch response.Result {
	case messages.OperationSuccess:
		return InspectionResult{Decision: EndOperation, Description: "Success"}, nil
	case messages.OperationPrepareTimeout:
		return InspectionResult{Decision: Retry, Description: "PrepareTimeout"}, nil
	case messages.OperationForwardTimeout:
		return InspectionResult{Decision: Retry, Description: "ForwardTimeout"}, nil
	case messages.OperationCommitTimeout:
		return InspectionResult{Decision: Retry, Description: "CommitTimeout"}, nil
	case messages.OperationWrongExpectedVersion:
		return InspectionResult{Decision: EndOperation, Description: "WrongExpectedVersion"},
			&eserrors.WrongExpectedVersionError{
				Stream:          o.stream,
				ExpectedVersion: o.expectedVersion,
				CurrentVersion:  response.CurrentVersion,
			}
	case messages.OperationStreamDeleted:
		return InspectionResult{Decision: EndOperation, Description: "StreamDeleted"},
			fmt.Errorf("%w: %s", eserrors.ErrStreamDeleted, o.stream)
	case messages.OperationInvalidTransaction:
		return InspectionResult{Decision: EndOperation, Description: "InvalidTransaction"}, eserrors.ErrInvalidTransaction
	case messages.OperationAccessDenied:
		return InspectionResult{Decision: EndOperation, Description: "AccessDenied"},
			&eserrors.AccessDeniedError{Stream: o.stream, Op: "Write"}
	default:
		return InspectionResult{Decision: EndOperation, Description: "Unexpected"},
			eserrors.NewServerError(fmt.Sprintf("unexpected OperationResult: %d", response.Result))
	}
}

func (o *AppendToStreamOperation) transformResponse(response *messages.WriteEventsCompleted) *WriteResult {
	return &WriteResult{
		NextExpectedVersion: response.LastEventNumber,
		LogPosition: Position{
			CommitPosition:  response.CommitPosition,
			PreparePosition: response.PreparePosition,
		},
	}
}
