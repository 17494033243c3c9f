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

// ReadStreamEventsOperation reads a page of a stream in either direction
type ReadStreamEventsOperation struct {
	*operation[*messages.ReadStreamEventsCompleted, *StreamEventsSlice]
	stream          string
	fromEventNumber int64
	maxCount        int
	direction       ReadDirection
}

// enforce compilation error
var _ Operation = (*ReadStreamEventsOperation)(nil)

// NewReadStreamEventsOperation creates a read of at most maxCount events starting at fromEventNumber
func NewReadStreamEventsOperation(direction ReadDirection, stream string, fromEventNumber int64, maxCount int,
	resolveLinkTos, requireMaster bool, credentials *UserCredentials) *ReadStreamEventsOperation {
	op := &ReadStreamEventsOperation{
		stream:          stream,
		fromEventNumber: fromEventNumber,
		maxCount:        maxCount,
		direction:       direction,
	}

	requestCommand, responseCommand := tcp.ReadStreamEventsForward, tcp.ReadStreamEventsForwardCompleted
	name := "ReadStreamEventsForward"
	if direction == Backward {
		requestCommand, responseCommand = tcp.ReadStreamEventsBackward, tcp.ReadStreamEventsBackwardCompleted
		name = "ReadStreamEventsBackward"
	}

	op.operation = &operation[*messages.ReadStreamEventsCompleted, *StreamEventsSlice]{
		name:            name,
		replaySafe:      true,
		requestCommand:  requestCommand,
		responseCommand: responseCommand,
		credentials:     credentials,
		request: func() payload {
			return &messages.ReadStreamEvents{
				EventStreamID:   stream,
				FromEventNumber: fromEventNumber,
				MaxCount:        int32(maxCount),
				ResolveLinkTos:  resolveLinkTos,
				RequireMaster:   requireMaster,
			}
		},
		newResponse: func() *messages.ReadStreamEventsCompleted { return new(messages.ReadStreamEventsCompleted) },
		inspect:     op.inspectResponse,
		transform:   op.transformResponse,
		promise:     future.NewCompletable[*StreamEventsSlice](),
	}
	return op
}

// String describes the read
func (o *ReadStreamEventsOperation) String() string {
	return fmt.Sprintf("%s Stream: %s, FromEventNumber: %d, MaxCount: %d", o.name, o.stream, o.fromEventNumber, o.maxCount)
}

func (o *ReadStreamEventsOperation) inspectResponse(response *messages.ReadStreamEventsCompleted) (InspectionResult, error) {
	switch response.Result {
	case messages.ReadStreamSuccess:
		return InspectionResult{Decision: EndOperation, Description: "Success"}, nil
	case messages.ReadStreamStreamDeleted:
		return InspectionResult{Decision: EndOperation, Description: "StreamDeleted"}, nil
	case messages.ReadStreamNoStream:
		return InspectionResult{Decision: EndOperation, Description: "NoStream"}, nil
	case messages.ReadStreamNotModified:
		return InspectionResult{Decision: EndOperation, Description: "NotModified"}, nil
	case messages.ReadStreamError:
		return InspectionResult{Decision: EndOperation, Description: "Error"}, eserrors.NewServerError(response.Error)
	case messages.ReadStreamAccessDenied:
		return InspectionResult{Decision: EndOperation, Description: "AccessDenied"},
			&eserrors.AccessDeniedError{Stream: o.stream, Op: "Read"}
	default:
		return InspectionResult{Decision: EndOperation, Description: "Unexpected"},
			eserrors.NewServerError(fmt.Sprintf("unexpected ReadStreamResult: %d", response.Result))
	}
}

func (o *ReadStreamEventsOperation) transformResponse(response *messages.ReadStreamEventsCompleted) *StreamEventsSlice {
	events := make([]ResolvedEvent, 0, len(response.Events))
	for _, event := range response.Events {
		events = append(events, newIndexedEvent(event, 0))
	}

	status := SliceReadSuccess
	switch response.Result {
	case messages.ReadStreamNoStream:
		status = SliceReadStreamNotFound
	case messages.ReadStreamStreamDeleted:
		status = SliceReadStreamDeleted
	}

	return &StreamEventsSlice{
		Status:          status,
		Stream:          o.stream,
		FromEventNumber: o.fromEventNumber,
		ReadDirection:   o.direction,
		Events:          events,
		NextEventNumber: response.NextEventNumber,
		LastEventNumber: response.LastEventNumber,
		IsEndOfStream:   response.IsEndOfStream,
	}
}
