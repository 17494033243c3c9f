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

// CreatePersistentSubscriptionOperation creates a consumer group on a stream
type CreatePersistentSubscriptionOperation struct {
	*operation[*messages.CreatePersistentSubscriptionCompleted, struct{}]
	stream string
	group  string
}

// enforce compilation error
var _ Operation = (*CreatePersistentSubscriptionOperation)(nil)

// NewCreatePersistentSubscriptionOperation creates the group on stream with the given settings
func NewCreatePersistentSubscriptionOperation(stream, group string, settings PersistentSubscriptionSettings,
	credentials *UserCredentials) *CreatePersistentSubscriptionOperation {
	op := &CreatePersistentSubscriptionOperation{
		stream: stream,
		group:  group,
	}

	op.operation = &operation[*messages.CreatePersistentSubscriptionCompleted, struct{}]{
		name:            "CreatePersistentSubscription",
		replaySafe:      true,
		requestCommand:  tcp.CreatePersistentSubscription,
		responseCommand: tcp.CreatePersistentSubscriptionDone,
		credentials:     credentials,
		request: func() payload {
			return &messages.CreatePersistentSubscription{
				SubscriptionGroupName:      group,
				EventStreamID:              stream,
				ResolveLinkTos:             settings.ResolveLinkTos,
				StartFrom:                  settings.StartFrom,
				MessageTimeoutMilliseconds: int32(settings.MessageTimeout.Milliseconds()),
				RecordStatistics:           settings.ExtraStatistics,
				LiveBufferSize:             int32(settings.LiveBufferSize),
				ReadBatchSize:              int32(settings.ReadBatchSize),
				BufferSize:                 int32(settings.HistoryBufferSize),
				MaxRetryCount:              int32(settings.MaxRetryCount),
				PreferRoundRobin:           settings.NamedConsumerStrategy == ConsumerStrategyRoundRobin,
				CheckpointAfterTime:        int32(settings.CheckPointAfter.Milliseconds()),
				CheckpointMaxCount:         int32(settings.MaxCheckPointCount),
				CheckpointMinCount:         int32(settings.MinCheckPointCount),
				SubscriberMaxCount:         int32(settings.MaxSubscriberCount),
				NamedConsumerStrategy:      settings.NamedConsumerStrategy,
			}
		},
		newResponse: func() *messages.CreatePersistentSubscriptionCompleted {
			return new(messages.CreatePersistentSubscriptionCompleted)
		},
		inspect:   op.inspectResponse,
		transform: func(*messages.CreatePersistentSubscriptionCompleted) struct{} { return struct{}{} },
		promise:   future.NewCompletable[struct{}](),
	}
	return op
}

// String describes the request
func (o *CreatePersistentSubscriptionOperation) String() string {
	return fmt.Sprintf("CreatePersistentSubscription Stream: %s, Group: %s", o.stream, o.group)
}

func (o *CreatePersistentSubscriptionOperation) inspectResponse(response *messages.CreatePersistentSubscriptionCompleted) (InspectionResult, error) {
	switch response.Result {
	case messages.CreatePersistentSuccess:
		return InspectionResult{Decision: EndOperation, Description: "Success"}, nil
	case messages.CreatePersistentAlreadyExists:
		return InspectionResult{Decision: EndOperation, Description: "AlreadyExists"},
			fmt.Errorf("%w: group '%s' on stream '%s'", eserrors.ErrPersistentSubscriptionAlreadyExists, o.group, o.stream)
	case messages.CreatePersistentFail:
		return InspectionResult{Decision: EndOperation, Description: "Fail"}, eserrors.NewServerError(response.Reason)
	case messages.CreatePersistentAccessDenied:
		return InspectionResult{Decision: EndOperation, Description: "AccessDenied"},
			&eserrors.AccessDeniedError{Stream: o.stream, Op: "CreatePersistentSubscription"}
	default:
		return InspectionResult{Decision: EndOperation, Description: "Unexpected"},
			eserrors.NewServerError(fmt.Sprintf("unexpected CreatePersistentSubscriptionResult: %d", response.Result))
	}
}
