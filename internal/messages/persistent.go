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

package messages

import (
	"github.com/google/uuid"
)

// CreatePersistentSubscriptionResult is the outcome of a create request
type CreatePersistentSubscriptionResult int32

const (
	CreatePersistentSuccess       CreatePersistentSubscriptionResult = 0
	CreatePersistentAlreadyExists CreatePersistentSubscriptionResult = 1
	CreatePersistentFail          CreatePersistentSubscriptionResult = 2
	CreatePersistentAccessDenied  CreatePersistentSubscriptionResult = 3
)

// NakAction tells the server what to do with a negatively acknowledged event
type NakAction int32

const (
	NakUnknown NakAction = 0
	NakPark    NakAction = 1
	NakRetry   NakAction = 2
	NakSkip    NakAction = 3
	NakStop    NakAction = 4
)

// CreatePersistentSubscription creates a consumer group on a stream
type CreatePersistentSubscription struct {
	SubscriptionGroupName      string
	EventStreamID              string
	ResolveLinkTos             bool
	StartFrom                  int64
	MessageTimeoutMilliseconds int32
	RecordStatistics           bool
	LiveBufferSize             int32
	ReadBatchSize              int32
	BufferSize                 int32
	MaxRetryCount              int32
	PreferRoundRobin           bool
	CheckpointAfterTime        int32
	CheckpointMaxCount         int32
	CheckpointMinCount         int32
	SubscriberMaxCount         int32
	NamedConsumerStrategy      string
}

// Marshal encodes the request
func (x *CreatePersistentSubscription) Marshal() []byte {
	w := new(writer)
	w.string(1, x.SubscriptionGroupName)
	w.string(2, x.EventStreamID)
	w.bool(3, x.ResolveLinkTos)
	w.int64(4, x.StartFrom)
	w.int32(5, x.MessageTimeoutMilliseconds)
	w.bool(6, x.RecordStatistics)
	w.int32(7, x.LiveBufferSize)
	w.int32(8, x.ReadBatchSize)
	w.int32(9, x.BufferSize)
	w.int32(10, x.MaxRetryCount)
	w.bool(11, x.PreferRoundRobin)
	w.int32(12, x.CheckpointAfterTime)
	w.int32(13, x.CheckpointMaxCount)
	w.int32(14, x.CheckpointMinCount)
	w.int32(15, x.SubscriberMaxCount)
	if x.NamedConsumerStrategy != "" {
		w.string(16, x.NamedConsumerStrategy)
	}
	return w.buf
}

// Unmarshal decodes the request
func (x *CreatePersistentSubscription) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.SubscriptionGroupName = f.string()
		case 2:
			x.EventStreamID = f.string()
		case 3:
			x.ResolveLinkTos = f.bool()
		case 4:
			x.StartFrom = f.int64()
		case 5:
			x.MessageTimeoutMilliseconds = f.int32()
		case 6:
			x.RecordStatistics = f.bool()
		case 7:
			x.LiveBufferSize = f.int32()
		case 8:
			x.ReadBatchSize = f.int32()
		case 9:
			x.BufferSize = f.int32()
		case 10:
			x.MaxRetryCount = f.int32()
		case 11:
			x.PreferRoundRobin = f.bool()
		case 12:
			x.CheckpointAfterTime = f.int32()
		case 13:
			x.CheckpointMaxCount = f.int32()
		case 14:
			x.CheckpointMinCount = f.int32()
		case 15:
			x.SubscriberMaxCount = f.int32()
		case 16:
			x.NamedConsumerStrategy = f.string()
		}
		return nil
	})
}

// CreatePersistentSubscriptionCompleted is the response of CreatePersistentSubscription
type CreatePersistentSubscriptionCompleted struct {
	Result CreatePersistentSubscriptionResult
	Reason string
}

// Marshal encodes the response
func (x *CreatePersistentSubscriptionCompleted) Marshal() []byte {
	w := new(writer)
	w.int32(1, int32(x.Result))
	if x.Reason != "" {
		w.string(2, x.Reason)
	}
	return w.buf
}

// Unmarshal decodes the response
func (x *CreatePersistentSubscriptionCompleted) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.Result = CreatePersistentSubscriptionResult(f.int32())
		case 2:
			x.Reason = f.string()
		}
		return nil
	})
}

// ConnectToPersistentSubscription joins a consumer group
type ConnectToPersistentSubscription struct {
	SubscriptionID          string
	EventStreamID           string
	AllowedInFlightMessages int32
}

// Marshal encodes the request
func (x *ConnectToPersistentSubscription) Marshal() []byte {
	w := new(writer)
	w.string(1, x.SubscriptionID)
	w.string(2, x.EventStreamID)
	w.int32(3, x.AllowedInFlightMessages)
	return w.buf
}

// Unmarshal decodes the request
func (x *ConnectToPersistentSubscription) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.SubscriptionID = f.string()
		case 2:
			x.EventStreamID = f.string()
		case 3:
			x.AllowedInFlightMessages = f.int32()
		}
		return nil
	})
}

// PersistentSubscriptionConfirmation is sent once the consumer joined the group
type PersistentSubscriptionConfirmation struct {
	LastCommitPosition int64
	SubscriptionID     string
	LastEventNumber    *int64
}

// Marshal encodes the confirmation
func (x *PersistentSubscriptionConfirmation) Marshal() []byte {
	w := new(writer)
	w.int64(1, x.LastCommitPosition)
	w.string(2, x.SubscriptionID)
	if x.LastEventNumber != nil {
		w.int64(3, *x.LastEventNumber)
	}
	return w.buf
}

// Unmarshal decodes the confirmation
func (x *PersistentSubscriptionConfirmation) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.LastCommitPosition = f.int64()
		case 2:
			x.SubscriptionID = f.string()
		case 3:
			number := f.int64()
			x.LastEventNumber = &number
		}
		return nil
	})
}

// PersistentSubscriptionStreamEventAppeared delivers an event to a group member
type PersistentSubscriptionStreamEventAppeared struct {
	Event      *ResolvedIndexedEvent
	RetryCount int32
}

// Marshal encodes the event
func (x *PersistentSubscriptionStreamEventAppeared) Marshal() []byte {
	w := new(writer)
	if x.Event != nil {
		w.message(1, x.Event.Marshal())
	}
	w.int32(2, x.RetryCount)
	return w.buf
}

// Unmarshal decodes the event
func (x *PersistentSubscriptionStreamEventAppeared) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.Event = new(ResolvedIndexedEvent)
			return x.Event.Unmarshal(f.bytes)
		case 2:
			x.RetryCount = f.int32()
		}
		return nil
	})
}

// PersistentSubscriptionAckEvents acknowledges processed events
type PersistentSubscriptionAckEvents struct {
	SubscriptionID    string
	ProcessedEventIDs []uuid.UUID
}

// Marshal encodes the acknowledgement
func (x *PersistentSubscriptionAckEvents) Marshal() []byte {
	w := new(writer)
	w.string(1, x.SubscriptionID)
	for _, id := range x.ProcessedEventIDs {
		w.uuid(2, id)
	}
	return w.buf
}

// Unmarshal decodes the acknowledgement
func (x *PersistentSubscriptionAckEvents) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.SubscriptionID = f.string()
		case 2:
			id, err := f.uuid()
			if err != nil {
				return err
			}
			x.ProcessedEventIDs = append(x.ProcessedEventIDs, id)
		}
		return nil
	})
}

// PersistentSubscriptionNakEvents rejects events
type PersistentSubscriptionNakEvents struct {
	SubscriptionID    string
	ProcessedEventIDs []uuid.UUID
	Message           string
	Action            NakAction
}

// Marshal encodes the rejection
func (x *PersistentSubscriptionNakEvents) Marshal() []byte {
	w := new(writer)
	w.string(1, x.SubscriptionID)
	for _, id := range x.ProcessedEventIDs {
		w.uuid(2, id)
	}
	if x.Message != "" {
		w.string(3, x.Message)
	}
	w.int32(4, int32(x.Action))
	return w.buf
}

// Unmarshal decodes the rejection
func (x *PersistentSubscriptionNakEvents) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.SubscriptionID = f.string()
		case 2:
			id, err := f.uuid()
			if err != nil {
				return err
			}
			x.ProcessedEventIDs = append(x.ProcessedEventIDs, id)
		case 3:
			x.Message = f.string()
		case 4:
			x.Action = NakAction(f.int32())
		}
		return nil
	})
}
