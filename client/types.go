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
	"time"

	"github.com/google/uuid"

	"github.com/pharmanity/event-store-client/internal/messages"
)

// Expected versions of an append
const (
	// ExpectedVersionAny disables the optimistic concurrency check
	ExpectedVersionAny int64 = -2
	// ExpectedVersionNoStream expects the stream not to exist
	ExpectedVersionNoStream int64 = -1
	// ExpectedVersionEmptyStream expects the stream to exist without events
	ExpectedVersionEmptyStream int64 = -1
	// ExpectedVersionStreamExists expects the stream to exist
	ExpectedVersionStreamExists int64 = -4
)

const (
	// StreamStart is the first event number of a stream
	StreamStart int64 = 0
	// StreamEnd reads a stream backward from its last event
	StreamEnd int64 = -1
	// MaxReadSize is the largest page a read can ask for
	MaxReadSize = 4096
)

// UserCredentials authenticates a request
type UserCredentials struct {
	Username string
	Password string
}

// NewUserCredentials creates UserCredentials
func NewUserCredentials(username, password string) *UserCredentials {
	return &UserCredentials{Username: username, Password: password}
}

// String returns the username only
func (c *UserCredentials) String() string {
	return fmt.Sprintf("UserCredentials{Username: %s}", c.Username)
}

// Position is a position in the transaction log
type Position struct {
	CommitPosition  int64
	PreparePosition int64
}

// EventData is an event to append
type EventData struct {
	EventID  uuid.UUID
	Type     string
	IsJSON   bool
	Data     []byte
	Metadata []byte
}

// NewEventData creates EventData with a fresh event id
func NewEventData(eventType string, isJSON bool, data, metadata []byte) EventData {
	return EventData{
		EventID:  uuid.New(),
		Type:     eventType,
		IsJSON:   isJSON,
		Data:     data,
		Metadata: metadata,
	}
}

func (e EventData) toMessage() *messages.NewEvent {
	contentType := int32(0)
	if e.IsJSON {
		contentType = 1
	}
	return &messages.NewEvent{
		EventID:             e.EventID,
		EventType:           e.Type,
		DataContentType:     contentType,
		MetadataContentType: 0,
		Data:                e.Data,
		Metadata:            e.Metadata,
	}
}

// RecordedEvent is an event as stored by the server
type RecordedEvent struct {
	StreamID    string
	EventID     uuid.UUID
	EventNumber int64
	EventType   string
	Data        []byte
	Metadata    []byte
	IsJSON      bool
	Created     time.Time
}

func newRecordedEvent(record *messages.EventRecord) *RecordedEvent {
	if record == nil {
		return nil
	}
	return &RecordedEvent{
		StreamID:    record.EventStreamID,
		EventID:     record.EventID,
		EventNumber: record.EventNumber,
		EventType:   record.EventType,
		Data:        record.Data,
		Metadata:    record.Metadata,
		IsJSON:      record.DataContentType == 1,
		Created:     time.UnixMilli(record.CreatedEpoch),
	}
}

// ResolvedEvent is a read or pushed event with its link event, if any
type ResolvedEvent struct {
	Event *RecordedEvent
	Link  *RecordedEvent
	// OriginalPosition is set for events pushed by a subscription to all streams
	OriginalPosition *Position
	// RetryCount is the number of times a persistent subscription delivered the event
	RetryCount int
}

// OriginalEvent returns the link when the event was resolved from a link, the event otherwise
func (e ResolvedEvent) OriginalEvent() *RecordedEvent {
	if e.Link != nil {
		return e.Link
	}
	return e.Event
}

// OriginalEventID returns the id of the original event
func (e ResolvedEvent) OriginalEventID() uuid.UUID {
	if original := e.OriginalEvent(); original != nil {
		return original.EventID
	}
	return uuid.Nil
}

// OriginalStreamID returns the stream of the original event
func (e ResolvedEvent) OriginalStreamID() string {
	if original := e.OriginalEvent(); original != nil {
		return original.StreamID
	}
	return ""
}

// OriginalEventNumber returns the number of the original event
func (e ResolvedEvent) OriginalEventNumber() int64 {
	if original := e.OriginalEvent(); original != nil {
		return original.EventNumber
	}
	return -1
}

func newIndexedEvent(event *messages.ResolvedIndexedEvent, retryCount int32) ResolvedEvent {
	return ResolvedEvent{
		Event:      newRecordedEvent(event.Event),
		Link:       newRecordedEvent(event.Link),
		RetryCount: int(retryCount),
	}
}

func newPushedEvent(event *messages.ResolvedEvent) ResolvedEvent {
	return ResolvedEvent{
		Event: newRecordedEvent(event.Event),
		Link:  newRecordedEvent(event.Link),
		OriginalPosition: &Position{
			CommitPosition:  event.CommitPosition,
			PreparePosition: event.PreparePosition,
		},
	}
}

// SliceReadStatus is the outcome of a stream read
type SliceReadStatus int

const (
	SliceReadSuccess SliceReadStatus = iota
	SliceReadStreamNotFound
	SliceReadStreamDeleted
)

// String returns the status name
func (s SliceReadStatus) String() string {
	switch s {
	case SliceReadStreamNotFound:
		return "StreamNotFound"
	case SliceReadStreamDeleted:
		return "StreamDeleted"
	default:
		return "Success"
	}
}

// ReadDirection is the direction of a stream read
type ReadDirection int

const (
	Forward ReadDirection = iota
	Backward
)

// String returns the direction name
func (d ReadDirection) String() string {
	if d == Backward {
		return "Backward"
	}
	return "Forward"
}

// StreamEventsSlice is a page of a stream
type StreamEventsSlice struct {
	Status          SliceReadStatus
	Stream          string
	FromEventNumber int64
	ReadDirection   ReadDirection
	Events          []ResolvedEvent
	NextEventNumber int64
	LastEventNumber int64
	IsEndOfStream   bool
}

// WriteResult is the outcome of a successful append
type WriteResult struct {
	NextExpectedVersion int64
	LogPosition         Position
}

// PersistentSubscriptionSettings configures a consumer group
type PersistentSubscriptionSettings struct {
	ResolveLinkTos        bool
	StartFrom             int64
	ExtraStatistics       bool
	MessageTimeout        time.Duration
	MaxRetryCount         int
	LiveBufferSize        int
	ReadBatchSize         int
	HistoryBufferSize     int
	CheckPointAfter       time.Duration
	MinCheckPointCount    int
	MaxCheckPointCount    int
	MaxSubscriberCount    int
	NamedConsumerStrategy string
}

// Consumer strategies of a persistent subscription
const (
	ConsumerStrategyDispatchToSingle = "DispatchToSingle"
	ConsumerStrategyRoundRobin       = "RoundRobin"
	ConsumerStrategyPinned           = "Pinned"
)

// DefaultPersistentSubscriptionSettings returns the server defaults
func DefaultPersistentSubscriptionSettings() PersistentSubscriptionSettings {
	return PersistentSubscriptionSettings{
		StartFrom:             -1,
		MessageTimeout:        30 * time.Second,
		MaxRetryCount:         10,
		LiveBufferSize:        500,
		ReadBatchSize:         20,
		HistoryBufferSize:     500,
		CheckPointAfter:       2 * time.Second,
		MinCheckPointCount:    10,
		MaxCheckPointCount:    1000,
		NamedConsumerStrategy: ConsumerStrategyRoundRobin,
	}
}
