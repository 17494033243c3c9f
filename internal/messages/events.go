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

// NewEvent is an event to be written
type NewEvent struct {
	EventID             uuid.UUID
	EventType           string
	DataContentType     int32
	MetadataContentType int32
	Data                []byte
	Metadata            []byte
}

// Marshal encodes the event
func (x *NewEvent) Marshal() []byte {
	w := new(writer)
	w.uuid(1, x.EventID)
	w.string(2, x.EventType)
	w.int32(3, x.DataContentType)
	w.int32(4, x.MetadataContentType)
	w.bytes(5, x.Data)
	if x.Metadata != nil {
		w.bytes(6, x.Metadata)
	}
	return w.buf
}

// Unmarshal decodes the event
func (x *NewEvent) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			x.EventID, err = f.uuid()
		case 2:
			x.EventType = f.string()
		case 3:
			x.DataContentType = f.int32()
		case 4:
			x.MetadataContentType = f.int32()
		case 5:
			x.Data = f.copyBytes()
		case 6:
			x.Metadata = f.copyBytes()
		}
		return err
	})
}

// EventRecord is an event as stored by the server
type EventRecord struct {
	EventStreamID       string
	EventNumber         int64
	EventID             uuid.UUID
	EventType           string
	DataContentType     int32
	MetadataContentType int32
	Data                []byte
	Metadata            []byte
	Created             int64
	CreatedEpoch        int64
}

// Marshal encodes the record
func (x *EventRecord) Marshal() []byte {
	w := new(writer)
	w.string(1, x.EventStreamID)
	w.int64(2, x.EventNumber)
	w.uuid(3, x.EventID)
	w.string(4, x.EventType)
	w.int32(5, x.DataContentType)
	w.int32(6, x.MetadataContentType)
	w.bytes(7, x.Data)
	if x.Metadata != nil {
		w.bytes(8, x.Metadata)
	}
	if x.Created != 0 {
		w.int64(9, x.Created)
	}
	if x.CreatedEpoch != 0 {
		w.int64(10, x.CreatedEpoch)
	}
	return w.buf
}

// Unmarshal decodes the record
func (x *EventRecord) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			x.EventStreamID = f.string()
		case 2:
			x.EventNumber = f.int64()
		case 3:
			x.EventID, err = f.uuid()
		case 4:
			x.EventType = f.string()
		case 5:
			x.DataContentType = f.int32()
		case 6:
			x.MetadataContentType = f.int32()
		case 7:
			x.Data = f.copyBytes()
		case 8:
			x.Metadata = f.copyBytes()
		case 9:
			x.Created = f.int64()
		case 10:
			x.CreatedEpoch = f.int64()
		}
		return err
	})
}

// ResolvedIndexedEvent is an event read from a stream with its optional link
type ResolvedIndexedEvent struct {
	Event *EventRecord
	Link  *EventRecord
}

// Marshal encodes the event
func (x *ResolvedIndexedEvent) Marshal() []byte {
	w := new(writer)
	if x.Event != nil {
		w.message(1, x.Event.Marshal())
	}
	if x.Link != nil {
		w.message(2, x.Link.Marshal())
	}
	return w.buf
}

// Unmarshal decodes the event
func (x *ResolvedIndexedEvent) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.Event = new(EventRecord)
			return x.Event.Unmarshal(f.bytes)
		case 2:
			x.Link = new(EventRecord)
			return x.Link.Unmarshal(f.bytes)
		}
		return nil
	})
}

// ResolvedEvent is an event pushed by a subscription with its log position
type ResolvedEvent struct {
	Event           *EventRecord
	Link            *EventRecord
	CommitPosition  int64
	PreparePosition int64
}

// Marshal encodes the event
func (x *ResolvedEvent) Marshal() []byte {
	w := new(writer)
	if x.Event != nil {
		w.message(1, x.Event.Marshal())
	}
	if x.Link != nil {
		w.message(2, x.Link.Marshal())
	}
	w.int64(3, x.CommitPosition)
	w.int64(4, x.PreparePosition)
	return w.buf
}

// Unmarshal decodes the event
func (x *ResolvedEvent) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.Event = new(EventRecord)
			return x.Event.Unmarshal(f.bytes)
		case 2:
			x.Link = new(EventRecord)
			return x.Link.Unmarshal(f.bytes)
		case 3:
			x.CommitPosition = f.int64()
		case 4:
			x.PreparePosition = f.int64()
		}
		return nil
	})
}
