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

// ReadStreamResult is the outcome of a stream read
type ReadStreamResult int32

const (
	ReadStreamSuccess       ReadStreamResult = 0
	ReadStreamNoStream      ReadStreamResult = 1
	ReadStreamStreamDeleted ReadStreamResult = 2
	ReadStreamNotModified   ReadStreamResult = 3
	ReadStreamError         ReadStreamResult = 4
	ReadStreamAccessDenied  ReadStreamResult = 5
)

// ReadStreamEvents reads a page of a stream, forward or backward depending on the command
type ReadStreamEvents struct {
	EventStreamID   string
	FromEventNumber int64
	MaxCount        int32
	ResolveLinkTos  bool
	RequireMaster   bool
}

// Marshal encodes the request
func (x *ReadStreamEvents) Marshal() []byte {
	w := new(writer)
	w.string(1, x.EventStreamID)
	w.int64(2, x.FromEventNumber)
	w.int32(3, x.MaxCount)
	w.bool(4, x.ResolveLinkTos)
	w.bool(5, x.RequireMaster)
	return w.buf
}

// Unmarshal decodes the request
func (x *ReadStreamEvents) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.EventStreamID = f.string()
		case 2:
			x.FromEventNumber = f.int64()
		case 3:
			x.MaxCount = f.int32()
		case 4:
			x.ResolveLinkTos = f.bool()
		case 5:
			x.RequireMaster = f.bool()
		}
		return nil
	})
}

// ReadStreamEventsCompleted is the response of ReadStreamEvents
type ReadStreamEventsCompleted struct {
	Events             []*ResolvedIndexedEvent
	Result             ReadStreamResult
	NextEventNumber    int64
	LastEventNumber    int64
	IsEndOfStream      bool
	LastCommitPosition int64
	Error              string
}

// Marshal encodes the response
func (x *ReadStreamEventsCompleted) Marshal() []byte {
	w := new(writer)
	for _, event := range x.Events {
		w.message(1, event.Marshal())
	}
	w.int32(2, int32(x.Result))
	w.int64(3, x.NextEventNumber)
	w.int64(4, x.LastEventNumber)
	w.bool(5, x.IsEndOfStream)
	w.int64(6, x.LastCommitPosition)
	if x.Error != "" {
		w.string(7, x.Error)
	}
	return w.buf
}

// Unmarshal decodes the response
func (x *ReadStreamEventsCompleted) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			event := new(ResolvedIndexedEvent)
			if err := event.Unmarshal(f.bytes); err != nil {
				return err
			}
			x.Events = append(x.Events, event)
		case 2:
			x.Result = ReadStreamResult(f.int32())
		case 3:
			x.NextEventNumber = f.int64()
		case 4:
			x.LastEventNumber = f.int64()
		case 5:
			x.IsEndOfStream = f.bool()
		case 6:
			x.LastCommitPosition = f.int64()
		case 7:
			x.Error = f.string()
		}
		return nil
	})
}
