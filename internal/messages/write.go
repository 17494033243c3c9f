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

// OperationResult is the outcome of a write
type OperationResult int32

const (
	OperationSuccess              OperationResult = 0
	OperationPrepareTimeout       OperationResult = 1
	OperationCommitTimeout        OperationResult = 2
	OperationForwardTimeout       OperationResult = 3
	OperationWrongExpectedVersion OperationResult = 4
	OperationStreamDeleted        OperationResult = 5
	OperationInvalidTransaction   OperationResult = 6
	OperationAccessDenied         OperationResult = 7
)

// WriteEvents appends events to a stream
type WriteEvents struct {
	EventStreamID   string
	ExpectedVersion int64
	Events          []*NewEvent
	RequireMaster   bool
}

// Marshal encodes the request
func (x *WriteEvents) Marshal() []byte {
	w := new(writer)
	w.string(1, x.EventStreamID)
	w.int64(2, x.ExpectedVersion)
	for _, event := range x.Events {
		w.message(3, event.Marshal())
	}
	w.bool(4, x.RequireMaster)
	return w.buf
}

// Unmarshal decodes the request
func (x *WriteEvents) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.EventStreamID = f.string()
		case 2:
			x.ExpectedVersion = f.int64()
		case 3:
			event := new(NewEvent)
			if err := event.Unmarshal(f.bytes); err != nil {
				return err
			}
			x.Events = append(x.Events, event)
		case 4:
			x.RequireMaster = f.bool()
		}
		return nil
	})
}

// WriteEventsCompleted is the response of WriteEvents
type WriteEventsCompleted struct {
	Result           OperationResult
	Message          string
	FirstEventNumber int64
	LastEventNumber  int64
	PreparePosition  int64
	CommitPosition   int64
	// CurrentVersion is only set on WrongExpectedVersion
	CurrentVersion *int64
}

// Marshal encodes the response
func (x *WriteEventsCompleted) Marshal() []byte {
	w := new(writer)
	w.int32(1, int32(x.Result))
	if x.Message != "" {
		w.string(2, x.Message)
	}
	w.int64(3, x.FirstEventNumber)
	w.int64(4, x.LastEventNumber)
	w.int64(5, x.PreparePosition)
	w.int64(6, x.CommitPosition)
	if x.CurrentVersion != nil {
		w.int64(7, *x.CurrentVersion)
	}
	return w.buf
}

// Unmarshal decodes the response
func (x *WriteEventsCompleted) Unmarshal(b []byte) error {
	x.PreparePosition, x.CommitPosition = -1, -1
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.Result = OperationResult(f.int32())
		case 2:
			x.Message = f.string()
		case 3:
			x.FirstEventNumber = f.int64()
		case 4:
			x.LastEventNumber = f.int64()
		case 5:
			x.PreparePosition = f.int64()
		case 6:
			x.CommitPosition = f.int64()
		case 7:
			version := f.int64()
			x.CurrentVersion = &version
		}
		return nil
	})
}
