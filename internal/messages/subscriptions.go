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

// DropReason is the reason the server gives when dropping a subscription
type DropReason int32

const (
	DropUnsubscribed                  DropReason = 0
	DropAccessDenied                  DropReason = 1
	DropNotFound                      DropReason = 2
	DropPersistentSubscriptionDeleted DropReason = 3
	DropSubscriberMaxCountReached     DropReason = 4
)

// SubscribeToStream opens a volatile subscription. An empty stream id subscribes to all streams.
type SubscribeToStream struct {
	EventStreamID  string
	ResolveLinkTos bool
}

// Marshal encodes the request
func (x *SubscribeToStream) Marshal() []byte {
	w := new(writer)
	w.string(1, x.EventStreamID)
	w.bool(2, x.ResolveLinkTos)
	return w.buf
}

// Unmarshal decodes the request
func (x *SubscribeToStream) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.EventStreamID = f.string()
		case 2:
			x.ResolveLinkTos = f.bool()
		}
		return nil
	})
}

// SubscriptionConfirmation is sent once the server accepted a volatile subscription
type SubscriptionConfirmation struct {
	LastCommitPosition int64
	LastEventNumber    *int64
}

// Marshal encodes the confirmation
func (x *SubscriptionConfirmation) Marshal() []byte {
	w := new(writer)
	w.int64(1, x.LastCommitPosition)
	if x.LastEventNumber != nil {
		w.int64(2, *x.LastEventNumber)
	}
	return w.buf
}

// Unmarshal decodes the confirmation
func (x *SubscriptionConfirmation) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.LastCommitPosition = f.int64()
		case 2:
			number := f.int64()
			x.LastEventNumber = &number
		}
		return nil
	})
}

// StreamEventAppeared pushes a live event to a volatile subscription
type StreamEventAppeared struct {
	Event *ResolvedEvent
}

// Marshal encodes the event
func (x *StreamEventAppeared) Marshal() []byte {
	w := new(writer)
	if x.Event != nil {
		w.message(1, x.Event.Marshal())
	}
	return w.buf
}

// Unmarshal decodes the event
func (x *StreamEventAppeared) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		if f.num == 1 {
			x.Event = new(ResolvedEvent)
			return x.Event.Unmarshal(f.bytes)
		}
		return nil
	})
}

// SubscriptionDropped notifies the end of a subscription
type SubscriptionDropped struct {
	Reason DropReason
}

// Marshal encodes the notification
func (x *SubscriptionDropped) Marshal() []byte {
	w := new(writer)
	w.int32(1, int32(x.Reason))
	return w.buf
}

// Unmarshal decodes the notification
func (x *SubscriptionDropped) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		if f.num == 1 {
			x.Reason = DropReason(f.int32())
		}
		return nil
	})
}
