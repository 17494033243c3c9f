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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/tcp"
)

func TestWriteEvents(t *testing.T) {
	t.Run("negative expected version uses the ten byte varint form", func(t *testing.T) {
		request := &WriteEvents{EventStreamID: "orders-1", ExpectedVersion: -2, RequireMaster: true}
		bytea := request.Marshal()

		// skip field 1
		_, _, n := protowire.ConsumeTag(bytea)
		_, m := protowire.ConsumeBytes(bytea[n:])
		rest := bytea[n+m:]

		num, typ, n := protowire.ConsumeTag(rest)
		require.Equal(t, protowire.Number(2), num)
		require.Equal(t, protowire.VarintType, typ)
		value, m := protowire.ConsumeVarint(rest[n:])
		assert.Equal(t, 10, m)
		assert.EqualValues(t, -2, int64(value))
	})
	t.Run("events keep their wire id layout", func(t *testing.T) {
		id := uuid.New()
		request := &WriteEvents{
			EventStreamID:   "orders-1",
			ExpectedVersion: 4,
			Events: []*NewEvent{{
				EventID:         id,
				EventType:       "OrderPlaced",
				DataContentType: 1,
				Data:            []byte(`{"id":1}`),
				Metadata:        []byte(`{}`),
			}},
		}

		decoded := new(WriteEvents)
		require.NoError(t, decoded.Unmarshal(request.Marshal()))
		require.Len(t, decoded.Events, 1)
		assert.Equal(t, id, decoded.Events[0].EventID)
		assert.Equal(t, "OrderPlaced", decoded.Events[0].EventType)
		assert.EqualValues(t, 4, decoded.ExpectedVersion)

		raw := decoded.Events[0].Marshal()
		_, _, n := protowire.ConsumeTag(raw)
		idBytes, _ := protowire.ConsumeBytes(raw[n:])
		assert.Equal(t, tcp.GUIDBytes(id), idBytes)
	})
}

func TestWriteEventsCompleted(t *testing.T) {
	t.Run("positions default to -1 when absent", func(t *testing.T) {
		w := new(writer)
		w.int32(1, int32(OperationWrongExpectedVersion))
		w.int64(3, 0)
		w.int64(4, 0)
		w.int64(7, 9)

		decoded := new(WriteEventsCompleted)
		require.NoError(t, decoded.Unmarshal(w.buf))
		assert.Equal(t, OperationWrongExpectedVersion, decoded.Result)
		assert.EqualValues(t, -1, decoded.PreparePosition)
		assert.EqualValues(t, -1, decoded.CommitPosition)
		require.NotNil(t, decoded.CurrentVersion)
		assert.EqualValues(t, 9, *decoded.CurrentVersion)
	})
}

func TestReadStreamEventsCompleted(t *testing.T) {
	response := &ReadStreamEventsCompleted{
		Events: []*ResolvedIndexedEvent{{
			Event: &EventRecord{EventStreamID: "s", EventNumber: 0, EventID: uuid.New(), EventType: "A", Data: []byte("x")},
			Link:  &EventRecord{EventStreamID: "$ce-s", EventNumber: 7, EventID: uuid.New(), EventType: "$>", Data: []byte("0@s")},
		}},
		Result:             ReadStreamSuccess,
		NextEventNumber:    1,
		LastEventNumber:    0,
		IsEndOfStream:      true,
		LastCommitPosition: 100,
	}

	decoded := new(ReadStreamEventsCompleted)
	require.NoError(t, decoded.Unmarshal(response.Marshal()))
	require.Len(t, decoded.Events, 1)
	assert.Equal(t, response.Events[0].Event.EventID, decoded.Events[0].Event.EventID)
	assert.EqualValues(t, 7, decoded.Events[0].Link.EventNumber)
	assert.True(t, decoded.IsEndOfStream)
	assert.EqualValues(t, 100, decoded.LastCommitPosition)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	w := new(writer)
	w.string(1, "stream")
	w.buf = protowire.AppendTag(w.buf, 42, protowire.Fixed32Type)
	w.buf = protowire.AppendFixed32(w.buf, 7)
	w.string(99, "future field")
	w.bool(2, true)

	decoded := new(SubscribeToStream)
	require.NoError(t, decoded.Unmarshal(w.buf))
	assert.Equal(t, "stream", decoded.EventStreamID)
	assert.True(t, decoded.ResolveLinkTos)
}

func TestTruncatedPayload(t *testing.T) {
	bytea := (&SubscribeToStream{EventStreamID: "stream"}).Marshal()
	err := new(SubscribeToStream).Unmarshal(bytea[:3])
	assert.ErrorIs(t, err, eserrors.ErrInvalidPayload)

	w := new(writer)
	w.bytes(2, []byte{1, 2, 3})
	err = new(PersistentSubscriptionAckEvents).Unmarshal(w.buf)
	assert.ErrorIs(t, err, eserrors.ErrInvalidPayload)
}

func TestNotHandledMasterInfo(t *testing.T) {
	info := &MasterInfo{ExternalTCPAddress: "10.0.0.2", ExternalTCPPort: 1113, ExternalHTTPAddress: "10.0.0.2", ExternalHTTPPort: 2113}
	notice := &NotHandled{Reason: NotHandledNotMaster, AdditionalInfo: info.Marshal()}

	decoded := new(NotHandled)
	require.NoError(t, decoded.Unmarshal(notice.Marshal()))
	assert.Equal(t, NotHandledNotMaster, decoded.Reason)

	master := new(MasterInfo)
	require.NoError(t, master.Unmarshal(decoded.AdditionalInfo))
	assert.Equal(t, "10.0.0.2:1113", master.TCPEndPoint())
}

func TestPersistentAckChunkRoundTrip(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	nak := &PersistentSubscriptionNakEvents{SubscriptionID: "s::g", ProcessedEventIDs: ids, Message: "bad", Action: NakPark}

	decoded := new(PersistentSubscriptionNakEvents)
	require.NoError(t, decoded.Unmarshal(nak.Marshal()))
	assert.Equal(t, ids, decoded.ProcessedEventIDs)
	assert.Equal(t, NakPark, decoded.Action)
	assert.Equal(t, "bad", decoded.Message)
}
