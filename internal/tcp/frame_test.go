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

package tcp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eserrors "github.com/pharmanity/event-store-client/errors"
)

func TestGUIDBytes(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	expected := []byte{0x33, 0x22, 0x11, 0x00, 0x55, 0x44, 0x77, 0x66, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	assert.Equal(t, expected, GUIDBytes(id))

	parsed, err := ParseGUIDBytes(expected)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseGUIDBytes([]byte{1, 2})
	assert.Error(t, err)
}

func TestFrameEncode(t *testing.T) {
	t.Run("layout of an anonymous frame", func(t *testing.T) {
		id := uuid.New()
		frame := NewFrame(Ping, id, []byte{0xAA})
		bytea, err := frame.Encode()
		require.NoError(t, err)

		require.Len(t, bytea, 4+18+1)
		assert.EqualValues(t, 19, binary.LittleEndian.Uint32(bytea[:4]))
		assert.Equal(t, byte(Ping), bytea[4])
		assert.Equal(t, byte(FlagsNone), bytea[5])
		assert.Equal(t, GUIDBytes(id), bytea[6:22])
		assert.Equal(t, byte(0xAA), bytea[22])
	})
	t.Run("authenticated frame round trip", func(t *testing.T) {
		id := uuid.New()
		frame := NewAuthenticatedFrame(ReadStreamEventsForward, id, "admin", "changeit", []byte("payload"))
		bytea, err := frame.Encode()
		require.NoError(t, err)

		decoder := NewDecoder(0)
		decoder.Feed(bytea)
		decoded, err := decoder.Next()
		require.NoError(t, err)

		assert.Equal(t, ReadStreamEventsForward, decoded.Command)
		assert.True(t, decoded.Authenticated())
		assert.Equal(t, id, decoded.CorrelationID)
		assert.Equal(t, "admin", decoded.Login)
		assert.Equal(t, "changeit", decoded.Password)
		assert.Equal(t, []byte("payload"), decoded.Payload)
		assert.Zero(t, decoder.Buffered())
	})
	t.Run("credentials longer than 255 bytes are rejected", func(t *testing.T) {
		frame := NewAuthenticatedFrame(Ping, uuid.New(), string(bytes.Repeat([]byte("a"), 256)), "p", nil)
		_, err := frame.Encode()
		assert.ErrorIs(t, err, ErrCredentialTooLong)
	})
	t.Run("string never leaks the password", func(t *testing.T) {
		frame := NewAuthenticatedFrame(Ping, uuid.New(), "admin", "s3cr3t", nil)
		assert.NotContains(t, frame.String(), "s3cr3t")
		assert.Contains(t, frame.String(), "admin")
	})
}

func TestDecoder(t *testing.T) {
	t.Run("frames split across many reads", func(t *testing.T) {
		first, err := NewFrame(HeartbeatRequest, uuid.New(), nil).Encode()
		require.NoError(t, err)
		second, err := NewFrame(WriteEvents, uuid.New(), []byte("abc")).Encode()
		require.NoError(t, err)
		stream := append(first, second...)

		decoder := NewDecoder(0)
		var frames []*Frame
		for _, b := range stream {
			decoder.Feed([]byte{b})
			for {
				frame, err := decoder.Next()
				if err != nil {
					require.ErrorIs(t, err, ErrNeedMoreBytes)
					break
				}
				frames = append(frames, frame)
			}
		}

		require.Len(t, frames, 2)
		assert.Equal(t, HeartbeatRequest, frames[0].Command)
		assert.Equal(t, WriteEvents, frames[1].Command)
		assert.Equal(t, []byte("abc"), frames[1].Payload)
	})
	t.Run("declared length above the limit", func(t *testing.T) {
		decoder := NewDecoder(1024)
		var prefix [4]byte
		binary.LittleEndian.PutUint32(prefix[:], 2048)
		decoder.Feed(prefix[:])
		_, err := decoder.Next()
		assert.ErrorIs(t, err, eserrors.ErrFrameTooLarge)
	})
	t.Run("declared length below the header", func(t *testing.T) {
		decoder := NewDecoder(0)
		var prefix [4]byte
		binary.LittleEndian.PutUint32(prefix[:], 3)
		decoder.Feed(append(prefix[:], 1, 2, 3))
		_, err := decoder.Next()
		assert.ErrorIs(t, err, eserrors.ErrInvalidFrame)
	})
	t.Run("unknown command", func(t *testing.T) {
		bytea, err := NewFrame(Ping, uuid.New(), nil).Encode()
		require.NoError(t, err)
		bytea[4] = 0x7F
		decoder := NewDecoder(0)
		decoder.Feed(bytea)
		_, err = decoder.Next()
		assert.ErrorIs(t, err, eserrors.ErrUnknownCommand)
	})
	t.Run("truncated credentials", func(t *testing.T) {
		bytea, err := NewAuthenticatedFrame(Ping, uuid.New(), "admin", "pw", nil).Encode()
		require.NoError(t, err)
		// claim a login longer than what is left
		bytea[22] = 200
		decoder := NewDecoder(0)
		decoder.Feed(bytea)
		_, err = decoder.Next()
		assert.ErrorIs(t, err, eserrors.ErrInvalidFrame)
	})
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "WriteEventsCompleted", WriteEventsCompleted.String())
	assert.Equal(t, "Command(0x7F)", Command(0x7F).String())
	assert.False(t, Command(0x7F).Known())
	assert.True(t, FlagsAuthenticated.Has(FlagsAuthenticated))
	assert.False(t, FlagsNone.Has(FlagsTrustedWrite))
}
