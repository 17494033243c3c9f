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
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/bufferpool"
)

const (
	// MaxFrameSize caps the declared length of a single frame
	MaxFrameSize = 64 << 20
	// lengthPrefixSize is the size of the little-endian length header
	lengthPrefixSize = 4
	// headerSize is command + flags + correlation id
	headerSize = 1 + 1 + 16
	// maxCredentialLength is the biggest login or password the one byte prefix can carry
	maxCredentialLength = 255
)

// Frame is a single protocol message. On the wire it is laid out as
//
//	length:uint32-LE | command:uint8 | flags:uint8 | correlationId:16 |
//	[loginLen:uint8 | login | passwordLen:uint8 | password] | payload
//
// The command byte precedes the flags byte, the order the server reads them in.
// length counts every byte after itself and the correlation id is in .NET Guid byte order.
type Frame struct {
	Command       Command
	Flags         Flags
	CorrelationID uuid.UUID
	Login         string
	Password      string
	Payload       []byte
}

// NewFrame creates an unauthenticated frame
func NewFrame(command Command, correlationID uuid.UUID, payload []byte) *Frame {
	return &Frame{
		Command:       command,
		Flags:         FlagsNone,
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// NewAuthenticatedFrame creates a frame carrying credentials
func NewAuthenticatedFrame(command Command, correlationID uuid.UUID, login, password string, payload []byte) *Frame {
	return &Frame{
		Command:       command,
		Flags:         FlagsAuthenticated,
		CorrelationID: correlationID,
		Login:         login,
		Password:      password,
		Payload:       payload,
	}
}

// Authenticated reports whether the frame carries credentials
func (f *Frame) Authenticated() bool {
	return f.Flags.Has(FlagsAuthenticated)
}

// String renders the frame for logs. Credentials are never shown.
func (f *Frame) String() string {
	auth := ""
	if f.Authenticated() {
		auth = fmt.Sprintf(", login=%q, password=<redacted>", f.Login)
	}
	return fmt.Sprintf("Frame{command=%s, flags=0x%02X, correlationId=%s%s, payload=%d bytes}",
		f.Command, byte(f.Flags), f.CorrelationID, auth, len(f.Payload))
}

// Encode returns the length prefixed wire form of the frame
func (f *Frame) Encode() ([]byte, error) {
	bodySize := headerSize + len(f.Payload)
	if f.Authenticated() {
		if len(f.Login) > maxCredentialLength || len(f.Password) > maxCredentialLength {
			return nil, ErrCredentialTooLong
		}
		bodySize += 2 + len(f.Login) + len(f.Password)
	}

	if bodySize > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", eserrors.ErrFrameTooLarge, bodySize)
	}

	buf := bufferpool.Pool.Get()
	defer bufferpool.Pool.Put(buf)
	buf.Grow(lengthPrefixSize + bodySize)

	var prefix [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(bodySize))
	buf.Write(prefix[:])
	buf.WriteByte(byte(f.Command))
	buf.WriteByte(byte(f.Flags))
	buf.Write(GUIDBytes(f.CorrelationID))
	if f.Authenticated() {
		buf.WriteByte(byte(len(f.Login)))
		buf.WriteString(f.Login)
		buf.WriteByte(byte(len(f.Password)))
		buf.WriteString(f.Password)
	}
	buf.Write(f.Payload)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// decodeBody parses everything that follows the length prefix
func decodeBody(body []byte) (*Frame, error) {
	if len(body) < headerSize {
		return nil, fmt.Errorf("%w: body of %d bytes is shorter than the header", eserrors.ErrInvalidFrame, len(body))
	}

	command := Command(body[0])
	if !command.Known() {
		return nil, fmt.Errorf("%w: 0x%02X", eserrors.ErrUnknownCommand, body[0])
	}

	// the header length was checked above so this cannot fail
	correlationID, _ := ParseGUIDBytes(body[2:headerSize])
	frame := &Frame{
		Command:       command,
		Flags:         Flags(body[1]),
		CorrelationID: correlationID,
	}

	rest := body[headerSize:]
	if frame.Authenticated() {
		login, remaining, err := readCredential(rest)
		if err != nil {
			return nil, err
		}
		password, remaining, err := readCredential(remaining)
		if err != nil {
			return nil, err
		}
		frame.Login = login
		frame.Password = password
		rest = remaining
	}

	frame.Payload = make([]byte, len(rest))
	copy(frame.Payload, rest)
	return frame, nil
}

func readCredential(b []byte) (string, []byte, error) {
	if len(b) < 1 {
		return "", nil, fmt.Errorf("%w: missing credential length", eserrors.ErrInvalidFrame)
	}
	size := int(b[0])
	if len(b) < 1+size {
		return "", nil, fmt.Errorf("%w: truncated credential", eserrors.ErrInvalidFrame)
	}
	return string(b[1 : 1+size]), b[1+size:], nil
}
