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

// Package messages holds the payload types of the server protocol.
// Payloads are protocol buffers encoded and decoded field by field with protowire,
// so the package carries no generated code.
package messages

import (
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/tcp"
)

type writer struct {
	buf []byte
}

func (w *writer) string(num protowire.Number, value string) {
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendString(w.buf, value)
}

func (w *writer) bytes(num protowire.Number, value []byte) {
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, value)
}

func (w *writer) uuid(num protowire.Number, value uuid.UUID) {
	w.bytes(num, tcp.GUIDBytes(value))
}

func (w *writer) int64(num protowire.Number, value int64) {
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, uint64(value))
}

func (w *writer) int32(num protowire.Number, value int32) {
	w.int64(num, int64(value))
}

func (w *writer) bool(num protowire.Number, value bool) {
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeBool(value))
}

func (w *writer) message(num protowire.Number, value []byte) {
	w.bytes(num, value)
}

// field is a single decoded varint or length delimited field
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func (f field) int64() int64   { return int64(f.varint) }
func (f field) int32() int32   { return int32(f.varint) }
func (f field) bool() bool     { return protowire.DecodeBool(f.varint) }
func (f field) string() string { return string(f.bytes) }

func (f field) uuid() (uuid.UUID, error) {
	id, err := tcp.ParseGUIDBytes(f.bytes)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: field %d: %v", eserrors.ErrInvalidPayload, f.num, err)
	}
	return id, nil
}

// copyBytes detaches a bytes field from the frame buffer
func (f field) copyBytes() []byte {
	if f.bytes == nil {
		return nil
	}
	out := make([]byte, len(f.bytes))
	copy(out, f.bytes)
	return out
}

// walk visits every varint and length delimited field of b in order.
// Fields of other wire types are skipped.
func walk(b []byte, visit func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", eserrors.ErrInvalidPayload, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", eserrors.ErrInvalidPayload, num, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType && typ != protowire.BytesType {
			continue
		}
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}
