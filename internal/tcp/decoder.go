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

	eserrors "github.com/pharmanity/event-store-client/errors"
)

// Decoder turns a byte stream into frames.
// Bytes are pushed with Feed as they arrive; Next pops complete frames and
// returns ErrNeedMoreBytes until enough data has been accumulated.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buffer []byte
	max    int
}

// NewDecoder creates a Decoder rejecting frames bigger than maxFrameSize.
// A non positive size falls back to MaxFrameSize.
func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 || maxFrameSize > MaxFrameSize {
		maxFrameSize = MaxFrameSize
	}
	return &Decoder{max: maxFrameSize}
}

// Feed appends raw bytes read from the socket
func (d *Decoder) Feed(p []byte) {
	d.buffer = append(d.buffer, p...)
}

// Buffered returns the number of bytes not yet consumed
func (d *Decoder) Buffered() int {
	return len(d.buffer)
}

// Next returns the next complete frame.
// A frame that cannot be parsed leaves the stream out of sync: the caller
// must close the connection after any error other than ErrNeedMoreBytes.
func (d *Decoder) Next() (*Frame, error) {
	if len(d.buffer) < lengthPrefixSize {
		return nil, ErrNeedMoreBytes
	}

	size := int(binary.LittleEndian.Uint32(d.buffer[:lengthPrefixSize]))
	if size > d.max {
		return nil, fmt.Errorf("%w: declared %d bytes, max is %d", eserrors.ErrFrameTooLarge, size, d.max)
	}
	if size < headerSize {
		return nil, fmt.Errorf("%w: declared length %d is shorter than the header", eserrors.ErrInvalidFrame, size)
	}

	if len(d.buffer) < lengthPrefixSize+size {
		return nil, ErrNeedMoreBytes
	}

	body := d.buffer[lengthPrefixSize : lengthPrefixSize+size]
	frame, err := decodeBody(body)
	d.consume(lengthPrefixSize + size)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (d *Decoder) consume(n int) {
	remaining := copy(d.buffer, d.buffer[n:])
	d.buffer = d.buffer[:remaining]
	// release big backing arrays once drained
	if remaining == 0 && cap(d.buffer) > 1<<20 {
		d.buffer = nil
	}
}
