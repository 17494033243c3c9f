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
	"fmt"

	"github.com/google/uuid"
)

// GUIDBytes returns the 16 byte wire form of id.
// The server stores identifiers in the mixed endian layout of a .NET Guid:
// the first three groups are little-endian, the last eight bytes are kept as is.
func GUIDBytes(id uuid.UUID) []byte {
	out := make([]byte, 16)
	out[0], out[1], out[2], out[3] = id[3], id[2], id[1], id[0]
	out[4], out[5] = id[5], id[4]
	out[6], out[7] = id[7], id[6]
	copy(out[8:], id[8:])
	return out
}

// ParseGUIDBytes is the inverse of GUIDBytes
func ParseGUIDBytes(b []byte) (uuid.UUID, error) {
	var id uuid.UUID
	if len(b) != 16 {
		return id, fmt.Errorf("invalid guid length %d", len(b))
	}
	id[0], id[1], id[2], id[3] = b[3], b[2], b[1], b[0]
	id[4], id[5] = b[5], b[4]
	id[6], id[7] = b[7], b[6]
	copy(id[8:], b[8:])
	return id, nil
}
