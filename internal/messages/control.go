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
	"net"
	"strconv"
)

// NotHandledReason explains why the server refused a request
type NotHandledReason int32

const (
	NotHandledNotReady  NotHandledReason = 0
	NotHandledTooBusy   NotHandledReason = 1
	NotHandledNotMaster NotHandledReason = 2
)

// NotHandled is sent instead of a response when the node cannot serve a request
type NotHandled struct {
	Reason NotHandledReason
	// AdditionalInfo carries an encoded MasterInfo when Reason is NotHandledNotMaster
	AdditionalInfo []byte
}

// Marshal encodes the notice
func (x *NotHandled) Marshal() []byte {
	w := new(writer)
	w.int32(1, int32(x.Reason))
	if x.AdditionalInfo != nil {
		w.bytes(2, x.AdditionalInfo)
	}
	return w.buf
}

// Unmarshal decodes the notice
func (x *NotHandled) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.Reason = NotHandledReason(f.int32())
		case 2:
			x.AdditionalInfo = f.copyBytes()
		}
		return nil
	})
}

// MasterInfo locates the current master node
type MasterInfo struct {
	ExternalTCPAddress       string
	ExternalTCPPort          int32
	ExternalHTTPAddress      string
	ExternalHTTPPort         int32
	ExternalSecureTCPAddress string
	ExternalSecureTCPPort    int32
}

// TCPEndPoint returns the host:port of the master external TCP endpoint
func (x *MasterInfo) TCPEndPoint() string {
	return net.JoinHostPort(x.ExternalTCPAddress, strconv.Itoa(int(x.ExternalTCPPort)))
}

// Marshal encodes the master location
func (x *MasterInfo) Marshal() []byte {
	w := new(writer)
	w.string(1, x.ExternalTCPAddress)
	w.int32(2, x.ExternalTCPPort)
	w.string(3, x.ExternalHTTPAddress)
	w.int32(4, x.ExternalHTTPPort)
	if x.ExternalSecureTCPAddress != "" {
		w.string(5, x.ExternalSecureTCPAddress)
		w.int32(6, x.ExternalSecureTCPPort)
	}
	return w.buf
}

// Unmarshal decodes the master location
func (x *MasterInfo) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.ExternalTCPAddress = f.string()
		case 2:
			x.ExternalTCPPort = f.int32()
		case 3:
			x.ExternalHTTPAddress = f.string()
		case 4:
			x.ExternalHTTPPort = f.int32()
		case 5:
			x.ExternalSecureTCPAddress = f.string()
		case 6:
			x.ExternalSecureTCPPort = f.int32()
		}
		return nil
	})
}

// IdentifyClient names the connection to the server
type IdentifyClient struct {
	Version        int32
	ConnectionName string
}

// Marshal encodes the request
func (x *IdentifyClient) Marshal() []byte {
	w := new(writer)
	w.int32(1, x.Version)
	if x.ConnectionName != "" {
		w.string(2, x.ConnectionName)
	}
	return w.buf
}

// Unmarshal decodes the request
func (x *IdentifyClient) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.Version = f.int32()
		case 2:
			x.ConnectionName = f.string()
		}
		return nil
	})
}
