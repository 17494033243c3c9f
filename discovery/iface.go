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

package discovery

import "context"

// NodeEndPoints holds the TCP endpoints of an elected node
type NodeEndPoints struct {
	// TCP is the plain text host:port
	TCP string
	// SecureTCP is the TLS host:port, empty when the node does not expose one
	SecureTCP string
}

// EndPointDiscoverer locates the node a connection should talk to
type EndPointDiscoverer interface {
	// Discover returns the endpoints of the best node.
	// failed is the TCP endpoint of the node the previous connection lost, or empty;
	// it is ranked last among otherwise equal candidates.
	Discover(ctx context.Context, failed string) (NodeEndPoints, error)
}
