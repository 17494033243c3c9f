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

// Package static provides the discoverer of a single known node.
package static

import (
	"context"

	"github.com/pharmanity/event-store-client/discovery"
)

// Discoverer always returns the configured endpoints
type Discoverer struct {
	endpoints discovery.NodeEndPoints
}

// enforce compilation error
var _ discovery.EndPointDiscoverer = (*Discoverer)(nil)

// NewDiscoverer creates a Discoverer for the given host:port.
// secure is the optional TLS endpoint of the same node.
func NewDiscoverer(tcp, secure string) *Discoverer {
	return &Discoverer{endpoints: discovery.NodeEndPoints{TCP: tcp, SecureTCP: secure}}
}

// Discover returns the configured endpoints
func (d *Discoverer) Discover(ctx context.Context, _ string) (discovery.NodeEndPoints, error) {
	if err := ctx.Err(); err != nil {
		return discovery.NodeEndPoints{}, err
	}
	return d.endpoints, nil
}
