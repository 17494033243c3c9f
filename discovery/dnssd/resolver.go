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

// Package dnssd turns a cluster DNS name into gossip seed addresses.
package dnssd

import (
	"context"
	"fmt"
	"net"
	"slices"

	goset "github.com/deckarep/golang-set/v2"
)

// Resolver looks up the addresses behind a DNS name.
// net.DefaultResolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// enforce compilation error
var _ Resolver = net.DefaultResolver

// Resolve returns the distinct IP addresses of domain in a stable order
func Resolve(ctx context.Context, resolver Resolver, domain string) ([]string, error) {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupIPAddr(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", domain, err)
	}

	peers := goset.NewThreadUnsafeSet[string]()
	for _, addr := range addrs {
		peers.Add(addr.IP.String())
	}

	if peers.Cardinality() == 0 {
		return nil, fmt.Errorf("no address found for %s", domain)
	}

	out := peers.ToSlice()
	slices.Sort(out)
	return out, nil
}
