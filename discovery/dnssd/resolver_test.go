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

package dnssd

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	addrs []net.IPAddr
	err   error
}

func (f fakeResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return f.addrs, f.err
}

func TestResolve(t *testing.T) {
	t.Run("deduplicates and sorts", func(t *testing.T) {
		resolver := fakeResolver{addrs: []net.IPAddr{
			{IP: net.ParseIP("10.0.0.3")},
			{IP: net.ParseIP("10.0.0.1")},
			{IP: net.ParseIP("10.0.0.3")},
		}}
		peers, err := Resolve(context.Background(), resolver, "cluster.local")
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.3"}, peers)
	})
	t.Run("lookup failure", func(t *testing.T) {
		_, err := Resolve(context.Background(), fakeResolver{err: errors.New("nxdomain")}, "cluster.local")
		assert.ErrorContains(t, err, "nxdomain")
	})
	t.Run("empty answer", func(t *testing.T) {
		_, err := Resolve(context.Background(), fakeResolver{}, "cluster.local")
		assert.Error(t, err)
	})
}
