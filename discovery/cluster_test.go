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

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eserrors "github.com/pharmanity/event-store-client/errors"
)

func gossipServer(t *testing.T, info *ClusterInfo, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/gossip" || r.URL.Query().Get("format") != "json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(server.Close)
	return server
}

func seedOf(server *httptest.Server) GossipSeed {
	return GossipSeed{EndPoint: server.Listener.Addr().String()}
}

func TestClusterDiscoverer(t *testing.T) {
	t.Run("elects the master from merged gossip", func(t *testing.T) {
		master := member(StateMaster, 5, "10.0.0.2")
		slaveA := member(StateSlave, 3, "10.0.0.1")
		slaveB := member(StateSlave, 5, "10.0.0.3")

		first := gossipServer(t, &ClusterInfo{Members: []Member{slaveA, slaveB}}, nil)
		second := gossipServer(t, &ClusterInfo{Members: []Member{slaveA, master, slaveB}}, nil)

		settings, err := FromGossipSeeds([]GossipSeed{seedOf(first), seedOf(second)},
			WithMaxDiscoverAttempts(2), WithGossipTimeout(time.Second))
		require.NoError(t, err)

		endpoints, err := NewClusterDiscoverer(settings, true).Discover(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.2:1113", endpoints.TCP)
	})
	t.Run("elects the master from gossip without instance ids", func(t *testing.T) {
		const document = `{"members":[
			{"state":"Slave","isAlive":true,"externalTcpIp":"10.0.0.1","externalTcpPort":1113,"epochNumber":3},
			{"state":"Master","isAlive":true,"externalTcpIp":"10.0.0.2","externalTcpPort":1113,"epochNumber":5},
			{"state":"Slave","isAlive":true,"externalTcpIp":"10.0.0.3","externalTcpPort":1113,"epochNumber":5}
		]}`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(document))
		}))
		t.Cleanup(server.Close)

		settings, err := FromGossipSeeds([]GossipSeed{seedOf(server)}, WithMaxDiscoverAttempts(1))
		require.NoError(t, err)

		endpoints, err := NewClusterDiscoverer(settings, true).Discover(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.2:1113", endpoints.TCP)
	})
	t.Run("silent seeds are skipped", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		deadSeed := GossipSeed{EndPoint: listener.Addr().String()}
		require.NoError(t, listener.Close())

		alive := gossipServer(t, &ClusterInfo{Members: []Member{member(StateMaster, 1, "10.0.0.9")}}, nil)

		settings, err := FromGossipSeeds([]GossipSeed{deadSeed, seedOf(alive)},
			WithMaxDiscoverAttempts(1), WithGossipTimeout(500*time.Millisecond))
		require.NoError(t, err)

		endpoints, err := NewClusterDiscoverer(settings, true).Discover(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.9:1113", endpoints.TCP)
	})
	t.Run("gives up after the configured rounds", func(t *testing.T) {
		var hits atomic.Int32
		server := gossipServer(t, &ClusterInfo{Members: []Member{member(StateSlave, 1, "10.0.0.1")}}, &hits)

		settings, err := FromGossipSeeds([]GossipSeed{seedOf(server)},
			WithMaxDiscoverAttempts(3), WithDiscoverDelay(10*time.Millisecond))
		require.NoError(t, err)

		_, err = NewClusterDiscoverer(settings, true).Discover(context.Background(), "")
		require.ErrorIs(t, err, eserrors.ErrDiscoveryFailed)
		assert.EqualValues(t, 3, hits.Load())
	})
	t.Run("secure endpoint is reported", func(t *testing.T) {
		node := member(StateMaster, 1, "10.0.0.1")
		node.ExternalSecureTCPPort = 1115
		server := gossipServer(t, &ClusterInfo{Members: []Member{node}}, nil)

		settings, err := FromGossipSeeds([]GossipSeed{seedOf(server)})
		require.NoError(t, err)

		endpoints, err := NewClusterDiscoverer(settings, false).Discover(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1:1115", endpoints.SecureTCP)
	})
	t.Run("seeds resolved from DNS", func(t *testing.T) {
		server := gossipServer(t, &ClusterInfo{Members: []Member{member(StateMaster, 1, "10.0.0.7")}}, nil)
		host, port, err := net.SplitHostPort(server.Listener.Addr().String())
		require.NoError(t, err)
		gossipPort, err := strconv.Atoi(port)
		require.NoError(t, err)

		settings, err := FromClusterDNS("cluster.local", WithExternalGossipPort(gossipPort), WithMaxDiscoverAttempts(1))
		require.NoError(t, err)

		resolver := staticResolver{ip: net.ParseIP(host)}
		endpoints, err := NewClusterDiscoverer(settings, true, WithResolver(resolver)).Discover(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.7:1113", endpoints.TCP)
	})
}

type staticResolver struct {
	ip net.IP
}

func (r staticResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return []net.IPAddr{{IP: r.ip}, {IP: r.ip}}, nil
}

func TestGossipDocument(t *testing.T) {
	raw := `{"members":[{"instanceId":"` + uuid.NewString() + `","timeStamp":"2024-03-01T10:00:00.1234567Z",
		"state":"Master","isAlive":true,"externalTcpIp":"127.0.0.1","externalTcpPort":1113,
		"externalSecureTcpPort":0,"externalHttpIp":"127.0.0.1","externalHttpPort":2113,
		"epochNumber":7,"writerCheckpoint":1024,"epochId":"b8b61c0f-0000-0000-0000-000000000000"}],
		"serverIp":"127.0.0.1","serverPort":2113}`

	info := new(ClusterInfo)
	require.NoError(t, json.Unmarshal([]byte(raw), info))
	require.Len(t, info.Members, 1)
	assert.Equal(t, StateMaster, info.Members[0].State)
	assert.EqualValues(t, 7, info.Members[0].EpochNumber)
	assert.Equal(t, "127.0.0.1:1113", info.Members[0].TCPEndPoint())
}

func TestClusterSettings(t *testing.T) {
	t.Run("gossip seeds", func(t *testing.T) {
		_, err := FromGossipSeeds(nil)
		assert.ErrorIs(t, err, eserrors.ErrInvalidClusterSettings)

		_, err = FromGossipSeeds([]GossipSeed{{EndPoint: "not-an-endpoint"}})
		assert.ErrorIs(t, err, eserrors.ErrInvalidClusterSettings)

		_, err = FromGossipSeeds([]GossipSeed{{EndPoint: "10.0.0.1:2113"}}, WithMaxDiscoverAttempts(0))
		assert.ErrorContains(t, err, "max discover attempts value is out of range: 0")

		settings, err := FromGossipSeeds([]GossipSeed{{EndPoint: "10.0.0.1:2113"}}, WithPreferRandomNode())
		require.NoError(t, err)
		assert.True(t, settings.PreferRandomNode())
		assert.Equal(t, DefaultMaxDiscoverAttempts, settings.MaxDiscoverAttempts())
		assert.Len(t, settings.GossipSeeds(), 1)
	})
	t.Run("cluster dns", func(t *testing.T) {
		_, err := FromClusterDNS("")
		assert.ErrorContains(t, err, "cluster DNS cannot be empty")

		_, err = FromClusterDNS("cluster.local", WithExternalGossipPort(0))
		assert.ErrorContains(t, err, "external gossip port value is out of range: 0")

		settings, err := FromClusterDNS("cluster.local")
		require.NoError(t, err)
		assert.Equal(t, "cluster.local", settings.ClusterDNS())
		assert.Equal(t, DefaultExternalGossipPort, settings.ExternalGossipPort())
		assert.Equal(t, DefaultGossipTimeout, settings.GossipTimeout())
	})
}
