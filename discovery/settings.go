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
	"fmt"
	"time"

	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/validation"
)

const (
	// DefaultMaxDiscoverAttempts is the number of discovery rounds before giving up
	DefaultMaxDiscoverAttempts = 10
	// DefaultExternalGossipPort is the gossip HTTP port used with DNS discovery
	DefaultExternalGossipPort = 30778
	// DefaultGossipTimeout bounds a single gossip request
	DefaultGossipTimeout = time.Second
	// DefaultDiscoverDelay caps the backoff between discovery rounds
	DefaultDiscoverDelay = 500 * time.Millisecond
)

// GossipSeed is the HTTP endpoint of a node answering gossip requests
type GossipSeed struct {
	// EndPoint is the host:port of the gossip HTTP endpoint
	EndPoint string
	// HostHeader overrides the Host header of the gossip request, when set
	HostHeader string
}

// ClusterSettings describes how to find the nodes of a cluster, either from
// explicit gossip seeds or from a DNS name.
// ClusterSettings is immutable once built.
type ClusterSettings struct {
	clusterDNS          string
	gossipSeeds         []GossipSeed
	maxDiscoverAttempts int
	externalGossipPort  int
	gossipTimeout       time.Duration
	discoverDelay       time.Duration
	preferRandomNode    bool
}

// ClusterOption configures ClusterSettings
type ClusterOption interface {
	// Apply sets the Option value of the settings.
	Apply(*ClusterSettings)
}

// enforce compilation error
var _ ClusterOption = ClusterOptionFunc(nil)

// ClusterOptionFunc implements the ClusterOption interface.
type ClusterOptionFunc func(settings *ClusterSettings)

func (f ClusterOptionFunc) Apply(s *ClusterSettings) {
	f(s)
}

// WithMaxDiscoverAttempts sets the number of discovery rounds
func WithMaxDiscoverAttempts(attempts int) ClusterOption {
	return ClusterOptionFunc(func(settings *ClusterSettings) {
		settings.maxDiscoverAttempts = attempts
	})
}

// WithExternalGossipPort sets the gossip port joined to DNS resolved addresses
func WithExternalGossipPort(port int) ClusterOption {
	return ClusterOptionFunc(func(settings *ClusterSettings) {
		settings.externalGossipPort = port
	})
}

// WithGossipTimeout bounds each gossip request
func WithGossipTimeout(timeout time.Duration) ClusterOption {
	return ClusterOptionFunc(func(settings *ClusterSettings) {
		settings.gossipTimeout = timeout
	})
}

// WithDiscoverDelay caps the backoff between two discovery rounds
func WithDiscoverDelay(delay time.Duration) ClusterOption {
	return ClusterOptionFunc(func(settings *ClusterSettings) {
		settings.discoverDelay = delay
	})
}

// WithPreferRandomNode breaks ties between equally ranked nodes at random
func WithPreferRandomNode() ClusterOption {
	return ClusterOptionFunc(func(settings *ClusterSettings) {
		settings.preferRandomNode = true
	})
}

func newClusterSettings(opts ...ClusterOption) *ClusterSettings {
	settings := &ClusterSettings{
		maxDiscoverAttempts: DefaultMaxDiscoverAttempts,
		externalGossipPort:  DefaultExternalGossipPort,
		gossipTimeout:       DefaultGossipTimeout,
		discoverDelay:       DefaultDiscoverDelay,
	}
	for _, opt := range opts {
		opt.Apply(settings)
	}
	return settings
}

// FromGossipSeeds builds settings that query the given seeds
func FromGossipSeeds(seeds []GossipSeed, opts ...ClusterOption) (*ClusterSettings, error) {
	settings := newClusterSettings(opts...)
	settings.gossipSeeds = append(make([]GossipSeed, 0, len(seeds)), seeds...)

	chain := validation.New(validation.FailFast()).
		AddAssertion(len(seeds) > 0, "gossip seeds cannot be empty")
	for _, seed := range seeds {
		chain.AddValidator(validation.NewEndPointValidator("gossip seed", seed.EndPoint))
	}

	if err := settings.validate(chain); err != nil {
		return nil, err
	}
	return settings, nil
}

// FromClusterDNS builds settings that resolve the seeds from a DNS name
func FromClusterDNS(clusterDNS string, opts ...ClusterOption) (*ClusterSettings, error) {
	settings := newClusterSettings(opts...)
	settings.clusterDNS = clusterDNS

	chain := validation.New(validation.FailFast()).
		AddAssertion(clusterDNS != "", "cluster DNS cannot be empty").
		AddAssertion(settings.externalGossipPort >= 1 && settings.externalGossipPort <= 65535,
			fmt.Sprintf("external gossip port value is out of range: %d", settings.externalGossipPort))

	if err := settings.validate(chain); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *ClusterSettings) validate(chain *validation.Chain) error {
	err := chain.
		AddAssertion(s.maxDiscoverAttempts >= 1,
			fmt.Sprintf("max discover attempts value is out of range: %d", s.maxDiscoverAttempts)).
		AddAssertion(s.gossipTimeout > 0, "gossip timeout must be greater than 0").
		AddAssertion(s.discoverDelay >= 0, "discover delay cannot be negative").
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", eserrors.ErrInvalidClusterSettings, err)
	}
	return nil
}

// ClusterDNS returns the DNS name, empty when seeds are used
func (s *ClusterSettings) ClusterDNS() string {
	return s.clusterDNS
}

// GossipSeeds returns a copy of the configured seeds
func (s *ClusterSettings) GossipSeeds() []GossipSeed {
	return append([]GossipSeed(nil), s.gossipSeeds...)
}

// MaxDiscoverAttempts returns the number of discovery rounds
func (s *ClusterSettings) MaxDiscoverAttempts() int {
	return s.maxDiscoverAttempts
}

// ExternalGossipPort returns the gossip port used with DNS discovery
func (s *ClusterSettings) ExternalGossipPort() int {
	return s.externalGossipPort
}

// GossipTimeout returns the per request gossip timeout
func (s *ClusterSettings) GossipTimeout() time.Duration {
	return s.gossipTimeout
}

// DiscoverDelay returns the maximum backoff between rounds
func (s *ClusterSettings) DiscoverDelay() time.Duration {
	return s.discoverDelay
}

// PreferRandomNode reports whether ties are broken at random
func (s *ClusterSettings) PreferRandomNode() bool {
	return s.preferRandomNode
}
