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
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"golang.org/x/sync/errgroup"

	"github.com/pharmanity/event-store-client/discovery/dnssd"
	eserrors "github.com/pharmanity/event-store-client/errors"
	eshttp "github.com/pharmanity/event-store-client/internal/http"
	"github.com/pharmanity/event-store-client/log"
)

// ClusterDiscoverer elects a node from the gossip of a cluster
type ClusterDiscoverer struct {
	settings      *ClusterSettings
	requireMaster bool
	client        *http.Client
	resolver      dnssd.Resolver
	logger        log.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// enforce compilation error
var _ EndPointDiscoverer = (*ClusterDiscoverer)(nil)

// DiscovererOption configures a ClusterDiscoverer
type DiscovererOption func(*ClusterDiscoverer)

// WithLogger sets the logger
func WithLogger(logger log.Logger) DiscovererOption {
	return func(d *ClusterDiscoverer) { d.logger = logger }
}

// WithHTTPClient overrides the gossip HTTP client
func WithHTTPClient(client *http.Client) DiscovererOption {
	return func(d *ClusterDiscoverer) { d.client = client }
}

// WithResolver overrides the DNS resolver
func WithResolver(resolver dnssd.Resolver) DiscovererOption {
	return func(d *ClusterDiscoverer) { d.resolver = resolver }
}

// WithRandomSource sets the source used to break ties when random nodes are preferred
func WithRandomSource(source rand.Source) DiscovererOption {
	return func(d *ClusterDiscoverer) { d.rnd = rand.New(source) }
}

// NewClusterDiscoverer creates a ClusterDiscoverer.
// With requireMaster only the Master node is ever elected.
func NewClusterDiscoverer(settings *ClusterSettings, requireMaster bool, opts ...DiscovererOption) *ClusterDiscoverer {
	discoverer := &ClusterDiscoverer{
		settings:      settings,
		requireMaster: requireMaster,
		logger:        log.DiscardLogger,
		rnd:           rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(discoverer)
	}
	if discoverer.client == nil {
		discoverer.client = eshttp.NewClient(settings.GossipTimeout())
	}
	if discoverer.resolver == nil {
		discoverer.resolver = net.DefaultResolver
	}
	return discoverer
}

// Discover runs up to MaxDiscoverAttempts rounds and returns the elected node
func (d *ClusterDiscoverer) Discover(ctx context.Context, failed string) (NodeEndPoints, error) {
	var elected Member
	attempt := 0

	retrier := retry.NewRetrier(d.settings.MaxDiscoverAttempts(), 100*time.Millisecond, d.settings.DiscoverDelay())
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		attempt++
		member, err := d.discoverOnce(ctx, failed)
		if err != nil {
			d.logger.Infof("discovery attempt %d/%d failed: %v", attempt, d.settings.MaxDiscoverAttempts(), err)
			return err
		}
		elected = member
		return nil
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return NodeEndPoints{}, fmt.Errorf("%w: %w", eserrors.ErrDiscoveryTimeout, err)
		}
		return NodeEndPoints{}, fmt.Errorf("%w after %d attempts: %w", eserrors.ErrDiscoveryFailed, attempt, err)
	}

	d.logger.Infof("discovered %s node at %s", elected.State, elected.TCPEndPoint())
	return elected.EndPoints(), nil
}

func (d *ClusterDiscoverer) discoverOnce(ctx context.Context, failed string) (Member, error) {
	seeds, err := d.seeds(ctx)
	if err != nil {
		return Member{}, err
	}

	var (
		mu    sync.Mutex
		infos = make([]*ClusterInfo, 0, len(seeds))
		group errgroup.Group
	)

	for _, seed := range seeds {
		group.Go(func() error {
			seedCtx, cancel := context.WithTimeout(ctx, d.settings.GossipTimeout())
			defer cancel()

			info, err := fetchGossip(seedCtx, d.client, seed)
			if err != nil {
				d.logger.Debugf("gossip seed %s failed: %v", seed.EndPoint, err)
				return nil
			}

			mu.Lock()
			infos = append(infos, info)
			mu.Unlock()
			return nil
		})
	}
	// the seed goroutines never fail, they only skip silent seeds
	_ = group.Wait()

	if len(infos) == 0 {
		return Member{}, fmt.Errorf("none of the %d gossip seeds answered", len(seeds))
	}

	return Elect(merge(infos), d.requireMaster, failed, d.shuffler())
}

func (d *ClusterDiscoverer) seeds(ctx context.Context) ([]GossipSeed, error) {
	if d.settings.ClusterDNS() == "" {
		return d.settings.GossipSeeds(), nil
	}

	addresses, err := dnssd.Resolve(ctx, d.resolver, d.settings.ClusterDNS())
	if err != nil {
		return nil, err
	}

	port := strconv.Itoa(d.settings.ExternalGossipPort())
	seeds := make([]GossipSeed, 0, len(addresses))
	for _, address := range addresses {
		seeds = append(seeds, GossipSeed{EndPoint: net.JoinHostPort(address, port)})
	}
	return seeds, nil
}

func (d *ClusterDiscoverer) shuffler() func(n int, swap func(i, j int)) {
	if !d.settings.PreferRandomNode() {
		return nil
	}
	return func(n int, swap func(i, j int)) {
		d.mu.Lock()
		d.rnd.Shuffle(n, swap)
		d.mu.Unlock()
	}
}
