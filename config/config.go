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

package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pharmanity/event-store-client/client"
	"github.com/pharmanity/event-store-client/discovery"
	eserrors "github.com/pharmanity/event-store-client/errors"
	"github.com/pharmanity/event-store-client/internal/validation"
	"github.com/pharmanity/event-store-client/log"
)

// Config describes a connection loaded from a YAML file or a connection string.
// Zero values keep the client defaults.
type Config struct {
	// ConnectTo is the single node url, tcp://[user:password@]host:port
	ConnectTo string `yaml:"connect_to"`
	// Cluster is used when ConnectTo is empty
	Cluster     ClusterConfig     `yaml:"cluster"`
	Credentials CredentialsConfig `yaml:"credentials"`
	TLS         TLSConfig         `yaml:"tls"`

	ConnectionName     string        `yaml:"connection_name"`
	RequireMaster      *bool         `yaml:"require_master"`
	MaxQueueSize       int           `yaml:"max_queue_size"`
	MaxConcurrentItems int           `yaml:"max_concurrent_items"`
	MaxRetries         *int          `yaml:"max_retries"`
	MaxReconnections   *int          `yaml:"max_reconnections"`
	ReconnectionDelay  time.Duration `yaml:"reconnection_delay"`
	OperationTimeout   time.Duration `yaml:"operation_timeout"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout   time.Duration `yaml:"heartbeat_timeout"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	VerboseLogging     bool          `yaml:"verbose_logging"`
	// LogLevel is one of debug, info, warn or error
	LogLevel string `yaml:"log_level"`
}

// ClusterConfig locates the nodes of a cluster
type ClusterConfig struct {
	DNS                 string        `yaml:"dns"`
	GossipSeeds         []string      `yaml:"gossip_seeds"`
	ExternalGossipPort  int           `yaml:"external_gossip_port"`
	MaxDiscoverAttempts int           `yaml:"max_discover_attempts"`
	GossipTimeout       time.Duration `yaml:"gossip_timeout"`
	PreferRandomNode    bool          `yaml:"prefer_random_node"`
}

// CredentialsConfig holds the default user credentials
type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TLSConfig enables TLS on the TCP connection
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	ServerName         string `yaml:"server_name"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Load reads the YAML configuration at path
func Load(path string) (*Config, error) {
	bytea, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the configuration: %w", err)
	}
	config := new(Config)
	if err := yaml.Unmarshal(bytea, config); err != nil {
		return nil, fmt.Errorf("%w: %w", eserrors.ErrInvalidSettings, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the configuration names exactly one target
func (c *Config) Validate() error {
	single := c.ConnectTo != ""
	cluster := c.Cluster.DNS != "" || len(c.Cluster.GossipSeeds) > 0

	chain := validation.New(validation.FailFast()).
		AddAssertion(single || cluster, "either connect_to or cluster is required").
		AddAssertion(!single || !cluster, "connect_to and cluster are mutually exclusive")
	if single {
		chain.AddValidator(validation.NewTCPURLValidator("connect_to", c.ConnectTo))
	}
	if err := chain.Validate(); err != nil {
		return fmt.Errorf("%w: %w", eserrors.ErrInvalidSettings, err)
	}
	return nil
}

// IsCluster reports whether the configuration targets a cluster
func (c *Config) IsCluster() bool {
	return c.ConnectTo == ""
}

// address returns the host:port of ConnectTo
func (c *Config) address() string {
	endpoint, _, err := validation.ParseTCPURL(c.ConnectTo)
	if err != nil {
		return c.ConnectTo
	}
	return endpoint.String()
}

// credentials returns the default credentials, the ones of ConnectTo win
func (c *Config) credentials() *client.UserCredentials {
	if _, user, err := validation.ParseTCPURL(c.ConnectTo); err == nil && user != nil {
		password, _ := user.Password()
		return client.NewUserCredentials(user.Username(), password)
	}
	if c.Credentials.Username != "" {
		return client.NewUserCredentials(c.Credentials.Username, c.Credentials.Password)
	}
	return nil
}

// Settings builds the connection settings, opts are applied last
func (c *Config) Settings(opts ...client.Option) (*client.Settings, error) {
	var options []client.Option
	if c.LogLevel != "" {
		options = append(options, client.WithLogger(log.NewZap(log.ParseLevel(c.LogLevel), os.Stdout)))
	}
	if c.VerboseLogging {
		options = append(options, client.WithVerboseLogging())
	}
	if c.ConnectionName != "" {
		options = append(options, client.WithConnectionName(c.ConnectionName))
	}
	if c.RequireMaster != nil {
		options = append(options, client.WithRequireMaster(*c.RequireMaster))
	}
	if c.MaxQueueSize != 0 {
		options = append(options, client.WithMaxQueueSize(c.MaxQueueSize))
	}
	if c.MaxConcurrentItems != 0 {
		options = append(options, client.WithMaxConcurrentItems(c.MaxConcurrentItems))
	}
	if c.MaxRetries != nil {
		options = append(options, client.WithMaxRetries(*c.MaxRetries))
	}
	if c.MaxReconnections != nil {
		options = append(options, client.WithMaxReconnections(*c.MaxReconnections))
	}
	if c.ReconnectionDelay != 0 {
		options = append(options, client.WithReconnectionDelay(c.ReconnectionDelay))
	}
	if c.OperationTimeout != 0 {
		options = append(options, client.WithOperationTimeout(c.OperationTimeout))
	}
	if c.HeartbeatInterval != 0 || c.HeartbeatTimeout != 0 {
		interval, timeout := client.DefaultHeartbeatInterval, client.DefaultHeartbeatTimeout
		if c.HeartbeatInterval != 0 {
			interval = c.HeartbeatInterval
		}
		if c.HeartbeatTimeout != 0 {
			timeout = c.HeartbeatTimeout
		}
		options = append(options, client.WithHeartbeat(interval, timeout))
	}
	if c.ConnectTimeout != 0 {
		options = append(options, client.WithConnectTimeout(c.ConnectTimeout))
	}
	if credentials := c.credentials(); credentials != nil {
		options = append(options, client.WithDefaultUserCredentials(credentials))
	}
	if c.TLS.Enabled {
		options = append(options, client.WithTLS(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			ServerName:         c.TLS.ServerName,
			InsecureSkipVerify: c.TLS.InsecureSkipVerify, //nolint:gosec
		}))
	}

	settings := client.NewSettings(append(options, opts...)...)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// ClusterSettings builds the cluster discovery settings, nil for a single node
func (c *Config) ClusterSettings() (*discovery.ClusterSettings, error) {
	if !c.IsCluster() {
		return nil, nil
	}

	var options []discovery.ClusterOption
	if c.Cluster.ExternalGossipPort != 0 {
		options = append(options, discovery.WithExternalGossipPort(c.Cluster.ExternalGossipPort))
	}
	if c.Cluster.MaxDiscoverAttempts != 0 {
		options = append(options, discovery.WithMaxDiscoverAttempts(c.Cluster.MaxDiscoverAttempts))
	}
	if c.Cluster.GossipTimeout != 0 {
		options = append(options, discovery.WithGossipTimeout(c.Cluster.GossipTimeout))
	}
	if c.Cluster.PreferRandomNode {
		options = append(options, discovery.WithPreferRandomNode())
	}

	if c.Cluster.DNS != "" {
		return discovery.FromClusterDNS(c.Cluster.DNS, options...)
	}

	seeds := make([]discovery.GossipSeed, 0, len(c.Cluster.GossipSeeds))
	for _, seed := range c.Cluster.GossipSeeds {
		seeds = append(seeds, discovery.GossipSeed{EndPoint: seed})
	}
	return discovery.FromGossipSeeds(seeds, options...)
}

// NewConnection creates the Connection the configuration describes
func (c *Config) NewConnection(opts ...client.Option) (*client.Connection, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	settings, err := c.Settings(opts...)
	if err != nil {
		return nil, err
	}
	if !c.IsCluster() {
		return client.NewSingleNode(settings, c.address())
	}
	cluster, err := c.ClusterSettings()
	if err != nil {
		return nil, err
	}
	return client.NewCluster(settings, cluster)
}

