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
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NodeState is the role a node reports through gossip.
// The declaration order is the election rank: later states are preferred,
// up to Master. Manager and the shutdown states are never elected.
type NodeState int

const (
	StateInitializing NodeState = iota
	StateUnknown
	StatePreReplica
	StateCatchingUp
	StateClone
	StateSlave
	StatePreMaster
	StateMaster
	StateManager
	StateShuttingDown
	StateShutdown
)

var stateNames = map[NodeState]string{
	StateInitializing: "Initializing",
	StateUnknown:      "Unknown",
	StatePreReplica:   "PreReplica",
	StateCatchingUp:   "CatchingUp",
	StateClone:        "Clone",
	StateSlave:        "Slave",
	StatePreMaster:    "PreMaster",
	StateMaster:       "Master",
	StateManager:      "Manager",
	StateShuttingDown: "ShuttingDown",
	StateShutdown:     "Shutdown",
}

// String returns the gossip name of the state
func (s NodeState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseNodeState maps a gossip state name to a NodeState.
// Names this client does not know rank as StateUnknown.
func ParseNodeState(name string) NodeState {
	for state, stateName := range stateNames {
		if stateName == name {
			return state
		}
	}
	return StateUnknown
}

// Electable reports whether a node in this state can serve clients
func (s NodeState) Electable() bool {
	return s < StateManager
}

// MarshalJSON writes the state name
func (s NodeState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads the state name
func (s *NodeState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	*s = ParseNodeState(name)
	return nil
}

// Member is a node as described by gossip
type Member struct {
	InstanceID            uuid.UUID `json:"instanceId"`
	TimeStamp             time.Time `json:"timeStamp"`
	State                 NodeState `json:"state"`
	IsAlive               bool      `json:"isAlive"`
	InternalTCPIP         string    `json:"internalTcpIp,omitempty"`
	InternalTCPPort       int       `json:"internalTcpPort,omitempty"`
	ExternalTCPIP         string    `json:"externalTcpIp"`
	ExternalTCPPort       int       `json:"externalTcpPort"`
	ExternalSecureTCPPort int       `json:"externalSecureTcpPort"`
	InternalHTTPIP        string    `json:"internalHttpIp,omitempty"`
	InternalHTTPPort      int       `json:"internalHttpPort,omitempty"`
	ExternalHTTPIP        string    `json:"externalHttpIp"`
	ExternalHTTPPort      int       `json:"externalHttpPort"`
	LastCommitPosition    int64     `json:"lastCommitPosition"`
	WriterCheckpoint      int64     `json:"writerCheckpoint"`
	ChaserCheckpoint      int64     `json:"chaserCheckpoint"`
	EpochPosition         int64     `json:"epochPosition"`
	EpochNumber           int64     `json:"epochNumber"`
	EpochID               string    `json:"epochId,omitempty"`
	NodePriority          int       `json:"nodePriority"`
}

// TCPEndPoint returns the external host:port clients connect to
func (m Member) TCPEndPoint() string {
	return net.JoinHostPort(m.ExternalTCPIP, strconv.Itoa(m.ExternalTCPPort))
}

// EndPoints returns the member endpoints
func (m Member) EndPoints() NodeEndPoints {
	endpoints := NodeEndPoints{TCP: m.TCPEndPoint()}
	if m.ExternalSecureTCPPort > 0 {
		endpoints.SecureTCP = net.JoinHostPort(m.ExternalTCPIP, strconv.Itoa(m.ExternalSecureTCPPort))
	}
	return endpoints
}

// ClusterInfo is the gossip document served by every node
type ClusterInfo struct {
	Members    []Member `json:"members"`
	ServerIP   string   `json:"serverIp,omitempty"`
	ServerPort int      `json:"serverPort,omitempty"`
}
