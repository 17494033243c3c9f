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
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eserrors "github.com/pharmanity/event-store-client/errors"
)

func member(state NodeState, epoch int64, ip string) Member {
	return Member{
		InstanceID:      uuid.New(),
		TimeStamp:       time.Now(),
		State:           state,
		IsAlive:         true,
		ExternalTCPIP:   ip,
		ExternalTCPPort: 1113,
		EpochNumber:     epoch,
	}
}

func TestElect(t *testing.T) {
	t.Run("master is required", func(t *testing.T) {
		members := []Member{
			member(StateSlave, 3, "10.0.0.1"),
			member(StateMaster, 5, "10.0.0.2"),
			member(StateSlave, 5, "10.0.0.3"),
		}
		for range 20 {
			elected, err := Elect(members, true, "", nil)
			require.NoError(t, err)
			assert.Equal(t, "10.0.0.2:1113", elected.TCPEndPoint())
		}
	})
	t.Run("no master available while required", func(t *testing.T) {
		members := []Member{member(StateSlave, 3, "10.0.0.1"), member(StateClone, 9, "10.0.0.2")}
		_, err := Elect(members, true, "", nil)
		assert.ErrorIs(t, err, eserrors.ErrNoCandidate)
	})
	t.Run("role rank comes before epoch", func(t *testing.T) {
		members := []Member{
			member(StateCatchingUp, 50, "10.0.0.1"),
			member(StateClone, 10, "10.0.0.2"),
			member(StateSlave, 3, "10.0.0.3"),
		}
		elected, err := Elect(members, false, "", nil)
		require.NoError(t, err)
		assert.Equal(t, StateSlave, elected.State)
	})
	t.Run("epoch then writer checkpoint break ties", func(t *testing.T) {
		a := member(StateSlave, 5, "10.0.0.1")
		a.WriterCheckpoint = 10
		b := member(StateSlave, 5, "10.0.0.2")
		b.WriterCheckpoint = 20
		c := member(StateSlave, 4, "10.0.0.3")
		c.WriterCheckpoint = 99

		elected, err := Elect([]Member{a, b, c}, false, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.2:1113", elected.TCPEndPoint())
	})
	t.Run("dead and managing nodes are never elected", func(t *testing.T) {
		dead := member(StateMaster, 9, "10.0.0.1")
		dead.IsAlive = false
		members := []Member{
			dead,
			member(StateManager, 9, "10.0.0.2"),
			member(StateShuttingDown, 9, "10.0.0.3"),
			member(StateShutdown, 9, "10.0.0.4"),
			member(StateInitializing, 0, "10.0.0.5"),
		}
		elected, err := Elect(members, false, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.5:1113", elected.TCPEndPoint())
	})
	t.Run("failed node comes last among equals", func(t *testing.T) {
		members := []Member{member(StateSlave, 5, "10.0.0.1"), member(StateSlave, 5, "10.0.0.2")}
		elected, err := Elect(members, false, "10.0.0.1:1113", nil)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.2:1113", elected.TCPEndPoint())
	})
	t.Run("random tie break only among equals", func(t *testing.T) {
		members := []Member{
			member(StateSlave, 5, "10.0.0.1"),
			member(StateSlave, 5, "10.0.0.2"),
			member(StateSlave, 4, "10.0.0.3"),
		}
		rnd := rand.New(rand.NewPCG(1, 2))
		seen := make(map[string]bool)
		for range 100 {
			elected, err := Elect(members, false, "", rnd.Shuffle)
			require.NoError(t, err)
			seen[elected.TCPEndPoint()] = true
		}
		assert.True(t, seen["10.0.0.1:1113"])
		assert.True(t, seen["10.0.0.2:1113"])
		assert.False(t, seen["10.0.0.3:1113"])
	})
}

func TestMerge(t *testing.T) {
	id := uuid.New()
	old := Member{InstanceID: id, TimeStamp: time.Now().Add(-time.Minute), State: StateSlave}
	fresh := Member{InstanceID: id, TimeStamp: time.Now(), State: StateMaster}
	other := Member{InstanceID: uuid.New(), TimeStamp: time.Now(), State: StateSlave}

	members := merge([]*ClusterInfo{
		{Members: []Member{old, other}},
		{Members: []Member{fresh}},
	})
	require.Len(t, members, 2)
	assert.Equal(t, StateMaster, members[0].State)
	assert.Equal(t, other.InstanceID, members[1].InstanceID)
}

func TestMergeWithoutInstanceIDs(t *testing.T) {
	old := Member{TimeStamp: time.Now().Add(-time.Minute), State: StateSlave, ExternalTCPIP: "10.0.0.1", ExternalTCPPort: 1113}
	fresh := Member{TimeStamp: time.Now(), State: StateMaster, ExternalTCPIP: "10.0.0.1", ExternalTCPPort: 1113}
	other := Member{TimeStamp: time.Now(), State: StateSlave, ExternalTCPIP: "10.0.0.2", ExternalTCPPort: 1113}

	members := merge([]*ClusterInfo{
		{Members: []Member{old, other}},
		{Members: []Member{fresh}},
	})
	require.Len(t, members, 2)
	assert.Equal(t, StateMaster, members[0].State)
	assert.Equal(t, "10.0.0.2:1113", members[1].TCPEndPoint())
}

func TestNodeState(t *testing.T) {
	assert.Equal(t, StateMaster, ParseNodeState("Master"))
	assert.Equal(t, StateUnknown, ParseNodeState("ReadOnlyReplica"))
	assert.Equal(t, "PreMaster", StatePreMaster.String())
	assert.True(t, StateMaster.Electable())
	assert.False(t, StateManager.Electable())
}
