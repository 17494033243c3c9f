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
	"cmp"
	"slices"

	"github.com/google/uuid"

	eserrors "github.com/pharmanity/event-store-client/errors"
)

// Elect picks the best member to connect to.
//
// Only alive members in an electable state are considered; with requireMaster
// only the Master qualifies. Candidates are ranked by state, then epoch number,
// then writer checkpoint, and the member serving failed comes last among equals.
// When shuffle is not nil the candidates are shuffled before the stable sort so
// exact ties are broken at random.
func Elect(members []Member, requireMaster bool, failed string, shuffle func(n int, swap func(i, j int))) (Member, error) {
	candidates := make([]Member, 0, len(members))
	for _, member := range members {
		if !member.IsAlive || !member.State.Electable() {
			continue
		}
		if requireMaster && member.State != StateMaster {
			continue
		}
		candidates = append(candidates, member)
	}

	if len(candidates) == 0 {
		return Member{}, eserrors.ErrNoCandidate
	}

	if shuffle != nil {
		shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}

	slices.SortStableFunc(candidates, func(a, b Member) int {
		if c := cmp.Compare(b.State, a.State); c != 0 {
			return c
		}
		if c := cmp.Compare(b.EpochNumber, a.EpochNumber); c != 0 {
			return c
		}
		if c := cmp.Compare(b.WriterCheckpoint, a.WriterCheckpoint); c != 0 {
			return c
		}
		return cmp.Compare(isFailed(a, failed), isFailed(b, failed))
	})

	return candidates[0], nil
}

func isFailed(member Member, failed string) int {
	if failed != "" && member.TCPEndPoint() == failed {
		return 1
	}
	return 0
}

// merge keeps the most recent view of every member across gossip responses.
// Members are keyed by instance id, or by TCP endpoint when gossip carries no id.
func merge(infos []*ClusterInfo) []Member {
	latest := make(map[string]Member)
	order := make([]string, 0)
	for _, info := range infos {
		for _, member := range info.Members {
			key := memberKey(member)
			current, ok := latest[key]
			if !ok {
				order = append(order, key)
				latest[key] = member
				continue
			}
			if member.TimeStamp.After(current.TimeStamp) {
				latest[key] = member
			}
		}
	}

	members := make([]Member, 0, len(order))
	for _, key := range order {
		members = append(members, latest[key])
	}
	return members
}

func memberKey(member Member) string {
	if member.InstanceID == uuid.Nil {
		return "tcp://" + member.TCPEndPoint()
	}
	return member.InstanceID.String()
}
