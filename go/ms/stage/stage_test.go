/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/partitioning"
	"vitess.io/multistage/go/ms/rel"
)

var testSchema = NewDataSchema([]rel.Field{{Name: "a", Type: rel.TypeInt}, {Name: "b", Type: rel.TypeString}})

func TestNewExchangeSpecNormalizes(t *testing.T) {
	ks := partitioning.NewFieldSelectionKeySelector([]int{1})

	spec := NewExchangeSpec(rel.Broadcast, ks, nil, true)
	assert.Nil(t, spec.KeySelector, "non-hash exchanges carry no key selector")
	assert.False(t, spec.SortOnSender, "sort flags need a collation")

	spec = NewExchangeSpec(rel.HashDistributed, ks, rel.Collation{{FieldIndex: 0, Direction: rel.Descending}}, true)
	assert.Equal(t, []int{1}, spec.KeySelector.Columns())
	assert.True(t, spec.SortOnSender)

	recv := NewMailboxReceiveNode(1, testSchema, 2, NewExchangeSpec(rel.Singleton, nil, rel.Collation{}, false), true)
	assert.False(t, recv.SortOnReceiver)
	assert.Nil(t, recv.Collation)
}

func TestExplain(t *testing.T) {
	spec := NewExchangeSpec(rel.HashDistributed, partitioning.NewFieldSelectionKeySelector([]int{0}), nil, false)
	send := NewMailboxSendNode(2, testSchema, 1, spec)
	recv := NewMailboxReceiveNode(1, testSchema, 2, spec, false)
	assert.Equal(t, "MAILBOX_SEND(to=1, HASH_DISTRIBUTED, keys=[0])", send.Explain())
	assert.Equal(t, "MAILBOX_RECEIVE(from=2, HASH_DISTRIBUTED, keys=[0])", recv.Explain())

	sorted := NewExchangeSpec(rel.Singleton, nil, rel.Collation{{FieldIndex: 1}}, true)
	recv = NewMailboxReceiveNode(0, testSchema, 1, sorted, true)
	assert.Equal(t, "MAILBOX_RECEIVE(from=1, SINGLETON, collation=[(1,ASC)], sortOnSender=true, sortOnReceiver=true)", recv.Explain())

	assert.Equal(t, "TABLE_SCAN(t, columns=[a, b])", NewTableScanNode(1, testSchema, "t", []string{"a", "b"}).Explain())
	assert.Equal(t, "SORT(collation=[(0,DESC)], fetch=10)",
		NewSortNode(1, testSchema, rel.Collation{{FieldIndex: 0, Direction: rel.Descending}}, -1, 10).Explain())
	assert.Equal(t, "SET_OP(UNION ALL)", NewSetOpNode(1, testSchema, rel.Union, true).Explain())
}

func TestForest(t *testing.T) {
	f := NewForest()
	spec := NewExchangeSpec(rel.RandomDistributed, nil, nil, false)
	require.NoError(t, f.Register(NewMailboxSendNode(3, testSchema, 1, spec)))
	require.NoError(t, f.Register(NewMailboxSendNode(1, testSchema, 0, spec)))

	err := f.Register(NewMailboxSendNode(3, testSchema, 2, spec))
	assert.True(t, mserrors.Is(err, mserrors.Internal), "%v", err)

	assert.Equal(t, []int{1, 3}, f.StageIDs())
	send, ok := f.SendNode(3)
	require.True(t, ok)
	assert.Equal(t, 1, send.ReceiverStageID)

	recv := NewMailboxReceiveNode(1, testSchema, 3, spec, false)
	resolved, ok := recv.Sender(f)
	require.True(t, ok)
	assert.Same(t, send, resolved)

	_, ok = f.SendNode(7)
	assert.False(t, ok)
}

func TestCheckPair(t *testing.T) {
	hash := NewExchangeSpec(rel.HashDistributed, partitioning.NewFieldSelectionKeySelector([]int{0}), nil, false)
	otherHash := NewExchangeSpec(rel.HashDistributed, partitioning.NewFieldSelectionKeySelector([]int{1}), nil, false)

	tcases := []struct {
		name string
		send *MailboxSendNode
		recv *MailboxReceiveNode
		err  string
	}{{
		name: "matched",
		send: NewMailboxSendNode(2, testSchema, 1, hash),
		recv: NewMailboxReceiveNode(1, testSchema, 2, hash, false),
	}, {
		name: "wrong receiver stage",
		send: NewMailboxSendNode(2, testSchema, 3, hash),
		recv: NewMailboxReceiveNode(1, testSchema, 2, hash, false),
		err:  "targets stage 3",
	}, {
		name: "wrong sender stage",
		send: NewMailboxSendNode(2, testSchema, 1, hash),
		recv: NewMailboxReceiveNode(1, testSchema, 4, hash, false),
		err:  "reads from stage 4",
	}, {
		name: "same stage",
		send: NewMailboxSendNode(1, testSchema, 1, hash),
		recv: NewMailboxReceiveNode(1, testSchema, 1, hash, false),
		err:  "exchange within stage 1",
	}, {
		name: "hash without key selector",
		send: NewMailboxSendNode(2, testSchema, 1, ExchangeSpec{DistributionType: rel.HashDistributed}),
		recv: NewMailboxReceiveNode(1, testSchema, 2, ExchangeSpec{DistributionType: rel.HashDistributed}, false),
		err:  "with key selector",
	}, {
		name: "sort without collation",
		send: NewMailboxSendNode(2, testSchema, 1, ExchangeSpec{DistributionType: rel.Singleton, SortOnSender: true}),
		recv: NewMailboxReceiveNode(1, testSchema, 2, ExchangeSpec{DistributionType: rel.Singleton, SortOnSender: true}, false),
		err:  "sort on sender without collation",
	}, {
		name: "different keys",
		send: NewMailboxSendNode(2, testSchema, 1, hash),
		recv: NewMailboxReceiveNode(1, testSchema, 2, otherHash, false),
		err:  "disagree on the exchange contract",
	}}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPair(tc.send, tc.recv)
			if tc.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.err)
			assert.True(t, mserrors.Is(err, mserrors.Internal))
		})
	}
}

func TestWalk(t *testing.T) {
	spec := NewExchangeSpec(rel.RandomDistributed, nil, nil, false)
	join := NewJoinNode(1, testSchema, rel.InnerJoin, JoinKeys{LeftKeys: []int{0}, RightKeys: []int{0}}, nil)
	left := NewFilterNode(1, testSchema, &rel.InputRef{Index: 0})
	left.AddInput(NewMailboxReceiveNode(1, testSchema, 2, spec, false))
	join.AddInput(left)
	join.AddInput(NewMailboxReceiveNode(1, testSchema, 3, spec, false))

	var visited []string
	require.NoError(t, Walk(join, func(n Node) error {
		visited = append(visited, n.Explain())
		return nil
	}))
	assert.Equal(t, []string{
		"JOIN(INNER, left=[0], right=[0])",
		"FILTER($0)",
		"MAILBOX_RECEIVE(from=2, RANDOM_DISTRIBUTED)",
		"MAILBOX_RECEIVE(from=3, RANDOM_DISTRIBUTED)",
	}, visited)

	stop := mserrors.NewInternalError("stop")
	count := 0
	err := Walk(join, func(Node) error {
		count++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, count)
}
