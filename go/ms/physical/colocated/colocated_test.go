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

package colocated

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitess.io/multistage/go/ms/cluster"
	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/partitioning"
	"vitess.io/multistage/go/ms/physical"
	"vitess.io/multistage/go/ms/planner/plancontext"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
)

var (
	broker  = &cluster.ServerInstance{ID: "broker", Hostname: "broker", QueryMailboxPort: 9000}
	server0 = &cluster.ServerInstance{ID: "s0", Hostname: "h0", QueryMailboxPort: 9001}
	server1 = &cluster.ServerInstance{ID: "s1", Hostname: "h1", QueryMailboxPort: 9001}

	schema = stage.NewDataSchema([]rel.Field{{Name: "k", Type: rel.TypeLong}, {Name: "v", Type: rel.TypeLong}})
)

type assigner struct{}

func (assigner) AssignWorkerToStage(_ context.Context, stageID int, md *physical.StageMetadata, _ int64, _ *plancontext.PlannerContext) error {
	if stageID == stage.RootStageID {
		md.ServerInstances = []*cluster.ServerInstance{broker}
	} else {
		md.ServerInstances = []*cluster.ServerInstance{server0, server1}
	}
	return nil
}

type lookup map[string]*cluster.TablePlacement

func (l lookup) LookupPlacement(_ context.Context, table string) (*cluster.TablePlacement, error) {
	if p, ok := l[table]; ok {
		return p, nil
	}
	return nil, errors.New("no placement for " + table)
}

func partitioned(table, column string) *cluster.TablePlacement {
	return &cluster.TablePlacement{
		Table:             table,
		PartitionColumn:   column,
		PartitionFunction: "murmur",
		NumPartitions:     2,
		ServerPartitions:  map[string][]int{"s0": {0}, "s1": {1}},
	}
}

var placements = lookup{
	"orders":    partitioned("orders", "customer_id"),
	"customers": partitioned("customers", "id"),
	"items":     partitioned("items", "order_id"),
	"refunds":   partitioned("refunds", "order_id"),
}

// builder assembles a stage forest by hand.
type builder struct {
	t      *testing.T
	forest *stage.Forest
}

func (b *builder) link(from, to int, spec stage.ExchangeSpec, root stage.Node) *stage.MailboxReceiveNode {
	send := stage.NewMailboxSendNode(from, schema, to, spec)
	send.AddInput(root)
	require.NoError(b.t, b.forest.Register(send))
	return stage.NewMailboxReceiveNode(to, schema, from, spec, false)
}

// leaf builds a stage scanning table, hashed on key, feeding stage to.
func (b *builder) leaf(id, to int, table string, columns []string, key int) *stage.MailboxReceiveNode {
	hash := stage.NewExchangeSpec(rel.HashDistributed, partitioning.NewFieldSelectionKeySelector([]int{key}), nil, false)
	return b.link(id, to, hash, stage.NewTableScanNode(id, schema, table, columns))
}

func (b *builder) join(id int, inputs ...stage.Node) stage.Node {
	j := stage.NewJoinNode(id, schema, rel.InnerJoin, stage.JoinKeys{LeftKeys: []int{0}, RightKeys: []int{0}}, nil)
	for _, in := range inputs {
		j.AddInput(in)
	}
	return j
}

func (b *builder) plan(top stage.Node) *physical.QueryPlan {
	random := stage.NewExchangeSpec(rel.RandomDistributed, nil, nil, false)
	root := b.link(1, 0, random, top)
	dc := physical.NewDispatchablePlanContext(assigner{}, 5, nil, nil, nil)
	plan, err := physical.ConstructDispatchablePlan(context.Background(), root, b.forest, dc)
	require.NoError(b.t, err)
	return plan
}

func newBuilder(t *testing.T) *builder {
	return &builder{t: t, forest: stage.NewForest()}
}

// describe flattens the exchange metadata and routes of a plan.
func describe(plan *physical.QueryPlan) map[int][]string {
	out := map[int][]string{}
	for _, id := range plan.StageIDs() {
		_ = stage.Walk(plan.QueryStageMap[id], func(n stage.Node) error {
			out[id] = append(out[id], n.Explain())
			return nil
		})
		md := plan.StageMetadataMap[id]
		for _, w := range md.WorkerIDs() {
			for _, box := range md.MailboxRoutes[w] {
				out[id] = append(out[id], box.String())
			}
		}
	}
	return out
}

func TestOptimizeShufflesColocatesJoin(t *testing.T) {
	b := newBuilder(t)
	plan := b.plan(b.join(1,
		b.leaf(2, 1, "orders", []string{"customer_id", "amount"}, 0),
		b.leaf(3, 1, "customers", []string{"id", "name"}, 0),
	))

	n, err := OptimizeShuffles(context.Background(), plan, placements)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, pair := range plan.ExchangePairs() {
		if pair.Send.ReceiverStageID == 0 {
			assert.Equal(t, rel.RandomDistributed, pair.Send.DistributionType)
			continue
		}
		assert.Equal(t, rel.Singleton, pair.Send.DistributionType)
		assert.Nil(t, pair.Send.KeySelector)
		require.NoError(t, stage.CheckPair(pair.Send, pair.Receive))

		routes := plan.StageMetadataMap[pair.Send.StageID()].MailboxRoutes
		for _, boxes := range routes {
			require.Len(t, boxes, 1)
			assert.Equal(t, boxes[0].SenderAddress, boxes[0].ReceiverAddress)
		}
	}
	assert.Equal(t, "5|2|h0:9001|1|h0:9001", plan.StageMetadataMap[2].MailboxRoutes["s0"][0].String())
}

func TestOptimizeShufflesWithoutHashExchanges(t *testing.T) {
	b := newBuilder(t)
	broadcast := stage.NewExchangeSpec(rel.Broadcast, nil, nil, false)
	plan := b.plan(b.join(1,
		b.link(2, 1, broadcast, stage.NewTableScanNode(2, schema, "orders", []string{"customer_id"})),
		b.link(3, 1, broadcast, stage.NewTableScanNode(3, schema, "customers", []string{"id"})),
	))
	before := describe(plan)

	n, err := OptimizeShuffles(context.Background(), plan, lookup{})
	require.NoError(t, err, "no lookup happens without hash exchanges")
	assert.Zero(t, n)
	assert.Empty(t, cmp.Diff(before, describe(plan)))
}

func TestOptimizeShufflesSkipsNonQualifyingStages(t *testing.T) {
	tcases := []struct {
		name  string
		build func(b *builder) stage.Node
	}{{
		name: "key is not the partition column",
		build: func(b *builder) stage.Node {
			return b.join(1,
				b.leaf(2, 1, "orders", []string{"amount", "customer_id"}, 0),
				b.leaf(3, 1, "customers", []string{"id", "name"}, 0))
		},
	}, {
		name: "input stage is not a leaf",
		build: func(b *builder) stage.Node {
			inner := b.join(2,
				b.leaf(3, 2, "items", []string{"order_id"}, 0),
				b.leaf(4, 2, "refunds", []string{"order_id"}, 0))
			hash := stage.NewExchangeSpec(rel.HashDistributed, partitioning.NewFieldSelectionKeySelector([]int{0}), nil, false)
			return b.join(1, b.link(2, 1, hash, inner), b.leaf(5, 1, "customers", []string{"id"}, 0))
		},
	}, {
		name: "one input is not hash distributed",
		build: func(b *builder) stage.Node {
			broadcast := stage.NewExchangeSpec(rel.Broadcast, nil, nil, false)
			return b.join(1,
				b.leaf(2, 1, "orders", []string{"customer_id"}, 0),
				b.link(3, 1, broadcast, stage.NewTableScanNode(3, schema, "customers", []string{"id"})))
		},
	}}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			b := newBuilder(t)
			plan := b.plan(tc.build(b))
			n, err := OptimizeShuffles(context.Background(), plan, placements)
			require.NoError(t, err)
			for _, pair := range plan.ExchangePairs() {
				if pair.Receive.StageID() == 1 {
					assert.NotEqual(t, rel.Singleton, pair.Send.DistributionType, "stage %d", pair.Send.StageID())
				}
			}
			if tc.name == "input stage is not a leaf" {
				assert.Equal(t, 2, n, "the inner join is still colocated")
			} else {
				assert.Zero(t, n)
			}
		})
	}
}

func TestOptimizeShufflesRestoresOnFailure(t *testing.T) {
	// Stage 2 qualifies and is rewritten before the lookup for stage 5
	// fails; the whole pass must be undone.
	b := newBuilder(t)
	random := stage.NewExchangeSpec(rel.RandomDistributed, nil, nil, false)
	good := b.join(2,
		b.leaf(3, 2, "orders", []string{"customer_id"}, 0),
		b.leaf(4, 2, "customers", []string{"id"}, 0))
	bad := b.join(5,
		b.leaf(6, 5, "unknown", []string{"id"}, 0),
		b.leaf(7, 5, "customers", []string{"id"}, 0))
	union := stage.NewSetOpNode(1, schema, rel.Union, true)
	union.AddInput(b.link(2, 1, random, good))
	union.AddInput(b.link(5, 1, random, bad))
	plan := b.plan(union)
	before := describe(plan)

	n, err := OptimizeShuffles(context.Background(), plan, placements)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "no placement for unknown")
	assert.Empty(t, cmp.Diff(before, describe(plan)))

	send3, _ := plan.SendNode(3)
	assert.Equal(t, rel.HashDistributed, send3.DistributionType)
	assert.Equal(t, []int{0}, send3.KeySelector.Columns())
}

func TestRewriteInvariantViolation(t *testing.T) {
	b := newBuilder(t)
	plan := b.plan(b.join(1,
		b.leaf(2, 1, "orders", []string{"customer_id"}, 0),
		b.leaf(3, 1, "customers", []string{"id"}, 0),
	))
	pair := plan.ExchangePairs()[1]
	require.Equal(t, 2, pair.Send.StageID())
	// The receiving stage no longer runs where the sender does.
	plan.StageMetadataMap[1].ServerInstances = []*cluster.ServerInstance{server0, broker}

	err := rewrite(plan, pair)
	assert.True(t, mserrors.Is(err, mserrors.OptimizationInvariant), "%v", err)
}
