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

package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameInstances(t *testing.T) {
	a := &ServerInstance{ID: "a"}
	b := &ServerInstance{ID: "b"}
	c := &ServerInstance{ID: "c"}

	assert.True(t, SameInstances([]*ServerInstance{a, b}, []*ServerInstance{b, a}))
	assert.False(t, SameInstances([]*ServerInstance{a, b}, []*ServerInstance{a, c}))
	assert.False(t, SameInstances([]*ServerInstance{a}, []*ServerInstance{a, b}))
}

func TestSortInstances(t *testing.T) {
	servers := []*ServerInstance{{ID: "s2"}, {ID: "s0"}, {ID: "s1"}}
	SortInstances(servers)
	assert.Equal(t, "s0", servers[0].ID)
	assert.Equal(t, "s2", servers[2].ID)
}

func TestPlacementPartitioning(t *testing.T) {
	orders := &TablePlacement{
		Table:             "orders",
		PartitionColumn:   "customer_id",
		PartitionFunction: "murmur",
		NumPartitions:     2,
		ServerPartitions:  map[string][]int{"s0": {0}, "s1": {1}},
	}
	customers := &TablePlacement{
		Table:             "customers",
		PartitionColumn:   "id",
		PartitionFunction: "murmur",
		NumPartitions:     2,
		ServerPartitions:  map[string][]int{"s1": {1}, "s0": {0}},
	}
	assert.True(t, orders.Partitioned())
	assert.True(t, orders.DisjointPartitions())
	assert.True(t, orders.SamePartitioning(customers))

	customers.ServerPartitions = map[string][]int{"s0": {1}, "s1": {0}}
	assert.False(t, orders.SamePartitioning(customers))

	overlapping := &TablePlacement{NumPartitions: 2, ServerPartitions: map[string][]int{"s0": {0, 1}, "s1": {1}}}
	assert.False(t, overlapping.DisjointPartitions())

	var none *TablePlacement
	assert.False(t, none.Partitioned())
}
