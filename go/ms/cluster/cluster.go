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

// Package cluster describes the servers of a cluster and where table
// segments live on them.
package cluster

import (
	"fmt"
	"maps"
	"slices"
)

// ServerInstance is a worker able to run stages.
type ServerInstance struct {
	ID               string
	Hostname         string
	QueryServicePort int
	QueryMailboxPort int
}

func (s *ServerInstance) String() string {
	return fmt.Sprintf("%s@%s:%d", s.ID, s.Hostname, s.QueryMailboxPort)
}

// MailboxAddress returns the host:port on which the server receives mailbox traffic.
func (s *ServerInstance) MailboxAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.QueryMailboxPort)
}

// SortInstances orders servers by id.
func SortInstances(servers []*ServerInstance) {
	slices.SortFunc(servers, func(a, b *ServerInstance) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// SameInstances reports whether a and b hold the same server ids,
// regardless of order.
func SameInstances(a, b []*ServerInstance) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[string]bool, len(a))
	for _, s := range a {
		ids[s.ID] = true
	}
	for _, s := range b {
		if !ids[s.ID] {
			return false
		}
	}
	return true
}

// RoutingTable maps the id of each server hosting a table to the segments
// it serves for the query.
type RoutingTable struct {
	ServerSegments map[string][]string
}

// ServerIDs returns the ids of the servers in the routing table, sorted.
func (rt *RoutingTable) ServerIDs() []string {
	return slices.Sorted(maps.Keys(rt.ServerSegments))
}

// TablePlacement describes how a table is physically partitioned across servers.
type TablePlacement struct {
	Table string
	// PartitionColumn is empty for tables that are not partitioned.
	PartitionColumn   string
	PartitionFunction string
	NumPartitions     int
	// ServerPartitions maps a server id to the partitions it hosts.
	ServerPartitions map[string][]int
}

// Partitioned reports whether the table declares a usable partitioning.
func (p *TablePlacement) Partitioned() bool {
	return p != nil && p.PartitionColumn != "" && p.NumPartitions > 0
}

// DisjointPartitions reports whether every partition is hosted by exactly
// one server and every server hosts at least one partition.
func (p *TablePlacement) DisjointPartitions() bool {
	seen := make(map[int]bool)
	for _, parts := range p.ServerPartitions {
		if len(parts) == 0 {
			return false
		}
		for _, part := range parts {
			if part < 0 || part >= p.NumPartitions || seen[part] {
				return false
			}
			seen[part] = true
		}
	}
	return true
}

// SamePartitioning reports whether p and o split rows identically over the
// same servers.
func (p *TablePlacement) SamePartitioning(o *TablePlacement) bool {
	if p.NumPartitions != o.NumPartitions || p.PartitionFunction != o.PartitionFunction {
		return false
	}
	if len(p.ServerPartitions) != len(o.ServerPartitions) {
		return false
	}
	for server, parts := range p.ServerPartitions {
		other, ok := o.ServerPartitions[server]
		if !ok {
			return false
		}
		a, b := slices.Clone(parts), slices.Clone(other)
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}
