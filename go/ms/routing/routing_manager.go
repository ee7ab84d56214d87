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

// Package routing knows which servers exist and which of them host each
// table, and uses that to assign workers to stages.
package routing

import (
	"context"

	"vitess.io/multistage/go/ms/cluster"
)

// RoutingManager is the source of cluster metadata.
//
//go:generate mockgen -source routing_manager.go -destination mock_routing_manager_test.go -package routing
type RoutingManager interface {
	// GetRoutingTable returns the servers and segments to scan for table.
	GetRoutingTable(ctx context.Context, table string, requestID int64) (*cluster.RoutingTable, error)
	// GetEnabledServerInstances returns every server able to run stages.
	GetEnabledServerInstances(ctx context.Context) ([]*cluster.ServerInstance, error)
	// GetTablePlacement returns how table is partitioned over the servers.
	GetTablePlacement(ctx context.Context, table string) (*cluster.TablePlacement, error)
}
