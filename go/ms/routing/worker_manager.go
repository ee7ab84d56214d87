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

package routing

import (
	"context"

	"vitess.io/multistage/go/ms/cluster"
	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/physical"
	"vitess.io/multistage/go/ms/planner/plancontext"
	"vitess.io/multistage/go/ms/stage"
)

// WorkerManager assigns workers to stages from the metadata of a
// RoutingManager.
type WorkerManager struct {
	broker  *cluster.ServerInstance
	routing RoutingManager
}

var _ physical.WorkerAssigner = (*WorkerManager)(nil)

// NewWorkerManager returns a WorkerManager running the client stage on broker.
func NewWorkerManager(broker *cluster.ServerInstance, rm RoutingManager) *WorkerManager {
	return &WorkerManager{broker: broker, routing: rm}
}

// AssignWorkerToStage implements physical.WorkerAssigner.
//
// The client stage runs on the broker. A leaf stage runs on the servers
// hosting segments of the table it scans. Any other stage runs on every
// enabled server, or on a single one when it consumes a SINGLETON exchange.
func (wm *WorkerManager) AssignWorkerToStage(ctx context.Context, stageID int, md *physical.StageMetadata, requestID int64, _ *plancontext.PlannerContext) error {
	switch {
	case stageID == stage.RootStageID:
		md.ServerInstances = []*cluster.ServerInstance{wm.broker}
		return nil
	case md.IsLeaf():
		return wm.assignLeaf(ctx, stageID, md, requestID)
	}

	servers, err := wm.routing.GetEnabledServerInstances(ctx)
	if err != nil {
		return mserrors.Wrapf(err, mserrors.WorkerAssignment, "listing servers for stage %d", stageID)
	}
	if len(servers) == 0 {
		return mserrors.NewWorkerAssignmentError("no enabled server for stage %d", stageID)
	}
	cluster.SortInstances(servers)
	if md.RequiresSingleton {
		idx := requestID % int64(len(servers))
		if idx < 0 {
			idx = -idx
		}
		servers = []*cluster.ServerInstance{servers[idx]}
	}
	md.ServerInstances = servers
	return nil
}

func (wm *WorkerManager) assignLeaf(ctx context.Context, stageID int, md *physical.StageMetadata, requestID int64) error {
	if len(md.ScannedTables) != 1 {
		return mserrors.NewWorkerAssignmentError("leaf stage %d scans %d tables %v, expected exactly one", stageID, len(md.ScannedTables), md.ScannedTables)
	}
	table := md.ScannedTables[0]
	rt, err := wm.routing.GetRoutingTable(ctx, table, requestID)
	if err != nil {
		return mserrors.Wrapf(err, mserrors.WorkerAssignment, "routing table %s for stage %d", table, stageID)
	}
	if rt == nil || len(rt.ServerSegments) == 0 {
		return mserrors.NewWorkerAssignmentError("no server hosts segments of table %s for stage %d", table, stageID)
	}

	enabled, err := wm.routing.GetEnabledServerInstances(ctx)
	if err != nil {
		return mserrors.Wrapf(err, mserrors.WorkerAssignment, "listing servers for stage %d", stageID)
	}
	byID := make(map[string]*cluster.ServerInstance, len(enabled))
	for _, s := range enabled {
		byID[s.ID] = s
	}

	md.ServerSegments = make(map[string]map[string][]string, len(rt.ServerSegments))
	md.ServerInstances = md.ServerInstances[:0]
	for _, id := range rt.ServerIDs() {
		server, ok := byID[id]
		if !ok {
			return mserrors.NewWorkerAssignmentError("table %s has segments on server %s, which is not enabled", table, id)
		}
		md.ServerInstances = append(md.ServerInstances, server)
		md.ServerSegments[id] = map[string][]string{table: rt.ServerSegments[id]}
	}
	return nil
}
