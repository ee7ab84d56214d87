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

package physical

import (
	"context"

	"github.com/gammazero/deque"
	"golang.org/x/sync/errgroup"

	"vitess.io/multistage/go/ms/log"
	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/planner/plancontext"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
	"vitess.io/multistage/go/trace"
)

// WorkerAssigner decides which workers run a stage. Implementations may
// block on cluster metadata lookups and must be safe for concurrent use:
// stages of one plan are assigned in parallel.
type WorkerAssigner interface {
	// AssignWorkerToStage fills md.ServerInstances (and md.ServerSegments
	// for leaf stages). It fails with a WorkerAssignment error when the
	// cluster cannot satisfy the stage.
	AssignWorkerToStage(ctx context.Context, stageID int, md *StageMetadata, requestID int64, pctx *plancontext.PlannerContext) error
}

// maxAssignConcurrency bounds the number of stages assigned at once.
const maxAssignConcurrency = 8

// DispatchablePlanContext accumulates the state of one dispatch conversion.
// It is built once per plan and owns the plan under construction.
type DispatchablePlanContext struct {
	workerAssigner WorkerAssigner
	requestID      int64
	plannerContext *plancontext.PlannerContext
	resultFields   []rel.FieldRef
	tableNames     []string

	queryPlan *QueryPlan
}

// NewDispatchablePlanContext builds the context for one plan.
func NewDispatchablePlanContext(wa WorkerAssigner, requestID int64, pctx *plancontext.PlannerContext, fields []rel.FieldRef, tableNames []string) *DispatchablePlanContext {
	return &DispatchablePlanContext{
		workerAssigner: wa,
		requestID:      requestID,
		plannerContext: pctx,
		resultFields:   fields,
		tableNames:     tableNames,
	}
}

// RequestID returns the request id of the plan.
func (dc *DispatchablePlanContext) RequestID() int64 { return dc.requestID }

// PlannerContext returns the planner context of the plan.
func (dc *DispatchablePlanContext) PlannerContext() *plancontext.PlannerContext {
	return dc.plannerContext
}

// TableNames returns the tables referenced by the query.
func (dc *DispatchablePlanContext) TableNames() []string { return dc.tableNames }

// QueryPlan returns the plan built by ConstructDispatchablePlan, or nil if
// it has not completed successfully.
func (dc *DispatchablePlanContext) QueryPlan() *QueryPlan { return dc.queryPlan }

// ConstructDispatchablePlan walks the stage forest below root, assigns
// workers to every stage and resolves the mailbox routes of every exchange.
// The plan is only published to dc when every step succeeded.
func ConstructDispatchablePlan(ctx context.Context, root *stage.MailboxReceiveNode, reg stage.Registry, dc *DispatchablePlanContext) (*QueryPlan, error) {
	span, ctx := trace.NewSpan(ctx, "physical.ConstructDispatchablePlan")
	defer span.Finish()

	plan := &QueryPlan{
		RequestID:         dc.requestID,
		QueryResultFields: dc.resultFields,
		QueryStageMap:     map[int]stage.Node{},
		StageMetadataMap:  map[int]*StageMetadata{},
	}
	senders, err := collectStages(plan, root, reg)
	if err != nil {
		return nil, err
	}
	span.Annotate("stages", len(plan.QueryStageMap))

	if err := assignWorkers(ctx, plan, dc); err != nil {
		return nil, err
	}

	for _, send := range senders {
		routes, err := ResolveRoutes(dc.requestID, send, plan.Workers(send.StageID()), plan.Workers(send.ReceiverStageID))
		if err != nil {
			return nil, err
		}
		plan.StageMetadataMap[send.StageID()].MailboxRoutes = routes
	}

	dc.queryPlan = plan
	return plan, nil
}

// collectStages records every stage root and the stage metadata that can be
// derived from the tree alone. It returns the senders in discovery order.
func collectStages(plan *QueryPlan, root *stage.MailboxReceiveNode, reg stage.Registry) ([]*stage.MailboxSendNode, error) {
	if root.StageID() != stage.RootStageID {
		return nil, mserrors.NewStructuralPlanError("plan root belongs to stage %d, expected the client stage %d", root.StageID(), stage.RootStageID)
	}

	var (
		senders []*stage.MailboxSendNode
		pending deque.Deque[stage.Node]
	)
	pending.PushBack(root)
	for pending.Len() > 0 {
		stageRoot := pending.PopFront()

		id := stageRoot.StageID()
		if _, dup := plan.QueryStageMap[id]; dup {
			return nil, mserrors.NewStructuralPlanError("stage %d is reachable more than once", id)
		}
		plan.QueryStageMap[id] = stageRoot
		md := &StageMetadata{}
		plan.StageMetadataMap[id] = md

		err := stage.Walk(stageRoot, func(n stage.Node) error {
			if n.StageID() != id {
				return mserrors.NewStructuralPlanError("%s belongs to stage %d but is reachable from stage %d", n.Explain(), n.StageID(), id)
			}
			switch n := n.(type) {
			case *stage.TableScanNode:
				md.addScannedTable(n.TableName)
			case *stage.MailboxReceiveNode:
				send, ok := n.Sender(reg)
				if !ok {
					return mserrors.NewStructuralPlanError("receiver in stage %d reads from stage %d which has no sender", id, n.SenderStageID)
				}
				if err := stage.CheckPair(send, n); err != nil {
					return mserrors.Wrapf(err, mserrors.StructuralPlan, "invalid exchange")
				}
				if n.DistributionType == rel.Singleton {
					md.RequiresSingleton = true
				}
				senders = append(senders, send)
				pending.PushBack(send)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return senders, nil
}

func assignWorkers(ctx context.Context, plan *QueryPlan, dc *DispatchablePlanContext) error {
	if dc.workerAssigner == nil {
		return mserrors.NewInternalError("no worker assigner configured")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxAssignConcurrency)
	for _, id := range plan.StageIDs() {
		md := plan.StageMetadataMap[id]
		g.Go(func() error {
			if err := dc.workerAssigner.AssignWorkerToStage(gctx, id, md, dc.requestID, dc.plannerContext); err != nil {
				if mserrors.KindOf(err) == mserrors.Unknown {
					return mserrors.Wrapf(err, mserrors.WorkerAssignment, "assigning workers to stage %d", id)
				}
				return err
			}
			if len(md.ServerInstances) == 0 {
				return mserrors.NewWorkerAssignmentError("no workers assigned to stage %d", id)
			}
			if md.RequiresSingleton && len(md.ServerInstances) != 1 {
				return mserrors.NewWorkerAssignmentError("stage %d reads a singleton exchange but was assigned %d workers", id, len(md.ServerInstances))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if log.V(2) {
		for _, id := range plan.StageIDs() {
			log.Infof("request %d: stage %d assigned to %v", dc.requestID, id, plan.StageMetadataMap[id].WorkerIDs())
		}
	}
	return nil
}
