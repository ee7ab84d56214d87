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

// Package planner splits an optimized relational plan into stages connected
// by mailbox exchanges and turns the result into a dispatchable plan.
package planner

import (
	"context"
	"sync/atomic"
	"time"

	"vitess.io/multistage/go/ms/log"
	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/physical"
	"vitess.io/multistage/go/ms/physical/colocated"
	"vitess.io/multistage/go/ms/planner/plancontext"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
	"vitess.io/multistage/go/stats"
	"vitess.io/multistage/go/trace"
)

// StagePlanner plans one query. It must not be used by more than one
// goroutine at a time; an overlapping MakePlan call is refused.
type StagePlanner struct {
	plannerContext *plancontext.PlannerContext
	workerAssigner physical.WorkerAssigner
	placements     colocated.PlacementLookup
	requestID      int64

	convert      Converter
	newGenerator func() StageIDGenerator
	stats        *stats.PlannerStats

	inUse atomic.Bool
}

// Option configures a StagePlanner.
type Option func(*StagePlanner)

// WithConverter replaces RelToStage.
func WithConverter(c Converter) Option {
	return func(p *StagePlanner) { p.convert = c }
}

// WithStageIDGenerator sets the factory called once per MakePlan to issue
// stage ids.
func WithStageIDGenerator(f func() StageIDGenerator) Option {
	return func(p *StagePlanner) { p.newGenerator = f }
}

// WithStats records planner metrics in ps instead of stats.Default().
func WithStats(ps *stats.PlannerStats) Option {
	return func(p *StagePlanner) { p.stats = ps }
}

// NewStagePlanner creates a planner for request requestID. placements may be
// nil, in which case the colocation pass never runs.
func NewStagePlanner(pctx *plancontext.PlannerContext, wa physical.WorkerAssigner, requestID int64, placements colocated.PlacementLookup, opts ...Option) *StagePlanner {
	p := &StagePlanner{
		plannerContext: pctx,
		workerAssigner: wa,
		placements:     placements,
		requestID:      requestID,
		convert:        RelToStage,
		newGenerator:   NewStageIDGenerator,
		stats:          stats.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlannerContext returns the context the planner was created with.
func (p *StagePlanner) PlannerContext() *plancontext.PlannerContext {
	return p.plannerContext
}

// MakePlan splits root into stages, delivers the output of the top stage to
// the client stage 0, assigns workers and resolves every mailbox. When the
// useColocatedJoin option is "true" the plan is then handed to the
// colocation pass; if that pass fails the unoptimized plan is returned.
func (p *StagePlanner) MakePlan(ctx context.Context, root rel.Root, tableNames []string) (*physical.QueryPlan, error) {
	if !p.inUse.CompareAndSwap(false, true) {
		return nil, mserrors.NewInternalError("stage planner for request %d is already planning", p.requestID)
	}
	defer p.inUse.Store(false)

	span, ctx := trace.NewSpan(ctx, "planner.MakePlan")
	defer span.Finish()
	span.Annotate("request_id", p.requestID)

	start := time.Now()
	plan, err := p.makePlan(ctx, root, tableNames)
	if err != nil {
		p.stats.RecordPlan(stats.PlanFailed, 0, time.Since(start))
		span.Annotate("error", err.Error())
		return nil, err
	}
	p.stats.RecordPlan(stats.PlanOK, len(plan.QueryStageMap), time.Since(start))
	span.Annotate("stages", len(plan.QueryStageMap))
	return plan, nil
}

func (p *StagePlanner) makePlan(ctx context.Context, root rel.Root, tableNames []string) (*physical.QueryPlan, error) {
	if root.Node == nil {
		return nil, mserrors.NewStructuralPlanError("empty plan")
	}
	ids := &checkedGenerator{gen: p.newGenerator(), last: stage.RootStageID}
	forest := stage.NewForest()
	s := &splitter{
		convert: p.convert,
		ids:     ids,
		forest:  forest,
		onExchange: func(send *stage.MailboxSendNode) {
			p.stats.RecordExchange(send.DistributionType.String())
		},
	}

	topStageID, err := ids.next()
	if err != nil {
		return nil, err
	}
	top, err := s.split(root.Node, topStageID)
	if err != nil {
		return nil, err
	}

	// The client consumes the whole result once.
	deliver := exchangeContract{distribution: rel.Distribution{Type: rel.RandomDistributed}}
	_, clientRecv, err := newExchangePair(forest, top.DataSchema(), topStageID, stage.RootStageID, deliver, top)
	if err != nil {
		return nil, err
	}
	log.DebugS("split plan", "request_id", p.requestID, "stages", len(forest.StageIDs())+1)

	dc := physical.NewDispatchablePlanContext(p.workerAssigner, p.requestID, p.plannerContext, root.Fields, tableNames)
	plan, err := physical.ConstructDispatchablePlan(ctx, clientRecv, forest, dc)
	if err != nil {
		return nil, err
	}
	p.runPhysicalOptimizers(ctx, plan)
	return plan, nil
}

func (p *StagePlanner) runPhysicalOptimizers(ctx context.Context, plan *physical.QueryPlan) {
	if !p.plannerContext.UseColocatedJoin() {
		return
	}
	if p.placements == nil {
		log.WarnS("no table placement source configured, skipping colocation", "request_id", p.requestID, "option", plancontext.UseColocatedJoinOption)
		return
	}
	rewritten, err := colocated.OptimizeShuffles(ctx, plan, p.placements)
	if err != nil {
		log.WarnS("colocation pass failed, using the unoptimized plan", "request_id", p.requestID, "error", err)
		p.stats.RecordOptimizerFallback()
		return
	}
	p.stats.RecordColocatedRewrites(rewritten)
}
