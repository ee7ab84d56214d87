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

// Package colocated removes shuffles between stages that already hold
// identically partitioned data on the same workers.
//
// A hash exchange is redundant when the rows each sender worker produces
// already belong to the partition its receiver worker is responsible for.
// That is the case when the sender stage scans a table partitioned on the
// exchange key and the receiving stage runs on exactly the workers hosting
// the partitions. Such exchanges are rewritten into SINGLETON exchanges
// where every worker sends to itself.
package colocated

import (
	"context"
	"slices"

	"vitess.io/multistage/go/ms/cluster"
	"vitess.io/multistage/go/ms/log"
	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/physical"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
	"vitess.io/multistage/go/trace"
)

// PlacementLookup returns the physical placement of a table.
type PlacementLookup interface {
	LookupPlacement(ctx context.Context, table string) (*cluster.TablePlacement, error)
}

// snapshot is the exchange metadata of one pair before it was rewritten.
type snapshot struct {
	send      *stage.MailboxSendNode
	recv      *stage.MailboxReceiveNode
	sendSpec  stage.ExchangeSpec
	recvSpec  stage.ExchangeSpec
	sendState *physical.StageMetadata
	routes    map[string][]physical.MailboxID
}

func take(plan *physical.QueryPlan, pair physical.ExchangePair) snapshot {
	md := plan.StageMetadataMap[pair.Send.StageID()]
	return snapshot{
		send:      pair.Send,
		recv:      pair.Receive,
		sendSpec:  pair.Send.ExchangeSpec,
		recvSpec:  pair.Receive.ExchangeSpec,
		sendState: md,
		routes:    md.MailboxRoutes,
	}
}

func (s snapshot) restore() {
	s.send.ExchangeSpec = s.sendSpec
	s.recv.ExchangeSpec = s.recvSpec
	s.sendState.MailboxRoutes = s.routes
}

// OptimizeShuffles rewrites every qualifying hash exchange of plan into
// colocated form and returns the number of pairs rewritten. Only exchange
// metadata and mailbox routes change.
//
// The pass is all or nothing: on error every rewrite already applied is
// undone before returning, leaving plan exactly as it was.
func OptimizeShuffles(ctx context.Context, plan *physical.QueryPlan, lookup PlacementLookup) (int, error) {
	pairs := plan.ExchangePairs()
	if !slices.ContainsFunc(pairs, func(p physical.ExchangePair) bool {
		return p.Send.DistributionType == rel.HashDistributed
	}) {
		return 0, nil
	}

	span, ctx := trace.NewSpan(ctx, "colocated.OptimizeShuffles")
	defer span.Finish()

	var applied []snapshot
	undo := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			applied[i].restore()
		}
	}

	for _, receiverStageID := range plan.StageIDs() {
		candidates, err := qualifyingPairs(ctx, plan, lookup, receiverStageID)
		if err != nil {
			undo()
			return 0, err
		}
		for _, pair := range candidates {
			snap := take(plan, pair)
			applied = append(applied, snap)
			if err := rewrite(plan, pair); err != nil {
				undo()
				return 0, err
			}
		}
		if len(candidates) > 0 {
			log.V(2).Infof("request %d: colocated %d exchanges into stage %d", plan.RequestID, len(candidates), receiverStageID)
		}
	}
	span.Annotate("rewritten", len(applied))
	return len(applied), nil
}

// qualifyingPairs returns the pairs feeding receiverStageID when all of them
// can be colocated, and nothing otherwise.
func qualifyingPairs(ctx context.Context, plan *physical.QueryPlan, lookup PlacementLookup, receiverStageID int) ([]physical.ExchangePair, error) {
	receives := plan.ReceiveNodes(receiverStageID)
	if len(receives) == 0 {
		return nil, nil
	}
	receiverWorkers := plan.Workers(receiverStageID)

	var (
		pairs     []physical.ExchangePair
		reference *cluster.TablePlacement
	)
	for _, recv := range receives {
		if recv.DistributionType != rel.HashDistributed {
			return nil, nil
		}
		send, ok := plan.SendNode(recv.SenderStageID)
		if !ok {
			return nil, mserrors.NewInternalError("receiver in stage %d has no sender %d", receiverStageID, recv.SenderStageID)
		}
		placement, err := senderPlacement(ctx, plan, lookup, send)
		if err != nil || placement == nil {
			return nil, err
		}
		if reference == nil {
			reference = placement
		} else if !reference.SamePartitioning(placement) {
			return nil, nil
		}
		if !cluster.SameInstances(receiverWorkers, plan.Workers(send.StageID())) {
			return nil, nil
		}
		pairs = append(pairs, physical.ExchangePair{Send: send, Receive: recv})
	}
	return pairs, nil
}

// senderPlacement returns the placement of the table scanned by the stage
// rooted at send if the stage produces rows partitioned on its hash key
// and runs on exactly the servers hosting the partitions. It returns nil
// when the stage does not qualify.
func senderPlacement(ctx context.Context, plan *physical.QueryPlan, lookup PlacementLookup, send *stage.MailboxSendNode) (*cluster.TablePlacement, error) {
	md := plan.StageMetadataMap[send.StageID()]
	if md == nil || len(md.ScannedTables) != 1 || send.KeySelector == nil {
		return nil, nil
	}
	keys := send.KeySelector.Columns()
	if len(keys) != 1 || len(send.Inputs()) != 1 {
		return nil, nil
	}
	placement, err := lookup.LookupPlacement(ctx, md.ScannedTables[0])
	if err != nil {
		return nil, mserrors.Wrap(err, "looking up placement of "+md.ScannedTables[0])
	}
	if !placement.Partitioned() || !placement.DisjointPartitions() {
		return nil, nil
	}
	column, ok := sourceColumn(send.Inputs()[0], keys[0])
	if !ok || column != placement.PartitionColumn {
		return nil, nil
	}
	hosts := make([]string, 0, len(placement.ServerPartitions))
	for server := range placement.ServerPartitions {
		hosts = append(hosts, server)
	}
	workers := md.WorkerIDs()
	slices.Sort(hosts)
	slices.Sort(workers)
	if !slices.Equal(hosts, workers) {
		return nil, nil
	}
	return placement, nil
}

// sourceColumn follows output column index of node down to the table scan
// column it is a plain copy of.
func sourceColumn(node stage.Node, index int) (string, bool) {
	for {
		switch n := node.(type) {
		case *stage.FilterNode, *stage.SortNode:
		case *stage.ProjectNode:
			if index < 0 || index >= len(n.Projects) {
				return "", false
			}
			ref, ok := n.Projects[index].(*rel.InputRef)
			if !ok {
				return "", false
			}
			index = ref.Index
		case *stage.TableScanNode:
			if index < 0 || index >= len(n.TableScanColumns) {
				return "", false
			}
			return n.TableScanColumns[index], true
		default:
			return "", false
		}
		if len(node.Inputs()) != 1 {
			return "", false
		}
		node = node.Inputs()[0]
	}
}

// rewrite turns pair into a SINGLETON exchange routing every worker to
// itself and checks the result.
func rewrite(plan *physical.QueryPlan, pair physical.ExchangePair) error {
	send, recv := pair.Send, pair.Receive
	send.ExchangeSpec = stage.NewExchangeSpec(rel.Singleton, nil, send.Collation, send.SortOnSender)
	recv.ExchangeSpec = stage.NewExchangeSpec(rel.Singleton, nil, recv.Collation, recv.SortOnSender)

	if err := stage.CheckPair(send, recv); err != nil {
		return mserrors.Wrapf(err, mserrors.OptimizationInvariant, "colocating exchange %d->%d", send.StageID(), recv.StageID())
	}
	routes, err := physical.ResolveRoutes(plan.RequestID, send, plan.Workers(send.StageID()), plan.Workers(recv.StageID()))
	if err != nil {
		return mserrors.Wrapf(err, mserrors.OptimizationInvariant, "colocating exchange %d->%d", send.StageID(), recv.StageID())
	}
	for _, boxes := range routes {
		for _, box := range boxes {
			if box.SenderAddress != box.ReceiverAddress {
				return mserrors.NewOptimizationInvariantViolation("colocated exchange %d->%d routes %s to %s",
					send.StageID(), recv.StageID(), box.SenderAddress, box.ReceiverAddress)
			}
		}
	}
	plan.StageMetadataMap[send.StageID()].MailboxRoutes = routes
	return nil
}
