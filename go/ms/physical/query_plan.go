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

// Package physical turns a stage forest into a dispatchable QueryPlan: every
// stage gets a worker set and every mailbox pair gets concrete endpoints.
package physical

import (
	"maps"
	"slices"

	"vitess.io/multistage/go/ms/cluster"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
)

// QueryPlan is the dispatchable result of planning one query.
//
// Once returned it is not modified, except that a physical optimizer may
// rewrite exchange metadata (ExchangeSpec of mailbox nodes and MailboxRoutes)
// in place. Tree shapes and stage ids never change.
type QueryPlan struct {
	RequestID         int64
	QueryResultFields []rel.FieldRef
	// QueryStageMap maps a stage id to the root of the stage. The root of
	// stage 0 is the client receive node; every other root is a send node.
	QueryStageMap map[int]stage.Node
	// StageMetadataMap maps a stage id to its worker assignment.
	StageMetadataMap map[int]*StageMetadata
}

var _ stage.Registry = (*QueryPlan)(nil)

// SendNode implements stage.Registry.
func (p *QueryPlan) SendNode(stageID int) (*stage.MailboxSendNode, bool) {
	send, ok := p.QueryStageMap[stageID].(*stage.MailboxSendNode)
	return send, ok
}

// StageIDs returns all stage ids in ascending order.
func (p *QueryPlan) StageIDs() []int {
	return slices.Sorted(maps.Keys(p.QueryStageMap))
}

// ReceiveNodes returns the receive nodes of a stage in tree order.
func (p *QueryPlan) ReceiveNodes(stageID int) []*stage.MailboxReceiveNode {
	root, ok := p.QueryStageMap[stageID]
	if !ok {
		return nil
	}
	var out []*stage.MailboxReceiveNode
	_ = stage.Walk(root, func(n stage.Node) error {
		if recv, ok := n.(*stage.MailboxReceiveNode); ok {
			out = append(out, recv)
		}
		return nil
	})
	return out
}

// ExchangePair is a matched sender and receiver.
type ExchangePair struct {
	Send    *stage.MailboxSendNode
	Receive *stage.MailboxReceiveNode
}

// ExchangePairs returns every pair of the plan ordered by sender stage id.
func (p *QueryPlan) ExchangePairs() []ExchangePair {
	var pairs []ExchangePair
	for _, id := range p.StageIDs() {
		for _, recv := range p.ReceiveNodes(id) {
			if send, ok := p.SendNode(recv.SenderStageID); ok {
				pairs = append(pairs, ExchangePair{Send: send, Receive: recv})
			}
		}
	}
	slices.SortFunc(pairs, func(a, b ExchangePair) int {
		return a.Send.StageID() - b.Send.StageID()
	})
	return pairs
}

// Workers returns the worker set of a stage.
func (p *QueryPlan) Workers(stageID int) []*cluster.ServerInstance {
	if md, ok := p.StageMetadataMap[stageID]; ok {
		return md.ServerInstances
	}
	return nil
}
