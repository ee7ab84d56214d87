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

package planner

import (
	"vitess.io/multistage/go/ms/partitioning"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
)

// exchangeContract is what an exchange operator asks of its boundary.
type exchangeContract struct {
	distribution   rel.Distribution
	collation      rel.Collation
	sortOnSender   bool
	sortOnReceiver bool
}

func contractOf(node rel.Node) (exchangeContract, bool) {
	switch ex := node.(type) {
	case *rel.Exchange:
		return exchangeContract{distribution: ex.Distribution}, true
	case *rel.SortExchange:
		return exchangeContract{
			distribution:   ex.Distribution,
			collation:      ex.Collation,
			sortOnSender:   ex.SortOnSender,
			sortOnReceiver: ex.SortOnReceiver,
		}, true
	}
	return exchangeContract{}, false
}

func (c exchangeContract) spec() stage.ExchangeSpec {
	var ks partitioning.KeySelector
	if c.distribution.Type == rel.HashDistributed {
		ks = partitioning.NewFieldSelectionKeySelector(c.distribution.Keys)
	}
	return stage.NewExchangeSpec(c.distribution.Type, ks, c.collation, c.sortOnSender)
}

// newExchangePair builds the sender rooting stage senderStageID and the
// matching receiver in receiverStageID, and registers the sender in forest.
// childRoot, when known, becomes the sender's only input. Each end gets its
// own copy of the exchange spec.
func newExchangePair(forest *stage.Forest, schema *stage.DataSchema, senderStageID, receiverStageID int, c exchangeContract, childRoot stage.Node) (*stage.MailboxSendNode, *stage.MailboxReceiveNode, error) {
	send := stage.NewMailboxSendNode(senderStageID, schema, receiverStageID, c.spec())
	if childRoot != nil {
		send.AddInput(childRoot)
	}
	if err := forest.Register(send); err != nil {
		return nil, nil, err
	}
	recv := stage.NewMailboxReceiveNode(receiverStageID, schema, senderStageID, c.spec(), c.sortOnReceiver)
	return send, recv, nil
}
