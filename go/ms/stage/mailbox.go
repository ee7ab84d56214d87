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

package stage

import (
	"fmt"
	"slices"
	"strings"

	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/partitioning"
	"vitess.io/multistage/go/ms/rel"
)

// ExchangeSpec is the contract of an exchange, carried identically by both
// ends of a mailbox pair.
type ExchangeSpec struct {
	DistributionType rel.DistributionType
	// KeySelector is set iff DistributionType is rel.HashDistributed.
	KeySelector partitioning.KeySelector
	// Collation is nil when the exchange carries no ordering contract.
	Collation rel.Collation
	// SortOnSender is false whenever Collation is empty.
	SortOnSender bool
}

// NewExchangeSpec builds a normalized exchange contract: non-hash types drop
// the key selector and an empty collation clears sortOnSender.
func NewExchangeSpec(dt rel.DistributionType, ks partitioning.KeySelector, collation rel.Collation, sortOnSender bool) ExchangeSpec {
	if dt != rel.HashDistributed {
		ks = nil
	}
	collation = collation.Clone()
	if collation == nil {
		sortOnSender = false
	}
	return ExchangeSpec{DistributionType: dt, KeySelector: ks, Collation: collation, SortOnSender: sortOnSender}
}

func (e *ExchangeSpec) describe(sb *strings.Builder) {
	sb.WriteString(e.DistributionType.String())
	if e.KeySelector != nil {
		fmt.Fprintf(sb, ", keys=%v", e.KeySelector.Columns())
	}
	if len(e.Collation) > 0 {
		fmt.Fprintf(sb, ", collation=%s, sortOnSender=%t", e.Collation, e.SortOnSender)
	}
}

// MailboxSendNode is the producing end of an exchange. It is the root of
// its stage and owns the stage's tree as its only input.
type MailboxSendNode struct {
	nodeBase
	ExchangeSpec
	ReceiverStageID int
}

// NewMailboxSendNode builds the sender of stage stageID delivering to receiverStageID.
func NewMailboxSendNode(stageID int, schema *DataSchema, receiverStageID int, spec ExchangeSpec) *MailboxSendNode {
	return &MailboxSendNode{
		nodeBase:        nodeBase{stageID: stageID, schema: schema},
		ExchangeSpec:    spec,
		ReceiverStageID: receiverStageID,
	}
}

func (n *MailboxSendNode) Explain() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MAILBOX_SEND(to=%d, ", n.ReceiverStageID)
	n.describe(&sb)
	sb.WriteByte(')')
	return sb.String()
}

// MailboxReceiveNode is the consuming end of an exchange.
type MailboxReceiveNode struct {
	nodeBase
	ExchangeSpec
	SenderStageID int
	// SortOnReceiver is false whenever Collation is empty.
	SortOnReceiver bool
}

// NewMailboxReceiveNode builds the receiver in stage stageID reading from senderStageID.
func NewMailboxReceiveNode(stageID int, schema *DataSchema, senderStageID int, spec ExchangeSpec, sortOnReceiver bool) *MailboxReceiveNode {
	if len(spec.Collation) == 0 {
		sortOnReceiver = false
	}
	return &MailboxReceiveNode{
		nodeBase:       nodeBase{stageID: stageID, schema: schema},
		ExchangeSpec:   spec,
		SenderStageID:  senderStageID,
		SortOnReceiver: sortOnReceiver,
	}
}

// Sender resolves the paired send node through reg.
func (n *MailboxReceiveNode) Sender(reg Registry) (*MailboxSendNode, bool) {
	return reg.SendNode(n.SenderStageID)
}

func (n *MailboxReceiveNode) Explain() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MAILBOX_RECEIVE(from=%d, ", n.SenderStageID)
	n.describe(&sb)
	if len(n.Collation) > 0 {
		fmt.Fprintf(&sb, ", sortOnReceiver=%t", n.SortOnReceiver)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Registry resolves the send node at the root of a stage.
type Registry interface {
	SendNode(stageID int) (*MailboxSendNode, bool)
}

// Forest is the Registry built while splitting a plan into stages.
type Forest struct {
	senders map[int]*MailboxSendNode
}

// NewForest returns an empty Forest.
func NewForest() *Forest {
	return &Forest{senders: map[int]*MailboxSendNode{}}
}

// Register records send as the root of its stage. A stage has exactly one sender.
func (f *Forest) Register(send *MailboxSendNode) error {
	if _, ok := f.senders[send.StageID()]; ok {
		return mserrors.NewInternalError("stage %d already has a sender", send.StageID())
	}
	f.senders[send.StageID()] = send
	return nil
}

func (f *Forest) SendNode(stageID int) (*MailboxSendNode, bool) {
	s, ok := f.senders[stageID]
	return s, ok
}

// StageIDs returns the ids of all registered sending stages in ascending order.
func (f *Forest) StageIDs() []int {
	ids := make([]int, 0, len(f.senders))
	for id := range f.senders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CheckPair verifies that send and recv reference each other and carry the
// same exchange contract.
func CheckPair(send *MailboxSendNode, recv *MailboxReceiveNode) error {
	switch {
	case send.ReceiverStageID != recv.StageID():
		return mserrors.NewInternalError("sender of stage %d targets stage %d, receiver is in stage %d", send.StageID(), send.ReceiverStageID, recv.StageID())
	case recv.SenderStageID != send.StageID():
		return mserrors.NewInternalError("receiver in stage %d reads from stage %d, sender is stage %d", recv.StageID(), recv.SenderStageID, send.StageID())
	case send.StageID() == recv.StageID():
		return mserrors.NewInternalError("exchange within stage %d", send.StageID())
	}
	for _, spec := range []*ExchangeSpec{&send.ExchangeSpec, &recv.ExchangeSpec} {
		if (spec.KeySelector != nil) != (spec.DistributionType == rel.HashDistributed) {
			return mserrors.NewInternalError("exchange %d->%d: %s with key selector %v", send.StageID(), recv.StageID(), spec.DistributionType, spec.KeySelector)
		}
		if len(spec.Collation) == 0 && spec.SortOnSender {
			return mserrors.NewInternalError("exchange %d->%d: sort on sender without collation", send.StageID(), recv.StageID())
		}
	}
	if len(recv.Collation) == 0 && recv.SortOnReceiver {
		return mserrors.NewInternalError("exchange %d->%d: sort on receiver without collation", send.StageID(), recv.StageID())
	}
	if !SameSpec(&send.ExchangeSpec, &recv.ExchangeSpec) {
		return mserrors.NewInternalError("exchange %d->%d: sender and receiver disagree on the exchange contract", send.StageID(), recv.StageID())
	}
	return nil
}

// SameSpec reports whether a and b describe the same exchange contract.
func SameSpec(a, b *ExchangeSpec) bool {
	if a.DistributionType != b.DistributionType || a.SortOnSender != b.SortOnSender {
		return false
	}
	if !slices.Equal(a.Collation, b.Collation) {
		return false
	}
	if (a.KeySelector == nil) != (b.KeySelector == nil) {
		return false
	}
	return a.KeySelector == nil || slices.Equal(a.KeySelector.Columns(), b.KeySelector.Columns())
}
