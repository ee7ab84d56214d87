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
	"fmt"

	"vitess.io/multistage/go/ms/cluster"
	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
)

// MailboxID identifies the channel between one worker of a sending stage and
// one worker of the receiving stage.
type MailboxID struct {
	RequestID       int64
	SenderStageID   int
	SenderAddress   string
	ReceiverStageID int
	ReceiverAddress string
}

func (m MailboxID) String() string {
	return fmt.Sprintf("%d|%d|%s|%d|%s", m.RequestID, m.SenderStageID, m.SenderAddress, m.ReceiverStageID, m.ReceiverAddress)
}

// ResolveRoutes computes the mailboxes every sender worker writes to for the
// exchange rooted at send.
//
// HASH_DISTRIBUTED, BROADCAST and RANDOM_DISTRIBUTED exchanges connect every
// sender to every receiver. A SINGLETON exchange connects every sender to the
// only receiver, or, when the receiving stage runs on the sending stage's
// workers, each sender to itself.
func ResolveRoutes(requestID int64, send *stage.MailboxSendNode, senders, receivers []*cluster.ServerInstance) (map[string][]MailboxID, error) {
	if len(senders) == 0 || len(receivers) == 0 {
		return nil, mserrors.NewWorkerAssignmentError("exchange %d->%d has no workers on one side", send.StageID(), send.ReceiverStageID)
	}
	mailbox := func(from, to *cluster.ServerInstance) MailboxID {
		return MailboxID{
			RequestID:       requestID,
			SenderStageID:   send.StageID(),
			SenderAddress:   from.MailboxAddress(),
			ReceiverStageID: send.ReceiverStageID,
			ReceiverAddress: to.MailboxAddress(),
		}
	}

	routes := make(map[string][]MailboxID, len(senders))
	switch send.DistributionType {
	case rel.HashDistributed, rel.Broadcast, rel.RandomDistributed:
		for _, from := range senders {
			boxes := make([]MailboxID, len(receivers))
			for i, to := range receivers {
				boxes[i] = mailbox(from, to)
			}
			routes[from.ID] = boxes
		}
	case rel.Singleton:
		if len(receivers) == 1 {
			for _, from := range senders {
				routes[from.ID] = []MailboxID{mailbox(from, receivers[0])}
			}
			break
		}
		byID := make(map[string]*cluster.ServerInstance, len(receivers))
		for _, to := range receivers {
			byID[to.ID] = to
		}
		for _, from := range senders {
			to, ok := byID[from.ID]
			if !ok {
				return nil, mserrors.NewWorkerAssignmentError("singleton exchange %d->%d: sender %s has no local receiver among %d workers",
					send.StageID(), send.ReceiverStageID, from.ID, len(receivers))
			}
			routes[from.ID] = []MailboxID{mailbox(from, to)}
		}
	default:
		return nil, mserrors.NewStructuralPlanError("exchange %d->%d: unknown distribution %s", send.StageID(), send.ReceiverStageID, send.DistributionType)
	}
	return routes, nil
}
