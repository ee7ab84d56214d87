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
	"github.com/gammazero/deque"

	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
)

// splitTask is one operator waiting to be converted. The converted node is
// attached to parent, or becomes the result when parent is nil.
type splitTask struct {
	node    rel.Node
	stageID int
	parent  stage.Node
}

// splitter cuts one operator tree into stages.
type splitter struct {
	convert Converter
	ids     *checkedGenerator
	forest  *stage.Forest
	// onExchange is called for every pair created.
	onExchange func(*stage.MailboxSendNode)
}

// split converts the tree below root, placing root in stage stageID. Every
// exchange operator becomes a sender rooting a new stage and a receiver in
// the stage of its parent. Stage ids are issued in pre-order.
//
// The walk uses an explicit stack. Inputs are pushed in reverse so that
// they are popped, and therefore attached, in their original order.
//
// Every stage created below root gets an id greater than stageID, so an
// exchange never lands inside the stage that receives from it.
func (s *splitter) split(root rel.Node, stageID int) (stage.Node, error) {
	s.ids.observe(stageID)
	var (
		result stage.Node
		stack  deque.Deque[splitTask]
	)
	stack.PushBack(splitTask{node: root, stageID: stageID})
	for stack.Len() > 0 {
		task := stack.PopBack()

		if task.node == nil {
			return nil, mserrors.NewStructuralPlanError("nil operator in plan")
		}

		var (
			converted stage.Node
			children  []splitTask
		)
		if c, ok := contractOf(task.node); ok {
			inputs := task.node.Inputs()
			if len(inputs) != 1 {
				return nil, mserrors.NewStructuralPlanError("exchange expects exactly one input, got %d", len(inputs))
			}
			childStageID, err := s.ids.next()
			if err != nil {
				return nil, err
			}
			if childStageID <= task.stageID {
				return nil, mserrors.NewInternalError("exchange in stage %d was given stage id %d", task.stageID, childStageID)
			}
			schema := stage.NewDataSchema(task.node.RowType())
			send, recv, err := newExchangePair(s.forest, schema, childStageID, task.stageID, c, nil)
			if err != nil {
				return nil, err
			}
			if s.onExchange != nil {
				s.onExchange(send)
			}
			converted = recv
			children = []splitTask{{node: inputs[0], stageID: childStageID, parent: send}}
		} else {
			node, err := s.convert(task.node, task.stageID)
			if err != nil {
				return nil, err
			}
			if node == nil || node.StageID() != task.stageID {
				return nil, mserrors.NewInternalError("converter returned a node outside stage %d for %T", task.stageID, task.node)
			}
			converted = node
			inputs := task.node.Inputs()
			children = make([]splitTask, len(inputs))
			for i, in := range inputs {
				children[i] = splitTask{node: in, stageID: task.stageID, parent: node}
			}
		}

		if task.parent == nil {
			result = converted
		} else {
			task.parent.AddInput(converted)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack.PushBack(children[i])
		}
	}
	return result, nil
}
