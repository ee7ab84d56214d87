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
	"strings"

	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/rel"
	"vitess.io/multistage/go/ms/stage"
)

// Converter turns one non-exchange operator into the equivalent stage node
// owned by stageID. Inputs are attached by the caller.
type Converter func(node rel.Node, stageID int) (stage.Node, error)

var _ Converter = RelToStage

// RelToStage is the default Converter.
func RelToStage(node rel.Node, stageID int) (stage.Node, error) {
	if node == nil {
		return nil, mserrors.NewStructuralPlanError("nil operator in plan")
	}
	schema := stage.NewDataSchema(node.RowType())
	switch node := node.(type) {
	case *rel.TableScan:
		if err := expectInputs(node, 0); err != nil {
			return nil, err
		}
		return stage.NewTableScanNode(stageID, schema, node.Table, node.Columns), nil
	case *rel.Filter:
		if err := expectInputs(node, 1); err != nil {
			return nil, err
		}
		return stage.NewFilterNode(stageID, schema, node.Condition), nil
	case *rel.Project:
		if err := expectInputs(node, 1); err != nil {
			return nil, err
		}
		return stage.NewProjectNode(stageID, schema, node.Projects), nil
	case *rel.Aggregate:
		if err := expectInputs(node, 1); err != nil {
			return nil, err
		}
		return stage.NewAggregateNode(stageID, schema, node.GroupSet, node.AggCalls), nil
	case *rel.Sort:
		if err := expectInputs(node, 1); err != nil {
			return nil, err
		}
		return stage.NewSortNode(stageID, schema, node.Collation, node.Offset, node.Fetch), nil
	case *rel.Join:
		return transformJoin(node, stageID, schema)
	case *rel.Window:
		if err := expectInputs(node, 1); err != nil {
			return nil, err
		}
		return stage.NewWindowNode(stageID, schema, node.PartitionKeys, node.OrderKeys, node.Calls), nil
	case *rel.Values:
		if err := expectInputs(node, 0); err != nil {
			return nil, err
		}
		return stage.NewValueNode(stageID, schema, node.Tuples), nil
	case *rel.SetOp:
		if len(node.Inputs()) < 2 {
			return nil, mserrors.NewStructuralPlanError("%s needs at least two inputs, got %d", node.Kind, len(node.Inputs()))
		}
		return stage.NewSetOpNode(stageID, schema, node.Kind, node.All), nil
	case *rel.Exchange, *rel.SortExchange:
		return nil, mserrors.NewInternalError("exchange reached the operator converter")
	default:
		return nil, mserrors.NewStructuralPlanError("unknown operator type %T", node)
	}
}

func expectInputs(node rel.Node, n int) error {
	if got := len(node.Inputs()); got != n {
		return mserrors.NewStructuralPlanError("%T expects %d inputs, got %d", node, n, got)
	}
	return nil
}

// transformJoin splits the join condition into equi-join keys, one pair per
// conjunct of the form left = right, and the remaining conjuncts.
func transformJoin(node *rel.Join, stageID int, schema *stage.DataSchema) (stage.Node, error) {
	if err := expectInputs(node, 2); err != nil {
		return nil, err
	}
	leftWidth := len(node.Inputs()[0].RowType())

	var keys stage.JoinKeys
	var clause []rel.Expr
	for _, conjunct := range rel.Conjuncts(node.Condition) {
		left, right, ok := equiJoinKey(conjunct, leftWidth)
		if !ok {
			clause = append(clause, conjunct)
			continue
		}
		keys.LeftKeys = append(keys.LeftKeys, left)
		keys.RightKeys = append(keys.RightKeys, right)
	}
	return stage.NewJoinNode(stageID, schema, node.JoinType, keys, clause), nil
}

// equiJoinKey recognizes $a = $b with one side in the left input and the
// other in the right input. Right indices are rebased on the right input.
func equiJoinKey(e rel.Expr, leftWidth int) (left, right int, ok bool) {
	call, isCall := e.(*rel.Call)
	if !isCall || len(call.Operands) != 2 || !isEquals(call.Op) {
		return 0, 0, false
	}
	a, aok := call.Operands[0].(*rel.InputRef)
	b, bok := call.Operands[1].(*rel.InputRef)
	if !aok || !bok {
		return 0, 0, false
	}
	if a.Index > b.Index {
		a, b = b, a
	}
	if a.Index >= leftWidth || b.Index < leftWidth {
		return 0, 0, false
	}
	return a.Index, b.Index - leftWidth, true
}

func isEquals(op string) bool {
	return op == "=" || strings.EqualFold(op, "EQUALS")
}
