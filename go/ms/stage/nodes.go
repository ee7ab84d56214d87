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
	"strings"

	"vitess.io/multistage/go/ms/rel"
)

// TableScanNode scans columns of a table segment-locally.
type TableScanNode struct {
	nodeBase
	TableName        string
	TableScanColumns []string
}

func NewTableScanNode(stageID int, schema *DataSchema, table string, columns []string) *TableScanNode {
	return &TableScanNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, TableName: table, TableScanColumns: columns}
}

func (n *TableScanNode) Explain() string {
	return fmt.Sprintf("TABLE_SCAN(%s, columns=[%s])", n.TableName, strings.Join(n.TableScanColumns, ", "))
}

// FilterNode keeps rows satisfying Condition.
type FilterNode struct {
	nodeBase
	Condition rel.Expr
}

func NewFilterNode(stageID int, schema *DataSchema, condition rel.Expr) *FilterNode {
	return &FilterNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, Condition: condition}
}

func (n *FilterNode) Explain() string {
	return fmt.Sprintf("FILTER(%s)", n.Condition)
}

// ProjectNode computes one expression per output column.
type ProjectNode struct {
	nodeBase
	Projects []rel.Expr
}

func NewProjectNode(stageID int, schema *DataSchema, projects []rel.Expr) *ProjectNode {
	return &ProjectNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, Projects: projects}
}

func (n *ProjectNode) Explain() string {
	return fmt.Sprintf("PROJECT(%s)", joinExprs(n.Projects))
}

// AggregateNode groups by GroupSet and evaluates AggCalls.
type AggregateNode struct {
	nodeBase
	GroupSet []int
	AggCalls []*rel.Call
}

func NewAggregateNode(stageID int, schema *DataSchema, groupSet []int, aggCalls []*rel.Call) *AggregateNode {
	return &AggregateNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, GroupSet: groupSet, AggCalls: aggCalls}
}

func (n *AggregateNode) Explain() string {
	calls := make([]string, len(n.AggCalls))
	for i, c := range n.AggCalls {
		calls[i] = c.String()
	}
	return fmt.Sprintf("AGGREGATE(group=%v, calls=[%s])", n.GroupSet, strings.Join(calls, ", "))
}

// SortNode sorts rows and applies an optional offset/fetch.
type SortNode struct {
	nodeBase
	Collation rel.Collation
	Offset    int64
	Fetch     int64
}

func NewSortNode(stageID int, schema *DataSchema, collation rel.Collation, offset, fetch int64) *SortNode {
	return &SortNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, Collation: collation, Offset: offset, Fetch: fetch}
}

func (n *SortNode) Explain() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SORT(collation=%s", n.Collation)
	if n.Offset >= 0 {
		fmt.Fprintf(&sb, ", offset=%d", n.Offset)
	}
	if n.Fetch >= 0 {
		fmt.Fprintf(&sb, ", fetch=%d", n.Fetch)
	}
	sb.WriteByte(')')
	return sb.String()
}

// JoinKeys are the equi-join columns: LeftKeys index the left input,
// RightKeys index the right input.
type JoinKeys struct {
	LeftKeys  []int
	RightKeys []int
}

// JoinNode joins its two inputs on JoinKeys; JoinClause holds the remaining
// non-equi predicates, if any.
type JoinNode struct {
	nodeBase
	JoinType   rel.JoinType
	JoinKeys   JoinKeys
	JoinClause []rel.Expr
}

func NewJoinNode(stageID int, schema *DataSchema, joinType rel.JoinType, keys JoinKeys, clause []rel.Expr) *JoinNode {
	return &JoinNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, JoinType: joinType, JoinKeys: keys, JoinClause: clause}
}

func (n *JoinNode) Explain() string {
	s := fmt.Sprintf("JOIN(%s, left=%v, right=%v", n.JoinType, n.JoinKeys.LeftKeys, n.JoinKeys.RightKeys)
	if len(n.JoinClause) > 0 {
		s += ", clause=[" + joinExprs(n.JoinClause) + "]"
	}
	return s + ")"
}

// WindowNode evaluates window functions.
type WindowNode struct {
	nodeBase
	PartitionKeys []int
	OrderKeys     rel.Collation
	Calls         []*rel.Call
}

func NewWindowNode(stageID int, schema *DataSchema, partitionKeys []int, orderKeys rel.Collation, calls []*rel.Call) *WindowNode {
	return &WindowNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, PartitionKeys: partitionKeys, OrderKeys: orderKeys, Calls: calls}
}

func (n *WindowNode) Explain() string {
	return fmt.Sprintf("WINDOW(partition=%v, order=%s, calls=%d)", n.PartitionKeys, n.OrderKeys, len(n.Calls))
}

// ValueNode produces literal rows.
type ValueNode struct {
	nodeBase
	LiteralRows [][]*rel.Literal
}

func NewValueNode(stageID int, schema *DataSchema, rows [][]*rel.Literal) *ValueNode {
	return &ValueNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, LiteralRows: rows}
}

func (n *ValueNode) Explain() string {
	return fmt.Sprintf("VALUES(rows=%d)", len(n.LiteralRows))
}

// SetOpNode combines the rows of its inputs.
type SetOpNode struct {
	nodeBase
	SetOpType rel.SetOpKind
	All       bool
}

func NewSetOpNode(stageID int, schema *DataSchema, kind rel.SetOpKind, all bool) *SetOpNode {
	return &SetOpNode{nodeBase: nodeBase{stageID: stageID, schema: schema}, SetOpType: kind, All: all}
}

func (n *SetOpNode) Explain() string {
	if n.All {
		return fmt.Sprintf("SET_OP(%s ALL)", n.SetOpType)
	}
	return fmt.Sprintf("SET_OP(%s)", n.SetOpType)
}

func joinExprs(exprs []rel.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
