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

// Package rel is the relational operator tree handed to the stage planner by
// the cost-based optimizer. Trees are treated as immutable once built.
package rel

// Node is one relational operator.
type Node interface {
	// Inputs returns the operator's inputs in order.
	Inputs() []Node
	// RowType returns the operator's output fields in order.
	RowType() []Field
}

// Root is an optimized plan together with the fields returned to the client.
type Root struct {
	Node   Node
	Fields []FieldRef
}

// Base holds the row type and inputs shared by every operator.
type Base struct {
	Fields   []Field
	Children []Node
}

func (b *Base) Inputs() []Node   { return b.Children }
func (b *Base) RowType() []Field { return b.Fields }

// TableScan reads Columns of Table.
type TableScan struct {
	Base
	Table   string
	Columns []string
}

// Filter keeps the rows satisfying Condition.
type Filter struct {
	Base
	Condition Expr
}

// Project computes one expression per output column.
type Project struct {
	Base
	Projects []Expr
}

// Aggregate groups by GroupSet and computes AggCalls per group.
type Aggregate struct {
	Base
	GroupSet []int
	AggCalls []*Call
}

// Sort orders its input by Collation and optionally applies OFFSET/FETCH.
// Negative Offset or Fetch mean absent.
type Sort struct {
	Base
	Collation Collation
	Offset    int64
	Fetch     int64
}

// Join joins its two inputs. Condition references the concatenation of the
// left and right row types.
type Join struct {
	Base
	JoinType  JoinType
	Condition Expr
}

// Window computes window functions over partitions of its input.
type Window struct {
	Base
	PartitionKeys []int
	OrderKeys     Collation
	Calls         []*Call
}

// Values produces literal rows.
type Values struct {
	Base
	Tuples [][]*Literal
}

// SetOp combines the rows of two or more inputs.
type SetOp struct {
	Base
	Kind SetOpKind
	All  bool
}

// Exchange requires its input to be redistributed according to Distribution.
type Exchange struct {
	Base
	Distribution Distribution
}

// SortExchange is an Exchange that also carries an ordering contract.
// SortOnSender and SortOnReceiver only have meaning when Collation is not
// empty.
type SortExchange struct {
	Exchange
	Collation      Collation
	SortOnSender   bool
	SortOnReceiver bool
}

// IsExchange reports whether n marks a stage boundary.
func IsExchange(n Node) bool {
	switch n.(type) {
	case *Exchange, *SortExchange:
		return true
	}
	return false
}
