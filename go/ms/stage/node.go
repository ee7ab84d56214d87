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

// Package stage holds the physical stage tree produced by the stage planner.
//
// Every Node belongs to exactly one stage, identified by its stage id. A
// stage is a contiguous part of the tree; stages are connected by
// MailboxSendNode/MailboxReceiveNode pairs. A receive node never owns its
// sender: it refers to it by stage id and resolves it through a Registry.
package stage

import (
	"vitess.io/multistage/go/ms/rel"
)

// RootStageID is reserved for the synthetic stage that delivers results to
// the client.
const RootStageID = 0

// Node is one node of a stage tree.
type Node interface {
	// StageID returns the id of the stage this node belongs to.
	StageID() int
	// DataSchema returns the schema of the rows this node produces.
	DataSchema() *DataSchema
	// Inputs returns the inputs owned by this node, in order.
	Inputs() []Node
	// AddInput appends an input.
	AddInput(Node)
	// Explain returns a one line description of the node.
	Explain() string
}

// DataSchema is the ordered list of column names and types of a row.
type DataSchema struct {
	ColumnNames []string
	ColumnTypes []rel.ColumnType
}

// NewDataSchema derives a schema from an operator row type.
func NewDataSchema(fields []rel.Field) *DataSchema {
	ds := &DataSchema{
		ColumnNames: make([]string, len(fields)),
		ColumnTypes: make([]rel.ColumnType, len(fields)),
	}
	for i, f := range fields {
		ds.ColumnNames[i] = f.Name
		ds.ColumnTypes[i] = f.Type
	}
	return ds
}

// Size returns the number of columns.
func (ds *DataSchema) Size() int {
	return len(ds.ColumnNames)
}

type nodeBase struct {
	stageID int
	schema  *DataSchema
	inputs  []Node
}

func (b *nodeBase) StageID() int            { return b.stageID }
func (b *nodeBase) DataSchema() *DataSchema { return b.schema }
func (b *nodeBase) Inputs() []Node          { return b.inputs }
func (b *nodeBase) AddInput(n Node)         { b.inputs = append(b.inputs, n) }

// Walk calls visit for root and every node below it that belongs to the same
// stage, depth first, inputs in order. Receive nodes are visited, but the
// stages they read from are not. It stops at the first error.
func Walk(root Node, visit func(Node) error) error {
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := visit(n); err != nil {
			return err
		}
		inputs := n.Inputs()
		for i := len(inputs) - 1; i >= 0; i-- {
			stack = append(stack, inputs[i])
		}
	}
	return nil
}
