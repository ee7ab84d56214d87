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

package rel

import (
	"fmt"
	"strings"
)

// Expr is a scalar expression over the columns of an operator's input.
type Expr interface {
	fmt.Stringer
	// ResultType is the type of the value produced by the expression.
	ResultType() ColumnType
}

// InputRef references a column of the input row by index.
type InputRef struct {
	Index int
	Type  ColumnType
}

func (r *InputRef) String() string         { return fmt.Sprintf("$%d", r.Index) }
func (r *InputRef) ResultType() ColumnType { return r.Type }

// Literal is a constant value.
type Literal struct {
	Type  ColumnType
	Value any
}

func (l *Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("'%s'", s)
	}
	return fmt.Sprintf("%v", l.Value)
}
func (l *Literal) ResultType() ColumnType { return l.Type }

// Call applies an operator or function to operands, e.g. "=", "AND", "SUM".
type Call struct {
	Op       string
	Operands []Expr
	Type     ColumnType
}

func (c *Call) String() string {
	args := make([]string, len(c.Operands))
	for i, op := range c.Operands {
		args[i] = op.String()
	}
	return c.Op + "(" + strings.Join(args, ", ") + ")"
}
func (c *Call) ResultType() ColumnType { return c.Type }

// Conjuncts splits an AND tree into its conjuncts. A nil expression has none.
func Conjuncts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	call, ok := e.(*Call)
	if !ok || !strings.EqualFold(call.Op, "AND") {
		return []Expr{e}
	}
	var out []Expr
	for _, op := range call.Operands {
		out = append(out, Conjuncts(op)...)
	}
	return out
}

// And combines conjuncts back into a single expression; it returns nil for
// an empty list.
func And(conjuncts []Expr) Expr {
	switch len(conjuncts) {
	case 0:
		return nil
	case 1:
		return conjuncts[0]
	}
	return &Call{Op: "AND", Operands: conjuncts, Type: TypeBoolean}
}
