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

// ColumnType is the logical type of a column in a row.
type ColumnType int

const (
	TypeInt ColumnType = iota
	TypeLong
	TypeFloat
	TypeDouble
	TypeBoolean
	TypeTimestamp
	TypeString
	TypeBytes
	TypeObject
)

var columnTypeNames = []string{"INT", "LONG", "FLOAT", "DOUBLE", "BOOLEAN", "TIMESTAMP", "STRING", "BYTES", "OBJECT"}

func (t ColumnType) String() string {
	if int(t) >= 0 && int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType parses the upper or lower case name of a column type.
func ParseColumnType(s string) (ColumnType, bool) {
	s = strings.ToUpper(s)
	for i, name := range columnTypeNames {
		if name == s {
			return ColumnType(i), true
		}
	}
	return 0, false
}

// Field describes one output column of an operator.
type Field struct {
	Name string
	Type ColumnType
}

// FieldRef is one output field of the query result: the index of the column
// in the root operator's row type and the name it is returned under.
type FieldRef struct {
	Index int
	Name  string
}

// JoinType is the kind of a join.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	SemiJoin
	AntiJoin
)

var joinTypeNames = []string{"INNER", "LEFT", "RIGHT", "FULL", "SEMI", "ANTI"}

func (t JoinType) String() string {
	if int(t) >= 0 && int(t) < len(joinTypeNames) {
		return joinTypeNames[t]
	}
	return fmt.Sprintf("JoinType(%d)", int(t))
}

// ParseJoinType parses the name of a join type.
func ParseJoinType(s string) (JoinType, bool) {
	s = strings.ToUpper(s)
	for i, name := range joinTypeNames {
		if name == s {
			return JoinType(i), true
		}
	}
	return 0, false
}

// SetOpKind is the kind of a set operation.
type SetOpKind int

const (
	Union SetOpKind = iota
	Intersect
	Minus
)

var setOpNames = []string{"UNION", "INTERSECT", "MINUS"}

func (k SetOpKind) String() string {
	if int(k) >= 0 && int(k) < len(setOpNames) {
		return setOpNames[k]
	}
	return fmt.Sprintf("SetOpKind(%d)", int(k))
}

// ParseSetOpKind parses the name of a set operation.
func ParseSetOpKind(s string) (SetOpKind, bool) {
	s = strings.ToUpper(s)
	for i, name := range setOpNames {
		if name == s {
			return SetOpKind(i), true
		}
	}
	return 0, false
}
