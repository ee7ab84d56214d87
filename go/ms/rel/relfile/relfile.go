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

// Package relfile decodes relational plans from their JSON description.
//
// A plan file looks like
//
//	{
//	  "fields": [{"index": 0, "name": "a"}],
//	  "rel": {"op": "aggregate", "groupSet": [0], "inputs": [...]}
//	}
//
// Every operator object has an "op" and, except for leaves, "inputs".
// "fields" may be omitted on operators whose row type is the one of their
// only input, and on table scans whose columns carry their types.
package relfile

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/rel"
)

// Plan is a decoded plan file.
type Plan struct {
	Root rel.Root
	// Tables are the tables scanned by the plan, sorted.
	Tables []string
}

// ReadFile decodes the plan file at path.
func ReadFile(path string) (*Plan, error) {
	return ReadFileFs(afero.NewOsFs(), path)
}

// ReadFileFs decodes the plan file at path in fs.
func ReadFileFs(fs afero.Fs, path string) (*Plan, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading plan file %s", path)
	}
	return Decode(data)
}

// Decode decodes a plan description.
func Decode(data []byte) (*Plan, error) {
	if !gjson.ValidBytes(data) {
		return nil, mserrors.NewStructuralPlanError("plan is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	relDoc := doc.Get("rel")
	if !relDoc.IsObject() {
		return nil, mserrors.NewStructuralPlanError(`plan has no "rel" object`)
	}

	d := &decoder{tables: map[string]bool{}}
	node, err := d.node(relDoc, "rel")
	if err != nil {
		return nil, err
	}

	var fields []rel.FieldRef
	if f := doc.Get("fields"); f.Exists() {
		for i, item := range f.Array() {
			ref := rel.FieldRef{Index: int(item.Get("index").Int()), Name: item.Get("name").String()}
			if !item.Get("index").Exists() {
				ref.Index = i
			}
			if ref.Index < 0 || ref.Index >= len(node.RowType()) {
				return nil, mserrors.NewStructuralPlanError("result field %q references column %d of %d", ref.Name, ref.Index, len(node.RowType()))
			}
			fields = append(fields, ref)
		}
	} else {
		for i, f := range node.RowType() {
			fields = append(fields, rel.FieldRef{Index: i, Name: f.Name})
		}
	}

	tables := make([]string, 0, len(d.tables))
	for t := range d.tables {
		tables = append(tables, t)
	}
	slices.Sort(tables)
	return &Plan{Root: rel.Root{Node: node, Fields: fields}, Tables: tables}, nil
}

type decoder struct {
	tables map[string]bool
}

func structural(path, format string, args ...any) error {
	return mserrors.Wrapf(mserrors.NewStructuralPlanError(format, args...), mserrors.StructuralPlan, "%s", path)
}

func (d *decoder) node(r gjson.Result, path string) (rel.Node, error) {
	op := r.Get("op").String()
	path = path + "(" + op + ")"

	var inputs []rel.Node
	for i, in := range r.Get("inputs").Array() {
		child, err := d.node(in, path+".inputs["+itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, child)
	}

	fields, err := decodeFields(r.Get("fields"))
	if err != nil {
		return nil, structural(path, "%v", err)
	}
	if fields == nil && len(inputs) == 1 {
		fields = inputs[0].RowType()
	}
	base := rel.Base{Fields: fields, Children: inputs}

	switch op {
	case "tableScan":
		table := r.Get("table").String()
		if table == "" {
			return nil, structural(path, "table scan without table")
		}
		d.tables[table] = true
		var columns []string
		var typed []rel.Field
		for _, c := range r.Get("columns").Array() {
			if c.IsObject() {
				f, err := decodeField(c)
				if err != nil {
					return nil, structural(path, "%v", err)
				}
				typed = append(typed, f)
				columns = append(columns, f.Name)
				continue
			}
			columns = append(columns, c.String())
			typed = append(typed, rel.Field{Name: c.String(), Type: rel.TypeObject})
		}
		if base.Fields == nil {
			base.Fields = typed
		}
		return &rel.TableScan{Base: base, Table: table, Columns: columns}, nil
	case "filter":
		cond, err := decodeExpr(r.Get("condition"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		return &rel.Filter{Base: base, Condition: cond}, nil
	case "project":
		projects, err := decodeExprs(r.Get("projects"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		if !r.Get("fields").Exists() {
			base.Fields = make([]rel.Field, len(projects))
			for i, p := range projects {
				base.Fields[i] = rel.Field{Name: "$" + itoa(i), Type: p.ResultType()}
			}
		}
		return &rel.Project{Base: base, Projects: projects}, nil
	case "aggregate":
		calls, err := decodeCalls(r.Get("aggCalls"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		return &rel.Aggregate{Base: base, GroupSet: ints(r.Get("groupSet")), AggCalls: calls}, nil
	case "sort":
		collation, err := decodeCollation(r.Get("collation"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		return &rel.Sort{Base: base, Collation: collation, Offset: optionalInt(r.Get("offset")), Fetch: optionalInt(r.Get("fetch"))}, nil
	case "join":
		jt := rel.InnerJoin
		if s := r.Get("joinType"); s.Exists() {
			var ok bool
			if jt, ok = rel.ParseJoinType(s.String()); !ok {
				return nil, structural(path, "unknown join type %q", s.String())
			}
		}
		var cond rel.Expr
		if c := r.Get("condition"); c.Exists() {
			if cond, err = decodeExpr(c); err != nil {
				return nil, structural(path, "%v", err)
			}
		}
		if !r.Get("fields").Exists() {
			base.Fields = nil
			for _, in := range inputs {
				base.Fields = append(base.Fields, in.RowType()...)
			}
		}
		return &rel.Join{Base: base, JoinType: jt, Condition: cond}, nil
	case "window":
		orderKeys, err := decodeCollation(r.Get("orderKeys"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		calls, err := decodeCalls(r.Get("calls"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		return &rel.Window{Base: base, PartitionKeys: ints(r.Get("partitionKeys")), OrderKeys: orderKeys, Calls: calls}, nil
	case "values":
		var tuples [][]*rel.Literal
		for _, row := range r.Get("tuples").Array() {
			var tuple []*rel.Literal
			for _, v := range row.Array() {
				lit, err := decodeLiteral(v)
				if err != nil {
					return nil, structural(path, "%v", err)
				}
				tuple = append(tuple, lit)
			}
			tuples = append(tuples, tuple)
		}
		return &rel.Values{Base: base, Tuples: tuples}, nil
	case "setOp":
		kind, ok := rel.ParseSetOpKind(r.Get("kind").String())
		if !ok {
			return nil, structural(path, "unknown set operation %q", r.Get("kind").String())
		}
		return &rel.SetOp{Base: base, Kind: kind, All: r.Get("all").Bool()}, nil
	case "exchange", "sortExchange":
		dist, err := decodeDistribution(r.Get("distribution"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		ex := rel.Exchange{Base: base, Distribution: dist}
		if op == "exchange" {
			return &ex, nil
		}
		collation, err := decodeCollation(r.Get("collation"))
		if err != nil {
			return nil, structural(path, "%v", err)
		}
		return &rel.SortExchange{
			Exchange:       ex,
			Collation:      collation,
			SortOnSender:   r.Get("sortOnSender").Bool(),
			SortOnReceiver: r.Get("sortOnReceiver").Bool(),
		}, nil
	case "":
		return nil, structural(path, "operator without op")
	default:
		return nil, structural(path, "unknown operator %q", op)
	}
}
