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

package relfile

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"vitess.io/multistage/go/ms/rel"
)

func itoa(i int) string { return strconv.Itoa(i) }

func ints(r gjson.Result) []int {
	var out []int
	for _, v := range r.Array() {
		out = append(out, int(v.Int()))
	}
	return out
}

// optionalInt returns -1 for an absent value.
func optionalInt(r gjson.Result) int64 {
	if !r.Exists() || r.Type == gjson.Null {
		return -1
	}
	return r.Int()
}

func decodeType(r gjson.Result) (rel.ColumnType, error) {
	if !r.Exists() {
		return rel.TypeObject, nil
	}
	t, ok := rel.ParseColumnType(r.String())
	if !ok {
		return 0, errors.Errorf("unknown column type %q", r.String())
	}
	return t, nil
}

func decodeField(r gjson.Result) (rel.Field, error) {
	name := r.Get("name").String()
	if name == "" {
		return rel.Field{}, errors.New("field without name")
	}
	t, err := decodeType(r.Get("type"))
	if err != nil {
		return rel.Field{}, err
	}
	return rel.Field{Name: name, Type: t}, nil
}

// decodeFields returns nil when r is absent.
func decodeFields(r gjson.Result) ([]rel.Field, error) {
	if !r.Exists() {
		return nil, nil
	}
	out := []rel.Field{}
	for _, item := range r.Array() {
		f, err := decodeField(item)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// decodeExpr decodes {"input": i}, {"literal": v} or {"op": name, "operands": [...]}.
func decodeExpr(r gjson.Result) (rel.Expr, error) {
	if !r.IsObject() {
		return nil, errors.Errorf("expression must be an object, got %s", r.Raw)
	}
	t, err := decodeType(r.Get("type"))
	if err != nil {
		return nil, err
	}
	switch {
	case r.Get("input").Exists():
		idx := int(r.Get("input").Int())
		if idx < 0 {
			return nil, errors.Errorf("negative input reference %d", idx)
		}
		return &rel.InputRef{Index: idx, Type: t}, nil
	case r.Get("literal").Exists():
		return decodeLiteral(r)
	case r.Get("op").Exists():
		operands, err := decodeExprs(r.Get("operands"))
		if err != nil {
			return nil, err
		}
		return &rel.Call{Op: r.Get("op").String(), Operands: operands, Type: t}, nil
	}
	return nil, errors.Errorf("unrecognized expression %s", r.Raw)
}

func decodeExprs(r gjson.Result) ([]rel.Expr, error) {
	var out []rel.Expr
	for _, item := range r.Array() {
		e, err := decodeExpr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeCalls(r gjson.Result) ([]*rel.Call, error) {
	var out []*rel.Call
	for _, item := range r.Array() {
		e, err := decodeExpr(item)
		if err != nil {
			return nil, err
		}
		call, ok := e.(*rel.Call)
		if !ok {
			return nil, errors.Errorf("expected a function call, got %s", item.Raw)
		}
		out = append(out, call)
	}
	return out, nil
}

// decodeLiteral accepts {"literal": v, "type": t} or a bare JSON value.
func decodeLiteral(r gjson.Result) (*rel.Literal, error) {
	v := r
	t := rel.TypeObject
	if r.IsObject() {
		v = r.Get("literal")
		var err error
		if t, err = decodeType(r.Get("type")); err != nil {
			return nil, err
		}
	} else {
		switch r.Type {
		case gjson.Number:
			t = rel.TypeDouble
			if float64(r.Int()) == r.Float() {
				t = rel.TypeLong
			}
		case gjson.String:
			t = rel.TypeString
		case gjson.True, gjson.False:
			t = rel.TypeBoolean
		}
	}

	lit := &rel.Literal{Type: t}
	switch {
	case v.Type == gjson.Null:
	case t == rel.TypeInt || t == rel.TypeLong || t == rel.TypeTimestamp:
		lit.Value = v.Int()
	case t == rel.TypeFloat || t == rel.TypeDouble:
		lit.Value = v.Float()
	case t == rel.TypeBoolean:
		lit.Value = v.Bool()
	case t == rel.TypeString:
		lit.Value = v.String()
	default:
		lit.Value = v.Value()
	}
	return lit, nil
}

func decodeCollation(r gjson.Result) (rel.Collation, error) {
	var out rel.Collation
	for _, item := range r.Array() {
		fc := rel.FieldCollation{FieldIndex: int(item.Get("field").Int())}
		switch dir := item.Get("direction").String(); dir {
		case "", "ASC", "asc", "ASCENDING":
		case "DESC", "desc", "DESCENDING":
			fc.Direction = rel.Descending
		default:
			return nil, errors.Errorf("unknown sort direction %q", dir)
		}
		out = append(out, fc)
	}
	return out, nil
}

func decodeDistribution(r gjson.Result) (rel.Distribution, error) {
	if !r.IsObject() {
		return rel.Distribution{}, errors.New("exchange without distribution")
	}
	dt, ok := rel.ParseDistributionType(r.Get("type").String())
	if !ok {
		return rel.Distribution{}, errors.Errorf("unknown distribution type %q", r.Get("type").String())
	}
	return rel.Distribution{Type: dt, Keys: ints(r.Get("keys"))}, nil
}
