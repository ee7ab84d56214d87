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

// Package partitioning holds the key selectors used by hash-distributed
// exchanges to map a row to its partition.
package partitioning

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySelector extracts the partition key of a row.
type KeySelector interface {
	// Columns returns the key column indices in key order.
	Columns() []int
	// Key returns the key values of row.
	Key(row []any) []any
	// ComputeHash returns the hash of the key of row. Rows with equal keys
	// hash equally on every worker.
	ComputeHash(row []any) uint64
}

// FieldSelectionKeySelector selects a fixed list of columns as the key.
// The column order defines the hash input order. A selector is immutable.
type FieldSelectionKeySelector struct {
	columns []int
}

var _ KeySelector = (*FieldSelectionKeySelector)(nil)

// NewFieldSelectionKeySelector copies columns, preserving their order.
func NewFieldSelectionKeySelector(columns []int) *FieldSelectionKeySelector {
	return &FieldSelectionKeySelector{columns: slices.Clone(columns)}
}

// Columns returns a copy of the key columns.
func (s *FieldSelectionKeySelector) Columns() []int {
	return slices.Clone(s.columns)
}

func (s *FieldSelectionKeySelector) Key(row []any) []any {
	key := make([]any, len(s.columns))
	for i, idx := range s.columns {
		key[i] = row[idx]
	}
	return key
}

func (s *FieldSelectionKeySelector) ComputeHash(row []any) uint64 {
	d := xxhash.New()
	var buf [9]byte
	for _, idx := range s.columns {
		_, _ = d.Write(encodeValue(buf[:0], row[idx]))
	}
	return d.Sum64()
}

// Partition returns the partition of row among n partitions.
func (s *FieldSelectionKeySelector) Partition(row []any, n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.ComputeHash(row) % uint64(n))
}

func (s *FieldSelectionKeySelector) String() string {
	parts := make([]string, len(s.columns))
	for i, idx := range s.columns {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// encodeValue appends a type-tagged encoding of v so that values of
// different types never collide (1 and "1" hash differently) and integer
// widths do not matter (int32(1) and int64(1) hash equally).
func encodeValue(dst []byte, v any) []byte {
	switch v := v.(type) {
	case nil:
		return append(dst, 0)
	case bool:
		if v {
			return append(dst, 1, 1)
		}
		return append(dst, 1, 0)
	case int:
		return appendInt(dst, int64(v))
	case int32:
		return appendInt(dst, int64(v))
	case int64:
		return appendInt(dst, v)
	case float32:
		return appendFloat(dst, float64(v))
	case float64:
		return appendFloat(dst, v)
	case string:
		dst = append(dst, 4)
		dst = binary.AppendUvarint(dst, uint64(len(v)))
		return append(dst, v...)
	case []byte:
		dst = append(dst, 5)
		dst = binary.AppendUvarint(dst, uint64(len(v)))
		return append(dst, v...)
	default:
		s := fmt.Sprint(v)
		dst = append(dst, 6)
		dst = binary.AppendUvarint(dst, uint64(len(s)))
		return append(dst, s...)
	}
}

func appendInt(dst []byte, v int64) []byte {
	dst = append(dst, 2)
	return binary.BigEndian.AppendUint64(dst, uint64(v))
}

func appendFloat(dst []byte, v float64) []byte {
	dst = append(dst, 3)
	return binary.BigEndian.AppendUint64(dst, math.Float64bits(v))
}
