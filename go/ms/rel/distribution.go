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
	"strconv"
	"strings"
)

// DistributionType is the partitioning discipline applied to rows that cross
// an exchange.
type DistributionType int

const (
	// Singleton sends every row to exactly one consumer.
	Singleton DistributionType = iota
	// HashDistributed sends each row to the consumer owning the hash of its key.
	HashDistributed
	// Broadcast sends every row to every consumer.
	Broadcast
	// RandomDistributed sends each row to any one consumer.
	RandomDistributed
)

var distributionNames = []string{"SINGLETON", "HASH_DISTRIBUTED", "BROADCAST", "RANDOM_DISTRIBUTED"}

func (t DistributionType) String() string {
	if int(t) >= 0 && int(t) < len(distributionNames) {
		return distributionNames[t]
	}
	return fmt.Sprintf("DistributionType(%d)", int(t))
}

// ParseDistributionType parses a distribution type name, e.g. "hash_distributed".
// The short forms "hash" and "random" are accepted as well.
func ParseDistributionType(s string) (DistributionType, bool) {
	s = strings.ToUpper(s)
	switch s {
	case "HASH":
		return HashDistributed, true
	case "RANDOM":
		return RandomDistributed, true
	}
	for i, name := range distributionNames {
		if name == s {
			return DistributionType(i), true
		}
	}
	return 0, false
}

// Distribution is the distribution descriptor exposed by an exchange. Keys
// are the declared key column indices, in declared order. The optimizer may
// expose keys for any type; only HashDistributed consumers look at them.
type Distribution struct {
	Type DistributionType
	Keys []int
}

func (d Distribution) String() string {
	if len(d.Keys) == 0 {
		return d.Type.String()
	}
	return d.Type.String() + formatInts(d.Keys)
}

// Direction is the sort direction of a collated field.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// FieldCollation is the sort contract on one field.
type FieldCollation struct {
	FieldIndex int
	Direction  Direction
}

func (fc FieldCollation) String() string {
	return fmt.Sprintf("(%d,%s)", fc.FieldIndex, fc.Direction)
}

// Collation is an ordered list of field collations. An empty collation
// carries no ordering contract.
type Collation []FieldCollation

func (c Collation) String() string {
	parts := make([]string, len(c))
	for i, fc := range c {
		parts[i] = fc.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Clone returns a copy of c, or nil when c is empty.
func (c Collation) Clone() Collation {
	if len(c) == 0 {
		return nil
	}
	out := make(Collation, len(c))
	copy(out, c)
	return out
}

func formatInts(in []int) string {
	parts := make([]string, len(in))
	for i, v := range in {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
