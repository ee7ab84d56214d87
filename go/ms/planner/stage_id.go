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
	"vitess.io/multistage/go/ms/mserrors"
	"vitess.io/multistage/go/ms/stage"
)

// StageIDGenerator issues the ids of the stages of one plan.
type StageIDGenerator interface {
	Next() int
}

type counterGenerator struct {
	next int
}

// NewStageIDGenerator returns a generator issuing 1, 2, 3...
func NewStageIDGenerator() StageIDGenerator {
	return &counterGenerator{next: stage.RootStageID + 1}
}

func (g *counterGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// checkedGenerator rejects ids that would break stage identity: the client
// stage id, or any id not greater than the last one issued.
type checkedGenerator struct {
	gen  StageIDGenerator
	last int
}

func (g *checkedGenerator) next() (int, error) {
	id := g.gen.Next()
	if id <= g.last {
		return 0, mserrors.NewInternalError("stage id generator issued %d after %d", id, g.last)
	}
	g.last = id
	return id, nil
}

// observe records id as issued, so later ids must exceed it.
func (g *checkedGenerator) observe(id int) {
	g.last = max(g.last, id)
}
