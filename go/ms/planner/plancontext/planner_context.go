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

package plancontext

import (
	"maps"
)

// UseColocatedJoinOption is the query option that enables the colocation
// aware shuffle rewrite. Recognized values are "true" and "false".
const UseColocatedJoinOption = "useColocatedJoin"

// PlannerContext carries the per-query planning state that outlives the
// stage split: query options today, and whatever later passes (worker
// assignment, tracing) need to see from the planner.
type PlannerContext struct {
	options map[string]string
}

// NewPlannerContext copies options into a new context.
func NewPlannerContext(options map[string]string) *PlannerContext {
	opts := maps.Clone(options)
	if opts == nil {
		opts = map[string]string{}
	}
	return &PlannerContext{options: opts}
}

// Option returns the value of key, or def when it is not set.
func (pc *PlannerContext) Option(key, def string) string {
	if pc == nil {
		return def
	}
	if v, ok := pc.options[key]; ok {
		return v
	}
	return def
}

// Options returns a copy of all options.
func (pc *PlannerContext) Options() map[string]string {
	if pc == nil {
		return map[string]string{}
	}
	return maps.Clone(pc.options)
}

// UseColocatedJoin reports whether the colocation rewrite is enabled. Only
// the exact value "true" enables it.
func (pc *PlannerContext) UseColocatedJoin() bool {
	return pc.Option(UseColocatedJoinOption, "false") == "true"
}
